package quest

import "math/rand"

// RewardType enumerates what a completed adventure can grant.
type RewardType string

const (
	RewardEquipment   RewardType = "equipment"
	RewardNewSkill    RewardType = "new_skill"
	RewardStatUpgrade RewardType = "stat_upgrade"
)

// CompletionXP is granted on every adventure completion on top of the
// drawn reward.
const CompletionXP = 100

// Reward is what the player receives for finishing an adventure.
type Reward struct {
	Type             RewardType `json:"reward_type"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	TargetStat       string     `json:"target_stat,omitempty"`
	Value            string     `json:"value,omitempty"`
	ExperiencePoints int        `json:"experience_points"`
}

var rewardTable = []Reward{
	{Type: RewardEquipment, Name: "Dagger of Swiftness", Description: "A lightweight dagger that feels quick in your hand.", Value: "Dagger of Swiftness"},
	{Type: RewardEquipment, Name: "Shield of Minor Warding", Description: "A sturdy shield that hums with faint protective magic.", Value: "Shield of Minor Warding"},
	{Type: RewardNewSkill, Name: "Keen Eye", Description: "You've learned to spot details others might miss.", Value: "Keen Eye"},
	{Type: RewardNewSkill, Name: "Persuasive Tongue", Description: "You've honed your ability to sway others with words.", Value: "Persuasive Tongue"},
	{Type: RewardStatUpgrade, Name: "Minor Strength Boost", Description: "Your physical training pays off. Your Strength increases by 1.", TargetStat: "strength", Value: "+1"},
	{Type: RewardStatUpgrade, Name: "Minor Dexterity Boost", Description: "You feel more agile. Your Dexterity increases by 1.", TargetStat: "dexterity", Value: "+1"},
	{Type: RewardStatUpgrade, Name: "Minor Intelligence Boost", Description: "Your studies sharpen your mind. Your Intelligence increases by 1.", TargetStat: "intelligence", Value: "+1"},
	{Type: RewardStatUpgrade, Name: "Minor Charisma Boost", Description: "Your presence becomes more commanding. Your Charisma increases by 1.", TargetStat: "charisma", Value: "+1"},
}

// DrawReward picks a completion reward. The draw is deterministic for
// a given seed. Every draw carries the completion XP.
func DrawReward(seed int64) Reward {
	rng := rand.New(rand.NewSource(seed))
	reward := rewardTable[rng.Intn(len(rewardTable))]
	reward.ExperiencePoints = CompletionXP
	return reward
}

// FallbackReward replaces a drawn reward that cannot be applied to the
// character, keeping the completion XP.
func FallbackReward() Reward {
	return Reward{
		Type:             RewardEquipment,
		Name:             "Adventurer's Trophy",
		Description:      "A keepsake from the completed adventure.",
		Value:            "Adventurer's Trophy",
		ExperiencePoints: CompletionXP,
	}
}
