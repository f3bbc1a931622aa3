// Package quest models generated adventures and their session state.
package quest

// Encounter is one scene the player must resolve.
type Encounter struct {
	Description        string `json:"description"`
	ChallengeObjective string `json:"challenge_objective"`
	PotentialOutcomes  string `json:"potential_outcomes,omitempty"`
	ImageURL           string `json:"image_url,omitempty"`
	BackgroundMusicURL string `json:"background_music_url,omitempty"`
}

// Definition is one generated adventure: a goal, ordered encounters,
// and a conclusion.
type Definition struct {
	Title       string      `json:"title"`
	OverallGoal string      `json:"overall_goal"`
	Encounters  []Encounter `json:"encounters"`
	Conclusion  string      `json:"conclusion"`
}

// State is the ephemeral session record for an active adventure.
type State struct {
	Definition            Definition `json:"definition"`
	CurrentEncounterIndex int        `json:"current_encounter_index"`
	CharacterID           string     `json:"character_id"`
	OwnerID               string     `json:"owner_id"`
}

// CurrentEncounter returns the active encounter, or false when the
// party has moved past the last one.
func (s State) CurrentEncounter() (Encounter, bool) {
	if s.CurrentEncounterIndex < 0 || s.CurrentEncounterIndex >= len(s.Definition.Encounters) {
		return Encounter{}, false
	}
	return s.Definition.Encounters[s.CurrentEncounterIndex], true
}

// CurrentScene is the text the GM narrates against: the active
// encounter's description, or the conclusion once encounters are done.
func (s State) CurrentScene() string {
	if encounter, ok := s.CurrentEncounter(); ok {
		return encounter.Description
	}
	return s.Definition.Conclusion
}

// Preferences steer adventure generation.
type Preferences struct {
	Theme      string `json:"theme,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Length     string `json:"length,omitempty"`
}
