package sheet

import (
	"encoding/json"
	"time"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
)

// ExportFormatVersion tags the export envelope for forward
// compatibility.
const ExportFormatVersion = "1.0.0"

// Export is the portable character envelope. Round-tripping through
// Export and ParseExport preserves every business field.
type Export struct {
	FormatVersion     string    `json:"format_version"`
	ExportedAt        time.Time `json:"exported_at"`
	Name              string    `json:"name"`
	Stats             Stats     `json:"stats"`
	PersonalityTraits string    `json:"personality_traits"`
	Skills            string    `json:"skills"`
	Inventory         string    `json:"inventory"`
	ExperiencePoints  int       `json:"experience_points"`
	CharacterLevel    int       `json:"character_level"`
	IsTemplate        bool      `json:"is_template"`
}

// NewExport builds the envelope for a character.
func NewExport(character Character, now time.Time) Export {
	return Export{
		FormatVersion:     ExportFormatVersion,
		ExportedAt:        now.UTC(),
		Name:              character.Name,
		Stats:             character.Stats,
		PersonalityTraits: character.PersonalityTraits,
		Skills:            character.Skills,
		Inventory:         character.Inventory,
		ExperiencePoints:  character.ExperiencePoints,
		CharacterLevel:    character.CharacterLevel,
		IsTemplate:        character.IsTemplate,
	}
}

// Marshal renders the envelope as JSON.
func (e Export) Marshal() ([]byte, error) {
	payload, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "encode character export", err)
	}
	return payload, nil
}

// ParseExport decodes and validates an import payload. Stats must be
// in range; the creation budget is not enforced because level
// progression legitimately raises stats past it.
func ParseExport(payload []byte) (Export, error) {
	var export Export
	if err := json.Unmarshal(payload, &export); err != nil {
		return Export{}, apperrors.Wrap(apperrors.CodeCharacterImportInvalid, "import payload is not valid JSON", err)
	}
	if export.FormatVersion != ExportFormatVersion {
		return Export{}, apperrors.WithMetadata(
			apperrors.CodeCharacterImportInvalid,
			"unsupported export format version",
			map[string]string{"format_version": export.FormatVersion},
		)
	}
	if _, err := ValidateName(export.Name); err != nil {
		return Export{}, apperrors.Wrap(apperrors.CodeCharacterImportInvalid, "import payload has an invalid name", err)
	}
	if err := ValidateStatRange(export.Stats); err != nil {
		return Export{}, apperrors.Wrap(apperrors.CodeCharacterImportInvalid, "import payload has out-of-range stats", err)
	}
	if export.CharacterLevel < 1 {
		export.CharacterLevel = 1
	}
	if export.ExperiencePoints < 0 {
		return Export{}, apperrors.New(apperrors.CodeCharacterImportInvalid, "import payload has negative experience")
	}
	return export, nil
}
