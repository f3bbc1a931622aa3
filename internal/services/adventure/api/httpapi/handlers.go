// Package httpapi exposes the adventure endpoints over the JSON API.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/adventure/app"
	"github.com/questforge/questforge/internal/services/adventure/media"
	"github.com/questforge/questforge/internal/services/adventure/quest"
	"github.com/questforge/questforge/internal/services/character/sheet"
	"github.com/questforge/questforge/internal/transport/httpapi"
)

// maxAudioUpload bounds speech-to-text uploads.
const maxAudioUpload = 10 << 20

// Handler serves the adventure endpoints.
type Handler struct {
	service *app.Service
	media   *media.Generator
	logger  *zap.Logger
}

// NewHandler wires the adventure HTTP surface. The media generator may
// be nil when transcription is not configured.
func NewHandler(service *app.Service, generator *media.Generator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, media: generator, logger: logger}
}

// Register mounts the adventure routes. Every route requires a valid
// access token.
func (h *Handler) Register(router *mux.Router, authenticated func(http.Handler) http.Handler) {
	route := func(path string, handler http.HandlerFunc, methods ...string) {
		router.Handle(path, authenticated(handler)).Methods(methods...)
	}

	route("/adventures/generate/{character_id}", h.generate, http.MethodPost)
	route("/adventures/{id}/action", h.action, http.MethodPost)
	route("/adventures/{id}/complete", h.complete, http.MethodPost)
	route("/audio/transcriptions", h.transcribe, http.MethodPost)
}

func (h *Handler) callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := httpapi.ClaimsFromContext(r.Context())
	if !ok {
		httpapi.WriteError(w, r, h.logger, apperrors.New(apperrors.CodeAuthAccessTokenMissing, "authentication required"))
		return "", false
	}
	return claims.UserID, true
}

type preferencesRequest struct {
	Theme      string `json:"theme"`
	Difficulty string `json:"difficulty"`
	Length     string `json:"length"`
}

type startAdventureResponse struct {
	AdventureID         string           `json:"adventure_id"`
	AdventureDefinition quest.Definition `json:"adventure_definition"`
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerID(w, r)
	if !ok {
		return
	}
	var req preferencesRequest
	if r.ContentLength > 0 {
		if err := httpapi.DecodeJSON(w, r, &req); err != nil {
			httpapi.WriteError(w, r, h.logger, err)
			return
		}
	}

	adventure, err := h.service.Generate(r.Context(), caller, mux.Vars(r)["character_id"], quest.Preferences{
		Theme:      req.Theme,
		Difficulty: req.Difficulty,
		Length:     req.Length,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, startAdventureResponse{
		AdventureID:         adventure.ID,
		AdventureDefinition: adventure.Definition,
	})
}

type playerActionRequest struct {
	ActionText  string `json:"action_text"`
	StatToCheck string `json:"stat_to_check"`
	SuggestedDC int    `json:"suggested_dc"`
}

type actionOutcomeResponse struct {
	Narration            string `json:"narration"`
	SkillCheckResultDesc string `json:"skill_check_result_desc,omitempty"`
	SkillCheckSuccess    *bool  `json:"skill_check_success,omitempty"`
	EncounterAdvanced    bool   `json:"encounter_advanced"`
	AudioNarrationURL    string `json:"audio_narration_url,omitempty"`
	SoundEffectURL       string `json:"sound_effect_url,omitempty"`
}

func (h *Handler) action(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerID(w, r)
	if !ok {
		return
	}
	var req playerActionRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	result, err := h.service.Action(r.Context(), caller, mux.Vars(r)["id"], app.ActionInput{
		ActionText:  req.ActionText,
		StatToCheck: req.StatToCheck,
		SuggestedDC: req.SuggestedDC,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	response := actionOutcomeResponse{
		Narration:         result.Narration,
		EncounterAdvanced: result.EncounterAdvanced,
		AudioNarrationURL: result.AudioNarrationURL,
	}
	if result.Check.Performed {
		response.SkillCheckResultDesc = result.Check.Description
		success := result.Check.Success
		response.SkillCheckSuccess = &success
	}
	httpapi.WriteJSON(w, http.StatusOK, response)
}

type completionCharacter struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Stats            sheet.Stats `json:"stats"`
	Skills           string      `json:"skills"`
	Inventory        string      `json:"inventory"`
	Version          int         `json:"version"`
	ExperiencePoints int         `json:"experience_points"`
	CharacterLevel   int         `json:"character_level"`
}

type completionResponse struct {
	Reward     quest.Reward        `json:"reward"`
	Conclusion string              `json:"conclusion"`
	Character  completionCharacter `json:"character"`
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerID(w, r)
	if !ok {
		return
	}
	result, err := h.service.Complete(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, completionResponse{
		Reward:     result.Reward,
		Conclusion: result.Conclusion,
		Character: completionCharacter{
			ID:               result.Character.ID,
			Name:             result.Character.Name,
			Stats:            result.Character.Stats,
			Skills:           result.Character.Skills,
			Inventory:        result.Character.Inventory,
			Version:          result.Character.Version,
			ExperiencePoints: result.Character.ExperiencePoints,
			CharacterLevel:   result.Character.CharacterLevel,
		},
	})
}

type transcriptionResponse struct {
	Transcription string `json:"transcription"`
}

func (h *Handler) transcribe(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.callerID(w, r); !ok {
		return
	}
	if h.media == nil || !h.media.Enabled() {
		httpapi.WriteError(w, r, h.logger, apperrors.New(apperrors.CodeAdventureGMFailure, "audio transcription is not available"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUpload)
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		httpapi.WriteError(w, r, h.logger, apperrors.Wrap(apperrors.CodeMalformedRequest, "parse audio upload", err))
		return
	}
	file, header, err := r.FormFile("audio_file")
	if err != nil {
		httpapi.WriteError(w, r, h.logger, apperrors.Wrap(apperrors.CodeMalformedRequest, "audio_file field is required", err))
		return
	}
	defer file.Close()

	text, err := h.media.Transcribe(r.Context(), header.Filename, file)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, transcriptionResponse{Transcription: text})
}
