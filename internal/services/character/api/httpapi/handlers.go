// Package httpapi exposes the character service over the JSON API.
package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/character/app"
	"github.com/questforge/questforge/internal/services/character/sheet"
	"github.com/questforge/questforge/internal/services/character/storage"
	"github.com/questforge/questforge/internal/transport/httpapi"
)

// Handler serves the character endpoints.
type Handler struct {
	service  *app.Service
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler wires the character HTTP surface.
func NewHandler(service *app.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// Register mounts the character routes. Every route requires a valid
// access token.
func (h *Handler) Register(router *mux.Router, authenticated func(http.Handler) http.Handler) {
	route := func(path string, handler http.HandlerFunc, methods ...string) {
		router.Handle(path, authenticated(handler)).Methods(methods...)
	}

	route("/characters/", h.list, http.MethodGet)
	route("/characters/", h.create, http.MethodPost)
	route("/characters/import", h.importCharacter, http.MethodPost)
	// Public searches need no bearer token.
	router.HandleFunc("/characters/search/public", h.searchPublic).Methods(http.MethodGet)
	route("/characters/{id}", h.get, http.MethodGet)
	route("/characters/{id}", h.update, http.MethodPut, http.MethodPatch)
	route("/characters/{id}", h.delete, http.MethodDelete)
	route("/characters/{id}/share", h.share, http.MethodPatch)
	route("/characters/{id}/versions", h.listVersions, http.MethodGet)
	route("/characters/{id}/snapshot", h.snapshot, http.MethodPost)
	route("/characters/{id}/restore/{version}", h.restore, http.MethodPost)
	route("/characters/{id}/export", h.export, http.MethodGet)
	route("/characters/{id}/equipment", h.listEquipment, http.MethodGet)
	route("/characters/{id}/equipment", h.addEquipment, http.MethodPost)
	route("/characters/{id}/equipment/{equipment_id}", h.updateEquipment, http.MethodPut)
	route("/characters/{id}/equipment/{equipment_id}", h.removeEquipment, http.MethodDelete)
	route("/characters/{id}/skills", h.listCharacterSkills, http.MethodGet)
	route("/characters/{id}/skills/{skill_id}", h.acquireSkill, http.MethodPost)
	route("/skills/", h.listSkills, http.MethodGet)
	route("/skills/", h.createSkill, http.MethodPost)
	route("/templates/", h.createTemplate, http.MethodPost)
	router.HandleFunc("/templates/public", h.listTemplates).Methods(http.MethodGet)
	route("/templates/{id}/create-character", h.instantiateTemplate, http.MethodPost)
}

func callerID(w http.ResponseWriter, r *http.Request, h *Handler) (string, bool) {
	claims, ok := httpapi.ClaimsFromContext(r.Context())
	if !ok {
		httpapi.WriteError(w, r, h.logger, apperrors.New(apperrors.CodeAuthAccessTokenMissing, "authentication required"))
		return "", false
	}
	return claims.UserID, true
}

type statsPayload struct {
	Strength     int `json:"strength" validate:"required"`
	Dexterity    int `json:"dexterity" validate:"required"`
	Intelligence int `json:"intelligence" validate:"required"`
	Charisma     int `json:"charisma" validate:"required"`
}

func (p statsPayload) toStats() sheet.Stats {
	return sheet.Stats{
		Strength:     p.Strength,
		Dexterity:    p.Dexterity,
		Intelligence: p.Intelligence,
		Charisma:     p.Charisma,
	}
}

type createCharacterRequest struct {
	Name              string       `json:"name" validate:"required"`
	Stats             statsPayload `json:"stats" validate:"required"`
	PersonalityTraits string       `json:"personality_traits"`
	Skills            string       `json:"skills"`
	Inventory         string       `json:"inventory"`
}

type updateCharacterRequest struct {
	Name              *string       `json:"name,omitempty"`
	Stats             *statsPayload `json:"stats,omitempty"`
	PersonalityTraits *string       `json:"personality_traits,omitempty"`
	Skills            *string       `json:"skills,omitempty"`
	Inventory         *string       `json:"inventory,omitempty"`
	ExperiencePoints  *int          `json:"experience_points,omitempty"`
	CharacterLevel    *int          `json:"character_level,omitempty"`
	ChangeDescription string        `json:"change_description,omitempty"`
}

type shareRequest struct {
	IsPublic bool `json:"is_public"`
}

type characterResponse struct {
	ID                string       `json:"id"`
	OwnerID           string       `json:"owner_id"`
	Name              string       `json:"name"`
	Stats             statsPayload `json:"stats"`
	PersonalityTraits string       `json:"personality_traits"`
	Skills            string       `json:"skills"`
	Inventory         string       `json:"inventory"`
	Version           int          `json:"version"`
	IsTemplate        bool         `json:"is_template"`
	IsPublic          bool         `json:"is_public"`
	ExperiencePoints  int          `json:"experience_points"`
	CharacterLevel    int          `json:"character_level"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func toCharacterResponse(character sheet.Character) characterResponse {
	return characterResponse{
		ID:      character.ID,
		OwnerID: character.OwnerID,
		Name:    character.Name,
		Stats: statsPayload{
			Strength:     character.Stats.Strength,
			Dexterity:    character.Stats.Dexterity,
			Intelligence: character.Stats.Intelligence,
			Charisma:     character.Stats.Charisma,
		},
		PersonalityTraits: character.PersonalityTraits,
		Skills:            character.Skills,
		Inventory:         character.Inventory,
		Version:           character.Version,
		IsTemplate:        character.IsTemplate,
		IsPublic:          character.IsPublic,
		ExperiencePoints:  character.ExperiencePoints,
		CharacterLevel:    character.CharacterLevel,
		CreatedAt:         character.CreatedAt,
		UpdatedAt:         character.UpdatedAt,
	}
}

func toCharacterList(characters []sheet.Character) []characterResponse {
	list := make([]characterResponse, 0, len(characters))
	for _, character := range characters {
		list = append(list, toCharacterResponse(character))
	}
	return list
}

// filterFromQuery reads the optional list/search parameters.
func filterFromQuery(r *http.Request) storage.SearchFilter {
	query := r.URL.Query()
	filter := storage.SearchFilter{
		NameContains: query.Get("name"),
		OrderBy:      query.Get("order_by"),
	}
	if v, err := strconv.Atoi(query.Get("min_level")); err == nil {
		filter.MinLevel = v
	}
	if v, err := strconv.Atoi(query.Get("max_level")); err == nil {
		filter.MaxLevel = v
	}
	if v, err := strconv.Atoi(query.Get("limit")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(query.Get("offset")); err == nil {
		filter.Offset = v
	}
	return filter
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	var req createCharacterRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpapi.WriteError(w, r, h.logger, httpapi.ValidationError(err))
		return
	}

	character, err := h.service.Create(r.Context(), caller, app.CreateInput{
		Name:              req.Name,
		Stats:             req.Stats.toStats(),
		PersonalityTraits: req.PersonalityTraits,
		Skills:            req.Skills,
		Inventory:         req.Inventory,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toCharacterResponse(character))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	characters, err := h.service.List(r.Context(), caller, filterFromQuery(r))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toCharacterList(characters))
}

func (h *Handler) searchPublic(w http.ResponseWriter, r *http.Request) {
	characters, err := h.service.SearchPublic(r.Context(), filterFromQuery(r))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toCharacterList(characters))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	character, err := h.service.Get(r.Context(), mux.Vars(r)["id"], caller)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toCharacterResponse(character))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	var req updateCharacterRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	input := app.UpdateInput{
		Name:              req.Name,
		PersonalityTraits: req.PersonalityTraits,
		Skills:            req.Skills,
		Inventory:         req.Inventory,
		ExperiencePoints:  req.ExperiencePoints,
		CharacterLevel:    req.CharacterLevel,
		ChangeDescription: req.ChangeDescription,
	}
	if req.Stats != nil {
		stats := req.Stats.toStats()
		input.Stats = &stats
	}
	character, err := h.service.Update(r.Context(), mux.Vars(r)["id"], caller, input)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toCharacterResponse(character))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"], caller); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) share(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	var req shareRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	character, err := h.service.Share(r.Context(), mux.Vars(r)["id"], caller, req.IsPublic)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toCharacterResponse(character))
}

type versionResponse struct {
	ID                string           `json:"id"`
	CharacterID       string           `json:"character_id"`
	VersionNumber     int              `json:"version_number"`
	State             app.VersionState `json:"state"`
	ChangeDescription string           `json:"change_description"`
	CreatedBy         string           `json:"created_by"`
	CreatedAt         time.Time        `json:"created_at"`
}

func toVersionResponse(version app.Version) versionResponse {
	return versionResponse{
		ID:                version.ID,
		CharacterID:       version.CharacterID,
		VersionNumber:     version.VersionNumber,
		State:             version.State,
		ChangeDescription: version.ChangeDescription,
		CreatedBy:         version.CreatedBy,
		CreatedAt:         version.CreatedAt,
	}
}

func (h *Handler) listVersions(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	versions, err := h.service.ListVersions(r.Context(), mux.Vars(r)["id"], caller)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	list := make([]versionResponse, 0, len(versions))
	for _, version := range versions {
		list = append(list, toVersionResponse(version))
	}
	httpapi.WriteJSON(w, http.StatusOK, list)
}

type snapshotRequest struct {
	ChangeDescription string `json:"change_description"`
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	var req snapshotRequest
	if r.ContentLength > 0 {
		if err := httpapi.DecodeJSON(w, r, &req); err != nil {
			httpapi.WriteError(w, r, h.logger, err)
			return
		}
	}
	version, err := h.service.Snapshot(r.Context(), mux.Vars(r)["id"], caller, req.ChangeDescription)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toVersionResponse(version))
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	versionNumber, err := strconv.Atoi(vars["version"])
	if err != nil || versionNumber < 1 {
		httpapi.WriteError(w, r, h.logger, apperrors.New(apperrors.CodeMalformedRequest, "version must be a positive integer"))
		return
	}
	character, err := h.service.Restore(r.Context(), vars["id"], caller, versionNumber)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toCharacterResponse(character))
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	export, err := h.service.Export(r.Context(), mux.Vars(r)["id"], caller)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, export)
}

func (h *Handler) importCharacter(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, apperrors.New(apperrors.CodeMalformedRequest, "request body unreadable"))
		return
	}
	character, err := h.service.Import(r.Context(), caller, payload)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toCharacterResponse(character))
}

type equipmentRequest struct {
	Name          string         `json:"name" validate:"required"`
	Description   string         `json:"description"`
	EquipmentType string         `json:"equipment_type" validate:"required"`
	StatModifiers map[string]int `json:"stat_modifiers,omitempty"`
}

type equipmentUpdateRequest struct {
	IsEquipped bool `json:"is_equipped"`
}

type equipmentResponse struct {
	ID            string         `json:"id"`
	CharacterID   string         `json:"character_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	EquipmentType string         `json:"equipment_type"`
	StatModifiers map[string]int `json:"stat_modifiers,omitempty"`
	IsEquipped    bool           `json:"is_equipped"`
	CreatedAt     time.Time      `json:"created_at"`
}

func toEquipmentResponse(item sheet.Equipment) equipmentResponse {
	return equipmentResponse{
		ID:            item.ID,
		CharacterID:   item.CharacterID,
		Name:          item.Name,
		Description:   item.Description,
		EquipmentType: string(item.EquipmentType),
		StatModifiers: item.StatModifiers,
		IsEquipped:    item.IsEquipped,
		CreatedAt:     item.CreatedAt,
	}
}

func (h *Handler) addEquipment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	var req equipmentRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpapi.WriteError(w, r, h.logger, httpapi.ValidationError(err))
		return
	}

	item, err := h.service.AddEquipment(r.Context(), mux.Vars(r)["id"], caller, app.EquipmentInput{
		Name:          req.Name,
		Description:   req.Description,
		EquipmentType: req.EquipmentType,
		StatModifiers: req.StatModifiers,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toEquipmentResponse(item))
}

func (h *Handler) listEquipment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	items, err := h.service.ListCharacterEquipment(r.Context(), mux.Vars(r)["id"], caller)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	list := make([]equipmentResponse, 0, len(items))
	for _, item := range items {
		list = append(list, toEquipmentResponse(item))
	}
	httpapi.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) updateEquipment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	var req equipmentUpdateRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	item, err := h.service.SetEquipped(r.Context(), mux.Vars(r)["equipment_id"], caller, req.IsEquipped)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toEquipmentResponse(item))
}

func (h *Handler) removeEquipment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	if err := h.service.RemoveEquipment(r.Context(), mux.Vars(r)["equipment_id"], caller); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

type skillResponse struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Category         string         `json:"category"`
	StatRequirements map[string]int `json:"stat_requirements,omitempty"`
	XPCost           int            `json:"xp_cost"`
	Prerequisites    []string       `json:"prerequisites,omitempty"`
}

type createSkillRequest struct {
	Name             string         `json:"name" validate:"required"`
	Description      string         `json:"description"`
	Category         string         `json:"category" validate:"required"`
	StatRequirements map[string]int `json:"stat_requirements,omitempty"`
	XPCost           int            `json:"xp_cost"`
	Prerequisites    []string       `json:"prerequisites,omitempty"`
}

type characterSkillResponse struct {
	CharacterID string    `json:"character_id"`
	SkillID     string    `json:"skill_id"`
	SkillLevel  int       `json:"skill_level"`
	AcquiredAt  time.Time `json:"acquired_at"`
}

func (h *Handler) listSkills(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r, h); !ok {
		return
	}
	skills, err := h.service.ListSkills(r.Context())
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	list := make([]skillResponse, 0, len(skills))
	for _, skill := range skills {
		list = append(list, skillResponse{
			ID:               skill.ID,
			Name:             skill.Name,
			Description:      skill.Description,
			Category:         string(skill.Category),
			StatRequirements: skill.StatRequirements,
			XPCost:           skill.XPCost,
			Prerequisites:    skill.Prerequisites,
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) createSkill(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r, h); !ok {
		return
	}
	var req createSkillRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpapi.WriteError(w, r, h.logger, httpapi.ValidationError(err))
		return
	}

	skill, err := h.service.CreateSkill(r.Context(), app.SkillInput{
		Name:             req.Name,
		Description:      req.Description,
		Category:         req.Category,
		StatRequirements: req.StatRequirements,
		XPCost:           req.XPCost,
		Prerequisites:    req.Prerequisites,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, skillResponse{
		ID:               skill.ID,
		Name:             skill.Name,
		Description:      skill.Description,
		Category:         string(skill.Category),
		StatRequirements: skill.StatRequirements,
		XPCost:           skill.XPCost,
		Prerequisites:    skill.Prerequisites,
	})
}

func (h *Handler) acquireSkill(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	acquired, err := h.service.AcquireSkill(r.Context(), vars["id"], vars["skill_id"], caller)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, characterSkillResponse{
		CharacterID: acquired.CharacterID,
		SkillID:     acquired.SkillID,
		SkillLevel:  acquired.SkillLevel,
		AcquiredAt:  acquired.AcquiredAt,
	})
}

func (h *Handler) listCharacterSkills(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	skills, err := h.service.ListCharacterSkills(r.Context(), mux.Vars(r)["id"], caller)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	list := make([]characterSkillResponse, 0, len(skills))
	for _, skill := range skills {
		list = append(list, characterSkillResponse{
			CharacterID: skill.CharacterID,
			SkillID:     skill.SkillID,
			SkillLevel:  skill.SkillLevel,
			AcquiredAt:  skill.AcquiredAt,
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	var req createCharacterRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpapi.WriteError(w, r, h.logger, httpapi.ValidationError(err))
		return
	}

	template, err := h.service.Create(r.Context(), caller, app.CreateInput{
		Name:              req.Name,
		Stats:             req.Stats.toStats(),
		PersonalityTraits: req.PersonalityTraits,
		Skills:            req.Skills,
		Inventory:         req.Inventory,
		IsTemplate:        true,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toCharacterResponse(template))
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.ListTemplates(r.Context(), filterFromQuery(r))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toCharacterList(templates))
}

type instantiateTemplateRequest struct {
	Name string `json:"name"`
}

func (h *Handler) instantiateTemplate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h)
	if !ok {
		return
	}
	var req instantiateTemplateRequest
	if r.ContentLength > 0 {
		if err := httpapi.DecodeJSON(w, r, &req); err != nil {
			httpapi.WriteError(w, r, h.logger, err)
			return
		}
	}
	character, err := h.service.InstantiateTemplate(r.Context(), mux.Vars(r)["id"], caller, req.Name)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toCharacterResponse(character))
}
