package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"bossai/internal/domain"
	"bossai/internal/infra"
	"bossai/internal/sqlinline"
)

type presetDTO struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	ContentType    string          `json:"contentType,omitempty"`
	Industry       string          `json:"industry,omitempty"`
	TargetAudience string          `json:"targetAudience,omitempty"`
	Tone           string          `json:"tone,omitempty"`
	Language       string          `json:"language"`
	CustomParams   json.RawMessage `json:"customParams"`
	IsDefault      bool            `json:"isDefault"`
	UsageCount     int             `json:"usageCount"`
	LastUsedAt     *time.Time      `json:"lastUsedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type presetCreateRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	ContentType    string          `json:"contentType"`
	Industry       string          `json:"industry"`
	TargetAudience string          `json:"targetAudience"`
	Tone           string          `json:"tone"`
	Language       string          `json:"language"`
	CustomParams   json.RawMessage `json:"customParams"`
	IsDefault      bool            `json:"isDefault"`
}

type presetUpdateRequest struct {
	Name           *string         `json:"name"`
	Description    *string         `json:"description"`
	ContentType    *string         `json:"contentType"`
	Industry       *string         `json:"industry"`
	TargetAudience *string         `json:"targetAudience"`
	Tone           *string         `json:"tone"`
	Language       *string         `json:"language"`
	CustomParams   json.RawMessage `json:"customParams"`
	IsDefault      *bool           `json:"isDefault"`
}

// PresetsList returns the caller's presets, default first then most
// recently used.
func (a *App) PresetsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)

	rows, err := a.SQL.Query(r.Context(), sqlinline.QSelectPresetsByUser, userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("preset list failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not load presets")
		return
	}
	defer rows.Close()

	presets := make([]presetDTO, 0, 8)
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			a.Logger.Error().Err(err).Msg("preset scan failed")
			a.error(w, http.StatusInternalServerError, "internal_error", "could not load presets")
			return
		}
		presets = append(presets, presetToDTO(p))
	}
	if err := rows.Err(); err != nil {
		a.Logger.Error().Err(err).Msg("preset list failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not load presets")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"presets": presets, "total": len(presets)})
}

// PresetsCreate saves a new preset. Duplicate names are rejected; marking
// it default clears the previous default.
func (a *App) PresetsCreate(w http.ResponseWriter, r *http.Request) {
	var req presetCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Language == "" {
		req.Language = domain.DefaultLanguage
	}
	if msg := validatePresetFields(req.Name, req.Description, req.ContentType, req.Industry, req.TargetAudience, req.Tone, req.Language); msg != "" {
		a.error(w, http.StatusBadRequest, "invalid_preset", msg)
		return
	}
	params, msg := normalizeCustomParams(req.CustomParams)
	if msg != "" {
		a.error(w, http.StatusBadRequest, "invalid_preset", msg)
		return
	}
	userID := a.currentUserID(r)

	var (
		id                   string
		createdAt, updatedAt time.Time
	)
	err := a.SQL.QueryRow(r.Context(), sqlinline.QInsertPreset,
		userID, req.Name, nullableText(req.Description), nullableText(req.ContentType),
		nullableText(req.Industry), nullableText(req.TargetAudience), nullableText(req.Tone),
		req.Language, params, req.IsDefault,
	).Scan(&id, &createdAt, &updatedAt)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusConflict, "preset_exists", "a preset with this name already exists")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("preset insert failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not create preset")
		return
	}

	if req.IsDefault {
		if _, err := a.SQL.Exec(r.Context(), sqlinline.QClearDefaultPreset, userID, id); err != nil {
			a.Logger.Warn().Err(err).Str("preset_id", id).Msg("clearing previous default failed")
		}
	}

	dto := presetDTO{
		ID:             id,
		Name:           req.Name,
		Description:    req.Description,
		ContentType:    req.ContentType,
		Industry:       req.Industry,
		TargetAudience: req.TargetAudience,
		Tone:           req.Tone,
		Language:       req.Language,
		CustomParams:   params,
		IsDefault:      req.IsDefault,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
	a.json(w, http.StatusCreated, dto)
}

// PresetsUpdate applies a partial edit. Absent fields keep their stored
// values; ownership is enforced by the id+user match.
func (a *App) PresetsUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := a.currentUserID(r)

	var req presetUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	current, err := a.loadPreset(r, id, userID)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "unknown_preset", "preset does not exist")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("preset_id", id).Msg("preset lookup failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not update preset")
		return
	}

	merged := current
	if req.Name != nil {
		merged.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		merged.Description = *req.Description
	}
	if req.ContentType != nil {
		merged.ContentType = *req.ContentType
	}
	if req.Industry != nil {
		merged.Industry = *req.Industry
	}
	if req.TargetAudience != nil {
		merged.TargetAudience = *req.TargetAudience
	}
	if req.Tone != nil {
		merged.Tone = *req.Tone
	}
	if req.Language != nil {
		merged.Language = *req.Language
	}
	if req.IsDefault != nil {
		merged.IsDefault = *req.IsDefault
	}
	if msg := validatePresetFields(merged.Name, merged.Description, merged.ContentType, merged.Industry, merged.TargetAudience, merged.Tone, merged.Language); msg != "" {
		a.error(w, http.StatusBadRequest, "invalid_preset", msg)
		return
	}
	var params any
	if len(req.CustomParams) > 0 {
		normalized, msg := normalizeCustomParams(req.CustomParams)
		if msg != "" {
			a.error(w, http.StatusBadRequest, "invalid_preset", msg)
			return
		}
		params = normalized
	}

	var (
		updatedID string
		updatedAt time.Time
	)
	err = a.SQL.QueryRow(r.Context(), sqlinline.QUpdatePreset,
		id, userID, merged.Name, nullableText(merged.Description), nullableText(merged.ContentType),
		nullableText(merged.Industry), nullableText(merged.TargetAudience), nullableText(merged.Tone),
		merged.Language, params, merged.IsDefault,
	).Scan(&updatedID, &updatedAt)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "unknown_preset", "preset does not exist")
		return
	}
	if infra.IsUniqueViolation(err) {
		a.error(w, http.StatusConflict, "preset_exists", "a preset with this name already exists")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("preset_id", id).Msg("preset update failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not update preset")
		return
	}

	if merged.IsDefault {
		if _, err := a.SQL.Exec(r.Context(), sqlinline.QClearDefaultPreset, userID, id); err != nil {
			a.Logger.Warn().Err(err).Str("preset_id", id).Msg("clearing previous default failed")
		}
	}
	a.json(w, http.StatusOK, map[string]any{"id": updatedID, "updatedAt": updatedAt})
}

// PresetsDelete removes the caller's preset.
func (a *App) PresetsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := a.currentUserID(r)

	var deletedID string
	err := a.SQL.QueryRow(r.Context(), sqlinline.QDeletePreset, id, userID).Scan(&deletedID)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "unknown_preset", "preset does not exist")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("preset_id", id).Msg("preset delete failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not delete preset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PresetsApply bumps the usage counters and returns the preset alongside a
// generation request prefilled from it, ready to POST to the jobs endpoint.
func (a *App) PresetsApply(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := a.currentUserID(r)

	row := a.SQL.QueryRow(r.Context(), sqlinline.QApplyPreset, id, userID)
	p, err := scanPreset(row)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "unknown_preset", "preset does not exist")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("preset_id", id).Msg("preset apply failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not apply preset")
		return
	}

	params := map[string]any{}
	if len(p.CustomParams) > 0 {
		_ = json.Unmarshal(p.CustomParams, &params)
	}
	if p.Industry != "" {
		params["industry"] = p.Industry
	}
	if p.TargetAudience != "" {
		params["targetAudience"] = p.TargetAudience
	}
	if p.Tone != "" {
		params["tone"] = p.Tone
	}
	if p.Language != "" {
		params["language"] = p.Language
	}

	a.json(w, http.StatusOK, map[string]any{
		"preset": presetToDTO(p),
		"generationRequest": map[string]any{
			"contentType": p.ContentType,
			"params":      params,
			"priority":    domain.DefaultPriority,
			"maxRetries":  domain.DefaultMaxRetries,
		},
	})
}

func (a *App) loadPreset(r *http.Request, id, userID string) (domain.Preset, error) {
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectPresetByID, id, userID)
	return scanPreset(row)
}

func scanPreset(row pgx.Row) (domain.Preset, error) {
	var (
		p                                              domain.Preset
		description, contentType, industry, aud, tone *string
		customParams                                   []byte
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &description, &contentType, &industry, &aud, &tone,
		&p.Language, &customParams, &p.IsDefault, &p.UsageCount, &p.LastUsedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Preset{}, err
	}
	if description != nil {
		p.Description = *description
	}
	if contentType != nil {
		p.ContentType = *contentType
	}
	if industry != nil {
		p.Industry = *industry
	}
	if aud != nil {
		p.TargetAudience = *aud
	}
	if tone != nil {
		p.Tone = *tone
	}
	p.CustomParams = customParams
	return p, nil
}

func presetToDTO(p domain.Preset) presetDTO {
	custom := p.CustomParams
	if len(custom) == 0 {
		custom = json.RawMessage(`{}`)
	}
	return presetDTO{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		ContentType:    p.ContentType,
		Industry:       p.Industry,
		TargetAudience: p.TargetAudience,
		Tone:           p.Tone,
		Language:       p.Language,
		CustomParams:   custom,
		IsDefault:      p.IsDefault,
		UsageCount:     p.UsageCount,
		LastUsedAt:     p.LastUsedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func validatePresetFields(name, description, contentType, industry, targetAudience, tone, language string) string {
	switch {
	case name == "":
		return "name is required"
	case len(name) > domain.PresetNameMax:
		return fmt.Sprintf("name must be at most %d characters", domain.PresetNameMax)
	case len(description) > domain.PresetDescriptionMax:
		return fmt.Sprintf("description must be at most %d characters", domain.PresetDescriptionMax)
	case len(contentType) > domain.PresetContentTypeMax:
		return fmt.Sprintf("contentType must be at most %d characters", domain.PresetContentTypeMax)
	case len(industry) > domain.PresetIndustryMax:
		return fmt.Sprintf("industry must be at most %d characters", domain.PresetIndustryMax)
	case len(targetAudience) > domain.PresetTargetAudienceMax:
		return fmt.Sprintf("targetAudience must be at most %d characters", domain.PresetTargetAudienceMax)
	case len(tone) > domain.PresetToneMax:
		return fmt.Sprintf("tone must be at most %d characters", domain.PresetToneMax)
	case len(language) > domain.PresetLanguageMax:
		return fmt.Sprintf("language must be at most %d characters", domain.PresetLanguageMax)
	}
	return ""
}

// normalizeCustomParams validates that customParams is a JSON object and
// returns it compacted, or nil when absent.
func normalizeCustomParams(raw json.RawMessage) (json.RawMessage, string) {
	if len(raw) == 0 {
		return nil, ""
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, "customParams must be a JSON object"
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, "customParams must be a JSON object"
	}
	return out, ""
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
