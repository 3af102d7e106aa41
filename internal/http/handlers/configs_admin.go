package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"bossai/internal/domain"
	"bossai/internal/infra"
	"bossai/internal/sqlinline"
)

type adminConfigDTO struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Value       string    `json:"value"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language"`
	SortOrder   int       `json:"sortOrder"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type adminConfigCreateRequest struct {
	Category    string `json:"category"`
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Language    string `json:"language"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    *bool  `json:"isActive"`
}

type adminConfigUpdateRequest struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    bool   `json:"isActive"`
}

// AdminConfigsList returns catalog rows straight from configs_primary,
// inactive options included. Filter with ?category=.
func (a *App) AdminConfigsList(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category != "" && !domain.ValidCategory(category) {
		a.error(w, http.StatusBadRequest, "unknown_category", "category is not a known catalog")
		return
	}
	var catArg any
	if category != "" {
		catArg = category
	}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QSelectConfigsAdmin, catArg)
	if err != nil {
		a.Logger.Error().Err(err).Msg("admin config list failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not load configs")
		return
	}
	defer rows.Close()

	configs := make([]adminConfigDTO, 0, 32)
	for rows.Next() {
		var (
			c           adminConfigDTO
			description *string
		)
		if err := rows.Scan(
			&c.ID, &c.Category, &c.Value, &c.Label, &description,
			&c.Language, &c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			a.Logger.Error().Err(err).Msg("admin config scan failed")
			a.error(w, http.StatusInternalServerError, "internal_error", "could not load configs")
			return
		}
		if description != nil {
			c.Description = *description
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		a.Logger.Error().Err(err).Msg("admin config list failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not load configs")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"configs": configs, "total": len(configs)})
}

// AdminConfigsCreate adds a catalog option. Duplicate (category, value,
// language) rows are rejected.
func (a *App) AdminConfigsCreate(w http.ResponseWriter, r *http.Request) {
	var req adminConfigCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	req.Value = strings.TrimSpace(req.Value)
	req.Label = strings.TrimSpace(req.Label)
	if !domain.ValidCategory(req.Category) {
		a.error(w, http.StatusBadRequest, "unknown_category", "category is not a known catalog")
		return
	}
	if req.Value == "" || req.Label == "" {
		a.error(w, http.StatusBadRequest, "invalid_body", "value and label are required")
		return
	}
	if req.Language == "" {
		req.Language = domain.DefaultLanguage
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	var (
		id        string
		createdAt time.Time
	)
	err := a.SQL.QueryRow(r.Context(), sqlinline.QInsertConfigPrimary,
		req.Category, req.Value, req.Label, req.Description, req.Language, req.SortOrder, active,
	).Scan(&id, &createdAt)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusConflict, "config_exists", "an option with this value already exists in the category")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("admin config insert failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not create config")
		return
	}

	a.Cache.InvalidateAllConfigs(r.Context())
	a.json(w, http.StatusCreated, adminConfigDTO{
		ID:          id,
		Category:    req.Category,
		Value:       req.Value,
		Label:       req.Label,
		Description: req.Description,
		Language:    req.Language,
		SortOrder:   req.SortOrder,
		IsActive:    active,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	})
}

// AdminConfigsUpdate edits label, description, ordering or active state.
// Category, value and language are immutable once created.
func (a *App) AdminConfigsUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req adminConfigUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		a.error(w, http.StatusBadRequest, "invalid_body", "label is required")
		return
	}

	var (
		updatedID string
		updatedAt time.Time
	)
	err := a.SQL.QueryRow(r.Context(), sqlinline.QUpdateConfigPrimary,
		id, req.Label, req.Description, req.SortOrder, req.IsActive,
	).Scan(&updatedID, &updatedAt)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "unknown_config", "config option does not exist")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("config_id", id).Msg("admin config update failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not update config")
		return
	}

	a.Cache.InvalidateAllConfigs(r.Context())
	a.json(w, http.StatusOK, map[string]any{"id": updatedID, "updatedAt": updatedAt})
}

// AdminConfigsDelete removes a catalog option. User selections referencing
// it cascade away with the row.
func (a *App) AdminConfigsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var deletedID string
	err := a.SQL.QueryRow(r.Context(), sqlinline.QDeleteConfigPrimary, id).Scan(&deletedID)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "unknown_config", "config option does not exist")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("config_id", id).Msg("admin config delete failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not delete config")
		return
	}

	a.Cache.InvalidateAllConfigs(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
