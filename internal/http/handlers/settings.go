package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"bossai/internal/cache"
	"bossai/internal/domain"
	"bossai/internal/infra"
	"bossai/internal/sqlinline"
)

type settingToggleRequest struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	IsSelected bool   `json:"isSelected"`
}

type settingListResponse struct {
	Category string              `json:"category"`
	Options  []domain.UserConfig `json:"options"`
}

// SettingsByCategory lists one catalog category with the caller's selection
// state merged in. Results are cached per user and category.
func (a *App) SettingsByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if !domain.ValidCategory(category) {
		a.error(w, http.StatusBadRequest, "unknown_category", "category is not a known catalog")
		return
	}
	userID := a.currentUserID(r)

	key := cache.Key(cache.KindUserConfigs, userID, category)
	var cached settingListResponse
	if a.Cache.GetJSON(r.Context(), cache.KindUserConfigs, key, &cached) {
		a.json(w, http.StatusOK, cached)
		return
	}

	options, err := a.loadUserConfigs(r, userID, category)
	if err != nil {
		a.Logger.Error().Err(err).Str("category", category).Msg("config catalog load failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not load settings")
		return
	}
	resp := settingListResponse{Category: category, Options: options}
	a.Cache.SetJSON(r.Context(), cache.KindUserConfigs, key, resp)
	a.json(w, http.StatusOK, resp)
}

// SettingsToggle selects or deselects one catalog option for the caller and
// returns the refreshed category. Both directions are idempotent.
func (a *App) SettingsToggle(w http.ResponseWriter, r *http.Request) {
	var req settingToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" || !domain.ValidCategory(req.Category) {
		a.error(w, http.StatusBadRequest, "invalid_body", "a config id and a known category are required")
		return
	}
	userID := a.currentUserID(r)

	var (
		cfgID, cfgCategory, cfgValue, cfgLabel string
		cfgActive                              bool
	)
	err := a.SQL.QueryRow(r.Context(), sqlinline.QSelectConfigPrimaryByID, req.ID).
		Scan(&cfgID, &cfgCategory, &cfgValue, &cfgLabel, &cfgActive)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "unknown_config", "config option does not exist")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("config_id", req.ID).Msg("config lookup failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not update setting")
		return
	}
	if cfgCategory != req.Category {
		a.error(w, http.StatusBadRequest, "category_mismatch", "config option belongs to a different category")
		return
	}
	if req.IsSelected && !cfgActive {
		a.error(w, http.StatusConflict, "config_inactive", "config option is no longer active")
		return
	}

	query := sqlinline.QInsertConfigSelection
	if !req.IsSelected {
		query = sqlinline.QDeleteConfigSelection
	}
	var selectionID string
	err = a.SQL.QueryRow(r.Context(), query, userID, req.ID).Scan(&selectionID)
	if err != nil && !infra.IsNoRows(err) {
		a.Logger.Error().Err(err).Str("config_id", req.ID).Msg("selection toggle failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not update setting")
		return
	}

	a.Cache.InvalidateUserConfigs(r.Context(), userID)

	options, err := a.loadUserConfigs(r, userID, req.Category)
	if err != nil {
		a.Logger.Error().Err(err).Str("category", req.Category).Msg("config catalog reload failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not load settings")
		return
	}
	resp := settingListResponse{Category: req.Category, Options: options}
	a.Cache.SetJSON(r.Context(), cache.KindUserConfigs, cache.Key(cache.KindUserConfigs, userID, req.Category), resp)
	a.json(w, http.StatusOK, resp)
}

func (a *App) loadUserConfigs(r *http.Request, userID, category string) ([]domain.UserConfig, error) {
	rows, err := a.SQL.Query(r.Context(), sqlinline.QSelectUserConfigsByCategory, userID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.UserConfig, 0, 16)
	for rows.Next() {
		var (
			c           domain.UserConfig
			description *string
			selectedAt  *time.Time
		)
		if err := rows.Scan(
			&c.ID, &c.Category, &c.Value, &c.Label, &description,
			&c.Language, &c.SortOrder, &c.IsActive, &c.IsSelected, &selectedAt,
		); err != nil {
			return nil, err
		}
		if description != nil {
			c.Description = *description
		}
		c.SelectedAt = selectedAt
		out = append(out, c)
	}
	return out, rows.Err()
}
