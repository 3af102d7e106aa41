package handlers

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// Health reports liveness of the API and its backing services. The database
// is load-bearing so a failed ping turns the whole check red; Redis only
// degrades caching and events, so its state is reported but stays 200.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	dbState := "ok"
	if a.DB == nil {
		dbState = "disabled"
	} else if err := a.DB.Ping(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("health: database ping failed")
		dbState = "down"
		status = http.StatusServiceUnavailable
	}

	redisState := "ok"
	if a.Redis == nil {
		redisState = "disabled"
	} else if err := a.Redis.Ping(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("health: redis ping failed")
		redisState = "down"
	}

	body := map[string]string{
		"status":   "ok",
		"database": dbState,
		"redis":    redisState,
	}
	if status != http.StatusOK {
		body["status"] = "unavailable"
	}
	a.json(w, status, body)
}
