package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"bossai/internal/cache"
	"bossai/internal/infra"
	"bossai/internal/infra/geoip"
	"bossai/internal/middleware"
	"bossai/internal/storage"
	"bossai/internal/ws"
)

// TaskEnqueuer submits the asynq task for a queued job row. Satisfied by
// queue.Enqueuer; stubbed in tests.
type TaskEnqueuer interface {
	EnqueueGeneration(ctx context.Context, jobID string, priority int, delay time.Duration) error
}

// GoogleVerifier checks a Google ID token and returns its claims.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (map[string]any, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a plain function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// App carries the dependencies shared by every HTTP handler.
type App struct {
	SQL            infra.SQLExecutor
	Logger         zerolog.Logger
	Config         *infra.Config
	Cache          *cache.Cache
	Enqueuer       TaskEnqueuer
	Events         ws.Publisher
	Hub            *ws.Hub
	GoogleVerifier GoogleVerifier
	Geo            geoip.CountryResolver
	Exports        *storage.FileStore
	DB             Pinger
	Redis          Pinger
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorResponse{Error: errCode, Message: message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) currentRole(r *http.Request) string {
	return middleware.RoleFromContext(r.Context())
}

func (a *App) isAdmin(r *http.Request) bool {
	return a.currentRole(r) == "ADMIN"
}
