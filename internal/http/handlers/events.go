package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"bossai/internal/ws"
)

// JobEvents upgrades the connection and streams job.status events for the
// caller's own jobs. Admins may pass ?all=1 to watch every user's jobs.
// Browsers cannot set headers on WebSocket requests, so AuthJWT also
// accepts the access token as ?token=.
func (a *App) JobEvents(w http.ResponseWriter, r *http.Request) {
	if a.Hub == nil {
		a.error(w, http.StatusServiceUnavailable, "events_disabled", "event streaming is not enabled")
		return
	}

	audience := a.currentUserID(r)
	if r.URL.Query().Get("all") == "1" {
		if !a.isAdmin(r) {
			a.error(w, http.StatusForbidden, "forbidden", "admin role required to watch all jobs")
			return
		}
		audience = ws.AdminAudience
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     a.checkWSOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own HTTP error.
		a.Logger.Debug().Err(err).Msg("ws upgrade failed")
		return
	}
	a.Logger.Debug().Str("audience", audience).Msg("ws client connected")
	ws.NewClient(a.Hub, conn, audience, a.Logger).Start()
}

// checkWSOrigin mirrors the CORS allowlist. Requests without an Origin
// header (non-browser clients) are allowed through.
func (a *App) checkWSOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range a.Config.CORSOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}
