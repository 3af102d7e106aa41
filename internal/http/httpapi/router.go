package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bossai/internal/domain"
	"bossai/internal/http/handlers"
	"bossai/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(app.Logger),
		middleware.Metrics,
		middleware.CORS(app.Config.CORSOrigins),
	)

	var geoLookup middleware.CountryLookup
	if app.Geo != nil {
		geoLookup = app.Geo.CountryCode
	}

	// Ops surface, outside rate limiting.
	r.Get("/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/docs", app.OpenAPIDocs)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.I18N(domain.DefaultLanguage, geoLookup))
		r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", app.AuthRegister)
			r.Post("/activate", app.AuthActivate)
			r.Post("/login", app.AuthLogin)
			r.Post("/refresh", app.AuthRefresh)
			r.Post("/google", app.AuthGoogle)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthJWT(app.Config.JWTSecret))
				r.Get("/me", app.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(app.Config.JWTSecret))

			r.Route("/setting", func(r chi.Router) {
				r.Post("/", app.SettingsToggle)
				r.Get("/{category}", app.SettingsByCategory)
			})

			r.Route("/presets", func(r chi.Router) {
				r.Get("/", app.PresetsList)
				r.Post("/", app.PresetsCreate)
				r.Put("/{id}", app.PresetsUpdate)
				r.Delete("/{id}", app.PresetsDelete)
				r.Post("/{id}/apply", app.PresetsApply)
			})

			r.Route("/jobs", func(r chi.Router) {
				r.Post("/", app.JobsEnqueue)
				r.Get("/", app.JobsList)
				r.Get("/statistics", app.JobStatistics)
				r.Get("/queue/metrics", app.QueueMetrics)
				r.Get("/{jobId}", app.JobDetails)
				r.Delete("/{jobId}", app.JobCancel)
				r.Post("/{jobId}/retry", app.JobRetry)
				r.Get("/{jobId}/download", app.JobDownload)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Route("/configs", func(r chi.Router) {
					r.Get("/", app.AdminConfigsList)
					r.Post("/", app.AdminConfigsCreate)
					r.Put("/{id}", app.AdminConfigsUpdate)
					r.Delete("/{id}", app.AdminConfigsDelete)
				})
				r.Get("/jobs/export", app.AdminJobsExport)
				r.Get("/jobs/statistics/hourly", app.AdminHourlyStats)
			})
		})
	})

	// WebSocket stream. Authenticated but not rate limited; the connection
	// is long-lived and sends nothing after the upgrade.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.Config.JWTSecret))
		r.Get("/ws/jobs", app.JobEvents)
	})

	return r
}
