package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mobilityp/errorsender/internal/handler"
	"github.com/mobilityp/errorsender/internal/middleware"
)

// ReportPath is the route the desk's browser client posts error reports to.
const ReportPath = "/api/method/mobility_error_sender.events.send_error_report"

func (app *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(app.config.IsProduction()))

	if len(app.config.Cors.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   app.config.Cors.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Frappe-CSRF-Token"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/api/health", handler.Health(app.checks))
	r.Handle("/metrics", promhttp.Handler())

	maxBody := int64(app.config.MaxRequestSizeMB) << 20
	reportHandler := handler.NewReportHandler(app.logger, app.forwarder, maxBody)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(app.config.RateLimitPerMinute))
		r.Use(middleware.Session(app.sessions, app.config.SessionCookieName))
		r.Post(ReportPath, reportHandler.Send)
	})

	settingsHandler := handler.NewSettingsHandler(app.logger, app.settings)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminToken(app.config.AdminTokenHash))
		r.Get("/api/admin/settings", settingsHandler.Get)
		r.Put("/api/admin/settings", settingsHandler.Update)
	})

	return r
}
