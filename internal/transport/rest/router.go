package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/heartmarshall/clinic-consent/internal/config"
	"github.com/heartmarshall/clinic-consent/internal/transport/middleware"
)

// APIPrefix is the mount point of the versioned API.
const APIPrefix = "/api/v1"

// RouterConfig carries the handlers and cross-cutting pieces NewRouter
// assembles. Instrument, PublicLimit and MetricsHandler are optional.
type RouterConfig struct {
	Templates *TemplateHandler
	Records   *RecordHandler
	Public    *PublicHandler
	Health    *HealthHandler

	Logger     *slog.Logger
	CORS       config.CORSConfig
	TrustProxy bool

	Instrument     middleware.Middleware
	PublicLimit    middleware.Middleware
	MetricsHandler http.Handler
	MetricsPath    string
}

// NewRouter builds the HTTP handler tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestID, middleware.Recovery(cfg.Logger), middleware.Logger(cfg.Logger))
	if cfg.Instrument != nil {
		r.Use(cfg.Instrument)
	}
	r.Use(middleware.CORS(cfg.CORS))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/live", cfg.Health.Live)
	r.Get("/ready", cfg.Health.Ready)
	r.Get("/health", cfg.Health.Health)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, cfg.MetricsPath, cfg.MetricsHandler)
	}

	r.Route(APIPrefix, func(api chi.Router) {
		api.Group(func(staff chi.Router) {
			staff.Use(middleware.RequireActor)

			t := cfg.Templates
			staff.Route("/templates", func(r chi.Router) {
				r.Post("/", t.Create)
				r.Get("/", t.List)
				r.Get("/active", t.ListActive)
				r.Get("/stats", t.Stats)
				r.Get("/versions", t.ListVersions)
				r.Get("/{id}", t.Get)
				r.Put("/{id}", t.Update)
				r.Post("/{id}/versions", t.CreateVersion)
				r.Post("/{id}/deactivate", t.Deactivate)
				r.Post("/{id}/approve", t.Approve)
				r.Get("/{id}/audit", t.History)
			})

			rec := cfg.Records
			staff.Route("/records", func(r chi.Router) {
				r.Post("/", rec.Create)
				r.Get("/", rec.List)
				r.Get("/stats", rec.Stats)
				r.Get("/{id}", rec.Get)
				r.Post("/{id}/send", rec.Send)
				r.Post("/{id}/view", rec.View)
				r.Post("/{id}/sign", rec.Sign)
				r.Post("/{id}/reject", rec.Reject)
				r.Post("/{id}/token", rec.RegenerateToken)
				r.Post("/{id}/reminders", rec.Remind)
				r.Get("/{id}/evidence", rec.Evidence)
				r.Get("/{id}/audit", rec.History)
			})

			staff.Post("/admin/sweep", rec.Sweep)
		})

		api.Route("/public/consents/{token}", func(r chi.Router) {
			r.Use(middleware.Chain(middleware.NoStore, cfg.PublicLimit))
			r.Get("/", cfg.Public.Open)
			r.Post("/sign", cfg.Public.Sign)
			r.Post("/reject", cfg.Public.Reject)
		})
	})

	return r
}
