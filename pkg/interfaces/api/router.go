package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vsinha/fgplan/pkg/httputil"
	"github.com/vsinha/fgplan/pkg/logger"
)

// NewRouter mounts the planning API under /api/v1 with the standard
// middleware stack.
func NewRouter(h *Handler, log *logger.Logger, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.Post("/reset", h.ResetSession)
			r.Get("/events", h.ListEvents)

			for _, table := range []string{TableStock, TablePurchaseOrders, TableFormulas, TableReplacements, TableDilutions} {
				r.Post("/"+table, h.Upload(table))
				r.Delete("/"+table, h.Clear(table))
			}
			r.Post("/formulas/delete", h.DeleteFGs)
			r.Post("/replacements/apply", h.ApplyReplacement)
			r.Post("/dilutions/apply", h.ApplyDilution)

			r.Put("/selection", h.SetSelection)
			r.Put("/expected-capacity", h.SetExpectedCapacity)
			r.Put("/settings", h.UpdateSettings)

			r.Post("/plan", h.Plan)
			r.Get("/plan", h.GetPlan)
			r.Get("/plan/report.{format}", h.DownloadReport)
		})
	})

	return r
}
