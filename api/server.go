/*
server.go - HTTP router and middleware configuration

ROUTER: chi, with structured request logging (httplog), panic recovery
and CORS for a local frontend.

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(log, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Attendance routes
		r.Route("/attendance", func(r chi.Router) {
			r.Post("/", h.SaveAttendance)
			r.Get("/", h.QueryAttendance)
			r.Delete("/", h.DeleteAttendance)
		})

		// Advance routes
		r.Route("/advances", func(r chi.Router) {
			r.Get("/", h.ListAdvances)
			r.Get("/unsettled", h.ListUnsettledAdvances)
			r.Post("/", h.CreateAdvances)
			r.Post("/delete", h.DeleteAdvances)
			r.Delete("/{id}", h.DeleteAdvance)
			r.Delete("/", h.DeleteAllAdvances)
		})

		// Wage rate routes
		r.Route("/rates", func(r chi.Router) {
			r.Get("/", h.ListRates)
			r.Put("/{folder}", h.SetRates)
			r.Delete("/{folder}", h.DeleteRates)
		})

		// Registry routes
		r.Route("/folders", func(r chi.Router) {
			r.Get("/", h.ListFolders)
			r.Post("/", h.CreateFolder)
			r.Delete("/{name}", h.DeleteFolder)
		})
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.CreateWorker)
			r.Put("/{id}", h.RenameWorker)
			r.Delete("/{id}", h.DeleteWorker)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Post("/", h.GenerateReport)
			r.Get("/", h.ListReports)
			r.Get("/{id}/download", h.DownloadReport)
			r.Delete("/{id}", h.DeleteReport)
		})
	})

	return r
}
