package rest

import (
	"log/slog"

	"github.com/frahmantamala/access-audit-reports/internal/catalog"
	"github.com/frahmantamala/access-audit-reports/internal/console"
	"github.com/frahmantamala/access-audit-reports/internal/template"
	"github.com/frahmantamala/access-audit-reports/internal/transport/middleware"
	"github.com/frahmantamala/access-audit-reports/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Health   *HealthHandler
	Catalog  *catalog.Handler
	Console  *console.Handler
	Template *template.Handler
}

func RegisterAllRoutes(router *chi.Mux, handlers Handlers, origins []string, logger *slog.Logger) {
	healthHandler := handlers.Health
	if healthHandler == nil {
		healthHandler = NewHealthHandler()
	}

	router.Use(middleware.CORS(origins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// OpenAPI document and Swagger UI live outside the API prefix
	router.Get(swagger.SpecPath, swagger.SpecHandler())
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if handlers.Catalog != nil {
			r.Get("/categories", handlers.Catalog.GetCategories)
			r.Get("/categories/{category}", handlers.Catalog.GetCategory)
		}

		if handlers.Console != nil {
			ch := handlers.Console
			r.Route("/sessions", func(sr chi.Router) {
				sr.Post("/", ch.CreateSession)
				sr.Route("/{id}", func(s chi.Router) {
					s.Get("/", ch.GetSession)
					s.Delete("/", ch.DeleteSession)
					s.Put("/category", ch.SwitchCategory)
					s.Post("/toggle", ch.Toggle)
					s.Post("/reset", ch.Reset)
					s.Post("/run", ch.Run)
					s.Get("/page", ch.Page)
					s.Get("/export.csv", ch.ExportCSV)
					s.Post("/bulk-export", ch.BulkExport)
					s.Post("/compare", ch.Compare)
					s.Get("/notifications", ch.Notifications)
					s.Post("/templates/{templateID}/apply", ch.ApplyTemplate)
				})
			})
		}

		if handlers.Template != nil {
			r.Route("/templates", func(tr chi.Router) {
				tr.Get("/", handlers.Template.ListTemplates)
				tr.Post("/", handlers.Template.SaveTemplate)
				tr.Delete("/{id}", handlers.Template.DeleteTemplate)
			})
		}
	})
}
