package server

import (
	"net/http"

	"github.com/folioworks/careerbase/internal/api"
	"github.com/folioworks/careerbase/internal/api/handlers"
	"github.com/folioworks/careerbase/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	// APIToken enables static bearer auth; empty means the API runs open.
	APIToken        string
	DocumentHandler *handlers.DocumentHandler
	MemoryHandler   *handlers.MemoryHandler
	ContextHandler  *handlers.ContextHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.APIToken))
		r.Use(middleware.UserIdentity)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", cfg.DocumentHandler.Upload)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{id}", cfg.DocumentHandler.Get)
			r.Delete("/{id}", cfg.DocumentHandler.Delete)
		})

		r.Get("/stats", cfg.DocumentHandler.Stats)

		r.Route("/memories", func(r chi.Router) {
			r.Post("/", cfg.MemoryHandler.Record)
			r.Get("/", cfg.MemoryHandler.List)
			r.Get("/{id}", cfg.MemoryHandler.Get)
		})

		r.Post("/context", cfg.ContextHandler.Build)
	})

	return r
}
