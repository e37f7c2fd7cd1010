package server

import (
	"net/http"

	"github.com/cloo-solutions/docvault/internal/api"
	"github.com/cloo-solutions/docvault/internal/api/handlers"
	"github.com/cloo-solutions/docvault/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	RetrieveHandler *handlers.RetrieveHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Large enough for office documents; uploads stream through multipart.
	const maxBodyBytes int64 = 64 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", cfg.DocumentHandler.Upload)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/versions", cfg.DocumentHandler.Versions)
			r.Get("/{hash}", cfg.DocumentHandler.Get)
			r.Delete("/{hash}", cfg.DocumentHandler.Delete)
			r.Get("/{hash}/download", cfg.DocumentHandler.Download)
			r.Post("/{hash}/reindex", cfg.DocumentHandler.Reindex)
		})

		r.Get("/reindex-jobs/{id}", cfg.DocumentHandler.ReindexStatus)

		r.Post("/retrieve", cfg.RetrieveHandler.Retrieve)
	})

	return r
}
