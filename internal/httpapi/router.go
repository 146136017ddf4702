// ABOUTME: chi router for the local stash HTTP API
// ABOUTME: Global middleware plus the saves, tags, collections, and import routes
package httpapi

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/harper/stash/internal/app"
)

const requestTimeout = 60 * time.Second

// NewRouter builds the API handler over an opened App
func NewRouter(a *app.App) http.Handler {
	h := &Handlers{
		store:      a.Store,
		linker:     a.Linker,
		reconciler: a.Reconciler,
		embedder:   a.Embedder(),
		logger:     log.WithPrefix("http"),
	}

	router := chi.NewRouter()
	setupMiddleware(router, h.logger)
	setupRoutes(router, h)
	return router
}

func setupMiddleware(router *chi.Mux, logger *log.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(requestTimeout))
	router.Use(middleware.Heartbeat("/ping"))
}

func setupRoutes(router *chi.Mux, h *Handlers) {
	router.Route("/saves", func(r chi.Router) {
		r.Get("/", h.ListSaves)
		r.Post("/", h.CreateSave)
		r.Get("/{id}", h.GetSave)
		r.Patch("/{id}", h.UpdateSave)
		r.Delete("/{id}", h.DeleteSave)
	})

	router.Get("/tags", h.ListTags)

	router.Route("/collections", func(r chi.Router) {
		r.Get("/", h.ListCollections)
		r.Post("/", h.CreateCollection)
	})

	router.Post("/import", h.Import)
}

// requestLogger logs one line per request with status and duration
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
