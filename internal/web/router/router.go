// Package router wires the docs server's chi routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yahoo/elide-sub004/internal/web/auth"
	"github.com/yahoo/elide-sub004/internal/web/cache"
	"github.com/yahoo/elide-sub004/internal/web/middleware"
	"github.com/yahoo/elide-sub004/internal/web/response"
)

// APIVersionHeader selects the document version on unversioned routes
const APIVersionHeader = "ApiVersion"

// Config holds what the routes need
type Config struct {
	// Prefix mounts the docs routes, e.g. "/doc"
	Prefix string
	// Documents renders and caches documents
	Documents *cache.Documents
	// Versions lists the API versions that have a document
	Versions func() []string
	// Tokens guards the docs routes; nil disables authentication
	Tokens *auth.TokenService
	Logger *zap.Logger
}

// New creates the docs server handler
func New(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "/"
	}

	h := &docsHandler{
		documents: cfg.Documents,
		versions:  cfg.Versions,
		logger:    cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(cfg.Logger, "/healthz"))
	r.Use(middleware.Recovery(cfg.Logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.RenderNotFound(w, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.RenderErrors(w, http.StatusMethodNotAllowed, r.Method+" is not supported")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route(cfg.Prefix, func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.Tokens))
		r.Get("/", h.listVersions)
		r.Get("/openapi.{format}", h.document)
		r.Get("/{version}/openapi.{format}", h.document)
	})

	return r
}
