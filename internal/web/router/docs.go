package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yahoo/elide-sub004/internal/dictionary"
	"github.com/yahoo/elide-sub004/internal/docs"
	"github.com/yahoo/elide-sub004/internal/web/cache"
	webcontext "github.com/yahoo/elide-sub004/internal/web/context"
	"github.com/yahoo/elide-sub004/internal/web/response"
)

type docsHandler struct {
	documents *cache.Documents
	versions  func() []string
	logger    *zap.Logger
}

// versionLink is one entry of the version listing
type versionLink struct {
	Version string `json:"version"`
	JSON    string `json:"json"`
	YAML    string `json:"yaml"`
}

func (h *docsHandler) listVersions(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimSuffix(r.URL.Path, "/")

	links := []versionLink{}
	for _, version := range h.versions() {
		prefix := base
		if version != dictionary.NoVersion {
			prefix += "/v" + version
		}
		links = append(links, versionLink{
			Version: version,
			JSON:    prefix + "/openapi.json",
			YAML:    prefix + "/openapi.yaml",
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"versions": links})
}

func (h *docsHandler) document(w http.ResponseWriter, r *http.Request) {
	format, err := docs.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		response.RenderNotFound(w, err.Error())
		return
	}

	version := r.Header.Get(APIVersionHeader)
	if v := chi.URLParam(r, "version"); v != "" {
		version = strings.TrimPrefix(v, "v")
	}
	if !h.known(version) {
		response.RenderNotFound(w, "unknown API version "+version)
		return
	}

	doc, err := h.documents.Get(r.Context(), version, format)
	if err != nil {
		fields := []zap.Field{
			zap.String("request_id", webcontext.GetRequestID(r.Context())),
			zap.String("api_version", version),
			zap.Error(err),
		}
		if user := webcontext.GetUser(r.Context()); user != nil {
			fields = append(fields, zap.String("user", user.Name))
		}
		h.logger.Error("failed to render document", fields...)
		if errors.Is(err, docs.ErrNoExportedClasses) {
			response.RenderNotFound(w, err.Error())
			return
		}
		response.RenderError(w, err)
		return
	}

	if cache.NotModified(w, r, doc.ETag) {
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("ETag", doc.ETag)
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(doc.Body)
}

func (h *docsHandler) known(version string) bool {
	for _, v := range h.versions() {
		if v == version {
			return true
		}
	}
	return false
}
