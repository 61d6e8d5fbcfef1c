package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahoo/elide-sub004/internal/dictionary"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) ErrorDocument {
	t.Helper()
	var doc ErrorDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	return doc
}

func TestRenderErrors(t *testing.T) {
	w := httptest.NewRecorder()
	RenderErrors(w, http.StatusNotFound, "unknown version", "try v1")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/vnd.api+json", w.Header().Get("Content-Type"))

	doc := decode(t, w)
	require.Len(t, doc.Errors, 2)
	assert.Equal(t, ErrorObject{Status: "404", Code: "not_found", Title: "Not Found", Detail: "unknown version"}, doc.Errors[0])

	w = httptest.NewRecorder()
	RenderErrors(w, http.StatusTooManyRequests)
	assert.Len(t, decode(t, w).Errors, 1)
}

func TestRenderError(t *testing.T) {
	t.Run("status carrying error", func(t *testing.T) {
		err := fmt.Errorf("binding: %w", &dictionary.InvalidAttributeError{Field: "title", Type: "book"})
		assert.Equal(t, http.StatusBadRequest, StatusOf(err))

		w := httptest.NewRecorder()
		RenderError(w, err)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, err.Error(), decode(t, w).Errors[0].Detail)
	})

	t.Run("internal error is not echoed", func(t *testing.T) {
		w := httptest.NewRecorder()
		RenderError(w, errors.New("database password is hunter2"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, decode(t, w).Errors[0].Detail)
	})
}

func TestRenderUnauthorized(t *testing.T) {
	w := httptest.NewRecorder()
	RenderUnauthorized(w, "missing token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
}
