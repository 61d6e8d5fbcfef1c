package cache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahoo/elide-sub004/internal/docs"
)

type failingCache struct{ *MemoryCache }

func (failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func countingRenderer(calls *int) Renderer {
	return func(_ context.Context, version string, format docs.Format) ([]byte, error) {
		*calls++
		return []byte(version + "/" + string(format)), nil
	}
}

func TestDocuments_Get(t *testing.T) {
	ctx := context.Background()
	calls := 0
	store := NewDocuments(NewMemoryCache(DefaultCacheConfig()), countingRenderer(&calls), time.Minute, nil)

	doc, err := store.Get(ctx, "1", docs.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "1/json", string(doc.Body))
	assert.Equal(t, "application/json", doc.ContentType)
	assert.Equal(t, GenerateETag([]byte("1/json")), doc.ETag)

	again, err := store.Get(ctx, "1", docs.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, doc.ETag, again.ETag)
	assert.Equal(t, 1, calls)

	yaml, err := store.Get(ctx, "1", docs.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "application/yaml", yaml.ContentType)
	assert.Equal(t, 2, calls)

	require.NoError(t, store.Invalidate(ctx))
	_, err = store.Get(ctx, "1", docs.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDocuments_RenderError(t *testing.T) {
	boom := errors.New("boom")
	store := NewDocuments(NewMemoryCache(DefaultCacheConfig()),
		func(context.Context, string, docs.Format) ([]byte, error) { return nil, boom },
		0, nil)

	_, err := store.Get(context.Background(), "", docs.FormatJSON)
	assert.ErrorIs(t, err, boom)
}

func TestDocuments_CacheFailure(t *testing.T) {
	calls := 0
	store := NewDocuments(failingCache{NewMemoryCache(DefaultCacheConfig())}, countingRenderer(&calls), 0, nil)

	doc, err := store.Get(context.Background(), "", docs.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "/json", string(doc.Body))
	assert.Equal(t, 1, calls)
}

func TestDocumentKey(t *testing.T) {
	assert.Equal(t, "vdefault:json", DocumentKey("", docs.FormatJSON))
	assert.Equal(t, "v2:yaml", DocumentKey("2", docs.FormatYAML))
}

func TestETag(t *testing.T) {
	etag := GenerateETag([]byte("content"))
	assert.Len(t, etag, 34)
	assert.NotEqual(t, etag, GenerateETag([]byte("other")))

	assert.Equal(t, []string{`"a"`, `W/"b"`}, ParseIfNoneMatch(` "a", W/"b" ,`))
	assert.True(t, MatchesETag(`"b"`, []string{`"a"`, `W/"b"`}))
	assert.True(t, MatchesETag(`"z"`, []string{"*"}))
	assert.False(t, MatchesETag(`"z"`, []string{`"a"`}))

	t.Run("not modified", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("If-None-Match", etag)
		w := httptest.NewRecorder()
		assert.True(t, NotModified(w, r, etag))
		assert.Equal(t, http.StatusNotModified, w.Code)
	})

	t.Run("modified", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("If-None-Match", `"stale"`)
		w := httptest.NewRecorder()
		assert.False(t, NotModified(w, r, etag))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
