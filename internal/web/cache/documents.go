package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yahoo/elide-sub004/internal/docs"
)

// Renderer produces the encoded document of an API version
type Renderer func(ctx context.Context, version string, format docs.Format) ([]byte, error)

// Document is an encoded OpenAPI document ready to be served
type Document struct {
	Body        []byte
	ETag        string
	ContentType string
}

// Documents renders OpenAPI documents on demand and keeps them in a Cache.
// A failing cache degrades to rendering on every request.
type Documents struct {
	cache  Cache
	render Renderer
	ttl    time.Duration
	logger *zap.Logger
}

// NewDocuments creates a document store over c
func NewDocuments(c Cache, render Renderer, ttl time.Duration, logger *zap.Logger) *Documents {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Documents{cache: c, render: render, ttl: ttl, logger: logger}
}

// DocumentKey is the cache key of a version and format
func DocumentKey(version string, format docs.Format) string {
	if version == "" {
		version = "default"
	}
	return "v" + version + ":" + string(format)
}

// Get returns the document of version in format, rendering it on a miss
func (d *Documents) Get(ctx context.Context, version string, format docs.Format) (*Document, error) {
	key := DocumentKey(version, format)

	body, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		return newDocument(body, format), nil
	case !IsCacheMiss(err):
		d.logger.Warn("document cache read failed", zap.String("key", key), zap.Error(err))
	}

	body, err = d.render(ctx, version, format)
	if err != nil {
		return nil, err
	}
	if err := d.cache.Set(ctx, key, body, d.ttl); err != nil {
		d.logger.Warn("document cache write failed", zap.String("key", key), zap.Error(err))
	}
	d.logger.Debug("rendered document", zap.String("key", key), zap.Int("bytes", len(body)))
	return newDocument(body, format), nil
}

// Invalidate drops every cached document
func (d *Documents) Invalidate(ctx context.Context) error {
	return d.cache.Clear(ctx)
}

func newDocument(body []byte, format docs.Format) *Document {
	return &Document{
		Body:        body,
		ETag:        GenerateETag(body),
		ContentType: format.ContentType(),
	}
}
