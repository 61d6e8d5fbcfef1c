package commands

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yahoo/elide-sub004/internal/cli/config"
	"github.com/yahoo/elide-sub004/internal/models"
	"github.com/yahoo/elide-sub004/internal/web/auth"
)

// projectDir returns a working directory holding elide.yml with the given
// extra YAML appended to a quiet log section
func projectDir(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	content := "log:\n  level: error\n" + extra
	require.NoError(t, os.WriteFile(filepath.Join(dir, "elide.yml"), []byte(content), 0644))
	return dir
}

func TestOpenAPICommand(t *testing.T) {
	t.Run("stdout json", func(t *testing.T) {
		out, err := run(t, projectDir(t, ""), "openapi")
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		assert.Equal(t, "3.0.3", doc["openapi"])
		assert.Contains(t, doc["paths"], "/book/{bookId}")
	})

	t.Run("yaml with base path", func(t *testing.T) {
		out, err := run(t, projectDir(t, ""), "openapi", "--format", "yaml", "--base-path", "/api")
		require.NoError(t, err)
		assert.Contains(t, out, "/api/book/")
	})

	t.Run("config file settings", func(t *testing.T) {
		dir := projectDir(t, "openapi:\n  title: Lending Library\n  base_path: /v1\n")
		out, err := run(t, dir, "openapi")
		require.NoError(t, err)
		assert.Contains(t, out, `"title": "Lending Library"`)
		assert.Contains(t, out, "/v1/library/{libraryId}")
	})

	t.Run("output directory", func(t *testing.T) {
		dir := projectDir(t, "")
		out, err := run(t, dir, "openapi", "--format", "yaml", "--output", "docs")
		require.NoError(t, err)
		assert.Contains(t, out, "Wrote")

		data, err := os.ReadFile(filepath.Join(dir, "docs", "openapi.yaml"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "bookId")
	})

	t.Run("all versions", func(t *testing.T) {
		dir := projectDir(t, "")
		_, err := run(t, dir, "openapi", "--all-versions")
		assert.Error(t, err)

		_, err = run(t, dir, "openapi", "--all-versions", "--output", "out")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "out", "openapi.json"))
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := run(t, projectDir(t, ""), "openapi", "--format", "xml")
		assert.Error(t, err)
	})

	t.Run("unknown version", func(t *testing.T) {
		_, err := run(t, projectDir(t, ""), "openapi", "--api-version", "7")
		assert.Error(t, err)
	})
}

func TestDescribeCommand(t *testing.T) {
	dir := projectDir(t, "")

	out, err := run(t, dir, "describe")
	require.NoError(t, err)
	assert.Contains(t, out, "book (Book) [root]")
	assert.Contains(t, out, "displayTitle")
	assert.Contains(t, out, "members -> member ONE_TO_MANY (inverse library)")
	assert.Contains(t, out, "CreatePermission: "+models.AdminRole)
	assert.Contains(t, out, "cursor, nocount")
	assert.NotContains(t, out, "passwordHash")
	assert.Less(t, strings.Index(out, "author ("), strings.Index(out, "book ("))

	out, err = run(t, dir, "describe", "loan")
	require.NoError(t, err)
	assert.Contains(t, out, "loan (Loan)")
	assert.NotContains(t, out, "book (Book)")

	_, err = run(t, dir, "describe", "bok")
	assert.EqualError(t, err, `entity "bok" not found; did you mean: book, loan?`)
}

func TestTokenCommand(t *testing.T) {
	_, err := run(t, projectDir(t, ""), "token", "ada")
	assert.Error(t, err)

	out, err := run(t, projectDir(t, "server:\n  jwt_secret: s3cret\n"), "token", "ada", "--role", models.AdminRole)
	require.NoError(t, err)

	user, err := auth.NewTokenService("s3cret", time.Hour).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Name)
	assert.True(t, user.InRole(models.AdminRole))
}

func newTestProject(t *testing.T, cache config.CacheConfig) *project {
	t.Helper()
	chdir(t, t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Cache = cache

	d, err := models.NewDictionary(zap.NewNop())
	require.NoError(t, err)
	return &project{config: cfg, logger: zap.NewNop(), dictionary: d}
}

func serveOnce(t *testing.T, p *project, path string) (int, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	srv, err := newDocsServer(ctx, p)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	<-srv.Ready()

	resp, err := http.Get("http://" + srv.Addr() + path)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	cancel()
	require.NoError(t, <-done)
	return resp.StatusCode, string(body)
}

func TestDocsServer(t *testing.T) {
	p := newTestProject(t, config.CacheConfig{Backend: config.CacheMemory, TTL: time.Minute, Prefix: "test:"})

	code, body := serveOnce(t, p, "/doc/openapi.json")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "/book/{bookId}")
}

func TestDocsServer_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	p := newTestProject(t, config.CacheConfig{
		Backend:   config.CacheRedis,
		RedisAddr: mr.Addr(),
		TTL:       time.Minute,
		Prefix:    "test:",
	})

	code, _ := serveOnce(t, p, "/doc/openapi.yaml")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, mr.Exists("test:vdefault:yaml"))
}

func TestDocsServer_RedisUnavailable(t *testing.T) {
	p := newTestProject(t, config.CacheConfig{Backend: config.CacheRedis, RedisAddr: "127.0.0.1:1"})
	_, err := newDocsServer(context.Background(), p)
	assert.Error(t, err)
}
