package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}

	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host 'localhost', got %s", cfg.Server.Host)
	}

	if cfg.Server.DocsPrefix != "/doc" {
		t.Errorf("expected default docs prefix '/doc', got %s", cfg.Server.DocsPrefix)
	}

	if cfg.Cache.Backend != CacheMemory {
		t.Errorf("expected memory cache backend, got %s", cfg.Cache.Backend)
	}

	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("expected default ttl 5m, got %s", cfg.Cache.TTL)
	}

	if cfg.OpenAPI.Title != "Elide Service" {
		t.Errorf("expected default title, got %s", cfg.OpenAPI.Title)
	}

	if !cfg.OpenAPI.LegacyFilterDialect || !cfg.OpenAPI.RSQLFilterDialect {
		t.Error("expected both filter dialects enabled by default")
	}

	if len(cfg.OpenAPI.FilterOperators) != 11 {
		t.Errorf("expected 11 default filter operators, got %v", cfg.OpenAPI.FilterOperators)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	configContent := `
openapi:
  title: Library
  api_version: "2"
  base_path: /api
  legacy_filter_dialect: false
  managed_classes: [book, author]
  atomic_operations: true
server:
  port: 9090
  host: 0.0.0.0
  jwt_secret: s3cret
cache:
  backend: redis
  redis_addr: cache:6379
  ttl: 30s
log:
  level: debug
  development: true
`
	os.WriteFile("elide.yml", []byte(configContent), 0644)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.OpenAPI.Title != "Library" {
		t.Errorf("expected title 'Library', got %s", cfg.OpenAPI.Title)
	}

	if cfg.OpenAPI.APIVersion != "2" {
		t.Errorf("expected api version '2', got %s", cfg.OpenAPI.APIVersion)
	}

	if cfg.OpenAPI.LegacyFilterDialect {
		t.Error("expected legacy filter dialect disabled")
	}

	if len(cfg.OpenAPI.ManagedClasses) != 2 || cfg.OpenAPI.ManagedClasses[0] != "book" {
		t.Errorf("expected managed classes [book author], got %v", cfg.OpenAPI.ManagedClasses)
	}

	if cfg.Server.Address() != "0.0.0.0:9090" {
		t.Errorf("expected address 0.0.0.0:9090, got %s", cfg.Server.Address())
	}

	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("expected redis cache at cache:6379, got %s %s", cfg.Cache.Backend, cfg.Cache.RedisAddr)
	}

	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("expected ttl 30s, got %s", cfg.Cache.TTL)
	}

	if !cfg.Log.Development || cfg.Log.Level != "debug" {
		t.Errorf("expected development debug logging, got %+v", cfg.Log)
	}

	docs := cfg.OpenAPI.Docs()
	if docs.BasePath != "/api" || !docs.AtomicOperations {
		t.Errorf("expected docs config to carry base path and atomic operations, got %+v", docs)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, t.TempDir())

	file := filepath.Join(dir, "custom.yaml")
	os.WriteFile(file, []byte("server:\n  port: 7070\n"), 0644)

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("expected no error loading %s, got %v", file, err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected port 7070, got %d", cfg.Server.Port)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ELIDE_SERVER_PORT", "6060")
	t.Setenv("ELIDE_OPENAPI_BASE_PATH", "/v")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("expected port from environment, got %d", cfg.Server.Port)
	}
	if cfg.OpenAPI.BasePath != "/v" {
		t.Errorf("expected base path from environment, got %s", cfg.OpenAPI.BasePath)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"base path without slash", "openapi:\n  base_path: api\n"},
		{"base path trailing slash", "openapi:\n  base_path: /api/\n"},
		{"docs prefix", "server:\n  docs_prefix: doc\n"},
		{"port", "server:\n  port: 70000\n"},
		{"cache backend", "cache:\n  backend: memcached\n"},
		{"redis without address", "cache:\n  backend: redis\n  redis_addr: \"\"\n"},
		{"log level", "log:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			os.WriteFile("elide.yaml", []byte(tt.content), 0644)

			if _, err := Load(""); err == nil {
				t.Errorf("expected validation error for %q", tt.content)
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	if ConfigFile() != "" {
		t.Error("expected no config file in an empty directory")
	}

	os.WriteFile("elide.yaml", []byte(""), 0644)
	if filepath.Base(ConfigFile()) != "elide.yaml" {
		t.Errorf("expected elide.yaml, got %s", ConfigFile())
	}
}
