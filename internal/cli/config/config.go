package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yahoo/elide-sub004/internal/docs"
	"github.com/yahoo/elide-sub004/internal/logging"
)

// EnvPrefix prefixes environment overrides, e.g. ELIDE_SERVER_PORT
const EnvPrefix = "ELIDE"

// Config represents the elide configuration
type Config struct {
	OpenAPI OpenAPIConfig  `mapstructure:"openapi"`
	Server  ServerConfig   `mapstructure:"server"`
	Cache   CacheConfig    `mapstructure:"cache"`
	Log     logging.Config `mapstructure:"log"`
}

// OpenAPIConfig represents document generation settings
type OpenAPIConfig struct {
	Title               string   `mapstructure:"title"`
	Version             string   `mapstructure:"version"`
	Description         string   `mapstructure:"description"`
	APIVersion          string   `mapstructure:"api_version"`
	BasePath            string   `mapstructure:"base_path"`
	LegacyFilterDialect bool     `mapstructure:"legacy_filter_dialect"`
	RSQLFilterDialect   bool     `mapstructure:"rsql_filter_dialect"`
	FilterOperators     []string `mapstructure:"filter_operators"`
	ManagedClasses      []string `mapstructure:"managed_classes"`
	AtomicOperations    bool     `mapstructure:"atomic_operations"`
	StandardResponses   bool     `mapstructure:"standard_responses"`
}

// ServerConfig represents the docs server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	DocsPrefix      string        `mapstructure:"docs_prefix"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CacheConfig represents the rendered document cache
type CacheConfig struct {
	Backend   string        `mapstructure:"backend"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	TTL       time.Duration `mapstructure:"ttl"`
	Prefix    string        `mapstructure:"prefix"`
}

// Cache backends
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Load loads the configuration from file, or from elide.yml / elide.yaml in
// the working directory when file is empty
func Load(file string) (*Config, error) {
	v := viper.New()

	defaults := docs.DefaultConfig()
	v.SetDefault("openapi.title", defaults.Title)
	v.SetDefault("openapi.version", defaults.Version)
	v.SetDefault("openapi.description", "")
	v.SetDefault("openapi.api_version", defaults.APIVersion)
	v.SetDefault("openapi.base_path", defaults.BasePath)
	v.SetDefault("openapi.legacy_filter_dialect", defaults.LegacyFilterDialect)
	v.SetDefault("openapi.rsql_filter_dialect", defaults.RSQLFilterDialect)
	v.SetDefault("openapi.filter_operators", defaults.FilterOperators)
	v.SetDefault("openapi.managed_classes", []string{})
	v.SetDefault("openapi.atomic_operations", false)
	v.SetDefault("openapi.standard_responses", false)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.docs_prefix", "/doc")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.prefix", "elide:openapi:")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("elide")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment overrides: openapi.base_path -> ELIDE_OPENAPI_BASE_PATH
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Docs converts the openapi section into builder settings
func (c *OpenAPIConfig) Docs() *docs.Config {
	return &docs.Config{
		Title:               c.Title,
		Version:             c.Version,
		Description:         c.Description,
		APIVersion:          c.APIVersion,
		BasePath:            c.BasePath,
		LegacyFilterDialect: c.LegacyFilterDialect,
		RSQLFilterDialect:   c.RSQLFilterDialect,
		FilterOperators:     append([]string(nil), c.FilterOperators...),
		ManagedClasses:      append([]string(nil), c.ManagedClasses...),
		AtomicOperations:    c.AtomicOperations,
		StandardResponses:   c.StandardResponses,
	}
}

// Address is the host:port the docs server listens on
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ConfigFile returns the config file found in the working directory, or ""
func ConfigFile() string {
	for _, name := range []string{"elide.yml", "elide.yaml"} {
		if _, err := os.Stat(name); err == nil {
			abs, err := filepath.Abs(name)
			if err != nil {
				return name
			}
			return abs
		}
	}
	return ""
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if p := cfg.OpenAPI.BasePath; p != "" && p != "/" {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("openapi.base_path must start with '/', got: %s", p)
		}
		if strings.HasSuffix(p, "/") {
			return fmt.Errorf("openapi.base_path must not end with '/', got: %s", p)
		}
	}

	if p := cfg.Server.DocsPrefix; !strings.HasPrefix(p, "/") || (len(p) > 1 && strings.HasSuffix(p, "/")) {
		return fmt.Errorf("server.docs_prefix must start with '/' and not end with '/', got: %s", p)
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}

	switch cfg.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if cfg.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q (expected memory or redis)", cfg.Cache.Backend)
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	return nil
}
