package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yahoo/elide-sub004/internal/cli/config"
	"github.com/yahoo/elide-sub004/internal/dictionary"
	"github.com/yahoo/elide-sub004/internal/docs"
	"github.com/yahoo/elide-sub004/internal/web/auth"
	"github.com/yahoo/elide-sub004/internal/web/cache"
	"github.com/yahoo/elide-sub004/internal/web/router"
	"github.com/yahoo/elide-sub004/internal/web/server"
)

// tokenTTL is the lifetime of tokens issued by the token command
const tokenTTL = 24 * time.Hour

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the OpenAPI documents over HTTP",
		Long: `Start the docs server. Every API version is served as JSON and YAML:

  GET <prefix>                           list versions
  GET <prefix>/openapi.{json,yaml}       unversioned document, or the
                                         version named by the ApiVersion header
  GET <prefix>/v{n}/openapi.{json,yaml}  document of API version n

Rendered documents are cached in memory or in Redis and carry an ETag.
When server.jwt_secret is set every docs route requires a bearer token.

Examples:
  elide serve
  elide serve --port=9000
  ELIDE_CACHE_BACKEND=redis elide serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			defer p.logger.Sync()

			if cmd.Flags().Changed("port") {
				p.config.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				p.config.Server.Host = host
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := newDocsServer(ctx, p)
			if err != nil {
				return err
			}

			go func() {
				select {
				case <-srv.Ready():
					color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(),
						"Serving OpenAPI documents at http://%s%s\n", srv.Addr(), p.config.Server.DocsPrefix)
				case <-ctx.Done():
				}
			}()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().StringVar(&host, "host", "localhost", "Host to listen on")

	return cmd
}

// newDocsServer assembles the cache, router and server from the project
func newDocsServer(ctx context.Context, p *project) (*server.Server, error) {
	c, err := newCache(ctx, p.config.Cache)
	if err != nil {
		return nil, err
	}

	render := docs.RenderVersion(p.dictionary,
		docs.WithConfig(p.config.OpenAPI.Docs()),
		docs.WithLogger(p.logger),
	)

	var tokens *auth.TokenService
	if secret := p.config.Server.JWTSecret; secret != "" {
		tokens = auth.NewTokenService(secret, tokenTTL)
	}

	handler := router.New(router.Config{
		Prefix:    p.config.Server.DocsPrefix,
		Documents: cache.NewDocuments(c, render, p.config.Cache.TTL, p.logger),
		Versions:  p.dictionary.APIVersions,
		Tokens:    tokens,
		Logger:    p.logger,
	})

	srv, err := server.New(server.Config{
		Address:         p.config.Server.Address(),
		Handler:         handler,
		ReadTimeout:     p.config.Server.ReadTimeout,
		WriteTimeout:    p.config.Server.WriteTimeout,
		ShutdownTimeout: p.config.Server.ShutdownTimeout,
		Logger:          p.logger,
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	srv.RegisterHook(func(context.Context) error {
		return c.Close()
	})
	return srv, nil
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	common := cache.CacheConfig{DefaultTTL: cfg.TTL, Prefix: cfg.Prefix}

	switch cfg.Backend {
	case config.CacheRedis:
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:        cfg.RedisAddr,
			DB:          cfg.RedisDB,
			CacheConfig: common,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return c, nil
	default:
		return cache.NewMemoryCache(common), nil
	}
}

// NewTokenCommand creates the token command
func NewTokenCommand() *cobra.Command {
	var roles []string

	cmd := &cobra.Command{
		Use:   "token <user>",
		Short: "Issue a bearer token for the docs server",
		Long: `Sign a token for the docs server with server.jwt_secret.

Examples:
  elide token ada
  elide token ada --role Library.Admin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(file)
			if err != nil {
				return err
			}
			if cfg.Server.JWTSecret == "" {
				return fmt.Errorf("server.jwt_secret is not configured")
			}

			user := &dictionary.User{Name: args[0], Roles: roles}
			token, err := auth.NewTokenService(cfg.Server.JWTSecret, tokenTTL).GenerateToken(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&roles, "role", nil, "Role granted to the user (repeatable)")

	return cmd
}
