package commands

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yahoo/elide-sub004/internal/cli/config"
	"github.com/yahoo/elide-sub004/internal/dictionary"
	"github.com/yahoo/elide-sub004/internal/logging"
	"github.com/yahoo/elide-sub004/internal/models"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "elide",
		Short: "OpenAPI documents for JSON:API entity models",
		Long: color.CyanString(`Elide - JSON:API documentation from annotated models

Elide binds tagged Go structs into an entity dictionary and derives an
OpenAPI 3 document for the JSON:API surface they expose.

Features:
  • Permission expressions on types and fields
  • Versioned models
  • JSON and YAML documents
  • Cached docs server with ETag support`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default: elide.yml in the working directory)")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewOpenAPICommand())
	rootCmd.AddCommand(NewDescribeCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewTokenCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the elide version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(out, "Elide version: ")
			fmt.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			fmt.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// project is what every command needs before it can do its work
type project struct {
	config     *config.Config
	logger     *zap.Logger
	dictionary *dictionary.Dictionary
}

// loadProject reads the configuration named by --config and binds the models
func loadProject(cmd *cobra.Command) (*project, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	d, err := models.NewDictionary(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to bind models: %w", err)
	}

	return &project{config: cfg, logger: logger, dictionary: d}, nil
}
