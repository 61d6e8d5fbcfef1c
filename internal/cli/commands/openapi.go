package commands

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yahoo/elide-sub004/internal/cli/ui"
	"github.com/yahoo/elide-sub004/internal/dictionary"
	"github.com/yahoo/elide-sub004/internal/docs"
)

type openapiOptions struct {
	format      string
	apiVersion  string
	basePath    string
	output      string
	validate    bool
	allVersions bool
}

// NewOpenAPICommand creates the openapi command
func NewOpenAPICommand() *cobra.Command {
	opts := &openapiOptions{}

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI document",
		Long: `Generate the OpenAPI 3 document describing the JSON:API endpoints of
the bound models.

The document is written to stdout unless --output names a directory, in
which case it is written as openapi.json or openapi.yaml.

Examples:
  elide openapi
  elide openapi --format=yaml --api-version=2
  elide openapi --base-path=/api --output=docs
  elide openapi --all-versions --output=docs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenAPI(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "Document format: json or yaml")
	cmd.Flags().StringVar(&opts.apiVersion, "api-version", "", "API version to document (default: unversioned models)")
	cmd.Flags().StringVar(&opts.basePath, "base-path", "", "Prefix for every path, e.g. /api")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output directory (default: stdout)")
	cmd.Flags().BoolVar(&opts.validate, "validate", true, "Validate the document before writing it")
	cmd.Flags().BoolVar(&opts.allVersions, "all-versions", false, "Write one document per API version (requires --output)")

	return cmd
}

func runOpenAPI(cmd *cobra.Command, opts *openapiOptions) error {
	startTime := time.Now()

	format, err := docs.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.allVersions && opts.output == "" {
		return fmt.Errorf("--all-versions requires --output")
	}

	p, err := loadProject(cmd)
	if err != nil {
		return err
	}
	defer p.logger.Sync()

	cfg := p.config.OpenAPI
	if cmd.Flags().Changed("api-version") {
		cfg.APIVersion = opts.apiVersion
	}
	if cmd.Flags().Changed("base-path") {
		cfg.BasePath = opts.basePath
	}
	builderOpts := []docs.Option{docs.WithConfig(cfg.Docs()), docs.WithLogger(p.logger)}

	documents := map[string]*openapi3.T{}
	if opts.allVersions {
		documents, err = docs.BuildVersions(p.dictionary, builderOpts...)
		if err != nil {
			return err
		}
	} else {
		doc, err := docs.NewBuilder(p.dictionary, builderOpts...).Build()
		if err != nil {
			return err
		}
		documents[cfg.APIVersion] = doc
	}

	versions := make([]string, 0, len(documents))
	for version := range documents {
		versions = append(versions, version)
	}
	sort.Strings(versions)

	if opts.validate {
		for _, version := range versions {
			if err := docs.Validate(cmd.Context(), documents[version]); err != nil {
				return err
			}
		}
	}

	if opts.output == "" {
		data, err := docs.Render(documents[versions[0]], format)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	infoColor := color.New(color.FgCyan)
	out := cmd.OutOrStdout()

	for _, version := range versions {
		dir := opts.output
		if opts.allVersions && version != dictionary.NoVersion {
			dir = filepath.Join(dir, "v"+version)
		}
		path, err := docs.WriteFile(documents[version], format, dir)
		if err != nil {
			return err
		}
		p.logger.Debug("wrote document", zap.String("path", path), zap.String("api_version", version))
		ui.Success(out, "Wrote %s", path)
	}

	infoColor.Fprintf(out, "Generated %d document(s) in %v\n", len(versions), time.Since(startTime).Round(time.Millisecond))
	return nil
}
