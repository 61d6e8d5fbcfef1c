package docs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/getkin/kin-openapi/openapi3"
	"sigs.k8s.io/yaml"

	"github.com/yahoo/elide-sub004/internal/dictionary"
)

// Render encodes doc in the given format
func Render(doc *openapi3.T, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal OpenAPI document: %w", err)
	}

	switch format {
	case FormatJSON, "":
		return data, nil
	case FormatYAML:
		out, err := yaml.JSONToYAML(data)
		if err != nil {
			return nil, fmt.Errorf("failed to convert OpenAPI document to YAML: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}

// Validate checks doc against the OpenAPI 3 rules
func Validate(ctx context.Context, doc *openapi3.T) error {
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return nil
}

// WriteFile renders doc into outputDir as openapi.json or openapi.yaml and
// returns the written path
func WriteFile(doc *openapi3.T, format Format, outputDir string) (string, error) {
	if format == "" {
		format = FormatJSON
	}

	// Validate the output directory BEFORE making it absolute
	if containsPathTraversal(outputDir) {
		return "", fmt.Errorf("invalid output directory: path traversal detected")
	}

	dir := filepath.Clean(outputDir)
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to resolve working directory: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := Render(doc, format)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "openapi."+string(format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write OpenAPI document: %w", err)
	}
	return path, nil
}

// RenderVersion returns a function that builds, validates and encodes the
// document of one API version of d
func RenderVersion(d *dictionary.Dictionary, opts ...Option) func(ctx context.Context, version string, format Format) ([]byte, error) {
	return func(ctx context.Context, version string, format Format) ([]byte, error) {
		doc, err := NewBuilder(d, withVersion(opts, version)...).Build()
		if err != nil {
			return nil, err
		}
		if err := Validate(ctx, doc); err != nil {
			return nil, err
		}
		return Render(doc, format)
	}
}
