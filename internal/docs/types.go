// Package docs builds OpenAPI 3 documents describing the JSON:API surface of
// the entities bound in a dictionary.
package docs

import (
	"fmt"
	"strings"
)

// JSONAPIMediaType is the media type of every request and response body
const JSONAPIMediaType = "application/vnd.api+json"

// AtomicMediaType is the media type of the atomic operations extension
const AtomicMediaType = `application/vnd.api+json; ext="https://jsonapi.org/ext/atomic"`

// Config holds configuration for document generation
type Config struct {
	// Title and Version populate the document info block
	Title       string
	Version     string
	Description string

	// APIVersion selects the model version documented; empty means unversioned
	APIVersion string

	// BasePath prefixes every path; empty or "/" leaves paths unchanged
	BasePath string

	// Servers are the server URLs advertised by the document
	Servers []ServerURL

	// LegacyFilterDialect emits filter[type.attr][op] parameters
	LegacyFilterDialect bool

	// RSQLFilterDialect emits filter[type] and filter parameters
	RSQLFilterDialect bool

	// FilterOperators are the legacy dialect operators
	FilterOperators []string

	// ManagedClasses restricts the document to these API type names
	ManagedClasses []string

	// AtomicOperations adds the /operations path
	AtomicOperations bool

	// StandardResponses adds 401, 403, 404, 408 and 429 to every operation
	StandardResponses bool
}

// ServerURL represents an API server URL in the document
type ServerURL struct {
	URL         string
	Description string
}

// DefaultFilterOperators are the legacy dialect operators enabled by default
var DefaultFilterOperators = []string{
	"in", "not", "infix", "prefix", "postfix", "ge", "gt", "le", "lt", "isnull", "notnull",
}

// DefaultConfig returns a configuration with both filter dialects enabled
func DefaultConfig() *Config {
	return &Config{
		Title:               "Elide Service",
		Version:             "1.0",
		LegacyFilterDialect: true,
		RSQLFilterDialect:   true,
		FilterOperators:     append([]string(nil), DefaultFilterOperators...),
	}
}

// Format represents a document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat resolves a format name, accepting "yml" for YAML
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported document format %q", s)
	}
}

// ContentType is the HTTP content type of an encoded document
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}
