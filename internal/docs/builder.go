package docs

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/yahoo/elide-sub004/internal/dictionary"
)

// ErrNoExportedClasses is returned when none of the requested classes are bound
var ErrNoExportedClasses = errors.New("none of the provided classes are exported by Elide")

// Builder generates an OpenAPI document from the bindings of a dictionary.
// Each call to Build starts from scratch; a Builder must not be shared by
// concurrent calls to Build.
type Builder struct {
	dictionary *dictionary.Dictionary
	config     *Config
	logger     *zap.Logger

	managed         []reflect.Type
	schemas         map[string]*openapi3.Schema
	globalResponses map[string]*openapi3.Response
	globalParams    []*openapi3.Parameter
}

// Option configures a Builder
type Option func(*Builder)

// WithConfig replaces the whole configuration
func WithConfig(cfg *Config) Option {
	return func(b *Builder) {
		if cfg != nil {
			c := *cfg
			b.config = &c
		}
	}
}

// WithAPIVersion selects the model version to document
func WithAPIVersion(version string) Option {
	return func(b *Builder) {
		b.config.APIVersion = version
	}
}

// WithBasePath prefixes every emitted path
func WithBasePath(path string) Option {
	return func(b *Builder) {
		b.config.BasePath = path
	}
}

// WithManagedClasses restricts the document to the given entity types
func WithManagedClasses(types ...reflect.Type) Option {
	return func(b *Builder) {
		b.managed = append(b.managed, types...)
	}
}

// WithFilterOperators replaces the legacy dialect operators
func WithFilterOperators(ops ...string) Option {
	return func(b *Builder) {
		b.config.FilterOperators = append([]string(nil), ops...)
	}
}

// WithLegacyFilterDialect toggles filter[type.attr][op] parameters
func WithLegacyFilterDialect(enabled bool) Option {
	return func(b *Builder) {
		b.config.LegacyFilterDialect = enabled
	}
}

// WithRSQLFilterDialect toggles RSQL filter parameters
func WithRSQLFilterDialect(enabled bool) Option {
	return func(b *Builder) {
		b.config.RSQLFilterDialect = enabled
	}
}

// WithAtomicOperations toggles the /operations path
func WithAtomicOperations(enabled bool) Option {
	return func(b *Builder) {
		b.config.AtomicOperations = enabled
	}
}

// WithGlobalResponse adds a response to every operation
func WithGlobalResponse(code int, response *openapi3.Response) Option {
	return func(b *Builder) {
		b.globalResponses[strconv.Itoa(code)] = response
	}
}

// WithGlobalParameter adds a parameter to every path
func WithGlobalParameter(param *openapi3.Parameter) Option {
	return func(b *Builder) {
		b.globalParams = append(b.globalParams, param)
	}
}

// WithLogger sets the logger used to report skipped and pruned paths
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a builder over d
func NewBuilder(d *dictionary.Dictionary, opts ...Option) *Builder {
	b := &Builder{
		dictionary:      d,
		config:          DefaultConfig(),
		logger:          zap.NewNop(),
		globalResponses: make(map[string]*openapi3.Response),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.config.StandardResponses {
		for code, resp := range StandardResponses() {
			if _, ok := b.globalResponses[strconv.Itoa(code)]; !ok {
				b.globalResponses[strconv.Itoa(code)] = resp
			}
		}
	}
	return b
}

// Build generates the document
func (b *Builder) Build() (*openapi3.T, error) {
	managed, err := b.managedClasses()
	if err != nil {
		return nil, err
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       b.config.Title,
			Version:     b.config.Version,
			Description: b.config.Description,
		},
		Paths: make(openapi3.Paths),
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}
	for _, server := range b.config.Servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: server.URL, Description: server.Description})
	}

	b.schemas = make(map[string]*openapi3.Schema, len(managed))
	for _, t := range managed {
		schema := b.entitySchema(t)
		b.schemas[b.schemaName(t)] = schema
		doc.Components.Schemas[b.schemaName(t)] = openapi3.NewSchemaRef("", schema)
	}

	isManaged := make(map[reflect.Type]bool, len(managed))
	for _, t := range managed {
		isManaged[t] = true
	}

	var discovered []*PathMetaData
	for _, t := range managed {
		if b.dictionary.IsRoot(t) {
			discovered = append(discovered, b.find(t, isManaged)...)
		}
	}

	for _, path := range b.prune(discovered) {
		doc.Paths[b.pathOf(path.CollectionURL())] = b.collectionPath(path)
		doc.Paths[b.pathOf(path.URL())] = b.instancePath(path)
		if !path.IsRoot() {
			doc.Paths[b.pathOf(path.RelationshipURL())] = b.relationshipPath(path)
		}
	}

	if b.config.AtomicOperations {
		doc.Paths[b.pathOf("/operations")] = b.atomicPath(managed)
	}

	for _, t := range managed {
		doc.Tags = append(doc.Tags, &openapi3.Tag{
			Name:        b.tagNameOf(t),
			Description: dictionary.EntityDescription(t),
		})
	}

	b.logger.Debug("built document",
		zap.String("api_version", b.config.APIVersion),
		zap.Int("entities", len(managed)),
		zap.Int("paths", len(doc.Paths)),
	)
	return doc, nil
}

// managedClasses resolves the documented types, sorted by Go type name
func (b *Builder) managedClasses() ([]reflect.Type, error) {
	bound := b.dictionary.BoundClassesByVersion(b.config.APIVersion)

	requested := append([]reflect.Type(nil), b.managed...)
	for _, name := range b.config.ManagedClasses {
		t := b.dictionary.EntityClass(name, b.config.APIVersion)
		if t == nil {
			b.logger.Warn("managed class is not bound", zap.String("name", name), zap.String("api_version", b.config.APIVersion))
			continue
		}
		requested = append(requested, t)
	}

	managed := bound
	if len(requested) > 0 || len(b.config.ManagedClasses) > 0 {
		want := make(map[reflect.Type]bool, len(requested))
		for _, t := range requested {
			want[b.lookup(t)] = true
		}
		managed = nil
		for _, t := range bound {
			if want[t] {
				managed = append(managed, t)
			}
		}
		if len(managed) == 0 {
			return nil, fmt.Errorf("%w (api version %q)", ErrNoExportedClasses, b.config.APIVersion)
		}
	}

	sort.Slice(managed, func(i, j int) bool {
		return managed[i].String() < managed[j].String()
	})
	return managed, nil
}

func (b *Builder) lookup(t reflect.Type) reflect.Type {
	if bound := b.dictionary.LookupBoundClass(t); bound != nil {
		return bound
	}
	return t
}

// tagNameOf is the tag grouping the paths of t
func (b *Builder) tagNameOf(t reflect.Type) string {
	name := b.dictionary.JSONAliasFor(t)
	if b.config.APIVersion != dictionary.NoVersion {
		name = "v" + b.config.APIVersion + "/" + name
	}
	return name
}

// schemaName is the component schema name of t
func (b *Builder) schemaName(t reflect.Type) string {
	name := b.dictionary.JSONAliasFor(t)
	if b.config.APIVersion != dictionary.NoVersion {
		name = "v" + b.config.APIVersion + "_" + name
	}
	return name
}

// pathOf prefixes url with the base path
func (b *Builder) pathOf(url string) string {
	if b.config.BasePath == "" || b.config.BasePath == "/" {
		return url
	}
	return b.config.BasePath + url
}

// BuildVersions builds one document per API version bound in d
func BuildVersions(d *dictionary.Dictionary, opts ...Option) (map[string]*openapi3.T, error) {
	docs := make(map[string]*openapi3.T)
	for _, version := range d.APIVersions() {
		doc, err := NewBuilder(d, withVersion(opts, version)...).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build document for version %q: %w", version, err)
		}
		docs[version] = doc
	}
	return docs, nil
}

func withVersion(opts []Option, version string) []Option {
	out := make([]Option, 0, len(opts)+1)
	out = append(out, opts...)
	return append(out, WithAPIVersion(version))
}
