package docs

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/yahoo/elide-sub004/internal/dictionary"
	"github.com/yahoo/elide-sub004/internal/expression"
)

const schemaRefPrefix = "#/components/schemas/"

// StandardResponses are the error responses every JSON:API operation can return
func StandardResponses() map[int]*openapi3.Response {
	out := make(map[int]*openapi3.Response)
	for _, code := range []int{
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusRequestTimeout,
		http.StatusTooManyRequests,
	} {
		out[code] = openapi3.NewResponse().
			WithDescription(http.StatusText(code)).
			WithContent(openapi3.NewContentWithSchema(errorsSchema(), []string{JSONAPIMediaType}))
	}
	return out
}

func errorsSchema() *openapi3.Schema {
	detail := openapi3.NewObjectSchema().
		WithProperty("status", openapi3.NewStringSchema()).
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("detail", openapi3.NewStringSchema())
	return openapi3.NewObjectSchema().
		WithProperty("errors", openapi3.NewArraySchema().WithItems(detail))
}

// schemaRef points at the component schema of t
func (b *Builder) schemaRef(t reflect.Type) *openapi3.SchemaRef {
	name := b.schemaName(t)
	return openapi3.NewSchemaRef(schemaRefPrefix+name, b.schemas[name])
}

// datum wraps a single resource: {"data": {...}}
func datum(item *openapi3.SchemaRef) *openapi3.Schema {
	return openapi3.NewObjectSchema().WithPropertyRef("data", item)
}

// data wraps a list of resources: {"data": [...]}
func data(item *openapi3.SchemaRef) *openapi3.Schema {
	list := openapi3.NewArraySchema()
	list.Items = item
	return openapi3.NewObjectSchema().WithProperty("data", list)
}

// identifier is a resource linkage object of the given type
func identifier(alias string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("", openapi3.NewObjectSchema().
		WithProperty("type", openapi3.NewStringSchema().WithEnum(alias)).
		WithProperty("id", openapi3.NewStringSchema()))
}

// entitySchema describes t as a JSON:API resource object
func (b *Builder) entitySchema(t reflect.Type) *openapi3.Schema {
	alias := b.dictionary.JSONAliasFor(t)
	schema := openapi3.NewObjectSchema().
		WithProperty("type", openapi3.NewStringSchema().WithEnum(alias)).
		WithProperty("id", openapi3.NewStringSchema())
	schema.Title = alias
	schema.Description = joinNonEmpty(
		dictionary.EntityDescription(t),
		b.permissionNote("Create", b.dictionary.PermissionsForClass(t, dictionary.PermissionCreate)),
		b.permissionNote("Delete", b.dictionary.PermissionsForClass(t, dictionary.PermissionDelete)),
	)

	attributes := openapi3.NewObjectSchema()
	conv := newTypeConverter()
	for _, name := range b.dictionary.Attributes(t) {
		attr := conv.schemaFor(b.dictionary.Type(t, name))
		attr.Description = b.fieldPermissions(t, name)
		attr.ReadOnly = b.dictionary.IsComputed(t, name) && !b.settable(t, name)
		attributes.WithProperty(name, attr)
	}
	if len(attributes.Properties) > 0 {
		schema.WithProperty("attributes", attributes)
	}

	relationships := openapi3.NewObjectSchema()
	for _, name := range b.dictionary.Relationships(t) {
		target := b.dictionary.ParameterizedType(t, name, 0)
		targetAlias := b.dictionary.JSONAliasFor(target)
		if targetAlias == "" {
			continue
		}
		var rel *openapi3.Schema
		if b.dictionary.RelationshipType(t, name).IsToMany() {
			rel = data(identifier(targetAlias))
		} else {
			rel = datum(identifier(targetAlias))
		}
		rel.Description = b.fieldPermissions(t, name)
		relationships.WithProperty(name, rel)
	}
	if len(relationships.Properties) > 0 {
		schema.WithProperty("relationships", relationships)
	}
	return schema
}

func (b *Builder) settable(t reflect.Type, field string) bool {
	binding, err := b.dictionary.EntityBinding(t)
	if err != nil {
		return false
	}
	member := binding.AccessibleObject(field)
	return member != nil && member.CanSet()
}

func (b *Builder) fieldPermissions(t reflect.Type, field string) string {
	return joinNonEmpty(
		b.permissionNote("Read", b.effectivePermission(t, field, dictionary.PermissionRead)),
		b.permissionNote("Update", b.effectivePermission(t, field, dictionary.PermissionUpdate)),
	)
}

// effectivePermission is the field expression, else the class expression
func (b *Builder) effectivePermission(t reflect.Type, field string, kind dictionary.PermissionKind) expression.Node {
	if node := b.dictionary.PermissionsForField(t, field, kind); node != nil {
		return node
	}
	if node := b.dictionary.PermissionsForClass(t, kind); node != nil {
		return node
	}
	return nil
}

func (b *Builder) permissionNote(kind string, node expression.Node) string {
	if node == nil {
		return ""
	}
	return kind + " Permissions : (" + node.String() + ")"
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

// typeConverter maps Go types to schemas; nested structs are expanded once
// per chain to stop at recursive types
type typeConverter struct {
	visiting map[reflect.Type]bool
}

func newTypeConverter() *typeConverter {
	return &typeConverter{visiting: make(map[reflect.Type]bool)}
}

func (c *typeConverter) schemaFor(t reflect.Type) *openapi3.Schema {
	if t == nil {
		return openapi3.NewStringSchema()
	}
	nullable := false
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
		nullable = true
	}
	s := c.convert(t)
	s.Nullable = nullable
	return s
}

func (c *typeConverter) convert(t reflect.Type) *openapi3.Schema {
	switch t {
	case timeType:
		return openapi3.NewDateTimeSchema()
	case uuidType:
		return openapi3.NewUUIDSchema()
	case ulidType:
		return openapi3.NewStringSchema().WithPattern("^[0-9A-HJKMNP-TV-Z]{26}$")
	}

	switch t.Kind() {
	case reflect.String:
		return openapi3.NewStringSchema()
	case reflect.Bool:
		return openapi3.NewBoolSchema()
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return openapi3.NewInt32Schema()
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return openapi3.NewInt64Schema()
	case reflect.Float32:
		s := openapi3.NewFloat64Schema()
		s.Format = "float"
		return s
	case reflect.Float64:
		s := openapi3.NewFloat64Schema()
		s.Format = "double"
		return s
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return openapi3.NewBytesSchema()
		}
		return openapi3.NewArraySchema().WithItems(c.schemaFor(t.Elem()))
	case reflect.Map:
		if isSetType(t) {
			s := openapi3.NewArraySchema().WithItems(c.schemaFor(t.Key()))
			s.UniqueItems = true
			return s
		}
		return openapi3.NewObjectSchema().WithAdditionalProperties(c.schemaFor(t.Elem()))
	case reflect.Struct:
		return c.structSchema(t)
	default:
		return openapi3.NewSchema()
	}
}

func (c *typeConverter) structSchema(t reflect.Type) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	if c.visiting[t] {
		return s
	}
	c.visiting[t] = true
	defer delete(c.visiting, t)

	for _, f := range structFields(t) {
		s.WithProperty(f.name, c.schemaFor(f.typ))
	}
	return s
}

func isSetType(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem().Kind() == reflect.Struct && t.Elem().NumField() == 0
}

type structField struct {
	name string
	typ  reflect.Type
}

// structFields lists the serialized fields of a complex attribute, following
// encoding/json naming and flattening embedded structs
func structFields(t reflect.Type) []structField {
	var out []structField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		if f.Anonymous && tag == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				out = append(out, structFields(ft)...)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if n, _, _ := strings.Cut(tag, ","); n != "" {
			name = n
		}
		out = append(out, structField{name: name, typ: f.Type})
	}
	return out
}
