package docs

import (
	"reflect"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/yahoo/elide-sub004/internal/dictionary"
)

// pathParameter identifies one instance in a URL template
func (b *Builder) pathParameter(p *PathMetaData) *openapi3.ParameterRef {
	param := openapi3.NewPathParameter(p.alias + "Id").
		WithDescription(p.alias + " Identifier").
		WithSchema(openapi3.NewStringSchema())
	return &openapi3.ParameterRef{Value: param}
}

func csvParameter(name, description string, values []string) *openapi3.ParameterRef {
	items := openapi3.NewStringSchema()
	for _, v := range values {
		items.Enum = append(items.Enum, v)
	}
	explode := false
	param := openapi3.NewQueryParameter(name).
		WithDescription(description).
		WithSchema(openapi3.NewArraySchema().WithItems(items))
	param.Style = openapi3.SerializationForm
	param.Explode = &explode
	return &openapi3.ParameterRef{Value: param}
}

func queryParameter(name, description string, schema *openapi3.Schema) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: openapi3.NewQueryParameter(name).WithDescription(description).WithSchema(schema)}
}

// sparseFieldsParameter selects the fields of p.Type in the response
func (b *Builder) sparseFieldsParameter(p *PathMetaData) *openapi3.ParameterRef {
	return csvParameter("fields["+p.alias+"]",
		"Selects the set of "+p.alias+" fields that should be returned in the result.",
		b.dictionary.AllFields(p.Type))
}

// includeParameter is nil for types without relationships
func (b *Builder) includeParameter(p *PathMetaData) *openapi3.ParameterRef {
	relationships := b.dictionary.Relationships(p.Type)
	if len(relationships) == 0 {
		return nil
	}
	return csvParameter("include",
		"Selects the set of relationships that should be expanded as a compound document in the result.",
		relationships)
}

// sortParameter lists every sortable attribute in both directions, then id
func (b *Builder) sortParameter(p *PathMetaData) *openapi3.ParameterRef {
	var values []string
	for _, name := range b.filterableAttributes(p.Type) {
		values = append(values, name, "-"+name)
	}
	values = append(values, "id", "-id")
	return csvParameter("sort", "Sorts the collection on the selected attributes.  A prefix of '-' sorts descending", values)
}

// filterableAttributes are attributes with a scalar or string type
func (b *Builder) filterableAttributes(t reflect.Type) []string {
	var names []string
	for _, name := range b.dictionary.Attributes(t) {
		if isScalar(b.dictionary.Type(t, name)) {
			names = append(names, name)
		}
	}
	return names
}

func isScalar(t reflect.Type) bool {
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func (b *Builder) filterParameters(p *PathMetaData) []*openapi3.ParameterRef {
	var params []*openapi3.ParameterRef

	if b.config.RSQLFilterDialect {
		params = append(params, queryParameter("filter["+p.alias+"]",
			"Filters the collection of "+p.alias+" using a 'disjoint' RSQL expression",
			openapi3.NewStringSchema()))
		if p.IsRoot() {
			params = append(params, queryParameter("filter",
				"Filters the collection of "+p.alias+" using a 'joined' RSQL expression",
				openapi3.NewStringSchema()))
		}
	}

	if b.config.LegacyFilterDialect {
		attributes := b.filterableAttributes(p.Type)
		for _, op := range b.config.FilterOperators {
			for _, name := range attributes {
				params = append(params, queryParameter("filter["+p.alias+"."+name+"]["+op+"]",
					"Filters the collection of "+p.alias+" by the attribute "+name+" using the operator "+op,
					openapi3.NewStringSchema()))
			}
		}
	}
	return params
}

// pageParameters follow the pagination modes declared on the type
func (b *Builder) pageParameters(p *PathMetaData) []*openapi3.ParameterRef {
	pagination := b.dictionary.Paginate(p.Type)
	var params []*openapi3.ParameterRef

	if pagination.Supports(dictionary.PaginationOffset) {
		params = append(params,
			queryParameter("page[number]", "Number of pages to return.  Can be used with page[size]", openapi3.NewIntegerSchema()),
			queryParameter("page[size]", "Number of elements per page.  Can be used with page[number]", openapi3.NewIntegerSchema()),
			queryParameter("page[offset]", "Offset from 0 to start paginating.  Can be used with page[limit]", openapi3.NewIntegerSchema()),
			queryParameter("page[limit]", "Maximum number of items to return.  Can be used with page[offset]", openapi3.NewIntegerSchema()),
		)
	}
	if pagination.Supports(dictionary.PaginationCursor) {
		if !pagination.Supports(dictionary.PaginationOffset) {
			params = append(params,
				queryParameter("page[size]", "Number of elements per page.", openapi3.NewIntegerSchema()))
		}
		params = append(params,
			queryParameter("page[first]", "Number of items to return from the start of the collection.", openapi3.NewIntegerSchema()),
			queryParameter("page[last]", "Number of items to return from the end of the collection.", openapi3.NewIntegerSchema()),
			queryParameter("page[after]", "Cursor after which items are returned.", openapi3.NewStringSchema()),
			queryParameter("page[before]", "Cursor before which items are returned.", openapi3.NewStringSchema()),
		)
	}
	if pagination.CountAllowed {
		params = append(params, queryParameter("page[totals]",
			"For requesting total pages/records be included in the response page meta data",
			openapi3.NewStringSchema()))
	}
	return params
}
