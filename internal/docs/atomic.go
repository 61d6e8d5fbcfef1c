package docs

import (
	"reflect"

	"github.com/getkin/kin-openapi/openapi3"
)

// atomicPath documents the JSON:API atomic operations extension. The example
// request creates one instance of the first creatable root type.
func (b *Builder) atomicPath(managed []reflect.Type) *openapi3.PathItem {
	ref := openapi3.NewObjectSchema().
		WithProperty("type", openapi3.NewStringSchema()).
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("lid", openapi3.NewStringSchema()).
		WithProperty("relationship", openapi3.NewStringSchema())

	operation := openapi3.NewObjectSchema().
		WithProperty("op", openapi3.NewStringSchema().WithEnum("add", "update", "remove")).
		WithProperty("href", openapi3.NewStringSchema()).
		WithProperty("ref", ref).
		WithProperty("data", openapi3.NewObjectSchema())
	operation.Required = []string{"op"}

	request := openapi3.NewObjectSchema().
		WithProperty("atomic:operations", openapi3.NewArraySchema().WithItems(operation))
	result := openapi3.NewObjectSchema().
		WithProperty("atomic:results", openapi3.NewArraySchema().WithItems(
			openapi3.NewObjectSchema().WithProperty("data", openapi3.NewObjectSchema())))

	body := openapi3.NewContentWithSchema(request, []string{AtomicMediaType})
	if example := b.atomicExample(managed); example != nil {
		body[AtomicMediaType].Example = example
	}

	op := openapi3.NewOperation()
	op.Tags = []string{"atomic"}
	op.Description = "Applies a list of operations in a single transaction"
	op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithContent(body)}
	op.Responses = openapi3.Responses{
		"200": &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Successful response").
			WithContent(openapi3.NewContentWithSchema(result, []string{AtomicMediaType}))},
	}

	return b.decorate(&openapi3.PathItem{Post: op})
}

func (b *Builder) atomicExample(managed []reflect.Type) map[string]any {
	for _, t := range managed {
		if !b.dictionary.IsRoot(t) || !b.canCreate(t) {
			continue
		}
		alias := b.dictionary.JSONAliasFor(t)
		return map[string]any{
			"atomic:operations": []any{
				map[string]any{
					"op":   "add",
					"href": b.pathOf("/" + alias),
					"data": map[string]any{
						"type":       alias,
						"attributes": b.exampleAttributes(t),
					},
				},
			},
		}
	}
	return nil
}
