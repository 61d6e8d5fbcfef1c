package docs

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	uuidType     = reflect.TypeOf(uuid.UUID{})
	ulidType     = reflect.TypeOf(ulid.ULID{})
)

// exampleTime keeps generated documents stable across builds
var exampleTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ExampleGenerator generates example values for Go types
type ExampleGenerator struct {
	visiting map[reflect.Type]bool
}

// NewExampleGenerator creates a new example generator
func NewExampleGenerator() *ExampleGenerator {
	return &ExampleGenerator{visiting: make(map[reflect.Type]bool)}
}

// GenerateForType generates an example value for t
func (g *ExampleGenerator) GenerateForType(t reflect.Type) any {
	if t == nil {
		return "example"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t {
	case timeType:
		return exampleTime.Format(time.RFC3339)
	case durationType:
		return int64(time.Minute)
	case uuidType:
		return "550e8400-e29b-41d4-a716-446655440000"
	case ulidType:
		return "01HMA2Y4ZB3E6R8X9T1V5Q7K0N"
	}

	switch t.Kind() {
	case reflect.String:
		return "example string"
	case reflect.Bool:
		return true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return 42
	case reflect.Float32, reflect.Float64:
		return 3.14
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return "base64encodedcontent=="
		}
		return []any{g.GenerateForType(t.Elem())}
	case reflect.Map:
		if isSetType(t) {
			return []any{g.GenerateForType(t.Key())}
		}
		key := g.GenerateForType(t.Key())
		return map[string]any{fmt.Sprintf("%v", key): g.GenerateForType(t.Elem())}
	case reflect.Struct:
		return g.generateStruct(t)
	default:
		return "example"
	}
}

func (g *ExampleGenerator) generateStruct(t reflect.Type) any {
	if g.visiting[t] {
		return map[string]any{}
	}
	g.visiting[t] = true
	defer delete(g.visiting, t)

	out := make(map[string]any)
	for _, f := range structFields(t) {
		out[f.name] = g.GenerateForType(f.typ)
	}
	return out
}

// exampleAttributes generates an attributes object for an entity
func (b *Builder) exampleAttributes(t reflect.Type) map[string]any {
	g := NewExampleGenerator()
	out := make(map[string]any)
	for _, name := range b.dictionary.Attributes(t) {
		out[name] = g.GenerateForType(b.dictionary.Type(t, name))
	}
	return out
}
