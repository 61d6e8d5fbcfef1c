package docs

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type address struct {
	Street string `json:"street"`
	Zip    int
	Hidden string `json:"-"`
}

type node struct {
	Value    string  `json:"value"`
	Children []*node `json:"children"`
}

func TestExampleGenerator(t *testing.T) {
	g := NewExampleGenerator()

	tests := []struct {
		name string
		typ  reflect.Type
		want any
	}{
		{"string", reflect.TypeOf(""), "example string"},
		{"bool", reflect.TypeOf(true), true},
		{"int", reflect.TypeOf(int64(0)), 42},
		{"float", reflect.TypeOf(0.0), 3.14},
		{"pointer", reflect.TypeOf(new(int)), 42},
		{"time", reflect.TypeOf(time.Time{}), "2024-01-02T15:04:05Z"},
		{"uuid", reflect.TypeOf(uuid.UUID{}), "550e8400-e29b-41d4-a716-446655440000"},
		{"bytes", reflect.TypeOf([]byte{}), "base64encodedcontent=="},
		{"slice", reflect.TypeOf([]string{}), []any{"example string"}},
		{"set", reflect.TypeOf(map[int]struct{}{}), []any{42}},
		{"map", reflect.TypeOf(map[string]bool{}), map[string]any{"example string": true}},
		{"struct", reflect.TypeOf(address{}), map[string]any{"street": "example string", "Zip": 42}},
		{"nil", nil, "example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.GenerateForType(tt.typ))
		})
	}

	t.Run("recursive struct", func(t *testing.T) {
		got := g.GenerateForType(reflect.TypeOf(node{})).(map[string]any)
		children := got["children"].([]any)
		assert.Equal(t, map[string]any{}, children[0])
	})
}

func TestTypeConverter(t *testing.T) {
	c := newTypeConverter()

	assert.Equal(t, "integer", c.schemaFor(reflect.TypeOf(int32(0))).Type)
	assert.Equal(t, "int64", c.schemaFor(reflect.TypeOf(0)).Format)
	assert.Equal(t, "double", c.schemaFor(reflect.TypeOf(0.0)).Format)
	assert.Equal(t, "uuid", c.schemaFor(reflect.TypeOf(uuid.UUID{})).Format)
	assert.True(t, c.schemaFor(reflect.TypeOf(new(string))).Nullable)

	set := c.schemaFor(reflect.TypeOf(map[string]struct{}{}))
	assert.Equal(t, "array", set.Type)
	assert.True(t, set.UniqueItems)

	m := c.schemaFor(reflect.TypeOf(map[string]int{}))
	assert.Equal(t, "object", m.Type)
	assert.Equal(t, "integer", m.AdditionalProperties.Schema.Value.Type)

	addr := c.schemaFor(reflect.TypeOf(address{}))
	assert.Contains(t, addr.Properties, "street")
	assert.Contains(t, addr.Properties, "Zip")
	assert.NotContains(t, addr.Properties, "Hidden")

	tree := c.schemaFor(reflect.TypeOf(node{}))
	assert.Empty(t, tree.Properties["children"].Value.Items.Value.Properties)
}
