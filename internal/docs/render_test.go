package docs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	d := newLibraryDictionary(t)
	doc := build(t, d, WithManagedClasses(reflect.TypeOf(Book{})))

	t.Run("json", func(t *testing.T) {
		data, err := Render(doc, FormatJSON)
		require.NoError(t, err)

		var parsed map[string]any
		require.NoError(t, json.Unmarshal(data, &parsed))
		assert.Equal(t, "3.0.3", parsed["openapi"])
		assert.Contains(t, parsed["paths"], "/book/{bookId}")
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := Render(doc, FormatYAML)
		require.NoError(t, err)
		assert.Contains(t, string(data), "openapi: 3.0.3")
		assert.Contains(t, string(data), "bookId")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Render(doc, Format("xml"))
		assert.Error(t, err)
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "application/yaml", FormatYAML.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
}

func TestWriteFile(t *testing.T) {
	d := newLibraryDictionary(t)
	doc := build(t, d)

	t.Run("writes into the directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested")
		path, err := WriteFile(doc, FormatYAML, dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "openapi.yaml"), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "components:"))
	})

	t.Run("rejects traversal", func(t *testing.T) {
		_, err := WriteFile(doc, FormatJSON, "../outside")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "path traversal")
	})
}

func TestContainsPathTraversal(t *testing.T) {
	assert.True(t, containsPathTraversal("../docs"))
	assert.True(t, containsPathTraversal(`out\..\docs`))
	assert.False(t, containsPathTraversal("./docs/api"))
	assert.False(t, containsPathTraversal("/tmp/..docs"))
	assert.Equal(t, []string{"a", "b", "c"}, splitPath("/a//b\\c/"))
}

func TestRenderVersion(t *testing.T) {
	d := newLibraryDictionary(t)

	data, err := RenderVersion(d, WithBasePath("/api"))(context.Background(), "", FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"/api/book/{bookId}"`)

	_, err = RenderVersion(d, WithManagedClasses(reflect.TypeOf(NotBound{})))(context.Background(), "", FormatYAML)
	assert.ErrorIs(t, err, ErrNoExportedClasses)
}
