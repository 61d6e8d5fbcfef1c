package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "book", 4},
		{"book", "book", 0},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"café", "cafe", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Distance(tt.a, tt.b), "%q -> %q", tt.a, tt.b)
		assert.Equal(t, tt.want, Distance(tt.b, tt.a), "%q -> %q", tt.b, tt.a)
	}
}

func TestSimilar(t *testing.T) {
	known := []string{"author", "book", "library", "loan", "member", "publisher"}

	assert.Equal(t, []string{"book", "loan"}, Similar("bok", known, 3))
	assert.Equal(t, []string{"loan", "book"}, Similar("LOAN", known, 2), "case is ignored")
	assert.Empty(t, Similar("dragonfly", known, 3))
	assert.Len(t, Similar("o", known, 1), 1)
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("entity", "bok", []string{"library", "book"})
	assert.Equal(t, `entity "bok" not found; did you mean: book?`, err.Error())

	err = NewNotFoundError("entity", "dragon", []string{"book"})
	assert.Equal(t, `entity "dragon" not found`, err.Error())
}

func TestSuccess(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "Wrote %s", "openapi.json")
	assert.Contains(t, buf.String(), "Wrote openapi.json\n")
}
