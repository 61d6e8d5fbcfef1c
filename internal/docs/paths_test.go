package docs

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathMetaData(t *testing.T) {
	d := newLibraryDictionary(t)
	b := NewBuilder(d)

	library := b.newRootPath(reflect.TypeOf(Library{}))
	books := b.newPath(library.FullLineage(), "books", reflect.TypeOf(Book{}))
	authors := b.newPath(books.FullLineage(), "authors", reflect.TypeOf(Author{}))

	assert.True(t, library.IsRoot())
	assert.Equal(t, "/library", library.CollectionURL())
	assert.Equal(t, "/library/{libraryId}", library.URL())
	assert.Empty(t, library.RelationshipURL())

	assert.False(t, books.IsRoot())
	assert.Equal(t, "/library/{libraryId}/books", books.CollectionURL())
	assert.Equal(t, "/library/{libraryId}/books/{bookId}", books.URL())
	assert.Equal(t, "/library/{libraryId}/relationships/books", books.RelationshipURL())
	assert.Equal(t, "/library/{libraryId}/books/{bookId}/relationships/authors", authors.RelationshipURL())
	assert.Equal(t, books.URL(), books.String())

	assert.Len(t, authors.FullLineage(), 3)
	assert.Same(t, authors, authors.FullLineage()[2])

	assert.True(t, library.ShorterThan(books))
	assert.True(t, books.ShorterThan(authors))
	assert.False(t, authors.ShorterThan(books))

	assert.True(t, authors.lineageContainsType(reflect.TypeOf(Library{})))
	assert.True(t, authors.lineageContainsType(reflect.TypeOf(Author{})))
	assert.False(t, books.lineageContainsType(reflect.TypeOf(Author{})))
}

func TestPrune(t *testing.T) {
	d := newLibraryDictionary(t)
	b := NewBuilder(d)

	book := b.newRootPath(reflect.TypeOf(Book{}))
	library := b.newRootPath(reflect.TypeOf(Library{}))
	nested := b.newPath(library.FullLineage(), "books", reflect.TypeOf(Book{}))

	short := b.newPath(book.FullLineage(), "authors", reflect.TypeOf(Author{}))
	long := b.newPath(nested.FullLineage(), "authors", reflect.TypeOf(Author{}))
	duplicate := b.newPath(book.FullLineage(), "authors", reflect.TypeOf(Author{}))

	kept := b.prune([]*PathMetaData{book, library, nested, short, long, duplicate})
	assert.Equal(t, []*PathMetaData{book, library, nested, short}, kept)
}
