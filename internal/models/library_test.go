package models

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yahoo/elide-sub004/internal/dictionary"
	"github.com/yahoo/elide-sub004/internal/docs"
)

func TestNewDictionary(t *testing.T) {
	d, err := NewDictionary(zap.NewNop())
	require.NoError(t, err)

	assert.Len(t, d.BoundClasses(), len(Types()))
	assert.True(t, d.IsRoot(reflect.TypeOf(Book{})))
	assert.False(t, d.IsRoot(reflect.TypeOf(Loan{})))
	assert.Equal(t, "book", d.JSONAliasFor(reflect.TypeOf(Book{})))
	assert.Contains(t, d.Attributes(reflect.TypeOf(Book{})), "displayTitle")
	assert.NotContains(t, d.Attributes(reflect.TypeOf(Member{})), "passwordHash")
	assert.Equal(t, "library", d.RelationInverse(reflect.TypeOf(Library{}), "members"))
}

func TestLibraryDocument(t *testing.T) {
	d, err := NewDictionary(zap.NewNop())
	require.NoError(t, err)

	doc, err := docs.NewBuilder(d).Build()
	require.NoError(t, err)
	require.NoError(t, docs.Validate(context.Background(), doc))

	assert.Contains(t, doc.Paths, "/book/{bookId}/loans/{loanId}")
	assert.Contains(t, doc.Paths, "/library/{libraryId}/members/{memberId}")
	assert.NotContains(t, doc.Paths, "/library/{libraryId}/books/{bookId}/authors")

	loan := doc.Paths["/book/{bookId}/loans/{loanId}"]
	assert.Nil(t, loan.Delete)
	assert.NotNil(t, loan.Get)
}

func TestAdminRole(t *testing.T) {
	d, err := NewDictionary(zap.NewNop())
	require.NoError(t, err)

	check, err := d.CheckInstance(AdminRole)
	require.NoError(t, err)
	userCheck, ok := check.(dictionary.UserCheck)
	require.True(t, ok)

	assert.True(t, userCheck.OK(&dictionary.User{Name: "ada", Roles: []string{"admin"}}))
	assert.False(t, userCheck.OK(&dictionary.User{Name: "bob"}))
}
