package dictionary

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tags := ParseTags("include; Name:book ;hook:create:precommit:audit;hook:update:postcommit:audit;read:")

	assert.True(t, tags.Has("include"))
	assert.True(t, tags.Has("NAME"))
	assert.Equal(t, "book", tags.Value("name"))
	assert.Equal(t, []string{"create:precommit:audit", "update:postcommit:audit"}, tags.All("hook"))

	v, ok := tags.Get("read")
	assert.True(t, ok)
	assert.Empty(t, v)

	_, ok = tags.Get("missing")
	assert.False(t, ok)

	assert.True(t, ParseTags("-").Has(optExclude))
	assert.Empty(t, ParseTags(""))
}

func TestTypeHierarchy(t *testing.T) {
	novel := reflect.TypeOf(Novel{})

	assert.Equal(t, bookType, superclass(novel))
	assert.Nil(t, superclass(bookType))
	assert.Equal(t, []reflect.Type{bookType}, inheritedTypes(reflect.PointerTo(novel)))
	assert.Equal(t, []reflect.Type{novel, bookType}, hierarchy(novel))

	lazy := reflect.TypeOf(LazyNovel{})
	assert.Nil(t, superclass(lazy))
	assert.Empty(t, inheritedTypes(lazy))
	assert.Equal(t, lazy, LookupIncludeClass(lazy))

	v, declared, ok := firstTypeOption(novel, optRead)
	require.True(t, ok)
	assert.Equal(t, PrefabAll, v)
	assert.Equal(t, bookType, declared)

	assert.Equal(t, "2", ModelVersion(reflect.TypeOf(Versioned{})))
	assert.Equal(t, NoVersion, ModelVersion(bookType))
}

func TestMemberNames(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ID", "id"},
		{"Title", "title"},
		{"PageCount", "pageCount"},
		{"URLPath", "urlPath"},
		{"IDType", "idType"},
		{"x", "x"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, uncapitalize(tt.in), tt.in)
	}
}

func TestCollectMembers(t *testing.T) {
	t.Run("fields", func(t *testing.T) {
		members := collectFields(reflect.TypeOf(Novel{}))
		names := make(map[string]bool)
		for _, m := range members {
			names[m.GoName] = true
		}
		assert.True(t, names["Narrator"])
		assert.True(t, names["Title"])
		assert.False(t, names["Model"])
		assert.False(t, names["Book"])
	})

	t.Run("methods", func(t *testing.T) {
		members := collectMethods(reflect.TypeOf(Widget{}), nil)
		byName := make(map[string]*AccessibleObject)
		for _, m := range members {
			byName[m.GoName] = m
		}
		require.Contains(t, byName, "GetSize")
		assert.Equal(t, "size", byName["GetSize"].Name())
		assert.Equal(t, "active", byName["IsActive"].Name())
		assert.True(t, byName["GetScoped"].IsRequestScoped())
		assert.NotContains(t, byName, "Resize")
	})

	t.Run("member get and set", func(t *testing.T) {
		var title *AccessibleObject
		for _, m := range collectFields(bookType) {
			if m.GoName == "Title" {
				title = m
			}
		}
		require.NotNil(t, title)
		assert.True(t, title.CanSet())

		book := &Book{}
		require.NoError(t, title.Set(book, reflect.ValueOf("Dune")))
		v, err := title.Get(context.Background(), book)
		require.NoError(t, err)
		assert.Equal(t, "Dune", v)

		assert.Error(t, title.Set(*book, reflect.ValueOf("x")))
		assert.Error(t, title.Set(book, reflect.ValueOf(1)))
	})
}

func TestCastCoercer(t *testing.T) {
	type Genre string

	c := CastCoercer{}
	id := uuid.New()
	uid := ulid.Make()

	tests := []struct {
		name   string
		value  any
		target reflect.Type
		want   any
	}{
		{"string to int", "42", reflect.TypeOf(0), 42},
		{"float to int64", 3.0, reflect.TypeOf(int64(0)), int64(3)},
		{"int to string", 7, reflect.TypeOf(""), "7"},
		{"string to bool", "true", reflect.TypeOf(false), true},
		{"named string", "drama", reflect.TypeOf(Genre("")), Genre("drama")},
		{"uuid", id.String(), reflect.TypeOf(uuid.UUID{}), id},
		{"ulid", uid.String(), reflect.TypeOf(ulid.ULID{}), uid},
		{"duration", "1m", reflect.TypeOf(time.Duration(0)), time.Minute},
		{"pointer", "5", reflect.TypeOf(new(int)), func() *int { n := 5; return &n }()},
		{"nil", nil, reflect.TypeOf(""), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Coerce(tt.value, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("overflow", func(t *testing.T) {
		_, err := c.Coerce(300, reflect.TypeOf(int8(0)))
		assert.Error(t, err)
	})

	t.Run("unsigned overflow", func(t *testing.T) {
		_, err := c.Coerce(300, reflect.TypeOf(uint8(0)))
		var invalid *InvalidValueError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "uint8", invalid.Target)

		got, err := c.Coerce(255, reflect.TypeOf(uint8(0)))
		require.NoError(t, err)
		assert.Equal(t, uint8(255), got)

		_, err = c.Coerce(uint64(1)<<40, reflect.TypeOf(uint32(0)))
		assert.Error(t, err)
	})

	t.Run("float32 overflow", func(t *testing.T) {
		_, err := c.Coerce(1e40, reflect.TypeOf(float32(0)))
		var invalid *InvalidValueError
		require.ErrorAs(t, err, &invalid)

		got, err := c.Coerce(1.5, reflect.TypeOf(float32(0)))
		require.NoError(t, err)
		assert.Equal(t, float32(1.5), got)
	})

	t.Run("time", func(t *testing.T) {
		got, err := c.Coerce("2024-01-02T03:04:05Z", reflect.TypeOf(time.Time{}))
		require.NoError(t, err)
		assert.Equal(t, 2024, got.(time.Time).Year())
	})
}
