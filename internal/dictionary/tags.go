package dictionary

import (
	"reflect"
	"strings"
)

// TagName is the struct tag key read by the dictionary
const TagName = "elide"

// Tag options understood on model members and on the embedded Model marker
const (
	optInclude         = "include"
	optExclude         = "exclude"
	optName            = "name"
	optRoot            = "root"
	optVersion         = "version"
	optDescription     = "description"
	optID              = "id"
	optGenerated       = "generated"
	optMapsID          = "mapsid"
	optTransient       = "transient"
	optComputed        = "computed"
	optColumn          = "column"
	optOneToOne        = "onetoone"
	optOneToMany       = "onetomany"
	optManyToOne       = "manytoone"
	optManyToMany      = "manytomany"
	optToOne           = "toone"
	optToMany          = "tomany"
	optMappedBy        = "mappedby"
	optCascade         = "cascade"
	optRead            = "read"
	optCreate          = "create"
	optUpdate          = "update"
	optDelete          = "delete"
	optNonTransferable = "nontransferable"
	optStrict          = "strict"
	optInject          = "inject"
	optHook            = "hook"
	optOn              = "on"
	optPaginate        = "paginate"
)

var relationshipOptions = []string{
	optOneToOne, optOneToMany, optManyToOne, optManyToMany, optToOne, optToMany,
}

// Model is embedded in a struct to mark it as an entity. The tag on the
// embedded field carries the type-level options:
//
//	type Book struct {
//		dictionary.Model `elide:"include;root;name:book;read:Prefab.Role.All"`
//		ID    string `elide:"id;generated"`
//		Title string `json:"title"`
//	}
type Model struct{}

var modelType = reflect.TypeOf(Model{})

// Tags is a parsed elide struct tag. Keys are lower-cased; an option may
// repeat, in which case all values are kept in order.
type Tags map[string][]string

// ParseTags parses a tag value of ';'-separated "key" or "key:value" items
func ParseTags(tag string) Tags {
	tags := make(Tags)
	for _, item := range strings.Split(tag, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if item == "-" {
			tags[optExclude] = append(tags[optExclude], "")
			continue
		}
		key, value, _ := strings.Cut(item, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		tags[key] = append(tags[key], strings.TrimSpace(value))
	}
	return tags
}

// Has reports whether the option is present
func (t Tags) Has(key string) bool {
	_, ok := t[strings.ToLower(key)]
	return ok
}

// Get returns the first value of the option
func (t Tags) Get(key string) (string, bool) {
	values, ok := t[strings.ToLower(key)]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Value returns the first value of the option or ""
func (t Tags) Value(key string) string {
	v, _ := t.Get(key)
	return v
}

// All returns every value of a repeated option
func (t Tags) All(key string) []string {
	return t[strings.ToLower(key)]
}

// merge returns a copy of t with the options of other appended
func (t Tags) merge(other Tags) Tags {
	out := make(Tags, len(t)+len(other))
	for k, v := range t {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range other {
		out[k] = append(out[k], v...)
	}
	return out
}

// MethodTagger lets a model attach tags to its methods, which cannot carry
// struct tags. Keys are Go method names.
type MethodTagger interface {
	MethodTags() map[string]string
}

// modelTags returns the tags declared on the Model marker embedded directly in t
func modelTags(t reflect.Type) (Tags, bool) {
	t = indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == modelType {
			return ParseTags(f.Tag.Get(TagName)), true
		}
	}
	return nil, false
}

// superclass returns the first embedded struct of t other than the Model
// marker. Embedded pointers are not inherited from, matching field collection.
func superclass(t reflect.Type) reflect.Type {
	t = indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous || f.Type == modelType {
			continue
		}
		if f.Type.Kind() == reflect.Struct {
			return f.Type
		}
	}
	return nil
}

// inheritedTypes returns the superclass chain of t, nearest first
func inheritedTypes(t reflect.Type) []reflect.Type {
	var types []reflect.Type
	seen := map[reflect.Type]bool{indirect(t): true}
	for s := superclass(t); s != nil && !seen[s]; s = superclass(s) {
		seen[s] = true
		types = append(types, s)
	}
	return types
}

// hierarchy returns t followed by its superclass chain
func hierarchy(t reflect.Type) []reflect.Type {
	return append([]reflect.Type{indirect(t)}, inheritedTypes(t)...)
}

// firstTypeOption returns the value of the first Model option named key found
// on t or its ancestors
func firstTypeOption(t reflect.Type, key string) (string, reflect.Type, bool) {
	for _, c := range hierarchy(t) {
		tags, ok := modelTags(c)
		if !ok {
			continue
		}
		if v, ok := tags.Get(key); ok {
			return v, c, true
		}
	}
	return "", nil, false
}

// indirect strips pointer indirections
func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
