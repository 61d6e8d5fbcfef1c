package dictionary

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MemberKind distinguishes struct fields from accessor methods
type MemberKind int

const (
	FieldMember MemberKind = iota
	MethodMember
)

// String returns the string representation of the member kind
func (k MemberKind) String() string {
	if k == MethodMember {
		return "method"
	}
	return "field"
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// AccessibleObject is a model member that can be read, possibly written and
// inspected for tags, whether it is a struct field or an accessor method.
type AccessibleObject struct {
	Kind   MemberKind
	GoName string
	Type   reflect.Type
	Tags   Tags

	json          string
	index         []int
	requestScoped bool
	returnsError  bool
}

// newFieldMember wraps a struct field reached through index
func newFieldMember(f reflect.StructField, index []int) *AccessibleObject {
	return &AccessibleObject{
		Kind:   FieldMember,
		GoName: f.Name,
		Type:   f.Type,
		Tags:   ParseTags(f.Tag.Get(TagName)),
		json:   jsonTagName(f.Tag.Get("json")),
		index:  index,
	}
}

func jsonTagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

// newMethodMember wraps a method of the pointer type. It returns nil if the
// method does not look like an accessor: one result (or a result and an
// error) and either no arguments or a single context.Context.
func newMethodMember(m reflect.Method, tags Tags) *AccessibleObject {
	mt := m.Type
	if mt.NumOut() == 0 || mt.NumOut() > 2 {
		return nil
	}
	if mt.NumOut() == 2 && mt.Out(1) != errorType {
		return nil
	}

	member := &AccessibleObject{
		Kind:         MethodMember,
		GoName:       m.Name,
		Type:         mt.Out(0),
		Tags:         tags,
		returnsError: mt.NumOut() == 2,
	}

	// In(0) is the receiver
	switch mt.NumIn() {
	case 1:
	case 2:
		if mt.In(1) != contextType {
			return nil
		}
		member.requestScoped = true
	default:
		return nil
	}
	return member
}

// IsAnnotationPresent reports whether the member carries the tag option
func (a *AccessibleObject) IsAnnotationPresent(option string) bool {
	return a.Tags.Has(option)
}

// Tag returns the first value of a tag option
func (a *AccessibleObject) Tag(option string) (string, bool) {
	return a.Tags.Get(option)
}

// IsRequestScoped reports whether a method accessor takes a context
func (a *AccessibleObject) IsRequestScoped() bool {
	return a.requestScoped
}

// IsComputed reports whether the member is tagged computed
func (a *AccessibleObject) IsComputed() bool {
	return a.Tags.Has(optComputed)
}

// CanSet reports whether Set can write the member directly
func (a *AccessibleObject) CanSet() bool {
	return a.Kind == FieldMember
}

// Name returns the logical field name of the member, or "" for methods that
// are not accessors
func (a *AccessibleObject) Name() string {
	if name, ok := a.Tags.Get(optName); ok && name != "" {
		return name
	}
	if a.Kind == FieldMember {
		return a.jsonName()
	}

	switch {
	case strings.HasPrefix(a.GoName, "Get") && len(a.GoName) > len("Get"):
		return uncapitalize(a.GoName[len("Get"):])
	case strings.HasPrefix(a.GoName, "Is") && len(a.GoName) > len("Is"):
		return uncapitalize(a.GoName[len("Is"):])
	}
	return ""
}

// jsonName returns the json tag name of a field, else the uncapitalised Go name
func (a *AccessibleObject) jsonName() string {
	if a.json != "" {
		return a.json
	}
	return uncapitalize(a.GoName)
}

// Get reads the member from target, which must be a struct or a pointer to one
func (a *AccessibleObject) Get(ctx context.Context, target any) (value any, err error) {
	v := reflect.ValueOf(target)
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return nil, fmt.Errorf("%s: nil target", a.GoName)
	}

	if a.Kind == FieldMember {
		iv := reflect.Indirect(v)
		if iv.Kind() != reflect.Struct {
			return nil, fmt.Errorf("%s: target %s is not a struct", a.GoName, v.Type())
		}
		fv, err := iv.FieldByIndexErr(a.index)
		if err != nil {
			return nil, err
		}
		return fv.Interface(), nil
	}

	return a.invoke(ctx, v)
}

// invoke calls a method accessor; panics raised by the method are returned
// as an *InvocationError
func (a *AccessibleObject) invoke(ctx context.Context, v reflect.Value) (value any, err error) {
	m := v.MethodByName(a.GoName)
	if !m.IsValid() && v.Kind() != reflect.Pointer {
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		m = ptr.MethodByName(a.GoName)
	}
	if !m.IsValid() {
		return nil, fmt.Errorf("%s: no such method on %s", a.GoName, v.Type())
	}

	defer func() {
		if r := recover(); r != nil {
			err = &InvocationError{Method: a.GoName, Cause: r}
		}
	}()

	var in []reflect.Value
	if a.requestScoped {
		if ctx == nil {
			ctx = context.Background()
		}
		in = []reflect.Value{reflect.ValueOf(ctx)}
	}

	out := m.Call(in)
	if a.returnsError && !out[1].IsNil() {
		return nil, &InvocationError{Method: a.GoName, Cause: out[1].Interface()}
	}
	return out[0].Interface(), nil
}

// Set writes value into the field of target, which must be a non-nil pointer
func (a *AccessibleObject) Set(target any, value reflect.Value) error {
	if a.Kind != FieldMember {
		return fmt.Errorf("%s: method members are read-only", a.GoName)
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("%s: target must be a non-nil pointer", a.GoName)
	}
	fv, err := v.Elem().FieldByIndexErr(a.index)
	if err != nil {
		return err
	}
	if !fv.CanSet() {
		return fmt.Errorf("%s: field cannot be set", a.GoName)
	}
	if !value.IsValid() {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	if !value.Type().AssignableTo(fv.Type()) {
		return fmt.Errorf("%s: cannot assign %s to %s", a.GoName, value.Type(), fv.Type())
	}
	fv.Set(value)
	return nil
}

// InvocationError is raised when a model method fails or panics
type InvocationError struct {
	Method string
	Cause  any
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Method, e.Cause)
}

// Unwrap returns the cause when it is an error
func (e *InvocationError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// uncapitalize lower-cases a leading initialism as a unit: "ID" becomes
// "id" and "URLPath" becomes "urlPath"
func uncapitalize(s string) string {
	runes := []rune(s)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n > 1 && n < len(runes) {
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// collectFields returns the exported fields of t, descending into embedded
// structs. Fields declared on an outer struct shadow promoted ones.
func collectFields(t reflect.Type) []*AccessibleObject {
	var members []*AccessibleObject
	seen := make(map[string]bool)

	type level struct {
		t     reflect.Type
		index []int
	}
	queue := []level{{t: indirect(t)}}
	visited := map[reflect.Type]bool{}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.t] {
			continue
		}
		visited[cur.t] = true

		var embedded []level
		for i := 0; i < cur.t.NumField(); i++ {
			f := cur.t.Field(i)
			index := append(append([]int(nil), cur.index...), i)

			if f.Anonymous {
				if f.Type == modelType {
					continue
				}
				// Embedded pointers are skipped: a nil embed would make every
				// promoted field unreadable.
				if f.Type.Kind() == reflect.Struct {
					embedded = append(embedded, level{t: f.Type, index: index})
					continue
				}
			}
			if !f.IsExported() || seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			members = append(members, newFieldMember(f, index))
		}
		queue = append(queue, embedded...)
	}
	return members
}

// collectMethods returns accessor-shaped methods of *t accepted by filter
func collectMethods(t reflect.Type, filter func(*AccessibleObject) bool) []*AccessibleObject {
	t = indirect(t)
	ptr := reflect.PointerTo(t)

	var methodTags map[string]string
	if tagger, ok := reflect.New(t).Interface().(MethodTagger); ok {
		methodTags = tagger.MethodTags()
	}

	var members []*AccessibleObject
	for i := 0; i < ptr.NumMethod(); i++ {
		m := ptr.Method(i)
		if m.Name == "MethodTags" {
			continue
		}
		member := newMethodMember(m, ParseTags(methodTags[m.Name]))
		if member == nil {
			// Lifecycle methods like OnCreate(ctx) return nothing but are
			// still members when tagged.
			if tags, ok := methodTags[m.Name]; ok {
				member = &AccessibleObject{Kind: MethodMember, GoName: m.Name, Tags: ParseTags(tags)}
			} else {
				continue
			}
		}
		if filter == nil || filter(member) {
			members = append(members, member)
		}
	}
	return members
}
