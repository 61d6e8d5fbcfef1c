package dictionary

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Value reads a field of target through its bound member. Computed methods
// that accept a context receive ctx.
func (d *Dictionary) Value(ctx context.Context, target any, field string) (any, error) {
	t := TypeOf(target)
	b := d.binding(t)
	member := b.AccessibleObject(field)
	if member == nil {
		return nil, &InvalidAttributeError{Field: field, Type: d.JSONAliasFor(t)}
	}

	value, err := member.Get(ctx, boundValue(target, b.EntityClass))
	if err != nil {
		return nil, d.handleMemberError(err, field, t)
	}
	return value, nil
}

// SetValue writes a field of target, which must be a pointer. A Set<Name>
// method taking the field type is preferred over a direct field write. The
// value is coerced to the field type first.
func (d *Dictionary) SetValue(target any, field string, value any) error {
	t := TypeOf(target)
	targetType := d.JSONAliasFor(t)

	alias := field
	if real := d.NameFromAlias(target, field); real != "" {
		alias = real
	}

	b := d.binding(t)
	member := b.AccessibleObject(alias)
	if member == nil {
		return &InvalidAttributeError{Field: alias, Type: targetType}
	}
	fieldType := b.FieldType(alias)
	target = boundValue(target, b.EntityClass)

	if setter, ok := setterFor(target, member, fieldType); ok {
		coerced, err := d.Coerce(target, value, alias, fieldType)
		if err != nil {
			return err
		}
		if err := callSetter(setter, member.GoName, coerced, fieldType); err != nil {
			return d.handleMemberError(err, alias, t)
		}
		return nil
	}

	if !member.CanSet() {
		return &InvalidAttributeError{Field: alias, Type: targetType}
	}
	coerced, err := d.Coerce(target, value, alias, member.Type)
	if err != nil {
		return err
	}
	if err := member.Set(target, reflect.ValueOf(coerced)); err != nil {
		return &InvalidAttributeError{Field: alias, Type: targetType, Err: err}
	}
	return nil
}

// boundValue returns the embedded bound model of a proxy, or target itself
func boundValue(target any, bound reflect.Type) any {
	v := reflect.ValueOf(target)
	if !v.IsValid() || bound == nil || indirect(v.Type()) == bound {
		return target
	}
	s := reflect.Indirect(v)
	if s.Kind() != reflect.Struct {
		return target
	}
	f := s.FieldByName(bound.Name())
	if !f.IsValid() || f.Type() != bound {
		return target
	}
	if f.CanAddr() {
		return f.Addr().Interface()
	}
	return f.Interface()
}

// setterFor finds a Set<Name> method on target whose single parameter is
// the field type
func setterFor(target any, member *AccessibleObject, fieldType reflect.Type) (reflect.Value, bool) {
	base := member.GoName
	if member.Kind == MethodMember {
		base = strings.TrimPrefix(strings.TrimPrefix(base, "Get"), "Is")
	}
	m := reflect.ValueOf(target).MethodByName("Set" + capitalize(base))
	if !m.IsValid() {
		return reflect.Value{}, false
	}
	mt := m.Type()
	if mt.NumIn() != 1 || mt.In(0) != fieldType {
		return reflect.Value{}, false
	}
	return m, true
}

func callSetter(setter reflect.Value, name string, value any, fieldType reflect.Type) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InvocationError{Method: "Set" + name, Cause: r}
		}
	}()

	arg := reflect.ValueOf(value)
	if !arg.IsValid() {
		arg = reflect.Zero(fieldType)
	}
	for _, out := range setter.Call([]reflect.Value{arg}) {
		if out.Type() == errorType && !out.IsNil() {
			return &InvocationError{Method: "Set" + name, Cause: out.Interface()}
		}
	}
	return nil
}

// handleMemberError maps a failure raised while accessing a member. Errors
// raised by the member itself pass through when they carry an HTTP status,
// anything else becomes an InternalServerError. Reflection failures become
// InvalidAttributeErrors.
func (d *Dictionary) handleMemberError(err error, field string, t reflect.Type) error {
	var invocation *InvocationError
	if !errors.As(err, &invocation) {
		return &InvalidAttributeError{Field: field, Type: d.JSONAliasFor(t), Err: err}
	}

	if cause, ok := invocation.Cause.(error); ok {
		var status HTTPStatusError
		if errors.As(cause, &status) {
			return cause
		}
	}

	d.logger.Error("Caught an unexpected exception (rethrowing as internal server error)",
		zap.String("method", invocation.Method),
		zap.Stringer("model", t),
		zap.Error(invocation))
	return &InternalServerError{Message: "Unexpected exception caught", Err: invocation}
}

// ID returns the id of an entity as a string, or "" if it has none
func (d *Dictionary) ID(target any) (string, error) {
	t := TypeOf(target)
	name := d.IDFieldName(t)
	if name == "" {
		return "", nil
	}
	value, err := d.Value(context.Background(), target, name)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	if s, ok := value.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return cast.ToStringE(value)
}

// SetID sets the id of an entity from its string form
func (d *Dictionary) SetID(target any, id string) error {
	t := d.LookupBoundClass(TypeOf(target))
	if t == nil {
		return fmt.Errorf("%w %v", ErrUnboundEntity, TypeOf(target))
	}
	return d.SetValue(target, d.IDFieldName(t), id)
}

// Coerce converts value to fieldType. Collections and maps are converted
// element by element unless they already have the field's type.
func (d *Dictionary) Coerce(target any, value any, field string, fieldType reflect.Type) (any, error) {
	if fieldType == nil || value == nil {
		return d.coercer.Coerce(value, fieldType)
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(fieldType) {
		return value, nil
	}

	switch {
	case isSet(fieldType) && isCollection(v):
		return d.coerceSet(v, fieldType)
	case (fieldType.Kind() == reflect.Slice || fieldType.Kind() == reflect.Array) && isCollection(v):
		return d.coerceCollection(v, fieldType)
	case fieldType.Kind() == reflect.Map && v.Kind() == reflect.Map:
		return d.coerceMap(v, fieldType)
	}
	return d.coercer.Coerce(value, fieldType)
}

func (d *Dictionary) coerceCollection(values reflect.Value, fieldType reflect.Type) (any, error) {
	elemType := fieldType.Elem()
	n := collectionLen(values)

	var out reflect.Value
	if fieldType.Kind() == reflect.Array {
		if n > fieldType.Len() {
			return nil, &InvalidValueError{Value: values.Interface(), Target: fieldType.String()}
		}
		out = reflect.New(fieldType).Elem()
	} else {
		out = reflect.MakeSlice(fieldType, n, n)
	}

	for i, member := range collectionElements(values) {
		coerced, err := d.coerceElement(member, elemType)
		if err != nil {
			return nil, err
		}
		out.Index(i).Set(coerced)
	}
	return out.Interface(), nil
}

func (d *Dictionary) coerceSet(values reflect.Value, fieldType reflect.Type) (any, error) {
	out := reflect.MakeMapWithSize(fieldType, collectionLen(values))
	for _, member := range collectionElements(values) {
		key, err := d.coerceElement(member, fieldType.Key())
		if err != nil {
			return nil, err
		}
		out.SetMapIndex(key, reflect.Zero(fieldType.Elem()))
	}
	return out.Interface(), nil
}

func (d *Dictionary) coerceMap(values reflect.Value, fieldType reflect.Type) (any, error) {
	out := reflect.MakeMapWithSize(fieldType, values.Len())
	iter := values.MapRange()
	for iter.Next() {
		key, err := d.coerceElement(iter.Key(), fieldType.Key())
		if err != nil {
			return nil, err
		}
		value, err := d.coerceElement(iter.Value(), fieldType.Elem())
		if err != nil {
			return nil, err
		}
		out.SetMapIndex(key, value)
	}
	return out.Interface(), nil
}

func (d *Dictionary) coerceElement(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	var raw any
	if v.IsValid() && !(v.Kind() == reflect.Interface && v.IsNil()) {
		raw = v.Interface()
	}
	coerced, err := d.coercer.Coerce(raw, target)
	if err != nil {
		return reflect.Value{}, err
	}
	if coerced == nil {
		return reflect.Zero(target), nil
	}
	return reflect.ValueOf(coerced), nil
}

// isSet reports whether t is a map used as a set: map[K]struct{}
func isSet(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem().Kind() == reflect.Struct && t.Elem().NumField() == 0
}

func isCollection(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return true
	case reflect.Map:
		return isSet(v.Type())
	}
	return false
}

func collectionLen(v reflect.Value) int {
	return v.Len()
}

// collectionElements returns the members of a slice, array or set
func collectionElements(v reflect.Value) []reflect.Value {
	if v.Kind() == reflect.Map {
		return v.MapKeys()
	}
	out := make([]reflect.Value, v.Len())
	for i := range out {
		out[i] = v.Index(i)
	}
	return out
}
