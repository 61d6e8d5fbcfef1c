package dictionary

import (
	"encoding"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cast"
)

// Coercer converts client supplied values to field types
type Coercer interface {
	Coerce(value any, target reflect.Type) (any, error)
}

// CoercerFunc adapts a function to Coercer
type CoercerFunc func(value any, target reflect.Type) (any, error)

// Coerce implements Coercer
func (f CoercerFunc) Coerce(value any, target reflect.Type) (any, error) {
	return f(value, target)
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	uuidType     = reflect.TypeOf(uuid.UUID{})
	ulidType     = reflect.TypeOf(ulid.ULID{})
	unmarshaler  = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// CastCoercer converts scalars with spf13/cast, parses uuid and ulid ids,
// and falls back to encoding.TextUnmarshaler and reflect conversion.
type CastCoercer struct{}

// Coerce implements Coercer
func (c CastCoercer) Coerce(value any, target reflect.Type) (any, error) {
	if target == nil {
		return value, nil
	}
	if value == nil {
		return reflect.Zero(target).Interface(), nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(target) {
		return value, nil
	}

	if target.Kind() == reflect.Pointer {
		elem, err := c.Coerce(value, target.Elem())
		if err != nil {
			return nil, err
		}
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(reflect.ValueOf(elem))
		return ptr.Interface(), nil
	}

	// Dereference pointers to scalars
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Zero(target).Interface(), nil
		}
		return c.Coerce(v.Elem().Interface(), target)
	}

	out, err := c.coerceScalar(value, target)
	if err != nil {
		return nil, &InvalidValueError{Value: value, Target: target.String(), Err: err}
	}
	return out, nil
}

func (c CastCoercer) coerceScalar(value any, target reflect.Type) (any, error) {
	switch target {
	case uuidType:
		return uuid.Parse(cast.ToString(value))
	case ulidType:
		return ulid.Parse(cast.ToString(value))
	case timeType:
		return cast.ToTimeE(value)
	case durationType:
		return cast.ToDurationE(value)
	}

	if s, ok := value.(string); ok && reflect.PointerTo(target).Implements(unmarshaler) {
		ptr := reflect.New(target)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return nil, err
		}
		return ptr.Elem().Interface(), nil
	}

	var converted any
	var err error
	switch target.Kind() {
	case reflect.String:
		converted, err = cast.ToStringE(value)
	case reflect.Bool:
		converted, err = cast.ToBoolE(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		converted, err = cast.ToInt64E(value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		converted, err = cast.ToUint64E(value)
	case reflect.Float32, reflect.Float64:
		converted, err = cast.ToFloat64E(value)
	default:
		v := reflect.ValueOf(value)
		if v.Type().ConvertibleTo(target) {
			return v.Convert(target).Interface(), nil
		}
		return nil, fmt.Errorf("no conversion from %T", value)
	}
	if err != nil {
		return nil, err
	}

	// Named scalar types such as "type Genre string"
	out := reflect.ValueOf(converted).Convert(target)
	switch {
	case out.CanInt() && out.OverflowInt(converted.(int64)):
		return nil, fmt.Errorf("%v overflows %s", value, target)
	case out.CanUint() && out.OverflowUint(converted.(uint64)):
		return nil, fmt.Errorf("%v overflows %s", value, target)
	case out.CanFloat() && out.OverflowFloat(converted.(float64)):
		return nil, fmt.Errorf("%v overflows %s", value, target)
	}
	return out.Interface(), nil
}
