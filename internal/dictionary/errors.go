package dictionary

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnboundEntity is returned when a type is neither bound nor marked as an entity
	ErrUnboundEntity = errors.New("unbound entity")
	// ErrUnknownCheck is returned when a check identifier cannot be resolved
	ErrUnknownCheck = errors.New("unknown check")
	// ErrPoorlyConfiguredPermission is returned for a permission with no checks
	ErrPoorlyConfiguredPermission = errors.New("poorly configured permission")
	// ErrInvalidExpression is returned when a permission expression cannot be parsed
	ErrInvalidExpression = errors.New("invalid permission expression")
	// ErrUnknownHook is returned when a hook name has not been registered
	ErrUnknownHook = errors.New("unknown lifecycle hook")
	// ErrIllegalArgument is returned for malformed tag options
	ErrIllegalArgument = errors.New("illegal argument")
)

// HTTPStatusError is an error that maps to an HTTP response code. Errors of
// this kind raised by model methods propagate unchanged.
type HTTPStatusError interface {
	error
	StatusCode() int
}

// DuplicateMappingError is returned when a model declares more than one id member
type DuplicateMappingError struct {
	Type  string
	Model string
	Field string
}

func (e *DuplicateMappingError) Error() string {
	return fmt.Sprintf("duplicate id mapping: %s %s:%s", e.Type, e.Model, e.Field)
}

// InvalidAttributeError is returned when a field cannot be read or written
type InvalidAttributeError struct {
	Field string
	Type  string
	Err   error
}

func (e *InvalidAttributeError) Error() string {
	msg := fmt.Sprintf("unknown attribute '%s' in '%s'", e.Field, e.Type)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidAttributeError) Unwrap() error { return e.Err }

// StatusCode implements HTTPStatusError
func (e *InvalidAttributeError) StatusCode() int { return http.StatusBadRequest }

// InternalServerError wraps an unexpected failure raised by a model method
type InternalServerError struct {
	Message string
	Err     error
}

func (e *InternalServerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *InternalServerError) Unwrap() error { return e.Err }

// StatusCode implements HTTPStatusError
func (e *InternalServerError) StatusCode() int { return http.StatusInternalServerError }

// InvalidValueError is returned when a value cannot be coerced to a field type
type InvalidValueError struct {
	Value  any
	Target string
	Err    error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value: %v cannot be converted to %s", e.Value, e.Target)
}

func (e *InvalidValueError) Unwrap() error { return e.Err }

// StatusCode implements HTTPStatusError
func (e *InvalidValueError) StatusCode() int { return http.StatusBadRequest }
