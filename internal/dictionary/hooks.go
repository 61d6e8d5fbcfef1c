package dictionary

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ClassNoField is the field name under which once-per-request class hooks are
// registered as field triggers
const ClassNoField = ""

// AllFields is the legacy hook field selector meaning "every field"
const AllFields = "*"

// ChangeSpec describes a field modification passed to hooks and checks
type ChangeSpec struct {
	Model     any
	FieldName string
	Original  any
	Modified  any
}

// LifeCycleHook is invoked at a point of a request's lifecycle
type LifeCycleHook interface {
	Execute(ctx context.Context, op Operation, phase TransactionPhase, model any, changes *ChangeSpec) error
}

// HookFunc adapts a function to LifeCycleHook
type HookFunc func(ctx context.Context, op Operation, phase TransactionPhase, model any, changes *ChangeSpec) error

// Execute implements LifeCycleHook
func (f HookFunc) Execute(ctx context.Context, op Operation, phase TransactionPhase, model any, changes *ChangeSpec) error {
	return f(ctx, op, phase, model, changes)
}

var changeSpecType = reflect.TypeOf((*ChangeSpec)(nil))

type fieldTriggerKey struct {
	field string
	op    Operation
	phase TransactionPhase
}

type classTriggerKey struct {
	op    Operation
	phase TransactionPhase
}

// triggers holds the hooks bound to one entity. Hooks are kept in insertion
// order; binding the same hook twice under one key is a no-op.
type triggers struct {
	mu    sync.RWMutex
	field map[fieldTriggerKey][]LifeCycleHook
	class map[classTriggerKey][]LifeCycleHook
}

func newTriggers() *triggers {
	return &triggers{
		field: make(map[fieldTriggerKey][]LifeCycleHook),
		class: make(map[classTriggerKey][]LifeCycleHook),
	}
}

func (t *triggers) bindField(field string, op Operation, phase TransactionPhase, hook LifeCycleHook) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := fieldTriggerKey{field: field, op: op, phase: phase}
	t.field[key] = appendHook(t.field[key], hook)
}

func (t *triggers) bindClass(op Operation, phase TransactionPhase, hook LifeCycleHook) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := classTriggerKey{op: op, phase: phase}
	t.class[key] = appendHook(t.class[key], hook)
}

func (t *triggers) fieldHooks(field string, op Operation, phase TransactionPhase) []LifeCycleHook {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append([]LifeCycleHook(nil), t.field[fieldTriggerKey{field: field, op: op, phase: phase}]...)
}

func (t *triggers) classHooks(op Operation, phase TransactionPhase) []LifeCycleHook {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append([]LifeCycleHook(nil), t.class[classTriggerKey{op: op, phase: phase}]...)
}

func appendHook(hooks []LifeCycleHook, hook LifeCycleHook) []LifeCycleHook {
	for _, h := range hooks {
		if sameHook(h, hook) {
			return hooks
		}
	}
	return append(hooks, hook)
}

// sameHook compares hooks by identity; func-backed hooks are never equal
func sameHook(a, b LifeCycleHook) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// hookBinding is a parsed hook tag: "<op>:<phase>:<hookName>[:perField]"
type hookBinding struct {
	op          Operation
	phase       TransactionPhase
	hook        string
	oncePerCall bool
}

func parseHookBinding(value string) (hookBinding, error) {
	parts := strings.Split(value, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return hookBinding{}, fmt.Errorf("%w: hook %q must be op:phase:name[:perField]", ErrIllegalArgument, value)
	}
	op, err := ParseOperation(parts[0])
	if err != nil {
		return hookBinding{}, fmt.Errorf("%w: %v", ErrIllegalArgument, err)
	}
	phase, err := ParseTransactionPhase(parts[1])
	if err != nil {
		return hookBinding{}, fmt.Errorf("%w: %v", ErrIllegalArgument, err)
	}
	b := hookBinding{op: op, phase: phase, hook: parts[2], oncePerCall: true}
	if len(parts) == 4 {
		if !strings.EqualFold(parts[3], "perField") {
			return hookBinding{}, fmt.Errorf("%w: unknown hook flag %q", ErrIllegalArgument, parts[3])
		}
		b.oncePerCall = false
	}
	return b, nil
}

// legacyHook is a parsed method tag: "on:<op>:<phase>[:<field>|*]"
type legacyHook struct {
	op    Operation
	phase TransactionPhase
	field string
}

func parseLegacyHook(value string) (legacyHook, error) {
	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return legacyHook{}, fmt.Errorf("%w: legacy hook %q must be op:phase[:field]", ErrIllegalArgument, value)
	}
	op, err := ParseOperation(parts[0])
	if err != nil {
		return legacyHook{}, fmt.Errorf("%w: %v", ErrIllegalArgument, err)
	}
	phase, err := ParseTransactionPhase(parts[1])
	if err != nil {
		return legacyHook{}, fmt.Errorf("%w: %v", ErrIllegalArgument, err)
	}
	h := legacyHook{op: op, phase: phase}
	if len(parts) == 3 {
		h.field = parts[2]
	}
	return h, nil
}

// methodHook wraps a model method as a lifecycle hook. The method may take
// no arguments, a context, or a context and a *ChangeSpec, and may return an
// error.
func methodHook(goName string) LifeCycleHook {
	return HookFunc(func(ctx context.Context, _ Operation, _ TransactionPhase, model any, changes *ChangeSpec) (err error) {
		if ctx == nil {
			ctx = context.Background()
		}
		m := reflect.ValueOf(model).MethodByName(goName)
		if !m.IsValid() {
			return fmt.Errorf("%w: %s has no method %s", ErrIllegalArgument, reflect.TypeOf(model), goName)
		}

		mt := m.Type()
		var in []reflect.Value
		switch {
		case mt.NumIn() == 0:
		case mt.NumIn() == 1 && mt.In(0) == contextType:
			in = []reflect.Value{reflect.ValueOf(ctx)}
		case mt.NumIn() == 2 && mt.In(0) == contextType && mt.In(1) == changeSpecType:
			if changes == nil {
				in = []reflect.Value{reflect.ValueOf(ctx), reflect.Zero(mt.In(1))}
			} else {
				in = []reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(changes)}
			}
		default:
			return fmt.Errorf("%w: unsupported hook signature %s.%s", ErrIllegalArgument, reflect.TypeOf(model), goName)
		}

		defer func() {
			if r := recover(); r != nil {
				err = &InvocationError{Method: goName, Cause: r}
			}
		}()

		for _, out := range m.Call(in) {
			if out.Type() == errorType && !out.IsNil() {
				return out.Interface().(error)
			}
		}
		return nil
	})
}
