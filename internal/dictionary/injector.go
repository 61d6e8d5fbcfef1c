package dictionary

import (
	"fmt"
	"reflect"
	"sync"
)

// Injector constructs hooks and checks and injects dependencies into them
// and into models tagged inject.
type Injector interface {
	// Instantiate returns a new pointer to a zero value of t
	Instantiate(t reflect.Type) (any, error)
	// Inject populates the dependencies of target
	Inject(target any) error
}

// ServiceInjector resolves dependencies from a set of provided services.
// Exported struct fields tagged `inject:""` are assigned the first provided
// service assignable to the field type.
type ServiceInjector struct {
	mu       sync.RWMutex
	services []reflect.Value
}

// NewServiceInjector creates an injector backed by the given services
func NewServiceInjector(services ...any) *ServiceInjector {
	inj := &ServiceInjector{}
	for _, s := range services {
		inj.Provide(s)
	}
	return inj
}

// Provide registers a service for injection
func (i *ServiceInjector) Provide(service any) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.services = append(i.services, reflect.ValueOf(service))
}

// Instantiate implements Injector
func (i *ServiceInjector) Instantiate(t reflect.Type) (any, error) {
	t = indirect(t)
	if t == nil {
		return nil, fmt.Errorf("%w: cannot instantiate nil type", ErrIllegalArgument)
	}
	return reflect.New(t).Interface(), nil
}

// Inject implements Injector
func (i *ServiceInjector) Inject(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return nil
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	t := v.Type()
	for f := 0; f < t.NumField(); f++ {
		field := t.Field(f)
		if _, ok := field.Tag.Lookup("inject"); !ok || !field.IsExported() {
			continue
		}
		service, ok := i.lookup(field.Type)
		if !ok {
			return fmt.Errorf("no service for %s.%s (%s)", t.Name(), field.Name, field.Type)
		}
		v.Field(f).Set(service)
	}
	return nil
}

func (i *ServiceInjector) lookup(t reflect.Type) (reflect.Value, bool) {
	for _, s := range i.services {
		if s.Type().AssignableTo(t) {
			return s, true
		}
	}
	return reflect.Value{}, false
}
