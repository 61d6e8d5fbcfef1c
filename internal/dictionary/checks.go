package dictionary

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Role check identifiers registered on every dictionary
const (
	AllRole    = "Role.ALL"
	NoneRole   = "Role.NONE"
	PrefabAll  = "Prefab.Role.All"
	PrefabNone = "Prefab.Role.None"

	PrefabAppendOnly = "Prefab.Collections.AppendOnly"
	PrefabRemoveOnly = "Prefab.Collections.RemoveOnly"
)

// Check is a permission check referenced by name from a permission
// expression. Concrete checks implement UserCheck or OperationCheck.
type Check any

// User is the principal a request runs as
type User struct {
	Name  string
	Roles []string
}

// InRole reports whether the user holds the role
func (u *User) InRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserCheck depends only on the requesting user
type UserCheck interface {
	OK(user *User) bool
}

// OperationCheck depends on the model being accessed and its pending changes
type OperationCheck interface {
	OK(ctx context.Context, object any, changes *ChangeSpec) bool
}

// RoleAll allows everyone
type RoleAll struct{}

func (RoleAll) OK(*User) bool { return true }

// RoleNone denies everyone
type RoleNone struct{}

func (RoleNone) OK(*User) bool { return false }

// RoleMember allows users holding Role
type RoleMember struct {
	Role string
}

func (r RoleMember) OK(user *User) bool { return user.InRole(r.Role) }

// AppendOnly allows collection changes that only add elements
type AppendOnly struct{}

func (AppendOnly) OK(_ context.Context, _ any, changes *ChangeSpec) bool {
	if changes == nil {
		return true
	}
	return containsAll(changes.Modified, changes.Original)
}

// RemoveOnly allows collection changes that only remove elements
type RemoveOnly struct{}

func (RemoveOnly) OK(_ context.Context, _ any, changes *ChangeSpec) bool {
	if changes == nil {
		return true
	}
	return containsAll(changes.Original, changes.Modified)
}

// containsAll reports whether every element of sub is in super. Slices,
// arrays and the keys of maps are treated as collections.
func containsAll(super, sub any) bool {
	superElems := elements(super)
	for _, s := range elements(sub) {
		found := false
		for _, e := range superElems {
			if reflect.DeepEqual(e, s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func elements(c any) []any {
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, v.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make([]any, 0, v.Len())
		for _, k := range v.MapKeys() {
			out = append(out, k.Interface())
		}
		return out
	case reflect.Invalid:
		return nil
	default:
		return []any{c}
	}
}

// checkRegistry is a bidirectional map of identifiers and check types plus
// the role checks, guarded by the dictionary lock
type checkRegistry struct {
	names     map[string]reflect.Type
	types     map[reflect.Type]string
	instances map[reflect.Type]Check
	roles     map[string]UserCheck
}

func newCheckRegistry() *checkRegistry {
	r := &checkRegistry{
		names:     make(map[string]reflect.Type),
		types:     make(map[reflect.Type]string),
		instances: make(map[reflect.Type]Check),
		roles:     make(map[string]UserCheck),
	}

	all, none := RoleAll{}, RoleNone{}
	r.roles[PrefabAll] = all
	r.roles[AllRole] = all
	r.roles[PrefabNone] = none
	r.roles[NoneRole] = none

	r.addPrefab(PrefabAppendOnly, reflect.TypeOf(AppendOnly{}))
	r.addPrefab(PrefabRemoveOnly, reflect.TypeOf(RemoveOnly{}))
	return r
}

func (r *checkRegistry) addPrefab(alias string, t reflect.Type) {
	if _, ok := r.names[alias]; ok {
		return
	}
	if _, ok := r.types[t]; ok {
		return
	}
	r.names[alias] = t
	r.types[t] = alias
}

func (r *checkRegistry) add(identifier string, t reflect.Type) error {
	if existing, ok := r.names[identifier]; ok && existing != t {
		return fmt.Errorf("check %q is already bound to %s", identifier, existing)
	}
	if existing, ok := r.types[t]; ok && existing != identifier {
		return fmt.Errorf("check type %s is already bound to %q", t, existing)
	}
	r.names[identifier] = t
	r.types[t] = identifier
	return nil
}

func (r *checkRegistry) known(identifier string) bool {
	if _, ok := r.roles[identifier]; ok {
		return true
	}
	_, ok := r.names[identifier]
	return ok
}

func (r *checkRegistry) identifier(t reflect.Type) string {
	t = indirect(t)
	if id, ok := r.types[t]; ok {
		return id
	}

	names := make([]string, 0, len(r.roles))
	for name := range r.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if indirect(reflect.TypeOf(r.roles[name])) == t {
			return name
		}
	}
	return t.PkgPath() + "." + t.Name()
}

// IsDenyAll reports whether the expression text is the deny-all role
func IsDenyAll(expression string) bool {
	expression = strings.TrimSpace(expression)
	return strings.EqualFold(expression, PrefabNone) || strings.EqualFold(expression, NoneRole)
}
