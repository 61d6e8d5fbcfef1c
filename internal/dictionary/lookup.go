package dictionary

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/yahoo/elide-sub004/internal/expression"
)

// Attributes returns the exposed attribute names of t
func (d *Dictionary) Attributes(t reflect.Type) []string {
	return d.binding(t).APIAttributes()
}

// Relationships returns the exposed relationship names of t
func (d *Dictionary) Relationships(t reflect.Type) []string {
	return d.binding(t).APIRelationships()
}

// AllFields returns the exposed attributes and relationships of t, sorted
// case-insensitively. The id is not included.
func (d *Dictionary) AllFields(t reflect.Type) []string {
	b := d.binding(t)
	return sortedUnique(append(b.APIAttributes(), b.APIRelationships()...))
}

// ElideBoundRelationships returns the relationships of t whose target type is bound
func (d *Dictionary) ElideBoundRelationships(t reflect.Type) []string {
	var out []string
	for _, rel := range d.Relationships(t) {
		if d.LookupBoundClass(d.ParameterizedType(t, rel, 0)) != nil {
			out = append(out, rel)
		}
	}
	return out
}

// Type returns the declared type of a field, including the id, or nil
func (d *Dictionary) Type(t reflect.Type, field string) reflect.Type {
	return d.binding(t).FieldType(field)
}

// ParameterizedType returns the type argument at index of a field's type:
// the element of a slice or array, the key (0) or value (1) of a map. Fields
// that are not containers return their own type. Pointers are stripped.
func (d *Dictionary) ParameterizedType(t reflect.Type, field string, index int) reflect.Type {
	ft := indirect(d.Type(t, field))
	if ft == nil {
		return nil
	}
	return indirect(typeArgument(ft, index))
}

func typeArgument(t reflect.Type, index int) reflect.Type {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if index == 0 {
			return t.Elem()
		}
	case reflect.Map:
		switch index {
		case 0:
			return t.Key()
		case 1:
			return t.Elem()
		}
	default:
		return t
	}
	return nil
}

// FieldsOfType returns the attributes and relationships of t whose declared
// type is target
func (d *Dictionary) FieldsOfType(t, target reflect.Type) []string {
	var out []string
	for _, f := range d.AllFields(t) {
		if d.Type(t, f) == target {
			out = append(out, f)
		}
	}
	return out
}

// IsValidField reports whether the field is an exposed attribute or relationship
func (d *Dictionary) IsValidField(t reflect.Type, field string) bool {
	for _, f := range d.AllFields(t) {
		if f == field {
			return true
		}
	}
	return false
}

// IsRelation reports whether the field is a relationship of t
func (d *Dictionary) IsRelation(t reflect.Type, field string) bool {
	return d.binding(t).IsRelation(field)
}

// IsAttribute reports whether the field is an attribute of t
func (d *Dictionary) IsAttribute(t reflect.Type, field string) bool {
	return d.binding(t).IsAttribute(field)
}

// IsComputed reports whether the field is computed
func (d *Dictionary) IsComputed(t reflect.Type, field string) bool {
	member := d.binding(t).AccessibleObject(field)
	return member != nil && member.IsComputed()
}

// IsComplexAttribute reports whether an exposed attribute has a struct type
// that is neither a model nor a well-known scalar
func (d *Dictionary) IsComplexAttribute(t reflect.Type, field string) bool {
	found := false
	for _, a := range d.Attributes(t) {
		if a == field {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	ft := indirect(d.Type(t, field))
	if ft == nil || ft.Kind() != reflect.Struct {
		return false
	}
	if ft == reflect.TypeOf(time.Time{}) {
		return false
	}
	return LookupIncludeClass(ft) == nil
}

// RelationshipType returns the cardinality of a relationship, RelationNone if absent
func (d *Dictionary) RelationshipType(t reflect.Type, relation string) RelationshipType {
	return d.binding(t).RelationshipType(relation)
}

// CascadeDeletes reports whether deleting t deletes the relationship's targets
func (d *Dictionary) CascadeDeletes(t reflect.Type, relation string) bool {
	for _, c := range d.binding(t).relationshipToCascadeTypes[relation] {
		if c == CascadeAll || c == CascadeRemove {
			return true
		}
	}
	return false
}

// AccessibleObject returns the member bound to a field of the target's type
func (d *Dictionary) AccessibleObject(target any, field string) *AccessibleObject {
	return d.binding(TypeOf(target)).AccessibleObject(field)
}

// NameFromAlias returns the logical field name of a Go field or method name,
// or "" if unknown
func (d *Dictionary) NameFromAlias(target any, alias string) string {
	return d.binding(TypeOf(target)).aliasesToFields[alias]
}

// AnnotatedColumnName returns the column declared for a field, or the field name
func (d *Dictionary) AnnotatedColumnName(t reflect.Type, field string) string {
	if column, ok := d.binding(t).columnNames[field]; ok {
		return column
	}
	return field
}

// IDFieldName returns the logical name of the id member
func (d *Dictionary) IDFieldName(t reflect.Type) string {
	return d.binding(t).IDFieldName
}

// IDType returns the declared type of the id member
func (d *Dictionary) IDType(t reflect.Type) reflect.Type {
	return d.binding(t).IDType
}

// IsIDGenerated reports whether the persistence layer generates ids for t
func (d *Dictionary) IsIDGenerated(t reflect.Type) bool {
	return d.binding(t).IDGenerated
}

// IDTag returns an option declared on the id member of t
func (d *Dictionary) IDTag(t reflect.Type, option string) (string, bool) {
	id := d.binding(t).IDField
	if id == nil {
		return "", false
	}
	return id.Tag(option)
}

// AccessType returns the member discovery mode used for t
func (d *Dictionary) AccessType(t reflect.Type) AccessType {
	return d.binding(t).AccessType
}

// IsRequestScopeable reports whether a computed method accepts a context
func (d *Dictionary) IsRequestScopeable(t reflect.Type, field string) bool {
	member := d.binding(t).AccessibleObject(field)
	return member != nil && member.IsComputed() && member.IsRequestScoped()
}

// PermissionsForClass returns the class-level expression for kind, or nil
func (d *Dictionary) PermissionsForClass(t reflect.Type, kind PermissionKind) expression.Node {
	return d.binding(t).permissions.ClassChecksForPermission(kind)
}

// PermissionsForField returns the field-level expression for kind, or nil
func (d *Dictionary) PermissionsForField(t reflect.Type, field string, kind PermissionKind) expression.Node {
	return d.binding(t).permissions.FieldChecksForPermission(field, kind)
}

// EntityHasChecksForPermission reports whether t declares any expression for kind
func (d *Dictionary) EntityHasChecksForPermission(t reflect.Type, kind PermissionKind) bool {
	return d.binding(t).permissions.HasChecksForPermission(kind)
}

// FieldTriggers returns the hooks bound to a field of t
func (d *Dictionary) FieldTriggers(t reflect.Type, op Operation, phase TransactionPhase, field string) []LifeCycleHook {
	return d.binding(t).FieldTriggers(op, phase, field)
}

// Triggers returns the class hooks bound to t
func (d *Dictionary) Triggers(t reflect.Type, op Operation, phase TransactionPhase) []LifeCycleHook {
	return d.binding(t).ClassTriggers(op, phase)
}

// BindTrigger binds a hook to a field, binding t first if needed
func (d *Dictionary) BindTrigger(t reflect.Type, field string, op Operation, phase TransactionPhase, hook LifeCycleHook) error {
	if err := d.bindIfUnbound(t); err != nil {
		return err
	}
	b, err := d.boundBinding(t)
	if err != nil {
		return err
	}
	b.BindTrigger(op, phase, field, hook)
	return nil
}

// BindClassTrigger binds a hook to t. With allowMultipleInvocations the hook
// runs once per changed field, otherwise once per request.
func (d *Dictionary) BindClassTrigger(t reflect.Type, op Operation, phase TransactionPhase, hook LifeCycleHook, allowMultipleInvocations bool) error {
	if err := d.bindIfUnbound(t); err != nil {
		return err
	}
	b, err := d.boundBinding(t)
	if err != nil {
		return err
	}
	if allowMultipleInvocations {
		b.BindClassTrigger(op, phase, hook)
	} else {
		b.BindTrigger(op, phase, ClassNoField, hook)
	}
	return nil
}

// boundBinding returns the binding of t, failing if t is not bound
func (d *Dictionary) boundBinding(t reflect.Type) (*EntityBinding, error) {
	b, err := d.EntityBinding(t)
	if err != nil {
		return nil, err
	}
	if b == EmptyBinding {
		return nil, fmt.Errorf("%w %v", ErrUnboundEntity, t)
	}
	return b, nil
}

// AddArgumentsToAttribute registers arguments accepted by an attribute of t
func (d *Dictionary) AddArgumentsToAttribute(t reflect.Type, attribute string, args ...ArgumentType) error {
	b, err := d.boundBinding(t)
	if err != nil {
		return err
	}
	for _, arg := range args {
		b.AddArgumentToAttribute(attribute, arg)
	}
	return nil
}

// AddArgumentToEntity registers an argument accepted by t
func (d *Dictionary) AddArgumentToEntity(t reflect.Type, arg ArgumentType) error {
	b, err := d.boundBinding(t)
	if err != nil {
		return err
	}
	b.AddArgumentToEntity(arg)
	return nil
}

// AttributeArguments returns the arguments registered for an attribute of t
func (d *Dictionary) AttributeArguments(t reflect.Type, attribute string) []ArgumentType {
	return d.binding(t).AttributeArguments(attribute)
}

// EntityArguments returns the arguments registered for t
func (d *Dictionary) EntityArguments(t reflect.Type) []ArgumentType {
	return d.binding(t).EntityArguments()
}

// PaginationMode is a style of page parameters an entity accepts
type PaginationMode int

const (
	PaginationOffset PaginationMode = iota
	PaginationCursor
)

// Pagination describes the page parameters an entity accepts
type Pagination struct {
	Modes        []PaginationMode
	CountAllowed bool
}

// Supports reports whether the mode is enabled
func (p Pagination) Supports(mode PaginationMode) bool {
	for _, m := range p.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Paginate returns the pagination declared by "paginate:<offset,cursor,nocount>";
// the default is offset pagination with totals
func (d *Dictionary) Paginate(t reflect.Type) Pagination {
	raw, _, ok := firstTypeOption(t, optPaginate)
	p := Pagination{CountAllowed: true}
	if !ok || raw == "" {
		p.Modes = []PaginationMode{PaginationOffset}
		return p
	}
	for _, item := range strings.Split(raw, ",") {
		switch strings.ToLower(strings.TrimSpace(item)) {
		case "offset":
			p.Modes = append(p.Modes, PaginationOffset)
		case "cursor":
			p.Modes = append(p.Modes, PaginationCursor)
		case "nocount":
			p.CountAllowed = false
		}
	}
	if len(p.Modes) == 0 {
		p.Modes = []PaginationMode{PaginationOffset}
	}
	return p
}

// Check returns the check type bound to an identifier
func (d *Dictionary) Check(identifier string) (reflect.Type, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.checks.names[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: could not instantiate specified check '%s'", ErrUnknownCheck, identifier)
	}
	return t, nil
}

// CheckInstance returns the check for an identifier. Role checks are
// returned as registered; other checks are instantiated once through the
// injector and cached.
func (d *Dictionary) CheckInstance(identifier string) (Check, error) {
	d.mu.RLock()
	if role, ok := d.checks.roles[identifier]; ok {
		d.mu.RUnlock()
		return role, nil
	}
	t, ok := d.checks.names[identifier]
	if ok {
		if instance, cached := d.checks.instances[t]; cached {
			d.mu.RUnlock()
			return instance, nil
		}
	}
	d.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: could not instantiate specified check '%s'", ErrUnknownCheck, identifier)
	}

	instance, err := d.injector.Instantiate(t)
	if err != nil {
		return nil, err
	}
	if err := d.injector.Inject(instance); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, cached := d.checks.instances[t]; cached {
		return existing, nil
	}
	d.checks.instances[t] = instance
	return instance, nil
}

// CheckIdentifier returns the identifier a check type is known by
func (d *Dictionary) CheckIdentifier(t reflect.Type) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.checks.identifier(t)
}

// CheckIdentifiers returns every known check and role identifier, sorted
func (d *Dictionary) CheckIdentifiers() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.checks.names)+len(d.checks.roles))
	for id := range d.checks.names {
		ids = append(ids, id)
	}
	for id := range d.checks.roles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AddSecurityCheck binds an identifier to a check type
func (d *Dictionary) AddSecurityCheck(identifier string, prototype Check) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.checks.add(identifier, indirect(reflect.TypeOf(prototype)))
}

// AddRoleCheck registers a role check
func (d *Dictionary) AddRoleCheck(role string, check UserCheck) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.checks.roles[role] = check
}

// RoleCheck returns the role check registered under role
func (d *Dictionary) RoleCheck(role string) (UserCheck, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	check, ok := d.checks.roles[role]
	return check, ok
}

func (d *Dictionary) knownCheck(identifier string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.checks.known(identifier)
}
