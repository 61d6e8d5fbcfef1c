package dictionary

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Reserved logical names that are never bound as attributes or relationships
const (
	RegularIDName = "id"
	className     = "class"
)

// ArgumentType describes a parameter accepted by an attribute or an entity
type ArgumentType struct {
	Name    string
	Type    reflect.Type
	Default any
}

// EntityBinding is the metadata of one bound model type. It is built once
// and immutable afterwards, except for lifecycle hooks and argument types
// which may be added later.
type EntityBinding struct {
	EntityClass    reflect.Type
	JSONAPIType    string
	APIVersion     string
	IDField        *AccessibleObject
	IDFieldName    string
	IDType         reflect.Type
	IDGenerated    bool
	AccessType     AccessType
	Injected       bool
	InheritedTypes []reflect.Type

	apiAttributes              []string
	apiRelationships           []string
	fieldsToValues             map[string]*AccessibleObject
	fieldsToTypes              map[string]reflect.Type
	relationshipTypes          map[string]RelationshipType
	relationshipToInverse      map[string]string
	relationshipToCascadeTypes map[string][]CascadeType
	aliasesToFields            map[string]string
	columnNames                map[string]string
	members                    []*AccessibleObject
	permissions                *EntityPermissions
	triggers                   *triggers

	argMu              sync.RWMutex
	attributeArguments map[string][]ArgumentType
	entityArguments    []ArgumentType
}

// EmptyBinding is returned for entity types that are legitimately unbound,
// such as relationship targets excluded from the API
var EmptyBinding = newEmptyBinding()

func newEmptyBinding() *EntityBinding {
	return &EntityBinding{
		fieldsToValues:             map[string]*AccessibleObject{},
		fieldsToTypes:              map[string]reflect.Type{},
		relationshipTypes:          map[string]RelationshipType{},
		relationshipToInverse:      map[string]string{},
		relationshipToCascadeTypes: map[string][]CascadeType{},
		aliasesToFields:            map[string]string{},
		columnNames:                map[string]string{},
		permissions:                EmptyPermissions,
		triggers:                   newTriggers(),
		attributeArguments:         map[string][]ArgumentType{},
	}
}

// bindingConfig carries the collaborators used while building a binding
type bindingConfig struct {
	injector   Injector
	hookType   func(name string) (reflect.Type, bool)
	knownCheck func(identifier string) bool
	isHidden   func(*AccessibleObject) bool
	logger     *zap.Logger
}

// newEntityBinding reflects over t and builds its binding. Any configuration
// error aborts the build.
func newEntityBinding(cfg bindingConfig, t reflect.Type, jsonAPIType, apiVersion string) (*EntityBinding, error) {
	b := newEmptyBinding()
	b.EntityClass = t
	b.JSONAPIType = jsonAPIType
	b.APIVersion = apiVersion
	b.InheritedTypes = inheritedTypes(t)
	b.Injected = shouldInject(t)

	members := collectFields(t)
	hasID := false
	for _, m := range members {
		if m.IsAnnotationPresent(optID) {
			hasID = true
			break
		}
	}

	if hasID {
		b.AccessType = AccessField
		members = append(members, collectMethods(t, func(m *AccessibleObject) bool {
			return m.IsAnnotationPresent(optHook) || m.IsAnnotationPresent(optComputed) || m.IsAnnotationPresent(optOn)
		})...)
	} else {
		b.AccessType = AccessProperty
		members = append(members, collectMethods(t, nil)...)
	}
	b.members = members

	if cfg.isHidden == nil {
		cfg.isHidden = func(*AccessibleObject) bool { return false }
	}

	var attributes, relationships []string
	for _, member := range members {
		if err := b.bindTriggerIfPresent(cfg, member); err != nil {
			return nil, err
		}

		switch {
		case member.IsAnnotationPresent(optID):
			if err := b.bindEntityID(member); err != nil {
				return nil, err
			}
		case member.IsAnnotationPresent(optTransient) && !member.IsComputed():
			continue
		case member.IsAnnotationPresent(optExclude):
			continue
		default:
			name, isRelation, err := b.bindAttrOrRelation(member)
			if err != nil {
				return nil, err
			}
			if name == "" || cfg.isHidden(member) {
				continue
			}
			if isRelation {
				relationships = append(relationships, name)
			} else {
				attributes = append(attributes, name)
			}
		}
	}

	if err := b.bindTypeTriggers(cfg); err != nil {
		return nil, err
	}
	if err := b.bindLegacyHooks(); err != nil {
		return nil, err
	}

	b.apiAttributes = sortedUnique(attributes)
	b.apiRelationships = sortedUnique(relationships)

	perms, err := (&permissionBuilder{entity: t, known: cfg.knownCheck, logger: cfg.logger}).build(members)
	if err != nil {
		return nil, err
	}
	b.permissions = perms
	return b, nil
}

func (b *EntityBinding) bindEntityID(member *AccessibleObject) error {
	name := member.Name()
	if b.IDField != nil && b.IDField != member {
		return &DuplicateMappingError{Type: b.JSONAPIType, Model: b.EntityClass.String(), Field: name}
	}

	b.IDField = member
	b.IDFieldName = name
	b.IDType = member.Type
	b.fieldsToValues[name] = member
	b.fieldsToTypes[name] = member.Type
	b.aliasesToFields[member.GoName] = name

	if member.IsAnnotationPresent(optGenerated) {
		b.IDGenerated = true
	}
	return nil
}

// bindAttrOrRelation binds member and returns its logical name, or "" if it
// is reserved or not an accessor
func (b *EntityBinding) bindAttrOrRelation(member *AccessibleObject) (string, bool, error) {
	name := member.Name()
	if name == "" || name == RegularIDName || name == className || member.Type == nil {
		return "", false, nil
	}
	if member.Kind == MethodMember && member.IsRequestScoped() && !member.IsComputed() {
		return "", false, nil
	}

	isRelation := false
	for _, opt := range relationshipOptions {
		if member.IsAnnotationPresent(opt) {
			isRelation = true
			break
		}
	}

	if isRelation {
		if err := b.bindRelation(member, name); err != nil {
			return "", false, err
		}
	}

	b.fieldsToValues[name] = member
	b.fieldsToTypes[name] = member.Type
	b.aliasesToFields[member.GoName] = name
	if column, ok := member.Tag(optColumn); ok && column != "" {
		b.columnNames[name] = column
	}
	return name, isRelation, nil
}

func (b *EntityBinding) bindRelation(member *AccessibleObject, name string) error {
	if member.IsAnnotationPresent(optMapsID) {
		b.IDGenerated = true
	}

	computed := member.IsComputed()
	relType := RelationNone
	switch {
	case member.IsAnnotationPresent(optOneToMany):
		relType = RelationOneToMany
	case member.IsAnnotationPresent(optOneToOne):
		relType = RelationOneToOne
	case member.IsAnnotationPresent(optManyToMany):
		relType = RelationManyToMany
	case member.IsAnnotationPresent(optManyToOne):
		relType = RelationManyToOne
	case member.IsAnnotationPresent(optToOne):
		relType, computed = RelationOneToOne, true
	case member.IsAnnotationPresent(optToMany):
		relType, computed = RelationOneToMany, true
	}
	if computed {
		relType = relType.computed()
	}

	mappedBy := ""
	if relType != RelationManyToOne && relType != RelationComputedManyToOne {
		mappedBy = member.Tags.Value(optMappedBy)
	}

	var cascades []CascadeType
	if raw, ok := member.Tag(optCascade); ok && raw != "" {
		for _, item := range strings.Split(raw, ",") {
			c, err := ParseCascadeType(item)
			if err != nil {
				return fmt.Errorf("%s.%s: %w: %v", b.EntityClass.Name(), name, ErrIllegalArgument, err)
			}
			cascades = append(cascades, c)
		}
	}

	b.relationshipTypes[name] = relType
	b.relationshipToInverse[name] = mappedBy
	b.relationshipToCascadeTypes[name] = cascades
	return nil
}

// bindTriggerIfPresent binds the hook tags declared on a member
func (b *EntityBinding) bindTriggerIfPresent(cfg bindingConfig, member *AccessibleObject) error {
	for _, raw := range member.Tags.All(optHook) {
		binding, err := parseHookBinding(raw)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", b.EntityClass.Name(), member.GoName, err)
		}
		hook, err := instantiateHook(cfg, binding.hook)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", b.EntityClass.Name(), member.GoName, err)
		}
		b.triggers.bindField(member.Name(), binding.op, binding.phase, hook)
	}
	return nil
}

// bindTypeTriggers binds the hook tags declared on the Model marker
func (b *EntityBinding) bindTypeTriggers(cfg bindingConfig) error {
	tags, _ := modelTags(b.EntityClass)
	for _, raw := range tags.All(optHook) {
		binding, err := parseHookBinding(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", b.EntityClass.Name(), err)
		}
		hook, err := instantiateHook(cfg, binding.hook)
		if err != nil {
			return fmt.Errorf("%s: %w", b.EntityClass.Name(), err)
		}
		if binding.oncePerCall {
			b.triggers.bindField(ClassNoField, binding.op, binding.phase, hook)
		} else {
			b.triggers.bindClass(binding.op, binding.phase, hook)
		}
	}
	return nil
}

// bindLegacyHooks wraps methods tagged "on:<op>:<phase>[:<field>|*]" as hooks
func (b *EntityBinding) bindLegacyHooks() error {
	for _, member := range b.members {
		if member.Kind != MethodMember {
			continue
		}
		for _, raw := range member.Tags.All(optOn) {
			legacy, err := parseLegacyHook(raw)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", b.EntityClass.Name(), member.GoName, err)
			}
			hook := methodHook(member.GoName)
			switch legacy.field {
			case "":
				b.triggers.bindField(ClassNoField, legacy.op, legacy.phase, hook)
			case AllFields:
				b.triggers.bindClass(legacy.op, legacy.phase, hook)
			default:
				b.triggers.bindField(legacy.field, legacy.op, legacy.phase, hook)
			}
		}
	}
	return nil
}

func instantiateHook(cfg bindingConfig, name string) (LifeCycleHook, error) {
	if cfg.hookType == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHook, name)
	}
	t, ok := cfg.hookType(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHook, name)
	}
	instance, err := cfg.injector.Instantiate(t)
	if err != nil {
		return nil, err
	}
	if err := cfg.injector.Inject(instance); err != nil {
		return nil, err
	}
	hook, ok := instance.(LifeCycleHook)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s) does not implement LifeCycleHook", ErrUnknownHook, name, t)
	}
	return hook, nil
}

// shouldInject reports whether instances of t receive dependency injection
func shouldInject(t reflect.Type) bool {
	if _, _, ok := firstTypeOption(t, optInject); ok {
		return true
	}
	t = indirect(t)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if _, ok := f.Tag.Lookup("inject"); ok {
			return true
		}
		if ParseTags(f.Tag.Get(TagName)).Has(optInject) {
			return true
		}
	}
	return false
}

func sortedUnique(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// APIAttributes returns the exposed attribute names, sorted case-insensitively
func (b *EntityBinding) APIAttributes() []string {
	return append([]string(nil), b.apiAttributes...)
}

// APIRelationships returns the exposed relationship names, sorted case-insensitively
func (b *EntityBinding) APIRelationships() []string {
	return append([]string(nil), b.apiRelationships...)
}

// AccessibleObject returns the member bound to a logical field name
func (b *EntityBinding) AccessibleObject(field string) *AccessibleObject {
	return b.fieldsToValues[field]
}

// FieldType returns the declared type of a field, or nil
func (b *EntityBinding) FieldType(field string) reflect.Type {
	return b.fieldsToTypes[field]
}

// RelationshipType returns the cardinality of a relationship
func (b *EntityBinding) RelationshipType(relation string) RelationshipType {
	return b.relationshipTypes[relation]
}

// Permissions returns the parsed permission expressions
func (b *EntityBinding) Permissions() *EntityPermissions {
	return b.permissions
}

// IsRelation reports whether the name is a bound relationship
func (b *EntityBinding) IsRelation(name string) bool {
	_, ok := b.relationshipTypes[name]
	return ok
}

// IsAttribute reports whether the name is a bound attribute
func (b *EntityBinding) IsAttribute(name string) bool {
	_, ok := b.fieldsToValues[name]
	return ok && !b.IsRelation(name) && name != b.IDFieldName
}

// BindTrigger binds a hook to a field
func (b *EntityBinding) BindTrigger(op Operation, phase TransactionPhase, field string, hook LifeCycleHook) {
	b.triggers.bindField(field, op, phase, hook)
}

// BindClassTrigger binds a hook invoked for every field change of the entity
func (b *EntityBinding) BindClassTrigger(op Operation, phase TransactionPhase, hook LifeCycleHook) {
	b.triggers.bindClass(op, phase, hook)
}

// FieldTriggers returns the hooks bound to (field, op, phase)
func (b *EntityBinding) FieldTriggers(op Operation, phase TransactionPhase, field string) []LifeCycleHook {
	return b.triggers.fieldHooks(field, op, phase)
}

// ClassTriggers returns the hooks bound to (op, phase)
func (b *EntityBinding) ClassTriggers(op Operation, phase TransactionPhase) []LifeCycleHook {
	return b.triggers.classHooks(op, phase)
}

// AddArgumentToAttribute registers an argument accepted by an attribute
func (b *EntityBinding) AddArgumentToAttribute(attribute string, arg ArgumentType) {
	b.argMu.Lock()
	defer b.argMu.Unlock()

	for _, existing := range b.attributeArguments[attribute] {
		if existing.Name == arg.Name {
			return
		}
	}
	b.attributeArguments[attribute] = append(b.attributeArguments[attribute], arg)
}

// AttributeArguments returns the arguments registered for an attribute
func (b *EntityBinding) AttributeArguments(attribute string) []ArgumentType {
	b.argMu.RLock()
	defer b.argMu.RUnlock()

	return append([]ArgumentType(nil), b.attributeArguments[attribute]...)
}

// AddArgumentToEntity registers an argument accepted by the entity
func (b *EntityBinding) AddArgumentToEntity(arg ArgumentType) {
	b.argMu.Lock()
	defer b.argMu.Unlock()

	for _, existing := range b.entityArguments {
		if existing.Name == arg.Name {
			return
		}
	}
	b.entityArguments = append(b.entityArguments, arg)
}

// EntityArguments returns the arguments registered for the entity
func (b *EntityBinding) EntityArguments() []ArgumentType {
	b.argMu.RLock()
	defer b.argMu.RUnlock()

	return append([]ArgumentType(nil), b.entityArguments...)
}
