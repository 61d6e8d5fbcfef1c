package dictionary

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// NoVersion is the API version of models that declare none
const NoVersion = ""

type typeKey struct {
	name    string
	version string
}

// Dictionary is the registry of entity bindings. Entities are bound during
// startup; afterwards the dictionary is read concurrently.
type Dictionary struct {
	mu                  sync.RWMutex
	bindJSONAPIToEntity map[typeKey]reflect.Type
	entityBindings      map[reflect.Type]*EntityBinding
	bindEntityRoots     map[reflect.Type]bool
	apiVersions         map[string]bool
	entitiesToExclude   map[reflect.Type]bool
	subclassing         map[reflect.Type][]reflect.Type
	generation          uint64
	hookTypes           map[string]reflect.Type
	checks              *checkRegistry

	injector Injector
	coercer  Coercer
	logger   *zap.Logger
}

// Option configures a Dictionary
type Option func(*Dictionary)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dictionary) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithInjector sets the injector used for hooks, checks and models
func WithInjector(injector Injector) Option {
	return func(d *Dictionary) {
		if injector != nil {
			d.injector = injector
		}
	}
}

// WithCoercer sets the value coercer used by SetValue
func WithCoercer(coercer Coercer) Option {
	return func(d *Dictionary) {
		if coercer != nil {
			d.coercer = coercer
		}
	}
}

// WithCheck registers a named check. The prototype's type is instantiated
// on demand through the injector.
func WithCheck(identifier string, prototype Check) Option {
	return func(d *Dictionary) {
		if err := d.checks.add(identifier, indirect(reflect.TypeOf(prototype))); err != nil {
			d.logger.Warn("ignoring check", zap.String("check", identifier), zap.Error(err))
		}
	}
}

// WithRoleCheck registers a role check instance
func WithRoleCheck(role string, check UserCheck) Option {
	return func(d *Dictionary) {
		d.checks.roles[role] = check
	}
}

// WithHook registers a lifecycle hook type referenced by name from hook tags
func WithHook(name string, prototype LifeCycleHook) Option {
	return func(d *Dictionary) {
		d.hookTypes[name] = indirect(reflect.TypeOf(prototype))
	}
}

// WithExcludedEntities prevents the given model types from being bound
func WithExcludedEntities(types ...reflect.Type) Option {
	return func(d *Dictionary) {
		for _, t := range types {
			d.entitiesToExclude[indirect(t)] = true
		}
	}
}

// New creates an empty dictionary
func New(opts ...Option) *Dictionary {
	d := &Dictionary{
		bindJSONAPIToEntity: make(map[typeKey]reflect.Type),
		entityBindings:      make(map[reflect.Type]*EntityBinding),
		bindEntityRoots:     make(map[reflect.Type]bool),
		apiVersions:         make(map[string]bool),
		entitiesToExclude:   make(map[reflect.Type]bool),
		subclassing:         make(map[reflect.Type][]reflect.Type),
		hookTypes:           make(map[string]reflect.Type),
		checks:              newCheckRegistry(),
		injector:            NewServiceInjector(),
		coercer:             CastCoercer{},
		logger:              zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	// Hydrate check instances at boot
	for name := range d.checks.names {
		if _, err := d.CheckInstance(name); err != nil {
			d.logger.Warn("failed to instantiate check", zap.String("check", name), zap.Error(err))
		}
	}
	return d
}

// Injector returns the dictionary's injector
func (d *Dictionary) Injector() Injector {
	return d.injector
}

// TypeOf returns the model type of a value or type, with pointers stripped
func TypeOf(v any) reflect.Type {
	if t, ok := v.(reflect.Type); ok {
		return indirect(t)
	}
	return indirect(reflect.TypeOf(v))
}

// BindOption configures a single BindEntity call
type BindOption func(*bindingConfig)

// WithHiddenFields keeps fields matching the predicate in the dictionary but
// out of the exposed attribute and relationship lists
func WithHiddenFields(isHidden func(*AccessibleObject) bool) BindOption {
	return func(cfg *bindingConfig) {
		cfg.isHidden = isHidden
	}
}

// BindEntity binds a model type. Types without an include option, excluded
// types and types already bound are ignored. Configuration errors abort the
// bind and leave nothing stored.
func (d *Dictionary) BindEntity(t reflect.Type, opts ...BindOption) error {
	declared := LookupIncludeClass(t)
	if declared == nil {
		d.logger.Debug("missing include or excluded class", zap.Stringer("type", TypeOf(t)))
		return nil
	}

	d.mu.RLock()
	excluded := d.entitiesToExclude[declared]
	_, bound := d.entityBindings[declared]
	d.mu.RUnlock()
	if excluded || bound {
		return nil
	}

	name := EntityName(declared)
	version := ModelVersion(declared)

	cfg := bindingConfig{
		injector:   d.injector,
		hookType:   d.hookType,
		knownCheck: d.knownCheck,
		logger:     d.logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	binding, err := newEntityBinding(cfg, declared, name, version)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", declared, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, bound := d.entityBindings[declared]; bound {
		return nil
	}
	d.storeBinding(binding)
	d.logger.Debug("bound entity",
		zap.String("type", name),
		zap.String("version", version),
		zap.Stringer("model", declared))
	return nil
}

// BindEntities binds each type in order, stopping at the first error
func (d *Dictionary) BindEntities(types ...reflect.Type) error {
	for _, t := range types {
		if err := d.BindEntity(t); err != nil {
			return err
		}
	}
	return nil
}

// BindBinding registers a prebuilt binding
func (d *Dictionary) BindBinding(binding *EntityBinding) {
	d.mu.Lock()
	defer d.mu.Unlock()

	declared := binding.EntityClass
	if d.entitiesToExclude[declared] {
		return
	}
	if _, bound := d.entityBindings[declared]; bound {
		return
	}
	d.storeBinding(binding)
}

// storeBinding must be called with the write lock held
func (d *Dictionary) storeBinding(binding *EntityBinding) {
	declared := binding.EntityClass
	key := typeKey{name: binding.JSONAPIType, version: binding.APIVersion}
	if _, exists := d.bindJSONAPIToEntity[key]; !exists {
		d.bindJSONAPIToEntity[key] = declared
	}
	d.entityBindings[declared] = binding
	d.apiVersions[binding.APIVersion] = true
	if IsRootType(declared) {
		d.bindEntityRoots[declared] = true
	}
	d.subclassing = make(map[reflect.Type][]reflect.Type)
	d.generation++
}

// bindIfUnbound binds t if it is not already bound
func (d *Dictionary) bindIfUnbound(t reflect.Type) error {
	if d.LookupBoundClass(t) != nil {
		return nil
	}
	return d.BindEntity(t)
}

func (d *Dictionary) hookType(name string) (reflect.Type, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.hookTypes[name]
	return t, ok
}

// RegisterHook registers a lifecycle hook type referenced by name from hook tags
func (d *Dictionary) RegisterHook(name string, prototype LifeCycleHook) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.hookTypes[name] = indirect(reflect.TypeOf(prototype))
}

// EntityBinding returns the binding of t. Entity types that are not bound
// yield EmptyBinding; types that are not entities at all yield an error
// wrapping ErrUnboundEntity.
func (d *Dictionary) EntityBinding(t reflect.Type) (*EntityBinding, error) {
	t = indirect(t)

	d.mu.RLock()
	binding, ok := d.entityBindings[t]
	d.mu.RUnlock()
	if ok {
		return binding, nil
	}

	if declared := d.LookupBoundClass(t); declared != nil {
		d.mu.RLock()
		binding, ok := d.entityBindings[declared]
		d.mu.RUnlock()
		if ok {
			return binding, nil
		}
		return EmptyBinding, nil
	}

	if _, err := LookupEntityClass(t); err != nil {
		return nil, err
	}
	return EmptyBinding, nil
}

// binding is the lenient form of EntityBinding used by the field lookups
func (d *Dictionary) binding(t reflect.Type) *EntityBinding {
	b, err := d.EntityBinding(t)
	if err != nil {
		return EmptyBinding
	}
	return b
}

// HasBinding reports whether t itself is bound
func (d *Dictionary) HasBinding(t reflect.Type) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.entityBindings[indirect(t)]
	return ok
}

// LookupBoundClass resolves t, a proxy of a bound type or a bound type's
// subtype one level down, to the bound type. It returns nil if nothing matches.
func (d *Dictionary) LookupBoundClass(t reflect.Type) reflect.Type {
	t = indirect(t)
	if t == nil {
		return nil
	}

	d.mu.RLock()
	_, ok := d.entityBindings[t]
	d.mu.RUnlock()
	if ok {
		return t
	}

	declared := LookupIncludeClass(t)
	if declared == nil {
		return nil
	}

	d.mu.RLock()
	_, ok = d.entityBindings[declared]
	d.mu.RUnlock()
	if ok {
		return declared
	}

	// Unbound proxies resolve through their superclass
	super := superclass(declared)
	if super == nil {
		return nil
	}
	entity, err := LookupEntityClass(super)
	if err != nil {
		return nil
	}
	return entity
}

// LookupEntityClass returns the first type in t's hierarchy marked as an entity
func LookupEntityClass(t reflect.Type) (reflect.Type, error) {
	for _, c := range hierarchy(t) {
		if c == nil {
			break
		}
		if _, ok := modelTags(c); ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w %v", ErrUnboundEntity, t)
}

// LookupIncludeClass returns the type in t's hierarchy declaring the include
// option, or nil if an exclude option is found first or neither is present
func LookupIncludeClass(t reflect.Type) reflect.Type {
	if indirect(t) == nil {
		return nil
	}
	for _, c := range hierarchy(t) {
		tags, ok := modelTags(c)
		if !ok {
			continue
		}
		if tags.Has(optExclude) {
			return nil
		}
		if tags.Has(optInclude) {
			return c
		}
	}
	return nil
}

// EntityName returns the API type name of a model
func EntityName(t reflect.Type) string {
	declared := LookupIncludeClass(t)
	if declared == nil {
		declared, _ = LookupEntityClass(t)
	}
	if declared == nil {
		declared = indirect(t)
	}
	if tags, ok := modelTags(declared); ok {
		if name := tags.Value(optName); name != "" {
			return name
		}
	}
	return uncapitalize(declared.Name())
}

// ModelVersion returns the API version a model belongs to
func ModelVersion(t reflect.Type) string {
	v, _, _ := firstTypeOption(t, optVersion)
	return v
}

// EntityDescription returns the description declared for a model
func EntityDescription(t reflect.Type) string {
	v, _, _ := firstTypeOption(t, optDescription)
	return v
}

// IsRootType reports whether a model is flagged as a root collection
func IsRootType(t reflect.Type) bool {
	_, _, ok := firstTypeOption(t, optRoot)
	return ok
}

// IsRoot reports whether a bound type is an API root collection
func (d *Dictionary) IsRoot(t reflect.Type) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.bindEntityRoots[indirect(t)]
}

// EntityClass returns the type bound to (name, version), or nil
func (d *Dictionary) EntityClass(name, version string) reflect.Type {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.bindJSONAPIToEntity[typeKey{name: name, version: version}]
}

// JSONAliasFor returns the API type name of a model
func (d *Dictionary) JSONAliasFor(t reflect.Type) string {
	return d.binding(t).JSONAPIType
}

// BoundClasses returns every bound type, sorted by API type name
func (d *Dictionary) BoundClasses() []reflect.Type {
	return d.boundClasses(func(*EntityBinding) bool { return true })
}

// BoundClassesByVersion returns the bound types of one API version
func (d *Dictionary) BoundClassesByVersion(version string) []reflect.Type {
	return d.boundClasses(func(b *EntityBinding) bool { return b.APIVersion == version })
}

func (d *Dictionary) boundClasses(filter func(*EntityBinding) bool) []reflect.Type {
	bindings := d.Bindings()
	types := make([]reflect.Type, 0, len(bindings))
	for _, b := range bindings {
		if filter(b) {
			types = append(types, b.EntityClass)
		}
	}
	return types
}

// Bindings returns every binding, sorted by API type name then version
func (d *Dictionary) Bindings() []*EntityBinding {
	d.mu.RLock()
	bindings := make([]*EntityBinding, 0, len(d.entityBindings))
	for _, b := range d.entityBindings {
		bindings = append(bindings, b)
	}
	d.mu.RUnlock()

	sort.Slice(bindings, func(i, j int) bool {
		if bindings[i].JSONAPIType != bindings[j].JSONAPIType {
			return bindings[i].JSONAPIType < bindings[j].JSONAPIType
		}
		if bindings[i].APIVersion != bindings[j].APIVersion {
			return bindings[i].APIVersion < bindings[j].APIVersion
		}
		return bindings[i].EntityClass.String() < bindings[j].EntityClass.String()
	})
	return bindings
}

// APIVersions returns the distinct API versions seen, sorted
func (d *Dictionary) APIVersions() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	versions := make([]string, 0, len(d.apiVersions))
	for v := range d.apiVersions {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// SuperClassEntities returns the bound types t inherits from, nearest first
func (d *Dictionary) SuperClassEntities(t reflect.Type) []reflect.Type {
	var out []reflect.Type
	for _, s := range d.binding(t).InheritedTypes {
		if d.HasBinding(s) {
			out = append(out, s)
		}
	}
	return out
}

// SubclassingEntities returns the bound types that inherit from t
func (d *Dictionary) SubclassingEntities(t reflect.Type) []reflect.Type {
	t = indirect(t)

	d.mu.RLock()
	cached, ok := d.subclassing[t]
	generation := d.generation
	d.mu.RUnlock()
	if ok {
		return cached
	}

	var out []reflect.Type
	for _, b := range d.Bindings() {
		if b.EntityClass == t {
			continue
		}
		for _, s := range b.InheritedTypes {
			if s == t {
				out = append(out, b.EntityClass)
				break
			}
		}
	}

	d.cacheSubclasses(t, out, generation)
	return out
}

// cacheSubclasses stores out unless a bind happened since generation was read
func (d *Dictionary) cacheSubclasses(t reflect.Type, out []reflect.Type, generation uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.generation == generation {
		d.subclassing[t] = out
	}
}

// IsTransferable reports whether instances may move between parents
func (d *Dictionary) IsTransferable(t reflect.Type) bool {
	return !nonTransferableEnabled(t)
}

// IsStrictNonTransferable reports whether instances may never move after creation
func (d *Dictionary) IsStrictNonTransferable(t reflect.Type) bool {
	if !nonTransferableEnabled(t) {
		return false
	}
	_, _, strict := firstTypeOption(t, optStrict)
	return strict
}

func nonTransferableEnabled(t reflect.Type) bool {
	v, _, ok := firstTypeOption(t, optNonTransferable)
	return ok && !strings.EqualFold(v, "false")
}

// InitializeEntity injects dependencies into a new model instance
func (d *Dictionary) InitializeEntity(entity any) error {
	if entity == nil {
		return nil
	}
	if d.binding(TypeOf(entity)).Injected {
		return d.injector.Inject(entity)
	}
	return nil
}
