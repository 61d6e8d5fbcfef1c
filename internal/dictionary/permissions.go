package dictionary

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/yahoo/elide-sub004/internal/expression"
)

type permissionBinding struct {
	class  expression.Node
	fields map[string]expression.Node
}

// EntityPermissions holds the parsed permission expressions of one entity at
// class and field granularity. A kind is present only if the entity declares
// at least one expression for it.
type EntityPermissions struct {
	bindings map[PermissionKind]*permissionBinding
}

// EmptyPermissions has no expressions for any kind
var EmptyPermissions = &EntityPermissions{bindings: map[PermissionKind]*permissionBinding{}}

// permissionBuilder parses and validates expressions while a binding is built
type permissionBuilder struct {
	entity reflect.Type
	known  func(identifier string) bool
	logger *zap.Logger
}

func (b *permissionBuilder) build(members []*AccessibleObject) (*EntityPermissions, error) {
	p := &EntityPermissions{bindings: make(map[PermissionKind]*permissionBinding)}

	for _, kind := range PermissionKinds {
		// NonTransferable is resolved from the type flags, never stored.
		if kind == PermissionNonTransferable {
			continue
		}

		fields := make(map[string]expression.Node)
		for _, member := range members {
			raw, ok := member.Tag(kind.tagKey())
			if !ok {
				continue
			}
			name := member.Name()
			if name == "" {
				continue
			}
			node, err := b.parse(kind, raw)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", b.entity.Name(), name, err)
			}
			fields[name] = node
		}

		var class expression.Node
		if raw, _, ok := firstTypeOption(b.entity, kind.tagKey()); ok {
			node, err := b.parse(kind, raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", b.entity.Name(), err)
			}
			class = node
		}

		if class != nil || len(fields) > 0 {
			p.bindings[kind] = &permissionBinding{class: class, fields: fields}
		}
	}
	return p, nil
}

func (b *permissionBuilder) parse(kind PermissionKind, raw string) (expression.Node, error) {
	if strings.TrimSpace(raw) == "" {
		b.logger.Warn("Poorly configured permission: no checks specified",
			zap.String("entity", b.entity.Name()),
			zap.Stringer("permission", kind))
		return nil, fmt.Errorf("%w '%s'", ErrPoorlyConfiguredPermission, kind)
	}

	node, err := expression.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w '%s': %v", ErrInvalidExpression, kind, err)
	}

	if b.known != nil {
		for _, id := range node.Identifiers(nil) {
			if !b.known(id) {
				return nil, fmt.Errorf("%w '%s' in %s", ErrUnknownCheck, id, kind)
			}
		}
	}
	return node, nil
}

// HasChecksForPermission reports whether any expression exists for kind
func (p *EntityPermissions) HasChecksForPermission(kind PermissionKind) bool {
	_, ok := p.bindings[kind]
	return ok
}

// ClassChecksForPermission returns the class-level expression for kind, or nil
func (p *EntityPermissions) ClassChecksForPermission(kind PermissionKind) expression.Node {
	if b, ok := p.bindings[kind]; ok {
		return b.class
	}
	return nil
}

// FieldChecksForPermission returns the field-level expression for kind, or nil
func (p *EntityPermissions) FieldChecksForPermission(field string, kind PermissionKind) expression.Node {
	if b, ok := p.bindings[kind]; ok {
		return b.fields[field]
	}
	return nil
}
