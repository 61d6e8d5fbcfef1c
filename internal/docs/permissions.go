package docs

import (
	"reflect"

	"github.com/yahoo/elide-sub004/internal/dictionary"
	"github.com/yahoo/elide-sub004/internal/expression"
)

// Operations whose permission is the deny-all role are left out of the
// document entirely. Missing permissions never deny.

func isNone(node expression.Node) bool {
	return node != nil && dictionary.IsDenyAll(node.String())
}

func (b *Builder) classAllows(t reflect.Type, kind dictionary.PermissionKind) bool {
	return !isNone(b.dictionary.PermissionsForClass(t, kind))
}

func (b *Builder) fieldAllows(t reflect.Type, field string, kind dictionary.PermissionKind) bool {
	return !isNone(b.dictionary.PermissionsForField(t, field, kind))
}

func (b *Builder) idExcluded(t reflect.Type) bool {
	_, excluded := b.dictionary.IDTag(t, "exclude")
	return excluded
}

func (b *Builder) canCreate(t reflect.Type) bool {
	return b.classAllows(t, dictionary.PermissionCreate)
}

func (b *Builder) canRead(t reflect.Type) bool {
	return b.classAllows(t, dictionary.PermissionRead)
}

func (b *Builder) canReadByID(t reflect.Type) bool {
	return b.canRead(t) && !b.idExcluded(t)
}

func (b *Builder) canUpdateByID(t reflect.Type) bool {
	return b.classAllows(t, dictionary.PermissionUpdate) && !b.idExcluded(t)
}

func (b *Builder) canDeleteByID(t reflect.Type) bool {
	return b.classAllows(t, dictionary.PermissionDelete) && !b.idExcluded(t)
}

func (b *Builder) canReadField(t reflect.Type, field string) bool {
	return b.fieldAllows(t, field, dictionary.PermissionRead)
}

func (b *Builder) canUpdateField(t reflect.Type, field string) bool {
	return b.fieldAllows(t, field, dictionary.PermissionUpdate)
}
