// Package dictionary provides the entity metadata registry. Model structs are
// bound once at startup; afterwards every consumer looks up ids, attributes,
// relationships, lifecycle hooks and permission expressions by type and
// field name instead of reflecting over the models directly.
package dictionary

import (
	"fmt"
	"strings"
)

// AccessType is the member discovery mode of a binding
type AccessType int

const (
	// AccessField binds all fields plus tagged computed and hook methods
	AccessField AccessType = iota
	// AccessProperty binds exported fields and exported methods
	AccessProperty
)

// String returns the string representation of the access type
func (a AccessType) String() string {
	switch a {
	case AccessField:
		return "FIELD"
	case AccessProperty:
		return "PROPERTY"
	default:
		return fmt.Sprintf("AccessType(%d)", int(a))
	}
}

// RelationshipType is the cardinality of a relationship
type RelationshipType int

const (
	RelationNone RelationshipType = iota
	RelationOneToOne
	RelationOneToMany
	RelationManyToOne
	RelationManyToMany
	RelationComputedNone
	RelationComputedOneToOne
	RelationComputedOneToMany
	RelationComputedManyToOne
	RelationComputedManyToMany
)

var relationshipNames = map[RelationshipType]string{
	RelationNone:               "NONE",
	RelationOneToOne:           "ONE_TO_ONE",
	RelationOneToMany:          "ONE_TO_MANY",
	RelationManyToOne:          "MANY_TO_ONE",
	RelationManyToMany:         "MANY_TO_MANY",
	RelationComputedNone:       "COMPUTED_NONE",
	RelationComputedOneToOne:   "COMPUTED_ONE_TO_ONE",
	RelationComputedOneToMany:  "COMPUTED_ONE_TO_MANY",
	RelationComputedManyToOne:  "COMPUTED_MANY_TO_ONE",
	RelationComputedManyToMany: "COMPUTED_MANY_TO_MANY",
}

// String returns the string representation of the relationship type
func (r RelationshipType) String() string {
	if name, ok := relationshipNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RelationshipType(%d)", int(r))
}

// IsToOne reports whether the relationship references a single model
func (r RelationshipType) IsToOne() bool {
	switch r {
	case RelationOneToOne, RelationManyToOne, RelationComputedOneToOne, RelationComputedManyToOne:
		return true
	}
	return false
}

// IsToMany reports whether the relationship references a collection
func (r RelationshipType) IsToMany() bool {
	switch r {
	case RelationOneToMany, RelationManyToMany, RelationComputedOneToMany, RelationComputedManyToMany:
		return true
	}
	return false
}

// IsComputed reports whether the relationship is computed rather than persisted
func (r RelationshipType) IsComputed() bool {
	return r >= RelationComputedNone
}

// computed returns the computed counterpart of a persisted relationship type
func (r RelationshipType) computed() RelationshipType {
	if r.IsComputed() {
		return r
	}
	return r + RelationComputedNone
}

// CascadeType names an operation that propagates across a relationship
type CascadeType int

const (
	CascadeAll CascadeType = iota
	CascadePersist
	CascadeMerge
	CascadeRemove
	CascadeRefresh
	CascadeDetach
)

// String returns the string representation of the cascade type
func (c CascadeType) String() string {
	switch c {
	case CascadeAll:
		return "ALL"
	case CascadePersist:
		return "PERSIST"
	case CascadeMerge:
		return "MERGE"
	case CascadeRemove:
		return "REMOVE"
	case CascadeRefresh:
		return "REFRESH"
	case CascadeDetach:
		return "DETACH"
	default:
		return fmt.Sprintf("CascadeType(%d)", int(c))
	}
}

// ParseCascadeType parses a cascade name (case-insensitive)
func ParseCascadeType(s string) (CascadeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return CascadeAll, nil
	case "persist":
		return CascadePersist, nil
	case "merge":
		return CascadeMerge, nil
	case "remove":
		return CascadeRemove, nil
	case "refresh":
		return CascadeRefresh, nil
	case "detach":
		return CascadeDetach, nil
	default:
		return 0, fmt.Errorf("unknown cascade type: %q", s)
	}
}

// Operation is the CRUD operation a lifecycle hook is bound to
type Operation int

const (
	OperationCreate Operation = iota
	OperationRead
	OperationUpdate
	OperationDelete
)

// String returns the string representation of the operation
func (o Operation) String() string {
	switch o {
	case OperationCreate:
		return "CREATE"
	case OperationRead:
		return "READ"
	case OperationUpdate:
		return "UPDATE"
	case OperationDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// ParseOperation parses an operation name (case-insensitive)
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(s) {
	case "create":
		return OperationCreate, nil
	case "read":
		return OperationRead, nil
	case "update":
		return OperationUpdate, nil
	case "delete":
		return OperationDelete, nil
	default:
		return 0, fmt.Errorf("unknown operation: %q", s)
	}
}

// TransactionPhase is the point in a request a lifecycle hook runs at
type TransactionPhase int

const (
	PhasePreSecurity TransactionPhase = iota
	PhasePreFlush
	PhasePreCommit
	PhasePostCommit
)

// String returns the string representation of the phase
func (p TransactionPhase) String() string {
	switch p {
	case PhasePreSecurity:
		return "PRESECURITY"
	case PhasePreFlush:
		return "PREFLUSH"
	case PhasePreCommit:
		return "PRECOMMIT"
	case PhasePostCommit:
		return "POSTCOMMIT"
	default:
		return fmt.Sprintf("TransactionPhase(%d)", int(p))
	}
}

// ParseTransactionPhase parses a phase name (case-insensitive)
func ParseTransactionPhase(s string) (TransactionPhase, error) {
	switch strings.ToLower(s) {
	case "presecurity":
		return PhasePreSecurity, nil
	case "preflush":
		return PhasePreFlush, nil
	case "precommit":
		return PhasePreCommit, nil
	case "postcommit":
		return PhasePostCommit, nil
	default:
		return 0, fmt.Errorf("unknown transaction phase: %q", s)
	}
}

// PermissionKind identifies a permission expression slot
type PermissionKind int

const (
	PermissionRead PermissionKind = iota
	PermissionCreate
	PermissionUpdate
	PermissionDelete
	PermissionNonTransferable
)

// String returns the string representation of the permission kind
func (k PermissionKind) String() string {
	switch k {
	case PermissionRead:
		return "ReadPermission"
	case PermissionCreate:
		return "CreatePermission"
	case PermissionUpdate:
		return "UpdatePermission"
	case PermissionDelete:
		return "DeletePermission"
	case PermissionNonTransferable:
		return "NonTransferable"
	default:
		return fmt.Sprintf("PermissionKind(%d)", int(k))
	}
}

// tagKey returns the tag option carrying the expression for this kind
func (k PermissionKind) tagKey() string {
	switch k {
	case PermissionRead:
		return optRead
	case PermissionCreate:
		return optCreate
	case PermissionUpdate:
		return optUpdate
	case PermissionDelete:
		return optDelete
	default:
		return optNonTransferable
	}
}

// PermissionKinds lists every kind in binding order
var PermissionKinds = []PermissionKind{
	PermissionRead,
	PermissionCreate,
	PermissionDelete,
	PermissionNonTransferable,
	PermissionUpdate,
}
