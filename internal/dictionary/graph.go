package dictionary

import (
	"reflect"
	"sort"
)

// WalkEntityGraph visits the entities reachable from roots breadth first,
// following only relationships to bound types. Each type is visited once
// and transformed into one result.
func WalkEntityGraph[T any](d *Dictionary, roots []reflect.Type, transform func(reflect.Type) T) []T {
	var results []T
	queue := make([]reflect.Type, 0, len(roots))
	visited := make(map[reflect.Type]bool)

	for _, r := range roots {
		r = indirect(r)
		if !visited[r] {
			visited[r] = true
			queue = append(queue, r)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		results = append(results, transform(current))

		for _, relationship := range d.ElideBoundRelationships(current) {
			target := d.LookupBoundClass(d.ParameterizedType(current, relationship, 0))
			if target == nil || visited[target] {
				continue
			}
			visited[target] = true
			queue = append(queue, target)
		}
	}
	return results
}

// RelationInverse returns the name of the peer relationship on the target
// of relation, or "" if the relationship is unidirectional
func (d *Dictionary) RelationInverse(t reflect.Type, relation string) string {
	b := d.binding(t)
	if mappedBy := b.relationshipToInverse[relation]; mappedBy != "" {
		return mappedBy
	}

	// t may be the owning side: look for a relationship on the target that
	// is mapped by this one and points back at t.
	inverseType := d.ParameterizedType(t, relation, 0)
	if inverseType == nil {
		return ""
	}
	inverse := d.binding(inverseType)
	names := make([]string, 0, len(inverse.relationshipToInverse))
	for name := range inverse.relationshipToInverse {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if inverse.relationshipToInverse[name] == relation && d.ParameterizedType(inverseType, name, 0) == b.EntityClass {
			return name
		}
	}
	return ""
}
