package docs

import (
	"reflect"
	"strings"

	"go.uber.org/zap"
)

// PathMetaData is one node of the relationship graph reached from a root
// collection: the chain of parents, the relationship name and its target.
type PathMetaData struct {
	Lineage []*PathMetaData
	Name    string
	Type    reflect.Type

	alias string
	url   string
}

func (b *Builder) newRootPath(t reflect.Type) *PathMetaData {
	return b.newPath(nil, b.dictionary.JSONAliasFor(t), t)
}

func (b *Builder) newPath(lineage []*PathMetaData, name string, t reflect.Type) *PathMetaData {
	p := &PathMetaData{
		Lineage: lineage,
		Name:    name,
		Type:    t,
		alias:   b.dictionary.JSONAliasFor(t),
	}
	p.url = p.CollectionURL() + "/{" + p.alias + "Id}"
	return p
}

// IsRoot reports whether p is a root collection
func (p *PathMetaData) IsRoot() bool {
	return len(p.Lineage) == 0
}

func (p *PathMetaData) parent() *PathMetaData {
	return p.Lineage[len(p.Lineage)-1]
}

// URL is the instance URL
func (p *PathMetaData) URL() string {
	return p.url
}

// CollectionURL is the URL listing the targets of the path
func (p *PathMetaData) CollectionURL() string {
	if p.IsRoot() {
		return "/" + p.Name
	}
	return p.parent().URL() + "/" + p.Name
}

// RelationshipURL is the linkage URL of a nested path; root collections
// have none and yield ""
func (p *PathMetaData) RelationshipURL() string {
	if p.IsRoot() {
		return ""
	}
	return p.parent().URL() + "/relationships/" + p.Name
}

// FullLineage is the lineage followed by p itself
func (p *PathMetaData) FullLineage() []*PathMetaData {
	full := make([]*PathMetaData, 0, len(p.Lineage)+1)
	full = append(full, p.Lineage...)
	return append(full, p)
}

// ShorterThan compares instance URLs by segment count
func (p *PathMetaData) ShorterThan(other *PathMetaData) bool {
	return len(strings.Split(p.url, "/")) < len(strings.Split(other.url, "/"))
}

// String returns the instance URL
func (p *PathMetaData) String() string {
	return p.url
}

func (p *PathMetaData) lineageContainsType(t reflect.Type) bool {
	if p.Type == t {
		return true
	}
	for _, ancestor := range p.Lineage {
		if ancestor.Type == t {
			return true
		}
	}
	return false
}

// find walks the relationship graph breadth first from root. A target is not
// expanded when it already appears in its own lineage or is not managed.
func (b *Builder) find(root reflect.Type, managed map[reflect.Type]bool) []*PathMetaData {
	var paths []*PathMetaData
	queue := []*PathMetaData{b.newRootPath(root)}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if !b.dictionary.HasBinding(current.Type) {
			b.logger.Debug("skipping unbound path", zap.String("url", current.URL()))
			continue
		}

		for _, relationship := range b.dictionary.Relationships(current.Type) {
			target := b.dictionary.ParameterizedType(current.Type, relationship, 0)
			if target == nil || current.lineageContainsType(target) || !managed[target] {
				continue
			}
			queue = append(queue, b.newPath(current.FullLineage(), relationship, target))
		}
		paths = append(paths, current)
	}
	return paths
}

type pathKey struct {
	t    reflect.Type
	name string
}

// prune drops duplicate URLs and, among paths reaching the same type through
// the same relationship name, every path longer than a nested alternative.
// Root collections never count as the shorter alternative.
func (b *Builder) prune(paths []*PathMetaData) []*PathMetaData {
	seen := make(map[string]bool, len(paths))
	groups := make(map[pathKey][]*PathMetaData)
	var unique []*PathMetaData
	for _, p := range paths {
		if seen[p.URL()] {
			continue
		}
		seen[p.URL()] = true
		unique = append(unique, p)
		key := pathKey{p.Type, p.Name}
		groups[key] = append(groups[key], p)
	}

	removed := make(map[*PathMetaData]bool)
	for _, group := range groups {
		for _, path := range group {
			for _, compare := range group {
				if compare.IsRoot() || compare == path {
					continue
				}
				if compare.ShorterThan(path) {
					removed[path] = true
					break
				}
			}
		}
	}

	kept := unique[:0]
	for _, p := range unique {
		if removed[p] {
			b.logger.Debug("pruned redundant path", zap.String("url", p.URL()))
			continue
		}
		kept = append(kept, p)
	}
	return kept
}
