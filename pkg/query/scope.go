package query

import (
	"github.com/docgraph/docgraph/pkg/graph"
)

// Scope restricts retrieval to a set of chunk IDs. A nil Scope allows
// every chunk; an empty non-nil Scope allows none.
type Scope map[string]struct{}

// Allows reports whether id is inside the scope.
func (s Scope) Allows(id string) bool {
	if s == nil {
		return true
	}
	_, ok := s[id]
	return ok
}

// EntityScope returns the chunks connected to the entities named in names.
// Names match entity names case-insensitively after whitespace is
// collapsed. Without names the result is nil. Unknown and blank names
// contribute nothing, so a scope built only from them is empty.
//
// A chunk is connected when an edge joins it directly to the entity in
// either direction (paragraph MENTIONS), or when it owns a line item that
// is ITEM_FOR the entity (table rows).
func EntityScope(g *graph.Graph, names []string) Scope {
	if len(names) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = graph.NormalizeName(n); n != "" {
			wanted[n] = struct{}{}
		}
	}
	scope := Scope{}
	for _, ent := range g.NodesByLabel(graph.LabelEntity) {
		if _, ok := wanted[graph.NormalizeName(ent.Name)]; !ok {
			continue
		}
		for _, e := range g.InEdges(ent.ID) {
			src, ok := g.Node(e.Source)
			if !ok {
				continue
			}
			switch {
			case src.Label == graph.LabelChunk:
				scope[src.ID] = struct{}{}
			case src.Label == graph.LabelLineItem && e.Relation == graph.RelItemFor:
				for _, owner := range g.InEdges(src.ID) {
					if n, ok := g.Node(owner.Source); ok && n.Label == graph.LabelChunk {
						scope[n.ID] = struct{}{}
					}
				}
			}
		}
		for _, e := range g.OutEdges(ent.ID) {
			if n, ok := g.Node(e.Target); ok && n.Label == graph.LabelChunk {
				scope[n.ID] = struct{}{}
			}
		}
	}
	return scope
}

// entityIDs returns the IDs of entities matching names, for tracing.
func entityIDs(g *graph.Graph, names []string) []string {
	var out []string
	for _, ent := range g.NodesByLabel(graph.LabelEntity) {
		for _, n := range names {
			if graph.NormalizeName(n) == graph.NormalizeName(ent.Name) {
				out = append(out, ent.ID)
				break
			}
		}
	}
	return out
}
