package graph

import (
	"encoding/json"
	"fmt"
)

// Label discriminates the kinds of graph nodes.
type Label string

const (
	LabelDocument Label = "Document"
	LabelEntity   Label = "Entity"
	LabelChunk    Label = "Chunk"
	LabelLineItem Label = "LineItem"
)

// Relation names the type of a directed edge.
type Relation string

const (
	RelHasEntity   Relation = "HAS_ENTITY"
	RelHasChunk    Relation = "HAS_CHUNK"
	RelHasLineItem Relation = "HAS_LINEITEM"
	RelItemFor     Relation = "ITEM_FOR"
	RelMentions    Relation = "MENTIONS"
)

// Node is a graph vertex. Only the attributes of its Label are set:
//
//   - Document: DocName, Path
//   - Entity:   Type, Name
//   - Chunk:    Type, DocName, Page
//   - LineItem: Desc, ExtCost, Page
type Node struct {
	ID      string   `json:"id"`
	Label   Label    `json:"label"`
	DocName string   `json:"docname,omitempty"`
	Path    string   `json:"path,omitempty"`
	Type    string   `json:"type,omitempty"`
	Name    string   `json:"name,omitempty"`
	Page    *int     `json:"page,omitempty"`
	Desc    string   `json:"desc,omitempty"`
	ExtCost *float64 `json:"ext_cost,omitempty"`
}

// Edge is a directed, relation-typed edge between two node IDs.
type Edge struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Relation Relation `json:"relation"`
}

// Graph is an in-memory directed graph keyed by node ID. Nodes and edges
// are unique by ID and by (source, target, relation) respectively, so
// merging graphs is a union. Insertion order is kept for serialization.
//
// A Graph is not safe for concurrent mutation.
type Graph struct {
	nodes map[string]Node
	order []string

	edges   []Edge
	edgeSet map[Edge]struct{}
	out     map[string][]int
	in      map[string][]int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]Node),
		edgeSet: make(map[Edge]struct{}),
		out:     make(map[string][]int),
		in:      make(map[string][]int),
	}
}

// AddNode inserts n and reports whether it was new. A node whose ID is
// already present is left untouched; the first insertion wins.
func (g *Graph) AddNode(n Node) bool {
	if _, ok := g.nodes[n.ID]; ok {
		return false
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return true
}

// AddEdge inserts the edge source -relation-> target and reports whether it
// was new.
func (g *Graph) AddEdge(source, target string, relation Relation) bool {
	e := Edge{Source: source, Target: target, Relation: relation}
	if _, ok := g.edgeSet[e]; ok {
		return false
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	idx := len(g.edges) - 1
	g.out[source] = append(g.out[source], idx)
	g.in[target] = append(g.in[target], idx)
	return true
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodesByLabel returns the nodes carrying label in insertion order.
func (g *Graph) NodesByLabel(label Label) []Node {
	var out []Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Label == label {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// OutEdges returns the edges leaving id.
func (g *Graph) OutEdges(id string) []Edge {
	return g.collect(g.out[id])
}

// InEdges returns the edges entering id.
func (g *Graph) InEdges(id string) []Edge {
	return g.collect(g.in[id])
}

func (g *Graph) collect(idx []int) []Edge {
	out := make([]Edge, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.edges[i])
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Merge adds every node and edge of other to g.
func (g *Graph) Merge(other *Graph) {
	for _, id := range other.order {
		g.AddNode(other.nodes[id])
	}
	for _, e := range other.edges {
		g.AddEdge(e.Source, e.Target, e.Relation)
	}
}

type nodeLink struct {
	Directed   bool           `json:"directed"`
	Multigraph bool           `json:"multigraph"`
	Graph      map[string]any `json:"graph"`
	Nodes      []Node         `json:"nodes"`
	Links      []Edge         `json:"links"`
	Edges      []Edge         `json:"edges,omitempty"`
}

// MarshalJSON encodes the graph in node-link form.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeLink{
		Directed:   true,
		Multigraph: false,
		Graph:      map[string]any{},
		Nodes:      g.Nodes(),
		Links:      g.Edges(),
	})
}

// UnmarshalJSON decodes a node-link document into g, replacing its
// contents. Edges may be given under "links" or "edges".
func (g *Graph) UnmarshalJSON(data []byte) error {
	var doc nodeLink
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	*g = *New()
	for _, n := range doc.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node without id")
		}
		g.AddNode(n)
	}

	links := doc.Links
	if len(links) == 0 {
		links = doc.Edges
	}
	for _, e := range links {
		g.AddEdge(e.Source, e.Target, e.Relation)
	}
	return nil
}
