// Package graph holds the label hierarchy: a directed acyclic graph whose
// nodes are n-gram labels and whose edges point from a phrase to the shorter
// phrases obtained by dropping one boundary token.
//
// Iteration order of nodes, successors and predecessors is insertion order.
// The graph is not safe for concurrent mutation; read-only passes may share it.
package graph

import (
	"fmt"

	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// Attrs is the attribute record carried by every label node.
// Absent attributes in persisted hierarchies decode to the zero value.
type Attrs struct {
	Weight          int64 // observed frequency of the label
	AncestorSupport int64 // aggregate weight inherited from descendants
	RealLabel       bool  // observed as an annotated label, not a synthetic sub-phrase
}

// Edge is a directed super-phrase → sub-phrase relation.
type Edge struct {
	From, To ngram.Key
}

type node struct {
	id    ngram.NGram
	attrs Attrs
	succ  []ngram.Key
	pred  []ngram.Key
}

// Graph is the label hierarchy.
type Graph struct {
	nodes map[ngram.Key]*node
	order []ngram.Key
	edges int
}

// New creates an empty hierarchy.
func New() *Graph {
	return &Graph{nodes: make(map[ngram.Key]*node)}
}

// AddNode inserts a node or, when it already exists, replaces its attributes.
// Ids failing ngram.Validate are rejected with ErrInvalidInput.
func (g *Graph) AddNode(id ngram.NGram, attrs Attrs) error {
	if err := id.Validate(); err != nil {
		return fmt.Errorf("add node: %w", err)
	}
	k := id.Key()
	if n, ok := g.nodes[k]; ok {
		n.attrs = attrs
		return nil
	}
	g.nodes[k] = &node{id: ngram.Of(id...), attrs: attrs}
	g.order = append(g.order, k)
	return nil
}

// SetAttrs replaces the attributes of an existing node.
func (g *Graph) SetAttrs(k ngram.Key, attrs Attrs) error {
	n, ok := g.nodes[k]
	if !ok {
		return fmt.Errorf("set attrs %s: %w", k, internalerr.ErrNotFound)
	}
	n.attrs = attrs
	return nil
}

// AddEdge links a phrase to one of its boundary reductions. Missing endpoints
// are created with zero attributes. Duplicate edges are ignored.
func (g *Graph) AddEdge(from, to ngram.NGram) error {
	if !to.IsBoundaryReductionOf(from) {
		return fmt.Errorf("add edge %s -> %s: %w", from, to, internalerr.ErrInvalidEdge)
	}
	fk, tk := from.Key(), to.Key()
	if !g.HasKey(fk) {
		if err := g.AddNode(from, Attrs{}); err != nil {
			return err
		}
	}
	if !g.HasKey(tk) {
		if err := g.AddNode(to, Attrs{}); err != nil {
			return err
		}
	}
	fn := g.nodes[fk]
	for _, s := range fn.succ {
		if s == tk {
			return nil
		}
	}
	fn.succ = append(fn.succ, tk)
	g.nodes[tk].pred = append(g.nodes[tk].pred, fk)
	g.edges++
	return nil
}

// HasKey reports whether a node exists.
func (g *Graph) HasKey(k ngram.Key) bool {
	_, ok := g.nodes[k]
	return ok
}

// Has reports whether the n-gram is a node.
func (g *Graph) Has(id ngram.NGram) bool {
	return g.HasKey(id.Key())
}

// HasEdge reports whether from → to exists.
func (g *Graph) HasEdge(from, to ngram.Key) bool {
	n, ok := g.nodes[from]
	if !ok {
		return false
	}
	for _, s := range n.succ {
		if s == to {
			return true
		}
	}
	return false
}

// Attrs returns a node's attributes. Missing nodes report zero attributes and false.
func (g *Graph) Attrs(k ngram.Key) (Attrs, bool) {
	n, ok := g.nodes[k]
	if !ok {
		return Attrs{}, false
	}
	return n.attrs, true
}

// NGram returns the token sequence of a node.
func (g *Graph) NGram(k ngram.Key) ngram.NGram {
	if n, ok := g.nodes[k]; ok {
		return ngram.Of(n.id...)
	}
	return k.NGram()
}

// Nodes returns all node keys in insertion order.
func (g *Graph) Nodes() []ngram.Key {
	out := make([]ngram.Key, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Edges returns all edges ordered by source insertion, then successor order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for _, k := range g.order {
		for _, s := range g.nodes[k].succ {
			out = append(out, Edge{From: k, To: s})
		}
	}
	return out
}

// Successors returns the direct sub-phrases of a node.
func (g *Graph) Successors(k ngram.Key) []ngram.Key {
	n, ok := g.nodes[k]
	if !ok {
		return nil
	}
	out := make([]ngram.Key, len(n.succ))
	copy(out, n.succ)
	return out
}

// Predecessors returns the direct super-phrases of a node.
func (g *Graph) Predecessors(k ngram.Key) []ngram.Key {
	n, ok := g.nodes[k]
	if !ok {
		return nil
	}
	out := make([]ngram.Key, len(n.pred))
	copy(out, n.pred)
	return out
}

// OutDegree returns the number of successors.
func (g *Graph) OutDegree(k ngram.Key) int {
	if n, ok := g.nodes[k]; ok {
		return len(n.succ)
	}
	return 0
}

// InDegree returns the number of predecessors.
func (g *Graph) InDegree(k ngram.Key) int {
	if n, ok := g.nodes[k]; ok {
		return len(n.pred)
	}
	return 0
}

// RemoveNodes deletes nodes together with their incident edges and returns
// how many were present.
func (g *Graph) RemoveNodes(keys ...ngram.Key) int {
	removed := make(ngram.Set, len(keys))
	for _, k := range keys {
		n, ok := g.nodes[k]
		if !ok || removed.Has(k) {
			continue
		}
		for _, s := range n.succ {
			if sn, ok := g.nodes[s]; ok {
				sn.pred = without(sn.pred, k)
			}
		}
		for _, p := range n.pred {
			if pn, ok := g.nodes[p]; ok {
				pn.succ = without(pn.succ, k)
			}
		}
		g.edges -= len(n.succ) + len(n.pred)
		delete(g.nodes, k)
		removed.Add(k)
	}
	if len(removed) == 0 {
		return 0
	}
	order := g.order[:0]
	for _, k := range g.order {
		if !removed.Has(k) {
			order = append(order, k)
		}
	}
	g.order = order
	return len(removed)
}

func without(keys []ngram.Key, drop ngram.Key) []ngram.Key {
	out := keys[:0]
	for _, k := range keys {
		if k != drop {
			out = append(out, k)
		}
	}
	return out
}

// Clone returns a deep copy.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes: make(map[ngram.Key]*node, len(g.nodes)),
		order: make([]ngram.Key, len(g.order)),
		edges: g.edges,
	}
	copy(c.order, g.order)
	for k, n := range g.nodes {
		c.nodes[k] = &node{
			id:    n.id,
			attrs: n.attrs,
			succ:  append([]ngram.Key(nil), n.succ...),
			pred:  append([]ngram.Key(nil), n.pred...),
		}
	}
	return c
}
