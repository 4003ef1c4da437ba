package graph

import (
	"fmt"

	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// Direction selects which side of a node a walk or subgraph covers.
type Direction int

const (
	// Descendants follows successor edges (towards shorter phrases).
	Descendants Direction = iota
	// Ancestors follows predecessor edges (towards longer phrases).
	Ancestors
)

// ParseDirection maps "descendants"/"ancestors" to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "descendants", "":
		return Descendants, nil
	case "ancestors":
		return Ancestors, nil
	}
	return 0, fmt.Errorf("direction %q: %w", s, internalerr.ErrInvalidInput)
}

func (d Direction) String() string {
	if d == Ancestors {
		return "ancestors"
	}
	return "descendants"
}

// Descendants returns every node reachable via successor edges, excluding k.
func (g *Graph) Descendants(k ngram.Key) ngram.Set {
	return g.reach(k, Descendants)
}

// Ancestors returns every node that reaches k via successor edges, excluding k.
func (g *Graph) Ancestors(k ngram.Key) ngram.Set {
	return g.reach(k, Ancestors)
}

// reach walks with an explicit stack and a visited set.
func (g *Graph) reach(start ngram.Key, dir Direction) ngram.Set {
	seen := ngram.Set{}
	n, ok := g.nodes[start]
	if !ok {
		return seen
	}
	stack := append([]ngram.Key(nil), g.neighbours(n, dir)...)
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if k == start || seen.Has(k) {
			continue
		}
		seen.Add(k)
		if next, ok := g.nodes[k]; ok {
			stack = append(stack, g.neighbours(next, dir)...)
		}
	}
	return seen
}

func (g *Graph) neighbours(n *node, dir Direction) []ngram.Key {
	if dir == Ancestors {
		return n.pred
	}
	return n.succ
}

// Subgraph returns a new graph induced by root plus all of its descendants or
// ancestors. Node order follows the parent graph.
func (g *Graph) Subgraph(root ngram.Key, dir Direction) (*Graph, error) {
	if !g.HasKey(root) {
		return nil, fmt.Errorf("subgraph %s: %w", root, internalerr.ErrNotFound)
	}
	keep := g.reach(root, dir)
	keep.Add(root)

	sg := New()
	for _, k := range g.order {
		if !keep.Has(k) {
			continue
		}
		n := g.nodes[k]
		if err := sg.AddNode(n.id, n.attrs); err != nil {
			return nil, err
		}
	}
	for _, e := range g.Edges() {
		if keep.Has(e.From) && keep.Has(e.To) {
			if err := sg.AddEdge(g.nodes[e.From].id, g.nodes[e.To].id); err != nil {
				return nil, err
			}
		}
	}
	return sg, nil
}
