// Package decompose resolves sparse labels towards frequent descendants and
// decomposes labels into the terminal labels ("roots") they contain.
package decompose

import (
	"fmt"

	"github.com/cognicore/labelhier/pkg/labelhier/graph"
	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// Policy controls how PopularDescendants treats sub-threshold successors.
type Policy int

const (
	// SinglePath stops scanning a node's successors at the first one below
	// threshold and continues the walk into that successor alone. Successors
	// accepted before it are kept; later siblings are never examined.
	SinglePath Policy = iota
	// AllPaths continues the walk into every sub-threshold successor.
	AllPaths
)

// ParsePolicy maps "single-path"/"all-paths" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "single-path", "":
		return SinglePath, nil
	case "all-paths":
		return AllPaths, nil
	}
	return 0, fmt.Errorf("descendant policy %q: %w", s, internalerr.ErrInvalidConfig)
}

func (p Policy) String() string {
	if p == AllPaths {
		return "all-paths"
	}
	return "single-path"
}

// Popular reports whether a node's weight or ancestor support reaches minFreq.
func Popular(g *graph.Graph, k ngram.Key, minFreq int64) bool {
	attrs, _ := g.Attrs(k)
	return attrs.Weight >= minFreq || attrs.AncestorSupport >= minFreq
}

// PopularDescendants returns the nearest descendants of start that are
// popular at minFreq. A node without successors yields an empty set.
// The walk uses an explicit stack and never revisits a node.
func PopularDescendants(g *graph.Graph, start ngram.Key, minFreq int64, policy Policy) ngram.Set {
	found := ngram.Set{}
	visited := ngram.Set{}
	stack := []ngram.Key{start}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Has(cur) {
			continue
		}
		visited.Add(cur)

		succ := g.Successors(cur)
		var failing []ngram.Key
		for _, s := range succ {
			if Popular(g, s, minFreq) {
				found.Add(s)
				continue
			}
			failing = append(failing, s)
			if policy == SinglePath {
				break
			}
		}
		// Reverse so the first failing successor is expanded first.
		for i := len(failing) - 1; i >= 0; i-- {
			stack = append(stack, failing[i])
		}
	}
	return found
}
