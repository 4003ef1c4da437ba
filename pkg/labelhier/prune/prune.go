package prune

import (
	"github.com/cognicore/labelhier/pkg/labelhier/graph"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// Result summarizes a pruning run.
type Result struct {
	Before  int
	After   int
	Passes  int
	Removed []ngram.Key
}

// SparseRoots lists the nodes PruneSparseRoots would remove: zero out-degree
// and weight strictly below minFreq. Ancestor support is not consulted.
func SparseRoots(g *graph.Graph, minFreq int64) []ngram.Key {
	var sparse []ngram.Key
	for _, k := range g.Nodes() {
		if g.OutDegree(k) != 0 {
			continue
		}
		attrs, _ := g.Attrs(k)
		if attrs.Weight < minFreq {
			sparse = append(sparse, k)
		}
	}
	return sparse
}

// PruneSparseRoots removes sparse roots in place and returns the same graph.
// A parent whose last successor was removed is itself a leaf afterwards, so
// passes repeat until no sparse root is left. Running it again on the result
// removes nothing.
func PruneSparseRoots(g *graph.Graph, minFreq int64) *graph.Graph {
	Run(g, minFreq)
	return g
}

// Run is PruneSparseRoots with a report of what was removed.
func Run(g *graph.Graph, minFreq int64) Result {
	res := Result{Before: g.Len()}
	for {
		sparse := SparseRoots(g, minFreq)
		if len(sparse) == 0 {
			break
		}
		res.Passes++
		g.RemoveNodes(sparse...)
		res.Removed = append(res.Removed, sparse...)
	}
	res.After = g.Len()
	return res
}
