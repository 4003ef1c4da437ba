package decompose

import (
	"github.com/cognicore/labelhier/pkg/labelhier/graph"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// RootMap maps a label to the roots it decomposes into.
type RootMap map[ngram.Key]ngram.Set

// Decomposition partitions the roots below a label.
type Decomposition struct {
	Roots     ngram.Set // terminal and popular by weight or ancestor support
	RealRoots ngram.Set // terminal, observed as a label, weight at threshold
}

func terminal(g *graph.Graph, k ngram.Key) bool {
	return g.OutDegree(k) == 0 && g.InDegree(k) > 0
}

// Roots returns terminal nodes referenced by a longer phrase whose weight or
// ancestor support reaches minFreq.
func Roots(g *graph.Graph, minFreq int64) ngram.Set {
	out := ngram.Set{}
	for _, k := range g.Nodes() {
		if terminal(g, k) && Popular(g, k, minFreq) {
			out.Add(k)
		}
	}
	return out
}

// FrequentRoots returns terminal nodes referenced by a longer phrase whose own
// weight reaches minFreq. These are the targets of DecomposeRealLabelsToRoots.
func FrequentRoots(g *graph.Graph, minFreq int64) ngram.Set {
	out := ngram.Set{}
	for _, k := range g.Nodes() {
		attrs, _ := g.Attrs(k)
		if terminal(g, k) && attrs.Weight >= minFreq {
			out.Add(k)
		}
	}
	return out
}

// RealRoots is FrequentRoots restricted to observed labels.
func RealRoots(g *graph.Graph, minFreq int64) ngram.Set {
	out := ngram.Set{}
	for _, k := range g.Nodes() {
		attrs, _ := g.Attrs(k)
		if terminal(g, k) && attrs.RealLabel && attrs.Weight >= minFreq {
			out.Add(k)
		}
	}
	return out
}

// DecomposeRealLabelsToRoots maps every multi-token node to the frequent
// roots among its descendants. A node without descendants is its own root;
// a node whose descendants contain no frequent root maps to an empty set.
func DecomposeRealLabelsToRoots(g *graph.Graph, minFreq int64) RootMap {
	roots := FrequentRoots(g, minFreq)
	out := RootMap{}
	for _, k := range g.Nodes() {
		if k.Len() <= 1 {
			continue
		}
		desc := g.Descendants(k)
		if len(desc) == 0 {
			out[k] = ngram.NewSet(k)
			continue
		}
		out[k] = intersect(desc, roots)
	}
	return out
}

// DecomposeToRoots partitions, for every multi-token real label, the roots
// below it into all popular roots and real roots.
func DecomposeToRoots(g *graph.Graph, minFreq int64) map[ngram.Key]Decomposition {
	roots := Roots(g, minFreq)
	realRoots := RealRoots(g, minFreq)
	out := map[ngram.Key]Decomposition{}
	for _, k := range g.Nodes() {
		attrs, _ := g.Attrs(k)
		if k.Len() <= 1 || !attrs.RealLabel {
			continue
		}
		desc := g.Descendants(k)
		if len(desc) == 0 {
			out[k] = Decomposition{Roots: ngram.NewSet(k), RealRoots: ngram.NewSet(k)}
			continue
		}
		out[k] = Decomposition{Roots: intersect(desc, roots), RealRoots: intersect(desc, realRoots)}
	}
	return out
}

func intersect(a, b ngram.Set) ngram.Set {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := ngram.Set{}
	for k := range a {
		if b.Has(k) {
			out.Add(k)
		}
	}
	return out
}
