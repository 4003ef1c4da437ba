// Package merge maps sparse real labels to the more frequent labels a
// classifier should predict instead.
package merge

import (
	"sort"

	"github.com/cognicore/labelhier/pkg/labelhier/decompose"
	"github.com/cognicore/labelhier/pkg/labelhier/graph"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// Options tunes MapLowFreqLabels.
type Options struct {
	// DescendantMinFreq is the threshold used when resolving a sparse
	// successor through its descendants. Nil means the mapping threshold;
	// an explicit zero accepts every descendant.
	DescendantMinFreq *int64
	// Policy selects how sub-threshold successors are expanded.
	Policy decompose.Policy
}

// Qualifies reports whether a node is a merge candidate: an observed label
// with more than one token whose weight is below minFreq.
func Qualifies(g *graph.Graph, k ngram.Key, minFreq int64) bool {
	attrs, ok := g.Attrs(k)
	return ok && attrs.RealLabel && attrs.Weight < minFreq && k.Len() > 1
}

// MapLowFreqLabels builds the merge mapping. For every candidate, direct
// successors are visited heaviest first (ties keep graph order); popular
// successors are accepted as they are, the others are replaced by their
// popular descendants. Nodes that are not candidates are absent.
func MapLowFreqLabels(g *graph.Graph, minFreq int64, opts Options) *Mapping {
	descMin := minFreq
	if opts.DescendantMinFreq != nil {
		descMin = *opts.DescendantMinFreq
	}

	b := newBuilder()
	for _, k := range g.Nodes() {
		if !Qualifies(g, k, minFreq) {
			continue
		}
		targets := ngram.Set{}
		for _, s := range bySuccessorWeight(g, k) {
			if decompose.Popular(g, s, minFreq) {
				targets.Add(s)
				continue
			}
			targets.Union(decompose.PopularDescendants(g, s, descMin, opts.Policy))
		}
		b.put(k, targets)
	}
	return b.build()
}

func bySuccessorWeight(g *graph.Graph, k ngram.Key) []ngram.Key {
	succ := g.Successors(k)
	sort.SliceStable(succ, func(i, j int) bool {
		wi, _ := g.Attrs(succ[i])
		wj, _ := g.Attrs(succ[j])
		return wi.Weight > wj.Weight
	})
	return succ
}
