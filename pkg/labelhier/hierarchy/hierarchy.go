// Package hierarchy builds a label hierarchy from observed label counts.
//
// Every observed label becomes a real node weighted by its count. Each label
// is then shortened one boundary token at a time until single tokens remain;
// shortened phrases that were never observed enter as synthetic nodes.
// Finally every node's ancestor support is set to the summed weight of its
// strict descendants.
package hierarchy

import (
	"fmt"
	"sort"

	"github.com/cognicore/labelhier/pkg/labelhier/graph"
	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// LabelCount is one observed label and how often it was annotated.
type LabelCount struct {
	Label ngram.NGram
	Count int64
}

// Stats summarizes a build.
type Stats struct {
	RealLabels      int
	SyntheticLabels int
	Edges           int
	MaxLength       int
}

// Build assembles the hierarchy. Repeated labels have their counts summed.
func Build(labels []LabelCount) (*graph.Graph, Stats, error) {
	var stats Stats
	g := graph.New()

	weights := make(map[ngram.Key]int64, len(labels))
	var order []ngram.NGram
	for _, lc := range labels {
		if err := lc.Label.Validate(); err != nil {
			return nil, stats, fmt.Errorf("build hierarchy: %w", err)
		}
		if lc.Count < 0 {
			return nil, stats, fmt.Errorf("build hierarchy: %w: negative count for %s", internalerr.ErrInvalidInput, lc.Label)
		}
		k := lc.Label.Key()
		if _, ok := weights[k]; !ok {
			order = append(order, lc.Label)
		}
		weights[k] += lc.Count
	}

	for _, label := range order {
		if err := g.AddNode(label, graph.Attrs{Weight: weights[label.Key()], RealLabel: true}); err != nil {
			return nil, stats, err
		}
		if len(label) > stats.MaxLength {
			stats.MaxLength = len(label)
		}
	}

	expanded := ngram.Set{}
	for _, label := range order {
		stack := []ngram.NGram{label}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if expanded.Has(cur.Key()) {
				continue
			}
			expanded.Add(cur.Key())
			for _, red := range cur.BoundaryReductions() {
				if err := g.AddEdge(cur, red); err != nil {
					return nil, stats, err
				}
				stack = append(stack, red)
			}
		}
	}

	AggregateSupport(g)

	for _, k := range g.Nodes() {
		attrs, _ := g.Attrs(k)
		if attrs.RealLabel {
			stats.RealLabels++
		} else {
			stats.SyntheticLabels++
		}
	}
	stats.Edges = g.EdgeCount()
	return g, stats, nil
}

// AggregateSupport recomputes ancestor support for every node as the summed
// weight of its strict descendants.
func AggregateSupport(g *graph.Graph) {
	for _, k := range g.Nodes() {
		var support int64
		for d := range g.Descendants(k) {
			attrs, _ := g.Attrs(d)
			support += attrs.Weight
		}
		attrs, _ := g.Attrs(k)
		attrs.AncestorSupport = support
		_ = g.SetAttrs(k, attrs)
	}
}

// FromCounts converts a label → count map into a deterministic LabelCount slice.
func FromCounts(counts map[ngram.Key]int64) []LabelCount {
	keys := make([]ngram.Key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]LabelCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, LabelCount{Label: k.NGram(), Count: counts[k]})
	}
	return out
}
