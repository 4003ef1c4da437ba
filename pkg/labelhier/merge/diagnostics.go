package merge

import (
	"sort"

	"github.com/cognicore/labelhier/pkg/labelhier/graph"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// Hub is a node together with the mean weight of its ancestors.
type Hub struct {
	Label              ngram.Key
	Ancestors          int
	MeanAncestorWeight float64
}

// FindLowFreqHubs lists nodes that have ancestors with a positive mean
// weight, weakest first. Nodes many sparse phrases reduce to surface here.
func FindLowFreqHubs(g *graph.Graph) []Hub {
	var hubs []Hub
	for _, k := range g.Nodes() {
		anc := g.Ancestors(k)
		if len(anc) == 0 {
			continue
		}
		var sum int64
		for a := range anc {
			attrs, _ := g.Attrs(a)
			sum += attrs.Weight
		}
		mean := float64(sum) / float64(len(anc))
		if mean <= 0 {
			continue
		}
		hubs = append(hubs, Hub{Label: k, Ancestors: len(anc), MeanAncestorWeight: mean})
	}
	sort.SliceStable(hubs, func(i, j int) bool {
		if hubs[i].MeanAncestorWeight != hubs[j].MeanAncestorWeight {
			return hubs[i].MeanAncestorWeight < hubs[j].MeanAncestorWeight
		}
		return hubs[i].Label < hubs[j].Label
	})
	return hubs
}

// Cooccurrence is a phrase observed more often than one of its sub-phrases.
type Cooccurrence struct {
	Label       ngram.Key
	Predecessor ngram.Key
	Weight      int64
	PredWeight  int64
}

// FindStrongCooccurrence lists (node, predecessor) pairs where the longer
// phrase outweighs the shorter one, i.e. the shorter phrase mostly occurs
// inside the longer one.
func FindStrongCooccurrence(g *graph.Graph) []Cooccurrence {
	var out []Cooccurrence
	for _, k := range g.Nodes() {
		attrs, _ := g.Attrs(k)
		for _, p := range g.Predecessors(k) {
			pa, _ := g.Attrs(p)
			if pa.Weight > attrs.Weight {
				out = append(out, Cooccurrence{Label: k, Predecessor: p, Weight: attrs.Weight, PredWeight: pa.Weight})
			}
		}
	}
	return out
}
