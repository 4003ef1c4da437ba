package stoplist

import (
	"sort"

	"github.com/cognicore/labelhier/pkg/labelhier/graph"
)

// Stats describes how a token is used inside observed multi-token labels.
type Stats struct {
	Token         string
	Labels        int64   // real multi-token labels containing the token
	LabelPercent  float64 // Labels as a percentage of all real multi-token labels
	InteriorRatio float64 // share of occurrences away from either boundary
}

// Candidate is a token that looks like a function word.
type Candidate struct {
	Token string
	Stats Stats
	Score float64
}

// Thresholds defines criteria for stop-word candidates.
type Thresholds struct {
	LabelPercent  float64 // e.g. 2% of labels contain the token
	InteriorRatio float64 // e.g. 0.9 of its occurrences are interior
}

// DefaultThresholds returns the thresholds used by the analyze command.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LabelPercent:  2.0,
		InteriorRatio: 0.9,
	}
}

// CollectStats gathers token usage over the real multi-token labels in g.
// Annotated labels rarely begin or end with a function word, so tokens that
// are common but almost always interior are likely stop words.
func CollectStats(g *graph.Graph) []Stats {
	type acc struct {
		labels, interior, total int64
	}
	per := map[string]*acc{}
	var labels int64

	for _, k := range g.Nodes() {
		attrs, _ := g.Attrs(k)
		n := g.NGram(k)
		if !attrs.RealLabel || len(n) < 2 {
			continue
		}
		labels++
		seen := map[string]bool{}
		for i, tok := range n {
			a := per[tok]
			if a == nil {
				a = &acc{}
				per[tok] = a
			}
			a.total++
			if i > 0 && i < len(n)-1 {
				a.interior++
			}
			if !seen[tok] {
				seen[tok] = true
				a.labels++
			}
		}
	}

	out := make([]Stats, 0, len(per))
	for tok, a := range per {
		out = append(out, Stats{
			Token:         tok,
			Labels:        a.labels,
			LabelPercent:  100 * float64(a.labels) / float64(labels),
			InteriorRatio: float64(a.interior) / float64(a.total),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out
}

// SuggestCandidates suggests tokens that should be stop words, best first.
// Tokens already on the list are skipped.
func (m *Manager) SuggestCandidates(stats []Stats, th Thresholds) []Candidate {
	var candidates []Candidate
	for _, s := range stats {
		if m.IsStop(s.Token) {
			continue
		}
		if s.LabelPercent < th.LabelPercent || s.InteriorRatio < th.InteriorRatio {
			continue
		}
		candidates = append(candidates, Candidate{
			Token: s.Token,
			Stats: s,
			Score: (s.LabelPercent/100.0 + s.InteriorRatio) / 2.0,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Token < candidates[j].Token
	})
	return candidates
}
