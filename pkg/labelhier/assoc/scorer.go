package assoc

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/labelhier/pkg/labelhier/graph"
	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// Ratio selects the cohesion formula.
type Ratio int

const (
	// SumRatio divides the unit count by the summed counts of the unit's
	// non-stop tokens.
	SumRatio Ratio = iota
	// JaccardRatio divides the unit count by the size of the union of the
	// token occurrence sets, Σ count(token) − (k−1)·count(unit), assuming
	// tokens overlap only where the unit occurs.
	JaccardRatio
)

// ParseRatio maps "sum"/"jaccard" to a Ratio.
func ParseRatio(s string) (Ratio, error) {
	switch s {
	case "sum", "":
		return SumRatio, nil
	case "jaccard":
		return JaccardRatio, nil
	}
	return 0, fmt.Errorf("cohesion ratio %q: %w", s, internalerr.ErrInvalidConfig)
}

func (r Ratio) String() string {
	if r == JaccardRatio {
		return "jaccard"
	}
	return "sum"
}

// Scores maps a multi-token n-gram to its cohesion score.
type Scores map[ngram.Key]float64

// Keys returns the scored n-grams in key order.
func (s Scores) Keys() []ngram.Key {
	out := make([]ngram.Key, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Scorer computes cohesion scores. The zero value counts sequentially with
// SumRatio.
type Scorer struct {
	// Workers bounds the number of goroutines counting node shards.
	Workers int
	Ratio   Ratio
}

// CalcTokenAssociation scores every counted multi-token n-gram of g with the
// default scorer.
func CalcTokenAssociation(g *graph.Graph, stops StopSet) Scores {
	// Sequential counting never fails.
	scores, _ := Scorer{}.Score(context.Background(), g, stops)
	return scores
}

// Count builds the sub-n-gram counter for g. The graph is only read.
func (s Scorer) Count(ctx context.Context, g *graph.Graph, stops StopSet) (*Counter, error) {
	nodes := g.Nodes()
	if s.Workers <= 1 || len(nodes) < 2 {
		c := NewCounter()
		for _, k := range nodes {
			c.AddLabel(g.NGram(k), stops)
		}
		return c, nil
	}

	shards := shard(nodes, s.Workers)
	// Each worker owns one slot, so no lock is needed.
	partial := make([]*Counter, len(shards))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.Workers)
	for i, part := range shards {
		eg.Go(func() error {
			c := NewCounter()
			for _, k := range part {
				if err := egCtx.Err(); err != nil {
					return err
				}
				c.AddLabel(g.NGram(k), stops)
			}
			partial[i] = c
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("count sub-ngrams: %w", err)
	}

	// Merge in shard order so first-seen order matches a sequential run.
	total := NewCounter()
	for _, c := range partial {
		total.Merge(c)
	}
	return total, nil
}

// Score counts and scores g.
func (s Scorer) Score(ctx context.Context, g *graph.Graph, stops StopSet) (Scores, error) {
	c, err := s.Count(ctx, g, stops)
	if err != nil {
		return nil, err
	}
	return s.FromCounter(c, stops), nil
}

// FromCounter scores every multi-token n-gram in c that has at least one
// non-stop token. The score is 0 when the denominator is not positive.
func (s Scorer) FromCounter(c *Counter, stops StopSet) Scores {
	scores := make(Scores)
	for _, k := range c.Keys() {
		n := k.NGram()
		if len(n) < 2 {
			continue
		}
		var sum, content int64
		for _, tok := range n {
			if stops.IsStop(tok) {
				continue
			}
			content++
			sum += c.Count(ngram.Of(tok).Key())
		}
		if content == 0 {
			continue
		}
		unit := c.Count(k)
		denom := sum
		if s.Ratio == JaccardRatio {
			denom = sum - (content-1)*unit
		}
		if denom <= 0 {
			scores[k] = 0
			continue
		}
		scores[k] = float64(unit) / float64(denom)
	}
	return scores
}

// Violations lists n-grams whose score exceeds 1, which happens only when a
// unit is counted more often than its tokens.
func Violations(scores Scores) []ngram.Key {
	var out []ngram.Key
	for _, k := range scores.Keys() {
		if scores[k] > 1 {
			out = append(out, k)
		}
	}
	return out
}

func shard(keys []ngram.Key, n int) [][]ngram.Key {
	if n > len(keys) {
		n = len(keys)
	}
	size := (len(keys) + n - 1) / n
	out := make([][]ngram.Key, 0, n)
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		out = append(out, keys[start:end])
	}
	return out
}
