// Package assoc scores how cohesive multi-token labels are, based on how often
// their tokens occur together versus on their own across the label graph.
package assoc

import (
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// StopSet reports function words. *stoplist.Manager satisfies it.
type StopSet interface {
	IsStop(token string) bool
}

// Counter maintains sub-n-gram occurrence counts over a set of labels.
type Counter struct {
	counts map[ngram.Key]int64
	order  []ngram.Key
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[ngram.Key]int64)}
}

// AddLabel counts every contiguous sub-n-gram of label. The label itself is
// always counted. Other sub-n-grams are skipped when they consist of stop
// words only or start or end with one, since those are truncation noise.
func (c *Counter) AddLabel(label ngram.NGram, stops StopSet) {
	for _, sub := range label.SubNGrams() {
		if sub.Equal(label) || keep(sub, stops) {
			c.add(sub.Key(), 1)
		}
	}
}

func keep(n ngram.NGram, stops StopSet) bool {
	if stops.IsStop(n[0]) || stops.IsStop(n[len(n)-1]) {
		return false
	}
	// Boundaries are content tokens, so at least one token is not a stop word.
	return true
}

func (c *Counter) add(k ngram.Key, n int64) {
	if _, ok := c.counts[k]; !ok {
		c.order = append(c.order, k)
	}
	c.counts[k] += n
}

// Merge adds o's counts into c.
func (c *Counter) Merge(o *Counter) {
	for _, k := range o.order {
		c.add(k, o.counts[k])
	}
}

// Count returns the occurrence count of an n-gram.
func (c *Counter) Count(k ngram.Key) int64 {
	return c.counts[k]
}

// Len returns the number of distinct n-grams counted.
func (c *Counter) Len() int { return len(c.counts) }

// Keys returns the counted n-grams in first-seen order.
func (c *Counter) Keys() []ngram.Key {
	out := make([]ngram.Key, len(c.order))
	copy(out, c.order)
	return out
}
