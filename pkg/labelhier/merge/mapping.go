package merge

import (
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// Mapping is the label substitution table: sparse label → replacement labels.
// It is read-only once built; accessors hand out copies.
type Mapping struct {
	targets map[ngram.Key]ngram.Set
	order   []ngram.Key
}

// Entry is one row of a Mapping with replacements in key order.
type Entry struct {
	Label        ngram.Key
	Replacements []ngram.Key
}

type builder struct {
	m *Mapping
}

func newBuilder() *builder {
	return &builder{m: &Mapping{targets: map[ngram.Key]ngram.Set{}}}
}

func (b *builder) put(k ngram.Key, targets ngram.Set) {
	if _, ok := b.m.targets[k]; !ok {
		b.m.order = append(b.m.order, k)
	}
	b.m.targets[k] = targets
}

func (b *builder) build() *Mapping {
	m := b.m
	b.m = nil
	return m
}

// FromEntries rebuilds a mapping, e.g. from persisted rows.
func FromEntries(entries []Entry) *Mapping {
	b := newBuilder()
	for _, e := range entries {
		b.put(e.Label, ngram.NewSet(e.Replacements...))
	}
	return b.build()
}

// Len returns the number of mapped labels.
func (m *Mapping) Len() int { return len(m.order) }

// Has reports whether a label is mapped.
func (m *Mapping) Has(k ngram.Key) bool {
	_, ok := m.targets[k]
	return ok
}

// Get returns a copy of a label's replacements.
func (m *Mapping) Get(k ngram.Key) (ngram.Set, bool) {
	t, ok := m.targets[k]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Keys returns the mapped labels in graph order.
func (m *Mapping) Keys() []ngram.Key {
	out := make([]ngram.Key, len(m.order))
	copy(out, m.order)
	return out
}

// Entries returns every row, labels in graph order.
func (m *Mapping) Entries() []Entry {
	out := make([]Entry, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, Entry{Label: k, Replacements: m.targets[k].Sorted()})
	}
	return out
}

// Unresolved returns mapped labels for which no replacement was found.
func (m *Mapping) Unresolved() []ngram.Key {
	var out []ngram.Key
	for _, k := range m.order {
		if len(m.targets[k]) == 0 {
			out = append(out, k)
		}
	}
	return out
}

// Substitute rewrites a label set: each mapped label is replaced by its
// replacements. Labels without a mapping, or whose mapping is empty, are
// kept. The result has no duplicates and keeps first-seen order.
func (m *Mapping) Substitute(labels []ngram.Key) []ngram.Key {
	seen := ngram.Set{}
	out := make([]ngram.Key, 0, len(labels))
	add := func(k ngram.Key) {
		if !seen.Has(k) {
			seen.Add(k)
			out = append(out, k)
		}
	}
	for _, l := range labels {
		t, ok := m.targets[l]
		if !ok || len(t) == 0 {
			add(l)
			continue
		}
		for _, r := range t.Sorted() {
			add(r)
		}
	}
	return out
}
