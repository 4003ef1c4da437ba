package ngram

import "sort"

// Set is an unordered collection of n-gram keys.
type Set map[Key]struct{}

// NewSet builds a set from keys.
func NewSet(keys ...Key) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts a key.
func (s Set) Add(k Key) { s[k] = struct{}{} }

// Has reports membership.
func (s Set) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// Union adds every key of o to s.
func (s Set) Union(o Set) {
	for k := range o {
		s[k] = struct{}{}
	}
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Sorted returns the keys in lexical key order, for stable output.
func (s Set) Sorted() []Key {
	out := make([]Key, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
