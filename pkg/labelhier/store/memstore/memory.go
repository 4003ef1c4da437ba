package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
	"github.com/cognicore/labelhier/pkg/labelhier/merge"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
	"github.com/cognicore/labelhier/pkg/labelhier/store"
)

// Store is an in-memory implementation of store.Store for tests and
// one-off runs without a database.
type Store struct {
	mu    sync.RWMutex
	runs  map[string]store.Run
	stops map[string]struct{}
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		runs:  make(map[string]store.Run),
		stops: make(map[string]struct{}),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun stores a copy of r, replacing a run with the same ID.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("save run: %w: empty id", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	out := copyRun(r)
	out.Cohesion = sortedCohesion(r.Cohesion, 0)
	return out, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.RunInfo, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.RunInfo, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r.RunInfo)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LatestRun returns the most recent run, if any.
func (s *Store) LatestRun(ctx context.Context) (store.RunInfo, bool, error) {
	runs, _ := s.ListRuns(ctx, 1)
	if len(runs) == 0 {
		return store.RunInfo{}, false, nil
	}
	return runs[0], true, nil
}

// GetMerges rebuilds the merge table of a run. Unknown runs yield an empty
// mapping.
func (s *Store) GetMerges(ctx context.Context, runID string) (*merge.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return merge.FromEntries(s.runs[runID].Merges), nil
}

// GetRoots returns the root decomposition of a run.
func (s *Store) GetRoots(ctx context.Context, runID string) ([]store.RootEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRoots(s.runs[runID].Roots), nil
}

// GetCohesion returns scores at or above minScore, highest first.
func (s *Store) GetCohesion(ctx context.Context, runID string, minScore float64) ([]store.Cohesion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCohesion(s.runs[runID].Cohesion, minScore), nil
}

// UpsertStoplist replaces the stored stoplist.
func (s *Store) UpsertStoplist(ctx context.Context, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops = make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		s.stops[t] = struct{}{}
	}
	return nil
}

// Stoplist returns the stored stoplist, sorted.
func (s *Store) Stoplist(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.stops))
	for t := range s.stops {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func sortedCohesion(in []store.Cohesion, minScore float64) []store.Cohesion {
	var out []store.Cohesion
	for _, c := range in {
		if c.Score >= minScore {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Label.NGram().String() < out[j].Label.NGram().String()
	})
	return out
}

func copyRun(r store.Run) store.Run {
	out := store.Run{RunInfo: r.RunInfo}
	if r.Merges != nil {
		out.Merges = make([]merge.Entry, len(r.Merges))
		for i, e := range r.Merges {
			out.Merges[i] = merge.Entry{Label: e.Label, Replacements: copyKeys(e.Replacements)}
		}
	}
	out.Roots = copyRoots(r.Roots)
	if r.Cohesion != nil {
		out.Cohesion = append([]store.Cohesion(nil), r.Cohesion...)
	}
	return out
}

func copyRoots(in []store.RootEntry) []store.RootEntry {
	if in == nil {
		return nil
	}
	out := make([]store.RootEntry, len(in))
	for i, r := range in {
		out[i] = store.RootEntry{Label: r.Label, Roots: copyKeys(r.Roots)}
	}
	return out
}

func copyKeys(in []ngram.Key) []ngram.Key {
	if in == nil {
		return nil
	}
	return append([]ngram.Key(nil), in...)
}
