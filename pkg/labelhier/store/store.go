// Package store persists analysis runs: the merge table, root
// decompositions and cohesion scores a run produced.
package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/labelhier/pkg/labelhier/merge"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// Store is the persistence interface for analysis runs.
type Store interface {
	Close() error

	// Runs
	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]RunInfo, error)
	LatestRun(ctx context.Context) (RunInfo, bool, error)

	// Per-run results
	GetMerges(ctx context.Context, runID string) (*merge.Mapping, error)
	GetRoots(ctx context.Context, runID string) ([]RootEntry, error)
	GetCohesion(ctx context.Context, runID string, minScore float64) ([]Cohesion, error)

	// Stoplist suggestions accepted by an operator
	UpsertStoplist(ctx context.Context, tokens []string) error
	Stoplist(ctx context.Context) ([]string, error)
}

// RunInfo describes one analysis run.
type RunInfo struct {
	ID        string
	CreatedAt time.Time
	Source    string // input graph or corpus path
	Config    string // JSON-encoded settings
	Nodes     int    // after pruning
	Edges     int
	Pruned    int
}

// Run is a RunInfo together with its results.
type Run struct {
	RunInfo
	Merges   []merge.Entry
	Roots    []RootEntry
	Cohesion []Cohesion
}

// RootEntry is the real-root decomposition of one label.
type RootEntry struct {
	Label ngram.Key
	Roots []ngram.Key
}

// Cohesion is the token association score of one label.
type Cohesion struct {
	Label ngram.Key
	Score float64
}

// IDs generates lexically sortable run identifiers.
type IDs struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDs creates a run ID generator.
func NewIDs() *IDs {
	return &IDs{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns a fresh run ID for time t.
func (g *IDs) New(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}
