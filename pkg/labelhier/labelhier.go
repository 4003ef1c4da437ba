// Package labelhier runs the label hierarchy analysis end to end: a graph is
// pruned, decomposed into roots, scored for token cohesion and turned into a
// merge table for sparse labels.
package labelhier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cognicore/labelhier/pkg/labelhier/assoc"
	"github.com/cognicore/labelhier/pkg/labelhier/config"
	"github.com/cognicore/labelhier/pkg/labelhier/corpus"
	"github.com/cognicore/labelhier/pkg/labelhier/decompose"
	"github.com/cognicore/labelhier/pkg/labelhier/gexf"
	"github.com/cognicore/labelhier/pkg/labelhier/graph"
	"github.com/cognicore/labelhier/pkg/labelhier/hierarchy"
	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
	"github.com/cognicore/labelhier/pkg/labelhier/merge"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
	"github.com/cognicore/labelhier/pkg/labelhier/prune"
	"github.com/cognicore/labelhier/pkg/labelhier/stoplist"
	"github.com/cognicore/labelhier/pkg/labelhier/store"
)

// Analyzer is the main analysis facade
type Analyzer struct {
	cfg    config.Config
	stops  *stoplist.Manager
	store  store.Store
	logger *log.Logger
	ids    *store.IDs
	now    func() time.Time
}

// Options configures an Analyzer
type Options struct {
	Config config.Config
	// Stops overrides the stoplist named in Config.
	Stops *stoplist.Manager
	// Store persists runs when set.
	Store  store.Store
	Logger *log.Logger
	Now    func() time.Time
}

// New creates an Analyzer. The config is validated and, unless Stops is
// passed in, the stoplist is loaded together with the stop words accepted
// into the store by earlier runs.
func New(ctx context.Context, opts Options) (*Analyzer, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	a := &Analyzer{
		cfg:    opts.Config,
		stops:  opts.Stops,
		store:  opts.Store,
		logger: opts.Logger,
		ids:    store.NewIDs(),
		now:    opts.Now,
	}
	if a.logger == nil {
		a.logger = log.New(io.Discard)
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.stops == nil {
		loader := config.Loader{Config: opts.Config, Store: opts.Store}
		comp, err := loader.Load(ctx)
		if err != nil {
			return nil, err
		}
		a.stops = comp.Stops
	}
	return a, nil
}

// Close closes the store, if any.
func (a *Analyzer) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Stops returns the stoplist in use.
func (a *Analyzer) Stops() *stoplist.Manager { return a.stops }

// LoadGraph reads a hierarchy from a GEXF file, or builds one from a JSONL
// corpus when the file ends in .jsonl.
func (a *Analyzer) LoadGraph(path string) (*graph.Graph, error) {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		c, err := corpus.LoadJSONL(path)
		if err != nil {
			return nil, err
		}
		for _, line := range c.Skipped {
			a.logger.Warn("skipping malformed record", "path", path, "line", line)
		}
		g, stats, err := hierarchy.Build(corpus.LabelCounts(c.Docs))
		if err != nil {
			return nil, err
		}
		a.logger.Info("built hierarchy", "docs", len(c.Docs), "real", stats.RealLabels,
			"synthetic", stats.SyntheticLabels, "edges", stats.Edges, "max_len", stats.MaxLength)
		return g, nil
	}

	g, err := gexf.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a.logger.Info("loaded hierarchy", "path", path, "nodes", g.Len(), "edges", g.EdgeCount())
	return g, nil
}

// Report is the outcome of one Run.
type Report struct {
	RunID  string
	Source string
	Prune  prune.Result
	// Roots are terminal labels popular by weight or ancestor support;
	// FrequentRoots and RealRoots require the weight itself to qualify.
	Roots         ngram.Set
	FrequentRoots ngram.Set
	RealRoots     ngram.Set
	// Decomposition maps multi-token labels to the frequent roots below them.
	Decomposition decompose.RootMap
	// Partition splits the roots below each real label into all roots and
	// real roots.
	Partition      map[ngram.Key]decompose.Decomposition
	Cohesion       assoc.Scores
	Violations     []ngram.Key
	Mapping        *merge.Mapping
	StopCandidates []stoplist.Candidate
}

// Run analyses g. The graph is pruned in place; every later pass only reads
// it. When a store is configured the results are saved under Report.RunID.
func (a *Analyzer) Run(ctx context.Context, g *graph.Graph, source string) (*Report, error) {
	if g == nil {
		return nil, fmt.Errorf("run: %w: nil graph", internalerr.ErrInvalidInput)
	}
	started := a.now()
	rep := &Report{RunID: a.ids.New(started), Source: source}
	a.logger.Debug("starting run", "run", rep.RunID, "nodes", g.Len(), "edges", g.EdgeCount())

	rep.Prune = prune.Run(g, a.cfg.PruneMinFreq)
	a.logger.Info("pruned sparse roots", "removed", len(rep.Prune.Removed),
		"passes", rep.Prune.Passes, "nodes", rep.Prune.After)

	rep.Roots = decompose.Roots(g, a.cfg.RootMinFreq)
	rep.FrequentRoots = decompose.FrequentRoots(g, a.cfg.RootMinFreq)
	rep.RealRoots = decompose.RealRoots(g, a.cfg.RootMinFreq)
	rep.Decomposition = decompose.DecomposeRealLabelsToRoots(g, a.cfg.RootMinFreq)
	rep.Partition = decompose.DecomposeToRoots(g, a.cfg.RootMinFreq)
	a.logger.Info("decomposed labels", "roots", len(rep.Roots), "frequent_roots", len(rep.FrequentRoots),
		"real_roots", len(rep.RealRoots), "labels", len(rep.Decomposition), "real_labels", len(rep.Partition))

	scorer := assoc.Scorer{Workers: a.cfg.Workers, Ratio: a.cfg.Ratio()}
	scores, err := scorer.Score(ctx, g, a.stops)
	if err != nil {
		return nil, err
	}
	rep.Cohesion = scores
	rep.Violations = assoc.Violations(scores)
	for _, k := range rep.Violations {
		a.logger.Warn("cohesion score above 1", "label", k, "score", scores[k])
	}

	rep.Mapping = merge.MapLowFreqLabels(g, a.cfg.MapMinFreq, merge.Options{
		DescendantMinFreq: a.cfg.DescendantMinFreq,
		Policy:            a.cfg.Policy(),
	})
	a.logger.Info("mapped sparse labels", "mapped", rep.Mapping.Len(),
		"unresolved", len(rep.Mapping.Unresolved()), "policy", a.cfg.Policy())

	rep.StopCandidates = a.stops.SuggestCandidates(stoplist.CollectStats(g), stoplist.DefaultThresholds())
	for _, c := range rep.StopCandidates {
		a.logger.Debug("stopword candidate", "token", c.Token, "score", c.Score)
	}

	if a.store != nil {
		if err := a.save(ctx, g, rep, started); err != nil {
			return nil, fmt.Errorf("save run %s: %w", rep.RunID, err)
		}
		a.logger.Info("saved run", "run", rep.RunID)
	}
	return rep, nil
}

func (a *Analyzer) save(ctx context.Context, g *graph.Graph, rep *Report, started time.Time) error {
	cfgJSON, err := json.Marshal(a.cfg)
	if err != nil {
		return err
	}

	run := store.Run{
		RunInfo: store.RunInfo{
			ID:        rep.RunID,
			CreatedAt: started,
			Source:    rep.Source,
			Config:    string(cfgJSON),
			Nodes:     g.Len(),
			Edges:     g.EdgeCount(),
			Pruned:    len(rep.Prune.Removed),
		},
		Merges: rep.Mapping.Entries(),
	}
	for _, k := range g.Nodes() {
		roots, ok := rep.Decomposition[k]
		if !ok {
			continue
		}
		run.Roots = append(run.Roots, store.RootEntry{Label: k, Roots: roots.Sorted()})
	}
	for _, k := range rep.Cohesion.Keys() {
		run.Cohesion = append(run.Cohesion, store.Cohesion{Label: k, Score: rep.Cohesion[k]})
	}
	return a.store.SaveRun(ctx, run)
}

// AcceptStopCandidates adds the candidate tokens to the analyzer's stoplist
// and records them in the store, so analyzers opened on the same store later
// treat them as stop words too. It returns how many tokens were new.
func (a *Analyzer) AcceptStopCandidates(ctx context.Context, cands []stoplist.Candidate) (int, error) {
	if a.store == nil {
		return 0, fmt.Errorf("accept stop words: %w: no store configured", internalerr.ErrInvalidConfig)
	}
	tokens := make([]string, 0, len(cands))
	added := 0
	for _, c := range cands {
		tokens = append(tokens, c.Token)
		if !a.stops.IsStop(c.Token) {
			a.stops.Add(c.Token, stoplist.SourceSuggested)
			added++
		}
	}
	if len(tokens) == 0 {
		return 0, nil
	}
	if err := a.store.UpsertStoplist(ctx, tokens); err != nil {
		return 0, fmt.Errorf("accept stop words: %w", err)
	}
	a.logger.Info("accepted stopword candidates", "tokens", len(tokens), "new", added)
	return added, nil
}

// Subgraph extracts the part of g reachable from label in dir.
func Subgraph(g *graph.Graph, label string, dir graph.Direction) (*graph.Graph, error) {
	n, err := ngram.Parse(label)
	if err != nil {
		// Plain text such as "governing law" is accepted too.
		n = ngram.FromText(label)
	}
	return g.Subgraph(n.Key(), dir)
}
