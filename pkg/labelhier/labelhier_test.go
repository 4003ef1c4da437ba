package labelhier

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cognicore/labelhier/pkg/labelhier/config"
	"github.com/cognicore/labelhier/pkg/labelhier/decompose"
	"github.com/cognicore/labelhier/pkg/labelhier/gexf"
	"github.com/cognicore/labelhier/pkg/labelhier/graph"
	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
	"github.com/cognicore/labelhier/pkg/labelhier/stoplist"
	"github.com/cognicore/labelhier/pkg/labelhier/store/memstore"
)

func key(tokens ...string) ngram.Key { return ngram.Of(tokens...).Key() }

func testConfig() config.Config {
	cfg := config.Default()
	cfg.PruneMinFreq = 5
	cfg.RootMinFreq = 5
	cfg.MapMinFreq = 10
	return cfg
}

// fixture: ("a","b") is a sparse real label over a frequent ("b",) and a
// sparse ("a",) that pruning removes.
func fixture(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	nodes := []struct {
		n      ngram.NGram
		weight int64
		real   bool
	}{
		{ngram.Of("a", "b"), 3, true},
		{ngram.Of("a"), 2, true},
		{ngram.Of("b"), 100, true},
		{ngram.Of("c", "d"), 50, true},
		{ngram.Of("c"), 20, false},
		{ngram.Of("d"), 30, true},
	}
	for _, n := range nodes {
		if err := g.AddNode(n.n, graph.Attrs{Weight: n.weight, RealLabel: n.real}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range [][2]ngram.NGram{
		{ngram.Of("a", "b"), ngram.Of("a")},
		{ngram.Of("a", "b"), ngram.Of("b")},
		{ngram.Of("c", "d"), ngram.Of("c")},
		{ngram.Of("c", "d"), ngram.Of("d")},
	} {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestRun(t *testing.T) {
	st := memstore.New()
	var logs bytes.Buffer
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	a, err := New(context.Background(), Options{
		Config: testConfig(),
		Stops:  stoplist.NewManager(nil),
		Store:  st,
		Logger: log.New(&logs),
		Now:    func() time.Time { return at },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	g := fixture(t)
	rep, err := a.Run(context.Background(), g, "fixture")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(rep.Prune.Removed) != 1 || rep.Prune.Removed[0] != key("a") {
		t.Errorf("Expected ('a',) pruned, got %v", rep.Prune.Removed)
	}
	if g.Has(ngram.Of("a")) {
		t.Error("Pruning happens in place")
	}
	if !rep.RealRoots.Has(key("b")) || !rep.RealRoots.Has(key("d")) || rep.RealRoots.Has(key("c")) {
		t.Errorf("Unexpected real roots: %v", rep.RealRoots.Sorted())
	}
	if !rep.Roots.Has(key("c")) {
		t.Errorf("Synthetic ('c',) is a root, got %v", rep.Roots.Sorted())
	}
	if !rep.FrequentRoots.Has(key("c")) {
		t.Errorf("Synthetic ('c',) is a frequent root, got %v", rep.FrequentRoots.Sorted())
	}
	if got, want := rep.Roots.Sorted(), decompose.Roots(g, 5).Sorted(); !slices.Equal(got, want) {
		t.Errorf("Roots should use weight or ancestor support: got %v, want %v", got, want)
	}
	if roots := rep.Decomposition[key("a", "b")]; len(roots) != 1 || !roots.Has(key("b")) {
		t.Errorf("Unexpected decomposition of ('a','b'): %v", roots.Sorted())
	}

	targets, ok := rep.Mapping.Get(key("a", "b"))
	if !ok || len(targets) != 1 || !targets.Has(key("b")) {
		t.Errorf("Expected ('a','b') -> {('b',)}, got %v (mapped=%v)", targets.Sorted(), ok)
	}
	if rep.Mapping.Has(key("c", "d")) {
		t.Error("('c','d') is frequent and must not be mapped")
	}
	if len(rep.Violations) != 0 {
		t.Errorf("Unexpected violations: %v", rep.Violations)
	}

	saved, err := st.GetRun(context.Background(), rep.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !saved.CreatedAt.Equal(at) || saved.Source != "fixture" || saved.Pruned != 1 {
		t.Errorf("Unexpected saved run: %+v", saved.RunInfo)
	}
	if len(saved.Merges) != 1 || len(saved.Roots) != 2 {
		t.Errorf("Expected 1 merge and 2 decompositions, got %d and %d", len(saved.Merges), len(saved.Roots))
	}
	if !strings.Contains(saved.Config, `"map_min_freq":10`) {
		t.Errorf("Config should be stored as JSON, got %s", saved.Config)
	}

	if !strings.Contains(logs.String(), "mapped sparse labels") {
		t.Errorf("Expected progress logging, got:\n%s", logs.String())
	}
}

func TestRunPartitionsRoots(t *testing.T) {
	a, err := New(context.Background(), Options{Config: testConfig(), Stops: stoplist.NewManager(nil)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rep, err := a.Run(context.Background(), fixture(t), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(rep.Partition) != 2 {
		t.Fatalf("Expected a partition for both real labels, got %d", len(rep.Partition))
	}
	cd := rep.Partition[key("c", "d")]
	if !cd.Roots.Has(key("c")) || !cd.Roots.Has(key("d")) || len(cd.Roots) != 2 {
		t.Errorf("All roots of ('c','d') should be c and d, got %v", cd.Roots.Sorted())
	}
	if !cd.RealRoots.Has(key("d")) || cd.RealRoots.Has(key("c")) {
		t.Errorf("Only ('d',) is a real root of ('c','d'), got %v", cd.RealRoots.Sorted())
	}
	ab := rep.Partition[key("a", "b")]
	if len(ab.Roots) != 1 || !ab.RealRoots.Has(key("b")) {
		t.Errorf("Unexpected partition of ('a','b'): %v / %v", ab.Roots.Sorted(), ab.RealRoots.Sorted())
	}
}

func TestAcceptStopCandidates(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	a, err := New(ctx, Options{Config: testConfig(), Store: st})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	added, err := a.AcceptStopCandidates(ctx, []stoplist.Candidate{{Token: "hereinafter"}, {Token: "the"}})
	if err != nil {
		t.Fatalf("AcceptStopCandidates: %v", err)
	}
	if added != 1 {
		t.Errorf("Only 'hereinafter' is new, got %d", added)
	}
	if !a.Stops().IsStop("hereinafter") {
		t.Error("Accepted token should be a stop word immediately")
	}

	stored, err := st.Stoplist(ctx)
	if err != nil {
		t.Fatalf("Stoplist: %v", err)
	}
	if !slices.Contains(stored, "hereinafter") {
		t.Errorf("Accepted token should be stored, got %v", stored)
	}

	again, err := New(ctx, Options{Config: testConfig(), Store: st})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if src, ok := again.Stops().Source("hereinafter"); !ok || src != stoplist.SourceSuggested {
		t.Errorf("A later analyzer should load the accepted token, got %q %v", src, ok)
	}
}

func TestAcceptStopCandidatesWithoutStore(t *testing.T) {
	a, err := New(context.Background(), Options{Config: testConfig()})
	if err != nil {
		t.Fatal(err)
	}
	_, err = a.AcceptStopCandidates(context.Background(), []stoplist.Candidate{{Token: "x"}})
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestRunWithoutStore(t *testing.T) {
	a, err := New(context.Background(), Options{Config: testConfig()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rep, err := a.Run(context.Background(), fixture(t), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.RunID == "" {
		t.Error("Every run gets an ID")
	}
	if !a.Stops().IsStop("the") {
		t.Error("Built-in stoplist should be loaded by default")
	}
}

func TestRunNilGraph(t *testing.T) {
	a, err := New(context.Background(), Options{Config: testConfig()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Run(context.Background(), nil, ""); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.DescendantPolicy = "sideways"
	if _, err := New(context.Background(), Options{Config: cfg}); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadGraphFromCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	data := `{"text": "t1", "labels": ["governing law", "notices"]}
{"text": "t2", "labels": ["Governing Law"]}
oops
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	a, err := New(context.Background(), Options{Config: testConfig(), Logger: log.New(&logs)})
	if err != nil {
		t.Fatal(err)
	}
	g, err := a.LoadGraph(path)
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	attrs, ok := g.Attrs(key("governing", "law"))
	if !ok || attrs.Weight != 2 || !attrs.RealLabel {
		t.Errorf("Unexpected ('governing','law'): %+v %v", attrs, ok)
	}
	if !g.HasEdge(key("governing", "law"), key("law")) {
		t.Error("Boundary reductions should be linked")
	}
	if !strings.Contains(logs.String(), "skipping malformed record") {
		t.Errorf("Malformed lines should be logged, got:\n%s", logs.String())
	}
}

func TestLoadGraphFromGEXF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hierarchy.gexf")
	if err := gexf.WriteFile(path, fixture(t)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	a, err := New(context.Background(), Options{Config: testConfig()})
	if err != nil {
		t.Fatal(err)
	}
	g, err := a.LoadGraph(path)
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if g.Len() != 6 || g.EdgeCount() != 4 {
		t.Errorf("Expected 6 nodes and 4 edges, got %d and %d", g.Len(), g.EdgeCount())
	}
}

func TestSubgraph(t *testing.T) {
	g := fixture(t)

	byLiteral, err := Subgraph(g, "('a', 'b')", graph.Descendants)
	if err != nil {
		t.Fatalf("Subgraph: %v", err)
	}
	byText, err := Subgraph(g, "a b", graph.Descendants)
	if err != nil {
		t.Fatalf("Subgraph: %v", err)
	}
	if byLiteral.Len() != 3 || byText.Len() != 3 {
		t.Errorf("Expected 3 nodes, got %d and %d", byLiteral.Len(), byText.Len())
	}

	if _, err := Subgraph(g, "missing label", graph.Ancestors); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
