// Package storetest holds behaviour tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
	"github.com/cognicore/labelhier/pkg/labelhier/merge"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
	"github.com/cognicore/labelhier/pkg/labelhier/store"
)

func key(tokens ...string) ngram.Key { return ngram.Of(tokens...).Key() }

// SampleRun returns a run with one row of every result kind, including a
// label containing a quote.
func SampleRun(id string, at time.Time) store.Run {
	return store.Run{
		RunInfo: store.RunInfo{
			ID:        id,
			CreatedAt: at,
			Source:    "hierarchy.gexf",
			Config:    `{"map_min_freq":100}`,
			Nodes:     12,
			Edges:     15,
			Pruned:    3,
		},
		Merges: []merge.Entry{
			{Label: key("governing", "law", "clause"), Replacements: []ngram.Key{key("governing", "law")}},
			{Label: key("by", "tyson"), Replacements: nil},
		},
		Roots: []store.RootEntry{
			{Label: key("party's", "consent"), Roots: []ngram.Key{key("consent")}},
		},
		Cohesion: []store.Cohesion{
			{Label: key("governing", "law"), Score: 0.8},
			{Label: key("change", "of", "control"), Score: 0.25},
		},
	}
}

// Run exercises a store. open must return an empty store.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("SaveAndGetRun", func(t *testing.T) { testSaveAndGetRun(t, open(t)) })
	t.Run("ReplaceRun", func(t *testing.T) { testReplaceRun(t, open(t)) })
	t.Run("MissingRun", func(t *testing.T) { testMissingRun(t, open(t)) })
	t.Run("ListRuns", func(t *testing.T) { testListRuns(t, open(t)) })
	t.Run("Cohesion", func(t *testing.T) { testCohesion(t, open(t)) })
	t.Run("Stoplist", func(t *testing.T) { testStoplist(t, open(t)) })
	t.Run("EmptyID", func(t *testing.T) { testEmptyID(t, open(t)) })
}

func testSaveAndGetRun(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := st.SaveRun(ctx, SampleRun("run-1", at)); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := st.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !got.CreatedAt.Equal(at) || got.Nodes != 12 || got.Pruned != 3 || got.Source != "hierarchy.gexf" {
		t.Errorf("Unexpected run info: %+v", got.RunInfo)
	}
	if len(got.Merges) != 2 || got.Merges[0].Label != key("governing", "law", "clause") {
		t.Errorf("Unexpected merges: %+v", got.Merges)
	}
	if len(got.Merges[1].Replacements) != 0 {
		t.Errorf("Empty replacement sets survive a round trip, got %v", got.Merges[1].Replacements)
	}
	if len(got.Roots) != 1 || got.Roots[0].Label != key("party's", "consent") {
		t.Errorf("Unexpected roots: %+v", got.Roots)
	}

	m, err := st.GetMerges(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetMerges: %v", err)
	}
	if targets, ok := m.Get(key("governing", "law", "clause")); !ok || !targets.Has(key("governing", "law")) {
		t.Errorf("Unexpected mapping: %v", m.Entries())
	}
}

func testReplaceRun(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	first := SampleRun("run-1", time.Now())
	if err := st.SaveRun(ctx, first); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	second := SampleRun("run-1", time.Now())
	second.Merges = second.Merges[:1]
	second.Cohesion = nil
	if err := st.SaveRun(ctx, second); err != nil {
		t.Fatalf("SaveRun again: %v", err)
	}

	got, err := st.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if len(got.Merges) != 1 || len(got.Cohesion) != 0 {
		t.Errorf("Saving a run again replaces its results, got %d merges %d scores", len(got.Merges), len(got.Cohesion))
	}
}

func testMissingRun(t *testing.T, st store.Store) {
	defer st.Close()
	_, err := st.GetRun(context.Background(), "nope")
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, ok, err := st.LatestRun(context.Background()); ok || err != nil {
		t.Errorf("Empty store has no latest run, got ok=%v err=%v", ok, err)
	}
}

func testListRuns(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := st.SaveRun(ctx, SampleRun(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveRun(%s): %v", id, err)
		}
	}

	runs, err := st.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("Expected [c b], got %+v", runs)
	}

	latest, ok, err := st.LatestRun(ctx)
	if err != nil || !ok || latest.ID != "c" {
		t.Errorf("LatestRun = %+v, %v, %v", latest, ok, err)
	}
}

func testCohesion(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()
	if err := st.SaveRun(ctx, SampleRun("run-1", time.Now())); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	all, err := st.GetCohesion(ctx, "run-1", 0)
	if err != nil {
		t.Fatalf("GetCohesion: %v", err)
	}
	if len(all) != 2 || all[0].Label != key("governing", "law") {
		t.Errorf("Expected highest score first, got %+v", all)
	}

	high, err := st.GetCohesion(ctx, "run-1", 0.5)
	if err != nil {
		t.Fatalf("GetCohesion: %v", err)
	}
	if len(high) != 1 {
		t.Errorf("Expected 1 score >= 0.5, got %+v", high)
	}
}

func testStoplist(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	if err := st.UpsertStoplist(ctx, []string{"thereof", "hereby", "hereby"}); err != nil {
		t.Fatalf("UpsertStoplist: %v", err)
	}
	got, err := st.Stoplist(ctx)
	if err != nil {
		t.Fatalf("Stoplist: %v", err)
	}
	if len(got) != 2 || got[0] != "hereby" || got[1] != "thereof" {
		t.Errorf("Expected [hereby thereof], got %v", got)
	}

	if err := st.UpsertStoplist(ctx, []string{"whereas"}); err != nil {
		t.Fatalf("UpsertStoplist: %v", err)
	}
	got, _ = st.Stoplist(ctx)
	if len(got) != 1 || got[0] != "whereas" {
		t.Errorf("Upsert replaces the list, got %v", got)
	}
}

func testEmptyID(t *testing.T, st store.Store) {
	defer st.Close()
	err := st.SaveRun(context.Background(), SampleRun("", time.Now()))
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
