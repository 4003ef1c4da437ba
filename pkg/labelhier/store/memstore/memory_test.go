package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
	"github.com/cognicore/labelhier/pkg/labelhier/store"
	"github.com/cognicore/labelhier/pkg/labelhier/store/storetest"
)

func TestMemStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestSaveRunCopies(t *testing.T) {
	ctx := context.Background()
	st := New()

	run := storetest.SampleRun("run-1", time.Now())
	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	run.Merges[0].Replacements[0] = ngram.Of("mutated").Key()

	got, err := st.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Merges[0].Replacements[0] == ngram.Of("mutated").Key() {
		t.Error("Stored run must not alias the caller's slices")
	}
}
