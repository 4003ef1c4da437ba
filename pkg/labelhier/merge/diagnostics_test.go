package merge

import (
	"testing"

	"github.com/cognicore/labelhier/pkg/labelhier/graph"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

func TestFindLowFreqHubs(t *testing.T) {
	g := graph.New()
	addNode(t, g, ngram.Of("termination", "without", "cause"), 9, true)
	addNode(t, g, ngram.Of("without", "cause"), 30, true)
	addNode(t, g, ngram.Of("cause"), 0, false)
	addNode(t, g, ngram.Of("good", "reason"), 0, false)
	addNode(t, g, ngram.Of("reason"), 5, true)
	addEdge(t, g, ngram.Of("termination", "without", "cause"), ngram.Of("without", "cause"))
	addEdge(t, g, ngram.Of("without", "cause"), ngram.Of("cause"))
	addEdge(t, g, ngram.Of("good", "reason"), ngram.Of("reason"))

	hubs := FindLowFreqHubs(g)

	// (reason) has one ancestor of weight 0 and is dropped.
	if len(hubs) != 2 {
		t.Fatalf("Expected 2 hubs, got %d: %+v", len(hubs), hubs)
	}
	if hubs[0].Label != key("without", "cause") || hubs[0].MeanAncestorWeight != 9 {
		t.Errorf("Unexpected weakest hub: %+v", hubs[0])
	}
	if hubs[1].Label != key("cause") || hubs[1].MeanAncestorWeight != 19.5 || hubs[1].Ancestors != 2 {
		t.Errorf("Unexpected second hub: %+v", hubs[1])
	}
}

func TestFindStrongCooccurrence(t *testing.T) {
	g := graph.New()
	addNode(t, g, ngram.Of("change", "of", "control"), 40, true)
	addNode(t, g, ngram.Of("of", "control"), 2, false)
	addNode(t, g, ngram.Of("change", "of"), 80, false)
	addEdge(t, g, ngram.Of("change", "of", "control"), ngram.Of("of", "control"))
	addEdge(t, g, ngram.Of("change", "of", "control"), ngram.Of("change", "of"))

	got := FindStrongCooccurrence(g)
	if len(got) != 1 {
		t.Fatalf("Expected 1 pair, got %+v", got)
	}
	if got[0].Label != key("of", "control") || got[0].Predecessor != key("change", "of", "control") {
		t.Errorf("Unexpected pair: %+v", got[0])
	}
	if got[0].Weight != 2 || got[0].PredWeight != 40 {
		t.Errorf("Unexpected weights: %+v", got[0])
	}
}
