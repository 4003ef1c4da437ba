package gexf

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/labelhier/pkg/labelhier/graph"
	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// networkxFixture mimics what networkx.write_gexf produces for a hierarchy.
const networkxFixture = `<?xml version='1.0' encoding='utf-8'?>
<gexf xmlns="http://www.gexf.net/1.2draft" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" version="1.2">
  <meta lastmodifieddate="2020-01-10">
    <creator>NetworkX 2.4</creator>
  </meta>
  <graph defaultedgetype="directed" mode="static" name="">
    <attributes mode="static" class="node">
      <attribute id="0" title="real_label" type="boolean" />
      <attribute id="1" title="weight" type="double" />
      <attribute id="2" title="ancestor support" type="long">
        <default>0</default>
      </attribute>
    </attributes>
    <nodes>
      <node id="('good', 'reason')" label="('good', 'reason')">
        <attvalues>
          <attvalue for="0" value="true" />
          <attvalue for="1" value="122.0" />
          <attvalue for="2" value="7" />
        </attvalues>
      </node>
      <node id="('good',)" label="('good',)">
        <attvalues>
          <attvalue for="0" value="false" />
        </attvalues>
      </node>
      <node id="(&quot;party's&quot;, 'reason')" label="x" />
      <node id="('reason',)" label="('reason',)" />
    </nodes>
    <edges>
      <edge source="('good', 'reason')" target="('good',)" id="0" />
      <edge source="('good', 'reason')" target="('reason',)" id="1" />
      <edge source="(&quot;party's&quot;, 'reason')" target="('reason',)" id="2" />
    </edges>
  </graph>
</gexf>
`

func TestReadNetworkXFixture(t *testing.T) {
	g, err := Read(strings.NewReader(networkxFixture))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if g.Len() != 4 {
		t.Fatalf("Expected 4 nodes, got %d", g.Len())
	}
	if g.EdgeCount() != 3 {
		t.Fatalf("Expected 3 edges, got %d", g.EdgeCount())
	}

	attrs, ok := g.Attrs(ngram.Of("good", "reason").Key())
	if !ok {
		t.Fatal("('good', 'reason') should be present")
	}
	want := graph.Attrs{Weight: 122, AncestorSupport: 7, RealLabel: true}
	if attrs != want {
		t.Errorf("Attrs mismatch: got %+v, want %+v", attrs, want)
	}

	// Missing attributes fall back to defaults instead of failing.
	attrs, _ = g.Attrs(ngram.Of("reason").Key())
	if attrs != (graph.Attrs{}) {
		t.Errorf("Expected zero attrs for bare node, got %+v", attrs)
	}

	if !g.HasEdge(ngram.Of("party's", "reason").Key(), ngram.Of("reason").Key()) {
		t.Error("Edge from double-quoted literal should be decoded")
	}
}

func TestRoundTrip(t *testing.T) {
	g := graph.New()
	if err := g.AddNode(ngram.Of("change", "of", "control"), graph.Attrs{Weight: 31, AncestorSupport: 200, RealLabel: true}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(ngram.Of("change", "of", "control"), ngram.Of("of", "control")); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(ngram.Of("change", "of", "control"), ngram.Of("change", "of")); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "hierarchy.gexf")
	if err := WriteFile(path, g); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if back.Len() != g.Len() || back.EdgeCount() != g.EdgeCount() {
		t.Fatalf("Shape mismatch: %d/%d vs %d/%d", back.Len(), back.EdgeCount(), g.Len(), g.EdgeCount())
	}
	for _, k := range g.Nodes() {
		want, _ := g.Attrs(k)
		got, ok := back.Attrs(k)
		if !ok || got != want {
			t.Errorf("%s: got %+v, want %+v", k, got, want)
		}
	}
	for i, k := range back.Nodes() {
		if k != g.Nodes()[i] {
			t.Errorf("Node order changed at %d: %s vs %s", i, k, g.Nodes()[i])
		}
	}
}

func TestReadMalformedIdentity(t *testing.T) {
	doc := `<gexf><graph><nodes><node id="termination" /></nodes></graph></gexf>`
	_, err := Read(strings.NewReader(doc))
	if !errors.Is(err, internalerr.ErrMalformedIdentity) {
		t.Fatalf("Expected ErrMalformedIdentity, got %v", err)
	}
}

func TestReadUnknownEdgeEndpoint(t *testing.T) {
	doc := `<gexf><graph><nodes><node id="('a', 'b')" /></nodes>
<edges><edge source="('a', 'b')" target="('a',)" /></edges></graph></gexf>`
	_, err := Read(strings.NewReader(doc))
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestReadRejectsNonReductionEdge(t *testing.T) {
	doc := `<gexf><graph><nodes><node id="('a', 'b', 'c')" /><node id="('b',)" /></nodes>
<edges><edge source="('a', 'b', 'c')" target="('b',)" /></edges></graph></gexf>`
	_, err := Read(strings.NewReader(doc))
	if !errors.Is(err, internalerr.ErrInvalidEdge) {
		t.Fatalf("Expected ErrInvalidEdge, got %v", err)
	}
}

func TestReadBadAttribute(t *testing.T) {
	doc := `<gexf><graph>
<attributes class="node"><attribute id="0" title="real_label" type="boolean" /></attributes>
<nodes><node id="('a',)"><attvalues><attvalue for="0" value="maybe" /></attvalues></node></nodes>
</graph></gexf>`
	_, err := Read(strings.NewReader(doc))
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestReadRejectsNonFiniteCounts(t *testing.T) {
	for _, v := range []string{"inf", "-Inf", "NaN", "1e19", "-1e300"} {
		doc := `<gexf><graph>
<attributes class="node"><attribute id="0" title="weight" type="double" /></attributes>
<nodes><node id="('a',)"><attvalues><attvalue for="0" value="` + v + `" /></attvalues></node></nodes>
</graph></gexf>`
		_, err := Read(strings.NewReader(doc))
		if !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("weight %q: expected ErrInvalidInput, got %v", v, err)
		}
	}
}

func TestWriteDeclaresAttributes(t *testing.T) {
	g := graph.New()
	if err := g.AddNode(ngram.Of("a"), graph.Attrs{Weight: 1}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`title="weight"`, `title="ancestor support"`, `title="real_label"`, `defaultedgetype="directed"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %s", want)
		}
	}
}
