// Package gexf reads and writes label hierarchies in the GEXF graph exchange
// format. Node ids are tuple literals such as ('good', 'reason') and are
// parsed back into n-grams; node attributes are matched by title.
package gexf

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cognicore/labelhier/pkg/labelhier/graph"
	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// Attribute titles used by the hierarchy builder.
const (
	TitleWeight          = "weight"
	TitleAncestorSupport = "ancestor support"
	TitleRealLabel       = "real_label"
)

const namespace = "http://www.gexf.net/1.2draft"

type document struct {
	XMLName xml.Name  `xml:"gexf"`
	XMLNS   string    `xml:"xmlns,attr,omitempty"`
	Version string    `xml:"version,attr,omitempty"`
	Meta    *meta     `xml:"meta,omitempty"`
	Graph   graphElem `xml:"graph"`
}

type meta struct {
	Creator     string `xml:"creator,omitempty"`
	Description string `xml:"description,omitempty"`
}

type graphElem struct {
	DefaultEdgeType string           `xml:"defaultedgetype,attr,omitempty"`
	Mode            string           `xml:"mode,attr,omitempty"`
	Attributes      []attributesElem `xml:"attributes"`
	Nodes           []nodeElem       `xml:"nodes>node"`
	Edges           []edgeElem       `xml:"edges>edge"`
}

type attributesElem struct {
	Class      string          `xml:"class,attr"`
	Mode       string          `xml:"mode,attr,omitempty"`
	Attributes []attributeElem `xml:"attribute"`
}

type attributeElem struct {
	ID      string `xml:"id,attr"`
	Title   string `xml:"title,attr"`
	Type    string `xml:"type,attr"`
	Default string `xml:"default,omitempty"`
}

type nodeElem struct {
	ID        string     `xml:"id,attr"`
	Label     string     `xml:"label,attr,omitempty"`
	AttValues []attValue `xml:"attvalues>attvalue"`
}

type attValue struct {
	For   string `xml:"for,attr"`
	Value string `xml:"value,attr"`
}

type edgeElem struct {
	ID     string `xml:"id,attr,omitempty"`
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
}

// ReadFile loads a hierarchy from a GEXF file.
func ReadFile(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return g, nil
}

// Read decodes a hierarchy. A node id that is not a tuple literal is fatal
// (internalerr.ErrMalformedIdentity). Missing attributes take the declared
// GEXF default, or the zero value when none is declared.
func Read(r io.Reader) (*graph.Graph, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode gexf: %w", err)
	}

	byID := map[string]attributeElem{}
	defaults := map[string]string{}
	for _, block := range doc.Graph.Attributes {
		if block.Class != "" && block.Class != "node" {
			continue
		}
		for _, a := range block.Attributes {
			byID[a.ID] = a
			if a.Default != "" {
				defaults[a.Title] = a.Default
			}
		}
	}

	g := graph.New()
	ids := make(map[string]ngram.NGram, len(doc.Graph.Nodes))
	for _, n := range doc.Graph.Nodes {
		id, err := ngram.Parse(n.ID)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		values := make(map[string]string, len(defaults)+len(n.AttValues))
		for title, v := range defaults {
			values[title] = v
		}
		for _, av := range n.AttValues {
			decl, ok := byID[av.For]
			if !ok {
				// Some writers key attvalues by title instead of id.
				values[av.For] = av.Value
				continue
			}
			values[decl.Title] = av.Value
		}
		attrs, err := decodeAttrs(values)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
		if err := g.AddNode(id, attrs); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
		ids[n.ID] = id
	}

	for _, e := range doc.Graph.Edges {
		from, ok := ids[e.Source]
		if !ok {
			return nil, fmt.Errorf("edge %s -> %s: source %w", e.Source, e.Target, internalerr.ErrNotFound)
		}
		to, ok := ids[e.Target]
		if !ok {
			return nil, fmt.Errorf("edge %s -> %s: target %w", e.Source, e.Target, internalerr.ErrNotFound)
		}
		if err := g.AddEdge(from, to); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func decodeAttrs(values map[string]string) (graph.Attrs, error) {
	var attrs graph.Attrs
	var err error
	if v, ok := values[TitleWeight]; ok {
		if attrs.Weight, err = parseCount(v); err != nil {
			return attrs, fmt.Errorf("attribute %q: %w", TitleWeight, err)
		}
	}
	if v, ok := values[TitleAncestorSupport]; ok {
		if attrs.AncestorSupport, err = parseCount(v); err != nil {
			return attrs, fmt.Errorf("attribute %q: %w", TitleAncestorSupport, err)
		}
	}
	if v, ok := values[TitleRealLabel]; ok {
		if attrs.RealLabel, err = strconv.ParseBool(strings.TrimSpace(v)); err != nil {
			return attrs, fmt.Errorf("attribute %q: %w", TitleRealLabel, internalerr.ErrInvalidInput)
		}
	}
	return attrs, nil
}

// parseCount accepts integer and float encodings ("12", "12.0"). Floats that
// are not finite or fall outside the int64 range are rejected.
func parseCount(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, internalerr.ErrInvalidInput
	}
	// 2^63 is the smallest float64 above math.MaxInt64.
	if math.IsNaN(f) || f >= 0x1p63 || f < -0x1p63 {
		return 0, fmt.Errorf("%w: count %q out of range", internalerr.ErrInvalidInput, v)
	}
	return int64(f), nil
}

// WriteFile stores a hierarchy as GEXF.
func WriteFile(path string, g *graph.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, g); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Write encodes a hierarchy with all three node attributes on every node.
func Write(w io.Writer, g *graph.Graph) error {
	doc := document{
		XMLNS:   namespace,
		Version: "1.2",
		Meta:    &meta{Creator: "labelhier", Description: "label hierarchy"},
		Graph: graphElem{
			DefaultEdgeType: "directed",
			Mode:            "static",
			Attributes: []attributesElem{{
				Class: "node",
				Mode:  "static",
				Attributes: []attributeElem{
					{ID: "0", Title: TitleWeight, Type: "long"},
					{ID: "1", Title: TitleAncestorSupport, Type: "long"},
					{ID: "2", Title: TitleRealLabel, Type: "boolean"},
				},
			}},
		},
	}

	for _, k := range g.Nodes() {
		attrs, _ := g.Attrs(k)
		id := g.NGram(k).String()
		doc.Graph.Nodes = append(doc.Graph.Nodes, nodeElem{
			ID:    id,
			Label: id,
			AttValues: []attValue{
				{For: "0", Value: strconv.FormatInt(attrs.Weight, 10)},
				{For: "1", Value: strconv.FormatInt(attrs.AncestorSupport, 10)},
				{For: "2", Value: strconv.FormatBool(attrs.RealLabel)},
			},
		})
	}
	for i, e := range g.Edges() {
		doc.Graph.Edges = append(doc.Graph.Edges, edgeElem{
			ID:     strconv.Itoa(i),
			Source: g.NGram(e.From).String(),
			Target: g.NGram(e.To).String(),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode gexf: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
