// Package corpus reads labelled documents and derives label frequencies from
// them.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cognicore/labelhier/pkg/labelhier/hierarchy"
	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
)

// maxLine bounds a single JSONL record.
const maxLine = 16 << 20

// Document is one provision and its annotated labels.
type Document struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

// Corpus is the result of loading a JSONL file.
type Corpus struct {
	Docs []Document
	// Skipped holds the 1-based line numbers of malformed records.
	Skipped []int
}

// LoadJSONL loads documents from a JSONL file. Malformed lines are skipped
// and reported in Skipped.
func LoadJSONL(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Read decodes JSONL documents from r.
func Read(r io.Reader) (*Corpus, error) {
	c := &Corpus{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var doc Document
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			c.Skipped = append(c.Skipped, line)
			continue
		}
		c.Docs = append(c.Docs, doc)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(c.Docs) == 0 {
		return nil, fmt.Errorf("no valid documents: %w", internalerr.ErrInvalidInput)
	}
	return c, nil
}

// LabelCounts counts in how many documents each label is annotated, in
// first-seen order. Labels are lower-cased and split on whitespace, so
// "Governing Law" and "governing  law" are the same label.
func LabelCounts(docs []Document) []hierarchy.LabelCount {
	counts := map[ngram.Key]int64{}
	var order []ngram.NGram
	for _, d := range docs {
		seen := ngram.Set{}
		for _, l := range d.Labels {
			n := ngram.FromText(l)
			if len(n) == 0 {
				continue
			}
			k := n.Key()
			if seen.Has(k) {
				continue
			}
			seen.Add(k)
			if _, ok := counts[k]; !ok {
				order = append(order, n)
			}
			counts[k]++
		}
	}

	out := make([]hierarchy.LabelCount, len(order))
	for i, n := range order {
		out[i] = hierarchy.LabelCount{Label: n, Count: counts[n.Key()]}
	}
	return out
}

// LabelKeys returns a document's labels as n-gram keys.
func (d Document) LabelKeys() []ngram.Key {
	out := make([]ngram.Key, 0, len(d.Labels))
	for _, l := range d.Labels {
		if n := ngram.FromText(l); len(n) > 0 {
			out = append(out, n.Key())
		}
	}
	return out
}
