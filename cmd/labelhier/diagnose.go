package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cognicore/labelhier/pkg/labelhier/corpus"
	"github.com/cognicore/labelhier/pkg/labelhier/merge"
)

type diagnoseOut struct {
	Hubs         []hubOut          `json:"hubs"`
	Cooccurrence []cooccurrenceOut `json:"cooccurrence"`
}

type hubOut struct {
	Label              string  `json:"label"`
	Ancestors          int     `json:"ancestors"`
	MeanAncestorWeight float64 `json:"mean_ancestor_weight"`
}

type cooccurrenceOut struct {
	Label       string `json:"label"`
	Predecessor string `json:"predecessor"`
	Weight      int64  `json:"weight"`
	PredWeight  int64  `json:"predecessor_weight"`
}

var diagnoseCmd = &cobra.Command{
	Use:     "diagnose <hierarchy>",
	Short:   "List low-frequency hubs and strongly co-occurring labels",
	GroupID: "analysis",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")

		a, err := newAnalyzer(context.Background(), nil)
		if err != nil {
			return err
		}
		g, err := a.LoadGraph(args[0])
		if err != nil {
			return err
		}

		hubs := merge.FindLowFreqHubs(g)
		co := merge.FindStrongCooccurrence(g)
		if top > 0 && len(hubs) > top {
			hubs = hubs[:top]
		}
		if top > 0 && len(co) > top {
			co = co[:top]
		}

		if jsonOutput {
			out := diagnoseOut{Hubs: []hubOut{}, Cooccurrence: []cooccurrenceOut{}}
			for _, h := range hubs {
				out.Hubs = append(out.Hubs, hubOut{Label: h.Label.String(), Ancestors: h.Ancestors, MeanAncestorWeight: h.MeanAncestorWeight})
			}
			for _, c := range co {
				out.Cooccurrence = append(out.Cooccurrence, cooccurrenceOut{
					Label: c.Label.String(), Predecessor: c.Predecessor.String(), Weight: c.Weight, PredWeight: c.PredWeight,
				})
			}
			printJSON(out)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "HUB\tANCESTORS\tMEAN WEIGHT")
		for _, h := range hubs {
			fmt.Fprintf(w, "%s\t%d\t%.1f\n", h.Label, h.Ancestors, h.MeanAncestorWeight)
		}
		w.Flush()

		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\nLABEL\tWEIGHT\tPREDECESSOR\tWEIGHT")
		for _, c := range co {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\n", c.Label, c.Weight, c.Predecessor, c.PredWeight)
		}
		w.Flush()
		return nil
	},
}

var splitCmd = &cobra.Command{
	Use:     "split <corpus.jsonl>",
	Short:   "Shuffle a corpus into train, dev and test files",
	GroupID: "hierarchy",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, _ := cmd.Flags().GetString("out-dir")
		dev, _ := cmd.Flags().GetFloat64("dev")
		test, _ := cmd.Flags().GetFloat64("test")
		seed, _ := cmd.Flags().GetUint64("seed")

		c, err := corpus.LoadJSONL(args[0])
		if err != nil {
			return err
		}
		for _, line := range c.Skipped {
			logger.Warn("skipping malformed record", "path", args[0], "line", line)
		}
		s, err := corpus.Split(c.Docs, corpus.SplitOptions{DevFraction: dev, TestFraction: test, Seed: seed})
		if err != nil {
			return err
		}

		if err := os.MkdirAll(outDir, 0755); err != nil {
			return err
		}
		for name, docs := range map[string][]corpus.Document{"train": s.Train, "dev": s.Dev, "test": s.Test} {
			path := filepath.Join(outDir, name+".jsonl")
			if err := writeJSONL(path, docs); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		}
		logger.Info("split corpus", "train", len(s.Train), "dev", len(s.Dev), "test", len(s.Test), "dir", outDir)
		return nil
	},
}

func writeJSONL(path string, docs []corpus.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	diagnoseCmd.Flags().Int("top", 20, "rows per section")

	splitCmd.Flags().String("out-dir", ".", "directory for train.jsonl, dev.jsonl and test.jsonl")
	splitCmd.Flags().Float64("dev", 0.1, "fraction of documents for the dev split")
	splitCmd.Flags().Float64("test", 0.1, "fraction of documents for the test split")
	splitCmd.Flags().Uint64("seed", 1, "shuffle seed")
}
