package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cognicore/labelhier/pkg/labelhier"
	"github.com/cognicore/labelhier/pkg/labelhier/store"
	"github.com/cognicore/labelhier/pkg/labelhier/store/sqlite"
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze <hierarchy>",
	Short:   "Prune, decompose, score and map sparse labels",
	Long:    "Reads a GEXF hierarchy (or builds one from a .jsonl corpus) and prints the merge table for sparse labels.",
	GroupID: "analysis",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyThresholdFlags(cmd)
		ctx := context.Background()

		var st store.Store
		if cfg.Store != "" {
			s, err := sqlite.OpenSQLite(ctx, cfg.Store)
			if err != nil {
				return err
			}
			st = s
		}
		a, err := newAnalyzer(ctx, st)
		if err != nil {
			if st != nil {
				st.Close()
			}
			return err
		}
		defer a.Close()

		g, err := a.LoadGraph(args[0])
		if err != nil {
			return err
		}
		rep, err := a.Run(ctx, g, args[0])
		if err != nil {
			return err
		}
		if accept, _ := cmd.Flags().GetBool("accept-stopwords"); accept {
			if _, err := a.AcceptStopCandidates(ctx, rep.StopCandidates); err != nil {
				return err
			}
		}

		top, _ := cmd.Flags().GetInt("top")
		if jsonOutput {
			printJSON(reportJSON(rep, top))
			return nil
		}
		printReport(rep, top)
		return nil
	},
}

func applyThresholdFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("prune-min-freq") {
		cfg.PruneMinFreq, _ = f.GetInt64("prune-min-freq")
	}
	if f.Changed("root-min-freq") {
		cfg.RootMinFreq, _ = f.GetInt64("root-min-freq")
	}
	if f.Changed("map-min-freq") {
		cfg.MapMinFreq, _ = f.GetInt64("map-min-freq")
	}
	if f.Changed("descendant-min-freq") {
		v, _ := f.GetInt64("descendant-min-freq")
		cfg.DescendantMinFreq = &v
	}
	if f.Changed("policy") {
		cfg.DescendantPolicy, _ = f.GetString("policy")
	}
	if f.Changed("ratio") {
		cfg.CohesionRatio, _ = f.GetString("ratio")
	}
	if f.Changed("workers") {
		cfg.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("stoplist") {
		cfg.Stoplist, _ = f.GetString("stoplist")
	}
	if f.Changed("store") {
		cfg.Store, _ = f.GetString("store")
	}
}

func newAnalyzer(ctx context.Context, st store.Store) (*labelhier.Analyzer, error) {
	return labelhier.New(ctx, labelhier.Options{
		Config: cfg,
		Store:  st,
		Logger: logger,
	})
}

func init() {
	f := analyzeCmd.Flags()
	f.Int64("prune-min-freq", 50, "prune leaves with weight below this")
	f.Int64("root-min-freq", 50, "minimum weight of a root")
	f.Int64("map-min-freq", 100, "labels below this weight are merged")
	f.Int64("descendant-min-freq", 0, "threshold for descendants of sparse successors (unset: map-min-freq)")
	f.String("policy", "single-path", "descendant policy: single-path or all-paths")
	f.String("ratio", "sum", "cohesion ratio: sum or jaccard")
	f.Int("workers", 1, "goroutines for cohesion counting")
	f.String("stoplist", "", "YAML stoplist (default: built-in english)")
	f.String("store", "", "SQLite database to save the run in")
	f.Int("top", 20, "rows per section in the printed report")
	f.Bool("accept-stopwords", false, "store the suggested stopword candidates for later runs (needs --store)")
}
