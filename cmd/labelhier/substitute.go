package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/cognicore/labelhier/pkg/labelhier/corpus"
	"github.com/cognicore/labelhier/pkg/labelhier/store/sqlite"
)

var substituteCmd = &cobra.Command{
	Use:     "substitute <corpus.jsonl>",
	Short:   "Rewrite corpus labels with the merge table of a saved run",
	GroupID: "analysis",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, _ := cmd.Flags().GetString("run")
		if cmd.Flags().Changed("store") {
			cfg.Store, _ = cmd.Flags().GetString("store")
		}
		if cfg.Store == "" {
			return fmt.Errorf("--store is required")
		}

		ctx := context.Background()
		st, err := sqlite.OpenSQLite(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		if runID == "" {
			latest, ok, err := st.LatestRun(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no runs in %s", cfg.Store)
			}
			runID = latest.ID
		}
		mapping, err := st.GetMerges(ctx, runID)
		if err != nil {
			return err
		}

		c, err := corpus.LoadJSONL(args[0])
		if err != nil {
			return err
		}
		for _, line := range c.Skipped {
			logger.Warn("skipping malformed record", "path", args[0], "line", line)
		}

		w := bufio.NewWriter(os.Stdout)
		defer w.Flush()
		enc := json.NewEncoder(w)
		changed := 0
		for _, d := range c.Docs {
			keys := d.LabelKeys()
			subst := mapping.Substitute(keys)
			labels := make([]string, len(subst))
			for i, k := range subst {
				labels[i] = k.NGram().Text()
			}
			if !slices.Equal(keys, subst) {
				changed++
			}
			if err := enc.Encode(corpus.Document{Text: d.Text, Labels: labels}); err != nil {
				return err
			}
		}
		logger.Info("substituted labels", "run", runID, "docs", len(c.Docs), "changed", changed)
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:     "runs",
	Short:   "List saved analysis runs",
	GroupID: "analysis",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if cmd.Flags().Changed("store") {
			cfg.Store, _ = cmd.Flags().GetString("store")
		}
		if cfg.Store == "" {
			return fmt.Errorf("--store is required")
		}

		ctx := context.Background()
		st, err := sqlite.OpenSQLite(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(runs)
			return nil
		}
		printRuns(runs)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show the root decompositions and cohesion scores of a saved run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minScore, _ := cmd.Flags().GetFloat64("min-score")
		if cmd.Flags().Changed("store") {
			cfg.Store, _ = cmd.Flags().GetString("store")
		}
		if cfg.Store == "" {
			return fmt.Errorf("--store is required")
		}

		ctx := context.Background()
		st, err := sqlite.OpenSQLite(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		var runID string
		if len(args) == 1 {
			runID = args[0]
		} else {
			latest, ok, err := st.LatestRun(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no runs in %s", cfg.Store)
			}
			runID = latest.ID
		}

		run, err := st.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		roots, err := st.GetRoots(ctx, runID)
		if err != nil {
			return err
		}
		cohesion, err := st.GetCohesion(ctx, runID, minScore)
		if err != nil {
			return err
		}

		out := runJSON(run, roots, cohesion)
		if jsonOutput {
			printJSON(out)
			return nil
		}
		printRun(out)
		return nil
	},
}

func init() {
	substituteCmd.Flags().String("store", "", "SQLite database with saved runs")
	substituteCmd.Flags().String("run", "", "run ID (default: latest)")

	runsCmd.PersistentFlags().String("store", "", "SQLite database with saved runs")
	runsCmd.Flags().Int("limit", 10, "number of runs to list")

	runsShowCmd.Flags().Float64("min-score", 0, "only list cohesion scores at or above this")
	runsCmd.AddCommand(runsShowCmd)
}
