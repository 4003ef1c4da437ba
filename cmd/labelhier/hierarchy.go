package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/labelhier/pkg/labelhier"
	"github.com/cognicore/labelhier/pkg/labelhier/gexf"
	"github.com/cognicore/labelhier/pkg/labelhier/graph"
	"github.com/cognicore/labelhier/pkg/labelhier/prune"
)

var buildCmd = &cobra.Command{
	Use:     "build <corpus.jsonl>",
	Short:   "Build a label hierarchy from a labelled corpus",
	GroupID: "hierarchy",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		a, err := newAnalyzer(context.Background(), nil)
		if err != nil {
			return err
		}
		g, err := a.LoadGraph(args[0])
		if err != nil {
			return err
		}
		if err := gexf.WriteFile(out, g); err != nil {
			return err
		}
		logger.Info("wrote hierarchy", "path", out, "nodes", g.Len(), "edges", g.EdgeCount())
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:     "prune <hierarchy>",
	Short:   "Remove sparse roots from a hierarchy",
	GroupID: "hierarchy",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		if cmd.Flags().Changed("min-freq") {
			cfg.PruneMinFreq, _ = cmd.Flags().GetInt64("min-freq")
		}

		a, err := newAnalyzer(context.Background(), nil)
		if err != nil {
			return err
		}
		g, err := a.LoadGraph(args[0])
		if err != nil {
			return err
		}
		res := prune.Run(g, cfg.PruneMinFreq)
		logger.Info("pruned", "removed", len(res.Removed), "passes", res.Passes, "before", res.Before, "after", res.After)
		for _, k := range res.Removed {
			logger.Debug("removed", "label", k)
		}
		return gexf.WriteFile(out, g)
	},
}

var subgraphCmd = &cobra.Command{
	Use:     "subgraph <hierarchy> <label>",
	Short:   "Export the descendants or ancestors of one label",
	Long:    "The label may be a tuple literal such as \"('governing', 'law')\" or plain text.",
	GroupID: "hierarchy",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		dirName, _ := cmd.Flags().GetString("direction")
		dir, err := graph.ParseDirection(dirName)
		if err != nil {
			return err
		}

		a, err := newAnalyzer(context.Background(), nil)
		if err != nil {
			return err
		}
		g, err := a.LoadGraph(args[0])
		if err != nil {
			return err
		}
		sg, err := labelhier.Subgraph(g, args[1], dir)
		if err != nil {
			return fmt.Errorf("subgraph of %s: %w", args[1], err)
		}
		if err := gexf.WriteFile(out, sg); err != nil {
			return err
		}
		logger.Info("wrote subgraph", "path", out, "direction", dir, "nodes", sg.Len(), "edges", sg.EdgeCount())
		return nil
	},
}

func init() {
	buildCmd.Flags().StringP("out", "o", "label_hierarchy.gexf", "output GEXF file")

	pruneCmd.Flags().StringP("out", "o", "label_hierarchy_pruned.gexf", "output GEXF file")
	pruneCmd.Flags().Int64("min-freq", 50, "remove leaves with weight below this")

	subgraphCmd.Flags().StringP("out", "o", "label_hierarchy_sg.gexf", "output GEXF file")
	subgraphCmd.Flags().String("direction", "descendants", "descendants or ancestors")
}
