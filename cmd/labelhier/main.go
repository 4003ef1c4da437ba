package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cognicore/labelhier/pkg/labelhier/config"
)

var (
	configPath string
	debug      bool
	jsonOutput bool

	cfg    config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:           "labelhier <command>",
	Short:         "Analyse and repair n-gram label hierarchies",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := log.InfoLevel
		if debug {
			level = log.DebugLevel
		}
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Level:           level,
		})

		cfg = config.Default()
		if configPath != "" {
			c, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = c
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "hierarchy", Title: "Hierarchy:"},
		&cobra.Group{ID: "analysis", Title: "Analysis:"},
	)
	cobra.EnableCommandSorting = false

	// Hierarchy
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(subgraphCmd)
	rootCmd.AddCommand(splitCmd)

	// Analysis
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(substituteCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(diagnoseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error(err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
