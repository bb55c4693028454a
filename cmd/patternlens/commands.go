// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// --- Global Command Variables ---
var (
	configPath     string
	debug          bool
	logDir         string
	flagClusters   int
	flagMinSamples int
	flagSeed       int64
	flagAnomalyZ   float64
	flagWorkers    int
	flagFormat     string
	flagOutput     string
	flagMetrics    int

	rootCmd = &cobra.Command{
		Use:   "patternlens",
		Short: "Discover recurring code patterns and structural anomalies",
		Long: `Patternlens extracts structural features from Go and Python sources,
clusters them without labels, and reports the recurring patterns and
the outliers that belong to none of them.`,
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze [directory]",
		Short: "Analyze a source directory and report discovered patterns",
		Args:  cobra.ExactArgs(1),
		Run:   runAnalyzeCommand, // Defined in cmd_analyze.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the patternlens version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("patternlens %s\n", Version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "patternlens.yaml",
		"Path to the YAML config file (missing file uses defaults)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Also write JSON logs to this directory")

	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().IntVar(&flagClusters, "clusters", 0, "Number of clusters to request (default from config)")
	analyzeCmd.Flags().IntVar(&flagMinSamples, "min-samples", 0, "Minimum cluster size reported as a pattern")
	analyzeCmd.Flags().Int64Var(&flagSeed, "seed", 0, "Centroid seed for reproducible runs (0 = entropy)")
	analyzeCmd.Flags().Float64Var(&flagAnomalyZ, "z", 0, "Anomaly z-score multiplier")
	analyzeCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Parallel extraction workers")
	analyzeCmd.Flags().StringVar(&flagFormat, "format", "", "Report format: text or json")
	analyzeCmd.Flags().StringVar(&flagOutput, "output", "", "Write the JSON report to this file")
	analyzeCmd.Flags().IntVar(&flagMetrics, "metrics-port", 0, "Serve Prometheus metrics on this port during the run")

	rootCmd.AddCommand(versionCmd)
}

// effectiveConfig folds the analyze flags over the loaded config.
func effectiveConfig(cfg Config) Config {
	if flagClusters > 0 {
		cfg.Clusters = flagClusters
	}
	if flagMinSamples > 0 {
		cfg.MinSamples = flagMinSamples
	}
	if flagSeed != 0 {
		cfg.Seed = flagSeed
	}
	if flagAnomalyZ > 0 {
		cfg.AnomalyZ = flagAnomalyZ
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if flagFormat != "" {
		cfg.Format = flagFormat
	}
	if flagOutput != "" {
		cfg.Output = flagOutput
	}
	if flagMetrics > 0 {
		cfg.MetricsPort = flagMetrics
	}
	return cfg
}
