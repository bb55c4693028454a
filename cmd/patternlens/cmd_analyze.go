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
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/patternlens/services/discovery"
	"github.com/AleutianAI/patternlens/services/discovery/telemetry"
)

func runAnalyzeCommand(cmd *cobra.Command, args []string) {
	cfg := effectiveConfig(config)

	if err := analyze(cmd.Context(), args[0], cfg, os.Stdout); err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
}

// analyze runs one extraction + discovery pass over dir and writes the
// report per cfg.
func analyze(ctx context.Context, dir string, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	telCfg := telemetry.DefaultConfig()
	telCfg.ServiceVersion = Version
	telCfg.TraceExporter = cfg.TraceExporter
	if cfg.MetricsPort > 0 {
		telCfg.MetricExporter = "prometheus"
	}

	shutdown, err := telemetry.Init(ctx, telCfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	if cfg.MetricsPort > 0 {
		if handler := telemetry.MetricsHandler(); handler != nil {
			mux := http.NewServeMux()
			mux.Handle("/metrics", handler)
			go func() {
				addr := fmt.Sprintf(":%d", cfg.MetricsPort)
				if err := http.ListenAndServe(addr, mux); err != nil {
					slog.Warn("metrics endpoint stopped", slog.Any("error", err))
				}
			}()
		}
	}

	engine := discovery.NewEngine(
		discovery.WithSeed(cfg.Seed),
		discovery.WithWorkers(cfg.Workers),
		discovery.WithAnomalyZ(cfg.AnomalyZ),
	)

	count, err := engine.ExtractFeaturesFromDirectory(ctx, dir)
	if err != nil {
		return fmt.Errorf("extract features: %w", err)
	}

	pats, err := engine.DiscoverPatterns(ctx, cfg.Clusters, cfg.MinSamples)
	if err != nil {
		return fmt.Errorf("discover patterns: %w", err)
	}

	report := buildReport(dir, count, pats, engine.CacheStats())

	switch cfg.Format {
	case "json":
		if err := renderJSON(out, report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	default:
		renderText(out, report)
	}

	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		if err := renderJSON(f, report); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		slog.Info("report written", slog.String("path", cfg.Output))
	}

	return nil
}
