// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package discovery

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for discovery operations.
var (
	tracer = otel.Tracer("patternlens.discovery")
	meter  = otel.Meter("patternlens.discovery")
)

// Metrics for discovery operations.
var (
	extractLatency  metric.Float64Histogram
	extractedUnits  metric.Int64Histogram
	discoverLatency metric.Float64Histogram
	discoverTotal   metric.Int64Counter
	patternsFound   metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		extractLatency, err = meter.Float64Histogram(
			"discovery_extract_duration_seconds",
			metric.WithDescription("Duration of directory feature extraction"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		extractedUnits, err = meter.Int64Histogram(
			"discovery_extracted_units",
			metric.WithDescription("Number of feature records extracted per directory pass"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		discoverLatency, err = meter.Float64Histogram(
			"discovery_discover_duration_seconds",
			metric.WithDescription("Duration of pattern discovery runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		discoverTotal, err = meter.Int64Counter(
			"discovery_discover_total",
			metric.WithDescription("Total number of pattern discovery runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		patternsFound, err = meter.Int64Histogram(
			"discovery_patterns_found",
			metric.WithDescription("Number of patterns found per discovery run"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startExtractSpan creates a span for a directory extraction pass.
func startExtractSpan(ctx context.Context, dir string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.ExtractFeaturesFromDirectory",
		trace.WithAttributes(
			attribute.String("discovery.dir", dir),
		),
	)
}

// recordExtractMetrics records metrics for a directory extraction pass.
func recordExtractMetrics(ctx context.Context, duration time.Duration, units int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))
	extractLatency.Record(ctx, duration.Seconds(), attrs)
	extractedUnits.Record(ctx, int64(units))
}

// startDiscoverSpan creates a span for a pattern discovery run.
func startDiscoverSpan(ctx context.Context, k, minSamples int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.DiscoverPatterns",
		trace.WithAttributes(
			attribute.Int("discovery.clusters", k),
			attribute.Int("discovery.min_samples", minSamples),
		),
	)
}

// recordDiscoverMetrics records metrics for a pattern discovery run.
func recordDiscoverMetrics(ctx context.Context, duration time.Duration, patternCount int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))
	discoverLatency.Record(ctx, duration.Seconds(), attrs)
	discoverTotal.Add(ctx, 1, attrs)
	patternsFound.Record(ctx, int64(patternCount))
}
