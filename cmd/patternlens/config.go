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
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/patternlens/services/discovery"
	"github.com/AleutianAI/patternlens/services/discovery/patterns"
)

// Config holds the analysis defaults loaded from the optional YAML
// config file. Command-line flags override any value set here.
type Config struct {
	// Clusters is the number of clusters requested from K-means.
	Clusters int `yaml:"clusters"`

	// MinSamples is the minimum cluster size reported as a pattern.
	MinSamples int `yaml:"min_samples"`

	// Seed fixes centroid seeding for reproducible runs; 0 uses entropy.
	Seed int64 `yaml:"seed"`

	// AnomalyZ is the z-score multiplier for anomaly flagging.
	AnomalyZ float64 `yaml:"anomaly_z"`

	// Workers bounds the parallel extraction fan-out.
	Workers int `yaml:"workers"`

	// Format selects the report format: "text" or "json".
	Format string `yaml:"format"`

	// Output is the path the JSON report is written to ("" = stdout only).
	Output string `yaml:"output"`

	// MetricsPort serves Prometheus metrics during the run when non-zero.
	MetricsPort int `yaml:"metrics_port"`

	// TraceExporter selects the otel trace exporter: "stdout" or "none".
	TraceExporter string `yaml:"trace_exporter"`
}

// DefaultCLIConfig returns the built-in analysis defaults.
func DefaultCLIConfig() Config {
	return Config{
		Clusters:      5,
		MinSamples:    3,
		AnomalyZ:      patterns.DefaultAnomalyZ,
		Workers:       discovery.DefaultWorkers,
		Format:        "text",
		TraceExporter: "none",
	}
}

// LoadConfig reads the YAML config at path, falling back to defaults
// when the file does not exist. A present-but-broken file is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultCLIConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
