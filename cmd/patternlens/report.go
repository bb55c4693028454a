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
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/patternlens/services/discovery"
	"github.com/AleutianAI/patternlens/services/discovery/patterns"
)

// Report is the JSON document produced by an analyze run.
type Report struct {
	RunID       string               `json:"run_id"`
	Directory   string               `json:"directory"`
	GeneratedAt time.Time            `json:"generated_at"`
	UnitCount   int                  `json:"unit_count"`
	Patterns    []patterns.Pattern   `json:"patterns"`
	CacheStats  discovery.CacheStats `json:"cache_stats"`
}

func buildReport(dir string, unitCount int, pats []patterns.Pattern, stats discovery.CacheStats) Report {
	return Report{
		RunID:       uuid.NewString(),
		Directory:   dir,
		GeneratedAt: time.Now().UTC(),
		UnitCount:   unitCount,
		Patterns:    pats,
		CacheStats:  stats,
	}
}

// renderText writes a human-readable summary of the report.
func renderText(w io.Writer, r Report) {
	fmt.Fprintf(w, "patternlens run %s\n", r.RunID)
	fmt.Fprintf(w, "directory: %s\n", r.Directory)
	fmt.Fprintf(w, "units analyzed: %d\n\n", r.UnitCount)

	if len(r.Patterns) == 0 {
		fmt.Fprintln(w, "no patterns found")
		return
	}

	for _, p := range r.Patterns {
		label := "pattern"
		if p.Anomaly {
			label = "anomaly"
		}
		fmt.Fprintf(w, "[%s] cluster %d (%d units, confidence %.2f)\n",
			label, p.ClusterID, p.Size, p.Confidence)
		fmt.Fprintf(w, "  %s\n", p.Description)
		if len(p.CommonTerms) > 0 {
			fmt.Fprintf(w, "  common terms: %s\n", strings.Join(p.CommonTerms, ", "))
		}
		for _, ref := range p.ExampleRefs {
			fmt.Fprintf(w, "  example: %s\n", ref)
		}
		fmt.Fprintln(w)
	}
}

// renderJSON writes the report as indented JSON.
func renderJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
