// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package patterns synthesizes human-readable pattern and anomaly
// records from clustering results.
//
// # Description
//
// A cluster of structurally similar units becomes a Pattern describing
// the traits its members share. Members whose distance to their own
// centroid is a statistical outlier additionally become anomaly
// Patterns; an outlier stays in its cluster, the anomaly record is an
// extra report, not an exclusion.
package patterns

import "github.com/AleutianAI/patternlens/services/discovery/features"

// Category distinguishes cluster-derived patterns from anomalies.
type Category string

const (
	// CategoryCluster is a recurring structural pattern.
	CategoryCluster Category = "cluster"

	// CategoryAnomaly is a single statistical outlier.
	CategoryAnomaly Category = "anomaly"
)

// Pattern is the durable output unit of pattern discovery.
//
// Read-only once produced. The JSON shape is what the reporting
// collaborator persists.
type Pattern struct {
	// ID uniquely identifies this record within a run.
	ID string `json:"id"`

	// ClusterID is the cluster this pattern was derived from. Anomaly
	// records carry the cluster they were measured against.
	ClusterID int `json:"cluster_id"`

	// Description summarizes the dominant shared traits of the members.
	Description string `json:"description"`

	// Category is "cluster" or "anomaly".
	Category Category `json:"category"`

	// Size is the member count (always 1 for anomalies).
	Size int `json:"size"`

	// Confidence is in [0, 1]. For clusters it is derived from the
	// average intra-cluster distance; for anomalies from how far past
	// the outlier threshold the member sits.
	Confidence float64 `json:"confidence"`

	// ExampleRefs reference a small sample of member units as
	// "file:line:name".
	ExampleRefs []string `json:"example_refs"`

	// CommonTerms are the most frequent name fragments among members.
	CommonTerms []string `json:"common_terms,omitempty"`

	// Anomaly is true for CategoryAnomaly records.
	Anomaly bool `json:"anomaly"`

	// Examples are the sampled member records backing ExampleRefs.
	Examples []*features.CodeFeatures `json:"-"`
}
