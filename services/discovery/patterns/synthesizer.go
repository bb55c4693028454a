// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package patterns

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/AleutianAI/patternlens/services/discovery/cluster"
	"github.com/AleutianAI/patternlens/services/discovery/features"
)

// DefaultAnomalyZ is the default outlier sensitivity: members farther
// than mean + z*stddev from their centroid are flagged. Heuristic;
// tune per corpus.
const DefaultAnomalyZ = 2.0

// Trait cutoffs on normalized centroid components. A dimension this
// high or this low is considered characteristic of the cluster.
const (
	highTraitCutoff = 0.66
	lowTraitCutoff  = 0.15
)

// SynthesizerOptions configures pattern synthesis.
type SynthesizerOptions struct {
	// AnomalyZ is the outlier sensitivity. Default: DefaultAnomalyZ.
	AnomalyZ float64

	// MaxExamples bounds the representative sample per pattern.
	// Default: 3.
	MaxExamples int

	// MaxCommonTerms bounds the reported name fragments per pattern.
	// Default: 3.
	MaxCommonTerms int
}

// DefaultSynthesizerOptions returns sensible defaults.
func DefaultSynthesizerOptions() SynthesizerOptions {
	return SynthesizerOptions{
		AnomalyZ:       DefaultAnomalyZ,
		MaxExamples:    3,
		MaxCommonTerms: 3,
	}
}

// SynthesizerOption is a functional option for configuring a Synthesizer.
type SynthesizerOption func(*SynthesizerOptions)

// WithAnomalyZ sets the outlier sensitivity.
func WithAnomalyZ(z float64) SynthesizerOption {
	return func(o *SynthesizerOptions) {
		if z > 0 {
			o.AnomalyZ = z
		}
	}
}

// WithMaxExamples bounds the representative sample per pattern.
func WithMaxExamples(n int) SynthesizerOption {
	return func(o *SynthesizerOptions) {
		if n > 0 {
			o.MaxExamples = n
		}
	}
}

// Synthesizer turns clusters into Pattern records.
//
// # Thread Safety
//
// Safe for concurrent use; Synthesize keeps all state on the stack.
type Synthesizer struct {
	opts SynthesizerOptions
}

// NewSynthesizer creates a Synthesizer with the given options.
func NewSynthesizer(opts ...SynthesizerOption) *Synthesizer {
	options := DefaultSynthesizerOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Synthesizer{opts: options}
}

// Synthesize builds the ordered Pattern list for one clustering run.
//
// # Description
//
// Every cluster with at least minSamples members becomes a Pattern whose
// description names the dominant shared traits and whose confidence is
// the bounded inverse of the average member-to-centroid distance.
// Smaller clusters are valid clustering results but are dropped from the
// output. Independently, each cluster's member distances are tested
// against mean + z*stddev; members beyond the threshold are emitted as
// additional anomaly Patterns. A member can be both a normal cluster
// member and an anomaly. Members of clusters below minSamples are also
// judged against the nearest reported cluster's distance spread, so an
// outlier reseeded into its own tiny cluster is still flagged. Output
// ordering: cluster patterns by descending size, then anomalies.
//
// # Inputs
//
//   - feats: The feature records that were clustered, batch order.
//   - vectors: The normalized vectors the clustering ran on, same order.
//   - result: The K-means result for that batch.
//   - minSamples: Minimum member count for a reportable pattern.
func (s *Synthesizer) Synthesize(
	feats []*features.CodeFeatures,
	vectors []cluster.Vector,
	result *cluster.Result,
	minSamples int,
) ([]Pattern, error) {
	if result == nil || len(feats) != len(result.Assignments) || len(vectors) != len(feats) {
		return nil, ErrInvalidInput
	}

	members := make(map[int][]int)
	for i, a := range result.Assignments {
		members[a] = append(members[a], i)
	}

	var out []Pattern
	var anomalies []Pattern

	clusterIDs := make([]int, 0, len(members))
	for id := range members {
		clusterIDs = append(clusterIDs, id)
	}
	sort.Ints(clusterIDs)

	// Distance statistics for reported clusters, reused when judging
	// singleton clusters below.
	type clusterStats struct {
		id       int
		centroid cluster.Vector
		mean     float64
		stddev   float64
	}
	var reported []clusterStats

	for _, id := range clusterIDs {
		idxs := members[id]
		centroid := result.Centroids[id]

		dists := make([]float64, len(idxs))
		for j, i := range idxs {
			dists[j] = cluster.EuclideanDistance(vectors[i], centroid)
		}
		mean, stddev := meanStddev(dists)

		if len(idxs) >= minSamples {
			out = append(out, s.clusterPattern(id, idxs, feats, centroid, mean))
			reported = append(reported, clusterStats{id: id, centroid: centroid, mean: mean, stddev: stddev})
		}

		// Anomaly detection runs on every cluster, including those too
		// small to report as a pattern.
		if stddev > 0 {
			threshold := mean + s.opts.AnomalyZ*stddev
			for j, i := range idxs {
				if dists[j] > threshold {
					anomalies = append(anomalies, s.anomalyPattern(id, feats[i], dists[j], mean, stddev))
				}
			}
		}
	}

	// Units stranded in clusters too small to report never trip the
	// within-cluster test, yet they are the clearest outliers of all:
	// judge each one against the nearest reported cluster's distance
	// distribution.
	for _, id := range clusterIDs {
		idxs := members[id]
		if len(idxs) >= minSamples || len(reported) == 0 {
			continue
		}

		for _, i := range idxs {
			nearest := reported[0]
			nearestDist := cluster.EuclideanDistance(vectors[i], reported[0].centroid)
			for _, cs := range reported[1:] {
				if d := cluster.EuclideanDistance(vectors[i], cs.centroid); d < nearestDist {
					nearest = cs
					nearestDist = d
				}
			}

			if nearestDist > nearest.mean+s.opts.AnomalyZ*nearest.stddev {
				anomalies = append(anomalies, s.isolatedAnomaly(nearest.id, feats[i], nearestDist))
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].ClusterID < out[j].ClusterID
	})
	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].Confidence > anomalies[j].Confidence
	})

	return append(out, anomalies...), nil
}

// clusterPattern builds the Pattern record for one reportable cluster.
func (s *Synthesizer) clusterPattern(
	id int,
	idxs []int,
	feats []*features.CodeFeatures,
	centroid cluster.Vector,
	meanDist float64,
) Pattern {
	examples := make([]*features.CodeFeatures, 0, s.opts.MaxExamples)
	refs := make([]string, 0, s.opts.MaxExamples)
	for _, i := range idxs {
		if len(examples) == s.opts.MaxExamples {
			break
		}
		examples = append(examples, feats[i])
		refs = append(refs, feats[i].Ref())
	}

	names := make([]string, 0, len(idxs))
	for _, i := range idxs {
		names = append(names, feats[i].UnitName)
	}

	return Pattern{
		ID:          uuid.NewString(),
		ClusterID:   id,
		Description: describeCentroid(centroid, len(idxs)),
		Category:    CategoryCluster,
		Size:        len(idxs),
		Confidence:  1 / (1 + meanDist),
		ExampleRefs: refs,
		CommonTerms: commonTerms(names, s.opts.MaxCommonTerms),
		Examples:    examples,
	}
}

// anomalyPattern builds the extra record for one outlier member.
func (s *Synthesizer) anomalyPattern(
	clusterID int,
	f *features.CodeFeatures,
	dist, mean, stddev float64,
) Pattern {
	zscore := (dist - mean) / stddev
	excess := zscore - s.opts.AnomalyZ

	return Pattern{
		ID:        uuid.NewString(),
		ClusterID: clusterID,
		Description: fmt.Sprintf("%s %q deviates sharply from its cluster (%.1f stddev from centroid)",
			f.Kind, f.UnitName, zscore),
		Category:    CategoryAnomaly,
		Size:        1,
		Confidence:  excess / (excess + 1),
		ExampleRefs: []string{f.Ref()},
		Anomaly:     true,
		Examples:    []*features.CodeFeatures{f},
	}
}

func (s *Synthesizer) isolatedAnomaly(clusterID int, f *features.CodeFeatures, dist float64) Pattern {
	return Pattern{
		ID:        uuid.NewString(),
		ClusterID: clusterID,
		Description: fmt.Sprintf("%s %q is isolated far from every recurring pattern (distance %.2f from nearest centroid)",
			f.Kind, f.UnitName, dist),
		Category:    CategoryAnomaly,
		Size:        1,
		Confidence:  dist / (dist + 1),
		ExampleRefs: []string{f.Ref()},
		Anomaly:     true,
		Examples:    []*features.CodeFeatures{f},
	}
}

// describeCentroid names the dominant traits of a cluster from its
// normalized centroid components.
func describeCentroid(centroid cluster.Vector, size int) string {
	names := features.MetricNames()

	var traits []string
	for i, v := range centroid {
		if i >= len(names) {
			break
		}
		switch {
		case v >= highTraitCutoff:
			traits = append(traits, "high "+names[i])
		case v <= lowTraitCutoff:
			traits = append(traits, "low "+names[i])
		}
	}

	if len(traits) == 0 {
		return fmt.Sprintf("balanced structural profile (%d units)", size)
	}
	if len(traits) > 3 {
		traits = traits[:3]
	}
	return fmt.Sprintf("%s (%d units)", strings.Join(traits, ", "), size)
}

// commonTerms returns the most frequent name fragments, split on
// underscores and camel-case boundaries.
func commonTerms(names []string, limit int) []string {
	counts := make(map[string]int)
	for _, name := range names {
		for _, term := range splitIdentifier(name) {
			if len(term) < 3 {
				continue
			}
			counts[term]++
		}
	}

	terms := make([]string, 0, len(counts))
	for term, n := range counts {
		if n >= 2 {
			terms = append(terms, term)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

// splitIdentifier breaks an identifier into lowercase fragments.
func splitIdentifier(name string) []string {
	var parts []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	for _, r := range name {
		switch {
		case r == '_' || r == '.' || r == '-':
			flush()
		case unicode.IsUpper(r):
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return parts
}

// meanStddev returns the mean and population standard deviation.
func meanStddev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	return mean, math.Sqrt(variance)
}
