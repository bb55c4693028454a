// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package features extracts structural feature records from parse trees.
//
// # Description
//
// The Extractor walks a SourceTree exactly once and emits one CodeFeatures
// record per structural unit (module, class, function). All metrics for a
// unit are accumulated during that single traversal, so extraction cost is
// O(number of AST nodes) rather than O(metrics x nodes).
//
// # Thread Safety
//
// Extractor is safe for concurrent use; per-file extraction state is local
// to each call.
package features

import "fmt"

// UnitKind classifies a structural unit under analysis.
type UnitKind string

const (
	// UnitModule is a whole source file.
	UnitModule UnitKind = "module"

	// UnitClass is a class-like declaration (Go type, Python class).
	UnitClass UnitKind = "class"

	// UnitFunction is a function or method.
	UnitFunction UnitKind = "function"
)

// FeatureDim is the fixed dimensionality of a feature vector. Every
// vector produced by CodeFeatures.Vector has exactly this length.
const FeatureDim = 7

// CodeFeatures is the metric record for one structural unit.
//
// Records are created once per extraction pass and treated as immutable
// afterward; the engine holds them for the duration of a discovery run.
type CodeFeatures struct {
	// FilePath is the file the unit was extracted from.
	FilePath string `json:"file_path"`

	// UnitName is the declared name (file base name for modules).
	UnitName string `json:"unit_name"`

	// Kind is the unit classification.
	Kind UnitKind `json:"kind"`

	// StartLine and EndLine are 1-based inclusive line bounds.
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`

	// LineCount is the number of source lines the unit spans.
	LineCount int `json:"line_count"`

	// ParamCount is the number of declared parameters (0 for non-functions).
	ParamCount int `json:"param_count"`

	// NestingDepth is the maximum depth of compound statements inside the
	// unit body. Reported as-is with no cap: extreme nesting is exactly
	// what anomaly detection should be able to surface.
	NestingDepth int `json:"nesting_depth"`

	// BranchCount is the number of branching constructs, a cyclomatic
	// complexity proxy.
	BranchCount int `json:"branch_count"`

	// NamingQuality scores the unit name against length and casing
	// conventions, in [0, 1].
	NamingQuality float64 `json:"naming_quality"`

	// CommentDensity is the fraction of unit lines covered by comments,
	// in [0, 1].
	CommentDensity float64 `json:"comment_density"`

	// DuplicationProxy is the fraction of repeated normalized lines
	// within the unit, in [0, 1].
	DuplicationProxy float64 `json:"duplication_proxy"`
}

// Vector returns the metrics as a fixed-order float slice of length
// FeatureDim. The order is part of the package contract: line count,
// param count, nesting depth, branch count, naming quality, comment
// density, duplication proxy.
func (f *CodeFeatures) Vector() []float64 {
	return []float64{
		float64(f.LineCount),
		float64(f.ParamCount),
		float64(f.NestingDepth),
		float64(f.BranchCount),
		f.NamingQuality,
		f.CommentDensity,
		f.DuplicationProxy,
	}
}

// MetricNames returns human-readable names for the vector dimensions,
// index-aligned with Vector.
func MetricNames() []string {
	return []string{
		"line count",
		"param count",
		"nesting depth",
		"branch count",
		"naming quality",
		"comment density",
		"duplication",
	}
}

// Ref is a compact reference to a unit, used in pattern examples.
func (f *CodeFeatures) Ref() string {
	return fmt.Sprintf("%s:%d:%s", f.FilePath, f.StartLine, f.UnitName)
}

// Thresholds holds the tunable constants behind the heuristic metrics.
//
// The naming-quality formula has no principled derivation; treat these
// as configuration and validate against a labeled sample before relying
// on them.
type Thresholds struct {
	// NamingMinLen and NamingMaxLen bound the "comfortable" identifier
	// length band that scores full marks.
	NamingMinLen int
	NamingMaxLen int

	// MinDupLineLen is the minimum normalized line length considered for
	// the duplication proxy. Shorter lines (braces, "return") repeat
	// naturally and would inflate the signal.
	MinDupLineLen int
}

// DefaultThresholds returns the default heuristic constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NamingMinLen:  3,
		NamingMaxLen:  24,
		MinDupLineLen: 8,
	}
}
