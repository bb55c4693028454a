// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package features

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// extractFromSource writes src to a temp file and extracts features.
func extractFromSource(t *testing.T, name, src string) []*CodeFeatures {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	extractor := NewExtractor(nil)
	feats, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)
	return feats
}

// findUnit returns the first unit with the given name.
func findUnit(t *testing.T, feats []*CodeFeatures, name string) *CodeFeatures {
	t.Helper()
	for _, f := range feats {
		if f.UnitName == name {
			return f
		}
	}
	t.Fatalf("unit %q not found in %d features", name, len(feats))
	return nil
}

const goSample = `package main

func greet(name string) string {
	if name == "" {
		return "hello"
	}
	return "hello " + name
}

func empty() {}

type Greeter struct {
	prefix string
}
`

func TestExtract_GoUnits(t *testing.T) {
	feats := extractFromSource(t, "sample.go", goSample)

	// One module, two functions, one type.
	require.Len(t, feats, 4)

	greet := findUnit(t, feats, "greet")
	assert.Equal(t, UnitFunction, greet.Kind)
	assert.Equal(t, 1, greet.ParamCount)
	assert.Equal(t, 1, greet.BranchCount)
	assert.Equal(t, 1, greet.NestingDepth)
	assert.Equal(t, 6, greet.LineCount)

	greeter := findUnit(t, feats, "Greeter")
	assert.Equal(t, UnitClass, greeter.Kind)
	assert.Equal(t, 0, greeter.ParamCount)

	module := findUnit(t, feats, "sample")
	assert.Equal(t, UnitModule, module.Kind)
	assert.Equal(t, 1, module.BranchCount)
}

func TestExtract_ZeroStatementUnit(t *testing.T) {
	feats := extractFromSource(t, "sample.go", goSample)

	empty := findUnit(t, feats, "empty")
	assert.Equal(t, 0, empty.ParamCount)
	assert.Equal(t, 0, empty.NestingDepth)
	assert.Equal(t, 0, empty.BranchCount)
	assert.Equal(t, 0.0, empty.DuplicationProxy)
	assert.Equal(t, 1, empty.LineCount)
}

const pySample = `def flat(a, b):
    return a + b

class Greeter:
    def greet(self, name):
        if name:
            return name
        return "anon"
`

func TestExtract_PythonUnits(t *testing.T) {
	feats := extractFromSource(t, "sample.py", pySample)

	flat := findUnit(t, feats, "flat")
	assert.Equal(t, UnitFunction, flat.Kind)
	assert.Equal(t, 2, flat.ParamCount)
	assert.Equal(t, 0, flat.BranchCount)
	assert.Equal(t, 0, flat.NestingDepth)

	greet := findUnit(t, feats, "greet")
	assert.Equal(t, 1, greet.ParamCount, "self must be excluded")
	assert.Equal(t, 1, greet.BranchCount)
	assert.Equal(t, 1, greet.NestingDepth)

	greeter := findUnit(t, feats, "Greeter")
	assert.Equal(t, UnitClass, greeter.Kind)
	assert.Equal(t, 1, greeter.BranchCount, "class accumulates nested branches")
}

func TestExtract_DeepNestingIsNotCapped(t *testing.T) {
	src := `package deep

func nested(x int) int {
	if x > 0 {
		if x > 1 {
			if x > 2 {
				if x > 3 {
					if x > 4 {
						return x
					}
				}
			}
		}
	}
	return 0
}
`
	feats := extractFromSource(t, "deep.go", src)

	nested := findUnit(t, feats, "nested")
	assert.Equal(t, 5, nested.NestingDepth)
	assert.Equal(t, 5, nested.BranchCount)
}

func TestExtract_CommentDensity(t *testing.T) {
	src := `package doc

func documented() {
	// first explanatory line
	// second explanatory line
	_ = 1
}
`
	feats := extractFromSource(t, "doc.go", src)

	documented := findUnit(t, feats, "documented")
	assert.InDelta(t, 2.0/5.0, documented.CommentDensity, 1e-9)
}

func TestExtract_UnsupportedFileYieldsNothing(t *testing.T) {
	feats := extractFromSource(t, "README.md", "# not code\n")
	assert.Empty(t, feats)
}

func TestVector_FixedDimensionAndOrder(t *testing.T) {
	f := &CodeFeatures{
		LineCount:        10,
		ParamCount:       2,
		NestingDepth:     3,
		BranchCount:      4,
		NamingQuality:    0.5,
		CommentDensity:   0.25,
		DuplicationProxy: 0.125,
	}

	v := f.Vector()
	require.Len(t, v, FeatureDim)
	assert.Equal(t, []float64{10, 2, 3, 4, 0.5, 0.25, 0.125}, v)
	assert.Len(t, MetricNames(), FeatureDim)
}

func TestNamingQuality(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name   string
		ident  string
		kind   UnitKind
		casing casingStyle
		want   float64
	}{
		{"good go camelCase", "parseConfig", UnitFunction, casingMixed, 1.0},
		{"go with underscore", "parse_config", UnitFunction, casingMixed, 0.7},
		{"single letter", "f", UnitFunction, casingMixed, 0.625},
		{"good python snake", "parse_config", UnitFunction, casingSnake, 1.0},
		{"python camel function", "parseConfig", UnitFunction, casingSnake, 0.7},
		{"python pascal class", "ConfigParser", UnitClass, casingSnake, 1.0},
		{"empty name", "", UnitFunction, casingMixed, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := namingQuality(tt.ident, tt.kind, tt.casing, th)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDuplicationProxy(t *testing.T) {
	lines := []string{
		"result := compute(alpha, beta)",
		"result := compute(alpha, beta)",
		"result := compute(alpha, beta)",
		"return result",
	}

	// 4 considered lines, 2 repeats of the first.
	assert.InDelta(t, 0.5, duplicationProxy(lines, 8), 1e-9)
	assert.Equal(t, 0.0, duplicationProxy(nil, 8))
	assert.Equal(t, 0.0, duplicationProxy([]string{"x", "x"}, 8), "short lines ignored")
}
