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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/patternlens/services/discovery/patterns"
)

// writeScenarioCorpus builds a directory holding twelve near-identical
// small handlers and one deeply nested ~200-line function.
func writeScenarioCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	var b strings.Builder
	b.WriteString("package corpus\n\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "func handleItem%d(v int) int {\n\treturn v + %d\n}\n\n", i, i)
	}

	const depth = 8
	b.WriteString("func processEverything(a int, b int) int {\n")
	b.WriteString("\ttotal := 0\n")
	for d := 0; d < depth; d++ {
		fmt.Fprintf(&b, "%sif a > %d {\n", strings.Repeat("\t", d+1), d)
	}
	inner := strings.Repeat("\t", depth+1)
	for i := 0; i < 180; i++ {
		fmt.Fprintf(&b, "%stotal = total + b + %d\n", inner, i)
	}
	for d := depth - 1; d >= 0; d-- {
		b.WriteString(strings.Repeat("\t", d+1) + "}\n")
	}
	b.WriteString("\treturn total\n}\n")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "corpus.go"), []byte(b.String()), 0o600))
	return dir
}

func TestEngine_DiscoverOnEmptyCorpus(t *testing.T) {
	eng := NewEngine()

	out, err := eng.DiscoverPatterns(context.Background(), 5, 3)
	require.NoError(t, err, "empty corpus is legitimate input")
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Equal(t, 0, eng.FeatureCount())
}

func TestEngine_ExtractInvalidDirectory(t *testing.T) {
	eng := NewEngine()

	_, err := eng.ExtractFeaturesFromDirectory(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = eng.ExtractFeaturesFromDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrWalkFailed)
}

func TestEngine_RepetitionPatternWithNestedOutlier(t *testing.T) {
	dir := writeScenarioCorpus(t)
	eng := NewEngine(WithSeed(42))

	count, err := eng.ExtractFeaturesFromDirectory(context.Background(), dir)
	require.NoError(t, err)
	// One module unit plus thirteen functions.
	require.Equal(t, 14, count)

	out, err := eng.DiscoverPatterns(context.Background(), 2, 3)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	// The repeated handlers form the single reported pattern.
	var clusterPatterns int
	for _, p := range out {
		if p.Category == patterns.CategoryCluster {
			clusterPatterns++
		}
	}
	assert.Equal(t, 1, clusterPatterns, "only the handler cluster is large enough to report")

	dominant := out[0]
	assert.Equal(t, patterns.CategoryCluster, dominant.Category)
	assert.GreaterOrEqual(t, dominant.Size, 12)
	assert.Greater(t, dominant.Confidence, 0.5)
	assert.NotEmpty(t, dominant.ExampleRefs)

	// The nested monster surfaces as an anomaly, never as a pattern.
	var flagged bool
	for _, p := range out {
		if p.Category != patterns.CategoryAnomaly {
			continue
		}
		assert.True(t, p.Anomaly)
		assert.Equal(t, 1, p.Size)
		for _, ref := range p.ExampleRefs {
			if strings.Contains(ref, "processEverything") {
				flagged = true
			}
		}
	}
	assert.True(t, flagged, "deeply nested function must be flagged as an anomaly")
}

func TestEngine_RepeatedDiscoveryIsDeterministic(t *testing.T) {
	dir := writeScenarioCorpus(t)
	eng := NewEngine(WithSeed(7))

	_, err := eng.ExtractFeaturesFromDirectory(context.Background(), dir)
	require.NoError(t, err)

	first, err := eng.DiscoverPatterns(context.Background(), 2, 3)
	require.NoError(t, err)
	second, err := eng.DiscoverPatterns(context.Background(), 2, 3)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Category, second[i].Category)
		assert.Equal(t, first[i].Size, second[i].Size)
		assert.Equal(t, first[i].ClusterID, second[i].ClusterID)
		assert.Equal(t, first[i].Description, second[i].Description)
		assert.Equal(t, first[i].ExampleRefs, second[i].ExampleRefs)
	}
}

func TestEngine_CacheStatsAndClear(t *testing.T) {
	dir := writeScenarioCorpus(t)
	eng := NewEngine(WithSeed(1))

	count, err := eng.ExtractFeaturesFromDirectory(context.Background(), dir)
	require.NoError(t, err)

	_, err = eng.DiscoverPatterns(context.Background(), 2, 3)
	require.NoError(t, err)

	stats := eng.CacheStats()
	assert.Equal(t, 1, stats.ContentCacheSize)
	assert.Equal(t, 1, stats.TreeCacheSize)
	assert.Equal(t, count, stats.VectorCacheSize, "one cached vector per feature record")
	assert.Equal(t, int64(1), stats.Reader.ParseCount)

	eng.ClearCaches()
	cleared := eng.CacheStats()
	assert.Equal(t, 0, cleared.ContentCacheSize)
	assert.Equal(t, 0, cleared.TreeCacheSize)
	assert.Equal(t, 0, cleared.VectorCacheSize)

	// Features survive a cache clear: discovery recomputes vectors.
	assert.Equal(t, count, eng.FeatureCount())
	out, err := eng.DiscoverPatterns(context.Background(), 2, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	eng.Reset()
	assert.Equal(t, 0, eng.FeatureCount())
	out, err = eng.DiscoverPatterns(context.Background(), 2, 3)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEngine_CustomWalkRestrictsVisitedFiles(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.go")
	skip := filepath.Join(dir, "skip.go")
	require.NoError(t, os.WriteFile(keep, []byte("package a\n\nfunc kept() {}\n"), 0o600))
	require.NoError(t, os.WriteFile(skip, []byte("package a\n\nfunc skipped() {}\n"), 0o600))

	eng := NewEngine(WithWalk(func(ctx context.Context, root string, visit func(path string) error) error {
		return visit(keep)
	}))

	count, err := eng.ExtractFeaturesFromDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "module unit plus one function")

	for _, f := range eng.Features() {
		assert.NotEqual(t, "skipped", f.UnitName)
	}
}

func TestEngine_SkipsUnreadableAndUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.go"),
		[]byte("package a\n\nfunc ok() {}\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("not source\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.go"),
		[]byte{0xff, 0xfe, 0x00}, 0o600))

	eng := NewEngine()
	count, err := eng.ExtractFeaturesFromDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "only the valid Go file contributes units")
}
