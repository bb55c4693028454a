// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates a file under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReader_ReadCachesContentAndTree(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")

	reader := NewReader(nil)
	ctx := context.Background()

	content1, tree1, err := reader.Read(ctx, path)
	require.NoError(t, err)
	require.NotNil(t, tree1)
	assert.Equal(t, "package main\n\nfunc main() {}\n", string(content1))

	stats := reader.CacheStats()
	assert.Equal(t, int64(1), stats.ReadCount)
	assert.Equal(t, int64(1), stats.ParseCount)
	assert.Equal(t, 1, stats.ContentEntries)
	assert.Equal(t, 1, stats.TreeEntries)

	// Second read must come from cache: no extra I/O, no extra parsing.
	content2, tree2, err := reader.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, content1, content2)
	assert.Same(t, tree1, tree2)

	stats = reader.CacheStats()
	assert.Equal(t, int64(1), stats.ReadCount)
	assert.Equal(t, int64(1), stats.ParseCount)
	assert.GreaterOrEqual(t, stats.TreeHits, int64(1))
}

func TestReader_SkipsUnsupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "not source code")

	reader := NewReader(nil)

	content, tree, err := reader.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Nil(t, content)
	assert.Nil(t, tree)

	stats := reader.CacheStats()
	assert.Equal(t, int64(0), stats.ReadCount)
	assert.Equal(t, int64(0), stats.ParseCount)
}

func TestReader_UnparseableFileYieldsEmptyContribution(t *testing.T) {
	dir := t.TempDir()
	// Invalid UTF-8 is a complete parse failure, not a syntax error.
	path := filepath.Join(dir, "bad.go")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00}, 0o644))

	reader := NewReader(nil)

	content, tree, err := reader.Read(context.Background(), path)
	require.NoError(t, err)
	assert.NotNil(t, content)
	assert.Nil(t, tree)
}

func TestReader_MissingFileReturnsError(t *testing.T) {
	reader := NewReader(nil)

	_, _, err := reader.Read(context.Background(), filepath.Join(t.TempDir(), "absent.go"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadFailed)
}

func TestReader_EmptyPathIsInvalid(t *testing.T) {
	reader := NewReader(nil)

	_, _, err := reader.Read(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReader_ClearResetsCachesAndCounters(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lib.py", "def f():\n    return 1\n")

	reader := NewReader(nil)
	ctx := context.Background()

	_, _, err := reader.Read(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 1, reader.CacheStats().TreeEntries)

	reader.Clear()

	stats := reader.CacheStats()
	assert.Equal(t, 0, stats.ContentEntries)
	assert.Equal(t, 0, stats.TreeEntries)
	assert.Equal(t, int64(0), stats.ReadCount)
	assert.Equal(t, int64(0), stats.ParseCount)

	// Reads after Clear repopulate from scratch.
	_, tree, err := reader.Read(ctx, path)
	require.NoError(t, err)
	assert.NotNil(t, tree)
	assert.Equal(t, int64(1), reader.CacheStats().ParseCount)
}

func TestReader_LRUEvictionClosesTrees(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.go", "package a\n")
	b := writeFile(t, dir, "b.go", "package b\n")
	c := writeFile(t, dir, "c.go", "package c\n")

	reader := NewReader(nil, WithMaxTreeEntries(2), WithMaxContentEntries(2))
	ctx := context.Background()

	for _, p := range []string{a, b, c} {
		_, _, err := reader.Read(ctx, p)
		require.NoError(t, err)
	}

	stats := reader.CacheStats()
	assert.Equal(t, 2, stats.TreeEntries)
	assert.Equal(t, 2, stats.ContentEntries)
	assert.GreaterOrEqual(t, stats.Evictions, int64(2))
}
