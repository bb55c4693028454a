// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package source loads and parses source files behind a session cache.
//
// # Description
//
// The Reader is the entry point of the discovery pipeline: it reads file
// content, selects a parser by extension, and produces a SourceTree. Two
// cache tiers keyed by absolute path (raw content and parsed trees) make
// a repeated Read for the same path O(1) with zero I/O and zero parsing.
//
// # Thread Safety
//
// Reader is safe for concurrent use. Concurrent reads of the same path
// are deduplicated with singleflight.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/patternlens/services/discovery/ast"
)

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// MaxContentEntries bounds the content cache (0 = unbounded).
	// Default: 4096.
	MaxContentEntries int

	// MaxTreeEntries bounds the parse-tree cache (0 = unbounded).
	// Default: 4096.
	MaxTreeEntries int
}

// DefaultReaderOptions returns sensible defaults.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		MaxContentEntries: 4096,
		MaxTreeEntries:    4096,
	}
}

// ReaderOption is a functional option for configuring a Reader.
type ReaderOption func(*ReaderOptions)

// WithMaxContentEntries bounds the content cache.
func WithMaxContentEntries(n int) ReaderOption {
	return func(o *ReaderOptions) {
		if n >= 0 {
			o.MaxContentEntries = n
		}
	}
}

// WithMaxTreeEntries bounds the parse-tree cache.
func WithMaxTreeEntries(n int) ReaderOption {
	return func(o *ReaderOptions) {
		if n >= 0 {
			o.MaxTreeEntries = n
		}
	}
}

// Stats is a point-in-time snapshot of the reader's cache behavior.
type Stats struct {
	// ContentEntries is the number of cached file contents.
	ContentEntries int `json:"content_entries"`

	// TreeEntries is the number of cached parse trees.
	TreeEntries int `json:"tree_entries"`

	// ContentHits and ContentMisses count content cache lookups.
	ContentHits   int64 `json:"content_hits"`
	ContentMisses int64 `json:"content_misses"`

	// TreeHits and TreeMisses count tree cache lookups.
	TreeHits   int64 `json:"tree_hits"`
	TreeMisses int64 `json:"tree_misses"`

	// Evictions counts entries dropped from either cache by LRU pressure.
	Evictions int64 `json:"evictions"`

	// ReadCount is the number of actual disk reads performed.
	ReadCount int64 `json:"read_count"`

	// ParseCount is the number of actual parse operations performed.
	ParseCount int64 `json:"parse_count"`
}

// Reader loads file content and parse trees with session caching.
type Reader struct {
	registry *ast.ParserRegistry
	content  *lruCache[[]byte]
	trees    *lruCache[*ast.SourceTree]
	flight   singleflight.Group

	reads  atomic.Int64
	parses atomic.Int64
}

// readResult carries a completed read through singleflight.
type readResult struct {
	content []byte
	tree    *ast.SourceTree
}

// NewReader creates a Reader backed by the given parser registry.
//
// # Inputs
//
//   - registry: Parser lookup by file extension. If nil, DefaultRegistry
//     is used.
//   - opts: Optional cache bounds.
func NewReader(registry *ast.ParserRegistry, opts ...ReaderOption) *Reader {
	if registry == nil {
		registry = ast.DefaultRegistry()
	}

	options := DefaultReaderOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Reader{
		registry: registry,
		content:  newLRUCache[[]byte](options.MaxContentEntries, nil),
		trees: newLRUCache[*ast.SourceTree](options.MaxTreeEntries, func(t *ast.SourceTree) {
			t.Close()
		}),
	}
}

// Read returns the content and parse tree for the file at path.
//
// # Description
//
// Files whose extension has no registered parser are skipped: Read
// returns (nil, nil, nil). A file that fails to parse (decode error,
// oversized input) is logged and also yields an empty result rather
// than an error, so one broken file never aborts a batch. Disk I/O
// failures are returned as errors for the caller to handle.
//
// A second Read for the same path within the session is served from the
// caches and performs zero I/O and zero parsing.
func (r *Reader) Read(ctx context.Context, path string) ([]byte, *ast.SourceTree, error) {
	if path == "" {
		return nil, nil, ErrInvalidInput
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	parser := r.registry.ForFile(abs)
	if parser == nil {
		return nil, nil, nil
	}

	if tree, ok := r.trees.Get(abs); ok {
		if content, ok := r.content.Get(abs); ok {
			return content, tree, nil
		}
	}

	v, err, _ := r.flight.Do(abs, func() (interface{}, error) {
		return r.load(ctx, parser, abs)
	})
	if err != nil {
		return nil, nil, err
	}

	result := v.(*readResult)
	return result.content, result.tree, nil
}

// load performs the uncached read-and-parse path for abs.
func (r *Reader) load(ctx context.Context, parser ast.Parser, abs string) (*readResult, error) {
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, abs, err)
	}
	r.reads.Add(1)
	r.content.Put(abs, content)

	tree, err := parser.Parse(ctx, content, abs)
	r.parses.Add(1)
	if err != nil {
		// Parse failures degrade to an empty contribution for this file.
		slog.Warn("skipping unparseable file",
			slog.String("file", abs),
			slog.String("language", parser.Language()),
			slog.Any("error", err))
		return &readResult{content: content}, nil
	}

	if tree.HasSyntaxErrors {
		slog.Debug("file contains syntax errors, continuing with partial tree",
			slog.String("file", abs))
	}

	r.trees.Put(abs, tree)
	return &readResult{content: content, tree: tree}, nil
}

// Invalidate drops any cached state for path.
func (r *Reader) Invalidate(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	r.content.Invalidate(abs)
	r.trees.Invalidate(abs)
}

// Clear drops both cache tiers and resets all counters.
func (r *Reader) Clear() {
	r.content.Clear()
	r.trees.Clear()
	r.reads.Store(0)
	r.parses.Store(0)
}

// CacheStats returns a snapshot of cache sizes and counters.
func (r *Reader) CacheStats() Stats {
	contentHits, contentMisses, contentEvictions := r.content.Stats()
	treeHits, treeMisses, treeEvictions := r.trees.Stats()

	return Stats{
		ContentEntries: r.content.Len(),
		TreeEntries:    r.trees.Len(),
		ContentHits:    contentHits,
		ContentMisses:  contentMisses,
		TreeHits:       treeHits,
		TreeMisses:     treeMisses,
		Evictions:      contentEvictions + treeEvictions,
		ReadCount:      r.reads.Load(),
		ParseCount:     r.parses.Load(),
	}
}
