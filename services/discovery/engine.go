// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package discovery orchestrates unsupervised code-pattern discovery.
//
// # Description
//
// The Engine ties the pipeline together: source files are read and
// parsed (cached), walked into CodeFeatures records, vectorized and
// normalized, clustered with K-means, and synthesized into Pattern and
// anomaly records. Extraction is the expensive step, so the engine is
// built for repeated experiments: once features are extracted,
// DiscoverPatterns can run any number of times with different cluster
// counts without touching the filesystem again.
//
// # Thread Safety
//
// An Engine instance is safe for concurrent use: the feature list and
// all three caches (content, tree, vector) are guarded. Caches are
// owned by the instance, never process-wide, so independent analyses in
// one process cannot contaminate each other.
package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/patternlens/services/discovery/cluster"
	"github.com/AleutianAI/patternlens/services/discovery/features"
	"github.com/AleutianAI/patternlens/services/discovery/patterns"
	"github.com/AleutianAI/patternlens/services/discovery/source"
)

// DefaultWorkers caps concurrent per-file extraction.
const DefaultWorkers = 4

// skipDirs are directory names never descended into by the default walker.
var skipDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
}

// WalkFunc enumerates candidate files under dir, invoking visit for
// each. Directory walking is a collaborator concern: tests and embedders
// can substitute their own file discovery.
type WalkFunc func(ctx context.Context, dir string, visit func(path string) error) error

// defaultWalk walks dir recursively, skipping well-known non-source
// directories. File filtering by extension is left to the reader.
func defaultWalk(ctx context.Context, dir string, visit func(path string) error) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		return visit(path)
	})
}

// Options configures an Engine.
type Options struct {
	// Seed drives K-means centroid seeding. Zero selects an
	// entropy-derived seed per run; fix it for reproducible output.
	Seed int64

	// MaxIterations caps each K-means run.
	MaxIterations int

	// Workers caps concurrent per-file extraction.
	Workers int

	// AnomalyZ is the outlier sensitivity passed to synthesis.
	AnomalyZ float64

	// MaxExamples bounds representative samples per pattern.
	MaxExamples int

	// Thresholds are the extractor's heuristic constants.
	Thresholds features.Thresholds

	// Walk enumerates candidate files. Default: recursive walk.
	Walk WalkFunc
}

// DefaultEngineOptions returns sensible defaults.
func DefaultEngineOptions() Options {
	return Options{
		Seed:          0,
		MaxIterations: cluster.DefaultMaxIterations,
		Workers:       DefaultWorkers,
		AnomalyZ:      patterns.DefaultAnomalyZ,
		MaxExamples:   3,
		Thresholds:    features.DefaultThresholds(),
		Walk:          defaultWalk,
	}
}

// Option is a functional option for configuring an Engine.
type Option func(*Options)

// WithSeed fixes the clustering seed for reproducible runs.
func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithMaxIterations caps K-means rounds.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxIterations = n
		}
	}
}

// WithWorkers caps concurrent per-file extraction.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// WithAnomalyZ sets the outlier sensitivity.
func WithAnomalyZ(z float64) Option {
	return func(o *Options) {
		if z > 0 {
			o.AnomalyZ = z
		}
	}
}

// WithThresholds overrides the extractor's heuristic constants.
func WithThresholds(th features.Thresholds) Option {
	return func(o *Options) { o.Thresholds = th }
}

// WithWalk substitutes the file discovery collaborator.
func WithWalk(walk WalkFunc) Option {
	return func(o *Options) {
		if walk != nil {
			o.Walk = walk
		}
	}
}

// CacheStats reports the sizes of the engine's three cache tiers plus
// the reader's counters, for observability by the calling tool.
type CacheStats struct {
	// ContentCacheSize is the number of cached file contents.
	ContentCacheSize int `json:"content_cache_size"`

	// TreeCacheSize is the number of cached parse trees.
	TreeCacheSize int `json:"tree_cache_size"`

	// VectorCacheSize is the number of cached feature vectors.
	VectorCacheSize int `json:"vector_cache_size"`

	// Reader carries the reader's hit/miss/IO counters.
	Reader source.Stats `json:"reader"`
}

// Engine is one pattern-discovery session over a corpus.
//
// Lifecycle: Idle (no features) -> Ready (features extracted). Ready is
// re-enterable: extraction accumulates and discovery may run any number
// of times. There is no teardown beyond ClearCaches.
type Engine struct {
	reader    *source.Reader
	extractor *features.Extractor
	synth     *patterns.Synthesizer
	opts      Options

	mu    sync.Mutex
	feats []*features.CodeFeatures

	// vectors caches the raw vector per feature identity; normalized
	// memoizes the batch result and is dropped whenever feats changes.
	vectors    map[*features.CodeFeatures]cluster.Vector
	normalized []cluster.Vector
}

// NewEngine creates an Engine with its own reader and caches.
func NewEngine(opts ...Option) *Engine {
	options := DefaultEngineOptions()
	for _, opt := range opts {
		opt(&options)
	}

	reader := source.NewReader(nil)
	return &Engine{
		reader:    reader,
		extractor: features.NewExtractor(reader, features.WithThresholds(options.Thresholds)),
		synth: patterns.NewSynthesizer(
			patterns.WithAnomalyZ(options.AnomalyZ),
			patterns.WithMaxExamples(options.MaxExamples),
		),
		opts:    options,
		vectors: make(map[*features.CodeFeatures]cluster.Vector),
	}
}

// ExtractFeaturesFromDirectory walks dir and accumulates one
// CodeFeatures record per structural unit found.
//
// # Description
//
// Files are processed in parallel (extraction is independent per file);
// the caches absorb concurrent writes. Unsupported and unparseable
// files contribute nothing and are not errors; per-file read failures
// are logged and skipped so one bad file never aborts the pass. The
// walk failing wholesale (missing directory) is an error.
//
// # Outputs
//
//   - int: Number of feature records added by this pass.
//   - error: Non-nil if the walk itself failed or ctx was canceled.
func (e *Engine) ExtractFeaturesFromDirectory(ctx context.Context, dir string) (int, error) {
	if dir == "" {
		return 0, ErrInvalidInput
	}

	ctx, span := startExtractSpan(ctx, dir)
	defer span.End()
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	var batchMu sync.Mutex
	var batch []*features.CodeFeatures

	walkErr := e.opts.Walk(ctx, dir, func(path string) error {
		g.Go(func() error {
			feats, err := e.extractor.Extract(gctx, path)
			if err != nil {
				slog.Warn("skipping unreadable file",
					slog.String("file", path),
					slog.Any("error", err))
				return nil
			}
			if len(feats) == 0 {
				return nil
			}
			batchMu.Lock()
			batch = append(batch, feats...)
			batchMu.Unlock()
			return nil
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		recordExtractMetrics(ctx, time.Since(start), 0, false)
		return 0, err
	}
	if walkErr != nil {
		recordExtractMetrics(ctx, time.Since(start), 0, false)
		return 0, fmt.Errorf("%w: %v", ErrWalkFailed, walkErr)
	}

	e.mu.Lock()
	e.feats = append(e.feats, batch...)
	e.normalized = nil
	e.mu.Unlock()

	recordExtractMetrics(ctx, time.Since(start), len(batch), true)
	slog.Info("feature extraction complete",
		slog.String("dir", dir),
		slog.Int("units", len(batch)))
	return len(batch), nil
}

// DiscoverPatterns clusters the extracted features and synthesizes the
// ordered Pattern list.
//
// # Description
//
// Requires features to have been extracted. An empty corpus is a
// legitimate input, not a programming error: it logs a warning and
// returns an empty list. Repeated calls with an unchanged feature set
// reuse the cached vectors and normalized batch, so experimenting with
// different nClusters only pays for K-means itself.
func (e *Engine) DiscoverPatterns(ctx context.Context, nClusters, minSamples int) ([]patterns.Pattern, error) {
	ctx, span := startDiscoverSpan(ctx, nClusters, minSamples)
	defer span.End()
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.feats) == 0 {
		slog.Warn("discover called on empty corpus, nothing to cluster")
		recordDiscoverMetrics(ctx, time.Since(start), 0, true)
		return []patterns.Pattern{}, nil
	}

	normalized, err := e.normalizedBatch()
	if err != nil {
		recordDiscoverMetrics(ctx, time.Since(start), 0, false)
		return nil, err
	}

	result, err := cluster.KMeans(normalized, nClusters, cluster.Options{
		MaxIterations: e.opts.MaxIterations,
		Seed:          e.opts.Seed,
	})
	if err != nil {
		recordDiscoverMetrics(ctx, time.Since(start), 0, false)
		return nil, err
	}

	out, err := e.synth.Synthesize(e.feats, normalized, result, minSamples)
	if err != nil {
		recordDiscoverMetrics(ctx, time.Since(start), 0, false)
		return nil, err
	}

	recordDiscoverMetrics(ctx, time.Since(start), len(out), true)
	slog.Info("pattern discovery complete",
		slog.Int("clusters_requested", nClusters),
		slog.Int("patterns", len(out)),
		slog.Bool("converged", result.Converged),
		slog.Int("iterations", result.Iterations))
	return out, nil
}

// normalizedBatch returns the normalized vectors for the current
// feature set, recomputing only when the batch changed. Callers hold
// e.mu.
func (e *Engine) normalizedBatch() ([]cluster.Vector, error) {
	if e.normalized != nil && len(e.normalized) == len(e.feats) {
		return e.normalized, nil
	}

	raw := make([]cluster.Vector, len(e.feats))
	for i, f := range e.feats {
		v, ok := e.vectors[f]
		if !ok || len(v) != features.FeatureDim {
			// Missing or corrupt entries are recomputed, never trusted.
			v = f.Vector()
			e.vectors[f] = v
		}
		raw[i] = v
	}

	normalized, err := cluster.Normalize(raw)
	if err != nil {
		return nil, err
	}
	e.normalized = normalized
	return normalized, nil
}

// FeatureCount returns the number of accumulated feature records.
func (e *Engine) FeatureCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.feats)
}

// Features returns the accumulated feature records. The slice is a
// copy; the records themselves are shared and must be treated as
// immutable.
func (e *Engine) Features() []*features.CodeFeatures {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*features.CodeFeatures, len(e.feats))
	copy(out, e.feats)
	return out
}

// CacheStats returns the sizes of the three cache tiers.
func (e *Engine) CacheStats() CacheStats {
	e.mu.Lock()
	vectorSize := len(e.vectors)
	e.mu.Unlock()

	readerStats := e.reader.CacheStats()
	return CacheStats{
		ContentCacheSize: readerStats.ContentEntries,
		TreeCacheSize:    readerStats.TreeEntries,
		VectorCacheSize:  vectorSize,
		Reader:           readerStats,
	}
}

// ClearCaches drops all three caches (content, tree, vector) and resets
// the reader's counters. Extracted features are engine state, not cache,
// and survive; use Reset to drop them too.
func (e *Engine) ClearCaches() {
	e.reader.Clear()

	e.mu.Lock()
	e.vectors = make(map[*features.CodeFeatures]cluster.Vector)
	e.normalized = nil
	e.mu.Unlock()
}

// Reset returns the engine to Idle: features and caches are dropped.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.feats = nil
	e.mu.Unlock()
	e.ClearCaches()
}
