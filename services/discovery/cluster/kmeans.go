// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cluster

import (
	"fmt"
	"math/rand"
	"time"
)

// DefaultMaxIterations bounds a K-means run when assignments keep
// oscillating.
const DefaultMaxIterations = 100

// Options configures a K-means run.
type Options struct {
	// MaxIterations caps the number of assign/update rounds.
	// Default: DefaultMaxIterations.
	MaxIterations int

	// Seed determines centroid seeding. Runs with the same seed and
	// batch are fully reproducible. Zero selects an entropy-derived
	// seed.
	Seed int64
}

// DefaultOptions returns sensible defaults with an entropy-derived seed.
func DefaultOptions() Options {
	return Options{
		MaxIterations: DefaultMaxIterations,
		Seed:          0,
	}
}

// Result is the outcome of one K-means run.
type Result struct {
	// Assignments maps each input vector index to a centroid index.
	// Always exactly one entry per input vector.
	Assignments []int

	// Centroids are the final cluster centers. len(Centroids) is the
	// effective cluster count, which is min(k, n): when fewer vectors
	// than clusters were supplied the reduction is reported, not hidden.
	Centroids []Vector

	// RequestedK is the k the caller asked for.
	RequestedK int

	// Iterations is the number of assign/update rounds performed.
	Iterations int

	// Converged is true when assignments stabilized before the
	// iteration cap.
	Converged bool
}

// KMeans runs K-means with Euclidean distance over the given vectors.
//
// # Description
//
// Centroids are seeded by drawing k distinct input vectors with a
// seeded generator, which keeps variance across runs on the same corpus
// low and makes runs reproducible given a fixed seed. Each round
// assigns every vector to its nearest centroid (ties broken by lowest
// cluster index) and recomputes centroids as member means. A centroid
// left without members is re-seeded to the vector currently farthest
// from its own assigned centroid, so no cluster slot is silently lost.
// The run stops when assignments are unchanged between rounds or after
// opts.MaxIterations, whichever comes first; it never loops
// indefinitely.
//
// # Outputs
//
//   - *Result: Assignments, centroids, and convergence information.
//   - error: ErrNoVectors, ErrInvalidK, or ErrDimensionMismatch.
func KMeans(vectors []Vector, k int, opts Options) (*Result, error) {
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	dim := len(vectors[0])
	for _, v := range vectors {
		if len(v) != dim {
			return nil, ErrDimensionMismatch
		}
	}

	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	n := len(vectors)
	requested := k
	if k > n {
		k = n
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := seedCentroids(vectors, k, rng)

	assignments := make([]int, n)
	prev := make([]int, n)
	for i := range prev {
		prev[i] = -1
	}

	result := &Result{RequestedK: requested}
	for iter := 0; iter < opts.MaxIterations; iter++ {
		result.Iterations = iter + 1

		assign(vectors, centroids, assignments)
		reseedEmptyClusters(vectors, centroids, assignments)

		if equalAssignments(assignments, prev) {
			result.Converged = true
			break
		}
		copy(prev, assignments)

		updateCentroids(vectors, centroids, assignments, dim)
	}

	result.Assignments = assignments
	result.Centroids = centroids
	return result, nil
}

// seedCentroids draws k distinct input vectors as initial centroids.
func seedCentroids(vectors []Vector, k int, rng *rand.Rand) []Vector {
	perm := rng.Perm(len(vectors))
	centroids := make([]Vector, k)
	for i := 0; i < k; i++ {
		centroids[i] = vectors[perm[i]].Clone()
	}
	return centroids
}

// assign writes each vector's nearest centroid index into assignments.
// Ties are broken by the lowest cluster index.
func assign(vectors, centroids []Vector, assignments []int) {
	for i, v := range vectors {
		best := 0
		bestDist := EuclideanDistance(v, centroids[0])
		for c := 1; c < len(centroids); c++ {
			if d := EuclideanDistance(v, centroids[c]); d < bestDist {
				best = c
				bestDist = d
			}
		}
		assignments[i] = best
	}
}

// reseedEmptyClusters moves each memberless centroid onto the vector
// currently farthest from its own assigned centroid, stealing that
// vector for the empty cluster.
func reseedEmptyClusters(vectors, centroids []Vector, assignments []int) {
	counts := make([]int, len(centroids))
	for _, a := range assignments {
		counts[a]++
	}

	stolen := make(map[int]bool)
	for c := range centroids {
		if counts[c] > 0 {
			continue
		}

		farthest := -1
		farthestDist := -1.0
		for i, v := range vectors {
			if stolen[i] || counts[assignments[i]] <= 1 {
				continue
			}
			if d := EuclideanDistance(v, centroids[assignments[i]]); d > farthestDist {
				farthest = i
				farthestDist = d
			}
		}
		if farthest < 0 {
			continue
		}

		stolen[farthest] = true
		counts[assignments[farthest]]--
		assignments[farthest] = c
		counts[c] = 1
		centroids[c] = vectors[farthest].Clone()
	}
}

// updateCentroids recomputes each centroid as the mean of its members.
func updateCentroids(vectors, centroids []Vector, assignments []int, dim int) {
	members := make([][]Vector, len(centroids))
	for i, a := range assignments {
		members[a] = append(members[a], vectors[i])
	}
	for c := range centroids {
		if mean := meanVector(members[c], dim); mean != nil {
			centroids[c] = mean
		}
	}
}

// equalAssignments reports whether two assignment lists are identical.
func equalAssignments(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
