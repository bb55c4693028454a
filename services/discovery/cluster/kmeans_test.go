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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoBlobs returns two well-separated groups of vectors.
func twoBlobs() []Vector {
	return []Vector{
		{0.0, 0.1}, {0.1, 0.0}, {0.05, 0.05}, {0.1, 0.1},
		{0.9, 1.0}, {1.0, 0.9}, {0.95, 0.95}, {0.9, 0.9},
	}
}

func TestKMeans_SeparatesObviousClusters(t *testing.T) {
	vectors := twoBlobs()

	result, err := KMeans(vectors, 2, Options{Seed: 42})
	require.NoError(t, err)
	require.Len(t, result.Assignments, len(vectors))
	require.Len(t, result.Centroids, 2)
	assert.True(t, result.Converged)

	// The first four and last four vectors must land in one cluster each.
	low := result.Assignments[0]
	high := result.Assignments[4]
	assert.NotEqual(t, low, high)
	for i := 0; i < 4; i++ {
		assert.Equal(t, low, result.Assignments[i])
	}
	for i := 4; i < 8; i++ {
		assert.Equal(t, high, result.Assignments[i])
	}
}

func TestKMeans_DeterministicGivenSeed(t *testing.T) {
	vectors := twoBlobs()

	first, err := KMeans(vectors, 3, Options{Seed: 7})
	require.NoError(t, err)
	second, err := KMeans(vectors, 3, Options{Seed: 7})
	require.NoError(t, err)

	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Centroids, second.Centroids)
	assert.Equal(t, first.Iterations, second.Iterations)
}

func TestKMeans_EveryClusterReceivesAMember(t *testing.T) {
	vectors := twoBlobs()
	k := 4

	result, err := KMeans(vectors, k, Options{Seed: 3})
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, a := range result.Assignments {
		require.GreaterOrEqual(t, a, 0)
		require.Less(t, a, k)
		seen[a] = true
	}
	assert.Len(t, seen, k, "every centroid index must appear in assignments")
}

func TestKMeans_IdenticalVectorsStillCoverAllClusters(t *testing.T) {
	vectors := []Vector{
		{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5},
	}

	result, err := KMeans(vectors, 3, Options{Seed: 1})
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, a := range result.Assignments {
		seen[a] = true
	}
	assert.Len(t, seen, 3)
}

func TestKMeans_FewerVectorsThanClustersIsReported(t *testing.T) {
	vectors := []Vector{{0, 0}, {1, 1}}

	result, err := KMeans(vectors, 5, Options{Seed: 9})
	require.NoError(t, err)

	assert.Equal(t, 5, result.RequestedK)
	assert.Len(t, result.Centroids, 2, "effective clusters capped at n")
	assert.Len(t, result.Assignments, 2)
}

func TestKMeans_RespectsIterationCap(t *testing.T) {
	vectors := twoBlobs()

	result, err := KMeans(vectors, 2, Options{Seed: 42, MaxIterations: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Iterations)
	assert.LessOrEqual(t, result.Iterations, 1)
}

func TestKMeans_InvalidInputs(t *testing.T) {
	_, err := KMeans(nil, 2, Options{Seed: 1})
	assert.ErrorIs(t, err, ErrNoVectors)

	_, err = KMeans([]Vector{{1}}, 0, Options{Seed: 1})
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = KMeans([]Vector{{1, 2}, {1}}, 1, Options{Seed: 1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEuclideanDistance(t *testing.T) {
	assert.InDelta(t, 5.0, EuclideanDistance(Vector{0, 0}, Vector{3, 4}), 1e-9)
	assert.Equal(t, 0.0, EuclideanDistance(Vector{1, 1}, Vector{1, 1}))
	assert.True(t, EuclideanDistance(Vector{1}, Vector{1, 2}) > 1e300, "mismatch yields +Inf")
}
