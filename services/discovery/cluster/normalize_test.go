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

func TestNormalize_RescalesOntoUnitRange(t *testing.T) {
	vectors := []Vector{
		{0, 10, 5},
		{50, 20, 5},
		{100, 30, 5},
	}

	out, err := Normalize(vectors)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, Vector{0, 0, 0}, out[0])
	assert.Equal(t, Vector{0.5, 0.5, 0}, out[1])
	assert.Equal(t, Vector{1, 1, 0}, out[2])
}

func TestNormalize_AllComponentsInBounds(t *testing.T) {
	vectors := []Vector{
		{-7, 3, 0.5},
		{12, -1, 0.5},
		{4, 9, 0.5},
		{-2, 9, 0.5},
	}

	out, err := Normalize(vectors)
	require.NoError(t, err)

	for _, v := range out {
		for _, x := range v {
			assert.GreaterOrEqual(t, x, 0.0)
			assert.LessOrEqual(t, x, 1.0)
		}
	}
}

func TestNormalize_ZeroRangeCollapsesToZeroNotNaN(t *testing.T) {
	vectors := []Vector{
		{3, 3},
		{3, 3},
		{3, 3},
	}

	out, err := Normalize(vectors)
	require.NoError(t, err)

	for _, v := range out {
		assert.Equal(t, Vector{0, 0}, v)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	vectors := []Vector{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	}

	first, err := Normalize(vectors)
	require.NoError(t, err)
	second, err := Normalize(vectors)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	vectors := []Vector{{0, 100}, {10, 0}}

	_, err := Normalize(vectors)
	require.NoError(t, err)

	assert.Equal(t, Vector{0, 100}, vectors[0])
	assert.Equal(t, Vector{10, 0}, vectors[1])
}

func TestNormalize_EmptyAndMismatched(t *testing.T) {
	out, err := Normalize(nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = Normalize([]Vector{{1, 2}, {1}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
