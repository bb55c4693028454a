// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cluster implements min-max normalization and K-means
// clustering over feature vectors.
//
// # Description
//
// This is the numeric core of pattern discovery. It is deliberately free
// of any code-analysis types: inputs are plain float vectors, so the
// package can be tested and tuned in isolation. Randomness is confined
// to centroid seeding and is fully determined by an explicit seed.
package cluster

import "math"

// Vector is an ordered sequence of floats representing one unit's
// metrics numerically.
type Vector []float64

// Clone returns a deep copy of the vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// EuclideanDistance returns the L2 distance between two vectors.
// Vectors of mismatched length yield +Inf, which keeps a malformed
// vector from silently joining a cluster.
func EuclideanDistance(a, b Vector) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// meanVector returns the component-wise mean of the given vectors.
// Returns nil for an empty set.
func meanVector(vectors []Vector, dim int) Vector {
	if len(vectors) == 0 {
		return nil
	}

	mean := make(Vector, dim)
	for _, v := range vectors {
		for i := 0; i < dim && i < len(v); i++ {
			mean[i] += v[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(len(vectors))
	}
	return mean
}
