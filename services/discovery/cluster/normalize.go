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

// Normalize rescales each dimension onto [0, 1] using the min and max
// observed across the entire batch.
//
// # Description
//
// For every dimension independently, values are rescaled as
// (v - min) / (max - min). A dimension with zero range carries no
// discriminative signal and collapses to 0 rather than dividing by
// zero. The input is never mutated and the result is deterministic:
// the same batch always yields the same output.
//
// # Outputs
//
//   - []Vector: One normalized vector per input, same order.
//   - error: ErrDimensionMismatch if vectors differ in length.
func Normalize(vectors []Vector) ([]Vector, error) {
	if len(vectors) == 0 {
		return nil, nil
	}

	dim := len(vectors[0])
	for _, v := range vectors {
		if len(v) != dim {
			return nil, ErrDimensionMismatch
		}
	}

	mins := make([]float64, dim)
	maxs := make([]float64, dim)
	copy(mins, vectors[0])
	copy(maxs, vectors[0])
	for _, v := range vectors[1:] {
		for i, x := range v {
			if x < mins[i] {
				mins[i] = x
			}
			if x > maxs[i] {
				maxs[i] = x
			}
		}
	}

	out := make([]Vector, len(vectors))
	for j, v := range vectors {
		nv := make(Vector, dim)
		for i, x := range v {
			if r := maxs[i] - mins[i]; r > 0 {
				nv[i] = (x - mins[i]) / r
			}
		}
		out[j] = nv
	}
	return out, nil
}
