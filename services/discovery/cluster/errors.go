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

import "errors"

// Sentinel errors for the cluster package.
var (
	// ErrNoVectors indicates clustering was requested on an empty batch.
	ErrNoVectors = errors.New("no vectors to cluster")

	// ErrInvalidK indicates a non-positive cluster count.
	ErrInvalidK = errors.New("cluster count must be positive")

	// ErrDimensionMismatch indicates vectors of differing lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
