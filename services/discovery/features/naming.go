// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package features

import (
	"strings"
	"unicode"
)

// namingQuality scores an identifier against length and casing
// conventions, returning a value in [0, 1].
//
// The score is the mean of a length component and a casing component.
// The formula is heuristic; the length band comes from Thresholds so it
// can be tuned per corpus.
func namingQuality(name string, kind UnitKind, casing casingStyle, th Thresholds) float64 {
	if name == "" {
		return 0
	}

	length := lengthScore(len(name), th)
	convention := casingScore(name, kind, casing)
	return (length + convention) / 2
}

// lengthScore rewards names inside the comfortable band and degrades
// gradually outside it.
func lengthScore(n int, th Thresholds) float64 {
	switch {
	case n >= th.NamingMinLen && n <= th.NamingMaxLen:
		return 1.0
	case n == th.NamingMinLen-1 || (n > th.NamingMaxLen && n <= th.NamingMaxLen+8):
		return 0.5
	default:
		return 0.25
	}
}

// casingScore checks conformance with the language's convention.
func casingScore(name string, kind UnitKind, casing casingStyle) float64 {
	switch casing {
	case casingSnake:
		// Python: classes are PascalCase, everything else snake_case.
		if kind == UnitClass {
			if isPascalCase(name) {
				return 1.0
			}
			return 0.4
		}
		if isSnakeCase(name) {
			return 1.0
		}
		return 0.4
	default:
		// Go: camelCase or PascalCase, no underscores.
		if strings.Contains(name, "_") {
			return 0.4
		}
		if isAlphanumericIdent(name) {
			return 1.0
		}
		return 0.2
	}
}

func isAlphanumericIdent(name string) bool {
	for i, r := range name {
		if i == 0 && !unicode.IsLetter(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isSnakeCase(name string) bool {
	for i, r := range name {
		if i == 0 && !unicode.IsLower(r) && r != '_' {
			return false
		}
		if !unicode.IsLower(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

func isPascalCase(name string) bool {
	first := true
	for _, r := range name {
		if first {
			if !unicode.IsUpper(r) {
				return false
			}
			first = false
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return !first
}

// duplicationProxy measures internal repetition of a unit: the fraction
// of normalized source lines that are repeats of an earlier line in the
// same unit. Lines shorter than minLen after normalization are ignored
// since trivial lines (braces, bare returns) repeat naturally.
func duplicationProxy(lines []string, minLen int) float64 {
	seen := make(map[string]bool, len(lines))
	considered := 0
	repeats := 0

	for _, line := range lines {
		normalized := strings.Join(strings.Fields(line), " ")
		if len(normalized) < minLen {
			continue
		}
		considered++
		if seen[normalized] {
			repeats++
			continue
		}
		seen[normalized] = true
	}

	if considered == 0 {
		return 0
	}
	return float64(repeats) / float64(considered)
}
