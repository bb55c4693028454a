// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast provides tree-sitter based parsing for pattern discovery.
//
// # Description
//
// This package turns raw source bytes into SourceTree handles that the
// feature extractor walks. Each supported language (Go, Python) has a
// Parser implementation producing the common SourceTree format. Parsing
// is error-tolerant: syntactically invalid files still yield a tree with
// HasSyntaxErrors set, so a single broken file never aborts a batch.
//
// # Thread Safety
//
// Parser implementations and the ParserRegistry are safe for concurrent
// use. SourceTree instances are immutable after creation except for Close.
package ast

import (
	"crypto/sha256"
	"encoding/hex"

	sitter "github.com/smacker/go-tree-sitter"
)

// SourceTree is a parsed source file: the tree-sitter tree plus the raw
// content it was parsed from.
//
// The tree borrows C-allocated memory; callers that evict a SourceTree
// from a cache should call Close to release it. Reading the tree after
// Close is invalid.
type SourceTree struct {
	// FilePath is the path the content was read from.
	FilePath string

	// Language is the canonical language name ("go", "python").
	Language string

	// Hash is the SHA-256 of the content, hex encoded.
	Hash string

	// Content is the raw source bytes the tree indexes into.
	Content []byte

	// HasSyntaxErrors reports whether tree-sitter found ERROR nodes.
	// The tree is still usable; affected subtrees may be incomplete.
	HasSyntaxErrors bool

	tree *sitter.Tree
}

// Root returns the root node of the parse tree, or nil after Close.
func (t *SourceTree) Root() *sitter.Node {
	if t.tree == nil {
		return nil
	}
	return t.tree.RootNode()
}

// Close releases the underlying tree-sitter tree. Safe to call twice.
func (t *SourceTree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// ContentHash computes the canonical content hash used in SourceTree.Hash.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
