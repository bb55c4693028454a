// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// File size constants for input validation.
const (
	// DefaultMaxFileSize is the maximum file size a parser will accept (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize is the threshold at which a warning is logged (1MB).
	WarnFileSize = 1 * 1024 * 1024
)

// Parser defines the contract for language-specific parsing.
//
// # Description
//
// Parser implementations produce a SourceTree from raw source bytes. Each
// implementation handles one language but the output format is common, so
// the feature extractor can walk any supported language the same way.
//
// Implementations must be:
//   - Context-aware: cancellation is honored before and after parsing
//   - Error-tolerant: syntax errors flag the tree, they do not fail the call
//   - Safe for concurrent use from multiple goroutines
type Parser interface {
	// Parse produces a SourceTree from source code.
	//
	// Returns a non-nil error only for complete failures (oversized input,
	// invalid UTF-8, canceled context). Syntax errors are reported via
	// SourceTree.HasSyntaxErrors instead.
	Parse(ctx context.Context, content []byte, filePath string) (*SourceTree, error)

	// Language returns the canonical lowercase language name.
	Language() string

	// Extensions returns the file extensions this parser handles,
	// including the leading dot, lowercase.
	Extensions() []string
}

// ParserRegistry manages parser instances by language and file extension.
//
// # Thread Safety
//
// Fully thread-safe. Registration uses write locks, lookups use read locks.
type ParserRegistry struct {
	mu          sync.RWMutex
	byLanguage  map[string]Parser
	byExtension map[string]Parser
}

// NewParserRegistry creates an empty registry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		byLanguage:  make(map[string]Parser),
		byExtension: make(map[string]Parser),
	}
}

// DefaultRegistry returns a registry with all built-in parsers registered.
func DefaultRegistry() *ParserRegistry {
	r := NewParserRegistry()
	r.Register(NewGoParser())
	r.Register(NewPythonParser())
	return r
}

// Register adds a parser, replacing any prior parser for the same
// language or extensions.
func (r *ParserRegistry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLanguage[p.Language()] = p
	for _, ext := range p.Extensions() {
		r.byExtension[ext] = p
	}
}

// ForFile returns the parser for the given file path based on its
// extension, or nil if the extension is not supported.
func (r *ParserRegistry) ForFile(filePath string) Parser {
	idx := strings.LastIndex(filePath, ".")
	if idx < 0 {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byExtension[strings.ToLower(filePath[idx:])]
}

// ForLanguage returns the parser for the given language name, or nil.
func (r *ParserRegistry) ForLanguage(language string) Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byLanguage[language]
}

// Extensions returns all registered extensions.
func (r *ParserRegistry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	return exts
}

// parseWithLanguage is the shared tree-sitter parse path used by the
// concrete parsers. A new sitter.Parser is created per call so parsers
// stay safe for concurrent use.
func parseWithLanguage(
	ctx context.Context,
	lang *sitter.Language,
	language string,
	content []byte,
	filePath string,
	maxFileSize int64,
) (*SourceTree, error) {
	ctx, span := startParseSpan(ctx, language, filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, language, time.Since(start), false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > maxFileSize {
		recordParseMetrics(ctx, language, time.Since(start), false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), maxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics(ctx, language, time.Since(start), false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, language, time.Since(start), false)
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	if err := ctx.Err(); err != nil {
		tree.Close()
		recordParseMetrics(ctx, language, time.Since(start), false)
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	result := &SourceTree{
		FilePath: filePath,
		Language: language,
		Hash:     ContentHash(content),
		Content:  content,
		tree:     tree,
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		recordParseMetrics(ctx, language, time.Since(start), false)
		return nil, fmt.Errorf("%w: tree-sitter returned nil root node", ErrParseFailed)
	}
	if root.HasError() {
		result.HasSyntaxErrors = true
	}

	recordParseMetrics(ctx, language, time.Since(start), true)
	return result, nil
}
