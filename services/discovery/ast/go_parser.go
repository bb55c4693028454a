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

	"github.com/smacker/go-tree-sitter/golang"
)

// GoParserOption configures a GoParser instance.
type GoParserOption func(*GoParser)

// WithGoMaxFileSize sets the maximum file size the parser will accept.
func WithGoMaxFileSize(bytes int64) GoParserOption {
	return func(p *GoParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// GoParser implements the Parser interface for Go source code.
//
// # Thread Safety
//
// Safe for concurrent use. Each Parse call creates its own tree-sitter
// parser instance internally.
type GoParser struct {
	maxFileSize int64
}

// NewGoParser creates a new GoParser with the given options.
func NewGoParser(opts ...GoParserOption) *GoParser {
	p := &GoParser{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse produces a SourceTree from Go source code.
func (p *GoParser) Parse(ctx context.Context, content []byte, filePath string) (*SourceTree, error) {
	return parseWithLanguage(ctx, golang.GetLanguage(), "go", content, filePath, p.maxFileSize)
}

// Language returns "go".
func (p *GoParser) Language() string {
	return "go"
}

// Extensions returns the file extensions this parser handles.
func (p *GoParser) Extensions() []string {
	return []string{".go"}
}
