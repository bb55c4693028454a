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
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/patternlens/services/discovery/source"
)

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithThresholds overrides the heuristic constants.
func WithThresholds(th Thresholds) ExtractorOption {
	return func(e *Extractor) {
		e.thresholds = th
	}
}

// Extractor produces CodeFeatures records from source files.
//
// # Thread Safety
//
// Safe for concurrent use. Traversal state is per call; the reader's
// caches are internally synchronized.
type Extractor struct {
	reader     *source.Reader
	thresholds Thresholds
}

// NewExtractor creates an Extractor reading through the given Reader.
// A nil reader gets a default one.
func NewExtractor(reader *source.Reader, opts ...ExtractorOption) *Extractor {
	if reader == nil {
		reader = source.NewReader(nil)
	}

	e := &Extractor{
		reader:     reader,
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns one CodeFeatures record per structural unit in the
// file at path.
//
// # Description
//
// The parse tree is traversed exactly once. Every module, class-like,
// and function-like node opens a unit; all metrics for every open unit
// are accumulated as the walk passes each node. Unsupported or
// unparseable files yield an empty slice and a nil error.
func (e *Extractor) Extract(ctx context.Context, path string) ([]*CodeFeatures, error) {
	content, tree, err := e.reader.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, nil
	}

	spec := specForLanguage(tree.Language)
	if spec == nil {
		return nil, nil
	}

	root := tree.Root()
	if root == nil {
		return nil, nil
	}

	w := &walker{
		spec:    spec,
		content: content,
		lines:   strings.Split(string(content), "\n"),
		th:      e.thresholds,
		file:    tree.FilePath,
	}
	w.walk(root, 0)
	return w.out, nil
}

// Reader exposes the underlying reader, whose caches the engine manages.
func (e *Extractor) Reader() *source.Reader {
	return e.reader
}

// unitAcc accumulates metrics for one open unit during the walk.
type unitAcc struct {
	features *CodeFeatures

	// startBlockDepth is the global block depth when the unit opened;
	// relative depth is measured against it.
	startBlockDepth int

	// bodyDiscount is 1 when the unit's own body is a compound node and
	// must not count toward nesting.
	bodyDiscount int

	maxRelDepth  int
	commentLines int
}

// walker holds per-file traversal state.
type walker struct {
	spec    *languageSpec
	content []byte
	lines   []string
	th      Thresholds
	file    string

	stack []*unitAcc
	out   []*CodeFeatures
}

// walk visits n and its subtree once, updating every open unit.
func (w *walker) walk(n *sitter.Node, blockDepth int) {
	nodeType := n.Type()

	if w.spec.blockNodes[nodeType] {
		blockDepth++
		for _, acc := range w.stack {
			if rel := blockDepth - acc.startBlockDepth; rel > acc.maxRelDepth {
				acc.maxRelDepth = rel
			}
		}
	}

	if w.spec.branchNodes[nodeType] {
		for _, acc := range w.stack {
			acc.features.BranchCount++
		}
	}

	if nodeType == w.spec.commentNode {
		span := int(n.EndPoint().Row) - int(n.StartPoint().Row) + 1
		for _, acc := range w.stack {
			acc.commentLines += span
		}
	}

	opened := false
	if nodeType == w.spec.moduleNode {
		w.push(n, UnitModule, moduleName(w.file), 0, blockDepth, 0)
		opened = true
	} else if kind, ok := w.spec.unitKinds[nodeType]; ok {
		name := w.spec.nameOf(n, w.content)
		params := 0
		if kind == UnitFunction {
			params = w.spec.paramCount(n, w.content)
		}
		discount := 0
		if w.spec.bodyIsBlock[nodeType] {
			discount = 1
		}
		w.push(n, kind, name, params, blockDepth, discount)
		opened = true
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i), blockDepth)
	}

	if opened {
		w.pop()
	}
}

// push opens a new unit accumulator for node n.
func (w *walker) push(n *sitter.Node, kind UnitKind, name string, params, blockDepth, discount int) {
	startLine := int(n.StartPoint().Row) + 1
	endLine := int(n.EndPoint().Row) + 1
	if len(w.lines) > 0 && endLine > len(w.lines) {
		endLine = len(w.lines)
	}
	if endLine < startLine {
		endLine = startLine
	}

	f := &CodeFeatures{
		FilePath:      w.file,
		UnitName:      name,
		Kind:          kind,
		StartLine:     startLine,
		EndLine:       endLine,
		ParamCount:    params,
		NamingQuality: namingQuality(name, kind, w.spec.casing, w.th),
	}

	w.stack = append(w.stack, &unitAcc{
		features:        f,
		startBlockDepth: blockDepth,
		bodyDiscount:    discount,
	})
}

// pop closes the innermost unit and finalizes its derived metrics.
func (w *walker) pop() {
	acc := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]

	f := acc.features
	f.LineCount = f.EndLine - f.StartLine + 1

	f.NestingDepth = acc.maxRelDepth - acc.bodyDiscount
	if f.NestingDepth < 0 {
		f.NestingDepth = 0
	}

	if f.LineCount > 0 {
		density := float64(acc.commentLines) / float64(f.LineCount)
		if density > 1 {
			density = 1
		}
		f.CommentDensity = density
	}

	if f.StartLine >= 1 && f.EndLine <= len(w.lines) {
		f.DuplicationProxy = duplicationProxy(w.lines[f.StartLine-1:f.EndLine], w.th.MinDupLineLen)
	}

	w.out = append(w.out, f)
}

// moduleName derives the module unit name from the file path.
func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
