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
	sitter "github.com/smacker/go-tree-sitter"
)

// Tree-sitter node types the extractor dispatches on, per language.
// Traversal uses a closed set of node kinds rather than runtime type
// inspection, keeping the walk single-pass and reflection-free.
//
// References:
//   - https://github.com/tree-sitter/tree-sitter-go/blob/master/src/grammar.json
//   - https://github.com/tree-sitter/tree-sitter-python/blob/master/src/grammar.json
const (
	// Go node types.
	goNodeSourceFile     = "source_file"
	goNodeFunctionDecl   = "function_declaration"
	goNodeMethodDecl     = "method_declaration"
	goNodeFuncLiteral    = "func_literal"
	goNodeTypeDecl       = "type_declaration"
	goNodeTypeSpec       = "type_spec"
	goNodeBlock          = "block"
	goNodeIfStatement    = "if_statement"
	goNodeForStatement   = "for_statement"
	goNodeExprCase       = "expression_case"
	goNodeTypeCase       = "type_case"
	goNodeCommCase       = "communication_case"
	goNodeComment        = "comment"
	goNodeParameterList  = "parameter_list"
	goNodeParameterDecl  = "parameter_declaration"
	goNodeVariadicParam  = "variadic_parameter_declaration"
	goNodeIdentifier     = "identifier"
	goFieldName          = "name"
	goFieldParameters    = "parameters"

	// Python node types.
	pyNodeModule        = "module"
	pyNodeFunctionDef   = "function_definition"
	pyNodeAsyncFuncDef  = "async_function_definition"
	pyNodeClassDef      = "class_definition"
	pyNodeBlock         = "block"
	pyNodeIfStatement   = "if_statement"
	pyNodeElifClause    = "elif_clause"
	pyNodeForStatement  = "for_statement"
	pyNodeWhileStmt     = "while_statement"
	pyNodeExceptClause  = "except_clause"
	pyNodeConditional   = "conditional_expression"
	pyNodeCaseClause    = "case_clause"
	pyNodeComment       = "comment"
	pyNodeIdentifier    = "identifier"
	pyNodeTypedParam    = "typed_parameter"
	pyNodeDefaultParam  = "default_parameter"
	pyNodeTypedDefault  = "typed_default_parameter"
	pyNodeListSplat     = "list_splat_pattern"
	pyNodeDictSplat     = "dictionary_splat_pattern"
	pyFieldName         = "name"
	pyFieldParameters   = "parameters"
)

// casingStyle selects the naming convention a language expects.
type casingStyle int

const (
	// casingMixed accepts camelCase and PascalCase (Go).
	casingMixed casingStyle = iota

	// casingSnake expects lower snake_case for functions (Python).
	casingSnake
)

// languageSpec is the closed dispatch table for one language's traversal.
type languageSpec struct {
	// moduleNode is the root node type representing a whole file.
	moduleNode string

	// unitKinds maps node types that open a new structural unit.
	unitKinds map[string]UnitKind

	// bodyIsBlock marks unit node types whose body is itself a compound
	// node, so the body level is discounted from nesting depth.
	bodyIsBlock map[string]bool

	// blockNodes are the compound-statement node types that contribute
	// to nesting depth.
	blockNodes map[string]bool

	// branchNodes are the node types counted toward the cyclomatic proxy.
	branchNodes map[string]bool

	// commentNode is the comment node type.
	commentNode string

	// casing is the expected identifier convention.
	casing casingStyle

	// nameOf extracts the declared name of a unit node, or "".
	nameOf func(n *sitter.Node, content []byte) string

	// paramCount counts declared parameters of a function-like node.
	paramCount func(n *sitter.Node, content []byte) int
}

// specForLanguage returns the traversal spec for a language, or nil.
func specForLanguage(language string) *languageSpec {
	switch language {
	case "go":
		return goLanguageSpec
	case "python":
		return pyLanguageSpec
	default:
		return nil
	}
}

var goLanguageSpec = &languageSpec{
	moduleNode: goNodeSourceFile,
	unitKinds: map[string]UnitKind{
		goNodeFunctionDecl: UnitFunction,
		goNodeMethodDecl:   UnitFunction,
		goNodeTypeDecl:     UnitClass,
	},
	bodyIsBlock: map[string]bool{
		goNodeFunctionDecl: true,
		goNodeMethodDecl:   true,
	},
	blockNodes: map[string]bool{
		goNodeBlock: true,
	},
	branchNodes: map[string]bool{
		goNodeIfStatement:  true,
		goNodeForStatement: true,
		goNodeExprCase:     true,
		goNodeTypeCase:     true,
		goNodeCommCase:     true,
	},
	commentNode: goNodeComment,
	casing:      casingMixed,
	nameOf:      goUnitName,
	paramCount:  goParamCount,
}

var pyLanguageSpec = &languageSpec{
	moduleNode: pyNodeModule,
	unitKinds: map[string]UnitKind{
		pyNodeFunctionDef:  UnitFunction,
		pyNodeAsyncFuncDef: UnitFunction,
		pyNodeClassDef:     UnitClass,
	},
	bodyIsBlock: map[string]bool{
		pyNodeFunctionDef:  true,
		pyNodeAsyncFuncDef: true,
		pyNodeClassDef:     true,
	},
	blockNodes: map[string]bool{
		pyNodeBlock: true,
	},
	branchNodes: map[string]bool{
		pyNodeIfStatement:  true,
		pyNodeElifClause:   true,
		pyNodeForStatement: true,
		pyNodeWhileStmt:    true,
		pyNodeExceptClause: true,
		pyNodeConditional:  true,
		pyNodeCaseClause:   true,
	},
	commentNode: pyNodeComment,
	casing:      casingSnake,
	nameOf:      pyUnitName,
	paramCount:  pyParamCount,
}

// nodeText returns the source text of a node.
func nodeText(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}

// goUnitName extracts the declared name of a Go unit node.
func goUnitName(n *sitter.Node, content []byte) string {
	switch n.Type() {
	case goNodeFunctionDecl, goNodeMethodDecl:
		return nodeText(n.ChildByFieldName(goFieldName), content)
	case goNodeTypeDecl:
		// A declaration may group several specs; the first one names it.
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == goNodeTypeSpec {
				return nodeText(child.ChildByFieldName(goFieldName), content)
			}
		}
	}
	return ""
}

// goParamCount counts declared parameters, excluding the method receiver.
func goParamCount(n *sitter.Node, content []byte) int {
	params := n.ChildByFieldName(goFieldParameters)
	if params == nil || params.Type() != goNodeParameterList {
		return 0
	}

	count := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		decl := params.NamedChild(i)
		switch decl.Type() {
		case goNodeParameterDecl, goNodeVariadicParam:
			// One declaration can bind several names: func f(a, b int).
			names := 0
			for j := 0; j < int(decl.NamedChildCount()); j++ {
				if decl.NamedChild(j).Type() == goNodeIdentifier {
					names++
				}
			}
			if names == 0 {
				names = 1 // unnamed parameter, e.g. func f(int)
			}
			count += names
		}
	}
	return count
}

// pyUnitName extracts the declared name of a Python unit node.
func pyUnitName(n *sitter.Node, content []byte) string {
	return nodeText(n.ChildByFieldName(pyFieldName), content)
}

// pyParamCount counts declared parameters, excluding self and cls.
func pyParamCount(n *sitter.Node, content []byte) int {
	params := n.ChildByFieldName(pyFieldParameters)
	if params == nil {
		return 0
	}

	count := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		switch param.Type() {
		case pyNodeIdentifier, pyNodeTypedParam, pyNodeDefaultParam,
			pyNodeTypedDefault, pyNodeListSplat, pyNodeDictSplat:
			if count == 0 && i == 0 {
				text := nodeText(param, content)
				if text == "self" || text == "cls" {
					continue
				}
			}
			count++
		}
	}
	return count
}
