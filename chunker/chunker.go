// Copyright 2022 ZUP IT SERVICOS EM TECNOLOGIA E INOVACAO SA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package chunker extracts the structural units of a file: functions,
// classes, imports, and exports, emitted alongside the rule-extracted
// snippets. One table per node role maps each grammar's type names onto the
// shared chunk kinds.
package chunker

import (
	"strings"

	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/heuristics"
	"github.com/horusec-io/codesnippet-engine/internal/cst"
	"github.com/horusec-io/codesnippet-engine/internal/lang"
)

var functionKinds = map[string]struct{}{
	"function_declaration":    {},
	"function_definition":     {},
	"function_expression":     {},
	"function_item":           {},
	"method_definition":       {},
	"method_declaration":      {},
	"constructor_declaration": {},
	"arrow_function":          {},
	"func_literal":            {},
}

var classKinds = map[string]struct{}{
	"class_declaration":      {},
	"class_definition":       {},
	"class_specifier":        {},
	"struct_specifier":       {},
	"struct_item":            {},
	"enum_declaration":       {},
	"interface_declaration":  {},
	"trait_item":             {},
	"impl_item":              {},
	"type_alias_declaration": {},
}

var importKinds = map[string]struct{}{
	"import_statement":      {},
	"import_declaration":    {},
	"import_from_statement": {},
	"use_declaration":       {},
	"preproc_include":       {},
}

var exportKinds = map[string]struct{}{
	"export_statement": {},
}

// Extract walks the tree and returns one chunk per structural unit, in
// pre-order. A module-level chunk summarizing the file's imports and
// exports is prepended when the file declares any.
func Extract(root *cst.Node, src []byte, language lang.Language) []*chunk.Chunk {
	if root == nil {
		return nil
	}

	var (
		chunks  []*chunk.Chunk
		imports []string
		exports []string
	)

	cst.Inspect(root, func(node *cst.Node) bool {
		if node == nil {
			return false
		}

		kind := node.Type()

		switch {
		case member(functionKinds, kind):
			chunks = append(chunks, newChunk(node, chunk.KindFunction, language, functionMetadata(node)))
		case member(classKinds, kind):
			chunks = append(chunks, newChunk(node, chunk.KindClass, language, classMetadata(node)))
		case member(importKinds, kind):
			chunks = append(chunks, newChunk(node, chunk.KindImport, language, chunk.Metadata{}))
			imports = append(imports, strings.TrimSpace(string(node.Value())))
		case member(exportKinds, kind):
			chunks = append(chunks, newChunk(node, chunk.KindExport, language, chunk.Metadata{}))
			exports = append(exports, strings.TrimSpace(string(node.Value())))
		}

		return true
	})

	if len(imports) > 0 || len(exports) > 0 {
		module := newChunk(root, chunk.KindModule, language, chunk.Metadata{
			Imports: imports,
			Exports: exports,
		})
		chunks = append([]*chunk.Chunk{module}, chunks...)
	}

	return chunks
}

func member(set map[string]struct{}, kind string) bool {
	_, ok := set[kind]
	return ok
}

func newChunk(node *cst.Node, kind chunk.Kind, language lang.Language, metadata chunk.Metadata) *chunk.Chunk {
	content := string(node.Value())
	startLine := int(node.StartPoint().Row) + 1

	metadata.Language = language
	metadata.Complexity = heuristics.Complexity(content)
	metadata.LinesOfCode = heuristics.CountNonBlankLines(content)

	return &chunk.Chunk{
		ID:        chunk.NewID(chunk.SnippetType(kind), startLine, content),
		Content:   content,
		StartLine: startLine,
		EndLine:   int(node.EndPoint().Row) + 1,
		StartByte: node.StartByte(),
		EndByte:   node.EndByte(),
		Kind:      kind,
		Name:      declaredName(node),
		Metadata:  metadata,
	}
}

// declaredName reads the grammar's "name" field, falling back to the first
// identifier-ish child for grammars that don't label it.
func declaredName(node *cst.Node) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return string(name.Value())
	}

	for i := 0; i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier", "type_identifier", "property_identifier", "field_identifier", "name":
			return string(child.Value())
		}
	}

	return ""
}

// functionMetadata pulls the parameter list and return type from the
// grammar's labeled fields where present.
func functionMetadata(node *cst.Node) chunk.Metadata {
	var metadata chunk.Metadata

	if params := node.ChildByFieldName("parameters"); params != nil {
		cst.IterNamedChilds(params, func(param *cst.Node) {
			metadata.Parameters = append(metadata.Parameters, strings.TrimSpace(string(param.Value())))
		})
	}

	for _, field := range []string{"return_type", "result", "type"} {
		if ret := node.ChildByFieldName(field); ret != nil {
			metadata.ReturnType = strings.TrimSpace(string(ret.Value()))
			break
		}
	}

	return metadata
}

// classMetadata lists the class's methods, fields, and declared supertypes.
func classMetadata(node *cst.Node) chunk.Metadata {
	var metadata chunk.Metadata

	body := node.ChildByFieldName("body")
	if body == nil {
		body = node
	}

	cst.IterNamedChilds(body, func(child *cst.Node) {
		switch {
		case member(functionKinds, child.Type()):
			if name := declaredName(child); name != "" {
				metadata.Methods = append(metadata.Methods, name)
			}
		case strings.Contains(child.Type(), "field") || strings.Contains(child.Type(), "property"):
			if name := declaredName(child); name != "" {
				metadata.Properties = append(metadata.Properties, name)
			}
		}
	})

	for _, field := range []string{"superclass", "superclasses", "interfaces", "heritage"} {
		if super := node.ChildByFieldName(field); super != nil {
			text := strings.TrimSpace(string(super.Value()))
			text = strings.TrimPrefix(text, "extends ")
			text = strings.TrimPrefix(text, "implements ")
			text = strings.Trim(text, "():")

			if text != "" {
				metadata.Inheritance = append(metadata.Inheritance, text)
			}
		}
	}

	return metadata
}
