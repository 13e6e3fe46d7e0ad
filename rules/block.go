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

package rules

import (
	"strings"

	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/internal/cst"
)

const logicBlockMinLen = 50

// LogicBlockRule extracts statement blocks and function bodies that hold
// enough logic to stand on their own.
type LogicBlockRule struct {
	base
}

// NewLogicBlockRule creates the rule.
func NewLogicBlockRule() *LogicBlockRule {
	return &LogicBlockRule{base: base{
		name:        "logic-block",
		snippetType: chunk.LogicBlock,
		kinds: []string{
			"block",
			"statement_block",
			"compound_statement",
			"function_definition",
			"function_declaration",
			"method_declaration",
			"func_literal",
		},
		config:     DefaultConfig(),
		standalone: true,
	}}
}

// ShouldProcess requires at least two statements, or enough text, or a
// nested function definition.
func (r *LogicBlockRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	content := string(node.Value())

	return node.NamedChildCount() >= 2 ||
		len(content) > logicBlockMinLen ||
		strings.Contains(content, "function")
}

// CreateSnippet builds a logic_block snippet.
func (r *LogicBlockRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	return r.snippet(node, nesting), true
}

// Markers a comment must open with for CommentMarkedRule to pick up the
// code that follows it.
var commentMarkers = []string{"@snippet", "@code", "@example"}

// CommentMarkedRule extracts the code block following a comment that starts
// with one of the snippet markers. The emitted content spans the marker
// comment plus its next sibling, so the snippet keeps the author's label
// while still containing real code.
type CommentMarkedRule struct {
	base
}

// NewCommentMarkedRule creates the rule.
func NewCommentMarkedRule() *CommentMarkedRule {
	config := expressionConfig()
	config.MaxLines = 100

	return &CommentMarkedRule{base: base{
		name:        "comment-marked",
		snippetType: chunk.CommentMarked,
		kinds:       []string{"comment", "line_comment", "block_comment"},
		config:      config,
		standalone:  true,
	}}
}

// ShouldProcess requires the comment text to open with a marker, after the
// comment syntax itself is removed.
func (r *CommentMarkedRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	text := strings.TrimSpace(string(node.Value()))
	for _, prefix := range []string{"//", "/*", "#", "<!--"} {
		text = strings.TrimPrefix(text, prefix)
	}
	text = strings.TrimSpace(text)

	for _, marker := range commentMarkers {
		if strings.HasPrefix(text, marker) {
			return true
		}
	}

	return false
}

// CreateSnippet spans from the marker comment through its next sibling
// node; a trailing comment with nothing after it yields no snippet.
func (r *CommentMarkedRule) CreateSnippet(node *cst.Node, src []byte, nesting int) (*chunk.Snippet, bool) {
	sibling := nextSibling(node)
	if sibling == nil {
		return nil, false
	}

	snippet := r.snippet(node, nesting)

	content := string(src[node.StartByte():sibling.EndByte()])
	snippet.Content = content
	snippet.EndByte = sibling.EndByte()
	snippet.EndLine = int(sibling.EndPoint().Row) + 1
	snippet.ID = chunk.NewID(r.snippetType, snippet.StartLine, content)

	return snippet, true
}

// nextSibling finds the named node immediately following node under the
// same parent.
func nextSibling(node *cst.Node) *cst.Node {
	parent := node.Parent()
	if parent == nil {
		return nil
	}

	for i := 0; i < parent.NamedChildCount(); i++ {
		child := parent.NamedChild(i)
		if child.StartByte() == node.StartByte() && child.EndByte() == node.EndByte() {
			return parent.NamedChild(i + 1)
		}
	}

	return nil
}
