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
	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/heuristics"
	"github.com/horusec-io/codesnippet-engine/internal/cst"
)

const (
	trivialControlLen   = 50
	trivialControlLines = 2
)

// ControlStructureRule extracts if/for/while/do/switch/match constructs
// across every wired grammar, skipping trivial one-liners.
type ControlStructureRule struct {
	base
}

// NewControlStructureRule creates the rule with default config.
func NewControlStructureRule() *ControlStructureRule {
	return &ControlStructureRule{base: base{
		name:        "control-structure",
		snippetType: chunk.ControlStructure,
		kinds: []string{
			"if_statement",
			"if_expression",
			"for_statement",
			"for_in_statement",
			"for_expression",
			"enhanced_for_statement",
			"while_statement",
			"while_expression",
			"do_statement",
			"switch_statement",
			"switch_expression",
			"expression_switch_statement",
			"type_switch_statement",
			"match_expression",
			"loop_expression",
			"else_clause",
		},
		config:     DefaultConfig(),
		standalone: true,
	}}
}

// ShouldProcess filters out trivial one-liners: content shorter than 50
// characters spanning at most two non-blank lines.
func (r *ControlStructureRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	content := string(node.Value())

	return !(len(content) < trivialControlLen && heuristics.CountNonBlankLines(content) <= trivialControlLines)
}

// CreateSnippet builds a control_structure snippet covering the whole
// construct, including any else/catch arms the node spans.
func (r *ControlStructureRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	return r.snippet(node, nesting), true
}

// ErrorHandlingRule extracts try blocks and throw statements. Catch and
// finally clauses are not matched individually; they surface as part of the
// try construct that owns them.
type ErrorHandlingRule struct {
	base
}

// NewErrorHandlingRule creates the rule with default config.
func NewErrorHandlingRule() *ErrorHandlingRule {
	return &ErrorHandlingRule{base: base{
		name:        "error-handling",
		snippetType: chunk.ErrorHandling,
		kinds: []string{
			"try_statement",
			"try_expression",
			"throw_statement",
			"throw_expression",
		},
		config:     expressionConfig(),
		standalone: true,
	}}
}

// ShouldProcess accepts every matched node; the kind set already excludes
// bare catch/finally clauses.
func (r *ErrorHandlingRule) ShouldProcess(_ *cst.Node, _ []byte) bool {
	return true
}

// CreateSnippet builds an error_handling snippet for the try or throw node.
func (r *ErrorHandlingRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	return r.snippet(node, nesting), true
}
