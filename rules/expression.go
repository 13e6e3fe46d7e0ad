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
	"github.com/horusec-io/codesnippet-engine/heuristics"
	"github.com/horusec-io/codesnippet-engine/internal/cst"
)

// DestructuringAssignmentRule extracts object/array patterns and
// assignments whose left-hand side is a pattern.
type DestructuringAssignmentRule struct {
	base
}

// NewDestructuringAssignmentRule creates the rule.
func NewDestructuringAssignmentRule() *DestructuringAssignmentRule {
	return &DestructuringAssignmentRule{base: base{
		name:        "destructuring-assignment",
		snippetType: chunk.DestructuringAssignment,
		kinds: []string{
			"object_pattern",
			"array_pattern",
			"pattern_list",
			"assignment_expression",
		},
		config:     expressionConfig(),
		standalone: false,
	}}
}

// ShouldProcess requires assignment nodes to have a pattern on the left;
// bare patterns always qualify.
func (r *DestructuringAssignmentRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	if node.Type() != "assignment_expression" {
		return true
	}

	content := strings.TrimSpace(string(node.Value()))

	return strings.HasPrefix(content, "[") || strings.HasPrefix(content, "{")
}

// CreateSnippet widens a bare pattern to its enclosing declaration when one
// exists, so the emitted snippet shows what the pattern binds from.
func (r *DestructuringAssignmentRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	span := node

	if parent := node.Parent(); parent != nil {
		switch parent.Type() {
		case "variable_declarator", "lexical_declaration", "variable_declaration", "assignment":
			span = parent
		}
	}

	return r.snippetForSpan(node, span, nesting), true
}

// TemplateLiteralRule extracts template strings that interpolate at least
// one expression; constant templates carry no logic worth indexing.
type TemplateLiteralRule struct {
	base
}

// NewTemplateLiteralRule creates the rule.
func NewTemplateLiteralRule() *TemplateLiteralRule {
	return &TemplateLiteralRule{base: base{
		name:        "template-literal",
		snippetType: chunk.TemplateLiteral,
		kinds:       []string{"template_string", "template_literal"},
		config:      expressionConfig(),
		standalone:  false,
	}}
}

// ShouldProcess requires at least one interpolation.
func (r *TemplateLiteralRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	return strings.Contains(string(node.Value()), "${")
}

// CreateSnippet builds a template_literal snippet.
func (r *TemplateLiteralRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	return r.snippet(node, nesting), true
}

const (
	literalMinLen      = 30
	literalMinLines    = 3
	literalMinBrackets = 3
)

// ObjectArrayLiteralRule extracts object and array literals that are big or
// nested enough to describe a data shape.
type ObjectArrayLiteralRule struct {
	base
}

// NewObjectArrayLiteralRule creates the rule.
func NewObjectArrayLiteralRule() *ObjectArrayLiteralRule {
	return &ObjectArrayLiteralRule{base: base{
		name:        "object-array-literal",
		snippetType: chunk.ObjectArrayLiteral,
		kinds: []string{
			"object",
			"array",
			"dictionary",
			"list",
			"set",
			"object_creation_expression",
			"array_initializer",
			"composite_literal",
			"initializer_list",
		},
		config:     expressionConfig(),
		standalone: false,
	}}
}

// ShouldProcess applies the size-or-nesting threshold.
func (r *ObjectArrayLiteralRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	content := string(node.Value())

	return len(content) > literalMinLen ||
		heuristics.CountNonBlankLines(content) >= literalMinLines ||
		strings.Count(content, "{")+strings.Count(content, "[") >= literalMinBrackets
}

// CreateSnippet builds an object_array_literal snippet.
func (r *ObjectArrayLiteralRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	return r.snippet(node, nesting), true
}

// ArithmeticLogicalRule extracts binary, unary, logical, and comparison
// expressions, keeping only the outermost expression of a nested tree.
type ArithmeticLogicalRule struct {
	base
}

var arithmeticKinds = []string{
	"binary_expression",
	"unary_expression",
	"boolean_operator",
	"comparison_operator",
	"binary_operator",
	"ternary_expression",
	"conditional_expression",
}

var arithmeticKindSet = kindSet(arithmeticKinds)

// NewArithmeticLogicalRule creates the rule.
func NewArithmeticLogicalRule() *ArithmeticLogicalRule {
	return &ArithmeticLogicalRule{base: base{
		name:        "arithmetic-logical",
		snippetType: chunk.ArithmeticLogicalExpr,
		kinds:       arithmeticKinds,
		config:      DefaultConfig(),
		standalone:  false,
	}}
}

// ShouldProcess skips sub-expressions; the outermost expression carries the
// whole text anyway.
func (r *ArithmeticLogicalRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	parent := node.Parent()
	if parent == nil {
		return true
	}

	_, nested := arithmeticKindSet[parent.Type()]

	return !nested
}

// CreateSnippet builds an arithmetic_logical_expression snippet.
func (r *ArithmeticLogicalRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	return r.snippet(node, nesting), true
}

// ExpressionSequenceRule extracts comma-joined expression sequences.
type ExpressionSequenceRule struct {
	base
}

// NewExpressionSequenceRule creates the rule.
func NewExpressionSequenceRule() *ExpressionSequenceRule {
	return &ExpressionSequenceRule{base: base{
		name:        "expression-sequence",
		snippetType: chunk.ExpressionSequence,
		kinds:       []string{"sequence_expression", "comma_expression"},
		config:      expressionConfig(),
		standalone:  false,
	}}
}

// ShouldProcess accepts every sequence node.
func (r *ExpressionSequenceRule) ShouldProcess(_ *cst.Node, _ []byte) bool {
	return true
}

// CreateSnippet builds an expression_sequence snippet.
func (r *ExpressionSequenceRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	return r.snippet(node, nesting), true
}
