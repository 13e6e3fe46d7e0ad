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
	"regexp"
	"strings"

	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/internal/cst"
)

var asyncContent = regexp.MustCompile(`\basync\b|\bawait\b|\.then\s*\(|\bPromise\b`)

// AsyncPatternRule extracts async functions, await expressions, and promise
// chains. Function-shaped kinds only qualify when their text actually uses
// async constructs, since the kind alone doesn't distinguish sync from
// async definitions.
type AsyncPatternRule struct {
	base
}

// NewAsyncPatternRule creates the rule.
func NewAsyncPatternRule() *AsyncPatternRule {
	return &AsyncPatternRule{base: base{
		name:        "async-pattern",
		snippetType: chunk.AsyncPattern,
		kinds: []string{
			"await_expression",
			"await",
			"async_block",
			"function_declaration",
			"function_definition",
			"arrow_function",
			"method_definition",
		},
		config:     expressionConfig(),
		standalone: false,
	}}
}

// ShouldProcess requires async content for function kinds; await nodes
// qualify on their own unless they sit inside a larger await chain.
func (r *AsyncPatternRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	switch node.Type() {
	case "await_expression", "await", "async_block":
		parent := node.Parent()
		return parent == nil || (parent.Type() != "await_expression" && parent.Type() != "await")
	default:
		return asyncContent.MatchString(string(node.Value()))
	}
}

// CreateSnippet builds an async_pattern snippet.
func (r *AsyncPatternRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	return r.snippet(node, nesting), true
}

// DecoratorPatternRule extracts decorators and annotations together with
// the definitions they modify where the grammar groups them.
type DecoratorPatternRule struct {
	base
}

// NewDecoratorPatternRule creates the rule.
func NewDecoratorPatternRule() *DecoratorPatternRule {
	return &DecoratorPatternRule{base: base{
		name:        "decorator-pattern",
		snippetType: chunk.DecoratorPattern,
		kinds: []string{
			"decorated_definition",
			"decorator",
			"annotation",
			"marker_annotation",
			"attribute_item",
		},
		config:     expressionConfig(),
		standalone: false,
	}}
}

// ShouldProcess skips decorators already covered by an enclosing
// decorated_definition node.
func (r *DecoratorPatternRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	if node.Type() != "decorator" {
		return true
	}

	parent := node.Parent()

	return parent == nil || parent.Type() != "decorated_definition"
}

// CreateSnippet builds a decorator_pattern snippet.
func (r *DecoratorPatternRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	return r.snippet(node, nesting), true
}

// GenericPatternRule extracts generic type declarations and type-parameter
// lists.
type GenericPatternRule struct {
	base
}

// NewGenericPatternRule creates the rule.
func NewGenericPatternRule() *GenericPatternRule {
	return &GenericPatternRule{base: base{
		name:        "generic-pattern",
		snippetType: chunk.GenericPattern,
		kinds: []string{
			"type_parameters",
			"type_parameter",
			"type_parameter_list",
			"generic_type",
			"template_declaration",
		},
		config:     expressionConfig(),
		standalone: false,
	}}
}

// ShouldProcess drops single-letter parameter lists like <T>, which say
// nothing beyond "this is generic".
func (r *GenericPatternRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	return len(strings.TrimSpace(string(node.Value()))) >= 5
}

// CreateSnippet widens a type-parameter list to its declaring node so the
// snippet shows what the parameters apply to.
func (r *GenericPatternRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	span := node

	if node.Type() == "type_parameters" || node.Type() == "type_parameter_list" {
		if parent := node.Parent(); parent != nil {
			span = parent
		}
	}

	return r.snippetForSpan(node, span, nesting), true
}
