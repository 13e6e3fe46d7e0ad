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
	"github.com/horusec-io/codesnippet-engine/heuristics"
	"github.com/horusec-io/codesnippet-engine/internal/cst"
)

var (
	functionalOps   = regexp.MustCompile(`\.\s*(map|filter|reduce|forEach|flatMap|fold|some|every|find)\s*\(`)
	imperativeLoops = regexp.MustCompile(`\b(for|while)\b`)
	lambdaKinds     = kindSet([]string{"lambda", "lambda_expression", "arrow_function", "closure_expression"})
)

// FunctionalProgrammingRule extracts map/filter/reduce pipelines and lambda
// expressions, classifying their style and purity.
type FunctionalProgrammingRule struct {
	base
}

// NewFunctionalProgrammingRule creates the rule.
func NewFunctionalProgrammingRule() *FunctionalProgrammingRule {
	return &FunctionalProgrammingRule{base: base{
		name:        "functional-programming",
		snippetType: chunk.FunctionalProgramming,
		kinds: []string{
			"call_expression",
			"call",
			"method_invocation",
			"lambda",
			"lambda_expression",
			"arrow_function",
			"closure_expression",
		},
		config:     expressionConfig(),
		standalone: false,
	}}
}

// ShouldProcess accepts lambdas directly; call kinds must be the outermost
// link of a pipeline that uses functional operators.
func (r *FunctionalProgrammingRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	if _, isLambda := lambdaKinds[node.Type()]; isLambda {
		parent := node.Parent()
		// Lambdas inside a pipeline surface with the pipeline itself.
		return parent == nil || !strings.Contains(parent.Type(), "argument")
	}

	if parent := node.Parent(); parent != nil {
		if _, chained := chainParentKinds[parent.Type()]; chained {
			return false
		}
	}

	return functionalOps.MatchString(string(node.Value()))
}

// CreateSnippet builds a functional_programming snippet with style, purity,
// and chaining depth attached.
func (r *FunctionalProgrammingRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	snippet := r.snippet(node, nesting)
	snippet.SnippetMetadata.Functional = functionalInfo(snippet.Content)

	return snippet, true
}

func functionalInfo(content string) *chunk.FunctionalInfo {
	declarative := functionalOps.MatchString(content)
	imperative := imperativeLoops.MatchString(content)
	sideEffects := heuristics.HasSideEffects(content)

	info := &chunk.FunctionalInfo{
		ChainingDepth: len(functionalOps.FindAllString(content, -1)),
	}

	switch {
	case declarative && imperative:
		info.Style = chunk.StyleHybrid
	case declarative:
		info.Style = chunk.StyleDeclarative
	default:
		info.Style = chunk.StyleImperative
	}

	switch {
	case !sideEffects:
		info.Purity = chunk.PurityPure
	case declarative:
		info.Purity = chunk.PurityMixed
	default:
		info.Purity = chunk.PurityImpure
	}

	return info
}

var comprehensionTypes = map[string]string{
	"list_comprehension":       "list",
	"dictionary_comprehension": "dict",
	"set_comprehension":        "set",
	"generator_expression":     "generator",
}

// PythonComprehensionRule extracts python comprehensions and generator
// expressions that carry a condition or a transform; a bare copy like
// [x for x in xs] is skipped.
type PythonComprehensionRule struct {
	base
}

// NewPythonComprehensionRule creates the rule.
func NewPythonComprehensionRule() *PythonComprehensionRule {
	return &PythonComprehensionRule{base: base{
		name:        "python-comprehension",
		snippetType: chunk.Comprehension,
		kinds: []string{
			"list_comprehension",
			"dictionary_comprehension",
			"set_comprehension",
			"generator_expression",
		},
		config:     expressionConfig(),
		standalone: false,
	}}
}

// ShouldProcess requires a filter condition or a non-identity transform.
func (r *PythonComprehensionRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	content := string(node.Value())

	return comprehensionConditions(content) > 0 || comprehensionHasTransform(content)
}

// CreateSnippet builds a comprehension snippet with loop/condition counts.
func (r *PythonComprehensionRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	snippet := r.snippet(node, nesting)

	kind := comprehensionTypes[node.Type()]
	if kind == "" {
		kind = "list"
	}

	snippet.SnippetMetadata.Comprehension = &chunk.ComprehensionInfo{
		Type:       kind,
		Conditions: comprehensionConditions(snippet.Content),
		Loops:      strings.Count(snippet.Content, " for "),
	}

	return snippet, true
}

func comprehensionConditions(content string) int {
	return strings.Count(content, " if ")
}

// comprehensionHasTransform checks whether the expression before the first
// "for" differs from the loop variable, i.e. the comprehension computes
// something rather than copying.
func comprehensionHasTransform(content string) bool {
	forIdx := strings.Index(content, " for ")
	if forIdx < 0 {
		return false
	}

	head := strings.Trim(content[:forIdx], "[{( \t")

	rest := content[forIdx+len(" for "):]
	inIdx := strings.Index(rest, " in ")
	if inIdx < 0 {
		return false
	}

	loopVar := strings.TrimSpace(rest[:inIdx])

	return head != loopVar
}
