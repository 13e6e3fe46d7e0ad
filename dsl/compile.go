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

package dsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/heuristics"
	"github.com/horusec-io/codesnippet-engine/internal/cst"
	"github.com/horusec-io/codesnippet-engine/rules"
)

// Condition types the DSL understands.
const (
	CondNodeType        = "nodeType"
	CondContentPattern  = "contentPattern"
	CondComplexity      = "complexity"
	CondLanguageFeature = "languageFeature"
)

// Operators for condition values.
const (
	OpEquals      = "equals"
	OpContains    = "contains"
	OpMatches     = "matches"
	OpGreaterThan = "greaterThan"
	OpLessThan    = "lessThan"
)

// Action types.
const (
	ActionExtract   = "extract"
	ActionHighlight = "highlight"
	ActionReport    = "report"
)

// Definition is the persisted, language-independent form of a rule: what
// the store serializes and what the compiler consumes.
type Definition struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Target      string              `json:"target"`
	Conditions  []StoredCondition   `json:"conditions"`
	Actions     []StoredAction      `json:"actions"`
	Version     string              `json:"version"`
}

// StoredCondition is one condition in normalized form.
type StoredCondition struct {
	Type     string `json:"type"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// StoredAction is one action in normalized form.
type StoredAction struct {
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ToDefinition normalizes a parsed declaration. The rule id derives from
// the name so re-parsing the same source yields the same id.
func ToDefinition(decl *RuleDecl) *Definition {
	def := &Definition{
		ID:          ruleID(decl.Name),
		Name:        decl.Name,
		Description: decl.Description,
		Target:      decl.Target,
		Version:     "1.0.0",
	}

	for _, cond := range decl.Conditions {
		def.Conditions = append(def.Conditions, StoredCondition{
			Type:     cond.Key,
			Operator: cond.Value.operator(),
			Value:    cond.Value.literal(),
		})
	}

	for _, action := range decl.Actions {
		stored := StoredAction{Type: strings.ToLower(action.Type)}

		if len(action.Parameters) > 0 {
			stored.Parameters = make(map[string]any, len(action.Parameters))
			for _, kv := range action.Parameters {
				stored.Parameters[kv.Key] = kv.paramValue()
			}
		}

		def.Actions = append(def.Actions, stored)
	}

	return def
}

// ruleID slugs the rule name plus a short stable hash, so distinct rules
// with similar names don't collide on disk.
func ruleID(name string) string {
	slug := strings.ToLower(name)
	slug = regexp.MustCompile(`[^a-z0-9]+`).ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	return fmt.Sprintf("%s-%08x", slug, uint32(xxhash.Sum64String(name)))
}

// Diagnostic is the output of highlight and report actions. Diagnostics
// travel on a side channel; they are never part of the snippet stream.
type Diagnostic struct {
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Action   string `json:"action"`
	NodeKind string `json:"node_kind"`
	Line     int    `json:"line"`
	Excerpt  string `json:"excerpt"`
}

// DiagnosticSink receives highlight/report output during extraction. A nil
// sink drops diagnostics.
type DiagnosticSink func(Diagnostic)

// CompiledRule is a DSL rule compiled to the same contract as a built-in
// rule: it plugs into the registry and walker unchanged.
type CompiledRule struct {
	def        *Definition
	conditions []conditionEval
	extract    bool
	sink       DiagnosticSink
	config     rules.Config
}

type conditionEval func(node *cst.Node, content string) bool

// Compile validates a definition and builds its executable form. sink may
// be nil when the caller only cares about extraction.
func Compile(def *Definition, sink DiagnosticSink) (*CompiledRule, error) {
	if result := Validate(def); !result.Valid {
		return nil, &SemanticError{Problems: result.Errors}
	}

	compiled := &CompiledRule{
		def:    def,
		sink:   sink,
		config: rules.Config{MaxDepth: 50, MinComplexity: 1, MaxComplexity: 100, MinLines: 1, MaxLines: 100},
	}

	for _, cond := range def.Conditions {
		eval, err := compileCondition(cond)
		if err != nil {
			return nil, err
		}

		compiled.conditions = append(compiled.conditions, eval)
	}

	for _, action := range def.Actions {
		if action.Type == ActionExtract {
			compiled.extract = true
		}
	}

	return compiled, nil
}

// CompileSource parses, validates, and compiles DSL text in one step.
func CompileSource(source string, sink DiagnosticSink) (*CompiledRule, error) {
	decl, err := Parse(source)
	if err != nil {
		return nil, err
	}

	return Compile(ToDefinition(decl), sink)
}

// SemanticError aggregates every validation problem found in a definition.
type SemanticError struct {
	Problems []string
}

func (e *SemanticError) Error() string {
	return "dsl semantic error: " + strings.Join(e.Problems, "; ")
}

// Definition exposes the compiled rule's normalized form.
func (r *CompiledRule) Definition() *Definition { return r.def }

// Name implements rules.Rule.
func (r *CompiledRule) Name() string { return r.def.Name }

// SnippetType implements rules.Rule. Custom extractions emit logic_block
// snippets; the rule's own identity travels in the registry name and in
// diagnostics.
func (r *CompiledRule) SnippetType() chunk.SnippetType { return chunk.LogicBlock }

// SupportedKinds implements rules.Rule; a compiled rule targets exactly one
// node kind.
func (r *CompiledRule) SupportedKinds() []string { return []string{r.def.Target} }

// Config implements rules.Rule.
func (r *CompiledRule) Config() rules.Config { return r.config }

// ShouldProcess implements rules.Rule: every condition must pass, in
// declaration order.
func (r *CompiledRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	content := string(node.Value())

	for _, eval := range r.conditions {
		if !eval(node, content) {
			return false
		}
	}

	return true
}

// CreateSnippet implements rules.Rule. Extract actions produce a snippet;
// highlight and report actions emit diagnostics to the sink.
func (r *CompiledRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	for _, action := range r.def.Actions {
		if action.Type == ActionExtract {
			continue
		}

		if r.sink != nil {
			r.sink(Diagnostic{
				RuleID:   r.def.ID,
				RuleName: r.def.Name,
				Action:   action.Type,
				NodeKind: node.Type(),
				Line:     int(node.StartPoint().Row) + 1,
				Excerpt:  excerpt(string(node.Value())),
			})
		}
	}

	if !r.extract {
		return nil, false
	}

	return rules.NewSnippet(chunk.LogicBlock, node, nesting), true
}

func excerpt(content string) string {
	const max = 120

	if len(content) > max {
		return content[:max]
	}

	return content
}

// compileCondition turns one stored condition into its evaluator.
func compileCondition(cond StoredCondition) (conditionEval, error) {
	switch cond.Type {
	case CondNodeType:
		return compileNodeType(cond)
	case CondContentPattern:
		return compileContentPattern(cond)
	case CondComplexity:
		return compileComplexity(cond)
	case CondLanguageFeature:
		return compileLanguageFeature(cond)
	default:
		return nil, &SemanticError{Problems: []string{fmt.Sprintf("unknown condition type %q", cond.Type)}}
	}
}

func compileNodeType(cond StoredCondition) (conditionEval, error) {
	value := cond.Value

	switch cond.Operator {
	case OpEquals:
		return func(node *cst.Node, _ string) bool { return node.Type() == value }, nil
	case OpContains:
		return func(node *cst.Node, _ string) bool { return strings.Contains(node.Type(), value) }, nil
	case OpMatches:
		pattern, err := regexp.Compile(value)
		if err != nil {
			return nil, &SemanticError{Problems: []string{fmt.Sprintf("nodeType pattern: %v", err)}}
		}

		return func(node *cst.Node, _ string) bool { return pattern.MatchString(node.Type()) }, nil
	default:
		return nil, &SemanticError{Problems: []string{fmt.Sprintf("operator %q invalid for nodeType", cond.Operator)}}
	}
}

// compileContentPattern treats equals and matches as a regexp match over
// the node text: a bare contentPattern value is a pattern, not an exact
// content comparison.
func compileContentPattern(cond StoredCondition) (conditionEval, error) {
	switch cond.Operator {
	case OpContains:
		value := cond.Value
		return func(_ *cst.Node, content string) bool { return strings.Contains(content, value) }, nil
	case OpEquals, OpMatches:
		pattern, err := regexp.Compile(cond.Value)
		if err != nil {
			return nil, &SemanticError{Problems: []string{fmt.Sprintf("contentPattern: %v", err)}}
		}

		return func(_ *cst.Node, content string) bool { return pattern.MatchString(content) }, nil
	default:
		return nil, &SemanticError{Problems: []string{fmt.Sprintf("operator %q invalid for contentPattern", cond.Operator)}}
	}
}

func compileComplexity(cond StoredCondition) (conditionEval, error) {
	threshold, err := strconv.ParseFloat(cond.Value, 64)
	if err != nil {
		return nil, &SemanticError{Problems: []string{fmt.Sprintf("complexity value %q is not a number", cond.Value)}}
	}

	switch cond.Operator {
	case OpEquals:
		return func(_ *cst.Node, content string) bool { return float64(heuristics.Complexity(content)) == threshold }, nil
	case OpGreaterThan:
		return func(_ *cst.Node, content string) bool { return float64(heuristics.Complexity(content)) > threshold }, nil
	case OpLessThan:
		return func(_ *cst.Node, content string) bool { return float64(heuristics.Complexity(content)) < threshold }, nil
	default:
		return nil, &SemanticError{Problems: []string{fmt.Sprintf("operator %q invalid for complexity", cond.Operator)}}
	}
}

func compileLanguageFeature(cond StoredCondition) (conditionEval, error) {
	feature := cond.Value

	if cond.Operator != OpEquals {
		return nil, &SemanticError{Problems: []string{fmt.Sprintf("operator %q invalid for languageFeature", cond.Operator)}}
	}

	return func(_ *cst.Node, content string) bool {
		features := heuristics.LanguageFeatures(content)

		switch feature {
		case "async":
			return features.UsesAsync
		case "generators":
			return features.UsesGenerators
		case "destructuring":
			return features.UsesDestructuring
		case "spread":
			return features.UsesSpread
		case "template_literals":
			return features.UsesTemplateLiterals
		default:
			return false
		}
	}, nil
}
