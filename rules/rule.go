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

// Package rules holds the extraction rules and the tree walk that applies
// them. A rule is a predicate over node kinds plus a snippet builder; the
// walker fans every eligible rule out over each node in pre-order, validates
// what comes back, and deduplicates by snippet id.
package rules

import (
	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/heuristics"
	"github.com/horusec-io/codesnippet-engine/internal/cst"
)

// Config bounds what a single rule will extract. Every rule carries its own
// copy so per-rule overrides never leak across rules.
type Config struct {
	MaxDepth      int `json:"max_depth"`
	MinComplexity int `json:"min_complexity"`
	MaxComplexity int `json:"max_complexity"`
	MinLines      int `json:"min_lines"`
	MaxLines      int `json:"max_lines"`
}

// DefaultConfig returns the shared rule defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:      50,
		MinComplexity: 2,
		MaxComplexity: 100,
		MinLines:      1,
		MaxLines:      50,
	}
}

// expressionConfig relaxes the complexity floor for rules whose snippets are
// legitimate single expressions.
func expressionConfig() Config {
	config := DefaultConfig()
	config.MinComplexity = 1

	return config
}

// Rule is the contract every extraction rule satisfies, built-in or
// DSL-compiled. Implementations must be read-only after construction so a
// rule value can be shared between concurrently processed files.
type Rule interface {
	// Name uniquely identifies the rule inside a registry.
	Name() string

	// SnippetType is the type every snippet from this rule carries.
	SnippetType() chunk.SnippetType

	// SupportedKinds lists the node types this rule reacts to.
	SupportedKinds() []string

	// Config returns the rule's extraction bounds.
	Config() Config

	// ShouldProcess gates extraction at a matched node. Returning false
	// skips the node but the walk still descends into its children.
	ShouldProcess(node *cst.Node, src []byte) bool

	// CreateSnippet builds the snippet for a node that passed the gate.
	// The second return is false when the node turns out not to yield a
	// usable snippet after all.
	CreateSnippet(node *cst.Node, src []byte, nesting int) (*chunk.Snippet, bool)
}

// base carries the static identity shared by all built-in rules and builds
// the common part of a snippet: content, position, id, complexity,
// side-effect and feature flags, and surrounding context.
type base struct {
	name        string
	snippetType chunk.SnippetType
	kinds       []string
	config      Config
	standalone  bool
}

func (b base) Name() string                  { return b.name }
func (b base) SnippetType() chunk.SnippetType { return b.snippetType }
func (b base) SupportedKinds() []string      { return b.kinds }
func (b base) Config() Config                { return b.config }

// snippet assembles the snippet skeleton for node. Callers attach their
// rule-specific sub-metadata afterwards.
func (b base) snippet(node *cst.Node, nesting int) *chunk.Snippet {
	return b.snippetForSpan(node, node, nesting)
}

// snippetForSpan builds a snippet typed for this rule whose content covers
// span, while context is still resolved from the originally matched node.
// Rules that widen a match to its surrounding statements use this variant.
func (b base) snippetForSpan(node, span *cst.Node, nesting int) *chunk.Snippet {
	content := string(span.Value())
	startLine := int(span.StartPoint().Row) + 1
	endLine := int(span.EndPoint().Row) + 1
	complexity := heuristics.Complexity(content)

	return &chunk.Snippet{
		Chunk: chunk.Chunk{
			ID:        chunk.NewID(b.snippetType, startLine, content),
			Content:   content,
			StartLine: startLine,
			EndLine:   endLine,
			StartByte: span.StartByte(),
			EndByte:   span.EndByte(),
			Metadata: chunk.Metadata{
				Complexity:  complexity,
				LinesOfCode: heuristics.CountNonBlankLines(content),
			},
		},
		SnippetMetadata: chunk.SnippetMetadata{
			Kind:             b.snippetType,
			ContextInfo:      contextInfo(node, nesting),
			LanguageFeatures: heuristics.LanguageFeatures(content),
			Complexity:       complexity,
			IsStandalone:     b.standalone,
			HasSideEffects:   heuristics.HasSideEffects(content),
		},
	}
}

// NewSnippet builds the common snippet skeleton for a node, identical in
// shape to what the built-in rules emit. Compiled custom rules use this so
// their output is indistinguishable from built-in output.
func NewSnippet(snippetType chunk.SnippetType, node *cst.Node, nesting int) *chunk.Snippet {
	b := base{snippetType: snippetType}
	return b.snippet(node, nesting)
}

// kindSet turns a kind list into a set for O(1) membership tests.
func kindSet(kinds []string) map[string]struct{} {
	set := make(map[string]struct{}, len(kinds))
	for _, kind := range kinds {
		set[kind] = struct{}{}
	}

	return set
}
