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
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/internal/cst"
	"github.com/horusec-io/codesnippet-engine/internal/lang"
	"github.com/horusec-io/codesnippet-engine/validator"
)

func parseSource(t *testing.T, source string, language lang.Language) *cst.Node {
	t.Helper()

	root, err := cst.Parse(context.Background(), []byte(source), language)
	require.NoError(t, err)

	return root
}

func extract(t *testing.T, source string, language lang.Language, ruleSet []Rule) *Batch {
	t.Helper()

	root := parseSource(t, source, language)

	batch, err := Extract(context.Background(), root, []byte(source), ruleSet, Options{
		Language:  language,
		Validator: validator.New(validator.ProfileDevelopment),
	})
	require.NoError(t, err)

	return batch
}

func TestExtractControlStructure(t *testing.T) {
	source := "function f(x){ if (x>0){ console.log('p'); } else { console.log('n'); } }"

	batch := extract(t, source, lang.JavaScript, []Rule{NewControlStructureRule()})

	require.NotEmpty(t, batch.Snippets)

	snippet := batch.Snippets[0]
	assert.Equal(t, chunk.ControlStructure, snippet.SnippetMetadata.Kind)
	assert.True(t, strings.HasPrefix(snippet.Content, "if (x>0)"))
	assert.Contains(t, snippet.Content, "else")
	assert.GreaterOrEqual(t, snippet.SnippetMetadata.Complexity, 2)
	assert.Equal(t, "f", snippet.SnippetMetadata.ContextInfo.ParentFunction)
}

func TestExtractCallbackCallChain(t *testing.T) {
	source := "obj.a().b().c(d => d+1)"

	batch := extract(t, source, lang.JavaScript, []Rule{NewFunctionCallChainRule()})

	require.Len(t, batch.Snippets, 1)

	info := batch.Snippets[0].SnippetMetadata.CallChain
	require.NotNil(t, info)
	assert.Equal(t, 3, info.ChainLength)
	assert.Equal(t, chunk.CallCallbackBased, info.CallType)
	assert.True(t, info.HasCallbacks)
}

func TestExtractPythonComprehension(t *testing.T) {
	source := "[x*2 for x in xs if x>0]"

	batch := extract(t, source, lang.Python, []Rule{NewPythonComprehensionRule()})

	require.Len(t, batch.Snippets, 1)

	info := batch.Snippets[0].SnippetMetadata.Comprehension
	require.NotNil(t, info)
	assert.Equal(t, "list", info.Type)
	assert.Equal(t, 1, info.Conditions)
	assert.Equal(t, 1, info.Loops)
}

func TestComprehensionSkipsIdentityCopy(t *testing.T) {
	batch := extract(t, "[x for x in xs]", lang.Python, []Rule{NewPythonComprehensionRule()})

	assert.Empty(t, batch.Snippets)
}

func TestExtractGoGoroutine(t *testing.T) {
	source := `package main

func run() {
	ch := make(chan int)
	go func() { ch <- 1 }()
	v := <-ch
	_ = v
}
`

	batch := extract(t, source, lang.Go, []Rule{NewGoGoroutineRule()})

	require.NotEmpty(t, batch.Snippets)

	var found *chunk.GoConcurrencyInfo
	for _, snippet := range batch.Snippets {
		info := snippet.SnippetMetadata.GoConcurrency
		if info != nil && info.Goroutines >= 1 && len(info.Channels) > 0 {
			found = info
			break
		}
	}

	require.NotNil(t, found)
	assert.Contains(t, found.Channels, "int")
	assert.Equal(t, "concurrent_processing_with_communication", found.Purpose)
}

func TestExtractGoInterface(t *testing.T) {
	source := `package store

type Reader interface {
	Read(key string) ([]byte, error)
	Close() error
}
`

	batch := extract(t, source, lang.Go, []Rule{NewGoInterfaceRule()})

	require.NotEmpty(t, batch.Snippets)

	info := batch.Snippets[0].SnippetMetadata.GoInterface
	require.NotNil(t, info)
	assert.Contains(t, info.Interfaces, "Reader")
	assert.Equal(t, "contract_definition", info.Purpose)
	assert.NotEmpty(t, info.MethodSignatures)
}

func TestExtractKeepsIdenticalBlocksAtDistinctLines(t *testing.T) {
	// Two byte-identical blocks at different lines: distinct start lines
	// produce distinct ids, so both emit.
	source := `function a(x){ if (x>0){ console.log('p'); } else { console.log('n'); } }
function b(x){ if (x>0){ console.log('p'); } else { console.log('n'); } }`

	batch := extract(t, source, lang.JavaScript, []Rule{NewControlStructureRule()})

	require.Len(t, batch.Snippets, 2)
	assert.NotEqual(t, batch.Snippets[0].ID, batch.Snippets[1].ID)
	assert.Equal(t, batch.Snippets[0].Content, batch.Snippets[1].Content)

	seen := map[string]struct{}{}
	for _, snippet := range batch.Snippets {
		_, dup := seen[snippet.ID]
		assert.False(t, dup)
		seen[snippet.ID] = struct{}{}
	}
}

func TestExtractDeduplicatesSameStartLineMatches(t *testing.T) {
	// Two rules of the same type matching the same node produce
	// byte-identical snippets at the same start line, so their ids
	// collide and only the first emits.
	source := "function f(x){ if (x>0){ console.log('p'); } else { console.log('n'); } }"

	batch := extract(t, source, lang.JavaScript, []Rule{
		NewControlStructureRule(),
		NewControlStructureRule(),
	})

	require.Len(t, batch.Snippets, 1)
	assert.GreaterOrEqual(t, batch.Stats.Deduplicated, 1)
}

func TestExtractContentMatchesByteRange(t *testing.T) {
	source := "function f(x){ if (x>0){ console.log('p'); } else { console.log('n'); } }"

	batch := extract(t, source, lang.JavaScript, []Rule{NewControlStructureRule()})
	require.NotEmpty(t, batch.Snippets)

	for _, snippet := range batch.Snippets {
		assert.Equal(t, source[snippet.StartByte:snippet.EndByte], snippet.Content)
		assert.LessOrEqual(t, snippet.StartLine, snippet.EndLine)
		assert.GreaterOrEqual(t, snippet.StartLine, 1)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	source := `const xs = [1, 2, 3].map(v => v * 2).filter(v => v > 2);
function g(a) { if (a) { return xs; } return []; }`

	ruleSet := []Rule{
		NewControlStructureRule(),
		NewFunctionCallChainRule(),
		NewFunctionalProgrammingRule(),
	}

	first := extract(t, source, lang.JavaScript, ruleSet)
	second := extract(t, source, lang.JavaScript, ruleSet)

	require.Equal(t, len(first.Snippets), len(second.Snippets))
	for i := range first.Snippets {
		assert.Equal(t, first.Snippets[i].ID, second.Snippets[i].ID)
	}
}

func TestExtractRespectsMaxSnippets(t *testing.T) {
	var builder strings.Builder
	for i := 0; i < 20; i++ {
		builder.WriteString("if (check(a, b)) { update(a); notify(b); record(a, b); }\n")
	}

	root := parseSource(t, builder.String(), lang.JavaScript)

	batch, err := Extract(context.Background(), root, []byte(builder.String()), []Rule{NewControlStructureRule()}, Options{
		Language:    lang.JavaScript,
		Validator:   validator.New(validator.ProfileDevelopment),
		MaxSnippets: 5,
	})
	require.NoError(t, err)

	assert.Len(t, batch.Snippets, 5)
	assert.True(t, batch.Partial)
}

func TestExtractDiscardsOnCancelByDefault(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := parseSource(t, "if (a) { f(); } else { g(); }", lang.JavaScript)

	batch, err := Extract(ctx, root, []byte("if (a) { f(); } else { g(); }"), []Rule{NewControlStructureRule()}, Options{
		Language:  lang.JavaScript,
		Validator: validator.New(validator.ProfileDevelopment),
	})

	assert.Error(t, err)
	assert.Nil(t, batch)
}

func TestExtractKeepsPartialOnCancelWhenOptedIn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := parseSource(t, "if (a) { f(); }", lang.JavaScript)

	batch, err := Extract(ctx, root, []byte("if (a) { f(); }"), []Rule{NewControlStructureRule()}, Options{
		Language:    lang.JavaScript,
		Validator:   validator.New(validator.ProfileDevelopment),
		KeepPartial: true,
	})

	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.True(t, batch.Partial)
}

// panickyRule always panics in CreateSnippet, proving a rule bug is
// contained to the node while other rules keep working.
type panickyRule struct{ base }

func newPanickyRule() *panickyRule {
	return &panickyRule{base: base{
		name:        "panicky",
		snippetType: chunk.LogicBlock,
		kinds:       []string{"if_statement"},
		config:      expressionConfig(),
	}}
}

func (r *panickyRule) ShouldProcess(_ *cst.Node, _ []byte) bool { return true }

func (r *panickyRule) CreateSnippet(_ *cst.Node, _ []byte, _ int) (*chunk.Snippet, bool) {
	panic("rule bug")
}

func TestExtractContainsRulePanics(t *testing.T) {
	source := "function f(x){ if (x>0){ console.log('p'); } else { console.log('n'); } }"

	batch := extract(t, source, lang.JavaScript, []Rule{newPanickyRule(), NewControlStructureRule()})

	assert.GreaterOrEqual(t, batch.Stats.RuleErrors, 1)
	assert.NotEmpty(t, batch.Snippets)
}

func TestContextInfoResolvesParents(t *testing.T) {
	source := `class Greeter {
	greet(name) {
		if (name) {
			const message = "hi " + name;
			return message;
		}
		return "hi";
	}
}`

	batch := extract(t, source, lang.JavaScript, []Rule{NewControlStructureRule()})

	require.NotEmpty(t, batch.Snippets)

	info := batch.Snippets[0].SnippetMetadata.ContextInfo
	assert.Equal(t, "greet", info.ParentFunction)
	assert.Equal(t, "Greeter", info.ParentClass)
	assert.Greater(t, info.NestingLevel, 0)
}
