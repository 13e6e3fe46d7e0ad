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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horusec-io/codesnippet-engine/internal/cst"
	"github.com/horusec-io/codesnippet-engine/internal/lang"
	"github.com/horusec-io/codesnippet-engine/rules"
	"github.com/horusec-io/codesnippet-engine/validator"
)

const asyncRuleSource = `rule "AsyncFns" {
  description: "matches async functions"
  target: "function_declaration"
  condition { contentPattern: "async"
              complexity: greaterThan(5) }
  action { type: extract
           parameters: { includeComments: true } }
}`

func TestParseRuleDeclaration(t *testing.T) {
	decl, err := Parse(asyncRuleSource)
	require.NoError(t, err)

	assert.Equal(t, "AsyncFns", decl.Name)
	assert.Equal(t, "matches async functions", decl.Description)
	assert.Equal(t, "function_declaration", decl.Target)
	require.Len(t, decl.Conditions, 2)
	require.Len(t, decl.Actions, 1)

	assert.Equal(t, "contentPattern", decl.Conditions[0].Key)
	assert.Equal(t, "equals", decl.Conditions[0].Value.operator())
	assert.Equal(t, "greaterThan", decl.Conditions[1].Value.operator())
	assert.Equal(t, "extract", decl.Actions[0].Type)
	require.Len(t, decl.Actions[0].Parameters, 1)
	assert.Equal(t, true, decl.Actions[0].Parameters[0].paramValue())
}

func TestParseKeywordsAreCaseInsensitive(t *testing.T) {
	source := `RULE "Loud" {
  DESCRIPTION: "upper case keywords"
  TARGET: "if_statement"
  CONDITION { contentPattern: "if" }
  ACTION { TYPE: extract }
}`

	decl, err := Parse(source)
	require.NoError(t, err)
	assert.Equal(t, "Loud", decl.Name)
}

func TestParseReportsSyntaxErrors(t *testing.T) {
	testcases := []struct {
		name   string
		source string
	}{
		{name: "unterminated string", source: `rule "Broken { target: "x" }`},
		{name: "unexpected char", source: `rule "X" { target: "y" % }`},
		{name: "missing action", source: `rule "X" { target: "t" condition { nodeType: "a" } }`},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.source)
			require.Error(t, err)

			_, ok := err.(*SyntaxError)
			assert.True(t, ok)
		})
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	def := &Definition{
		Conditions: []StoredCondition{
			{Type: "bogus", Operator: "almost", Value: ""},
		},
	}

	result := Validate(def)

	assert.False(t, result.Valid)
	// name, target, no actions, bad condition type, bad operator, empty value
	assert.GreaterOrEqual(t, len(result.Errors), 5)
}

func TestValidateWarnsOnMissingDescription(t *testing.T) {
	def := &Definition{
		ID:      "r-1",
		Name:    "R",
		Target:  "if_statement",
		Actions: []StoredAction{{Type: ActionExtract}},
	}

	result := Validate(def)

	assert.True(t, result.Valid)
	assert.NotEmpty(t, result.Warnings)
}

func parseJS(t *testing.T, source string) *cst.Node {
	t.Helper()

	root, err := cst.Parse(context.Background(), []byte(source), lang.JavaScript)
	require.NoError(t, err)

	return root
}

func TestCompiledRuleMatchesAsyncFunction(t *testing.T) {
	compiled, err := CompileSource(asyncRuleSource, nil)
	require.NoError(t, err)

	source := `async function load(a, b) {
  if (a > 0 && b > 0) {
    const r = await fetch(a);
    return r;
  }
  return b;
}`

	batch, err := rules.Extract(context.Background(), parseJS(t, source), []byte(source),
		[]rules.Rule{compiled}, rules.Options{
			Language:  lang.JavaScript,
			Validator: validator.New(validator.ProfileDevelopment),
		})
	require.NoError(t, err)

	assert.Len(t, batch.Snippets, 1)
}

func TestCompiledRuleSkipsSyncFunction(t *testing.T) {
	compiled, err := CompileSource(asyncRuleSource, nil)
	require.NoError(t, err)

	source := `function plain(a) { return a; }`

	batch, err := rules.Extract(context.Background(), parseJS(t, source), []byte(source),
		[]rules.Rule{compiled}, rules.Options{
			Language:  lang.JavaScript,
			Validator: validator.New(validator.ProfileDevelopment),
		})
	require.NoError(t, err)

	assert.Empty(t, batch.Snippets)
}

func TestCompiledRuleEmitsDiagnostics(t *testing.T) {
	source := `rule "FlagIfs" {
  description: "reports every if"
  target: "if_statement"
  condition { nodeType: "if_statement" }
  action { type: report }
}`

	var diagnostics []Diagnostic
	compiled, err := CompileSource(source, func(d Diagnostic) { diagnostics = append(diagnostics, d) })
	require.NoError(t, err)

	js := "if (a > 0) { handle(a); notify(a); record(a); }"

	batch, err := rules.Extract(context.Background(), parseJS(t, js), []byte(js),
		[]rules.Rule{compiled}, rules.Options{
			Language:  lang.JavaScript,
			Validator: validator.New(validator.ProfileDevelopment),
		})
	require.NoError(t, err)

	// report actions are diagnostics only, never snippets
	assert.Empty(t, batch.Snippets)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, "report", diagnostics[0].Action)
	assert.Equal(t, "if_statement", diagnostics[0].NodeKind)
	assert.Equal(t, 1, diagnostics[0].Line)
}

func TestCompileRejectsInvalidDefinition(t *testing.T) {
	_, err := Compile(&Definition{Name: "x"}, nil)

	require.Error(t, err)

	_, ok := err.(*SemanticError)
	assert.True(t, ok)
}

func TestRuleIDIsStable(t *testing.T) {
	assert.Equal(t, ruleID("AsyncFns"), ruleID("AsyncFns"))
	assert.NotEqual(t, ruleID("AsyncFns"), ruleID("SyncFns"))
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	decl, err := Parse(asyncRuleSource)
	require.NoError(t, err)

	def := ToDefinition(decl)
	require.NoError(t, store.Save(def))
	assert.Equal(t, "1.0.0", def.Version)

	loaded, err := store.Load(def.ID)
	require.NoError(t, err)
	assert.Equal(t, def.Name, loaded.Name)
	assert.Equal(t, def.Conditions, loaded.Conditions)
}

func TestStoreBumpsPatchVersionOnUpdate(t *testing.T) {
	store := NewStore(t.TempDir())

	decl, err := Parse(asyncRuleSource)
	require.NoError(t, err)

	def := ToDefinition(decl)
	require.NoError(t, store.Save(def))

	def.Description = "updated"
	require.NoError(t, store.Save(def))
	assert.Equal(t, "1.0.1", def.Version)

	// The previous version stays on disk as a historical copy.
	history, err := store.Load(def.ID + "_v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", history.Version)
}

func TestStoreListSkipsHistoricalCopies(t *testing.T) {
	store := NewStore(t.TempDir())

	decl, err := Parse(asyncRuleSource)
	require.NoError(t, err)

	def := ToDefinition(decl)
	require.NoError(t, store.Save(def))
	def.Description = "updated"
	require.NoError(t, store.Save(def))

	defs, err := store.List()
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "1.0.1", defs[0].Version)
}

func TestStoreExportImport(t *testing.T) {
	store := NewStore(t.TempDir())

	decl, err := Parse(asyncRuleSource)
	require.NoError(t, err)
	require.NoError(t, store.Save(ToDefinition(decl)))

	exported, err := store.Export(ToDefinition(decl).ID)
	require.NoError(t, err)

	other := NewStore(t.TempDir())
	imported, err := other.Import(exported)
	require.NoError(t, err)
	assert.Equal(t, "AsyncFns", imported.Name)
}

func TestStoreImportRejectsInvalidDocument(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Import([]byte(`{"name": "", "target": ""}`))

	require.Error(t, err)
}
