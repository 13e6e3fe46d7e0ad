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

package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/internal/lang"
)

func snippet(snippetType chunk.SnippetType, content string) *chunk.Snippet {
	return &chunk.Snippet{
		Chunk: chunk.Chunk{
			Content:   content,
			StartLine: 1,
			EndLine:   1 + strings.Count(content, "\n"),
			Metadata:  chunk.Metadata{Language: lang.JavaScript},
		},
		SnippetMetadata: chunk.SnippetMetadata{Kind: snippetType},
	}
}

func TestCheckSizeBounds(t *testing.T) {
	v := New(ProfileDevelopment)

	testcases := []struct {
		name    string
		content string
		valid   bool
	}{
		{name: "below minimum", content: "x=1", valid: false},
		{name: "above maximum", content: strings.Repeat("a = a + 1;\n", 200), valid: false},
		{name: "inside bounds", content: "let total = a + b;", valid: true},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := v.Check(snippet(chunk.LogicBlock, tt.content))
			assert.Equal(t, tt.valid, ok, reason)
		})
	}
}

func TestCheckRejectsTrivialContent(t *testing.T) {
	v := New(ProfileDevelopment)

	ok, reason := v.Check(snippet(chunk.LogicBlock, "{ [ ( ) ] }"))

	assert.False(t, ok)
	assert.Contains(t, reason, "brackets")
}

func TestCheckRejectsCommentOnly(t *testing.T) {
	v := New(ProfileDevelopment)

	ok, reason := v.Check(snippet(chunk.LogicBlock, "// first comment\n// second comment"))

	assert.False(t, ok)
	assert.Contains(t, reason, "comments")
}

func TestCheckControlStructureShape(t *testing.T) {
	v := New(ProfileDevelopment)

	testcases := []struct {
		name    string
		content string
		valid   bool
	}{
		{
			name:    "if with body",
			content: "if (x > 0) { handle(x); }",
			valid:   true,
		},
		{
			name:    "no control keyword",
			content: "let a = compute(b);",
			valid:   false,
		},
		{
			name:    "empty body after comment strip",
			content: "if (x > 0) { /* nothing yet */ }",
			valid:   false,
		},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := v.Check(snippet(chunk.ControlStructure, tt.content))
			assert.Equal(t, tt.valid, ok, reason)
		})
	}
}

func TestCheckErrorHandlingShape(t *testing.T) {
	v := New(ProfileDevelopment)

	ok, _ := v.Check(snippet(chunk.ErrorHandling, "try { run(); } catch (e) { report(e); }"))
	assert.True(t, ok)

	ok, reason := v.Check(snippet(chunk.ErrorHandling, "let result = run();"))
	assert.False(t, ok)
	assert.Contains(t, reason, "try")
}

func TestProductionProfileIsStricter(t *testing.T) {
	short := snippet(chunk.LogicBlock, "go run()")

	okDev, _ := New(ProfileDevelopment).Check(short)
	okProd, reason := New(ProfileProduction).Check(short)

	assert.True(t, okDev)
	assert.False(t, okProd)
	assert.NotEmpty(t, reason)
}

func TestProductionAcceptsSubstantialSnippet(t *testing.T) {
	content := "if (items.length > 0) {\n  const total = items.reduce(sum, 0);\n  render(total);\n}"

	ok, reason := New(ProfileProduction).Check(snippet(chunk.ControlStructure, content))

	assert.True(t, ok, reason)
}

func TestProfileString(t *testing.T) {
	assert.Equal(t, "production", ProfileProduction.String())
	assert.Equal(t, "development", ProfileDevelopment.String())
}
