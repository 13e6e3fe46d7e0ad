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

package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/horusec-io/codesnippet-engine/internal/lang"
)

func TestComplexity(t *testing.T) {
	testcases := []struct {
		name    string
		content string
		min     int
	}{
		{
			name:    "plain expression never drops below one",
			content: "x",
			min:     1,
		},
		{
			name:    "if else with calls",
			content: "if (x>0){ console.log('p'); } else { console.log('n'); }",
			min:     2,
		},
		{
			name:    "logical operators count",
			content: "if (a && b || c) { return a }",
			min:     3,
		},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			assert.GreaterOrEqual(t, Complexity(tt.content), tt.min)
		})
	}
}

func TestComplexityIsDeterministic(t *testing.T) {
	content := "for (let i = 0; i < n; i++) { acc += f(i) && g(i); }"

	assert.Equal(t, Complexity(content), Complexity(content))
}

func TestHasSideEffects(t *testing.T) {
	testcases := []struct {
		name    string
		content string
		want    bool
	}{
		{name: "increment", content: "counter++", want: true},
		{name: "throw", content: "throw new Error('boom')", want: true},
		{name: "property assignment", content: "obj.total = 10", want: true},
		{name: "console write", content: "console.log(x)", want: true},
		{name: "bare reassign", content: "total = total + x", want: true},
		{name: "pure math call", content: "Math.max(a, b)", want: false},
		{name: "pure map chain", content: "xs.map(f).filter(g)", want: false},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasSideEffects(tt.content))
		})
	}
}

func TestLanguageFeatures(t *testing.T) {
	features := LanguageFeatures("async function f(){ const {a, ...rest} = await g(); return `v=${a}`; }")

	assert.True(t, features.UsesAsync)
	assert.True(t, features.UsesDestructuring)
	assert.True(t, features.UsesSpread)
	assert.True(t, features.UsesTemplateLiterals)
	assert.False(t, features.UsesGenerators)
}

func TestStripComments(t *testing.T) {
	stripped := StripComments("// leading\nlet a = 1; /* block */ let b = 2; # py style\n")

	assert.Contains(t, stripped, "let a = 1;")
	assert.Contains(t, stripped, "let b = 2;")
	assert.NotContains(t, stripped, "leading")
	assert.NotContains(t, stripped, "block")
	assert.NotContains(t, stripped, "py style")
}

func TestIsCommentOnly(t *testing.T) {
	assert.True(t, IsCommentOnly("// one\n// two\n/* three */"))
	assert.True(t, IsCommentOnly("# just a note"))
	assert.False(t, IsCommentOnly("// note\nreturn 1"))
}

func TestHasMeaningfulLogic(t *testing.T) {
	assert.True(t, HasMeaningfulLogic("x := <-ch", lang.Go))
	assert.True(t, HasMeaningfulLogic("total = sum(xs)", lang.Python))
	assert.False(t, HasMeaningfulLogic("// only a comment", lang.JavaScript))
}

func TestUniqueTokens(t *testing.T) {
	assert.GreaterOrEqual(t, UniqueTokens("if (a > b) { return a; }"), 6)
	assert.Equal(t, 1, UniqueTokens("aaa aaa aaa"))
}

func TestNonTrivialChars(t *testing.T) {
	assert.Equal(t, 0, NonTrivialChars("{ } [ ] ( )"))
	assert.Equal(t, 3, NonTrivialChars("{a b c}"))
}

func TestCountNonBlankLines(t *testing.T) {
	assert.Equal(t, 2, CountNonBlankLines("a\n\n  \nb"))
}
