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

package parser

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horusec-io/codesnippet-engine/internal/lang"
)

func TestParseRefusesUnsupportedLanguage(t *testing.T) {
	p := New(Config{})

	result := p.Parse(context.Background(), []byte("whatever"), lang.Language("cobol"))

	assert.False(t, result.Success)
	assert.Equal(t, ErrUnsupportedLanguage, result.Err())
	assert.Nil(t, result.Root)
}

func TestParseRefusesBinaryContent(t *testing.T) {
	p := New(Config{})

	content := append([]byte("func main() {"), 0x00, 0x01, 0x02)
	result := p.Parse(context.Background(), content, lang.Go)

	assert.False(t, result.Success)
	assert.Equal(t, ErrBinaryContent, result.Err())
}

func TestParseRefusesOversizedSource(t *testing.T) {
	p := New(Config{MaxFileSize: 16})

	result := p.Parse(context.Background(), bytes.Repeat([]byte("a"), 32), lang.JavaScript)

	assert.False(t, result.Success)
	assert.Equal(t, ErrFileTooLarge, result.Err())
}

func TestParseStripsByteOrderMark(t *testing.T) {
	p := New(Config{})

	source := append([]byte{0xEF, 0xBB, 0xBF}, []byte("let a = 1;")...)
	result := p.Parse(context.Background(), source, lang.JavaScript)

	require.True(t, result.Success)
	assert.Equal(t, "let a = 1;", string(result.Root.Value()))
}

func TestParseEmptySourceSucceeds(t *testing.T) {
	p := New(Config{})

	result := p.Parse(context.Background(), []byte(""), lang.JavaScript)

	require.True(t, result.Success)
	require.NotNil(t, result.Root)
	assert.Equal(t, 0, result.Root.NamedChildCount())
}

func TestParseCachesIdenticalInput(t *testing.T) {
	p := New(Config{})
	source := []byte("function f() { return 1; }")

	first := p.Parse(context.Background(), source, lang.JavaScript)
	second := p.Parse(context.Background(), source, lang.JavaScript)

	require.True(t, first.Success)
	assert.Same(t, first, second)

	stats := p.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
}

func TestParseCacheDistinguishesLanguages(t *testing.T) {
	p := New(Config{})
	source := []byte("x = 1")

	jsResult := p.Parse(context.Background(), source, lang.JavaScript)
	pyResult := p.Parse(context.Background(), source, lang.Python)

	require.True(t, jsResult.Success)
	require.True(t, pyResult.Success)
	assert.Equal(t, uint64(0), p.CacheStats().Hits)
}

func TestClearCacheDropsEntries(t *testing.T) {
	p := New(Config{})
	source := []byte("let y = 2;")

	p.Parse(context.Background(), source, lang.JavaScript)
	p.ClearCache()
	p.Parse(context.Background(), source, lang.JavaScript)

	assert.Equal(t, uint64(0), p.CacheStats().Hits)
	assert.Equal(t, uint64(2), p.CacheStats().Misses)
}

func TestInvalidateDropsSingleEntry(t *testing.T) {
	p := New(Config{})
	kept := []byte("let kept = 1;")
	dropped := []byte("let dropped = 2;")

	p.Parse(context.Background(), kept, lang.JavaScript)
	p.Parse(context.Background(), dropped, lang.JavaScript)
	p.Invalidate(dropped, lang.JavaScript)

	p.Parse(context.Background(), kept, lang.JavaScript)
	p.Parse(context.Background(), dropped, lang.JavaScript)

	stats := p.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(3), stats.Misses)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := newResultCache(2)

	cache.put(1, &ParseResult{})
	cache.put(2, &ParseResult{})
	cache.put(3, &ParseResult{})

	_, ok := cache.get(1)
	assert.False(t, ok)

	_, ok = cache.get(3)
	assert.True(t, ok)
}

func TestParseMarkdownBuildsSyntheticTree(t *testing.T) {
	p := New(Config{})

	source := []byte("# Title\n\nSome prose here.\n\n```go\nfunc main() {}\n```\n\n<!-- a note -->\n")
	result := p.Parse(context.Background(), source, lang.Markdown)

	require.True(t, result.Success)

	headings := FindNodesByKind(result.Root, "atx_heading")
	require.Len(t, headings, 1)
	assert.Equal(t, "# Title", string(headings[0].Value()))

	fences := FindNodesByKind(result.Root, "fenced_code_block")
	require.Len(t, fences, 1)
	assert.Contains(t, string(fences[0].Value()), "func main() {}")

	comments := FindNodesByKind(result.Root, "comment")
	require.Len(t, comments, 1)
}

func TestFindNodesByKindsPreOrder(t *testing.T) {
	p := New(Config{})

	source := []byte("if (a) { f(); }\nif (b) { g(); }\n")
	result := p.Parse(context.Background(), source, lang.JavaScript)
	require.True(t, result.Success)

	found := FindNodesByKinds(result.Root, "if_statement", "call_expression")
	require.Len(t, found, 4)

	// Pre-order: the first if statement precedes its call, which precedes
	// the second if statement.
	assert.Equal(t, "if_statement", found[0].Type())
	assert.Equal(t, "call_expression", found[1].Type())
	assert.Equal(t, "if_statement", found[2].Type())
	assert.Equal(t, "call_expression", found[3].Type())

	assert.Empty(t, FindNodesByKinds(result.Root, ""))
	assert.Empty(t, FindNodesByKinds(nil, "if_statement"))
}
