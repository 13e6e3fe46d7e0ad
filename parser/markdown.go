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
	"strings"

	"github.com/horusec-io/codesnippet-engine/internal/cst"
)

// parseMarkdown builds a shallow synthetic tree for markdown sources, which
// have no tree-sitter grammar in this module's dependency set. Node type
// names follow the tree-sitter-markdown grammar (document, atx_heading,
// fenced_code_block, info_string, code_fence_content, paragraph, comment)
// so rules that match by kind work the same on both kinds of trees.
func parseMarkdown(src []byte) *cst.Node {
	tree := cst.NewSyntheticTree("document", src)

	lines := splitLinesKeepOffsets(src)

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(string(src[line.start:line.end]))

		switch {
		case strings.HasPrefix(trimmed, "```"):
			i = addFencedBlock(tree, src, lines, i)
		case strings.HasPrefix(trimmed, "<!--"):
			i = addHTMLComment(tree, src, lines, i)
		case strings.HasPrefix(trimmed, "#"):
			tree.AddChild(nil, "atx_heading", line.start, line.end)
		case trimmed != "":
			i = addParagraph(tree, src, lines, i)
		}
	}

	return tree.Root()
}

type lineSpan struct {
	start uint32
	end   uint32 // exclusive, not counting the newline itself
}

func splitLinesKeepOffsets(src []byte) []lineSpan {
	var (
		spans []lineSpan
		start uint32
	)

	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			spans = append(spans, lineSpan{start: start, end: uint32(i)})
			start = uint32(i + 1)
		}
	}

	if int(start) < len(src) {
		spans = append(spans, lineSpan{start: start, end: uint32(len(src))})
	}

	return spans
}

// addFencedBlock consumes a ``` fence starting at line index i and returns
// the index of the closing fence line (or the last line when unterminated).
func addFencedBlock(tree *cst.SyntheticTree, src []byte, lines []lineSpan, i int) int {
	open := lines[i]
	end := i

	for j := i + 1; j < len(lines); j++ {
		if strings.HasPrefix(strings.TrimSpace(string(src[lines[j].start:lines[j].end])), "```") {
			end = j
			break
		}

		end = j
	}

	block := tree.AddChild(nil, "fenced_code_block", open.start, lines[end].end)

	info := bytes.TrimSpace(bytes.TrimPrefix(src[open.start:open.end], []byte("```")))
	if len(info) > 0 {
		infoStart := open.start + uint32(bytes.Index(src[open.start:open.end], info))
		tree.AddChild(block, "info_string", infoStart, infoStart+uint32(len(info)))
	}

	if end > i+1 {
		tree.AddChild(block, "code_fence_content", lines[i+1].start, lines[end-1].end)
	}

	return end
}

func addHTMLComment(tree *cst.SyntheticTree, src []byte, lines []lineSpan, i int) int {
	end := i

	for j := i; j < len(lines); j++ {
		end = j

		if bytes.Contains(src[lines[j].start:lines[j].end], []byte("-->")) {
			break
		}
	}

	tree.AddChild(nil, "comment", lines[i].start, lines[end].end)

	return end
}

func addParagraph(tree *cst.SyntheticTree, src []byte, lines []lineSpan, i int) int {
	end := i

	for j := i; j < len(lines); j++ {
		text := strings.TrimSpace(string(src[lines[j].start:lines[j].end]))
		if text == "" || strings.HasPrefix(text, "```") || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "<!--") {
			break
		}

		end = j
	}

	tree.AddChild(nil, "paragraph", lines[i].start, lines[end].end)

	return end
}
