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

// goContextSpan is the largest surrounding block a concurrency match is
// widened to. Widening keeps the channel declarations that a bare
// go-statement text would miss; past this size the block stops being one
// coherent snippet.
const goContextSpan = 300

var (
	goStatement   = regexp.MustCompile(`\bgo\s+(func\b|[A-Za-z_])`)
	chanElemType  = regexp.MustCompile(`chan\s+([A-Za-z_][A-Za-z0-9_.\[\]]*)`)
	interfaceName = regexp.MustCompile(`type\s+([A-Za-z_][A-Za-z0-9_]*)\s+interface`)
	methodSig     = regexp.MustCompile(`(?m)^\s*([A-Za-z_][A-Za-z0-9_]*\s*\([^)]*\)[^\n{]*)$`)
	embeddedIface = regexp.MustCompile(`(?m)^\s*([A-Z][A-Za-z0-9_.]*)\s*$`)

	goExpandableParents = kindSet([]string{"block", "source_file", "function_body"})
)

// GoGoroutineRule extracts goroutine launches, channel operations, and
// select statements, widened to their surrounding statement block so the
// snippet includes the channel setup the goroutine communicates over.
type GoGoroutineRule struct {
	base
}

// NewGoGoroutineRule creates the rule.
func NewGoGoroutineRule() *GoGoroutineRule {
	return &GoGoroutineRule{base: base{
		name:        "go-goroutine",
		snippetType: chunk.Goroutine,
		kinds: []string{
			"go_statement",
			"send_statement",
			"select_statement",
			"channel_type",
		},
		config:     expressionConfig(),
		standalone: true,
	}}
}

// ShouldProcess accepts every matched node; near-duplicate matches inside
// one widened block collapse during dedup because they share a span.
func (r *GoGoroutineRule) ShouldProcess(_ *cst.Node, _ []byte) bool {
	return true
}

// CreateSnippet builds a goroutine snippet with the concurrency profile of
// the widened span.
func (r *GoGoroutineRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	span := widenToBlock(node)
	snippet := r.snippetForSpan(node, span, nesting)
	snippet.SnippetMetadata.GoConcurrency = goConcurrencyInfo(snippet.Content)

	return snippet, true
}

// widenToBlock returns the enclosing block when it is small enough to serve
// as snippet context, otherwise the node itself.
func widenToBlock(node *cst.Node) *cst.Node {
	parent := node.Parent()
	for steps := 0; parent != nil && steps < 3; steps++ {
		if _, ok := goExpandableParents[parent.Type()]; ok {
			if int(parent.EndByte()-parent.StartByte()) <= goContextSpan {
				return parent
			}

			break
		}

		parent = parent.Parent()
	}

	return node
}

func goConcurrencyInfo(content string) *chunk.GoConcurrencyInfo {
	info := &chunk.GoConcurrencyInfo{
		Goroutines:    len(goStatement.FindAllString(content, -1)),
		UsesSelect:    strings.Contains(content, "select"),
		UsesWaitGroup: strings.Contains(content, "sync.WaitGroup") || strings.Contains(content, "wg."),
		UsesMutex:     strings.Contains(content, "sync.Mutex") || strings.Contains(content, ".Lock()"),
	}

	seen := make(map[string]struct{})
	for _, match := range chanElemType.FindAllStringSubmatch(content, -1) {
		if _, dup := seen[match[1]]; !dup {
			seen[match[1]] = struct{}{}
			info.Channels = append(info.Channels, match[1])
		}
	}

	info.Purpose = goPurpose(info)

	return info
}

func goPurpose(info *chunk.GoConcurrencyInfo) string {
	switch {
	case info.Goroutines > 0 && len(info.Channels) > 0:
		return "concurrent_processing_with_communication"
	case info.Goroutines > 0 && info.UsesWaitGroup:
		return "parallel_fan_out"
	case info.Goroutines > 0:
		return "concurrent_processing"
	case info.UsesSelect:
		return "channel_multiplexing"
	case len(info.Channels) > 0:
		return "channel_communication"
	default:
		return "synchronization"
	}
}

// GoInterfaceRule extracts go interface and struct type declarations plus
// method implementations, with the interface surface described in the
// snippet metadata.
type GoInterfaceRule struct {
	base
}

// NewGoInterfaceRule creates the rule.
func NewGoInterfaceRule() *GoInterfaceRule {
	config := DefaultConfig()
	config.MinComplexity = 1
	config.MaxLines = 100

	return &GoInterfaceRule{base: base{
		name:        "go-interface",
		snippetType: chunk.Interface,
		kinds: []string{
			"interface_type",
			"struct_type",
			"method_declaration",
		},
		config:     config,
		standalone: true,
	}}
}

// ShouldProcess drops empty interface and struct bodies.
func (r *GoInterfaceRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	if node.Type() == "method_declaration" {
		return true
	}

	// A struct_type always holds its field_declaration_list, so the fields
	// are counted on that list.
	body := node
	if node.Type() == "struct_type" {
		if fields := node.NamedChild(0); fields != nil {
			body = fields
		}
	}

	return body.NamedChildCount() > 0
}

// CreateSnippet widens interface_type/struct_type to the enclosing type
// declaration so the snippet carries the type's name.
func (r *GoInterfaceRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	span := node

	if node.Type() != "method_declaration" {
		for parent, steps := node.Parent(), 0; parent != nil && steps < 2; parent, steps = parent.Parent(), steps+1 {
			if parent.Type() == "type_declaration" || parent.Type() == "type_spec" {
				span = parent
			}
		}
	}

	snippet := r.snippetForSpan(node, span, nesting)
	snippet.SnippetMetadata.GoInterface = goInterfaceInfo(snippet.Content, node.Type())

	return snippet, true
}

func goInterfaceInfo(content, kind string) *chunk.GoInterfaceInfo {
	info := &chunk.GoInterfaceInfo{}

	for _, match := range interfaceName.FindAllStringSubmatch(content, -1) {
		info.Interfaces = append(info.Interfaces, match[1])
	}

	if body, ok := interfaceBody(content); ok {
		for _, match := range methodSig.FindAllStringSubmatch(body, -1) {
			info.MethodSignatures = append(info.MethodSignatures, strings.TrimSpace(match[1]))
		}

		for _, match := range embeddedIface.FindAllStringSubmatch(body, -1) {
			info.Embedded = append(info.Embedded, match[1])
		}
	}

	switch {
	case kind == "method_declaration":
		info.Purpose = "method_implementation"
	case len(info.Interfaces) > 0:
		info.Purpose = "contract_definition"
	default:
		info.Purpose = "data_modeling"
	}

	return info
}

// interfaceBody returns the text between the interface's braces.
func interfaceBody(content string) (string, bool) {
	open := strings.Index(content, "interface")
	if open < 0 {
		return "", false
	}

	braceOpen := strings.Index(content[open:], "{")
	if braceOpen < 0 {
		return "", false
	}

	start := open + braceOpen + 1
	end := strings.LastIndex(content, "}")
	if end <= start {
		return "", false
	}

	return content[start:end], true
}
