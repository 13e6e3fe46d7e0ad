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

var (
	chainedCall  = regexp.MustCompile(`\.\s*[A-Za-z_][A-Za-z0-9_]*\s*\(`)
	callbackArg  = regexp.MustCompile(`\(\s*[A-Za-z_][A-Za-z0-9_]*\s*=>|\(\s*\([^)]*\)\s*=>|\bfunction\s*\(|\blambda\b`)
	asyncMarker  = regexp.MustCompile(`\b(await|async)\b|\bPromise\b|\.then\s*\(`)
	complexArgs  = regexp.MustCompile(`\([^)]*[({\[][^)]*\)`)
	callNodeKind = kindSet([]string{"call_expression", "call", "method_invocation"})

	// Node kinds a call may hang off without being the outermost link of
	// its chain.
	chainParentKinds = kindSet([]string{
		"member_expression",
		"attribute",
		"selector_expression",
		"field_expression",
		"call_expression",
		"call",
		"method_invocation",
		"expression_statement",
	})
)

// FunctionCallChainRule extracts call chains, async calls, and callback
// invocations. Only the outermost link of a chain emits, so one fluent
// chain produces one snippet rather than one per link.
type FunctionCallChainRule struct {
	base
}

// NewFunctionCallChainRule creates the rule with the relaxed expression
// complexity floor.
func NewFunctionCallChainRule() *FunctionCallChainRule {
	return &FunctionCallChainRule{base: base{
		name:        "function-call-chain",
		snippetType: chunk.FunctionCallChain,
		kinds: []string{
			"call_expression",
			"call",
			"method_invocation",
			"expression_statement",
		},
		config:     expressionConfig(),
		standalone: false,
	}}
}

// ShouldProcess keeps only outermost calls whose content shows a chain, a
// callback, async usage, or structurally complex arguments.
func (r *FunctionCallChainRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	kind := node.Type()

	if kind == "expression_statement" {
		child := node.NamedChild(0)
		if child == nil {
			return false
		}

		if _, isCall := callNodeKind[child.Type()]; !isCall {
			return false
		}
	} else if parent := node.Parent(); parent != nil {
		if _, chained := chainParentKinds[parent.Type()]; chained {
			return false
		}
	}

	content := string(node.Value())

	return chainLength(content) > 1 ||
		complexArgs.MatchString(content) ||
		asyncMarker.MatchString(content) ||
		callbackArg.MatchString(content)
}

// CreateSnippet builds a function_call_chain snippet with the chain
// classification attached.
func (r *FunctionCallChainRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	snippet := r.snippet(node, nesting)

	info := &chunk.CallChainInfo{
		ChainLength:  chainLength(snippet.Content),
		HasAsync:     asyncMarker.MatchString(snippet.Content),
		HasCallbacks: callbackArg.MatchString(snippet.Content),
	}
	info.CallType = classifyCall(info)

	snippet.SnippetMetadata.CallChain = info

	return snippet, true
}

// chainLength counts the dotted calls in a chain. A plain f(x) is length 1.
func chainLength(content string) int {
	dotted := len(chainedCall.FindAllString(content, -1))
	if dotted > 0 {
		return dotted
	}

	if strings.Contains(content, "(") {
		return 1
	}

	return 0
}

func classifyCall(info *chunk.CallChainInfo) chunk.CallType {
	switch {
	case info.HasCallbacks:
		return chunk.CallCallbackBased
	case info.HasAsync:
		return chunk.CallAsync
	case info.ChainLength > 1:
		return chunk.CallChained
	default:
		return chunk.CallSimple
	}
}
