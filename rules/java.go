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

	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/internal/cst"
)

var (
	streamMarker    = regexp.MustCompile(`\.stream\s*\(|\b(Stream|IntStream|LongStream|DoubleStream)\.`)
	streamCollector = regexp.MustCompile(`Collectors\.([A-Za-z]+)`)
	streamChainOp   = regexp.MustCompile(`\.\s*[A-Za-z_][A-Za-z0-9_]*\s*\(`)
)

// JavaStreamRule extracts java Stream pipelines with their collectors and
// chain depth.
type JavaStreamRule struct {
	base
}

// NewJavaStreamRule creates the rule.
func NewJavaStreamRule() *JavaStreamRule {
	return &JavaStreamRule{base: base{
		name:        "java-stream",
		snippetType: chunk.Stream,
		kinds:       []string{"method_invocation"},
		config:      expressionConfig(),
		standalone:  false,
	}}
}

// ShouldProcess keeps only the outermost invocation of a pipeline that
// actually goes through the Stream API.
func (r *JavaStreamRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	if parent := node.Parent(); parent != nil {
		if _, chained := chainParentKinds[parent.Type()]; chained {
			return false
		}
	}

	return streamMarker.MatchString(string(node.Value()))
}

// CreateSnippet builds a stream snippet with collectors and chain depth.
func (r *JavaStreamRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	snippet := r.snippet(node, nesting)

	var collectors []string
	for _, match := range streamCollector.FindAllStringSubmatch(snippet.Content, -1) {
		collectors = append(collectors, match[1])
	}

	snippet.SnippetMetadata.Stream = &chunk.JavaStreamInfo{
		Collectors: collectors,
		ChainDepth: len(streamChainOp.FindAllString(snippet.Content, -1)),
	}

	return snippet, true
}

// JavaLambdaRule extracts java lambda expressions and method references as
// functional_programming snippets.
type JavaLambdaRule struct {
	base
}

// NewJavaLambdaRule creates the rule.
func NewJavaLambdaRule() *JavaLambdaRule {
	return &JavaLambdaRule{base: base{
		name:        "java-lambda",
		snippetType: chunk.FunctionalProgramming,
		kinds:       []string{"lambda_expression", "method_reference"},
		config:      expressionConfig(),
		standalone:  false,
	}}
}

// ShouldProcess skips lambdas that are arguments of a stream pipeline,
// which the stream rule already covers.
func (r *JavaLambdaRule) ShouldProcess(node *cst.Node, _ []byte) bool {
	for parent, steps := node.Parent(), 0; parent != nil && steps < 3; parent, steps = parent.Parent(), steps+1 {
		if parent.Type() == "method_invocation" && streamMarker.MatchString(string(parent.Value())) {
			return false
		}
	}

	return true
}

// CreateSnippet builds a functional_programming snippet for the lambda.
func (r *JavaLambdaRule) CreateSnippet(node *cst.Node, _ []byte, nesting int) (*chunk.Snippet, bool) {
	snippet := r.snippet(node, nesting)
	snippet.SnippetMetadata.Functional = functionalInfo(snippet.Content)

	return snippet, true
}
