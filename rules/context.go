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
	"github.com/horusec-io/codesnippet-engine/chunk"
	"github.com/horusec-io/codesnippet-engine/internal/cst"
)

// maxParentSteps bounds the upward walk when resolving enclosing
// function/class names, so pathological parent chains can't stall a pass.
const maxParentSteps = 50

// Enclosing-scope node kinds across all wired grammars. The first match
// walking upward wins.
var (
	enclosingFunctionKinds = kindSet([]string{
		"function_declaration",
		"function_definition",
		"function_expression",
		"function",
		"function_item",
		"method_definition",
		"method_declaration",
		"arrow_function",
		"func_literal",
		"lambda",
		"lambda_expression",
		"closure_expression",
	})

	enclosingClassKinds = kindSet([]string{
		"class_declaration",
		"class_definition",
		"class_specifier",
		"struct_specifier",
		"struct_item",
		"trait_item",
		"impl_item",
		"interface_declaration",
		"enum_declaration",
	})
)

// contextInfo resolves the nesting level plus the names of the nearest
// enclosing function and class by walking parent pointers upward, bounded
// to maxParentSteps.
func contextInfo(node *cst.Node, nesting int) chunk.ContextInfo {
	info := chunk.ContextInfo{NestingLevel: nesting}

	current := node.Parent()
	for steps := 0; current != nil && steps < maxParentSteps; steps++ {
		kind := current.Type()

		if _, ok := enclosingFunctionKinds[kind]; ok && info.ParentFunction == "" {
			info.ParentFunction = nodeName(current)
		}

		if _, ok := enclosingClassKinds[kind]; ok && info.ParentClass == "" {
			info.ParentClass = nodeName(current)
		}

		if info.ParentFunction != "" && info.ParentClass != "" {
			break
		}

		current = current.Parent()
	}

	return info
}

// nodeName extracts the declared name of a definition node via its grammar
// "name" field, falling back to an anonymous marker.
func nodeName(node *cst.Node) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return string(name.Value())
	}

	return "<anonymous>"
}
