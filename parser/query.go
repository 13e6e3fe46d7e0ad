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

import "github.com/horusec-io/codesnippet-engine/internal/cst"

// FindNodesByKind collects every node under root whose type equals kind, in
// pre-order left-to-right order.
func FindNodesByKind(root *cst.Node, kind string) []*cst.Node {
	return FindNodesByKinds(root, kind)
}

// FindNodesByKinds collects every node under root whose type is one of
// kinds, in a single pre-order traversal. Batching N kinds costs one walk,
// not N.
func FindNodesByKinds(root *cst.Node, kinds ...string) []*cst.Node {
	if root == nil || len(kinds) == 0 {
		return nil
	}

	wanted := make(map[string]struct{}, len(kinds))
	for _, kind := range kinds {
		wanted[kind] = struct{}{}
	}

	var found []*cst.Node

	cst.Inspect(root, func(node *cst.Node) bool {
		if node == nil {
			return false
		}

		if _, ok := wanted[node.Type()]; ok {
			found = append(found, node)
		}

		return true
	})

	return found
}
