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

package cst

import (
	"fmt"
	"strings"

	treesitter "github.com/smacker/go-tree-sitter"
)

// synNode backs Node values for languages that have no tree-sitter grammar
// wired (markdown). It carries the same positional data a grammar-produced
// node would, so the rest of the engine never needs to know which parser
// produced the tree.
type synNode struct {
	typ        string
	startByte  uint32
	endByte    uint32
	startPoint treesitter.Point
	endPoint   treesitter.Point
	children   []*synNode
	parent     *synNode
}

// SyntheticTree incrementally builds a Node tree without a grammar. The zero
// value is not usable; create one with NewSyntheticTree.
type SyntheticTree struct {
	src  []byte
	root *synNode
}

// NewSyntheticTree creates a builder whose root node spans the whole source
// and has the given type.
func NewSyntheticTree(rootType string, src []byte) *SyntheticTree {
	endPoint := pointAt(src, uint32(len(src)))

	return &SyntheticTree{
		src: src,
		root: &synNode{
			typ:      rootType,
			endByte:  uint32(len(src)),
			endPoint: endPoint,
		},
	}
}

// AddChild appends a child node spanning [startByte, endByte) to parent, or
// to the root when parent is nil or not synthetic, and returns it so callers
// can nest further children under it.
func (t *SyntheticTree) AddChild(parent *Node, typ string, startByte, endByte uint32) *Node {
	parentSyn := t.root
	if parent != nil && parent.syn != nil {
		parentSyn = parent.syn
	}

	child := &synNode{
		typ:        typ,
		startByte:  startByte,
		endByte:    endByte,
		startPoint: pointAt(t.src, startByte),
		endPoint:   pointAt(t.src, endByte),
		parent:     parentSyn,
	}
	parentSyn.children = append(parentSyn.children, child)

	return &Node{syn: child, src: t.src}
}

// Root returns the root of the built tree as a regular Node.
func (t *SyntheticTree) Root() *Node {
	return &Node{syn: t.root, src: t.src}
}

// pointAt converts a byte offset into a (row, column) point by counting
// newlines up to the offset.
func pointAt(src []byte, offset uint32) treesitter.Point {
	var point treesitter.Point

	for i := uint32(0); i < offset && int(i) < len(src); i++ {
		if src[i] == '\n' {
			point.Row++
			point.Column = 0
		} else {
			point.Column++
		}
	}

	return point
}

func (n *synNode) sexp() string {
	if len(n.children) == 0 {
		return fmt.Sprintf("(%s)", n.typ)
	}

	parts := make([]string, 0, len(n.children))
	for _, child := range n.children {
		parts = append(parts, child.sexp())
	}

	return fmt.Sprintf("(%s %s)", n.typ, strings.Join(parts, " "))
}
