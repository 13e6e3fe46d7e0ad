// Copyright 2020 ZUP IT SERVICOS EM TECNOLOGIA E INOVACAO SA
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
	"context"
	"errors"
	"fmt"
	"math"

	treesitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/horusec-io/codesnippet-engine/internal/lang"
)

// Visitor A Visitor's Visit method is invoked for each node encountered by Walk.
// If the result visitor w is not nil, Walk visits each of the children
// of node with the visitor w, followed by a call of w.Visit(nil).
type Visitor interface {
	// Visit visit node in CST
	Visit(*Node) Visitor
}

// Walk traverses an CST in depth-first order: It starts by calling
// v.Visit(node); node must not be nil. If the visitor w returned by
// v.Visit(node) is not nil, Walk is invoked recursively with visitor
// w for each of the non-nil children of node, followed by a call of
// w.Visit(nil).
func Walk(v Visitor, node *Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	for i := 0; i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		Walk(v, child)
	}

	v.Visit(nil)
}

type inspector func(*Node) bool

func (f inspector) Visit(node *Node) Visitor {
	if f(node) {
		return f
	}

	return nil
}

// Inspect traverses an CST in depth-first order: It starts by calling
// f(node); node must not be nil. If f returns true, Inspect invokes f
// recursively for each of the non-nil children of node, followed by a
// call of f(nil).
func Inspect(node *Node, f func(*Node) bool) {
	Walk(inspector(f), node)
}

// grammars maps every tree-sitter backed language tag to its grammar
// constructor. Markdown has no tree-sitter grammar in this module's
// dependency set and is handled by a separate fallback tokenizer, never
// routed through Parse.
var grammars = map[lang.Language]func() *treesitter.Language{
	lang.JavaScript: javascript.GetLanguage,
	lang.TypeScript: typescript.GetLanguage,
	lang.Python:     python.GetLanguage,
	lang.Java:       java.GetLanguage,
	lang.Go:         golang.GetLanguage,
	lang.Rust:       rust.GetLanguage,
	lang.Cpp:        cpp.GetLanguage,
	lang.C:          c.GetLanguage,
}

// Supported reports whether a tree-sitter grammar is registered for language.
func Supported(language lang.Language) bool {
	_, ok := grammars[language]
	return ok
}

// Parse parse a src into a tree and return the root node of the tree.
// The src should be a valid code.
func Parse(ctx context.Context, src []byte, language lang.Language) (*Node, error) {
	grammar, ok := grammars[language]
	if !ok {
		return nil, errors.New("unsupported language")
	}

	parser := treesitter.NewParser()
	parser.SetLanguage(grammar())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse node: %w", err)
	}

	return newNode(tree.RootNode(), src), nil
}

// Node is a wrapper around treesitter.Node that holds the source
// code used to create the initial CST.
//
// This source code is used to get the source code reprensentation
// of some node inside CST.
//
// Nodes are either backed by a tree-sitter grammar node or by a synthetic
// node built with SyntheticTree for languages without a wired grammar;
// callers never need to distinguish the two.
type Node struct {
	node *treesitter.Node
	syn  *synNode
	src  []byte
}

func newNode(node *treesitter.Node, src []byte) *Node {
	return &Node{
		node: node,
		src:  src,
	}
}

// NamedChild returns the node's *named* child at the given index.
func (n *Node) NamedChild(idx int) *Node {
	if n.syn != nil {
		return n.Child(idx)
	}

	if child := n.node.NamedChild(idx); child != nil {
		return newNode(child, n.src)
	}

	return nil
}

// NamedChildCount returns the node's number of *named* children.
func (n *Node) NamedChildCount() int {
	if n.syn != nil {
		return len(n.syn.children)
	}

	return int(n.node.NamedChildCount())
}

// Child returns the node's child (named or anonymous) at the given index.
func (n *Node) Child(idx int) *Node {
	if n.syn != nil {
		if idx < 0 || idx >= len(n.syn.children) {
			return nil
		}

		return &Node{syn: n.syn.children[idx], src: n.src}
	}

	if child := n.node.Child(idx); child != nil {
		return newNode(child, n.src)
	}

	return nil
}

// ChildCount returns the node's total number of children.
func (n *Node) ChildCount() int {
	if n.syn != nil {
		return len(n.syn.children)
	}

	return int(n.node.ChildCount())
}

// ChildByFieldName returns the node's child with the given field name.
// Synthetic nodes carry no field names and always return nil.
func (n *Node) ChildByFieldName(name string) *Node {
	if n.syn != nil {
		return nil
	}

	child := n.node.ChildByFieldName(name)
	if child != nil {
		return newNode(child, n.src)
	}

	return nil
}

// Parent returns the node's immediate Parent.
func (n *Node) Parent() *Node {
	if n.syn != nil {
		if n.syn.parent == nil {
			return nil
		}

		return &Node{syn: n.syn.parent, src: n.src}
	}

	if p := n.node.Parent(); p != nil {
		return newNode(p, n.src)
	}

	return nil
}

// Value return the bytes value of node
func (n *Node) Value() []byte {
	return n.src[n.StartByte():n.EndByte()]
}

// Type returns the node type as a string.
func (n *Node) Type() string {
	if n.syn != nil {
		return n.syn.typ
	}

	return n.node.Type()
}

// IsError Check if this node represents a syntax error.
//
// Syntax errors represent parts of the code that could not be incorporated into a
// valid syntax tree.
func (n *Node) IsError() bool {
	if n.syn != nil {
		return false
	}

	// This code is copied from Rust bindings implementation
	// https://docs.rs/tree-sitter/0.19.5/tree_sitter/struct.Node.html#method.is_error
	return n.node.Symbol() == math.MaxUint16
}

// StartByte returns the node's start byte.
func (n *Node) StartByte() uint32 {
	if n.syn != nil {
		return n.syn.startByte
	}

	return n.node.StartByte()
}

// EndByte returns the node's end byte.
func (n *Node) EndByte() uint32 {
	if n.syn != nil {
		return n.syn.endByte
	}

	return n.node.EndByte()
}

// StartPoint returns the node's start position in terms of rows and columns.
func (n *Node) StartPoint() treesitter.Point {
	if n.syn != nil {
		return n.syn.startPoint
	}

	return n.node.StartPoint()
}

// EndPoint returns the node's end position in terms of rows and columns.
func (n *Node) EndPoint() treesitter.Point {
	if n.syn != nil {
		return n.syn.endPoint
	}

	return n.node.EndPoint()
}

// String returns an S-expression representing the node as a string.
func (n *Node) String() string {
	if n.syn != nil {
		return n.syn.sexp()
	}

	return n.node.String()
}

// IterNamedChilds iterate over named childs from node
// calling fn using each named child node from iteration.
func IterNamedChilds(node *Node, fn func(node *Node)) {
	for idx := 0; idx < node.NamedChildCount(); idx++ {
		fn(node.NamedChild(idx))
	}
}
