package ast

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/cottand/polyinfer/frontend/types"
)

// Kind identifies the syntactic form of a Node, so that analyses can filter
// which nodes they descend into without a full type switch
type Kind int

const (
	KindIdent Kind = iota
	KindLiteral
	KindParens
	KindConditional
	KindLambda
	KindReference
	KindCall
	KindNew
	KindCast
	KindSelect
	KindBinary
	KindAssign

	KindBlock
	KindReturn
	KindExprStmt
	KindLocalVar
	KindIf
	KindWhile
	KindDoLoop
	KindFor
	KindForEach
	KindSwitch
	KindCase
	KindTry
	KindCatch
	KindSynchronized
	KindThrow
	KindClassDecl

	KindTypeTree
)

// Node is the base interface for all AST nodes.
type Node interface {
	Positioner
	Kind() Kind
	Hash() uint64
}

// Expr is the interface for all expression nodes.
//
// The following expressions are supported:
//
//	Ident:        variable or class name
//	Literal:      int, long, double, char, string, boolean and null literals
//	Parens:       parenthesized expression
//	Conditional:  cond ? a : b
//	Lambda:       (params) -> body
//	MethodRef:    qualifier::name
//	Call:         method invocation, possibly with explicit type arguments
//	New:          instance creation, possibly with the diamond
//	Cast:         (T) expr
//	Select:       field access
//	Binary:       a op b
//	Assign:       a = b
//
// Every expression has a slot for its attributed type, None until attributed.
type Expr interface {
	Node
	// Describe is what to call this expression in error messages
	Describe() string
	Type() types.Type
	SetType(types.Type)
	exprNode()
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Typed holds the attributed type of an expression
type Typed struct {
	typ types.Type
}

func (t *Typed) Type() types.Type {
	if t.typ == nil {
		return types.None
	}
	return t.typ
}

func (t *Typed) SetType(typ types.Type) { t.typ = typ }

func (t *Typed) exprNode() {}

// hashOf combines a node name, its range and its children's hashes
func hashOf(name string, r Range, children ...Node) uint64 {
	h := fnv.New64a()
	arr := []byte(name)
	arr = binary.LittleEndian.AppendUint64(arr, r.Hash())
	for _, child := range children {
		if child != nil && !isNilNode(child) {
			arr = binary.LittleEndian.AppendUint64(arr, child.Hash())
		}
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

func isNilNode(n Node) bool {
	switch n := n.(type) {
	case *Block:
		return n == nil
	case *TypeTree:
		return n == nil
	}
	return false
}

func exprNodes[E Expr](exprs []E) []Node {
	nodes := make([]Node, len(exprs))
	for i, e := range exprs {
		nodes[i] = e
	}
	return nodes
}

func stmtNodes(stmts []Stmt) []Node {
	nodes := make([]Node, len(stmts))
	for i, s := range stmts {
		nodes[i] = s
	}
	return nodes
}
