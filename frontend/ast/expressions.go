package ast

import (
	"hash/fnv"
	"strings"
)

var (
	_ Expr = (*Ident)(nil)
	_ Expr = (*Literal)(nil)
	_ Expr = (*Parens)(nil)
	_ Expr = (*Conditional)(nil)
	_ Expr = (*Lambda)(nil)
	_ Expr = (*MethodRef)(nil)
	_ Expr = (*Call)(nil)
	_ Expr = (*New)(nil)
	_ Expr = (*Cast)(nil)
	_ Expr = (*Select)(nil)
	_ Expr = (*Binary)(nil)
	_ Expr = (*Assign)(nil)
)

// Ident names a variable, or a class when used as a qualifier
type Ident struct {
	Range
	Typed
	Name string
}

type LitKind int

const (
	LitInt LitKind = iota
	LitLong
	LitDouble
	LitChar
	LitString
	LitBool
	LitNull
)

type Literal struct {
	Range
	Typed
	LitKind LitKind
	// Value is the source text of the literal, unquoted for chars and strings
	Value string
}

type Parens struct {
	Range
	Typed
	X Expr
}

type Conditional struct {
	Range
	Typed
	Cond Expr
	Then Expr
	Else Expr
}

// LambdaParam is a lambda parameter. Type is nil for implicitly typed parameters.
type LambdaParam struct {
	Range
	Name string
	Type *TypeTree
}

type Lambda struct {
	Range
	Typed
	Params []*LambdaParam
	// Body is either an Expr or a *Block
	Body Node
}

// IsExplicit reports whether the parameter types are written in the source.
// A lambda without parameters is explicit.
func (e *Lambda) IsExplicit() bool {
	for _, p := range e.Params {
		if p.Type == nil {
			return false
		}
	}
	return true
}

// ExprBody returns the body of an expression lambda, or nil for a block lambda
func (e *Lambda) ExprBody() Expr {
	body, _ := e.Body.(Expr)
	return body
}

// MethodRef is Qualifier::Name. Name is "new" for constructor references.
type MethodRef struct {
	Range
	Typed
	Qualifier Expr
	Name      string
}

func (e *MethodRef) IsConstructor() bool { return e.Name == "new" }

// Call is a method invocation. Receiver is nil for unqualified calls.
type Call struct {
	Range
	Typed
	Receiver Expr
	Name     string
	TypeArgs []*TypeTree
	Args     []Expr
}

// New creates an instance of Class. With Diamond, the type arguments of Class are inferred.
type New struct {
	Range
	Typed
	Class   *TypeTree
	Diamond bool
	Args    []Expr
}

type Cast struct {
	Range
	Typed
	Target *TypeTree
	X      Expr
}

// Select is a field access
type Select struct {
	Range
	Typed
	X    Expr
	Name string
}

type Binary struct {
	Range
	Typed
	Op string
	X  Expr
	Y  Expr
}

type Assign struct {
	Range
	Typed
	Target Expr
	Value  Expr
}

func (e *Ident) Kind() Kind       { return KindIdent }
func (e *Literal) Kind() Kind     { return KindLiteral }
func (e *Parens) Kind() Kind      { return KindParens }
func (e *Conditional) Kind() Kind { return KindConditional }
func (e *Lambda) Kind() Kind      { return KindLambda }
func (e *MethodRef) Kind() Kind   { return KindReference }
func (e *Call) Kind() Kind        { return KindCall }
func (e *New) Kind() Kind         { return KindNew }
func (e *Cast) Kind() Kind        { return KindCast }
func (e *Select) Kind() Kind      { return KindSelect }
func (e *Binary) Kind() Kind      { return KindBinary }
func (e *Assign) Kind() Kind      { return KindAssign }

func (e *Ident) Describe() string { return "variable" }
func (e *Literal) Describe() string {
	switch e.LitKind {
	case LitNull:
		return "null"
	case LitString:
		return "string literal"
	default:
		return "literal"
	}
}
func (e *Parens) Describe() string      { return "parenthesized expression" }
func (e *Conditional) Describe() string { return "conditional expression" }
func (e *Lambda) Describe() string      { return "lambda expression" }
func (e *MethodRef) Describe() string   { return "method reference" }
func (e *Call) Describe() string        { return "method invocation" }
func (e *New) Describe() string         { return "instance creation" }
func (e *Cast) Describe() string        { return "cast" }
func (e *Select) Describe() string      { return "field access" }
func (e *Binary) Describe() string      { return "binary expression" }
func (e *Assign) Describe() string      { return "assignment" }

func nameHash(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

func (e *Ident) Hash() uint64 { return hashOf("Ident", e.Range) ^ nameHash(e.Name) }
func (e *Literal) Hash() uint64 {
	return hashOf("Literal", e.Range) ^ nameHash(e.Value) ^ uint64(e.LitKind)
}
func (e *Parens) Hash() uint64 { return hashOf("Parens", e.Range, e.X) }
func (e *Conditional) Hash() uint64 {
	return hashOf("Conditional", e.Range, e.Cond, e.Then, e.Else)
}
func (e *Lambda) Hash() uint64 {
	var names []string
	for _, p := range e.Params {
		names = append(names, p.Name)
	}
	return hashOf("Lambda", e.Range, e.Body) ^ nameHash(strings.Join(names, ","))
}
func (e *MethodRef) Hash() uint64 { return hashOf("MethodRef", e.Range, e.Qualifier) ^ nameHash(e.Name) }
func (e *Call) Hash() uint64 {
	children := append([]Node{e.Receiver}, exprNodes(e.Args)...)
	return hashOf("Call", e.Range, children...) ^ nameHash(e.Name)
}
func (e *New) Hash() uint64 {
	return hashOf("New", e.Range, append([]Node{e.Class}, exprNodes(e.Args)...)...)
}
func (e *Cast) Hash() uint64   { return hashOf("Cast", e.Range, e.Target, e.X) }
func (e *Select) Hash() uint64 { return hashOf("Select", e.Range, e.X) ^ nameHash(e.Name) }
func (e *Binary) Hash() uint64 { return hashOf("Binary", e.Range, e.X, e.Y) ^ nameHash(e.Op) }
func (e *Assign) Hash() uint64 { return hashOf("Assign", e.Range, e.Target, e.Value) }

// TypeTree is the syntax of a type: a name with type arguments and array dimensions
type TypeTree struct {
	Range
	Name string
	Args []*TypeTree
	Dims int
}

func (t *TypeTree) Kind() Kind { return KindTypeTree }
func (t *TypeTree) Hash() uint64 {
	children := make([]Node, len(t.Args))
	for i, arg := range t.Args {
		children[i] = arg
	}
	return hashOf("TypeTree", t.Range, children...) ^ nameHash(t.Name) ^ uint64(t.Dims)
}

func (t *TypeTree) String() string {
	if t == nil {
		return "var"
	}
	var sb strings.Builder
	sb.WriteString(t.Name)
	if len(t.Args) > 0 {
		sb.WriteString("<")
		for i, arg := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(arg.String())
		}
		sb.WriteString(">")
	}
	sb.WriteString(strings.Repeat("[]", t.Dims))
	return sb.String()
}

// Unparen strips any parentheses around e
func Unparen(e Expr) Expr {
	for {
		p, ok := e.(*Parens)
		if !ok {
			return e
		}
		e = p.X
	}
}
