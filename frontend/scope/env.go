// Package scope holds the lexical environment expressions are attributed in.
package scope

import (
	"fmt"
	"log/slog"

	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/types"
	"github.com/cottand/polyinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "scope")

// Var is a local variable or parameter
type Var struct {
	Name  string
	Type  types.Type
	Final bool
	Pos   ast.Range
}

func (v *Var) String() string { return fmt.Sprintf("%s %s", v.Type, v.Name) }

// Env is the environment of one tree: the variables declared so far, the
// classes visible through Arena, and the chain of enclosing trees.
//
// An Env is never modified once a nested Env has been created from it,
// except by declaring variables in its own scope.
type Env struct {
	// Tree is the tree this environment was created for, nil at top level
	Tree   ast.Node
	parent *Env // can be nil
	// Arena receives the classes declared in this environment
	Arena *types.Arena
	// Owner is the class whose methods unqualified calls refer to, nil if there is none
	Owner *types.ClassSymbol
	vars  map[string]*Var
	// Speculative is set for environments of trees being attributed on a copy
	Speculative bool
}

// New returns a top level environment declaring classes into arena
func New(arena *types.Arena) *Env {
	return &Env{Arena: arena, vars: make(map[string]*Var)}
}

// Outer is the environment of the enclosing tree, nil at top level
func (e *Env) Outer() *Env { return e.parent }

// Nest returns the environment of tree, a child of e sharing its arena.
// Variables declared in the child are not visible from e.
func (e *Env) Nest(tree ast.Node) *Env {
	nested := e.copy()
	nested.Tree = tree
	nested.parent = e
	nested.vars = make(map[string]*Var)
	return nested
}

// NestScope is Nest where classes declared in the child are not visible from e either
func (e *Env) NestScope(tree ast.Node) *Env {
	nested := e.Nest(tree)
	nested.Arena = e.Arena.Fork()
	return nested
}

// Dup returns an environment for tree that sees exactly what e sees.
// Everything declared through the duplicate, classes included, stays private to it.
func (e *Env) Dup(tree ast.Node) *Env {
	dup := e.NestScope(tree)
	dup.parent = e.parent
	dup.vars = make(map[string]*Var, len(e.vars))
	for name, v := range e.vars {
		dup.vars[name] = v
	}
	return dup
}

// Speculate is Dup for attributing a copy of the tree: the result is marked speculative
func (e *Env) Speculate(tree ast.Node) *Env {
	dup := e.Dup(tree)
	dup.Speculative = true
	logger.Debug("speculative environment", "depth", dup.Arena.Depth(), "tree", ast.SlogNode(tree))
	return dup
}

func (e *Env) copy() *Env {
	copied := *e
	return &copied
}

// Declare adds v to the scope of e. It fails when a variable with the same
// name is already visible, as locals cannot be shadowed.
func (e *Env) Declare(v *Var) error {
	if _, ok := e.Lookup(v.Name); ok {
		return fmt.Errorf("variable %s is already defined", v.Name)
	}
	e.vars[v.Name] = v
	return nil
}

// Lookup finds the variable name in e or its enclosing environments
func (e *Env) Lookup(name string) (*Var, bool) {
	v, ok := e.vars[name]
	if ok {
		return v, true
	}
	if e.parent != nil {
		return e.parent.Lookup(name)
	}
	return nil, false
}

// LookupClass finds a class visible from e
func (e *Env) LookupClass(name string) (*types.ClassSymbol, bool) {
	return e.Arena.Lookup(name)
}

// DeclareClass declares a local class in the arena of e
func (e *Env) DeclareClass(src types.ClassSource) (*types.ClassSymbol, error) {
	declared, err := e.Arena.Declare(src)
	if err != nil {
		return nil, err
	}
	c := declared[0]
	c.Flags |= types.FlagLocal
	logger.Debug("declared local class", "class", c.Name, "arena", e.Arena.Depth())
	return c, nil
}

// Enclosing returns the closest environment, starting from e, whose tree has one of kinds
func (e *Env) Enclosing(kinds ...ast.Kind) *Env {
	for env := e; env != nil; env = env.parent {
		if env.Tree == nil {
			continue
		}
		for _, k := range kinds {
			if env.Tree.Kind() == k {
				return env
			}
		}
	}
	return nil
}

// EnclosingTree is the tree of the outer environment, nil at top level
func (e *Env) EnclosingTree() ast.Node {
	if e.parent == nil {
		return nil
	}
	return e.parent.Tree
}

func (e *Env) LogValue() slog.Value {
	depth := 0
	for env := e.parent; env != nil; env = env.parent {
		depth++
	}
	attrs := []slog.Attr{slog.Int("depth", depth), slog.Bool("speculative", e.Speculative)}
	if e.Tree != nil {
		attrs = append(attrs, slog.Any("tree", ast.SlogNode(e.Tree)))
	}
	for name, v := range e.vars {
		attrs = append(attrs, slog.String(name, v.Type.String()))
	}
	return slog.GroupValue(attrs...)
}
