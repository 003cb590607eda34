// Package attr attributes expressions and statements: it computes the type of
// every expression tree against the type its context expects, and reports
// what does not type check.
//
// Poly arguments of method calls are wrapped as deferred types and attributed
// through the deferred package once overload resolution knows what they are
// checked against.
package attr

import (
	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/deferred"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/infer"
	"github.com/cottand/polyinfer/frontend/resolve"
	"github.com/cottand/polyinfer/frontend/scope"
	"github.com/cottand/polyinfer/frontend/types"
	"github.com/cottand/polyinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "attr")

type Options struct {
	// Verbose reports resolution and instantiation notes
	Verbose bool
	// MaxFixpointPasses bounds the passes over stuck arguments of one call, zero means no limit
	MaxFixpointPasses int
}

type Attr struct {
	types    *types.Types
	syms     *types.Symtab
	log      *diag.Log
	infer    *infer.Infer
	deferred *deferred.Engine
	resolver *resolve.Resolver

	// returns holds what the return statements of a block lambda are checked against
	returns map[*ast.Lambda]deferred.ResultInfo
}

var _ deferred.Attributor = (*Attr)(nil)

func New(syms *types.Symtab, log *diag.Log, opts Options) *Attr {
	ts := types.NewTypes(syms)
	a := &Attr{types: ts, syms: syms, log: log, returns: make(map[*ast.Lambda]deferred.ResultInfo)}
	a.infer = infer.New(ts, log, infer.Options{Verbose: opts.Verbose, MaxFixpointPasses: opts.MaxFixpointPasses})
	a.deferred = deferred.New(a, a.infer, log)
	a.resolver = resolve.New(a.infer, a.deferred, log, resolve.Options{Verbose: opts.Verbose})
	return a
}

func (a *Attr) Types() *types.Types         { return a.types }
func (a *Attr) Engine() *deferred.Engine    { return a.deferred }
func (a *Attr) Resolver() *resolve.Resolver { return a.resolver }

// Attribute implements deferred.Attributor
func (a *Attr) Attribute(tree ast.Expr, env *scope.Env, info deferred.ResultInfo) types.Type {
	return a.AttribExpr(tree, env, info)
}

// AttribExpr attributes tree in env against info, records the type found on
// the tree and returns it. types.Err is returned when tree does not type check.
func (a *Attr) AttribExpr(tree ast.Expr, env *scope.Env, info deferred.ResultInfo) types.Type {
	if info.Check == nil {
		info.Check = a.basicCheck()
	}
	if info.Pt == nil {
		info.Pt = types.None
	}
	var result types.Type
	switch e := tree.(type) {
	case *ast.Ident:
		result = a.check(e, a.ident(e, env), info)
	case *ast.Literal:
		result = a.check(e, a.literal(e), info)
	case *ast.Parens:
		result = a.AttribExpr(e.X, env, info)
	case *ast.Conditional:
		result = a.conditional(e, env, info)
	case *ast.Lambda:
		result = a.lambda(e, env, info)
	case *ast.MethodRef:
		result = a.reference(e, env, info)
	case *ast.Call:
		result = a.call(e, env, info)
	case *ast.New:
		result = a.newClass(e, env, info)
	case *ast.Cast:
		result = a.cast(e, env, info)
	case *ast.Select:
		result = a.check(e, a.selectField(e, env), info)
	case *ast.Binary:
		result = a.check(e, a.binary(e, env), info)
	case *ast.Assign:
		result = a.check(e, a.assign(e, env), info)
	default:
		diag.Fail("unexpected expression %T", tree)
	}
	tree.SetType(result)
	logger.Debug("attributed", "tree", ast.Slog(tree), "type", result, "pt", info.Pt)
	return result
}

// Check attributes tree against pt in a top level context: the expression
// is not the argument of a call
func (a *Attr) Check(tree ast.Expr, env *scope.Env, pt types.Type) types.Type {
	return a.AttribExpr(tree, env, a.topInfo(pt))
}

// check returns found when it is compatible with the expected type, and
// reports a mismatch to the check context otherwise
func (a *Attr) check(tree ast.Expr, found types.Type, info deferred.ResultInfo) types.Type {
	if types.IsNone(info.Pt) || types.IsErroneous(found) || types.IsErroneous(info.Pt) {
		return found
	}
	if info.Check.Compatible(found, info.Pt) {
		return found
	}
	info.Check.Report(tree, diag.Frag("inconvertible.types", found, info.Pt))
	return types.Err
}

func (a *Attr) topInfo(pt types.Type) deferred.ResultInfo {
	return deferred.ResultInfo{Pt: pt, Check: a.basicCheck()}
}

// attribType resolves a type written in the source
func (a *Attr) attribType(tt *ast.TypeTree, env *scope.Env) types.Type {
	var t types.Type
	if prim, ok := types.PrimitiveNamed(tt.Name); ok {
		if len(tt.Args) > 0 {
			a.log.Error(tt, "type.found.req", prim, "class")
			return types.Err
		}
		t = prim
	} else if c, ok := env.LookupClass(tt.Name); ok {
		ct := &types.ClassType{Sym: c}
		if len(tt.Args) > 0 && len(tt.Args) != len(c.TypeParams) {
			a.log.Error(tt, "wrong.number.type.args", len(c.TypeParams))
			return types.Err
		}
		for _, arg := range tt.Args {
			argType := a.attribType(arg, env)
			if types.IsErroneous(argType) {
				return types.Err
			}
			if types.IsPrimitiveOrVoid(argType) {
				a.log.Error(arg, "type.found.req", argType, "reference")
				return types.Err
			}
			ct.Args = append(ct.Args, argType)
		}
		t = ct
	} else {
		a.log.Error(tt, "cant.resolve", "class", tt.Name)
		return types.Err
	}
	for range tt.Dims {
		t = &types.ArrayType{Elem: t}
	}
	return t
}

// basicCheck is the check context of expressions that are not method
// arguments: mismatches are reported to the log
type basicCheck struct {
	a *Attr
}

func (a *Attr) basicCheck() basicCheck { return basicCheck{a: a} }

func (c basicCheck) Compatible(found, req types.Type) bool {
	return c.a.types.IsConvertible(found, req, true)
}

func (c basicCheck) Report(pos ast.Positioner, details *diag.Diagnostic) {
	c.a.log.Error(pos, "prob.found.req", details)
}

func (c basicCheck) InferenceContext() *infer.InferenceContext { return c.a.infer.EmptyContext() }
func (basicCheck) DeferredAttrContext() *deferred.AttrContext  { return nil }

// nestedCheck checks a part of an expression, such as the body of a lambda,
// in the context of the whole: mismatches are reported to the enclosing
// context, wrapped in a fragment saying which part did not fit.
type nestedCheck struct {
	deferred.CheckContext
	key string
}

func (c nestedCheck) Report(pos ast.Positioner, details *diag.Diagnostic) {
	c.CheckContext.Report(pos, diag.Frag(c.key, details))
}
