// Package deferred postpones the attribution of poly expressions used as
// method arguments until the formal parameter they are checked against is
// known well enough.
//
// During overload resolution every candidate attributes a copy of the
// argument (speculative mode). Once a candidate is selected, the argument
// itself is attributed (check mode).
package deferred

import (
	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/infer"
	"github.com/cottand/polyinfer/frontend/scope"
	"github.com/cottand/polyinfer/frontend/types"
	"github.com/cottand/polyinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "deferred")

type Mode int

const (
	// ModeNone is the mode of a deferred type that was never checked
	ModeNone Mode = iota
	ModeSpeculative
	ModeCheck
)

func (m Mode) String() string {
	switch m {
	case ModeSpeculative:
		return "SPECULATIVE"
	case ModeCheck:
		return "CHECK"
	default:
		return "NONE"
	}
}

// CheckContext decides whether the type found for an expression is acceptable
// where it is used, and what to do when it is not.
type CheckContext interface {
	// Compatible reports whether found can be used where req is expected.
	// Inference variables of InferenceContext may gain bounds in the process.
	Compatible(found, req types.Type) bool
	Report(pos ast.Positioner, details *diag.Diagnostic)
	InferenceContext() *infer.InferenceContext
	DeferredAttrContext() *AttrContext
}

// ResultInfo is what an expression is attributed against: the expected type
// Pt and the context checking the type found against it.
type ResultInfo struct {
	Pt    types.Type
	Check CheckContext
}

// Dup returns r expecting pt instead
func (r ResultInfo) Dup(pt types.Type) ResultInfo {
	return ResultInfo{Pt: pt, Check: r.Check}
}

// DupCheck returns r with a different check context
func (r ResultInfo) DupCheck(check CheckContext) ResultInfo {
	return ResultInfo{Pt: r.Pt, Check: check}
}

// Attributor attributes an expression against a result info and returns its type
type Attributor interface {
	Attribute(tree ast.Expr, env *scope.Env, info ResultInfo) types.Type
}

// Observer is told how deferred attribution progresses. It is meant for tracing.
type Observer interface {
	Stuck(dt *DeferredType, vars []*types.UndetVar)
	Pass(ctx *AttrContext, pass, processed int, stuck []*types.UndetVar)
}

// Engine creates deferred types and attribution contexts, and attributes
// copies of expressions speculatively.
type Engine struct {
	attr     Attributor
	infer    *infer.Infer
	types    *types.Types
	log      *diag.Log
	empty    *AttrContext
	Observer Observer
}

func New(attr Attributor, in *infer.Infer, log *diag.Log) *Engine {
	e := &Engine{attr: attr, infer: in, types: in.Types(), log: log}
	e.empty = &AttrContext{engine: e, Mode: ModeCheck, Infer: in.EmptyContext(), isEmpty: true}
	return e
}

// NewDeferredType wraps tree, to be attributed later in a copy of env
func (e *Engine) NewDeferredType(tree ast.Expr, env *scope.Env) *DeferredType {
	return &DeferredType{Tree: tree, Env: env.Dup(tree), engine: e, cache: NewSpeculativeCache()}
}

// AttribSpeculative attributes a copy of tree in a copy of env, and returns the
// attributed copy. Diagnostics raised meanwhile for the current source are
// discarded, and classes declared in the copy are not visible afterwards.
func (e *Engine) AttribSpeculative(tree ast.Expr, env *scope.Env, info ResultInfo) ast.Expr {
	copied := ast.CopyExpr(tree)
	speculativeEnv := env.Speculate(copied)
	restore := e.log.PushDeferred(e.log.SameSource())
	defer restore()
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*diag.Abort); ok {
				e.log.ReportDeferredDiagnostics()
			}
			panic(r)
		}
	}()
	e.attr.Attribute(copied, speculativeEnv, info)
	if discarded := e.log.DeferredDiagnostics(); len(discarded) > 0 {
		logger.Debug("discarding speculative diagnostics", "count", len(discarded), "tree", ast.Slog(tree))
	}
	return copied
}

// DeferredType is the type of a method argument whose attribution depends on
// the formal parameter it is checked against.
type DeferredType struct {
	Tree   ast.Expr
	Env    *scope.Env
	mode   Mode
	cache  *SpeculativeCache
	engine *Engine
}

func (dt *DeferredType) Tag() types.Tag { return types.TagDeferred }
func (dt *DeferredType) String() string { return ast.ExprString(dt.Tree) }
func (dt *DeferredType) Hash() uint64   { return 0xdefe44ed ^ dt.Tree.Hash() }
func (dt *DeferredType) Mode() Mode     { return dt.mode }

func (dt *DeferredType) Cache() *SpeculativeCache { return dt.cache }

// SpeculativeTree is the copy attributed for the method and phase of ctx, nil if there is none
func (dt *DeferredType) SpeculativeTree(ctx *AttrContext) ast.Expr {
	if e := dt.cache.Get(ctx.Msym, ctx.Phase); e != nil {
		return e.Tree
	}
	return nil
}

// SpeculativeType is the type found when checking against msym in phase,
// types.None when no such check happened
func (dt *DeferredType) SpeculativeType(msym *types.MethodSymbol, phase infer.Phase) types.Type {
	if e := dt.cache.Get(msym, phase); e != nil {
		return e.Tree.Type()
	}
	return types.None
}

// Check attributes the wrapped tree against info, in the mode of the
// deferred attribution context of info.
//
// When the tree cannot be attributed before some inference variables are
// instantiated, it is queued on that context and types.None is returned.
func (dt *DeferredType) Check(info ResultInfo) types.Type {
	ctx := info.Check.DeferredAttrContext()
	diag.Assert(ctx != nil && !ctx.isEmpty, "deferred type %s checked outside of a deferred attribution context", dt)

	if stuck := dt.engine.StuckVars(dt.Tree, info.Pt, info.Check.InferenceContext()); len(stuck) > 0 {
		if dt.engine.Observer != nil {
			dt.engine.Observer.Stuck(dt, stuck)
		}
		ctx.AddDeferredAttrNode(dt, info, stuck)
		return types.None
	}

	defer func() { dt.mode = ctx.Mode }()
	switch ctx.Mode {
	case ModeSpeculative:
		diag.Assert(dt.mode == ModeNone || dt.mode == ModeSpeculative && dt.cache.Get(ctx.Msym, ctx.Phase) == nil,
			"second speculative round of %s for %v in phase %v", dt, ctx.Msym, ctx.Phase)
		tree := dt.engine.AttribSpeculative(dt.Tree, dt.Env, info)
		dt.cache.Put(ctx.Msym, tree, ctx.Phase)
		logger.Debug("speculative type", "tree", ast.Slog(dt.Tree), "method", ctx.Msym, "phase", ctx.Phase, "type", tree.Type())
		return tree.Type()
	case ModeCheck:
		diag.Assert(dt.mode == ModeSpeculative, "%s checked without a speculative round", dt)
		return dt.engine.attr.Attribute(dt.Tree, dt.Env, info)
	}
	diag.Fail("unexpected deferred attribution mode %v", ctx.Mode)
	return nil
}
