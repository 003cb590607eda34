package deferred

import (
	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/infer"
	"github.com/cottand/polyinfer/frontend/types"
)

// StuckVars returns the inference variables of ic that must be instantiated
// before tree can be attributed against pt.
//
// A lambda is stuck on pt itself when pt is an inference variable, and on
// the free variables of the descriptor's parameter types when its
// parameters are implicitly typed. A method reference is stuck on the free
// variables of the descriptor's parameter types. Conditionals and parentheses
// are looked through, as are the expression body and the returned expressions
// of a lambda, which are checked against the descriptor's return type.
func (e *Engine) StuckVars(tree ast.Expr, pt types.Type, ic *infer.InferenceContext) []*types.UndetVar {
	if ic != nil {
		pt = ic.AsInstType(pt)
	}
	if types.IsNone(pt) || types.IsErroneous(pt) || ic == nil {
		return nil
	}
	sc := &stuckChecker{
		types:  e.types,
		ic:     ic,
		pt:     pt,
		filter: argsFilter,
		seen:   types.NewUndetVarSet(),
	}
	sc.scan(tree)
	return sc.stuck
}

// argsFilter accepts the argument forms whose attribution depends on the target
func argsFilter(n ast.Node) bool {
	switch n.Kind() {
	case ast.KindConditional, ast.KindLambda, ast.KindParens, ast.KindReference:
		return true
	default:
		return false
	}
}

// lambdaBodyFilter accepts the statements that can lead to a return statement
func lambdaBodyFilter(n ast.Node) bool {
	switch n.Kind() {
	case ast.KindBlock, ast.KindCase, ast.KindCatch, ast.KindDoLoop, ast.KindForEach,
		ast.KindFor, ast.KindReturn, ast.KindSynchronized, ast.KindSwitch, ast.KindTry,
		ast.KindWhile, ast.KindIf:
		return true
	default:
		return false
	}
}

type stuckChecker struct {
	types  *types.Types
	ic     *infer.InferenceContext
	pt     types.Type
	filter func(ast.Node) bool
	stuck  []*types.UndetVar
	seen   *types.UndetVarSet
}

func (sc *stuckChecker) add(uvs ...*types.UndetVar) {
	for _, uv := range uvs {
		if sc.seen.Insert(uv) {
			sc.stuck = append(sc.stuck, uv)
		}
	}
}

// addIfInferenceVar adds pt when it is one of the variables of the context, and reports whether it did
func (sc *stuckChecker) addIfInferenceVar() bool {
	if uv, ok := sc.pt.(*types.UndetVar); ok && sc.ic.IsInferenceVar(uv) {
		sc.add(uv)
		return true
	}
	return false
}

func (sc *stuckChecker) scan(n ast.Node) {
	if n == nil || !sc.filter(n) {
		return
	}
	switch n := n.(type) {
	case *ast.Parens:
		sc.scan(n.X)
	case *ast.Conditional:
		sc.scan(n.Then)
		sc.scan(n.Else)
	case *ast.Lambda:
		sc.lambda(n)
	case *ast.MethodRef:
		sc.reference(n)
	case *ast.Return:
		prev := sc.filter
		sc.filter = argsFilter
		if n.X != nil {
			sc.scan(n.X)
		}
		sc.filter = prev
	case *ast.Block:
		sc.scanStmts(n.Stmts)
	case *ast.If:
		sc.scan(n.Cond)
		sc.scan(n.Then)
		sc.scan(n.Else)
	case *ast.While:
		sc.scan(n.Cond)
		sc.scan(n.Body)
	case *ast.DoLoop:
		sc.scan(n.Body)
		sc.scan(n.Cond)
	case *ast.For:
		sc.scanStmts(n.Init)
		sc.scan(n.Cond)
		for _, s := range n.Step {
			sc.scan(s)
		}
		sc.scan(n.Body)
	case *ast.ForEach:
		sc.scan(n.Iterable)
		sc.scan(n.Body)
	case *ast.Switch:
		sc.scan(n.Selector)
		for _, c := range n.Cases {
			sc.scan(c)
		}
	case *ast.Case:
		sc.scan(n.Label)
		sc.scanStmts(n.Body)
	case *ast.Try:
		sc.scan(n.Body)
		for _, c := range n.Catches {
			sc.scan(c)
		}
		if n.Finally != nil {
			sc.scan(n.Finally)
		}
	case *ast.Catch:
		sc.scan(n.Body)
	case *ast.Synchronized:
		sc.scan(n.Lock)
		sc.scan(n.Body)
	}
}

func (sc *stuckChecker) scanStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		sc.scan(s)
	}
}

func (sc *stuckChecker) lambda(l *ast.Lambda) {
	prevPt, prevFilter := sc.pt, sc.filter
	defer func() { sc.pt, sc.filter = prevPt, prevFilter }()

	sc.addIfInferenceVar()
	desc := sc.types.FindDescriptorType(sc.pt)
	if desc == nil {
		return
	}
	if free := sc.ic.FreeVarsIn(desc.Params...); len(free) > 0 && !l.IsExplicit() {
		sc.add(free...)
	}
	sc.pt = desc.Return
	if body := l.ExprBody(); body != nil {
		sc.scan(body)
		return
	}
	sc.filter = lambdaBodyFilter
	if block, ok := l.Body.(*ast.Block); ok {
		sc.scan(block)
	}
}

func (sc *stuckChecker) reference(r *ast.MethodRef) {
	sc.scan(r.Qualifier)
	if sc.addIfInferenceVar() {
		return
	}
	desc := sc.types.FindDescriptorType(sc.pt)
	if desc == nil {
		return
	}
	sc.add(sc.ic.FreeVarsIn(desc.Params...)...)
}
