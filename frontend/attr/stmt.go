package attr

import (
	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/scope"
	"github.com/cottand/polyinfer/frontend/types"
)

// AttribStmt attributes the statements of a block lambda body
func (a *Attr) AttribStmt(stmt ast.Stmt, env *scope.Env) {
	switch s := stmt.(type) {
	case *ast.Block:
		a.attribStmts(s.Stmts, env.NestScope(s))
	case *ast.Return:
		a.attribReturn(s, env)
	case *ast.ExprStmt:
		a.AttribExpr(s.X, env.Nest(s), a.topInfo(types.None))
	case *ast.LocalVar:
		a.attribLocalVar(s, env)
	case *ast.If:
		a.attribCond(s.Cond, env)
		a.AttribStmt(s.Then, env.NestScope(s))
		if s.Else != nil {
			a.AttribStmt(s.Else, env.NestScope(s))
		}
	case *ast.While:
		a.attribCond(s.Cond, env)
		a.AttribStmt(s.Body, env.NestScope(s))
	case *ast.DoLoop:
		a.AttribStmt(s.Body, env.NestScope(s))
		a.attribCond(s.Cond, env)
	case *ast.For:
		loopEnv := env.NestScope(s)
		a.attribStmts(s.Init, loopEnv)
		if s.Cond != nil {
			a.attribCond(s.Cond, loopEnv)
		}
		for _, step := range s.Step {
			a.AttribExpr(step, loopEnv, a.topInfo(types.None))
		}
		a.AttribStmt(s.Body, loopEnv.NestScope(s.Body))
	case *ast.ForEach:
		a.attribForEach(s, env)
	case *ast.Switch:
		selector := a.AttribExpr(s.Selector, env, a.topInfo(types.None))
		switchEnv := env.NestScope(s)
		for _, c := range s.Cases {
			if c.Label != nil && !types.IsErroneous(selector) {
				a.AttribExpr(c.Label, switchEnv, a.topInfo(selector))
			}
			a.attribStmts(c.Body, switchEnv)
		}
	case *ast.Case:
		diag.Fail("case outside of a switch")
	case *ast.Try:
		a.AttribStmt(s.Body, env)
		for _, c := range s.Catches {
			a.attribCatch(c, env)
		}
		if s.Finally != nil {
			a.AttribStmt(s.Finally, env)
		}
	case *ast.Catch:
		a.attribCatch(s, env)
	case *ast.Synchronized:
		lock := a.AttribExpr(s.Lock, env, a.topInfo(types.None))
		if !types.IsErroneous(lock) && !types.IsReference(lock) {
			a.log.Error(s.Lock, "type.found.req", lock, "reference")
		}
		a.AttribStmt(s.Body, env)
	case *ast.Throw:
		a.AttribExpr(s.X, env, a.topInfo(a.syms.Throwable.Type()))
	case *ast.ClassDecl:
		c, err := env.DeclareClass(types.ClassSource{Header: s.Header, Members: s.Members})
		if err != nil {
			a.log.Error(s, "class.decl", err.Error())
			return
		}
		logger.Debug("local class", "class", c.Name, "speculative", env.Speculative)
	default:
		diag.Fail("unexpected statement %T", stmt)
	}
}

// attribStmts attributes a statement list sharing one scope
func (a *Attr) attribStmts(stmts []ast.Stmt, env *scope.Env) {
	for _, s := range stmts {
		a.AttribStmt(s, env)
	}
}

func (a *Attr) attribCond(cond ast.Expr, env *scope.Env) {
	a.AttribExpr(cond, env, a.topInfo(types.Boolean))
}

func (a *Attr) attribReturn(s *ast.Return, env *scope.Env) {
	lambdaEnv := env.Enclosing(ast.KindLambda)
	if lambdaEnv == nil {
		a.log.Error(s, "ret.outside.meth")
		return
	}
	info, ok := a.returns[lambdaEnv.Tree.(*ast.Lambda)]
	diag.Assert(ok, "return in lambda %s with no expected return type", ast.SlogNode(lambdaEnv.Tree))
	switch {
	case s.X == nil && info.Pt != types.Void:
		info.Check.Report(s, diag.Frag("missing.ret.val"))
	case s.X != nil && info.Pt == types.Void:
		a.AttribExpr(s.X, env, a.topInfo(types.None))
		info.Check.Report(s.X, diag.Frag("unexpected.ret.val"))
	case s.X != nil:
		a.AttribExpr(s.X, env, info)
	}
}

func (a *Attr) attribLocalVar(s *ast.LocalVar, env *scope.Env) {
	var declared types.Type
	switch {
	case s.Type != nil:
		declared = a.attribType(s.Type, env)
		if declared == types.Void {
			a.log.Error(s.Type, "void.not.allowed")
			declared = types.Err
		}
		if s.Init != nil && !types.IsErroneous(declared) {
			a.AttribExpr(s.Init, env, a.topInfo(declared))
		}
	default:
		declared = a.inferLocalVar(s, env)
	}
	a.declareLocal(s, declared, env)
}

// inferLocalVar is the type of a local declared with var: the type of its initializer
func (a *Attr) inferLocalVar(s *ast.LocalVar, env *scope.Env) types.Type {
	switch ast.Unparen(s.Init).(type) {
	case *ast.Lambda:
		a.log.Error(s, "cant.infer.local.var.type", s.Name, diag.Frag("local.lambda.missing.target"))
		return types.Err
	case *ast.MethodRef:
		a.log.Error(s, "cant.infer.local.var.type", s.Name, diag.Frag("local.mref.missing.target"))
		return types.Err
	}
	t := a.AttribExpr(s.Init, env, a.topInfo(types.None))
	switch {
	case types.IsErroneous(t):
		return types.Err
	case t.Tag() == types.TagBot:
		a.log.Error(s, "cant.infer.local.var.type", s.Name, diag.Frag("local.cant.infer.null"))
		return types.Err
	case t == types.Void:
		a.log.Error(s, "cant.infer.local.var.type", s.Name, diag.Frag("local.cant.infer.void"))
		return types.Err
	}
	return t
}

func (a *Attr) declareLocal(s *ast.LocalVar, t types.Type, env *scope.Env) {
	if err := env.Declare(&scope.Var{Name: s.Name, Type: t, Pos: s.Range}); err != nil {
		a.log.Error(s, "already.defined", "variable", s.Name)
	}
}

func (a *Attr) attribForEach(s *ast.ForEach, env *scope.Env) {
	iterable := a.AttribExpr(s.Iterable, env, a.topInfo(types.None))
	loopEnv := env.NestScope(s)
	elem := a.iteratedType(s.Iterable, iterable)

	declared := elem
	if s.Var.Type != nil {
		declared = a.attribType(s.Var.Type, env)
		if !types.IsErroneous(declared) && !types.IsErroneous(elem) && !a.types.IsConvertible(elem, declared, true) {
			a.log.Error(s.Var, "prob.found.req", diag.Frag("inconvertible.types", elem, declared))
		}
	}
	a.declareLocal(s.Var, declared, loopEnv)
	a.AttribStmt(s.Body, loopEnv)
}

// iteratedType is the type of the elements an enhanced for loop goes through
func (a *Attr) iteratedType(pos ast.Positioner, t types.Type) types.Type {
	if types.IsErroneous(t) {
		return types.Err
	}
	if arr, ok := t.(*types.ArrayType); ok {
		return arr.Elem
	}
	if iterable, ok := a.syms.Root().Lookup("Iterable"); ok {
		if sup, ok := a.types.AsSuper(t, iterable).(*types.ClassType); ok {
			if len(sup.Args) == 0 {
				return a.syms.ObjectType
			}
			return sup.Args[0]
		}
	}
	a.log.Error(pos, "foreach.not.applicable.to.type", t)
	return types.Err
}

func (a *Attr) attribCatch(c *ast.Catch, env *scope.Env) {
	catchEnv := env.NestScope(c)
	param := types.Err
	if c.Param.Type != nil {
		param = a.attribType(c.Param.Type, env)
	}
	throwable := a.syms.Throwable.Type()
	if !types.IsErroneous(param) && !a.types.IsSubtype(param, throwable) {
		a.log.Error(c.Param, "prob.found.req", diag.Frag("inconvertible.types", param, throwable))
		param = types.Err
	}
	a.declareLocal(c.Param, param, catchEnv)
	a.AttribStmt(c.Body, catchEnv)
}
