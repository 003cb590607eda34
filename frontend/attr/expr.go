package attr

import (
	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/deferred"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/infer"
	"github.com/cottand/polyinfer/frontend/scope"
	"github.com/cottand/polyinfer/frontend/types"
)

func (a *Attr) ident(e *ast.Ident, env *scope.Env) types.Type {
	if v, ok := env.Lookup(e.Name); ok {
		return v.Type
	}
	a.log.Error(e, "cant.resolve", "variable", e.Name)
	return types.Err
}

func (a *Attr) literal(e *ast.Literal) types.Type {
	switch e.LitKind {
	case ast.LitInt:
		return types.Int
	case ast.LitLong:
		return types.Long
	case ast.LitDouble:
		return types.Double
	case ast.LitChar:
		return types.Char
	case ast.LitString:
		return a.syms.StringType
	case ast.LitBool:
		return types.Boolean
	default:
		return types.Bot
	}
}

// classQualifier returns the class x names, when x is the name of a class
// rather than of a variable
func (a *Attr) classQualifier(x ast.Expr, env *scope.Env) (*types.ClassSymbol, bool) {
	id, ok := x.(*ast.Ident)
	if !ok {
		return nil, false
	}
	if _, isVar := env.Lookup(id.Name); isVar {
		return nil, false
	}
	return env.LookupClass(id.Name)
}

func (a *Attr) conditional(e *ast.Conditional, env *scope.Env, info deferred.ResultInfo) types.Type {
	a.AttribExpr(e.Cond, env, a.topInfo(types.Boolean))
	if a.isPoly(e, env) && !types.IsNone(info.Pt) {
		// each branch is checked against the target on its own
		branch := info.DupCheck(nestedCheck{CheckContext: info.Check, key: "incompatible.type.in.conditional"})
		t1 := a.AttribExpr(e.Then, env, branch)
		t2 := a.AttribExpr(e.Else, env, branch)
		if types.IsErroneous(t1) || types.IsErroneous(t2) {
			return types.Err
		}
		return info.Pt
	}
	t1 := a.AttribExpr(e.Then, env, a.topInfo(types.None))
	t2 := a.AttribExpr(e.Else, env, a.topInfo(types.None))
	if types.IsErroneous(t1) || types.IsErroneous(t2) {
		return types.Err
	}
	found := a.conditionalType(t1, t2)
	if types.IsErroneous(found) {
		a.log.Error(e, "neither.conditional.subtype", t1, t2)
		return types.Err
	}
	return a.check(e, found, info)
}

// conditionalType is the type of a conditional expression whose branches are
// not poly expressions
func (a *Attr) conditionalType(t1, t2 types.Type) types.Type {
	if a.types.IsSameType(t1, t2) {
		return t1
	}
	u1, u2 := a.unboxedOrSelf(t1), a.unboxedOrSelf(t2)
	if types.IsPrimitive(u1) && types.IsPrimitive(u2) {
		if u1 == types.Boolean || u2 == types.Boolean {
			if u1 == u2 {
				return types.Boolean
			}
			return types.Err
		}
		if u1.Tag() > u2.Tag() {
			return u1
		}
		return u2
	}
	if t1 == types.Void || t2 == types.Void {
		return types.Err
	}
	b1, b2 := a.types.BoxedTypeOrType(t1), a.types.BoxedTypeOrType(t2)
	switch {
	case a.types.IsSubtype(b1, b2):
		return b2
	case a.types.IsSubtype(b2, b1):
		return b1
	}
	return a.types.Lub(b1, b2)
}

func (a *Attr) unboxedOrSelf(t types.Type) types.Type {
	if u := a.types.Unboxed(t); u != nil {
		return u
	}
	return t
}

// lambda checks e against the functional interface it is expected to
// implement. The type of a lambda is the target itself.
func (a *Attr) lambda(e *ast.Lambda, env *scope.Env, info deferred.ResultInfo) types.Type {
	if types.IsNone(info.Pt) {
		if info.Pt != infer.AnyPoly {
			a.log.Error(e, "unexpected.lambda")
		}
		return types.Err
	}
	desc := a.types.FindDescriptorType(info.Pt)
	if desc == nil {
		info.Check.Report(e, diag.Frag("not.a.functional.intf", info.Pt))
		return types.Err
	}
	if len(e.Params) != len(desc.Params) {
		info.Check.Report(e, diag.Frag("incompatible.arg.types.in.lambda"))
		return types.Err
	}

	lambdaEnv := env.Nest(e)
	ic := info.Check.InferenceContext()
	for i, p := range e.Params {
		paramType := desc.Params[i]
		if p.Type != nil {
			declared := a.attribType(p.Type, env)
			if types.IsErroneous(declared) {
				return types.Err
			}
			// explicit parameters constrain the variables of the descriptor
			if !a.types.IsSameTypeWith(declared, paramType, ic) {
				info.Check.Report(e, diag.Frag("incompatible.arg.types.in.lambda"))
				return types.Err
			}
			paramType = declared
		}
		if err := lambdaEnv.Declare(&scope.Var{Name: p.Name, Type: paramType, Pos: p.Range}); err != nil {
			a.log.Error(p, "already.defined", "variable", p.Name)
			return types.Err
		}
	}

	ret := deferred.ResultInfo{
		Pt:    desc.Return,
		Check: nestedCheck{CheckContext: info.Check, key: "incompatible.ret.type.in.lambda"},
	}
	if body := e.ExprBody(); body != nil {
		if desc.Return == types.Void {
			a.AttribExpr(body, lambdaEnv, a.topInfo(types.None))
			if !isStatementExpression(body) {
				ret.Check.Report(body, diag.Frag("unexpected.ret.val"))
			}
		} else {
			a.AttribExpr(body, lambdaEnv, ret)
		}
	} else {
		a.returns[e] = ret
		defer delete(a.returns, e)
		a.AttribStmt(e.Body.(ast.Stmt), lambdaEnv)
	}
	return info.Pt
}

func isStatementExpression(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Call, *ast.New, *ast.Assign:
		return true
	default:
		return false
	}
}

func (a *Attr) cast(e *ast.Cast, env *scope.Env, info deferred.ResultInfo) types.Type {
	target := a.attribType(e.Target, env)
	if types.IsErroneous(target) {
		return types.Err
	}
	// signature polymorphic calls look at the cast around them
	e.SetType(target)
	castEnv := env.Nest(e)
	var found types.Type
	switch ast.Unparen(e.X).(type) {
	case *ast.Lambda, *ast.MethodRef:
		found = a.AttribExpr(e.X, castEnv, info.Dup(target))
	default:
		found = a.AttribExpr(e.X, castEnv, a.topInfo(types.None))
	}
	if types.IsErroneous(found) {
		return types.Err
	}
	if !a.types.IsCastable(found, target) {
		a.log.Error(e, "prob.found.req", diag.Frag("inconvertible.types", found, target))
		return types.Err
	}
	return a.check(e, target, info)
}

func (a *Attr) selectField(e *ast.Select, env *scope.Env) types.Type {
	var site types.Type
	if c, ok := a.classQualifier(e.X, env); ok {
		site = c.Type()
		e.X.SetType(site)
	} else {
		site = a.AttribExpr(e.X, env, a.topInfo(types.None))
	}
	if types.IsErroneous(site) {
		return types.Err
	}
	if _, ok := site.(*types.ArrayType); ok && e.Name == "length" {
		return types.Int
	}
	if types.IsPrimitiveOrVoid(site) {
		a.log.Error(e, "cant.deref", site)
		return types.Err
	}
	f, ok := a.types.FindField(site, e.Name)
	if !ok {
		a.log.Error(e, "cant.resolve.location", "variable", e.Name, site)
		return types.Err
	}
	return a.types.FieldType(site, f)
}

func (a *Attr) binary(e *ast.Binary, env *scope.Env) types.Type {
	t1 := a.AttribExpr(e.X, env, a.topInfo(types.None))
	t2 := a.AttribExpr(e.Y, env, a.topInfo(types.None))
	if types.IsErroneous(t1) || types.IsErroneous(t2) {
		return types.Err
	}
	u1, u2 := a.unboxedOrSelf(t1), a.unboxedOrSelf(t2)
	numeric := types.IsPrimitive(u1) && types.IsPrimitive(u2) && u1 != types.Boolean && u2 != types.Boolean
	var result types.Type
	switch e.Op {
	case "+":
		if a.types.IsSameType(t1, a.syms.StringType) || a.types.IsSameType(t2, a.syms.StringType) {
			if t1 != types.Void && t2 != types.Void {
				result = a.syms.StringType
			}
			break
		}
		fallthrough
	case "-", "*", "/", "%":
		if numeric {
			result = promote(u1, u2)
		}
	case "<", ">", "<=", ">=":
		if numeric {
			result = types.Boolean
		}
	case "==", "!=":
		switch {
		case numeric, u1 == types.Boolean && u2 == types.Boolean:
			result = types.Boolean
		case types.IsReference(t1) && types.IsReference(t2) && a.types.IsCastable(t1, t2):
			result = types.Boolean
		}
	case "&&", "||":
		if u1 == types.Boolean && u2 == types.Boolean {
			result = types.Boolean
		}
	}
	if result == nil {
		a.log.Error(e, "operator.cant.be.applied", e.Op, t1, t2)
		return types.Err
	}
	return result
}

// promote is binary numeric promotion
func promote(t1, t2 types.Type) types.Type {
	tag := max(t1.Tag(), t2.Tag(), types.TagInt)
	for _, p := range []types.Type{types.Int, types.Long, types.Float, types.Double} {
		if p.Tag() == tag {
			return p
		}
	}
	return types.Int
}

func (a *Attr) assign(e *ast.Assign, env *scope.Env) types.Type {
	var target types.Type
	switch t := e.Target.(type) {
	case *ast.Ident:
		v, ok := env.Lookup(t.Name)
		if !ok {
			a.log.Error(t, "cant.resolve", "variable", t.Name)
			return types.Err
		}
		if v.Final {
			a.log.Error(t, "cant.assign.val.to.final.var", t.Name)
			return types.Err
		}
		target = v.Type
		t.SetType(target)
	case *ast.Select:
		target = a.AttribExpr(t, env, a.topInfo(types.None))
	default:
		a.log.Error(e.Target, "type.found.req", e.Target.Describe(), "variable")
		return types.Err
	}
	if types.IsErroneous(target) {
		return types.Err
	}
	return a.AttribExpr(e.Value, env, a.topInfo(target))
}
