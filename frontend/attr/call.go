package attr

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/deferred"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/ilerr"
	"github.com/cottand/polyinfer/frontend/infer"
	"github.com/cottand/polyinfer/frontend/resolve"
	"github.com/cottand/polyinfer/frontend/scope"
	"github.com/cottand/polyinfer/frontend/types"
)

// isPoly reports whether the type of e depends on its target, in which case
// e is attributed as a deferred argument
func (a *Attr) isPoly(e ast.Expr, env *scope.Env) bool {
	switch e := e.(type) {
	case *ast.Lambda, *ast.MethodRef:
		return true
	case *ast.Parens:
		return a.isPoly(e.X, env)
	case *ast.Conditional:
		return a.isPoly(e.Then, env) || a.isPoly(e.Else, env)
	case *ast.New:
		return e.Diamond
	case *ast.Call:
		return len(e.TypeArgs) == 0 && a.isGenericCall(e, env)
	default:
		return false
	}
}

// isGenericCall reports whether some method e may refer to returns one of its own type parameters
func (a *Attr) isGenericCall(e *ast.Call, env *scope.Env) bool {
	var site types.Type
	switch {
	case e.Receiver == nil && env.Owner != nil:
		site = env.Owner.Type()
	case e.Receiver != nil:
		if c, ok := a.classQualifier(e.Receiver, env); ok {
			site = c.Type()
		} else if id, ok := e.Receiver.(*ast.Ident); ok {
			if v, ok := env.Lookup(id.Name); ok {
				site = v.Type
			}
		}
	}
	if site == nil || types.IsPrimitiveOrVoid(site) || types.IsErroneous(site) {
		return false
	}
	return slices.ContainsFunc(a.types.FindMethods(site, e.Name), func(m *types.MethodSymbol) bool {
		return m.IsGeneric() && types.ContainsAny(m.Type.Return, m.TypeParams)
	})
}

// attribArgs attributes the arguments of a call. Poly arguments are wrapped
// as deferred types, to be attributed against the candidate methods.
func (a *Attr) attribArgs(args []ast.Expr, env *scope.Env) []types.Type {
	argtypes := make([]types.Type, len(args))
	for i, arg := range args {
		if a.isPoly(arg, env) {
			argtypes[i] = a.deferred.NewDeferredType(arg, env)
			continue
		}
		argtypes[i] = a.AttribExpr(arg, env, a.topInfo(types.None))
	}
	return argtypes
}

func (a *Attr) attribTypeArgs(trees []*ast.TypeTree, env *scope.Env) ([]types.Type, bool) {
	typeargs := make([]types.Type, len(trees))
	for i, tt := range trees {
		typeargs[i] = a.attribType(tt, env)
		if types.IsErroneous(typeargs[i]) {
			return nil, false
		}
	}
	return typeargs, true
}

func (a *Attr) call(e *ast.Call, env *scope.Env, info deferred.ResultInfo) types.Type {
	var site types.Type
	switch {
	case e.Receiver == nil:
		if env.Owner == nil {
			a.log.Error(e, "cant.resolve", "method", e.Name)
			return types.Err
		}
		site = env.Owner.Type()
	default:
		if c, ok := a.classQualifier(e.Receiver, env); ok {
			site = c.Type()
			e.Receiver.SetType(site)
		} else {
			site = a.AttribExpr(e.Receiver, env, a.topInfo(types.None))
		}
	}
	if types.IsErroneous(site) {
		return types.Err
	}
	if types.IsPrimitiveOrVoid(site) {
		a.log.Error(e, "cant.deref", site)
		return types.Err
	}
	typeargs, ok := a.attribTypeArgs(e.TypeArgs, env)
	if !ok {
		return types.Err
	}
	argtypes := a.attribArgs(e.Args, env)

	c, err := a.resolver.FindMethod(env, e, site, e.Name, a.types.FindMethods(site, e.Name), argtypes, typeargs)
	if err != nil {
		return types.Err
	}
	checked, err := a.resolver.CheckMethod(env, e, c, argtypes, typeargs, info)
	if err != nil {
		return types.Err
	}
	if c.Method.Flags.Has(types.FlagSignaturePolymorphic) {
		mt := a.polymorphicSignature(e, env, c.Method, argtypes)
		logger.Debug("signature polymorphic call", "method", c.Method, "signature", mt)
		return a.check(e, mt.Return, info)
	}
	return a.check(e, checked.Type.Return, info)
}

// polymorphicSignature is the signature of a call to a signature polymorphic
// method, built from the checked arguments and the tree around the call
func (a *Attr) polymorphicSignature(e *ast.Call, env *scope.Env, m *types.MethodSymbol, argtypes []types.Type) *types.MethodType {
	actuals := make([]types.Type, len(argtypes))
	for i, t := range argtypes {
		if dt, ok := t.(*deferred.DeferredType); ok {
			t = dt.Tree.Type()
		}
		actuals[i] = t
	}
	enclosing := infer.Enclosing{Tree: env.Tree}
	if env.Tree == ast.Node(e) {
		enclosing.Tree = env.EnclosingTree()
	}
	if cast, ok := enclosing.Tree.(*ast.Cast); ok {
		enclosing.CastType = cast.Type()
	}
	return a.infer.InstantiatePolymorphicSignatureInstance(enclosing, e, m, actuals)
}

func (a *Attr) newClass(e *ast.New, env *scope.Env, info deferred.ResultInfo) types.Type {
	c, ok := env.LookupClass(e.Class.Name)
	if !ok {
		a.log.Error(e.Class, "cant.resolve", "class", e.Class.Name)
		return types.Err
	}
	if c.Flags.Has(types.FlagAbstract) {
		a.log.Error(e, "abstract.cant.be.instantiated", c.Name)
		return types.Err
	}
	var site types.Type = c.Type()
	ctors := c.Ctors
	if e.Diamond {
		ctors = a.diamondCtors(c)
	} else {
		site = a.attribType(e.Class, env)
		if types.IsErroneous(site) {
			return types.Err
		}
	}
	argtypes := a.attribArgs(e.Args, env)

	cand, err := a.resolver.FindMethod(env, e, site, types.CtorName, ctors, argtypes, nil)
	if err != nil {
		return types.Err
	}
	checked, err := a.resolver.CheckMethod(env, e, cand, argtypes, nil, info)
	if err != nil {
		return types.Err
	}
	if e.Diamond {
		return a.check(e, checked.Type.Return, info)
	}
	return a.check(e, site, info)
}

// diamondCtors turns the constructors of c into generic methods over the type
// parameters of c followed by their own, returning an instance of c.
// Inferring their type arguments infers those of the class.
func (a *Attr) diamondCtors(c *types.ClassSymbol) []*types.MethodSymbol {
	ctors := make([]*types.MethodSymbol, len(c.Ctors))
	for i, ctor := range c.Ctors {
		ctors[i] = &types.MethodSymbol{
			Name:       types.CtorName,
			Owner:      c,
			Flags:      ctor.Flags | types.FlagSynthetic,
			TypeParams: append(slices.Clone(c.TypeParams), ctor.TypeParams...),
			Type:       &types.MethodType{Params: ctor.Type.Params, Return: c.Type(), Thrown: ctor.Type.Thrown},
		}
	}
	return ctors
}

// reference checks a method reference against the functional interface it
// is expected to implement. The type of a method reference is the target itself.
func (a *Attr) reference(e *ast.MethodRef, env *scope.Env, info deferred.ResultInfo) types.Type {
	if types.IsNone(info.Pt) {
		if info.Pt != infer.AnyPoly {
			a.log.Error(e, "unexpected.mref")
		}
		return types.Err
	}
	desc := a.types.FindDescriptorType(info.Pt)
	if desc == nil {
		info.Check.Report(e, diag.Frag("not.a.functional.intf", info.Pt))
		return types.Err
	}
	target := desc.Return
	if target == types.Void || len(info.Check.InferenceContext().FreeVarsIn(target)) > 0 {
		target = types.None
	}

	var checked *resolve.Checked
	var err error
	c, isType := a.classQualifier(e.Qualifier, env)
	switch {
	case e.IsConstructor():
		if !isType {
			info.Check.Report(e, diag.Frag("invalid.mref", diag.Frag("cant.resolve", "class", ast.ExprString(e.Qualifier))))
			return types.Err
		}
		ctors := c.Ctors
		if len(c.TypeParams) > 0 {
			ctors = a.diamondCtors(c)
		}
		checked, err = a.resolveSilently(env, e, c.Type(), types.CtorName, ctors, desc.Params, target)
	case isType:
		e.Qualifier.SetType(c.Type())
		checked, err = a.resolveSilently(env, e, c.Type(), e.Name, a.types.FindMethods(c.Type(), e.Name), desc.Params, target)
		if err == nil && !checked.Candidate.Method.IsStatic() {
			err = errors.Errorf("%s is not static", checked.Candidate.Method)
		}
		// Type::method may also take its receiver as the first parameter
		if err != nil && len(desc.Params) > 0 {
			if recv := a.types.AsSuper(desc.Params[0], c); recv != nil {
				unbound, unboundErr := a.resolveSilently(env, e, recv, e.Name, a.types.FindMethods(recv, e.Name), desc.Params[1:], target)
				if unboundErr == nil && !unbound.Candidate.Method.IsStatic() {
					checked, err = unbound, nil
				}
			}
		}
	default:
		site := a.AttribExpr(e.Qualifier, env, a.topInfo(types.None))
		if types.IsErroneous(site) {
			return types.Err
		}
		checked, err = a.resolveSilently(env, e, site, e.Name, a.types.FindMethods(site, e.Name), desc.Params, target)
	}
	if err != nil {
		info.Check.Report(e, diag.Frag("invalid.mref", reasonOf(err)))
		return types.Err
	}

	if desc.Return != types.Void {
		ret := checked.Type.Return
		if e.IsConstructor() && len(c.TypeParams) == 0 {
			ret = c.Type()
		}
		if ret == types.Void || !info.Check.Compatible(ret, desc.Return) {
			info.Check.Report(e, diag.Frag("incompatible.ret.type.in.mref", diag.Frag("inconvertible.types", ret, desc.Return)))
			return types.Err
		}
	}
	logger.Debug("method reference", "tree", ast.Slog(e), "method", checked.Candidate.Method, "signature", checked.Type)
	return info.Pt
}

// resolveSilently selects and checks the method a reference refers to,
// keeping the diagnostics of failed lookups out of the log
func (a *Attr) resolveSilently(
	env *scope.Env,
	pos ast.Positioner,
	site types.Type,
	name string,
	candidates []*types.MethodSymbol,
	argtypes []types.Type,
	target types.Type,
) (*resolve.Checked, error) {
	restore := a.log.PushDeferred(a.log.SameSource())
	defer restore()
	c, err := a.resolver.FindMethod(env, pos, site, name, candidates, argtypes, nil)
	if err != nil {
		return nil, err
	}
	return a.resolver.CheckMethod(env, pos, c, argtypes, nil, a.topInfo(target))
}

// reasonOf is the diagnostic behind err, as a fragment
func reasonOf(err error) any {
	var diagnosed ilerr.NewDiagnosed
	if errors.As(err, &diagnosed) {
		return diag.Frag(diagnosed.Diag.Key, diagnosed.Diag.Args...)
	}
	return err.Error()
}
