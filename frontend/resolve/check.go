package resolve

import (
	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/deferred"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/ilerr"
	"github.com/cottand/polyinfer/frontend/infer"
	"github.com/cottand/polyinfer/frontend/scope"
	"github.com/cottand/polyinfer/frontend/types"
)

// plainHandler reports the argument mismatches of methods that are not generic
type plainHandler struct{}

func (plainHandler) ArityMismatch() error {
	return ilerr.InapplicableError("arg.length.mismatch")
}

func (plainHandler) ArgumentMismatch(varargs bool, details *diag.Diagnostic) error {
	if varargs {
		return ilerr.InapplicableError("varargs.argument.mismatch", details)
	}
	return ilerr.InapplicableError("no.conforming.assignment.exists", details)
}

func (plainHandler) InaccessibleVarargs(location string, expected types.Type) error {
	return ilerr.InapplicableError("inaccessible.varargs.type", expected, "class", location)
}

// argumentsChecker checks the arguments of a call against one candidate, in one
// phase and attribution mode. Deferred arguments are attributed against their formal.
type argumentsChecker struct {
	r      *Resolver
	env    *scope.Env
	mode   deferred.Mode
	msym   *types.MethodSymbol
	phase  infer.Phase
	parent *deferred.AttrContext
}

// CheckArguments implements infer.ArgumentsChecker
func (c *argumentsChecker) CheckArguments(
	ic *infer.InferenceContext,
	actuals, formals []types.Type,
	allowBoxing, useVarargs bool,
	handler infer.CheckHandler,
) ([]types.Type, error) {
	if handler == nil {
		handler = plainHandler{}
	}
	ctx := c.r.deferred.NewContext(c.mode, c.msym, c.phase, ic, c.parent)
	mc := &methodCheck{types: c.r.types, ic: ic, ctx: ctx, allowBoxing: allowBoxing, handler: handler, err: new(error)}

	if !useVarargs && len(actuals) != len(formals) {
		return nil, handler.ArityMismatch()
	}
	fixed := len(formals)
	if useVarargs {
		fixed--
		if len(actuals) < fixed {
			return nil, handler.ArityMismatch()
		}
	}
	for i := 0; i < fixed; i++ {
		if err := mc.check(actuals[i], formals[i], false); err != nil {
			return nil, err
		}
	}
	if useVarargs {
		elem := varargsElem(formals[fixed])
		if c.inaccessible(elem) {
			return nil, handler.InaccessibleVarargs(c.msym.Location(), elem)
		}
		for _, actual := range actuals[fixed:] {
			if err := mc.check(actual, elem, true); err != nil {
				return nil, err
			}
		}
	}
	if err := ctx.Complete(); err != nil {
		return nil, err
	}
	if *mc.err != nil {
		return nil, *mc.err
	}
	return c.r.deferred.NewTypeMap(c.mode, c.msym, c.phase).ApplyAll(actuals), nil
}

// inaccessible reports whether t is a local class that is not visible where the call is
func (c *argumentsChecker) inaccessible(t types.Type) bool {
	ct, ok := c.r.types.Erasure(t).(*types.ClassType)
	return ok && ct.Sym.Flags.Has(types.FlagLocal) && c.env != nil && !c.env.Arena.Contains(ct.Sym)
}

func varargsElem(t types.Type) types.Type {
	if arr, ok := t.(*types.ArrayType); ok {
		return arr.Elem
	}
	return t
}

// methodCheck is the state shared by the check contexts of one argument list:
// the first reported mismatch wins.
type methodCheck struct {
	types       *types.Types
	ic          *infer.InferenceContext
	ctx         *deferred.AttrContext
	allowBoxing bool
	handler     infer.CheckHandler
	err         *error
}

func (mc *methodCheck) check(actual, formal types.Type, varargs bool) error {
	cc := &argCheckContext{methodCheck: mc, varargs: varargs}
	if dt, ok := actual.(*deferred.DeferredType); ok {
		dt.Check(deferred.ResultInfo{Pt: formal, Check: cc})
	} else if !cc.Compatible(actual, formal) {
		cc.Report(ast.Range{}, diag.Frag("inconvertible.types", actual, formal))
	}
	return *mc.err
}

// argCheckContext is the check context of one argument
type argCheckContext struct {
	*methodCheck
	varargs bool
}

func (c *argCheckContext) Compatible(found, req types.Type) bool {
	if req == infer.AnyPoly {
		return true
	}
	return c.types.IsConvertibleWith(found, req, c.allowBoxing, c.ic)
}

func (c *argCheckContext) Report(pos ast.Positioner, details *diag.Diagnostic) {
	if *c.err == nil {
		logger.Debug("argument mismatch", "pos", ast.RangeOf(pos), "details", details)
		*c.err = c.handler.ArgumentMismatch(c.varargs, details)
	}
}

func (c *argCheckContext) InferenceContext() *infer.InferenceContext  { return c.ic }
func (c *argCheckContext) DeferredAttrContext() *deferred.AttrContext { return c.ctx }
