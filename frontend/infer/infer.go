// Package infer instantiates the type variables of generic method signatures
// from the types of the arguments and from the target type of the call.
package infer

import (
	"slices"

	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/ilerr"
	"github.com/cottand/polyinfer/frontend/types"
	"github.com/cottand/polyinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "infer")

type Options struct {
	// Verbose reports a note for every instantiation that needed the target type
	Verbose bool
	// MaxFixpointPasses bounds the passes made over stuck arguments, zero means no limit
	MaxFixpointPasses int
}

type Infer struct {
	Options
	types    *types.Types
	syms     *types.Symtab
	log      *diag.Log
	contexts uint64
	empty    *InferenceContext
}

func New(ts *types.Types, log *diag.Log, opts Options) *Infer {
	in := &Infer{Options: opts, types: ts, syms: ts.Syms, log: log}
	in.empty = in.newContext(nil)
	return in
}

func (in *Infer) Types() *types.Types { return in.types }

// EmptyContext is the context without variables, for checks that infer nothing
func (in *Infer) EmptyContext() *InferenceContext { return in.empty }

type anyPoly struct{}

func (anyPoly) Tag() types.Tag { return types.TagNone }
func (anyPoly) String() string { return "<any>" }
func (anyPoly) Hash() uint64   { return 0x9e3779b97f4a7c15 }

// AnyPoly is the expected type of an expression checked without a target:
// every type is compatible with it.
var AnyPoly types.Type = anyPoly{}

// CheckHandler turns a failed argument check into an error
type CheckHandler interface {
	ArityMismatch() error
	ArgumentMismatch(varargs bool, details *diag.Diagnostic) error
	InaccessibleVarargs(location string, expected types.Type) error
}

// ArgumentsChecker checks actual argument types against formal parameter types
// and returns the argument types after attribution of deferred arguments.
// A nil handler stands for the checker's own plain handler.
type ArgumentsChecker interface {
	CheckArguments(ic *InferenceContext, actuals, formals []types.Type, allowBoxing, useVarargs bool, handler CheckHandler) ([]types.Type, error)
}

type inferenceCheckHandler struct {
	ic *InferenceContext
}

func (h inferenceCheckHandler) ArityMismatch() error {
	return ilerr.NoInstanceError(false, "infer.arg.length.mismatch", h.ic.InferenceVars())
}

func (h inferenceCheckHandler) ArgumentMismatch(varargs bool, details *diag.Diagnostic) error {
	key := "infer.no.conforming.assignment.exists"
	if varargs {
		key = "infer.varargs.argument.mismatch"
	}
	return ilerr.NoInstanceError(false, key, h.ic.InferenceVars(), details)
}

func (h inferenceCheckHandler) InaccessibleVarargs(location string, expected types.Type) error {
	return ilerr.NoInstanceError(false, "inaccessible.varargs.type", expected, "class", location)
}

// Instantiation is a generic method signature with its type variables solved
type Instantiation struct {
	Method   *types.MethodType
	TypeVars []*types.TypeVar
	// Insts holds the solution of each type variable, the variable itself when left undetermined
	Insts   []types.Type
	Context *InferenceContext
}

// InstantiateMethod solves tvars so that mt accepts argtypes.
//
// target is the type the call result is expected to have, types.None when
// nothing is expected, or nil when the call is only being checked for
// applicability. Variables the arguments do not determine are solved against
// target, unless it is nil, in which case they are left as declared.
func (in *Infer) InstantiateMethod(
	pos ast.Positioner,
	tvars []*types.TypeVar,
	mt *types.MethodType,
	target types.Type,
	msym *types.MethodSymbol,
	argtypes []types.Type,
	allowBoxing, useVarargs bool,
	checker ArgumentsChecker,
) (*Instantiation, error) {
	ic := in.newContext(tvars)
	formals := types.SubstList(mt.Params, tvars, ic.undetTypes())
	captured, err := checker.CheckArguments(ic, argtypes, formals, allowBoxing, useVarargs, inferenceCheckHandler{ic})
	if err != nil {
		return nil, err
	}

	for _, v := range ic.vars {
		if v.Inst != nil {
			continue
		}
		if err := in.minimizeInst(v); err != nil {
			return nil, err
		}
	}

	var residual []*Var
	insts := make([]types.Type, len(ic.vars))
	declared := make([]types.Type, len(ic.vars))
	for i, v := range ic.vars {
		if v.Inst.Tag() == types.TagBot {
			residual = append(residual, v)
			v.Inst = nil
			insts[i] = v.Ref
			declared[i] = tvars[i]
		} else {
			insts[i] = v.Inst
			declared[i] = v.Inst
		}
	}
	if err := in.checkWithinBounds(ic, insts); err != nil {
		return nil, err
	}
	mt = types.SubstMethod(mt, tvars, declared)

	if len(residual) > 0 && target != nil {
		rest, err := in.instantiateUninferred(ic, residual, mt, target)
		if err != nil {
			return nil, err
		}
		for i, v := range residual {
			insts[v.Ref.Index] = rest[i]
		}
		if err := in.checkWithinBounds(ic, insts); err != nil {
			return nil, err
		}
		mt = types.SubstMethod(mt, tvars, insts)
		if in.Verbose && in.log != nil {
			in.log.Note(ast.RangeOf(pos), "deferred.method.inst", msym, mt, target)
		}
	}

	if len(residual) == 0 || target != nil {
		// deferred arguments may have been typed against the formals before they were solved
		for i, t := range captured {
			captured[i] = types.SubstUndetVars(t, ic.undet, insts)
		}
		if _, err := checker.CheckArguments(in.empty, captured, mt.Params, allowBoxing, useVarargs, nil); err != nil {
			if inferenceErr, ok := ilerr.AsInference(err); ok {
				return nil, ilerr.InvalidInstanceError(inferenceErr.Diag)
			}
			return nil, err
		}
	}

	result := make([]types.Type, len(insts))
	for i, inst := range insts {
		if ic.IsInferenceVar(inst) {
			result[i] = tvars[i]
		} else {
			result[i] = inst
		}
	}
	logger.Debug("instantiated method", "method", msym, "signature", mt, "context", ic)
	return &Instantiation{Method: mt, TypeVars: tvars, Insts: result, Context: ic}, nil
}

// instantiateUninferred solves the variables the arguments left undetermined,
// using the return type of mt and the target type. Variables whose upper
// bounds keep referring to each other become fresh synthetic type variables.
func (in *Infer) instantiateUninferred(ic *InferenceContext, residual []*Var, mt *types.MethodType, target types.Type) ([]types.Type, error) {
	to := target
	if types.IsNone(to) {
		if types.IsPrimitiveOrVoid(mt.Return) {
			to = mt.Return
		} else {
			to = in.syms.ObjectType
		}
	}
	tvars := make([]*types.TypeVar, len(residual))
	undet := make([]*types.UndetVar, len(residual))
	undetTypes := make([]types.Type, len(residual))
	for i, v := range residual {
		tvars[i], undet[i], undetTypes[i] = v.Ref.QType, v.Ref, v.Ref
	}

	qtype := types.Subst(mt.Return, tvars, undetTypes)
	expected := to
	if ic.IsInferenceVar(qtype) {
		expected = in.types.BoxedTypeOrType(to)
	}
	if !in.types.IsSubtypeWith(qtype, expected, ic) {
		return nil, ilerr.NoInstanceError(false, "infer.no.conforming.instance.exists", tvars, mt.Return, to)
	}

	insts := make([]types.Type, len(residual))
	for {
		stuck := true
		for i, v := range residual {
			if v.Inst == nil && (v.Eq.Len() > 0 || !containsAnyUndetVar(listSlice(v.Hi), undet)) {
				if err := in.maximizeInst(v); err != nil {
					return nil, err
				}
				stuck = false
			}
			if v.Inst != nil {
				insts[i] = v.Inst
			} else {
				insts[i] = v.Ref
			}
		}
		if !containsAnyUndetVar(insts, undet) {
			break
		}
		if stuck {
			fresh, err := in.instantiateAsUninferredVars(residual, undet)
			if err != nil {
				return nil, err
			}
			insts = fresh
			break
		}
		for _, v := range residual {
			v.Hi = substList(v.Hi, undet, insts)
		}
	}
	return insts, nil
}

// instantiateAsUninferredVars solves each remaining variable to a fresh type
// variable, whose bound is the glb of the variable's upper bounds
func (in *Infer) instantiateAsUninferredVars(residual []*Var, undet []*types.UndetVar) ([]types.Type, error) {
	var todo []*Var
	insts := make([]types.Type, len(residual))
	for i, v := range residual {
		if v.Inst == nil {
			fresh := types.NewSyntheticTypeVar(v.Ref.QType.Name, in.types.MakeCompoundType(listSlice(v.Hi)))
			v.Inst = fresh
			todo = append(todo, v)
		}
		insts[i] = v.Inst
	}
	for _, v := range todo {
		fresh := v.Inst.(*types.TypeVar)
		bounds := in.types.GetBounds(fresh)
		for i, b := range bounds {
			bounds[i] = types.SubstUndetVars(b, undet, insts)
		}
		fresh.Bound = in.types.Glb(bounds...)
		if types.IsErroneous(fresh.Bound) {
			return nil, reportBoundError(v, ilerr.BoundBadUpper)
		}
	}
	return insts, nil
}

// Enclosing is the tree directly around a call to a signature polymorphic method
type Enclosing struct {
	Tree ast.Node
	// CastType is the type cast to, when Tree is a cast
	CastType types.Type
}

// InstantiatePolymorphicSignatureInstance builds the signature of a call to a
// signature polymorphic method: the parameters are the erased argument types
// and the return type is taken from the context of the call.
func (in *Infer) InstantiatePolymorphicSignatureInstance(enclosing Enclosing, call ast.Expr, spMethod *types.MethodSymbol, argtypes []types.Type) *types.MethodType {
	var restype types.Type = in.syms.ObjectType
	switch tree := enclosing.Tree.(type) {
	case *ast.Cast:
		if ast.Unparen(tree.X) == call && enclosing.CastType != nil {
			restype = enclosing.CastType
		}
	case *ast.ExprStmt:
		if ast.Unparen(tree.X) == call {
			restype = types.Void
		}
	}
	params := make([]types.Type, len(argtypes))
	for i, t := range argtypes {
		if t.Tag() == types.TagBot {
			params[i] = in.syms.Void.Type()
		} else {
			params[i] = in.types.Erasure(t)
		}
	}
	thrown := []types.Type{in.syms.Throwable.Type()}
	if spMethod != nil {
		thrown = slices.Clone(spMethod.Type.Thrown)
	}
	return &types.MethodType{Params: params, Return: restype, Thrown: thrown}
}

func containsAnyUndetVar(ts []types.Type, uvs []*types.UndetVar) bool {
	return slices.ContainsFunc(ts, func(t types.Type) bool { return types.ContainsAnyUndetVar(t, uvs) })
}
