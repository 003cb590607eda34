// Package resolve selects the method a call refers to among the candidates
// with its name, and checks the call against the selected method.
//
// Candidates are checked in three phases. A phase is only tried when no
// candidate was applicable in the previous one. Within a phase, the most
// specific applicable candidate is selected.
package resolve

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/deferred"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/ilerr"
	"github.com/cottand/polyinfer/frontend/infer"
	"github.com/cottand/polyinfer/frontend/scope"
	"github.com/cottand/polyinfer/frontend/types"
	"github.com/cottand/polyinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "resolve")

type Options struct {
	// Verbose reports the selected candidates and their instantiations as notes
	Verbose bool
}

type Resolver struct {
	Options
	types    *types.Types
	infer    *infer.Infer
	deferred *deferred.Engine
	log      *diag.Log
}

func New(in *infer.Infer, engine *deferred.Engine, log *diag.Log, opts Options) *Resolver {
	return &Resolver{Options: opts, types: in.Types(), infer: in, deferred: engine, log: log}
}

// Candidate is a method found applicable to a call
type Candidate struct {
	Method *types.MethodSymbol
	// Site is the type the method is a member of
	Site  types.Type
	Phase infer.Phase
	// Type is the signature found applicable. Type variables that the
	// arguments do not determine are left as declared.
	Type *types.MethodType
}

func (c *Candidate) String() string {
	return fmt.Sprintf("%s in phase %s", c.Method, c.Phase)
}

// Checked is the result of checking a call against its selected candidate
type Checked struct {
	Candidate *Candidate
	Type      *types.MethodType
	// Inst is nil for methods that are not generic or that have explicit type arguments
	Inst *infer.Instantiation
}

type failure struct {
	phase infer.Phase
	err   error
}

// FindMethod selects the candidate the call name(argtypes) refers to. Deferred
// argument types are attributed speculatively against each candidate.
//
// When no candidate is applicable, or when several are but none is most
// specific, the error is reported to the log and returned.
func (r *Resolver) FindMethod(
	env *scope.Env,
	pos ast.Positioner,
	site types.Type,
	name string,
	candidates []*types.MethodSymbol,
	argtypes, typeargs []types.Type,
) (*Candidate, error) {
	if len(candidates) == 0 {
		return nil, r.report(pos, "cant.resolve.location", "method", name+"("+r.describeArgs(argtypes, nil)+")", site)
	}
	failures := make(map[*types.MethodSymbol]failure)
	for _, phase := range infer.Phases {
		if phase.IsVarargs() && !slices.ContainsFunc(candidates, (*types.MethodSymbol).IsVarargs) {
			break
		}
		var applicable []*Candidate
		for _, m := range candidates {
			if phase.IsVarargs() && !m.IsVarargs() {
				continue
			}
			mt, _, err := r.rawInstantiate(env, pos, site, m, nil, argtypes, typeargs, phase, deferred.ModeSpeculative, nil)
			if err != nil {
				logger.Debug("candidate not applicable", "method", m, "phase", phase, "err", err)
				failures[m] = failure{phase: phase, err: err}
				continue
			}
			applicable = append(applicable, &Candidate{Method: m, Site: site, Phase: phase, Type: mt})
		}
		if len(applicable) == 0 {
			continue
		}
		best, other := r.mostSpecific(env, pos, applicable, len(argtypes))
		if other != nil {
			return nil, r.report(pos, "ref.ambiguous", name,
				best.Method, best.Method.Owner, other.Method, other.Method.Owner)
		}
		logger.Debug("selected candidate", "candidate", best, "applicable", len(applicable))
		if r.Verbose {
			r.log.Note(pos, "applicable.method.found", best.Method, phase)
		}
		return best, nil
	}
	return nil, r.reportInapplicable(pos, name, candidates, argtypes, failures)
}

// CheckMethod checks the call against the selected candidate and attributes
// its deferred arguments in place. The variables of a generic method that
// the arguments leave undetermined are solved against info.Pt.
func (r *Resolver) CheckMethod(
	env *scope.Env,
	pos ast.Positioner,
	c *Candidate,
	argtypes, typeargs []types.Type,
	info deferred.ResultInfo,
) (*Checked, error) {
	target := info.Pt
	if target == nil {
		target = types.None
	}
	// the target of a call nested in a generic call may still mention the outer call's variables
	if ic := info.Check.InferenceContext(); ic != nil && len(ic.FreeVarsIn(target)) > 0 {
		target = types.None
	}
	mt, inst, err := r.rawInstantiate(env, pos, c.Site, c.Method, target, argtypes, typeargs, c.Phase, deferred.ModeCheck, info.Check.DeferredAttrContext())
	if err != nil {
		recovered := r.deferred.NewRecoveryMap(deferred.ModeCheck, c.Method, c.Phase).ApplyAll(argtypes)
		return nil, r.report(pos, "cant.apply.symbol", c.Method.Name, c.Method.Owner,
			r.types.MemberType(c.Site, c.Method).Params, recovered, reason(err))
	}
	if inst != nil {
		for _, a := range argtypes {
			if dt, ok := a.(*deferred.DeferredType); ok {
				dt.Tree.SetType(types.SubstUndetVars(dt.Tree.Type(), inst.Context.InferenceVars(), inst.Insts))
			}
		}
		if r.Verbose {
			r.log.Note(pos, "inferred.method.inst", c.Method, mt, inst.Insts)
		}
	}
	return &Checked{Candidate: c, Type: mt, Inst: inst}, nil
}

// rawInstantiate checks m against the arguments. A generic method without
// explicit type arguments is instantiated through inference.
func (r *Resolver) rawInstantiate(
	env *scope.Env,
	pos ast.Positioner,
	site types.Type,
	m *types.MethodSymbol,
	target types.Type,
	argtypes, typeargs []types.Type,
	phase infer.Phase,
	mode deferred.Mode,
	parent *deferred.AttrContext,
) (*types.MethodType, *infer.Instantiation, error) {
	mt := r.types.MemberType(site, m)
	checker := &argumentsChecker{r: r, env: env, mode: mode, msym: m, phase: phase, parent: parent}
	switch {
	case len(typeargs) > 0 && m.IsGeneric():
		if len(typeargs) != len(m.TypeParams) {
			return nil, nil, ilerr.InapplicableError("wrong.number.type.args", len(m.TypeParams))
		}
		for i, tv := range m.TypeParams {
			for _, bound := range r.types.GetBounds(tv) {
				bound = types.Subst(bound, m.TypeParams, typeargs)
				if !r.types.IsSubtypeUnchecked(typeargs[i], bound) {
					return nil, nil, ilerr.InapplicableError("explicit.param.do.not.conform.to.bounds", typeargs[i], bound)
				}
			}
		}
		mt = types.SubstMethod(mt, m.TypeParams, typeargs)
	case m.IsGeneric():
		inst, err := r.infer.InstantiateMethod(pos, m.TypeParams, mt, target, m, argtypes, phase.AllowsBoxing(), phase.IsVarargs(), checker)
		if err != nil {
			return nil, nil, err
		}
		return inst.Method, inst, nil
	}
	if _, err := checker.CheckArguments(r.infer.EmptyContext(), argtypes, mt.Params, phase.AllowsBoxing(), phase.IsVarargs(), nil); err != nil {
		return nil, nil, err
	}
	return mt, nil, nil
}

// mostSpecific returns the most specific of the applicable candidates. When
// there is none, it returns two candidates neither of which is more specific
// than the other.
func (r *Resolver) mostSpecific(env *scope.Env, pos ast.Positioner, applicable []*Candidate, nargs int) (best, ambiguous *Candidate) {
	best = applicable[0]
	for _, c := range applicable[1:] {
		m1 := r.moreSpecific(env, pos, c, best, nargs)
		m2 := r.moreSpecific(env, pos, best, c, nargs)
		switch {
		case m1 && m2:
			// same signature: a concrete method wins over an abstract one
			if best.Method.IsAbstract() && !c.Method.IsAbstract() {
				best = c
			}
		case m1:
			best = c
		case !m2:
			ambiguous = c
		}
	}
	if ambiguous != nil {
		// a later candidate may be more specific than both
		for _, c := range applicable {
			if c == best {
				continue
			}
			if !r.moreSpecific(env, pos, best, c, nargs) {
				return best, c
			}
		}
		return best, nil
	}
	return best, nil
}

// moreSpecific reports whether c1 is more specific than c2: c2 accepts the parameter types of c1
func (r *Resolver) moreSpecific(env *scope.Env, pos ast.Positioner, c1, c2 *Candidate, nargs int) bool {
	mt1 := r.types.MemberType(c1.Site, c1.Method)
	args := mt1.Params
	phase := infer.PhaseBasic
	if c1.Phase.IsVarargs() {
		args = adjustVarargs(mt1.Params, nargs)
		phase = infer.PhaseVarArity
	}
	_, _, err := r.rawInstantiate(env, pos, c2.Site, c2.Method, nil, args, nil, phase, deferred.ModeSpeculative, nil)
	return err == nil
}

// adjustVarargs expands the trailing array parameter of a variable arity
// signature into as many element parameters as there are arguments
func adjustVarargs(params []types.Type, nargs int) []types.Type {
	if len(params) == 0 {
		return params
	}
	fixed := params[:len(params)-1]
	elem := varargsElem(params[len(params)-1])
	args := slices.Clone(fixed)
	for len(args) < max(nargs, len(params)) {
		args = append(args, elem)
	}
	return args
}

// reportInapplicable reports the failure recorded in the last phase each candidate was checked in
func (r *Resolver) reportInapplicable(pos ast.Positioner, name string, candidates []*types.MethodSymbol, argtypes []types.Type, failures map[*types.MethodSymbol]failure) error {
	if len(candidates) == 1 {
		m := candidates[0]
		f := failures[m]
		recovered := r.deferred.NewRecoveryMap(deferred.ModeSpeculative, m, f.phase).ApplyAll(argtypes)
		return r.report(pos, "cant.apply.symbol", m.Name, m.Owner, m.Type.Params, recovered, reason(f.err))
	}
	last := failures[candidates[len(candidates)-1]]
	err := r.report(pos, "cant.apply.symbols", name, r.describeArgs(argtypes, &last))
	for _, m := range candidates {
		logger.Debug("inapplicable candidate", "method", m, "phase", failures[m].phase, "reason", failures[m].err)
	}
	return err
}

func (r *Resolver) describeArgs(argtypes []types.Type, f *failure) string {
	phase := infer.PhaseBasic
	if f != nil {
		phase = f.phase
	}
	recovered := r.deferred.NewRecoveryMap(deferred.ModeSpeculative, nil, phase).ApplyAll(argtypes)
	names := make([]string, len(recovered))
	for i, t := range recovered {
		names[i] = t.String()
	}
	return strings.Join(names, ",")
}

// reason is the detail of an applicability failure, as a diagnostic fragment
func reason(err error) any {
	if inferenceErr, ok := ilerr.AsInference(err); ok {
		return inferenceErr.Diag
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func (r *Resolver) report(pos ast.Positioner, key string, args ...any) error {
	d := diag.Frag(key, args...).At(diag.Error, r.log.CurrentSource(), pos)
	r.log.Report(d)
	return ilerr.FromDiagnostic(d)
}
