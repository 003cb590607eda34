package infer

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/benbjohnson/immutable"

	"github.com/cottand/polyinfer/frontend/ilerr"
	"github.com/cottand/polyinfer/frontend/types"
)

// Var is the state of one inference variable: its bounds and, once solved, its instantiation.
//
// Bound lists are persistent. Substituting into them builds new lists, so a
// snapshot taken before a speculative step stays valid.
type Var struct {
	Ref  *types.UndetVar
	Eq   *immutable.List[types.Type]
	Hi   *immutable.List[types.Type]
	Lo   *immutable.List[types.Type]
	Inst types.Type
}

func (v *Var) String() string {
	if v.Inst != nil {
		return fmt.Sprintf("%s := %s", v.Ref, v.Inst)
	}
	return fmt.Sprintf("%s{eq: %v, hi: %v, lo: %v}", v.Ref, listSlice(v.Eq), listSlice(v.Hi), listSlice(v.Lo))
}

func (v *Var) LogValue() slog.Value {
	return slog.StringValue(v.String())
}

func (v *Var) bounds(kind types.BoundKind) *immutable.List[types.Type] {
	switch kind {
	case types.BoundEq:
		return v.Eq
	case types.BoundUpper:
		return v.Hi
	default:
		return v.Lo
	}
}

func (v *Var) setBounds(kind types.BoundKind, l *immutable.List[types.Type]) {
	switch kind {
	case types.BoundEq:
		v.Eq = l
	case types.BoundUpper:
		v.Hi = l
	default:
		v.Lo = l
	}
}

// FreeTypeListener is notified once all the variables it was registered for are instantiated
type FreeTypeListener interface {
	TypesInferred(ic *InferenceContext)
}

type listenerEntry struct {
	vars     []*types.UndetVar
	listener FreeTypeListener
}

// InferenceContext owns the inference variables of one method instantiation.
//
// It is the types.Constraints handed to subtyping checks, so checking an
// argument against a formal mentioning its variables records bounds on them.
type InferenceContext struct {
	id        uint64
	infer     *Infer
	tvars     []*types.TypeVar
	vars      []*Var
	undet     []*types.UndetVar
	listeners []listenerEntry
}

func (in *Infer) newContext(tvars []*types.TypeVar) *InferenceContext {
	in.contexts++
	ic := &InferenceContext{id: in.contexts, infer: in, tvars: tvars}
	for i, tv := range tvars {
		uv := &types.UndetVar{Ctx: ic.id, Index: i, QType: tv}
		ic.undet = append(ic.undet, uv)
		ic.vars = append(ic.vars, &Var{
			Ref: uv,
			Eq:  immutable.NewList[types.Type](),
			Lo:  immutable.NewList[types.Type](),
		})
	}
	// declared bounds may mention any of the method's type variables
	for i, tv := range tvars {
		hi := types.SubstList(in.types.GetBounds(tv), tvars, ic.undetTypes())
		ic.vars[i].Hi = immutable.NewList(hi...)
	}
	return ic
}

// NewContext creates an inference context for tvars. Their declared bounds become upper bounds.
func (in *Infer) NewContext(tvars []*types.TypeVar) *InferenceContext {
	return in.newContext(tvars)
}

func (ic *InferenceContext) undetTypes() []types.Type {
	ts := make([]types.Type, len(ic.undet))
	for i, uv := range ic.undet {
		ts[i] = uv
	}
	return ts
}

// InferenceVars returns the variables of ic in declaration order
func (ic *InferenceContext) InferenceVars() []*types.UndetVar { return ic.undet }

// TypeVars returns the declared type variables ic infers
func (ic *InferenceContext) TypeVars() []*types.TypeVar { return ic.tvars }

func (ic *InferenceContext) Vars() []*Var { return ic.vars }

// Var returns the state of uv, or nil when uv belongs to another context
func (ic *InferenceContext) Var(uv *types.UndetVar) *Var {
	if uv == nil || uv.Ctx != ic.id || uv.Index >= len(ic.vars) || ic.undet[uv.Index] != uv {
		return nil
	}
	return ic.vars[uv.Index]
}

func (ic *InferenceContext) IsInferenceVar(t types.Type) bool {
	uv, ok := t.(*types.UndetVar)
	return ok && ic.Var(uv) != nil
}

// FreeVarsIn returns the variables of ic that ts mention and that are not instantiated yet
func (ic *InferenceContext) FreeVarsIn(ts ...types.Type) []*types.UndetVar {
	var free []*types.UndetVar
	for _, uv := range types.UndetVarsIn(ts...) {
		if v := ic.Var(uv); v != nil && v.Inst == nil {
			free = append(free, uv)
		}
	}
	return free
}

// AsUndetType replaces the declared type variables of ic in t with their inference variables
func (ic *InferenceContext) AsUndetType(t types.Type) types.Type {
	return types.Subst(t, ic.tvars, ic.undetTypes())
}

// AsInstType replaces the instantiated variables of ic in t with their instantiation
func (ic *InferenceContext) AsInstType(t types.Type) types.Type {
	var from []*types.UndetVar
	var to []types.Type
	for _, v := range ic.vars {
		if v.Inst != nil {
			from = append(from, v.Ref)
			to = append(to, v.Inst)
		}
	}
	return types.SubstUndetVars(t, from, to)
}

// InstTypes returns, for each variable, its instantiation or the variable itself when still free
func (ic *InferenceContext) InstTypes() []types.Type {
	insts := make([]types.Type, len(ic.vars))
	for i, v := range ic.vars {
		if v.Inst != nil {
			insts[i] = v.Inst
		} else {
			insts[i] = v.Ref
		}
	}
	return insts
}

// Relate implements types.Constraints
func (ic *InferenceContext) Relate(uv *types.UndetVar, kind types.BoundKind, t types.Type) bool {
	v := ic.Var(uv)
	if v == nil {
		return false
	}
	ts := ic.infer.types
	if v.Inst != nil {
		switch kind {
		case types.BoundEq:
			return ts.IsSameTypeWith(v.Inst, t, ic)
		case types.BoundUpper:
			return ts.IsSubtypeWith(v.Inst, t, ic)
		default:
			return ts.IsSubtypeWith(t, v.Inst, ic)
		}
	}
	if other, ok := t.(*types.UndetVar); ok && other == uv {
		return true
	}
	ic.addBound(v, kind, t)
	return true
}

func (ic *InferenceContext) addBound(v *Var, kind types.BoundKind, t types.Type) {
	l := v.bounds(kind)
	for it := l.Iterator(); !it.Done(); {
		if _, b := it.Next(); ic.infer.types.IsSameType(b, t) {
			return
		}
	}
	logger.Debug("new bound", "var", v.Ref, "kind", kind, "bound", t)
	v.setBounds(kind, l.Append(t))
}

// AddFreeTypeListener registers l to be called once every variable in vars is instantiated
func (ic *InferenceContext) AddFreeTypeListener(vars []*types.UndetVar, l FreeTypeListener) {
	ic.listeners = append(ic.listeners, listenerEntry{vars: slices.Clone(vars), listener: l})
}

// NotifyChange calls, and unregisters, the listeners whose variables are all instantiated
func (ic *InferenceContext) NotifyChange() {
	var fire []FreeTypeListener
	ic.listeners = slices.DeleteFunc(ic.listeners, func(e listenerEntry) bool {
		for _, uv := range e.vars {
			if v := ic.Var(uv); v != nil && v.Inst == nil {
				return false
			}
		}
		fire = append(fire, e.listener)
		return true
	})
	for _, l := range fire {
		l.TypesInferred(ic)
	}
}

// SolveAny instantiates the variables in vars whose bounds do not depend on
// another free variable of ic. When every one of them does, the first is
// solved from its independent bounds alone. It fails when vars has no free variable.
func (ic *InferenceContext) SolveAny(vars []*types.UndetVar) error {
	free := ic.FreeVarsIn(undetsAsTypes(vars)...)
	if len(free) == 0 {
		return ilerr.NoInstanceError(false, "infer.stalled", vars)
	}
	var ready []*Var
	for _, uv := range free {
		v := ic.Var(uv)
		if !ic.dependsOnFree(v) {
			ready = append(ready, v)
		}
	}
	if len(ready) == 0 {
		ready = []*Var{ic.Var(free[0])}
		logger.Debug("no independent variable, solving the first one", "var", ready[0])
	}
	for _, v := range ready {
		if err := ic.solve(v); err != nil {
			return err
		}
		logger.Debug("solved stuck variable", "var", v)
	}
	return nil
}

func (ic *InferenceContext) dependsOnFree(v *Var) bool {
	for _, l := range []*immutable.List[types.Type]{v.Eq, v.Hi, v.Lo} {
		for _, t := range listSlice(l) {
			if slices.ContainsFunc(ic.FreeVarsIn(t), func(uv *types.UndetVar) bool { return uv != v.Ref }) {
				return true
			}
		}
	}
	return false
}

// solve instantiates v from the bounds that mention no free variable:
// an equality constraint, else the lub of the lower bounds, else the glb of the upper bounds
func (ic *InferenceContext) solve(v *Var) error {
	if eq := ic.independent(v.Eq); len(eq) > 0 {
		v.Inst = eq[0]
		return nil
	}
	// bounds are restored afterwards, they are still checked once the method is instantiated
	snapshot := *v
	defer func() { v.Eq, v.Hi, v.Lo = snapshot.Eq, snapshot.Hi, snapshot.Lo }()
	v.Eq = immutable.NewList[types.Type]()
	if lo := ic.independent(v.Lo); len(lo) > 0 {
		v.Lo = immutable.NewList(lo...)
		if err := ic.infer.minimizeInst(v); err != nil || v.Inst.Tag() != types.TagBot {
			return err
		}
		v.Inst = nil
	}
	v.Hi = immutable.NewList(ic.independent(v.Hi)...)
	return ic.infer.maximizeInst(v)
}

// independent returns the bounds in l that mention no free variable of ic,
// with the instantiated ones substituted
func (ic *InferenceContext) independent(l *immutable.List[types.Type]) []types.Type {
	var out []types.Type
	for _, t := range listSlice(l) {
		if len(ic.FreeVarsIn(t)) == 0 {
			out = append(out, ic.AsInstType(t))
		}
	}
	return out
}

func (ic *InferenceContext) LogValue() slog.Value {
	attrs := make([]slog.Attr, len(ic.vars))
	for i, v := range ic.vars {
		attrs[i] = slog.String(v.Ref.String(), v.String())
	}
	return slog.GroupValue(attrs...)
}

func undetsAsTypes(uvs []*types.UndetVar) []types.Type {
	ts := make([]types.Type, len(uvs))
	for i, uv := range uvs {
		ts[i] = uv
	}
	return ts
}

func listSlice(l *immutable.List[types.Type]) []types.Type {
	if l == nil {
		return nil
	}
	out := make([]types.Type, 0, l.Len())
	for it := l.Iterator(); !it.Done(); {
		_, t := it.Next()
		out = append(out, t)
	}
	return out
}

func substList(l *immutable.List[types.Type], from []*types.UndetVar, to []types.Type) *immutable.List[types.Type] {
	ts := listSlice(l)
	for i, t := range ts {
		ts[i] = types.SubstUndetVars(t, from, to)
	}
	return immutable.NewList(ts...)
}
