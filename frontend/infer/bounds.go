package infer

import (
	"github.com/cottand/polyinfer/frontend/ilerr"
	"github.com/cottand/polyinfer/frontend/types"
)

// maximizeInst instantiates v to the greatest type below all its upper bounds,
// or to its equality constraint when there is one
func (in *Infer) maximizeInst(v *Var) error {
	hibounds := filterErroneous(listSlice(v.Hi))
	if v.Eq.Len() > 0 {
		v.Inst = v.Eq.Get(0)
		return nil
	}
	switch len(hibounds) {
	case 0:
		v.Inst = in.syms.ObjectType
	case 1:
		v.Inst = hibounds[0]
	default:
		v.Inst = in.types.Glb(hibounds...)
	}
	if v.Inst == nil || types.IsErroneous(v.Inst) {
		v.Inst = nil
		return ilerr.NoInstanceError(true, "no.unique.maximal.instance.exists", v.Ref.QType, hibounds)
	}
	return nil
}

// minimizeInst instantiates v to the least type above all its lower bounds,
// or to its equality constraint when there is one. Without lower bounds v is
// instantiated to the null type, which callers treat as still undetermined.
func (in *Infer) minimizeInst(v *Var) error {
	if v.Eq.Len() > 0 {
		v.Inst = v.Eq.Get(0)
		return nil
	}
	lobounds := filterErroneous(listSlice(v.Lo))
	switch len(lobounds) {
	case 0:
		v.Inst = types.Bot
	case 1:
		if types.IsPrimitive(lobounds[0]) {
			v.Inst = types.Err
		} else {
			v.Inst = lobounds[0]
		}
	default:
		v.Inst = in.types.Lub(lobounds...)
	}
	if v.Inst == nil || v.Inst.Tag() == types.TagError {
		v.Inst = nil
		return ilerr.NoInstanceError(true, "no.unique.minimal.instance.exists", v.Ref.QType, lobounds)
	}
	return nil
}

// checkWithinBounds substitutes insts into the bounds of every variable of ic,
// then checks each instantiation against its bounds. insts holds the variable
// itself for the ones left undetermined, and those are only checked for
// compatible upper bounds.
func (in *Infer) checkWithinBounds(ic *InferenceContext, insts []types.Type) error {
	for i, v := range ic.vars {
		v.Hi = substList(v.Hi, ic.undet, insts)
		v.Lo = substList(v.Lo, ic.undet, insts)
		v.Eq = substList(v.Eq, ic.undet, insts)

		if err := in.checkCompatibleUpperBounds(ic, v); err != nil {
			return err
		}
		inst := insts[i]
		if ic.IsInferenceVar(inst) {
			continue
		}
		for _, u := range listSlice(v.Hi) {
			if !in.types.IsSubtypeUncheckedWith(inst, u, ic) {
				return reportBoundError(v, ilerr.BoundUpper)
			}
		}
		for _, l := range listSlice(v.Lo) {
			if !in.types.IsSubtypeUncheckedWith(l, inst, ic) {
				return reportBoundError(v, ilerr.BoundLower)
			}
		}
		for _, e := range listSlice(v.Eq) {
			if !in.types.IsSameTypeWith(inst, e, ic) {
				return reportBoundError(v, ilerr.BoundEq)
			}
		}
	}
	return nil
}

// checkCompatibleUpperBounds fails when the upper bounds of v that are known
// types have no greatest lower bound
func (in *Infer) checkCompatibleUpperBounds(ic *InferenceContext, v *Var) error {
	var hibounds []types.Type
	for _, t := range filterErroneous(listSlice(v.Hi)) {
		if !types.ContainsAnyUndetVar(t, ic.undet) {
			hibounds = append(hibounds, t)
		}
	}
	var glb types.Type
	switch len(hibounds) {
	case 0:
		glb = in.syms.ObjectType
	case 1:
		glb = hibounds[0]
	default:
		glb = in.types.Glb(hibounds...)
	}
	if glb == nil || types.IsErroneous(glb) {
		return reportBoundError(v, ilerr.BoundBadUpper)
	}
	return nil
}

func reportBoundError(v *Var, kind ilerr.BoundErrorKind) error {
	instantiated := v.Inst != nil
	switch kind {
	case ilerr.BoundBadUpper:
		return ilerr.BoundError(kind, instantiated, v.Ref.QType, listSlice(v.Hi))
	case ilerr.BoundUpper:
		return ilerr.BoundError(kind, instantiated, v.Inst, listSlice(v.Hi))
	case ilerr.BoundLower:
		return ilerr.BoundError(kind, instantiated, v.Inst, listSlice(v.Lo))
	default:
		return ilerr.BoundError(kind, instantiated, v.Inst, listSlice(v.Eq))
	}
}

func filterErroneous(ts []types.Type) []types.Type {
	out := ts[:0:0]
	for _, t := range ts {
		if !types.IsErroneous(t) {
			out = append(out, t)
		}
	}
	return out
}
