package deferred

import (
	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/infer"
	"github.com/cottand/polyinfer/frontend/types"
)

// TypeMap replaces deferred types with the type their tree got in a previous
// attribution round: the speculative round for a method and phase, or the
// check round.
type TypeMap struct {
	ctx      *AttrContext
	recovery bool
}

func (e *Engine) NewTypeMap(mode Mode, msym *types.MethodSymbol, phase infer.Phase) *TypeMap {
	return &TypeMap{ctx: e.NewContext(mode, msym, phase, e.infer.EmptyContext(), nil)}
}

// NewRecoveryMap is NewTypeMap for reporting errors. Deferred types that were
// never attributed in mode are attributed against no particular target,
// and lambdas, method references and conditionals map to themselves so that
// diagnostics show them as written.
func (e *Engine) NewRecoveryMap(mode Mode, msym *types.MethodSymbol, phase infer.Phase) *TypeMap {
	m := e.NewTypeMap(mode, msym, phase)
	m.recovery = true
	return m
}

func (m *TypeMap) Apply(t types.Type) types.Type {
	return types.Map(t, func(t types.Type) (types.Type, bool) {
		dt, ok := t.(*DeferredType)
		if !ok {
			return nil, false
		}
		if m.recovery {
			return m.recover(dt), true
		}
		diag.Assert(m.validState(dt), "deferred type %s mapped in mode %v but attributed in mode %v", dt, m.ctx.Mode, dt.mode)
		return m.typeOf(dt), true
	})
}

func (m *TypeMap) ApplyAll(ts []types.Type) []types.Type {
	out := make([]types.Type, len(ts))
	for i, t := range ts {
		out[i] = m.Apply(t)
	}
	return out
}

func (m *TypeMap) validState(dt *DeferredType) bool {
	return dt.mode != ModeNone && m.ctx.Mode <= dt.mode
}

func (m *TypeMap) typeOf(dt *DeferredType) types.Type {
	switch m.ctx.Mode {
	case ModeCheck:
		return dt.Tree.Type()
	case ModeSpeculative:
		return dt.SpeculativeType(m.ctx.Msym, m.ctx.Phase)
	}
	diag.Fail("unexpected deferred attribution mode %v", m.ctx.Mode)
	return nil
}

func (m *TypeMap) recover(dt *DeferredType) types.Type {
	if t := m.typeOf(dt); !types.IsNone(t) {
		return t
	}
	// the tree may be stuck or half checked: attribute a copy and leave dt alone
	tree := dt.engine.AttribSpeculative(dt.Tree, dt.Env, ResultInfo{Pt: infer.AnyPoly, Check: recoveryCheck{ctx: m.ctx}})
	switch ast.Unparen(dt.Tree).(type) {
	case *ast.Lambda, *ast.MethodRef, *ast.Conditional:
		return dt
	}
	if types.IsNone(tree.Type()) {
		return m.ctx.engine.types.Syms.ObjectType
	}
	return tree.Type()
}

// recoveryCheck accepts anything and reports nothing
type recoveryCheck struct {
	ctx *AttrContext
}

func (recoveryCheck) Compatible(types.Type, types.Type) bool      { return true }
func (recoveryCheck) Report(ast.Positioner, *diag.Diagnostic)     {}
func (c recoveryCheck) InferenceContext() *infer.InferenceContext { return c.ctx.Infer }
func (c recoveryCheck) DeferredAttrContext() *AttrContext         { return c.ctx }
