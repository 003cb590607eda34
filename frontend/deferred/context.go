package deferred

import (
	"log/slog"
	"slices"

	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/ilerr"
	"github.com/cottand/polyinfer/frontend/infer"
	"github.com/cottand/polyinfer/frontend/types"
)

// AttrContext collects the deferred arguments of one applicability check
// that are stuck on inference variables, and completes them once those
// variables can be instantiated.
type AttrContext struct {
	Mode   Mode
	Msym   *types.MethodSymbol
	Phase  infer.Phase
	Infer  *infer.InferenceContext
	Parent *AttrContext

	engine  *Engine
	nodes   []*attrNode
	isEmpty bool
}

// EmptyContext is the context of checks made outside of any method applicability check.
// Nothing can be deferred on it.
func (e *Engine) EmptyContext() *AttrContext { return e.empty }

func (e *Engine) NewContext(mode Mode, msym *types.MethodSymbol, phase infer.Phase, ic *infer.InferenceContext, parent *AttrContext) *AttrContext {
	if parent == nil {
		parent = e.empty
	}
	return &AttrContext{Mode: mode, Msym: msym, Phase: phase, Infer: ic, Parent: parent, engine: e}
}

func (c *AttrContext) IsEmpty() bool { return c.isEmpty }

// Pending is the number of deferred arguments waiting on inference variables
func (c *AttrContext) Pending() int { return len(c.nodes) }

// AddDeferredAttrNode queues dt, to be checked against info once none of
// stuck is free any longer
func (c *AttrContext) AddDeferredAttrNode(dt *DeferredType, info ResultInfo, stuck []*types.UndetVar) {
	diag.Assert(!c.isEmpty, "deferred %s stuck on %v outside of a method check", dt, stuck)
	n := &attrNode{dt: dt, info: info, stuck: slices.Clone(stuck)}
	c.Infer.AddFreeTypeListener(stuck, n)
	c.nodes = append(c.nodes, n)
	logger.Debug("deferred argument is stuck", "tree", dt, "vars", stuck, "method", c.Msym, "mode", c.Mode)
}

// Complete checks the queued arguments whose inference variables are
// instantiated, and loops until none is left. When a pass makes no
// progress, the variables the remaining arguments are stuck on are solved
// eagerly. It fails when those variables cannot be solved, or when
// infer.Options.MaxFixpointPasses is exceeded.
func (c *AttrContext) Complete() error {
	diag.Assert(!c.isEmpty, "completing the empty deferred attribution context")
	limit := c.engine.infer.MaxFixpointPasses
	// the variables of the last pass that made no progress, solved eagerly since
	var stalled []*types.UndetVar
	for pass := 1; len(c.nodes) > 0; pass++ {
		if limit > 0 && pass > limit {
			if free := c.Infer.FreeVarsIn(c.stuckTypes()...); len(free) > 0 {
				stalled = free
			}
			return ilerr.NoInstanceError(false, "infer.fixpoint.limit", stalled, limit)
		}
		processed := 0
		for _, n := range slices.Clone(c.nodes) {
			if len(n.stuck) > 0 {
				continue
			}
			c.nodes = slices.DeleteFunc(c.nodes, func(other *attrNode) bool { return other == n })
			n.process(c)
			processed++
		}
		stuck := c.Infer.FreeVarsIn(c.stuckTypes()...)
		if c.engine.Observer != nil {
			c.engine.Observer.Pass(c, pass, processed, stuck)
		}
		logger.Debug("deferred attribution pass", "pass", pass, "processed", processed, "left", len(c.nodes), "stuck", stuck)
		if processed == 0 {
			stalled = stuck
			if err := c.Infer.SolveAny(stuck); err != nil {
				return err
			}
			c.Infer.NotifyChange()
		}
	}
	return nil
}

// stuckTypes lists, without repetition, the variables the queued nodes are stuck on
func (c *AttrContext) stuckTypes() []types.Type {
	seen := types.NewUndetVarSet()
	var out []types.Type
	for _, n := range c.nodes {
		for _, uv := range n.stuck {
			if seen.Insert(uv) {
				out = append(out, uv)
			}
		}
	}
	return out
}

func (c *AttrContext) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("mode", c.Mode.String()),
		slog.Any("method", c.Msym),
		slog.String("phase", c.Phase.String()),
		slog.Int("pending", len(c.nodes)),
	)
}

// attrNode is a deferred argument waiting for inference variables
type attrNode struct {
	dt    *DeferredType
	info  ResultInfo
	stuck []*types.UndetVar
}

// TypesInferred implements infer.FreeTypeListener
func (n *attrNode) TypesInferred(ic *infer.InferenceContext) {
	n.stuck = nil
	n.info = n.info.Dup(ic.AsInstType(n.info.Pt))
}

func (n *attrNode) process(c *AttrContext) {
	diag.Assert(len(n.stuck) == 0, "processing %s while stuck on %v", n.dt, n.stuck)
	n.dt.Check(n.info)
}
