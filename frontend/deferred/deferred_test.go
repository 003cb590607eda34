package deferred

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/ilerr"
	"github.com/cottand/polyinfer/frontend/infer"
	"github.com/cottand/polyinfer/frontend/scope"
	"github.com/cottand/polyinfer/frontend/types"
)

type attribution struct {
	tree        ast.Expr
	speculative bool
	pt          types.Type
}

// fakeAttr gives every tree the type result, and reports an error when report is set.
// It aborts after reporting when fail is set.
type fakeAttr struct {
	log    *diag.Log
	result types.Type
	report bool
	fail   bool
	calls  []attribution
}

func (a *fakeAttr) Attribute(tree ast.Expr, env *scope.Env, info ResultInfo) types.Type {
	a.calls = append(a.calls, attribution{tree: tree, speculative: env.Speculative, pt: info.Pt})
	if a.report {
		a.log.Error(tree, "cant.resolve", "symbol", "y")
	}
	if a.fail {
		diag.Fail("attributing %s", ast.ExprString(tree))
	}
	tree.SetType(a.result)
	return a.result
}

type testCheck struct {
	ctx *AttrContext
}

func (testCheck) Compatible(types.Type, types.Type) bool      { return true }
func (testCheck) Report(ast.Positioner, *diag.Diagnostic)     {}
func (c testCheck) InferenceContext() *infer.InferenceContext { return c.ctx.Infer }
func (c testCheck) DeferredAttrContext() *AttrContext         { return c.ctx }

type fixture struct {
	arena  *types.Arena
	ts     *types.Types
	log    *diag.Log
	infer  *infer.Infer
	attr   *fakeAttr
	engine *Engine
	env    *scope.Env
}

func newFixture(t *testing.T, opts infer.Options) *fixture {
	t.Helper()
	syms := types.NewSymtab()
	ts := types.NewTypes(syms)
	l := diag.NewLog()
	in := infer.New(ts, l, opts)
	a := &fakeAttr{log: l, result: syms.StringType}
	return &fixture{
		arena:  syms.Root(),
		ts:     ts,
		log:    l,
		infer:  in,
		attr:   a,
		engine: New(a, in, l),
		env:    scope.New(syms.Root()),
	}
}

func (f *fixture) expr(t *testing.T, src string) ast.Expr {
	t.Helper()
	e, err := ast.ParseExpr(src)
	require.NoError(t, err)
	return e
}

func (f *fixture) typ(t *testing.T, text string) types.Type {
	t.Helper()
	typ, err := f.arena.ParseType(text)
	require.NoError(t, err)
	return typ
}

// formal parses a generic method and returns it with an inference context
// for its type parameters and its first formal in terms of inference variables
func (f *fixture) formal(t *testing.T, sig string) (*types.MethodSymbol, *infer.InferenceContext, types.Type) {
	t.Helper()
	m, err := f.arena.ParseMethod(sig)
	require.NoError(t, err)
	ic := f.infer.NewContext(m.TypeParams)
	return m, ic, ic.AsUndetType(m.Type.Params[0])
}

func names(uvs []*types.UndetVar) []string {
	out := make([]string, len(uvs))
	for i, uv := range uvs {
		out[i] = uv.String()
	}
	return out
}

func TestStuckVars(t *testing.T) {
	f := newFixture(t, infer.Options{})
	testCases := []struct {
		name     string
		sig      string
		arg      string
		expected []string
	}{
		{name: "implicit lambda", sig: "<T> void m(Function<T, String> f)", arg: "x -> x", expected: []string{"?T"}},
		{name: "explicit lambda", sig: "<T> void m(Function<T, String> f)", arg: "(Integer x) -> x"},
		{name: "lambda against a variable", sig: "<T> void m(T t)", arg: "x -> x", expected: []string{"?T"}},
		{name: "lambda with free return only", sig: "<R> void m(Function<String, R> f)", arg: "x -> x"},
		{name: "method reference", sig: "<T> void m(Function<T, String> f)", arg: "Object::toString", expected: []string{"?T"}},
		{name: "method reference against a variable", sig: "<T> void m(T t)", arg: "Object::toString", expected: []string{"?T"}},
		{name: "parenthesized", sig: "<T> void m(Function<T, String> f)", arg: "((x -> x))", expected: []string{"?T"}},
		{
			name:     "conditional branches",
			sig:      "<A, B> void m(BiFunction<A, B, String> f)",
			arg:      "flag ? (x, y) -> x : (x, y) -> y",
			expected: []string{"?A", "?B"},
		},
		{
			name:     "nested lambda in expression body",
			sig:      "<R> void m(Function<String, Function<R, String>> f)",
			arg:      "x -> y -> x",
			expected: []string{"?R"},
		},
		{
			name:     "nested lambda in returned expression",
			sig:      "<R> void m(Function<String, Function<R, String>> f)",
			arg:      "x -> { if (x.isEmpty()) { return y -> x; } return null; }",
			expected: []string{"?R"},
		},
		{
			name: "conditional condition",
			sig:  "<A, B> void m(BiFunction<A, B, String> f)",
			arg:  "(x -> x) ? (String x, String y) -> x : (String x, String y) -> y",
		},
		{name: "method invocation", sig: "<T> void m(T t)", arg: "foo(x -> x)"},
		{name: "not a functional interface", sig: "<T> void m(List<T> l)", arg: "x -> x"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, ic, pt := f.formal(t, tc.sig)
			stuck := f.engine.StuckVars(f.expr(t, tc.arg), pt, ic)
			assert.ElementsMatch(t, tc.expected, names(stuck))
		})
	}

	t.Run("none or erroneous target", func(t *testing.T) {
		_, ic, _ := f.formal(t, "<T> void m(Function<T, String> f)")
		assert.Empty(t, f.engine.StuckVars(f.expr(t, "x -> x"), types.None, ic))
		assert.Empty(t, f.engine.StuckVars(f.expr(t, "x -> x"), infer.AnyPoly, ic))
	})
}

func TestSpeculativeRoundLeavesTreeUntouched(t *testing.T) {
	f := newFixture(t, infer.Options{})
	f.attr.report = true
	m, ic, pt := f.formal(t, "<T> void m(Supplier<T> s)")
	tree := f.expr(t, "() -> y")
	dt := f.engine.NewDeferredType(tree, f.env)
	ctx := f.engine.NewContext(ModeSpeculative, m, infer.PhaseBasic, ic, nil)

	found := dt.Check(ResultInfo{Pt: pt, Check: testCheck{ctx}})

	assert.Equal(t, "String", found.String())
	assert.True(t, types.IsNone(tree.Type()), "the original tree is not attributed")
	assert.Empty(t, f.log.Errors(), "speculative diagnostics are discarded")
	require.Len(t, f.attr.calls, 1)
	assert.True(t, f.attr.calls[0].speculative)
	assert.NotSame(t, tree, f.attr.calls[0].tree)
	assert.Equal(t, ModeSpeculative, dt.Mode())

	copied := dt.SpeculativeTree(ctx)
	require.NotNil(t, copied)
	assert.Equal(t, "String", copied.Type().String())
	assert.Equal(t, "String", dt.SpeculativeType(m, infer.PhaseBasic).String())
	assert.True(t, types.IsNone(dt.SpeculativeType(m, infer.PhaseBox)))
}

func TestSpeculativeAbortFlushesDiagnostics(t *testing.T) {
	f := newFixture(t, infer.Options{})
	f.attr.report = true
	f.attr.fail = true
	m, ic, pt := f.formal(t, "<T> void m(Supplier<T> s)")
	ctx := f.engine.NewContext(ModeSpeculative, m, infer.PhaseBasic, ic, nil)
	tree := f.expr(t, "() -> y")

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		f.engine.AttribSpeculative(tree, f.env, ResultInfo{Pt: pt, Check: testCheck{ctx}})
	}()

	abort, ok := recovered.(*diag.Abort)
	require.True(t, ok, "expected an abort, got %v", recovered)
	assert.Equal(t, "attributing () -> y", abort.Msg)
	require.Len(t, f.log.All(), 1, "the buffered error is reported before the abort propagates")
	assert.Equal(t, "cant.resolve", f.log.All()[0].Key)
	assert.Equal(t, diag.Error, f.log.All()[0].Kind)
	assert.Empty(t, f.log.DeferredDiagnostics(), "the speculative buffer is uninstalled")
}

func TestSpeculativeCache(t *testing.T) {
	f := newFixture(t, infer.Options{})
	m, ic, pt := f.formal(t, "<T> void m(Supplier<T> s)")
	other, _, _ := f.formal(t, "<T> void other(Supplier<T> s)")
	dt := f.engine.NewDeferredType(f.expr(t, "() -> 1"), f.env)

	check := func(msym *types.MethodSymbol, phase infer.Phase) {
		ctx := f.engine.NewContext(ModeSpeculative, msym, phase, ic, nil)
		dt.Check(ResultInfo{Pt: pt, Check: testCheck{ctx}})
	}
	check(m, infer.PhaseBasic)
	check(m, infer.PhaseBox)
	check(other, infer.PhaseBasic)
	assert.Equal(t, 3, dt.Cache().Len())

	assert.PanicsWithError(t, "internal compiler error: second speculative round of () -> 1 for "+m.String()+" in phase BASIC", func() {
		check(m, infer.PhaseBasic)
	})

	third, _, _ := f.formal(t, "<T> void third(Supplier<T> s)")
	dt.Cache().DupAllTo(m, third)
	assert.Equal(t, 5, dt.Cache().Len())
	assert.Same(t, dt.SpeculativeTree(f.engine.NewContext(ModeSpeculative, m, infer.PhaseBox, ic, nil)),
		dt.SpeculativeTree(f.engine.NewContext(ModeSpeculative, third, infer.PhaseBox, ic, nil)))
	assert.Equal(t, types.None, dt.SpeculativeType(third, infer.PhaseVarArity))

	dt.Cache().Clear()
	assert.Zero(t, dt.Cache().Len())
}

func TestCheckRound(t *testing.T) {
	f := newFixture(t, infer.Options{})
	m, ic, pt := f.formal(t, "<T> void m(Supplier<T> s)")
	tree := f.expr(t, "() -> 1")

	t.Run("requires a speculative round", func(t *testing.T) {
		dt := f.engine.NewDeferredType(tree, f.env)
		ctx := f.engine.NewContext(ModeCheck, m, infer.PhaseBasic, ic, nil)
		assert.Panics(t, func() { dt.Check(ResultInfo{Pt: pt, Check: testCheck{ctx}}) })
	})

	t.Run("attributes the original tree", func(t *testing.T) {
		dt := f.engine.NewDeferredType(tree, f.env)
		speculativeCtx := f.engine.NewContext(ModeSpeculative, m, infer.PhaseBasic, ic, nil)
		dt.Check(ResultInfo{Pt: pt, Check: testCheck{speculativeCtx}})

		ctx := f.engine.NewContext(ModeCheck, m, infer.PhaseBasic, ic, nil)
		found := dt.Check(ResultInfo{Pt: pt, Check: testCheck{ctx}})
		assert.Equal(t, "String", found.String())
		assert.Equal(t, "String", tree.Type().String())
		assert.Equal(t, ModeCheck, dt.Mode())

		assert.Equal(t, "String", f.engine.NewTypeMap(ModeCheck, m, infer.PhaseBasic).Apply(dt).String())
		assert.Equal(t, "String", f.engine.NewTypeMap(ModeSpeculative, m, infer.PhaseBasic).Apply(dt).String())
	})

	t.Run("outside of a method check", func(t *testing.T) {
		dt := f.engine.NewDeferredType(tree, f.env)
		assert.Panics(t, func() { dt.Check(ResultInfo{Pt: pt, Check: testCheck{f.engine.EmptyContext()}}) })
	})
}

func TestStuckArgumentIsCompletedOnceInstantiated(t *testing.T) {
	f := newFixture(t, infer.Options{})
	m, ic, pt := f.formal(t, "<T> void m(Function<T, String> f)")
	dt := f.engine.NewDeferredType(f.expr(t, "x -> x.toString()"), f.env)
	ctx := f.engine.NewContext(ModeSpeculative, m, infer.PhaseBasic, ic, nil)

	found := dt.Check(ResultInfo{Pt: pt, Check: testCheck{ctx}})
	assert.True(t, types.IsNone(found))
	assert.Equal(t, 1, ctx.Pending())
	assert.Empty(t, f.attr.calls)
	assert.Equal(t, ModeNone, dt.Mode())

	uv := ic.InferenceVars()[0]
	require.True(t, ic.Relate(uv, types.BoundLower, f.typ(t, "Integer")))
	require.NoError(t, ctx.Complete())

	assert.Equal(t, 0, ctx.Pending())
	assert.Equal(t, "Integer", ic.Var(uv).Inst.String())
	require.Len(t, f.attr.calls, 1)
	assert.Equal(t, "Function<Integer,String>", f.attr.calls[0].pt.String())
	assert.Equal(t, "String", dt.SpeculativeType(m, infer.PhaseBasic).String())
}

type recordingObserver struct {
	stuck  int
	passes []int
}

func (o *recordingObserver) Stuck(*DeferredType, []*types.UndetVar) { o.stuck++ }
func (o *recordingObserver) Pass(_ *AttrContext, pass, processed int, _ []*types.UndetVar) {
	o.passes = append(o.passes, processed)
}

func TestComplete(t *testing.T) {
	t.Run("nothing pending", func(t *testing.T) {
		f := newFixture(t, infer.Options{})
		m, ic, _ := f.formal(t, "<T> void m(T t)")
		assert.NoError(t, f.engine.NewContext(ModeSpeculative, m, infer.PhaseBasic, ic, nil).Complete())
	})

	t.Run("solves variables when stuck", func(t *testing.T) {
		f := newFixture(t, infer.Options{})
		obs := &recordingObserver{}
		f.engine.Observer = obs
		m, ic, pt := f.formal(t, "<A, B> void m(BiFunction<A, B, String> f)")
		ctx := f.engine.NewContext(ModeSpeculative, m, infer.PhaseBasic, ic, nil)
		dt := f.engine.NewDeferredType(f.expr(t, "(x, y) -> x"), f.env)
		dt.Check(ResultInfo{Pt: pt, Check: testCheck{ctx}})

		require.NoError(t, ctx.Complete())
		assert.Equal(t, 1, obs.stuck)
		assert.Equal(t, []int{0, 1}, obs.passes)
		require.Len(t, f.attr.calls, 1)
		assert.Equal(t, "BiFunction<Object,Object,String>", f.attr.calls[0].pt.String())
	})

	t.Run("gives up after the pass limit", func(t *testing.T) {
		f := newFixture(t, infer.Options{MaxFixpointPasses: 1})
		m, ic, pt := f.formal(t, "<T> void m(Function<T, String> f)")
		ctx := f.engine.NewContext(ModeSpeculative, m, infer.PhaseBasic, ic, nil)
		f.engine.NewDeferredType(f.expr(t, "x -> x"), f.env).Check(ResultInfo{Pt: pt, Check: testCheck{ctx}})

		err := ctx.Complete()
		require.Error(t, err)
		inferenceErr, ok := ilerr.AsInference(err)
		require.True(t, ok)
		assert.Equal(t, ilerr.FixpointStalled, inferenceErr.Code())
		assert.Equal(t, "infer.fixpoint.limit", inferenceErr.Diag.Key)
		require.NotEmpty(t, inferenceErr.Diag.Args)
		assert.Equal(t, []string{"?T"}, names(inferenceErr.Diag.Args[0].([]*types.UndetVar)))
		assert.Equal(t, "cannot infer type-variable(s) T; gave up after 1 passes", inferenceErr.Error())
	})

	t.Run("empty context", func(t *testing.T) {
		f := newFixture(t, infer.Options{})
		assert.Panics(t, func() { _ = f.engine.EmptyContext().Complete() })
	})
}

func TestRecoveryMap(t *testing.T) {
	f := newFixture(t, infer.Options{})
	m, _, _ := f.formal(t, "<T> void m(T t)")
	lambda := f.engine.NewDeferredType(f.expr(t, "x -> x"), f.env)
	ident := f.engine.NewDeferredType(f.expr(t, "y"), f.env)

	plain := f.engine.NewTypeMap(ModeSpeculative, m, infer.PhaseBasic)
	assert.Panics(t, func() { plain.Apply(lambda) }, "a deferred type must be attributed before it is mapped")

	recovery := f.engine.NewRecoveryMap(ModeSpeculative, m, infer.PhaseBasic)
	mapped := recovery.ApplyAll([]types.Type{lambda, ident, types.Int})
	assert.Same(t, lambda, mapped[0], "lambdas are shown as written")
	assert.Equal(t, "String", mapped[1].String())
	assert.Equal(t, types.Int, mapped[2])
	require.Len(t, f.attr.calls, 2)
	for _, c := range f.attr.calls {
		assert.Equal(t, infer.AnyPoly, c.pt)
	}
}
