package resolve

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/deferred"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/ilerr"
	"github.com/cottand/polyinfer/frontend/infer"
	"github.com/cottand/polyinfer/frontend/scope"
	"github.com/cottand/polyinfer/frontend/types"
)

const host = `
class Host {
	static void f(int x);
	static void f(Integer x);
	static void g(Object o);
	static void g(String s);
	static void h(long x);
	static void b(Integer x);
	static void v(int... xs);
	static void amb(Integer a, int b);
	static void amb(int a, Integer b);
	static <T> T id(T t);
	static <T extends Number> T num(T t);
	static <T> List<T> list();
	static void take(Runnable r);
	static void take(String s);
}
abstract class Base {
	abstract void over(Object o);
}
class Impl extends Base {
	void over(Object o);
}
`

// lambdaAttr gives lambdas the functional interface they are checked
// against, and reports a mismatch for any other expected type
type lambdaAttr struct {
	ts    *types.Types
	calls int
}

func (a *lambdaAttr) Attribute(tree ast.Expr, _ *scope.Env, info deferred.ResultInfo) types.Type {
	a.calls++
	if a.ts.FindDescriptorType(info.Pt) == nil {
		info.Check.Report(tree, diag.Frag("not.a.functional.intf", info.Pt))
	}
	tree.SetType(info.Pt)
	return info.Pt
}

// topLevel checks a call that is not an argument of another call
type topLevel struct {
	ts *types.Types
	in *infer.Infer
}

func (c topLevel) Compatible(found, req types.Type) bool     { return c.ts.IsConvertible(found, req, true) }
func (topLevel) Report(ast.Positioner, *diag.Diagnostic)     {}
func (c topLevel) InferenceContext() *infer.InferenceContext { return c.in.EmptyContext() }
func (topLevel) DeferredAttrContext() *deferred.AttrContext  { return nil }

type fixture struct {
	syms     *types.Symtab
	ts       *types.Types
	log      *diag.Log
	infer    *infer.Infer
	attr     *lambdaAttr
	engine   *deferred.Engine
	resolver *Resolver
	env      *scope.Env
	host     *types.ClassSymbol
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	syms := types.NewSymtab()
	ts := types.NewTypes(syms)
	l := diag.NewLog()
	in := infer.New(ts, l, infer.Options{Verbose: opts.Verbose})
	a := &lambdaAttr{ts: ts}
	engine := deferred.New(a, in, l)
	arena := syms.Root().Fork()
	declared, err := arena.DeclareUnit(host)
	require.NoError(t, err)
	return &fixture{
		syms:     syms,
		ts:       ts,
		log:      l,
		infer:    in,
		attr:     a,
		engine:   engine,
		resolver: New(in, engine, l, opts),
		env:      scope.New(arena),
		host:     declared[0],
	}
}

func (f *fixture) types(t *testing.T, texts ...string) []types.Type {
	t.Helper()
	out := make([]types.Type, len(texts))
	for i, text := range texts {
		typ, err := f.env.Arena.ParseType(text)
		require.NoError(t, err)
		out[i] = typ
	}
	return out
}

func (f *fixture) find(name string, argtypes, typeargs []types.Type) (*Candidate, error) {
	site := f.host.Type()
	return f.resolver.FindMethod(f.env, ast.Range{}, site, name, f.ts.FindMethods(site, name), argtypes, typeargs)
}

func (f *fixture) top() deferred.ResultInfo {
	return deferred.ResultInfo{Pt: types.None, Check: topLevel{ts: f.ts, in: f.infer}}
}

func diagOf(t *testing.T, err error) *diag.Diagnostic {
	t.Helper()
	var diagnosed ilerr.NewDiagnosed
	require.True(t, errors.As(err, &diagnosed), "%v is not a reported diagnostic", err)
	return diagnosed.Diag
}

func TestFindMethod(t *testing.T) {
	tests := []struct {
		name   string
		method string
		args   []string
		want   string
		phase  infer.Phase
	}{
		{"exact primitive", "f", []string{"int"}, "f(int)", infer.PhaseBasic},
		{"exact box", "f", []string{"Integer"}, "f(Integer)", infer.PhaseBasic},
		{"most specific", "g", []string{"String"}, "g(String)", infer.PhaseBasic},
		{"subtype", "g", []string{"Integer"}, "g(Object)", infer.PhaseBasic},
		{"widening", "h", []string{"int"}, "h(long)", infer.PhaseBasic},
		{"boxing", "b", []string{"int"}, "b(Integer)", infer.PhaseBox},
		{"boxing to object", "g", []string{"int"}, "g(Object)", infer.PhaseBox},
		{"varargs", "v", []string{"int", "int"}, "v(int...)", infer.PhaseVarArity},
		{"empty varargs", "v", nil, "v(int...)", infer.PhaseVarArity},
		{"array for varargs", "v", []string{"int[]"}, "v(int...)", infer.PhaseBasic},
		{"generic", "id", []string{"String"}, "<T>id(T)", infer.PhaseBasic},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			c, err := f.find(test.method, f.types(t, test.args...), nil)
			require.NoError(t, err)
			assert.Equal(t, test.want, c.Method.String())
			assert.Equal(t, test.phase, c.Phase)
			assert.Zero(t, f.log.ErrorCount())
		})
	}
}

func TestFindMethodErrors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		args     []string
		typeargs []string
		key      string
		reason   string
	}{
		{"ambiguous", "amb", []string{"int", "int"}, nil, "ref.ambiguous", ""},
		{"single candidate", "h", []string{"String"}, nil, "cant.apply.symbol", "no.conforming.assignment.exists"},
		{"arity", "h", []string{"int", "int"}, nil, "cant.apply.symbol", "arg.length.mismatch"},
		{"several candidates", "f", []string{"String"}, nil, "cant.apply.symbols", ""},
		{"bad explicit type argument", "num", []string{"String"}, []string{"String"}, "cant.apply.symbol", "explicit.param.do.not.conform.to.bounds"},
		{"wrong number of type arguments", "num", []string{"Integer"}, []string{"Integer", "Integer"}, "cant.apply.symbol", "wrong.number.type.args"},
		{"no such method", "missing", nil, nil, "cant.resolve.location", ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			_, err := f.find(test.method, f.types(t, test.args...), f.types(t, test.typeargs...))
			require.Error(t, err)
			d := diagOf(t, err)
			assert.Equal(t, test.key, d.Key)
			require.Len(t, f.log.Errors(), 1)
			assert.Equal(t, d, f.log.Errors()[0])
			if test.reason != "" {
				reason, ok := d.Args[len(d.Args)-1].(*diag.Diagnostic)
				require.True(t, ok, "reason %v is not a fragment", d.Args[len(d.Args)-1])
				assert.Equal(t, test.reason, reason.Key)
			}
		})
	}
}

func TestConcreteMethodIsMoreSpecific(t *testing.T) {
	f := newFixture(t, Options{})
	base, _ := f.env.Arena.Lookup("Base")
	impl, _ := f.env.Arena.Lookup("Impl")
	candidates := []*types.MethodSymbol{base.Methods[0], impl.Methods[0]}
	c, err := f.resolver.FindMethod(f.env, ast.Range{}, impl.Type(), "over", candidates, f.types(t, "String"), nil)
	require.NoError(t, err)
	assert.Same(t, impl.Methods[0], c.Method)
}

func TestExplicitTypeArguments(t *testing.T) {
	f := newFixture(t, Options{})
	c, err := f.find("num", f.types(t, "Integer"), f.types(t, "Integer"))
	require.NoError(t, err)
	assert.Equal(t, "Integer", c.Type.Return.String())

	checked, err := f.resolver.CheckMethod(f.env, ast.Range{}, c, f.types(t, "Integer"), f.types(t, "Integer"), f.top())
	require.NoError(t, err)
	assert.Nil(t, checked.Inst)
	assert.Equal(t, "Integer", checked.Type.Return.String())
}

func TestCheckMethodTarget(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"no target", "", "List<Object>"},
		{"target", "List<String>", "List<String>"},
		{"supertype", "Collection<Integer>", "List<Integer>"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			c, err := f.find("list", nil, nil)
			require.NoError(t, err)
			info := f.top()
			if test.target != "" {
				info = info.Dup(f.types(t, test.target)[0])
			}
			checked, err := f.resolver.CheckMethod(f.env, ast.Range{}, c, nil, nil, info)
			require.NoError(t, err)
			require.NotNil(t, checked.Inst)
			assert.Equal(t, test.want, checked.Type.Return.String())
		})
	}
}

func TestVerboseNotes(t *testing.T) {
	f := newFixture(t, Options{Verbose: true})
	args := f.types(t, "String")
	c, err := f.find("id", args, nil)
	require.NoError(t, err)
	_, err = f.resolver.CheckMethod(f.env, ast.Range{}, c, args, nil, f.top())
	require.NoError(t, err)

	var keys []string
	for _, n := range f.log.Notes() {
		keys = append(keys, n.Key)
	}
	assert.Equal(t, []string{"applicable.method.found", "inferred.method.inst"}, keys)
}

func TestDeferredArgument(t *testing.T) {
	f := newFixture(t, Options{})
	tree, err := ast.ParseExpr("() -> {}")
	require.NoError(t, err)
	dt := f.engine.NewDeferredType(tree, f.env)
	args := []types.Type{dt}

	c, err := f.find("take", args, nil)
	require.NoError(t, err)
	assert.Equal(t, "take(Runnable)", c.Method.String())
	assert.Equal(t, 2, dt.Cache().Len(), "one speculative round per candidate")
	assert.Equal(t, types.None, tree.Type(), "speculative rounds attribute copies")

	_, err = f.resolver.CheckMethod(f.env, ast.Range{}, c, args, nil, f.top())
	require.NoError(t, err)
	assert.Equal(t, deferred.ModeCheck, dt.Mode())
	assert.Equal(t, "Runnable", tree.Type().String())
	assert.Equal(t, 3, f.attr.calls)
}
