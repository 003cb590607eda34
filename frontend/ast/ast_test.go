package ast

import (
	"testing"

	"github.com/cottand/polyinfer/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) Expr {
	t.Helper()
	e, err := ParseExpr(src)
	require.NoError(t, err, src)
	return e
}

func TestParseRoundTrip(t *testing.T) {
	testCases := []struct {
		src, expected string
	}{
		{`x`, `x`},
		{`"aa"`, `"aa"`},
		{`'c'`, `'c'`},
		{`12L`, `12L`},
		{`-1`, `-1`},
		{`null`, `null`},
		{`x -> x`, `x -> x`},
		{`(a, b) -> a + b`, `(a, b) -> a + b`},
		{`(String s) -> s.length()`, `(String s) -> s.length()`},
		{`() -> { return 1; }`, `() -> { return 1; }`},
		{`String::length`, `String::length`},
		{`ArrayList::new`, `ArrayList::new`},
		{`Collections.<String>emptyList()`, `Collections.<String>emptyList()`},
		{`new ArrayList<>()`, `new ArrayList<>()`},
		{`new ArrayList<String>(10)`, `new ArrayList<String>(10)`},
		{`(Object) "a"`, `(Object) "a"`},
		{`c ? 1 : "a"`, `c ? 1 : "a"`},
		{`c ? x -> x : y -> y`, `c ? x -> x : y -> y`},
		{`(x)`, `(x)`},
		{`(x).foo`, `(x).foo`},
		{`a = b`, `a = b`},
		{`a.b.c(d, e)`, `a.b.c(d, e)`},
		{`Optional.of(1).map(x -> x + 1).orElse(0)`, `Optional.of(1).map(x -> x + 1).orElse(0)`},
		{`a == b && c < d`, `a == b && c < d`},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExprString(mustParse(t, tc.src)))
		})
	}
}

func TestParseShapes(t *testing.T) {
	t.Run("implicit lambda", func(t *testing.T) {
		lambda, ok := mustParse(t, `(a, b) -> a`).(*Lambda)
		require.True(t, ok)
		assert.Len(t, lambda.Params, 2)
		assert.False(t, lambda.IsExplicit())
		assert.NotNil(t, lambda.ExprBody())
	})
	t.Run("nullary lambda is explicit", func(t *testing.T) {
		lambda := mustParse(t, `() -> 1`).(*Lambda)
		assert.True(t, lambda.IsExplicit())
	})
	t.Run("block lambda", func(t *testing.T) {
		lambda := mustParse(t, `x -> { if (x) { return 1; } else return 2; }`).(*Lambda)
		assert.Nil(t, lambda.ExprBody())
		block, ok := lambda.Body.(*Block)
		require.True(t, ok)
		assert.IsType(t, &If{}, block.Stmts[0])
	})
	t.Run("primitive cast", func(t *testing.T) {
		cast := mustParse(t, `(int) x`).(*Cast)
		assert.Equal(t, "int", cast.Target.Name)
	})
	t.Run("parenthesized variable is not a cast", func(t *testing.T) {
		assert.IsType(t, &Binary{}, mustParse(t, `(a) + b`))
	})
	t.Run("constructor reference", func(t *testing.T) {
		ref := mustParse(t, `ArrayList::new`).(*MethodRef)
		assert.True(t, ref.IsConstructor())
		assert.Equal(t, KindReference, ref.Kind())
	})
	t.Run("diamond", func(t *testing.T) {
		n := mustParse(t, `new ArrayList<>()`).(*New)
		assert.True(t, n.Diamond)
		assert.Empty(t, n.Class.Args)
	})
	t.Run("ranges cover the source", func(t *testing.T) {
		src := `foo(x -> x)`
		call := mustParse(t, src).(*Call)
		assert.EqualValues(t, 1, call.Pos())
		assert.EqualValues(t, len(src)+1, call.End())
		assert.EqualValues(t, 5, call.Args[0].Pos())
	})
}

func TestParseStatements(t *testing.T) {
	testCases := []struct {
		src, expected string
	}{
		{`{ return; }`, `{ return; }`},
		{`{ String s = "a"; var t = s; }`, `{ String s = "a"; var t = s; }`},
		{`{ List<String> xs = new ArrayList<>(); }`, `{ List<String> xs = new ArrayList<>(); }`},
		{`{ while (b) x = y; }`, `{ while (b) x = y; }`},
		{`{ do { f(); } while (b); }`, `{ do { f(); } while (b); }`},
		{`{ for (int i = 0; i < n; i = i + 1) f(i); }`, `{ for (int i = 0; i < n; i = i + 1) f(i); }`},
		{`{ for (String s : xs) { f(s); } }`, `{ for (String s : xs) { f(s); } }`},
		{`{ switch (x) { case 1: return 1; default: return 2; } }`, `{ switch (x) { case 1: return 1; default: return 2; } }`},
		{`{ try { f(); } catch (Exception e) { g(); } finally { h(); } }`, `{ try { f(); } catch (Exception e) { g(); } finally { h(); } }`},
		{`{ synchronized (lock) { f(); } }`, `{ synchronized (lock) { f(); } }`},
		{`{ throw new RuntimeException(); }`, `{ throw new RuntimeException(); }`},
		{`{ class Box<T> { T get(); } }`, `{ class Box<T> { T get(); } }`},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			b, err := ParseBlock(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, StmtString(b))
		})
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []string{
		`(a, String b) -> a`,
		`foo(`,
		`1 = 2`,
		`x y`,
		`"unterminated`,
		`a.<String>b`,
	}
	for _, src := range testCases {
		t.Run(src, func(t *testing.T) {
			_, err := ParseExpr(src)
			assert.Error(t, err)
		})
	}
	_, err := ParseBlock(`{ try { f(); } }`)
	assert.ErrorContains(t, err, "try without catch or finally")
	_, err = ParseBlock(`{ var x; }`)
	assert.Error(t, err)
}

func TestCopyExpr(t *testing.T) {
	src := `foo(x -> { for (String s : xs) { return s; } return x; }, c ? a::b : new Box<>(1))`
	orig := mustParse(t, src)
	orig.SetType(types.Int)
	copied := CopyExpr(orig)

	assert.NotSame(t, orig, copied)
	assert.Equal(t, ExprString(orig), ExprString(copied))
	assert.Equal(t, orig.Hash(), copied.Hash())
	assert.Equal(t, types.None, copied.Type(), "attributed types are not copied")

	origLambda := orig.(*Call).Args[0].(*Lambda)
	copiedLambda := copied.(*Call).Args[0].(*Lambda)
	assert.NotSame(t, origLambda.Body, copiedLambda.Body)
}

func TestHashDistinguishesNodes(t *testing.T) {
	a := mustParse(t, `foo(x)`)
	b := mustParse(t, `foo(y)`)
	c := mustParse(t, `bar(x)`)
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.Equal(t, a.Hash(), mustParse(t, `foo(x)`).Hash())
}

func TestUnparen(t *testing.T) {
	e := mustParse(t, `((x))`)
	assert.IsType(t, &Ident{}, Unparen(e))
}
