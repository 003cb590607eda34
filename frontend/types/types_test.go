package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTypes(t *testing.T) (*Types, *Arena) {
	t.Helper()
	syms := NewSymtab()
	return NewTypes(syms), syms.Root()
}

func mustType(t *testing.T, a *Arena, text string, tvars ...*TypeVar) Type {
	t.Helper()
	typ, err := a.ParseType(text, tvars...)
	require.NoError(t, err)
	return typ
}

func TestSubtyping(t *testing.T) {
	ts, arena := newTestTypes(t)
	testCases := []struct {
		sub, sup string
		expected bool
	}{
		{"Integer", "Number", true},
		{"Integer", "Object", true},
		{"Integer", "Comparable<Integer>", true},
		{"Integer", "Comparable<String>", false},
		{"Number", "Integer", false},
		{"String", "CharSequence", true},
		{"ArrayList<String>", "List<String>", true},
		{"ArrayList<String>", "Collection<String>", true},
		{"ArrayList<String>", "List<Object>", false},
		{"ArrayList<String>", "List", true},
		{"UnaryOperator<String>", "Function<String,String>", true},
		{"int", "long", true},
		{"long", "int", false},
		{"char", "int", true},
		{"short", "char", false},
		{"boolean", "int", false},
		{"String[]", "Object[]", true},
		{"int[]", "Object", true},
		{"int[]", "long[]", false},
		{"String[]", "Serializable", true},
	}
	for _, tc := range testCases {
		t.Run(tc.sub+" <: "+tc.sup, func(t *testing.T) {
			assert.Equal(t, tc.expected, ts.IsSubtype(mustType(t, arena, tc.sub), mustType(t, arena, tc.sup)))
		})
	}

	t.Run("null is below every reference", func(t *testing.T) {
		assert.True(t, ts.IsSubtype(Bot, mustType(t, arena, "List<String>")))
		assert.False(t, ts.IsSubtype(Bot, Int))
	})
	t.Run("errors are compatible with everything", func(t *testing.T) {
		assert.True(t, ts.IsSubtype(Err, Int))
		assert.True(t, ts.IsSubtype(mustType(t, arena, "String"), Err))
	})
	t.Run("raw to parameterized is unchecked", func(t *testing.T) {
		raw := mustType(t, arena, "ArrayList")
		param := mustType(t, arena, "List<String>")
		assert.False(t, ts.IsSubtype(raw, param))
		assert.True(t, ts.IsSubtypeUnchecked(raw, param))
	})
	t.Run("type variables are below their bound", func(t *testing.T) {
		tv := NewTypeVar("T", nil)
		tv.Bound = mustType(t, arena, "Comparable<T>", tv)
		assert.True(t, ts.IsSubtype(tv, mustType(t, arena, "Comparable<T>", tv)))
		assert.True(t, ts.IsSubtype(tv, ts.Syms.ObjectType))
		assert.False(t, ts.IsSubtype(ts.Syms.StringType, tv))
	})
}

type recordingConstraints struct {
	relations []string
}

func (r *recordingConstraints) Relate(uv *UndetVar, kind BoundKind, t Type) bool {
	r.relations = append(r.relations, uv.String()+" "+kind.String()+" "+t.String())
	return true
}

func TestSubtypingWithConstraints(t *testing.T) {
	ts, arena := newTestTypes(t)
	uv := &UndetVar{Ctx: 1, Index: 0, QType: NewTypeVar("T", nil)}

	t.Run("found below an inference variable is a lower bound", func(t *testing.T) {
		c := &recordingConstraints{}
		assert.True(t, ts.IsSubtypeWith(ts.Syms.StringType, uv, c))
		assert.Equal(t, []string{"?T lower String"}, c.relations)
	})
	t.Run("type arguments produce equality bounds", func(t *testing.T) {
		c := &recordingConstraints{}
		list := &ClassType{Sym: mustType(t, arena, "List").(*ClassType).Sym, Args: []Type{uv}}
		assert.True(t, ts.IsSubtypeWith(mustType(t, arena, "ArrayList<Integer>"), list, c))
		assert.Equal(t, []string{"?T eq Integer"}, c.relations)
	})
	t.Run("inference variable below a class is an upper bound", func(t *testing.T) {
		c := &recordingConstraints{}
		assert.True(t, ts.IsSubtypeWith(uv, ts.Syms.Number.Type(), c))
		assert.Equal(t, []string{"?T upper Number"}, c.relations)
	})
	t.Run("primitives never relate to inference variables", func(t *testing.T) {
		c := &recordingConstraints{}
		assert.False(t, ts.IsSubtypeWith(Int, uv, c))
		assert.Empty(t, c.relations)
	})
	t.Run("boxing a primitive relates its wrapper", func(t *testing.T) {
		c := &recordingConstraints{}
		assert.True(t, ts.IsConvertibleWith(Int, uv, true, c))
		assert.Equal(t, []string{"?T lower Integer"}, c.relations)
	})
}

func TestConversions(t *testing.T) {
	ts, arena := newTestTypes(t)
	integer := mustType(t, arena, "Integer")
	assert.True(t, ts.IsConvertible(Int, integer, true))
	assert.False(t, ts.IsConvertible(Int, integer, false))
	assert.True(t, ts.IsConvertible(integer, Long, true))
	assert.True(t, ts.IsConvertible(Int, mustType(t, arena, "Object"), true))
	assert.False(t, ts.IsConvertible(mustType(t, arena, "String"), Int, true))
	assert.Equal(t, Int, ts.Unboxed(integer))
	assert.Nil(t, ts.Unboxed(ts.Syms.Number.Type()))
	assert.Equal(t, "Character", ts.BoxedTypeOrType(Char).String())
}

func TestLub(t *testing.T) {
	ts, arena := newTestTypes(t)
	testCases := []struct {
		name     string
		types    []string
		expected string
	}{
		{"single", []string{"String"}, "String"},
		{"sub and super", []string{"Integer", "Number"}, "Number"},
		{"siblings", []string{"Integer", "Long"}, "Number&Comparable"},
		{"unrelated", []string{"Integer", "String"}, "Serializable&Comparable"},
		{"same parameterization", []string{"ArrayList<String>", "List<String>"}, "List<String>"},
		{"different parameterization", []string{"List<String>", "List<Integer>"}, "List"},
		{"arrays", []string{"Integer[]", "Long[]"}, "Number&Comparable[]"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var types []Type
			for _, text := range tc.types {
				types = append(types, mustType(t, arena, text))
			}
			assert.Equal(t, tc.expected, ts.Lub(types...).String())
		})
	}
	t.Run("null is ignored", func(t *testing.T) {
		assert.Equal(t, "String", ts.Lub(Bot, ts.Syms.StringType).String())
		assert.Equal(t, Bot, ts.Lub(Bot))
	})
	t.Run("primitives have no lub with references", func(t *testing.T) {
		assert.Equal(t, Err, ts.Lub(Int, ts.Syms.StringType))
		assert.Equal(t, Err, ts.Lub(Int, Long))
		assert.Equal(t, Int, ts.Lub(Int, Int))
	})
}

func TestGlb(t *testing.T) {
	ts, arena := newTestTypes(t)
	testCases := []struct {
		name     string
		types    []string
		expected string
	}{
		{"sub and super", []string{"Integer", "Number"}, "Integer"},
		{"object is the identity", []string{"Object", "String"}, "String"},
		{"interfaces", []string{"Serializable", "CharSequence"}, "Serializable&CharSequence"},
		{"class first", []string{"Runnable", "Number"}, "Number&Runnable"},
		{"nothing", []string{"Object"}, "Object"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var types []Type
			for _, text := range tc.types {
				types = append(types, mustType(t, arena, text))
			}
			assert.Equal(t, tc.expected, ts.Glb(types...).String())
		})
	}
	t.Run("unrelated classes have no glb", func(t *testing.T) {
		assert.Equal(t, Err, ts.Glb(ts.Syms.Integer.Type(), ts.Syms.StringType))
	})
	t.Run("primitives have no glb", func(t *testing.T) {
		assert.Equal(t, Err, ts.Glb(Int, ts.Syms.ObjectType))
	})
}

func TestFunctionalInterfaces(t *testing.T) {
	ts, arena := newTestTypes(t)
	testCases := []struct {
		typ      string
		expected string
	}{
		{"Supplier<String>", "()String"},
		{"Function<String,Integer>", "(String)Integer"},
		{"UnaryOperator<String>", "(String)String"},
		{"Comparator<Integer>", "(Integer,Integer)int"},
		{"Runnable", "()void"},
		{"Function", "(Object)Object"},
	}
	for _, tc := range testCases {
		t.Run(tc.typ, func(t *testing.T) {
			desc := ts.FindDescriptorType(mustType(t, arena, tc.typ))
			require.NotNil(t, desc)
			assert.Equal(t, tc.expected, desc.String())
		})
	}
	for _, notFunctional := range []string{"String", "List<String>", "Comparable<String>[]", "Number"} {
		t.Run(notFunctional+" is not functional", func(t *testing.T) {
			assert.False(t, ts.IsFunctionalInterface(mustType(t, arena, notFunctional)))
		})
	}
}

func TestMembers(t *testing.T) {
	ts, arena := newTestTypes(t)
	list := mustType(t, arena, "ArrayList<String>")

	gets := ts.FindMethods(list, "get")
	require.Len(t, gets, 1, "ArrayList.get overrides List.get")
	assert.Equal(t, "(int)String", ts.MemberType(list, gets[0]).String())

	compares := ts.FindMethods(ts.Syms.Integer.Type(), "compareTo")
	require.Len(t, compares, 1)
	assert.Equal(t, ts.Syms.Integer, compares[0].Owner)

	toStrings := ts.FindMethods(ts.Syms.Integer.Type(), "toString")
	assert.Len(t, toStrings, 2, "static toString(int) does not override toString()")

	raw := ts.FindMethods(mustType(t, arena, "ArrayList"), "get")
	require.Len(t, raw, 1)
	assert.Equal(t, "(int)Object", ts.MemberType(mustType(t, arena, "ArrayList"), raw[0]).String())
}

func TestArenaFork(t *testing.T) {
	syms := NewSymtab()
	root := syms.Root()
	fork := root.Fork()
	_, err := fork.DeclareUnit(`class Local extends Number { int intValue(); }`)
	require.NoError(t, err)

	_, inFork := fork.Lookup("Local")
	_, inRoot := root.Lookup("Local")
	assert.True(t, inFork)
	assert.False(t, inRoot)
	assert.Equal(t, root.Len()+1, fork.Len())
	assert.Equal(t, 1, fork.Depth())
}

func TestDeclare(t *testing.T) {
	syms := NewSymtab()
	arena := syms.Root().Fork()
	classes, err := arena.Declare(
		ClassSource{Header: "class Box<T extends Comparable<T>> implements Supplier<T>", Members: []string{
			"T get()",
			"<U> Box<U> map(Function<T, U> f)",
			"static <T extends Comparable<T>> Box<T> of(T... items)",
			"Box(T value)",
			"T value",
		}},
		ClassSource{Header: "class Pair<A, B>", Members: []string{"Box<Integer> boxed()"}},
	)
	require.NoError(t, err)
	box := classes[0]

	assert.Equal(t, "Comparable<T>", box.TypeParams[0].Bound.String())
	require.Len(t, box.Methods, 3)
	assert.Equal(t, "<U>map(Function<T,U>)", box.Methods[1].String())
	of := box.Methods[2]
	assert.True(t, of.IsVarargs())
	assert.True(t, of.IsStatic())
	assert.Equal(t, "<T>of(T...)", of.String())
	assert.NotSame(t, box.TypeParams[0], of.TypeParams[0], "method type parameters shadow the class'")
	require.Len(t, box.Ctors, 1)
	require.Len(t, box.Fields, 1)

	t.Run("cycles are rejected", func(t *testing.T) {
		_, err := syms.Root().Fork().DeclareUnit(`class A extends B {} class B extends A {}`)
		assert.ErrorContains(t, err, "cyclic inheritance")
	})
	t.Run("unknown classes are rejected", func(t *testing.T) {
		_, err := syms.Root().Fork().DeclareUnit(`class A extends Missing {}`)
		assert.ErrorContains(t, err, "Missing")
	})
}

func TestSubstAndErasure(t *testing.T) {
	ts, arena := newTestTypes(t)
	tv := NewTypeVar("T", nil)
	listOfT := mustType(t, arena, "List<T>", tv)
	assert.Equal(t, "List<String>", Subst(listOfT, []*TypeVar{tv}, []Type{ts.Syms.StringType}).String())
	assert.Equal(t, "List", ts.Erasure(listOfT).String())
	assert.True(t, ContainsAny(listOfT, []*TypeVar{tv}))
	assert.False(t, ContainsAny(ts.Syms.StringType, []*TypeVar{tv}))

	bounded := NewTypeVar("N", ts.Syms.Number.Type())
	assert.Equal(t, "Number", ts.Erasure(bounded).String())
}
