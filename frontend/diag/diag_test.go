package diag

import (
	"testing"

	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tv := types.NewTypeVar("T", nil)
	testCases := []struct {
		name     string
		diag     *Diagnostic
		expected string
	}{
		{
			name:     "type lists",
			diag:     Frag("incompatible.upper.bounds", tv, []types.Type{types.Int, types.Bot}),
			expected: "inference variable T has incompatible upper bounds int,<nulltype>",
		},
		{
			name:     "nested fragment",
			diag:     Frag("infer.no.conforming.assignment.exists", []*types.TypeVar{tv}, Frag("inconvertible.types", types.Int, types.Boolean)),
			expected: "cannot infer type-variable(s) T; argument mismatch; int cannot be converted to boolean",
		},
		{
			name:     "unknown key",
			diag:     Frag("some.key", 1, "a"),
			expected: "some.key: 1, a",
		},
		{
			name:     "missing argument",
			diag:     Frag("prob.found.req"),
			expected: "incompatible types: ",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.diag.Render())
		})
	}
}

func TestString(t *testing.T) {
	d := Frag("missing.ret.val").At(Error, "a.java", ast.Range{PosStart: 3, PosEnd: 7})
	assert.Equal(t, "a.java:3-7: error: missing return value", d.String())
	assert.Equal(t, Fragment, Frag("missing.ret.val").Kind, "At copies the diagnostic")
}

func TestDeferredBuffer(t *testing.T) {
	l := NewLog()
	restoreSource := l.UseSource("main")

	restore := l.PushDeferred(l.SameSource())
	l.Error(ast.Range{}, "missing.ret.val")
	assert.Empty(t, l.Errors())
	require.Len(t, l.DeferredDiagnostics(), 1)

	t.Run("other sources bypass the buffer", func(t *testing.T) {
		restoreOther := l.UseSource("other")
		defer restoreOther()
		l.Error(ast.Range{}, "unexpected.lambda")
		assert.Len(t, l.Errors(), 1)
	})

	t.Run("nested buffers are independent", func(t *testing.T) {
		restoreInner := l.PushDeferred(nil)
		l.Note(ast.Range{}, "deferred.method.inst", "m", "()void", "void")
		assert.Len(t, l.DeferredDiagnostics(), 1)
		restoreInner()
		assert.Len(t, l.DeferredDiagnostics(), 1)
		assert.Empty(t, l.Notes())
	})

	l.ReportDeferredDiagnostics()
	assert.Len(t, l.Errors(), 2)
	assert.Empty(t, l.DeferredDiagnostics())

	restore()
	assert.Nil(t, l.DeferredDiagnostics())
	l.Error(ast.Range{}, "unexpected.mref")
	assert.Equal(t, 3, l.ErrorCount())

	restoreSource()
	assert.Equal(t, "", l.CurrentSource())
}

func TestAssert(t *testing.T) {
	assert.NotPanics(t, func() { Assert(true, "fine") })
	defer func() {
		abort, ok := recover().(*Abort)
		require.True(t, ok)
		assert.Equal(t, "internal compiler error: broken 1", abort.Error())
	}()
	Assert(false, "broken %d", 1)
}
