package ilerr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/types"
)

func TestInferenceErrorCodes(t *testing.T) {
	tv := types.NewTypeVar("T", nil)
	testCases := []struct {
		name     string
		err      *InferenceError
		code     ErrCode
		expected string
	}{
		{
			name:     "unambiguous",
			err:      NoInstanceError(false, "infer.arg.length.mismatch", []*types.TypeVar{tv}),
			code:     NoInstance,
			expected: "(E004) cannot infer type-variable(s) T; actual and formal argument lists differ in length",
		},
		{
			name:     "ambiguous",
			err:      NoInstanceError(true, "no.unique.minimal.instance.exists", tv, []types.Type{types.Int}),
			code:     AmbiguousInstance,
			expected: "(E005) no unique minimal instance exists for type variable T with lower bounds int",
		},
		{
			name: "invalid",
			err:  InvalidInstanceError(diag.Frag("arg.length.mismatch")),
			code: InvalidInstance,
		},
		{
			name: "bound before instantiation",
			err:  BoundError(BoundBadUpper, false, tv, []types.Type{types.Int}),
			code: BoundViolation,
		},
		{
			name: "stalled",
			err:  NoInstanceError(false, "infer.stalled", []*types.TypeVar{tv}),
			code: FixpointStalled,
		},
		{
			name: "inapplicable",
			err:  InapplicableError("arg.length.mismatch"),
			code: Inapplicable,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code())
			if tc.expected != "" {
				assert.Equal(t, tc.expected, FormatWithCode(tc.err))
			}
		})
	}
}

func TestBoundErrorKinds(t *testing.T) {
	err := BoundError(BoundLower, true, types.Int, []types.Type{types.Bot})
	assert.Equal(t, KindInvalidInstance, err.Kind)
	assert.Equal(t, BoundLower, err.Bound)
	assert.Equal(t, "inferred.do.not.conform.to.lower.bounds", err.Diag.Key)

	err = BoundError(BoundEq, false, types.Int, []types.Type{types.Bot})
	assert.Equal(t, KindNoInstance, err.Kind)
	assert.True(t, err.Ambiguous)
}

func TestAsInference(t *testing.T) {
	wrapped := errors.Wrap(InapplicableError("arg.length.mismatch"), "checking foo")
	found, ok := AsInference(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindInapplicable, found.Kind)

	_, ok = AsInference(errors.New("other"))
	assert.False(t, ok)
}

func TestErrorsFromLog(t *testing.T) {
	l := diag.NewLog()
	assert.False(t, FromLog(l).HasError())

	l.Error(ast.Range{PosStart: 1, PosEnd: 2}, "unexpected.lambda")
	l.Note(ast.Range{}, "deferred.method.inst", "m", "()void", "void")
	errs := FromLog(l)
	require.True(t, errs.HasError())
	require.Len(t, errs.Errors(), 1)
	assert.Equal(t, Diagnosed, errs.Errors()[0].Code())
	assert.Contains(t, errs.Error(), "lambda expression not expected here")

	var nilErrs *Errors
	assert.Equal(t, errs, nilErrs.Merge(errs))
}
