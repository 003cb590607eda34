package ilerr

import (
	"github.com/pkg/errors"

	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/diag"
)

// BoundErrorKind tells which check failed when validating an instantiation against its bounds
type BoundErrorKind int

const (
	NotABoundError BoundErrorKind = iota
	// BoundBadUpper means the upper bounds have no common glb
	BoundBadUpper
	BoundUpper
	BoundLower
	BoundEq
)

func (k BoundErrorKind) String() string {
	switch k {
	case BoundBadUpper:
		return "BAD_UPPER"
	case BoundUpper:
		return "UPPER"
	case BoundLower:
		return "LOWER"
	case BoundEq:
		return "EQ"
	default:
		return "NONE"
	}
}

// Key is the diagnostic template reporting this kind of bound error
func (k BoundErrorKind) Key() string {
	switch k {
	case BoundBadUpper:
		return "incompatible.upper.bounds"
	case BoundUpper:
		return "inferred.do.not.conform.to.upper.bounds"
	case BoundLower:
		return "inferred.do.not.conform.to.lower.bounds"
	default:
		return "inferred.do.not.conform.to.eq.bounds"
	}
}

type InferenceKind int

const (
	// KindInapplicable is a non-generic method that does not accept the arguments
	KindInapplicable InferenceKind = iota
	// KindNoInstance means no instantiation of the type variables exists
	KindNoInstance
	// KindInvalidInstance means an instantiation was found but it does not accept the arguments
	KindInvalidInstance
)

func (k InferenceKind) String() string {
	switch k {
	case KindInapplicable:
		return "inapplicable"
	case KindNoInstance:
		return "no-instance"
	default:
		return "invalid-instance"
	}
}

// InferenceError is the failure of a method applicability check.
// The message is a diagnostic fragment, rendered only when the error is reported.
type InferenceError struct {
	ast.Positioner
	Kind      InferenceKind
	Ambiguous bool
	Bound     BoundErrorKind
	Diag      *diag.Diagnostic
	stack     []byte
}

func (e *InferenceError) Error() string { return e.Diag.Render() }

func (e *InferenceError) Code() ErrCode {
	switch {
	case e.Bound != NotABoundError:
		return BoundViolation
	case e.Diag != nil && (e.Diag.Key == "infer.stalled" || e.Diag.Key == "infer.fixpoint.limit"):
		return FixpointStalled
	case e.Kind == KindInapplicable:
		return Inapplicable
	case e.Kind == KindInvalidInstance:
		return InvalidInstance
	case e.Ambiguous:
		return AmbiguousInstance
	default:
		return NoInstance
	}
}

func (e *InferenceError) getStack() []byte { return e.stack }
func (e *InferenceError) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

func newInference(kind InferenceKind, ambiguous bool, d *diag.Diagnostic) *InferenceError {
	err := &InferenceError{Positioner: ast.Range{}, Kind: kind, Ambiguous: ambiguous, Diag: d}
	return New(err).(*InferenceError)
}

// NoInstance reports that no instantiation exists. Ambiguous is set when there
// are several incomparable candidates rather than none.
func NoInstanceError(ambiguous bool, key string, args ...any) *InferenceError {
	return newInference(KindNoInstance, ambiguous, diag.Frag(key, args...))
}

func InvalidInstanceError(detail *diag.Diagnostic) *InferenceError {
	return newInference(KindInvalidInstance, false, detail)
}

func InapplicableError(key string, args ...any) *InferenceError {
	return newInference(KindInapplicable, false, diag.Frag(key, args...))
}

// BoundError reports a bound violation. Before a variable is instantiated the
// violation means there is no instance at all, afterwards the instance is invalid.
func BoundError(kind BoundErrorKind, instantiated bool, args ...any) *InferenceError {
	var err *InferenceError
	if instantiated {
		err = InvalidInstanceError(diag.Frag(kind.Key(), args...))
	} else {
		err = NoInstanceError(true, kind.Key(), args...)
	}
	err.Bound = kind
	return err
}

// AsInference finds the InferenceError in err's chain
func AsInference(err error) (*InferenceError, bool) {
	var inferenceErr *InferenceError
	ok := errors.As(err, &inferenceErr)
	return inferenceErr, ok
}
