package ilerr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/diag"
)

// enableDebugErrorPrinting makes errors include their stacktrace when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	Parse
	Scenario
	// Inapplicable is a plain method that does not accept its arguments
	Inapplicable
	NoInstance
	AmbiguousInstance
	InvalidInstance
	BoundViolation
	FixpointStalled
	Diagnosed
)

type IleError interface {
	Error() string
	Code() ErrCode
	ast.Positioner

	withStack([]byte) IleError
	getStack() []byte
}

func FormatWithCode(e IleError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E IleError](err E) IleError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	ast.Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e Unclassified) Unwrap() error { return e.From }

type NewParse struct {
	ast.Positioner
	ParserMessage string
	Hint          string
	stack         []byte
}

func (e NewParse) Error() string {
	if e.Hint != "" {
		return e.ParserMessage + " (" + e.Hint + ")"
	}
	return e.ParserMessage
}
func (e NewParse) Code() ErrCode    { return Parse }
func (e NewParse) getStack() []byte { return e.stack }
func (e NewParse) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewScenario is a malformed scenario description
type NewScenario struct {
	ast.Positioner
	Name   string
	Reason string
	stack  []byte
}

func (e NewScenario) Error() string {
	return fmt.Sprintf("scenario %s: %s", e.Name, e.Reason)
}
func (e NewScenario) Code() ErrCode    { return Scenario }
func (e NewScenario) getStack() []byte { return e.stack }
func (e NewScenario) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewDiagnosed wraps an error diagnostic reported to a diag.Log
type NewDiagnosed struct {
	ast.Positioner
	Diag  *diag.Diagnostic
	stack []byte
}

// FromDiagnostic turns a reported diagnostic into an IleError
func FromDiagnostic(d *diag.Diagnostic) IleError {
	return New(NewDiagnosed{Positioner: d.Range, Diag: d})
}

func (e NewDiagnosed) Error() string    { return e.Diag.String() }
func (e NewDiagnosed) Code() ErrCode    { return Diagnosed }
func (e NewDiagnosed) getStack() []byte { return e.stack }
func (e NewDiagnosed) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
