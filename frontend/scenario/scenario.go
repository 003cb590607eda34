// Package scenario reads self-contained inference problems from YAML and
// solves them.
//
// A scenario declares a few classes, some local variables and one
// expression, which is attributed against an optional target type:
//
//	name: choose
//	classes: |
//	  class Host { static <T> T choose(Supplier<T> s); }
//	expr: choose(() -> "x")
//	expect:
//	  type: String
package scenario

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/attr"
	"github.com/cottand/polyinfer/frontend/deferred"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/ilerr"
	"github.com/cottand/polyinfer/frontend/scope"
	"github.com/cottand/polyinfer/frontend/types"
	"github.com/cottand/polyinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "scenario")

// Scenario is one inference problem
type Scenario struct {
	// Name identifies the scenario in diagnostics. Defaults to the base name of the file it was read from.
	Name string `yaml:"name,omitempty"`

	// Classes holds class declarations in signature syntax, e.g.
	//
	//	class Box<T> { static <T> Box<T> of(T t); T get(); }
	//
	// The predefined classes (Object, String, List, Supplier, ...) are always visible.
	Classes string `yaml:"classes,omitempty"`

	// Owner is the class whose methods unqualified calls refer to.
	// Defaults to the first class in Classes.
	Owner string `yaml:"owner,omitempty"`

	// Locals maps the name of each local variable in scope to its type
	Locals map[string]string `yaml:"locals,omitempty"`

	// Expr is the expression to attribute
	Expr string `yaml:"expr"`

	// Target is the type Expr is expected to have. No type is expected when empty.
	Target string `yaml:"target,omitempty"`

	// Verbose keeps resolution and instantiation notes among the diagnostics
	Verbose bool `yaml:"verbose,omitempty"`

	// MaxFixpointPasses bounds the passes over stuck arguments of one call.
	// Zero means no limit.
	MaxFixpointPasses int `yaml:"max_fixpoint_passes,omitempty"`

	// Expect, when present, is what solving the scenario should produce
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome of a scenario
type Expect struct {
	// Type is the attributed type of the expression, as printed
	Type string `yaml:"type,omitempty"`
	// Errors are the keys of the reported errors, in order
	Errors []string `yaml:"errors,omitempty"`
}

// Load reads the scenario in the YAML file at path
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario %s", path)
	}
	return Parse(data, path)
}

// Parse reads a scenario from YAML. path names the scenario when it has no name of its own.
func Parse(data []byte, path string) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "parsing scenario %s", path)
	}
	if s.Name == "" && path != "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	invalid := func(reason string) error {
		return ilerr.New(ilerr.NewScenario{Positioner: ast.Range{}, Name: s.Name, Reason: reason})
	}
	switch {
	case strings.TrimSpace(s.Expr) == "":
		return invalid("no expression to attribute")
	case s.MaxFixpointPasses < 0:
		return invalid("max_fixpoint_passes must not be negative")
	case s.Owner != "" && strings.TrimSpace(s.Classes) == "":
		return invalid("owner " + s.Owner + " given without classes")
	}
	for name, typ := range s.Locals {
		if name == "" || strings.TrimSpace(typ) == "" {
			return invalid("local variables need a name and a type")
		}
	}
	return nil
}

// Instantiation is the solution inferred for one generic call
type Instantiation struct {
	Method    string
	Signature string
	// Vars pairs each type variable with its instantiation, as in "T=String"
	Vars []string
}

func (i Instantiation) String() string {
	return i.Method + " [" + strings.Join(i.Vars, ", ") + "]"
}

// Result is what solving a scenario produced
type Result struct {
	Scenario *Scenario
	Tree     ast.Expr
	Type     types.Type
	// Instantiations are the inferred signatures of the generic calls, in the order they were checked
	Instantiations []Instantiation
	// Diagnostics are the reported errors, and the notes when the scenario is verbose
	Diagnostics []*diag.Diagnostic
	// Errors holds the reported errors with their codes
	Errors *ilerr.Errors
}

// ErrorKeys are the keys of the errors reported while solving, in order
func (r *Result) ErrorKeys() []string {
	var keys []string
	for _, d := range r.Diagnostics {
		if d.Kind == diag.Error {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// Mismatches lists how the result differs from what the scenario expects
func (r *Result) Mismatches() []string {
	want := r.Scenario.Expect
	if want == nil {
		return nil
	}
	var out []string
	if want.Type != "" && want.Type != r.Type.String() {
		out = append(out, "type: expected "+want.Type+", found "+r.Type.String())
	}
	if want.Errors != nil || len(r.ErrorKeys()) > 0 {
		if got := r.ErrorKeys(); !slices.Equal(want.Errors, got) {
			out = append(out, "errors: expected ["+strings.Join(want.Errors, ", ")+"], found ["+strings.Join(got, ", ")+"]")
		}
	}
	return out
}

// Run solves s. The observer, when not nil, is told how deferred arguments
// get stuck and how their fixpoint passes go.
//
// Type errors in the scenario are reported in the Result. The returned error
// is for scenarios that cannot be set up, and for internal failures.
func Run(s *Scenario, observer deferred.Observer) (res *Result, err error) {
	syms := types.NewSymtab()
	arena := syms.Root().Fork()
	var declared []*types.ClassSymbol
	if strings.TrimSpace(s.Classes) != "" {
		declared, err = arena.DeclareUnit(s.Classes)
		if err != nil {
			return nil, errors.Wrapf(err, "scenario %s: declaring classes", s.Name)
		}
	}
	env, err := s.env(arena, declared)
	if err != nil {
		return nil, err
	}
	tree, err := ast.ParseExpr(s.Expr)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s: expression", s.Name)
	}
	pt := types.Type(types.None)
	if s.Target != "" {
		if pt, err = arena.ParseType(s.Target); err != nil {
			return nil, errors.Wrapf(err, "scenario %s: target", s.Name)
		}
	}

	l := diag.NewLog()
	defer l.UseSource(s.Name)()
	// instantiations are read back from the notes, so those are always on
	a := attr.New(syms, l, attr.Options{Verbose: true, MaxFixpointPasses: s.MaxFixpointPasses})
	a.Engine().Observer = observer

	defer func() {
		if r := recover(); r != nil {
			abort, ok := r.(*diag.Abort)
			if !ok {
				panic(r)
			}
			res, err = nil, errors.Wrapf(abort, "scenario %s", s.Name)
		}
	}()
	logger.Debug("solving scenario", "name", s.Name, "expr", ast.Slog(tree), "target", pt)
	found := a.Check(tree, env, pt)

	res = &Result{Scenario: s, Tree: tree, Type: found, Errors: ilerr.FromLog(l)}
	for _, d := range l.All() {
		if d.Kind == diag.Note && d.Key == "inferred.method.inst" {
			res.Instantiations = append(res.Instantiations, instantiationOf(d))
		}
		if d.Kind == diag.Error || s.Verbose {
			res.Diagnostics = append(res.Diagnostics, d)
		}
	}
	logger.Debug("solved scenario", "name", s.Name, "type", found, "errors", res.Errors)
	return res, nil
}

// env is the scope the expression of s is attributed in
func (s *Scenario) env(arena *types.Arena, declared []*types.ClassSymbol) (*scope.Env, error) {
	env := scope.New(arena)
	switch {
	case s.Owner != "":
		owner, ok := env.LookupClass(s.Owner)
		if !ok {
			return nil, ilerr.New(ilerr.NewScenario{Positioner: ast.Range{}, Name: s.Name, Reason: "unknown owner class " + s.Owner})
		}
		env.Owner = owner
	case len(declared) > 0:
		env.Owner = declared[0]
	}
	for _, name := range slices.Sorted(maps.Keys(s.Locals)) {
		typ, err := arena.ParseType(s.Locals[name])
		if err != nil {
			return nil, errors.Wrapf(err, "scenario %s: local %s", s.Name, name)
		}
		if err := env.Declare(&scope.Var{Name: name, Type: typ}); err != nil {
			return nil, errors.Wrapf(err, "scenario %s", s.Name)
		}
	}
	return env, nil
}

// instantiationOf reads an inferred.method.inst note
func instantiationOf(note *diag.Diagnostic) Instantiation {
	m := note.Args[0].(*types.MethodSymbol)
	inst := Instantiation{Method: m.String(), Signature: note.Args[1].(*types.MethodType).String()}
	for i, t := range note.Args[2].([]types.Type) {
		if i < len(m.TypeParams) {
			inst.Vars = append(inst.Vars, m.TypeParams[i].String()+"="+t.String())
		}
	}
	return inst
}
