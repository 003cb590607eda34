// Package diag holds structured compiler diagnostics and the Log they are reported to.
//
// A Diagnostic is a message template key plus positional arguments. It is only
// rendered to text when someone asks for it, so that inference failures which
// are caught and discarded during overload resolution cost nothing to build.
package diag

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/types"
)

type Kind int

const (
	// Fragment is a diagnostic nested inside another one, never reported on its own
	Fragment Kind = iota
	Error
	Warning
	Note
)

func (k Kind) String() string {
	switch k {
	case Fragment:
		return "fragment"
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "note"
	}
}

type Diagnostic struct {
	Kind   Kind
	Source string
	Range  ast.Range
	Key    string
	Args   []any
}

// Frag builds a fragment, to be used as the argument of another diagnostic
// or as the detail of an inference failure
func Frag(key string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: Fragment, Key: key, Args: args}
}

// At returns a copy of d of the given kind, positioned at pos
func (d *Diagnostic) At(kind Kind, source string, pos ast.Positioner) *Diagnostic {
	cp := *d
	cp.Kind, cp.Source, cp.Range = kind, source, ast.RangeOf(pos)
	return &cp
}

// Render formats the message for d, rendering nested fragments recursively
func (d *Diagnostic) Render() string {
	if d == nil {
		return ""
	}
	template, ok := templates[d.Key]
	if !ok {
		rendered := make([]string, len(d.Args))
		for i, arg := range d.Args {
			rendered[i] = renderArg(arg)
		}
		return d.Key + ": " + strings.Join(rendered, ", ")
	}
	var sb strings.Builder
	for i := 0; i < len(template); i++ {
		if template[i] != '{' {
			sb.WriteByte(template[i])
			continue
		}
		end := strings.IndexByte(template[i:], '}')
		if end < 0 {
			sb.WriteString(template[i:])
			break
		}
		index, err := strconv.Atoi(template[i+1 : i+end])
		if err != nil {
			sb.WriteByte(template[i])
			continue
		}
		if index < len(d.Args) {
			sb.WriteString(renderArg(d.Args[index]))
		}
		i += end
	}
	return sb.String()
}

// String is the rendered message prefixed with its position, like a compiler would print it
func (d *Diagnostic) String() string {
	if d.Kind == Fragment {
		return d.Render()
	}
	where := d.Source
	if d.Range != (ast.Range{}) {
		where = fmt.Sprintf("%s:%v", where, d.Range)
	}
	if where == "" {
		return fmt.Sprintf("%v: %s", d.Kind, d.Render())
	}
	return fmt.Sprintf("%s: %v: %s", where, d.Kind, d.Render())
}

func (d *Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("key", d.Key),
		slog.String("msg", d.Render()),
		slog.String("at", d.Range.String()),
	)
}

func renderArg(arg any) string {
	switch arg := arg.(type) {
	case nil:
		return "<none>"
	case *Diagnostic:
		return arg.Render()
	case []types.Type:
		return joinTypes(arg)
	case []*types.TypeVar:
		return joinTypes(types.TypeVarsOf(arg))
	case []*types.UndetVar:
		ts := make([]types.Type, len(arg))
		for i, uv := range arg {
			ts[i] = uv.QType
		}
		return joinTypes(ts)
	case *types.UndetVar:
		return arg.QType.String()
	case fmt.Stringer:
		return arg.String()
	default:
		return fmt.Sprint(arg)
	}
}

func joinTypes(ts []types.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = renderArg(t)
	}
	return strings.Join(parts, ",")
}
