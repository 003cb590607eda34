package diag

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "diag")

// Filter decides whether a diagnostic goes into the deferred buffer
type Filter func(*Diagnostic) bool

// Log collects reported diagnostics.
//
// While a deferred buffer is installed (see PushDeferred), diagnostics accepted
// by its filter are queued there instead of being reported; this is how
// speculative attribution keeps its errors private.
type Log struct {
	source string

	reported []*Diagnostic

	deferredFilter      Filter
	deferredDiagnostics *[]*Diagnostic
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) CurrentSource() string { return l.source }

// UseSource sets the source file that diagnostics are attributed to,
// and returns a function restoring the previous one
func (l *Log) UseSource(name string) (restore func()) {
	prev := l.source
	l.source = name
	return func() { l.source = prev }
}

// Report emits d, or queues it when a deferred buffer accepts it
func (l *Log) Report(d *Diagnostic) {
	if d.Source == "" {
		d.Source = l.source
	}
	if l.deferredDiagnostics != nil && (l.deferredFilter == nil || l.deferredFilter(d)) {
		*l.deferredDiagnostics = append(*l.deferredDiagnostics, d)
		logger.Debug("deferred diagnostic", "diag", d)
		return
	}
	l.emit(d)
}

func (l *Log) emit(d *Diagnostic) {
	l.reported = append(l.reported, d)
	switch d.Kind {
	case Error:
		logger.Warn("reported error", "diag", d)
	default:
		logger.Info(fmt.Sprint("reported ", d.Kind), "diag", d)
	}
}

// Error reports an error of the given template key at pos
func (l *Log) Error(pos ast.Positioner, key string, args ...any) {
	l.Report(Frag(key, args...).At(Error, l.source, pos))
}

// Note reports a note of the given template key at pos
func (l *Log) Note(pos ast.Positioner, key string, args ...any) {
	l.Report(Frag(key, args...).At(Note, l.source, pos))
}

// PushDeferred installs a fresh deferred buffer with the given filter,
// returning a function that drops it and reinstates the previous buffer.
func (l *Log) PushDeferred(filter Filter) (restore func()) {
	prevFilter, prevQueue := l.deferredFilter, l.deferredDiagnostics
	l.deferredFilter = filter
	l.deferredDiagnostics = &[]*Diagnostic{}
	return func() {
		l.deferredFilter, l.deferredDiagnostics = prevFilter, prevQueue
	}
}

// SameSource is a Filter accepting diagnostics of the current source file only
func (l *Log) SameSource() Filter {
	current := l.source
	return func(d *Diagnostic) bool { return d.Source == current }
}

// DeferredDiagnostics are the diagnostics queued in the current buffer
func (l *Log) DeferredDiagnostics() []*Diagnostic {
	if l.deferredDiagnostics == nil {
		return nil
	}
	return *l.deferredDiagnostics
}

// ReportDeferredDiagnostics reports and empties the current deferred buffer
func (l *Log) ReportDeferredDiagnostics() {
	if l.deferredDiagnostics == nil {
		return
	}
	queued := *l.deferredDiagnostics
	*l.deferredDiagnostics = nil
	for _, d := range queued {
		l.emit(d)
	}
}

func (l *Log) All() []*Diagnostic { return l.reported }

func (l *Log) Errors() []*Diagnostic { return l.ofKind(Error) }

func (l *Log) Notes() []*Diagnostic { return l.ofKind(Note) }

func (l *Log) ErrorCount() int { return len(l.Errors()) }

func (l *Log) ofKind(kind Kind) []*Diagnostic {
	var found []*Diagnostic
	for _, d := range l.reported {
		if d.Kind == kind {
			found = append(found, d)
		}
	}
	return found
}

func (l *Log) LogValue() slog.Value {
	var attrs []slog.Attr
	for i, d := range l.reported {
		attrs = append(attrs, slog.Any(fmt.Sprint("d", i), d))
	}
	return slog.GroupValue(attrs...)
}

// Abort is raised, as a panic, when an internal invariant of the compiler does not hold.
// It is never a user error and is not recovered from, except to flush diagnostics.
type Abort struct {
	Msg   string
	Stack []byte
}

func (a *Abort) Error() string { return "internal compiler error: " + a.Msg }

// Assert panics with an *Abort when cond does not hold
func Assert(cond bool, format string, args ...any) {
	if !cond {
		Fail(format, args...)
	}
}

// Fail panics with an *Abort
func Fail(format string, args ...any) {
	panic(&Abort{Msg: fmt.Sprintf(format, args...), Stack: debug.Stack()})
}
