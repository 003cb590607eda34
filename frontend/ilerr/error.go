package ilerr

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cottand/polyinfer/frontend/diag"
)

// Errors accumulates the errors of one compilation.
// A nil *Errors is empty.
type Errors struct {
	errs []IleError
}

func (r *Errors) With(err ...IleError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil {
		return r
	}
	if len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

// FromLog collects the errors reported to l
func FromLog(l *diag.Log) *Errors {
	var errs *Errors
	for _, d := range l.Errors() {
		errs = errs.With(FromDiagnostic(d))
	}
	return errs
}

func (r *Errors) Errors() []IleError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return len(r.errs) > 0
}

func (r *Errors) Error() string {
	msgs := make([]string, len(r.Errors()))
	for i, err := range r.Errors() {
		msgs[i] = FormatWithCode(err)
	}
	return strings.Join(msgs, "\n")
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
			),
		})
	}
	return slog.GroupValue(vals...)
}
