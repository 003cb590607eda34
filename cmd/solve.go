package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cottand/polyinfer/frontend/deferred"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/scenario"
	"github.com/cottand/polyinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "cli")

var SolveCmd = &cobra.Command{
	Use:          "solve scenario.yaml...",
	Short:        "Solve inference scenarios and print the types and instantiations found",
	RunE:         runSolve,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

type flags struct {
	logLevel *int
	sections *[]string
	verbose  *bool
	dump     *bool
}

var solveFlags flags

func init() {
	solveFlags = addFlags(SolveCmd)
}

func addFlags(c *cobra.Command) flags {
	return flags{
		logLevel: c.Flags().IntP("log-level", "l", int(slog.LevelWarn), "log level"),
		sections: c.Flags().StringSlice("sections", []string{"infer", "deferred"}, "sections whose debug logs are shown, * for all"),
		verbose:  c.Flags().BoolP("verbose", "v", false, "print resolution and instantiation notes"),
		dump:     c.Flags().Bool("dump", false, "dump the raw result"),
	}
}

func (f flags) apply() {
	log.SetLevel(slog.Level(*f.logLevel))
	log.EnableSections(*f.sections...)
}

func runSolve(cmd *cobra.Command, args []string) error {
	solveFlags.apply()
	return solveAll(cmd.OutOrStdout(), args, solveFlags, func(io.Writer) deferred.Observer { return nil })
}

// solveAll solves every scenario file in paths, and fails when any of
// them does not turn out as it expects
func solveAll(out io.Writer, paths []string, f flags, observe func(io.Writer) deferred.Observer) error {
	p := printer{w: out, color: isTerminal(out)}
	var failed []string
	for _, path := range paths {
		s, err := scenario.Load(path)
		if err != nil {
			return err
		}
		s.Verbose = s.Verbose || *f.verbose
		logger.Debug("loaded scenario", "path", path, "name", s.Name)

		p.header(s)
		res, err := scenario.Run(s, observe(out))
		if err != nil {
			return errors.Wrap(err, "could not solve scenario (this is a bug and not a type error)")
		}
		p.result(res)
		if *f.dump {
			dumper.Fdump(out, res)
		}

		mismatches := res.Mismatches()
		p.mismatches(mismatches)
		if len(mismatches) > 0 || s.Expect == nil && len(res.ErrorKeys()) > 0 {
			failed = append(failed, s.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("scenarios failed: %s", strings.Join(failed, ", "))
	}
	return nil
}

var dumper = spew.ConfigState{Indent: "  ", MaxDepth: 4, DisablePointerAddresses: true, DisableCapacities: true}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const (
	red   = "\x1b[31m"
	green = "\x1b[32m"
	faint = "\x1b[2m"
	reset = "\x1b[0m"
)

type printer struct {
	w     io.Writer
	color bool
}

func (p printer) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + reset
}

func (p printer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

func (p printer) header(s *scenario.Scenario) {
	p.printf("%s\n", s.Name)
	if s.Target != "" {
		p.printf("  %s  (target %s)\n", s.Expr, s.Target)
	} else {
		p.printf("  %s\n", s.Expr)
	}
}

func (p printer) result(res *scenario.Result) {
	p.printf("  type: %s\n", res.Type)
	for _, inst := range res.Instantiations {
		p.printf("  %s %s\n", p.paint(faint, "inferred"), inst)
	}
	for _, d := range res.Diagnostics {
		switch d.Kind {
		case diag.Error:
			p.printf("  %s\n", p.paint(red, d.String()))
		default:
			p.printf("  %s\n", p.paint(faint, d.String()))
		}
	}
}

func (p printer) mismatches(mismatches []string) {
	for _, m := range mismatches {
		p.printf("  %s %s\n", p.paint(red, "mismatch"), m)
	}
	if len(mismatches) == 0 {
		p.printf("  %s\n", p.paint(green, "ok"))
	}
}
