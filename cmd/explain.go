package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cottand/polyinfer/frontend/deferred"
	"github.com/cottand/polyinfer/frontend/types"
)

var ExplainCmd = &cobra.Command{
	Use:   "explain scenario.yaml...",
	Short: "Solve inference scenarios, showing which deferred arguments get stuck and how they are resolved",
	Long: `explain solves scenarios like solve does, and also prints every
deferred argument that had to wait on inference variables, together with
the passes made over the waiting arguments of each call.`,
	RunE:         runExplain,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var explainFlags flags

func init() {
	explainFlags = addFlags(ExplainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	explainFlags.apply()
	return solveAll(cmd.OutOrStdout(), args, explainFlags, func(w io.Writer) deferred.Observer {
		return &tracer{w: w}
	})
}

// tracer prints how deferred attribution progresses
type tracer struct {
	w io.Writer
}

var _ deferred.Observer = (*tracer)(nil)

func (t *tracer) Stuck(dt *deferred.DeferredType, vars []*types.UndetVar) {
	_, _ = fmt.Fprintf(t.w, "  stuck  %s on %s\n", dt, joinVars(vars))
}

func (t *tracer) Pass(ctx *deferred.AttrContext, pass, processed int, stuck []*types.UndetVar) {
	_, _ = fmt.Fprintf(t.w, "  pass %d (%v %s, %v)  processed %d, left %d", pass, ctx.Mode, ctx.Msym, ctx.Phase, processed, ctx.Pending())
	if processed == 0 && len(stuck) > 0 {
		_, _ = fmt.Fprintf(t.w, ", solving %s", joinVars(stuck))
	}
	_, _ = fmt.Fprintln(t.w)
}

func joinVars(vars []*types.UndetVar) string {
	s := "["
	for i, uv := range vars {
		if i > 0 {
			s += ", "
		}
		s += uv.String()
	}
	return s + "]"
}
