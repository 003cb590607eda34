package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cottand/polyinfer/cmd"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "polyinfer [subcommand]",
	Short:        "polyinfer\n generic method type inference with deferred attribution of lambdas and method references",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.SolveCmd)
	rootCmd.AddCommand(cmd.ExplainCmd)
}
