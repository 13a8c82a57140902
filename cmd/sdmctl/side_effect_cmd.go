package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type sideEffectOpts struct {
	*rootOpts
}

func newSideEffect(parent *rootOpts) *sideEffectOpts {
	return &sideEffectOpts{rootOpts: parent}
}

func (opts *sideEffectOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:     "side-effect <goal context>",
		Short:   "Show which side effect fulfils a goal.",
		Example: makeExample("sdmctl side-effect sdm/0-code/build"),
		RunE:    opts.RunE,
	}
}

func (opts *sideEffectOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return newUsageError("expected exactly one argument, the goal context")
	}
	ctx, cancel := opts.context()
	defer cancel()

	se, err := opts.API.FindSideEffect(ctx, args[0])
	if err != nil {
		return err
	}
	return printOutput(cmd.OutOrStdout(), opts.Output, se, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "GOAL\tSIDE EFFECT\n")
		fmt.Fprintf(w, "%s\t%s\n", se.GoalContext, se.SideEffectName)
	})
}
