package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fluxcd/sdm/pkg/api"
)

type pushOpts struct {
	*rootOpts
	checkoutOpts
}

func newPush(parent *rootOpts) *pushOpts {
	return &pushOpts{rootOpts: parent}
}

func (opts *pushOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "push",
		Short:   "Tell the machine about a push of the checked out HEAD.",
		Example: makeExample("sdmctl push --before origin/master"),
		RunE:    opts.RunE,
	}
	opts.checkoutOpts.addFlags(cmd.Flags())
	return cmd
}

func (opts *pushOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	ctx, cancel := opts.context()
	defer cancel()

	_, p, err := opts.checkoutOpts.push(ctx)
	if err != nil {
		return err
	}
	result, err := opts.API.HandlePush(ctx, p)
	if err != nil {
		return err
	}
	return printOutput(cmd.OutOrStdout(), opts.Output, result, func(w *tabwriter.Writer) {
		printGoalStates(w, result.Goals)
	})
}

func printGoalStates(w *tabwriter.Writer, goals []api.GoalStatus) {
	fmt.Fprintf(w, "GOAL\tSTATE\tSIDE EFFECT\tDESCRIPTION\n")
	for _, g := range goals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.Context, g.State, g.SideEffect, g.Description)
	}
}
