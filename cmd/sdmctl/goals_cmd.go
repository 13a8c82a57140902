package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type goalsOpts struct {
	*rootOpts
}

func newGoals(parent *rootOpts) *goalsOpts {
	return &goalsOpts{rootOpts: parent}
}

func (opts *goalsOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:     "goals",
		Short:   "List the goals the machine knows of.",
		Example: makeExample("sdmctl goals", "sdmctl goals -o yaml"),
		RunE:    opts.RunE,
	}
}

func (opts *goalsOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	ctx, cancel := opts.context()
	defer cancel()

	goals, err := opts.API.ListGoals(ctx)
	if err != nil {
		return err
	}
	return printOutput(cmd.OutOrStdout(), opts.Output, goals, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "CONTEXT\tNAME\tENVIRONMENT\n")
		for _, g := range goals {
			fmt.Fprintf(w, "%s\t%s\t%s\n", g.Context, g.Name, g.Environment)
		}
	})
}
