package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fluxcd/sdm/pkg/api"
	"github.com/fluxcd/sdm/pkg/unit"
)

type runOpts struct {
	*rootOpts
}

func newRun(parent *rootOpts) *runOpts {
	return &runOpts{rootOpts: parent}
}

func (opts *runOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:     "run <intent> [name=value...]",
		Short:   "Run a command handler of the machine.",
		Example: makeExample("sdmctl run describe", "sdmctl run release env=staging"),
		RunE:    opts.RunE,
	}
}

func parseParameters(args []string) (unit.Parameters, error) {
	if len(args) == 0 {
		return nil, nil
	}
	params := unit.Parameters{}
	for _, arg := range args {
		i := strings.Index(arg, "=")
		if i < 1 {
			return nil, newUsageError(fmt.Sprintf("expected parameter as name=value, got %q", arg))
		}
		params[arg[:i]] = arg[i+1:]
	}
	return params, nil
}

func (opts *runOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return newUsageError("expected the intent of the command to run")
	}
	params, err := parseParameters(args[1:])
	if err != nil {
		return err
	}
	ctx, cancel := opts.context()
	defer cancel()

	result, err := opts.API.RunCommand(ctx, api.Command{Intent: args[0], Parameters: params})
	if err != nil {
		return err
	}
	return printOutput(cmd.OutOrStdout(), opts.Output, result, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, result.Message)
	})
}
