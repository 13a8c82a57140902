package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type checkOpts struct {
	*rootOpts
	machineFile string
}

func newCheck(parent *rootOpts) *checkOpts {
	return &checkOpts{rootOpts: parent}
}

func (opts *checkOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "check",
		Short:   "Check a machine definition, and describe the machine it makes.",
		Example: makeExample("sdmctl check -m machine.yaml"),
		RunE:    opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.machineFile, "machine", "m", "machine.yaml", "path to the machine definition")
	return cmd
}

func (opts *checkOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	m, err := compileMachine(opts.machineFile, nil)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), m.Describe())
	return nil
}
