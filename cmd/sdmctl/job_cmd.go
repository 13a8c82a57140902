package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fluxcd/sdm/pkg/job"
)

type jobOpts struct {
	*rootOpts
}

func newJob(parent *rootOpts) *jobOpts {
	return &jobOpts{rootOpts: parent}
}

func (opts *jobOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:     "job <id>",
		Short:   "Show the status of a job dispatching an event.",
		Example: makeExample("sdmctl job 5f1e2f37-1f1c-4b59-a3d6-7c8a0f6d5c3e"),
		RunE:    opts.RunE,
	}
}

func (opts *jobOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return newUsageError("expected exactly one argument, the job ID")
	}
	ctx, cancel := opts.context()
	defer cancel()

	status, err := opts.API.JobStatus(ctx, job.ID(args[0]))
	if err != nil {
		return err
	}
	return printOutput(cmd.OutOrStdout(), opts.Output, status, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "STATUS\tHANDLED\tFAILED\tERROR\n")
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", status.StatusString, status.Result.Handled, strings.Join(status.Result.Failed, ","), status.Err)
	})
}
