package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fluxcd/sdm/pkg/api"
	"github.com/fluxcd/sdm/pkg/goal"
	"github.com/fluxcd/sdm/pkg/push"
)

type completeOpts struct {
	*rootOpts
	repo        string
	revision    string
	goal        string
	sideEffect  string
	state       string
	description string
	url         string
}

func newComplete(parent *rootOpts) *completeOpts {
	return &completeOpts{rootOpts: parent}
}

func (opts *completeOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Report that a side effect has finished working on a goal.",
		Example: makeExample(
			"sdmctl complete --repo fluxcd/sdm --revision 0f3e4a1 --goal sdm/0-code/build --side-effect ci --state success",
			"sdmctl complete --repo fluxcd/sdm --revision 0f3e4a1 --goal sdm/0-code/build --side-effect ci --state failure --link https://ci.example.com/builds/12",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.repo, "repo", "r", "", "repository pushed to, as owner/name")
	cmd.Flags().StringVar(&opts.revision, "revision", "", "revision pushed")
	cmd.Flags().StringVarP(&opts.goal, "goal", "g", "", "context of the goal worked on")
	cmd.Flags().StringVar(&opts.sideEffect, "side-effect", "", "name of the side effect reporting")
	cmd.Flags().StringVarP(&opts.state, "state", "s", string(goal.StateSuccess), "state the goal got to")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "description of what happened")
	cmd.Flags().StringVar(&opts.url, "link", "", "link to more information, e.g., build logs")
	return cmd
}

func parseRepo(s string) (push.RepoRef, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return push.RepoRef{}, newUsageError(fmt.Sprintf("expected repository as owner/name, got %q", s))
	}
	return push.RepoRef{Owner: parts[0], Name: parts[1]}, nil
}

func (opts *completeOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	if opts.goal == "" || opts.revision == "" {
		return newUsageError("--goal and --revision are required")
	}
	repo, err := parseRepo(opts.repo)
	if err != nil {
		return err
	}
	ctx, cancel := opts.context()
	defer cancel()

	id, err := opts.API.CompleteSideEffect(ctx, api.Completion{
		Repo:        repo,
		Revision:    opts.revision,
		Goal:        opts.goal,
		SideEffect:  opts.sideEffect,
		State:       goal.State(opts.state),
		Description: opts.description,
		URL:         opts.url,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Completion accepted; follow it with: sdmctl job %s\n", id)
	return nil
}
