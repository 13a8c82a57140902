package main

import (
	"text/tabwriter"

	"github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	"github.com/fluxcd/sdm/pkg/api"
	"github.com/fluxcd/sdm/pkg/git"
	"github.com/fluxcd/sdm/pkg/machine"
	"github.com/fluxcd/sdm/pkg/push"
)

type planOpts struct {
	*rootOpts
	checkoutOpts
	machineFile string
	workingTree bool
}

func newPlan(parent *rootOpts) *planOpts {
	return &planOpts{rootOpts: parent}
}

func (opts *planOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Work out, locally, which goals a push of the checked out HEAD would get.",
		Long: `Work out which goals a push of the checked out HEAD would get, using
the machine definition given. Changed files are listed by git, and
push tests look at the files committed at HEAD, or with --working-tree
at the files in the working tree. Nothing is sent to the machine.`,
		Example: makeExample(
			"sdmctl plan -m machine.yaml",
			"sdmctl plan -m machine.yaml --before HEAD~3 -o yaml",
			"sdmctl plan -m machine.yaml --working-tree",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.machineFile, "machine", "m", "machine.yaml", "path to the machine definition")
	cmd.Flags().BoolVar(&opts.workingTree, "working-tree", false, "let push tests see uncommitted files in the working tree")
	opts.checkoutOpts.addFlags(cmd.Flags())
	return cmd
}

func (opts *planOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	ctx, cancel := opts.context()
	defer cancel()

	checkout, p, err := opts.checkoutOpts.push(ctx)
	if err != nil {
		return err
	}
	m, err := compileMachine(opts.machineFile, git.Lister{Checkout: checkout, Remote: opts.remote})
	if err != nil {
		return err
	}
	var project push.Project = checkout.ProjectAt(p.After)
	if opts.workingTree {
		project = checkout.Project()
	}
	planned, err := m.PlanGoals(ctx, push.NewInvocation(&p, project))
	if err != nil {
		return err
	}

	result := api.PushResult{Repo: p.Repo, Revision: p.After}
	for _, pg := range planned {
		result.Goals = append(result.Goals, api.GoalStatus{
			Context:     pg.Goal.Context(),
			Name:        pg.Goal.Name(),
			Environment: pg.Goal.Environment(),
			State:       pg.InitialState(),
			Description: pg.Description(),
			SideEffect:  pg.SideEffect.SideEffectName,
		})
	}
	return printOutput(cmd.OutOrStdout(), opts.Output, result, func(w *tabwriter.Writer) {
		printGoalStates(w, result.Goals)
	})
}

func compileMachine(path string, lister push.ChangedFilesLister) (*machine.Machine, error) {
	def, err := machine.LoadDefinition(path)
	if err != nil {
		return nil, err
	}
	return def.Compile(machine.Collaborators{Lister: lister, Logger: log.NewNopLogger()})
}
