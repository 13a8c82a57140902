// Shared main test code
package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluxcd/sdm/pkg/api"
	"github.com/fluxcd/sdm/pkg/goal"
	"github.com/fluxcd/sdm/pkg/job"
	"github.com/fluxcd/sdm/pkg/push"
	"github.com/fluxcd/sdm/pkg/sideeffect"
)

// mockServer answers with canned values, remembering what it was
// asked.
type mockServer struct {
	push       push.Push
	completion api.Completion
	command    api.Command
	goal       string
	jobID      job.ID
	err        error
}

func (s *mockServer) Ping(context.Context) error { return s.err }

func (s *mockServer) Version(context.Context) (string, error) { return "v1.2.3", s.err }

func (s *mockServer) HandlePush(ctx context.Context, p push.Push) (api.PushResult, error) {
	s.push = p
	return api.PushResult{
		Repo:     p.Repo,
		Revision: p.After,
		Goals:    []api.GoalStatus{{Context: "sdm/0-code/build", Name: "build", State: goal.StateRequested, SideEffect: "ci"}},
	}, s.err
}

func (s *mockServer) ListGoals(context.Context) ([]api.GoalStatus, error) {
	return []api.GoalStatus{
		{Context: "sdm/0-code/build", Name: "build", Environment: "0-code"},
		{Context: "sdm/1-staging/deploy", Name: "deploy", Environment: "1-staging"},
	}, s.err
}

func (s *mockServer) FindSideEffect(ctx context.Context, g string) (sideeffect.GoalSideEffect, error) {
	s.goal = g
	return sideeffect.GoalSideEffect{SideEffectName: "ci", GoalContext: g}, s.err
}

func (s *mockServer) CompleteSideEffect(ctx context.Context, c api.Completion) (job.ID, error) {
	s.completion = c
	return "job-1", s.err
}

func (s *mockServer) RunCommand(ctx context.Context, cmd api.Command) (api.CommandResult, error) {
	s.command = cmd
	return api.CommandResult{Intent: cmd.Intent, Message: "ran " + cmd.Intent}, s.err
}

func (s *mockServer) JobStatus(ctx context.Context, id job.ID) (job.Status, error) {
	s.jobID = id
	return job.Status{StatusString: job.StatusSucceeded, Result: job.Result{Handled: 3}}, s.err
}

// execute runs sdmctl with the arguments given against the server,
// returning what it printed.
func execute(t *testing.T, server api.Server, args ...string) (string, error) {
	root := newRoot()
	root.API = server
	cmd := root.Command()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, server api.Server, args ...string) string {
	out, err := execute(t, server, args...)
	require.NoError(t, err)
	return out
}
