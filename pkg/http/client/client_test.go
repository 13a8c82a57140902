package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxcd/sdm/pkg/api"
	fluxerr "github.com/fluxcd/sdm/pkg/errors"
	"github.com/fluxcd/sdm/pkg/goal"
	transport "github.com/fluxcd/sdm/pkg/http"
	"github.com/fluxcd/sdm/pkg/http/daemon"
	"github.com/fluxcd/sdm/pkg/job"
	"github.com/fluxcd/sdm/pkg/push"
	"github.com/fluxcd/sdm/pkg/sideeffect"
	"github.com/fluxcd/sdm/pkg/unit"
)

// recordingServer answers with canned values, remembering what it was
// asked.
type recordingServer struct {
	push       push.Push
	completion api.Completion
	command    api.Command
	goal       string
	jobID      job.ID
	err        error
}

func (s *recordingServer) Ping(context.Context) error { return s.err }

func (s *recordingServer) Version(context.Context) (string, error) { return "v1.2.3", s.err }

func (s *recordingServer) HandlePush(ctx context.Context, p push.Push) (api.PushResult, error) {
	s.push = p
	return api.PushResult{
		Repo:     p.Repo,
		Revision: p.After,
		Goals:    []api.GoalStatus{{Context: "sdm/0-code/build", Name: "build", State: goal.StateRequested}},
		Jobs:     []job.ID{"a", "b"},
	}, s.err
}

func (s *recordingServer) ListGoals(context.Context) ([]api.GoalStatus, error) {
	return []api.GoalStatus{{Context: "sdm/0-code/build", Name: "build", Environment: "0-code", SideEffect: "jenkins"}}, s.err
}

func (s *recordingServer) FindSideEffect(ctx context.Context, g string) (sideeffect.GoalSideEffect, error) {
	s.goal = g
	return sideeffect.GoalSideEffect{SideEffectName: "jenkins", GoalContext: g}, s.err
}

func (s *recordingServer) CompleteSideEffect(ctx context.Context, c api.Completion) (job.ID, error) {
	s.completion = c
	return "completed-job", s.err
}

func (s *recordingServer) RunCommand(ctx context.Context, cmd api.Command) (api.CommandResult, error) {
	s.command = cmd
	return api.CommandResult{Intent: cmd.Intent, Message: "done"}, s.err
}

func (s *recordingServer) JobStatus(ctx context.Context, id job.ID) (job.Status, error) {
	s.jobID = id
	return job.Status{StatusString: job.StatusFailed, Err: "handler failed", Result: job.Result{Handled: 2, Failed: []string{"goal_completed[1]"}}}, s.err
}

func setup(t *testing.T, token Token) (*recordingServer, *Client, func()) {
	server := &recordingServer{}
	srv := httptest.NewServer(daemon.NewHandler(server, daemon.NewRouter(), daemon.HandlerConfig{Token: "t0ken"}))
	c := New(http.DefaultClient, transport.NewAPIRouter(), srv.URL, token)
	return server, c, srv.Close
}

func TestClientRoundTrip(t *testing.T) {
	server, c, done := setup(t, "t0ken")
	defer done()
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	v, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", v)

	p := push.Push{Repo: push.RepoRef{Owner: "fluxcd", Name: "sdm"}, Ref: "refs/heads/master", After: "abc"}
	result, err := c.HandlePush(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, p, server.push)
	assert.Equal(t, []job.ID{"a", "b"}, result.Jobs)
	assert.Equal(t, goal.StateRequested, result.Goals[0].State)

	goals, err := c.ListGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jenkins", goals[0].SideEffect)

	se, err := c.FindSideEffect(ctx, "sdm/0-code/build")
	require.NoError(t, err)
	assert.Equal(t, "sdm/0-code/build", server.goal)
	assert.Equal(t, sideeffect.GoalSideEffect{SideEffectName: "jenkins", GoalContext: "sdm/0-code/build"}, se)

	completion := api.Completion{
		Repo:       p.Repo,
		Revision:   "abc",
		Goal:       "sdm/0-code/build",
		SideEffect: "jenkins",
		State:      goal.StateSuccess,
		URL:        "https://ci.example.com/1",
	}
	id, err := c.CompleteSideEffect(ctx, completion)
	require.NoError(t, err)
	assert.Equal(t, job.ID("completed-job"), id)
	assert.Equal(t, completion, server.completion)

	cmd := api.Command{Intent: "describe sdm", Parameters: unit.Parameters{"verbose": "true"}}
	res, err := c.RunCommand(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, cmd, server.command)
	assert.Equal(t, "done", res.Message)

	status, err := c.JobStatus(ctx, "completed-job")
	require.NoError(t, err)
	assert.Equal(t, job.ID("completed-job"), server.jobID)
	assert.Equal(t, job.StatusFailed, status.StatusString)
	assert.Equal(t, []string{"goal_completed[1]"}, status.Result.Failed)
}

func TestClientErrors(t *testing.T) {
	server, c, done := setup(t, "t0ken")
	defer done()
	ctx := context.Background()

	server.err = fluxerr.MissingError(errors.New("no goal sdm/0-code/nope"))
	_, err := c.FindSideEffect(ctx, "sdm/0-code/nope")
	require.Error(t, err)
	assert.True(t, fluxerr.IsMissing(err))
	assert.Contains(t, err.Error(), "no goal sdm/0-code/nope")

	server.err = fluxerr.UserError(errors.New("wrong side effect"))
	_, err = c.CompleteSideEffect(ctx, api.Completion{})
	assert.True(t, fluxerr.IsUser(err))
}

func TestClientUnauthorized(t *testing.T) {
	_, c, done := setup(t, "wrong")
	defer done()

	_, err := c.ListGoals(context.Background())
	assert.Equal(t, transport.ErrorUnauthorized, err)
	// pings are not authorized
	assert.NoError(t, c.Ping(context.Background()))
}
