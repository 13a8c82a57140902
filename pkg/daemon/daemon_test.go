package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxcd/sdm/pkg/api"
	fluxerr "github.com/fluxcd/sdm/pkg/errors"
	"github.com/fluxcd/sdm/pkg/event"
	"github.com/fluxcd/sdm/pkg/goal"
	"github.com/fluxcd/sdm/pkg/job"
	"github.com/fluxcd/sdm/pkg/machine"
	"github.com/fluxcd/sdm/pkg/push"
	"github.com/fluxcd/sdm/pkg/sideeffect"
	"github.com/fluxcd/sdm/pkg/unit"
)

type reportedStatus struct {
	goal        string
	state       goal.State
	description string
	url         string
}

type statusRecorder struct {
	statuses []reportedStatus
	err      error
}

func (r *statusRecorder) SetGoalStatus(_ context.Context, _ push.RepoRef, _ string, g *goal.Goal, state goal.State, description, url string) error {
	r.statuses = append(r.statuses, reportedStatus{g.Context(), state, description, url})
	return r.err
}

type mavenProjects struct{}

func (mavenProjects) Project(context.Context, push.Push) (push.Project, error) {
	return projectFunc(func(_ context.Context, pattern string) (bool, error) {
		return pattern == "pom.xml", nil
	}), nil
}

type projectFunc func(context.Context, string) (bool, error)

func (f projectFunc) HasFile(ctx context.Context, pattern string) (bool, error) {
	return f(ctx, pattern)
}

var testPush = push.Push{
	Repo:  push.RepoRef{Owner: "fluxcd", Name: "sdm", DefaultBranch: "master"},
	Ref:   "refs/heads/master",
	After: "3e3c1b2f9d",
}

// daemon returns a daemon for a machine which builds maven projects,
// with the build fulfilled by a side effect "ci", and a unit
// recording the events it sees.
func daemon(t *testing.T, units ...unit.FunctionalUnit) (*Daemon, *statusRecorder, func()) {
	sideEffects := sideeffect.NewMapper().AddSideEffect(goal.BuildGoal, "ci")
	m := machine.Assemble("test", sideEffects, log.NewNopLogger(), units...).
		WithPushRules(goal.WhenPushSatisfies(push.IsMaven).SetGoals(goal.NewGoals("build", goal.AutofixGoal, goal.BuildGoal)))

	shutdown := make(chan struct{})
	wg := &sync.WaitGroup{}
	statuses := &statusRecorder{}
	d := &Daemon{
		V:              "test",
		Machine:        m,
		Projects:       mavenProjects{},
		Statuses:       statuses,
		Jobs:           job.NewQueue(shutdown, wg),
		JobStatusCache: &job.StatusCache{Size: 100},
		Logger:         log.NewNopLogger(),
	}
	return d, statuses, func() {
		close(shutdown)
		wg.Wait()
	}
}

// runJobs runs the jobs given, in the order they were queued.
func runJobs(t *testing.T, d *Daemon, ids []job.ID) {
	for _, id := range ids {
		j := <-d.Jobs.Ready()
		require.Equal(t, id, j.ID)
		j.Do(log.NewNopLogger())
	}
}

func recordingUnit(seen *[]string) *unit.Unit {
	record := func(subscription string) unit.EventHandlerMaker {
		return func() unit.EventHandler {
			return unit.EventHandlerFunc(subscription, func(_ context.Context, e event.Event) error {
				*seen = append(*seen, e.String())
				return nil
			})
		}
	}
	return &unit.Unit{Events: []unit.EventHandlerMaker{
		record(event.OnPush),
		record(event.OnGoalPlanned),
		record(event.OnGoalCompleted),
	}}
}

func TestHandlePush(t *testing.T) {
	var seen []string
	d, statuses, cleanup := daemon(t, recordingUnit(&seen))
	defer cleanup()

	result, err := d.HandlePush(context.Background(), testPush)
	require.NoError(t, err)
	require.Len(t, result.Goals, 2)
	assert.Equal(t, goal.StatePlanned, result.Goals[0].State)
	assert.Equal(t, goal.StateRequested, result.Goals[1].State)
	assert.Equal(t, "ci", result.Goals[1].SideEffect)

	assert.Equal(t, []reportedStatus{
		{"sdm/0-code/autofix", goal.StatePlanned, "Planned: Autofix", ""},
		{"sdm/0-code/build", goal.StateRequested, "Ready: Build (via ci)", ""},
	}, statuses.statuses)

	// one push event, and one per planned goal
	require.Len(t, result.Jobs, 3)
	for _, id := range result.Jobs {
		status, err := d.JobStatus(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, job.StatusQueued, status.StatusString)
	}
	runJobs(t, d, result.Jobs)
	assert.Equal(t, []string{
		"Push of 0 commits to fluxcd/sdm refs/heads/master (3e3c1b2)",
		"Planned sdm/0-code/autofix for fluxcd/sdm@3e3c1b2",
		"Planned sdm/0-code/build for fluxcd/sdm@3e3c1b2, fulfilled by ci",
	}, seen)

	status, err := d.JobStatus(context.Background(), result.Jobs[0])
	require.NoError(t, err)
	assert.Equal(t, job.StatusSucceeded, status.StatusString)
	assert.Equal(t, 1, status.Result.Handled)
}

func TestHandlePushStatusErrorsAreNotFatal(t *testing.T) {
	d, statuses, cleanup := daemon(t)
	defer cleanup()
	statuses.err = errors.New("GitHub is down")

	result, err := d.HandlePush(context.Background(), testPush)
	require.NoError(t, err)
	assert.Len(t, result.Goals, 2)
}

func TestHandlePushWithoutProject(t *testing.T) {
	d, statuses, cleanup := daemon(t)
	defer cleanup()
	d.Projects = nil

	// without a project, IsMaven fails
	_, err := d.HandlePush(context.Background(), testPush)
	assert.Error(t, err)
	assert.Empty(t, statuses.statuses)
}

func TestCompleteSideEffect(t *testing.T) {
	var seen []string
	d, statuses, cleanup := daemon(t, recordingUnit(&seen))
	defer cleanup()

	id, err := d.CompleteSideEffect(context.Background(), api.Completion{
		Repo:       testPush.Repo,
		Revision:   testPush.After,
		Goal:       goal.BuildGoal.Context(),
		SideEffect: "ci",
		State:      goal.StateSuccess,
		URL:        "https://ci.example.com/build/1",
	})
	require.NoError(t, err)
	assert.Equal(t, []reportedStatus{
		{"sdm/0-code/build", goal.StateSuccess, "Build successful", "https://ci.example.com/build/1"},
	}, statuses.statuses)

	runJobs(t, d, []job.ID{id})
	assert.Equal(t, []string{"Goal sdm/0-code/build success for fluxcd/sdm@3e3c1b2: Build successful"}, seen)
}

func TestCompleteSideEffectErrors(t *testing.T) {
	d, statuses, cleanup := daemon(t)
	defer cleanup()

	completion := func(goalContext, sideEffect string, state goal.State) api.Completion {
		return api.Completion{
			Repo:       testPush.Repo,
			Revision:   testPush.After,
			Goal:       goalContext,
			SideEffect: sideEffect,
			State:      state,
		}
	}
	for _, c := range []struct {
		completion api.Completion
		isErr      func(error) bool
	}{
		{completion("sdm/0-code/nope", "ci", goal.StateSuccess), fluxerr.IsMissing},
		{completion(goal.AutofixGoal.Context(), "ci", goal.StateSuccess), fluxerr.IsMissing},
		{completion(goal.BuildGoal.Context(), "jenkins", goal.StateSuccess), fluxerr.IsUser},
		{completion(goal.BuildGoal.Context(), "ci", goal.StateInProcess), fluxerr.IsUser},
	} {
		_, err := d.CompleteSideEffect(context.Background(), c.completion)
		require.Error(t, err)
		assert.True(t, c.isErr(err), err.Error())
	}
	assert.Empty(t, statuses.statuses)
}

func TestFindSideEffect(t *testing.T) {
	d, _, cleanup := daemon(t)
	defer cleanup()

	se, err := d.FindSideEffect(context.Background(), goal.BuildGoal.Context())
	require.NoError(t, err)
	assert.Equal(t, "ci", se.SideEffectName)

	_, err = d.FindSideEffect(context.Background(), goal.AutofixGoal.Context())
	assert.True(t, fluxerr.IsMissing(err))
}

func TestListGoals(t *testing.T) {
	d, _, cleanup := daemon(t)
	defer cleanup()

	goals, err := d.ListGoals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []api.GoalStatus{
		{Context: "sdm/0-code/autofix", Name: "autofix", Environment: goal.CodeEnvironment},
		{Context: "sdm/0-code/build", Name: "build", Environment: goal.CodeEnvironment, SideEffect: "ci"},
	}, goals)
}

func TestRunCommand(t *testing.T) {
	hello := func() unit.CommandHandler {
		return unit.CommandHandlerFunc("hello", func(_ context.Context, params unit.Parameters) (string, error) {
			return "hello " + params["name"], nil
		})
	}
	d, _, cleanup := daemon(t, &unit.Unit{Commands: []unit.CommandHandlerMaker{nil, hello}})
	defer cleanup()

	result, err := d.RunCommand(context.Background(), api.Command{Intent: "hello", Parameters: unit.Parameters{"name": "world"}})
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.Message)

	result, err = d.RunCommand(context.Background(), api.Command{Intent: machine.DescribeIntent})
	require.NoError(t, err)
	assert.Contains(t, result.Message, "side effect ci")

	_, err = d.RunCommand(context.Background(), api.Command{Intent: "goodbye"})
	assert.True(t, fluxerr.IsMissing(err))
}

func TestFailingHandlersFailTheJob(t *testing.T) {
	failing := func() unit.EventHandler {
		return unit.EventHandlerFunc(event.OnPush, func(context.Context, event.Event) error {
			return errors.New("boom")
		})
	}
	d, _, cleanup := daemon(t, &unit.Unit{Events: []unit.EventHandlerMaker{failing}})
	defer cleanup()

	result, err := d.HandlePush(context.Background(), testPush)
	require.NoError(t, err)
	runJobs(t, d, result.Jobs)

	status, err := d.JobStatus(context.Background(), result.Jobs[0])
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, status.StatusString)
	assert.Len(t, status.Result.Failed, 1)
}

func TestUnknownJob(t *testing.T) {
	d, _, cleanup := daemon(t)
	defer cleanup()
	_, err := d.JobStatus(context.Background(), "nope")
	assert.True(t, fluxerr.IsMissing(err))
}

func TestLoop(t *testing.T) {
	var seen []string
	d, _, cleanup := daemon(t, recordingUnit(&seen))
	defer cleanup()

	stop := make(chan struct{})
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go d.Loop(stop, wg, log.NewNopLogger())

	id, err := d.CompleteSideEffect(context.Background(), api.Completion{
		Repo:       testPush.Repo,
		Revision:   testPush.After,
		Goal:       goal.BuildGoal.Context(),
		SideEffect: "ci",
		State:      goal.StateFailure,
	})
	require.NoError(t, err)

	for {
		status, err := d.JobStatus(context.Background(), id)
		require.NoError(t, err)
		if status.StatusString == job.StatusSucceeded {
			break
		}
		d.Jobs.Sync()
	}
	close(stop)
	wg.Wait()
	assert.Equal(t, []string{"Goal sdm/0-code/build failure for fluxcd/sdm@3e3c1b2: Build failed"}, seen)
}
