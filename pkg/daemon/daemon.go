package daemon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"github.com/fluxcd/sdm/pkg/api"
	fluxerr "github.com/fluxcd/sdm/pkg/errors"
	"github.com/fluxcd/sdm/pkg/event"
	"github.com/fluxcd/sdm/pkg/goal"
	"github.com/fluxcd/sdm/pkg/job"
	"github.com/fluxcd/sdm/pkg/machine"
	fluxmetrics "github.com/fluxcd/sdm/pkg/metrics"
	"github.com/fluxcd/sdm/pkg/push"
	"github.com/fluxcd/sdm/pkg/sideeffect"
)

// ProjectLoader gives access to the content of a pushed revision.
type ProjectLoader interface {
	Project(ctx context.Context, p push.Push) (push.Project, error)
}

// StatusReporter records the state of a goal against a pushed
// revision, e.g., as a commit status.
type StatusReporter interface {
	SetGoalStatus(ctx context.Context, repo push.RepoRef, revision string, g *goal.Goal, state goal.State, description, url string) error
}

// Daemon runs a machine: it plans goals for pushes, correlates side
// effect completions with goals, and dispatches events and commands
// to the machine's functional units.
type Daemon struct {
	V       string
	Machine *machine.Machine
	// Projects may be nil, in which case push tests looking at
	// files fail.
	Projects ProjectLoader
	// Statuses may be nil, in which case goal states are only logged.
	Statuses       StatusReporter
	Jobs           *job.Queue
	JobStatusCache *job.StatusCache
	Logger         log.Logger
	// HandlerTimeout bounds each event or command handler.
	HandlerTimeout time.Duration
}

// Invariant.
var _ api.Server = &Daemon{}

func (d *Daemon) Version(ctx context.Context) (string, error) {
	return d.V, nil
}

func (d *Daemon) Ping(ctx context.Context) error {
	return nil
}

// HandlePush plans the goals for a push, reports their initial state,
// and queues the push and planned-goal events for dispatch.
func (d *Daemon) HandlePush(ctx context.Context, p push.Push) (api.PushResult, error) {
	logger := log.With(d.Logger, "repo", p.Repo.String(), "ref", p.Ref, "after", p.After)
	result := api.PushResult{Repo: p.Repo, Revision: p.After}

	var project push.Project
	if d.Projects != nil {
		var err error
		project, err = d.Projects.Project(ctx, p)
		if err != nil {
			return result, errors.Wrap(err, "loading pushed project")
		}
	}

	planned, err := d.Machine.PlanGoals(ctx, push.NewInvocation(&p, project))
	if err != nil {
		return result, errors.Wrap(err, "planning goals")
	}
	logger.Log("event", "push", "goals", len(planned))

	result.Jobs = append(result.Jobs, d.dispatch(event.New(event.OnPush, p, &event.PushEventMetadata{Push: p})))
	for _, pg := range planned {
		state, description := pg.InitialState(), pg.Description()
		goalsPlanned.With(fluxmetrics.LabelGoal, pg.Goal.Context(), fluxmetrics.LabelState, string(state)).Add(1)
		d.reportStatus(ctx, logger, p.Repo, p.After, pg.Goal, state, description, "")

		status := goalStatus(pg.Goal)
		status.State = state
		status.Description = description
		status.SideEffect = pg.SideEffect.SideEffectName
		result.Goals = append(result.Goals, status)

		result.Jobs = append(result.Jobs, d.dispatch(event.New(event.OnGoalPlanned, p, &event.GoalEventMetadata{
			Goal:        pg.Goal.Context(),
			GoalName:    pg.Goal.Name(),
			State:       state,
			Description: description,
			SideEffect:  pg.SideEffect.SideEffectName,
		})))
	}
	return result, nil
}

func (d *Daemon) reportStatus(ctx context.Context, logger log.Logger, repo push.RepoRef, revision string, g *goal.Goal, state goal.State, description, url string) {
	logger.Log("goal", g.Context(), "state", state, "description", description)
	if d.Statuses == nil {
		return
	}
	if err := d.Statuses.SetGoalStatus(ctx, repo, revision, g, state, description, url); err != nil {
		logger.Log("goal", g.Context(), "err", errors.Wrap(err, "reporting goal status"))
	}
}

func goalStatus(g *goal.Goal) api.GoalStatus {
	return api.GoalStatus{
		Context:     g.Context(),
		Name:        g.Name(),
		Environment: g.Environment(),
	}
}

// ListGoals lists every goal the machine could plan, with the side
// effect fulfilling it, if any.
func (d *Daemon) ListGoals(ctx context.Context) ([]api.GoalStatus, error) {
	var res []api.GoalStatus
	for _, g := range d.Machine.Goals() {
		status := goalStatus(g)
		if se, ok := d.Machine.SideEffects().FindByGoal(g); ok {
			status.SideEffect = se.SideEffectName
		}
		res = append(res, status)
	}
	return res, nil
}

func (d *Daemon) FindSideEffect(ctx context.Context, goalContext string) (sideeffect.GoalSideEffect, error) {
	g, ok := d.Machine.GoalByContext(goalContext)
	if !ok {
		return sideeffect.GoalSideEffect{}, unknownGoalError(goalContext)
	}
	se, ok := d.Machine.SideEffects().FindByGoal(g)
	if !ok {
		return se, noSideEffectError(goalContext)
	}
	return se, nil
}

// CompleteSideEffect records the outcome of a side effect's work on a
// goal, and queues the completion for dispatch.
func (d *Daemon) CompleteSideEffect(ctx context.Context, c api.Completion) (job.ID, error) {
	se, err := d.FindSideEffect(ctx, c.Goal)
	if err != nil {
		return "", err
	}
	if se.SideEffectName != c.SideEffect {
		return "", fluxerr.UserError(fmt.Errorf("goal %s is fulfilled by side effect %q, not %q", c.Goal, se.SideEffectName, c.SideEffect))
	}
	if !c.State.Terminal() {
		return "", fluxerr.UserError(fmt.Errorf("side effect completion has non-terminal state %q", c.State))
	}
	if c.Revision == "" {
		return "", fluxerr.UserError(errors.New("side effect completion has no revision"))
	}

	g, _ := d.Machine.GoalByContext(c.Goal)
	description := c.Description
	if description == "" {
		description = g.Describe(c.State)
	}
	logger := log.With(d.Logger, "repo", c.Repo.String(), "revision", c.Revision, "sideEffect", c.SideEffect)
	sideEffectCompletions.With(fluxmetrics.LabelGoal, c.Goal, fluxmetrics.LabelState, string(c.State)).Add(1)
	d.reportStatus(ctx, logger, c.Repo, c.Revision, g, c.State, description, c.URL)

	p := push.Push{Repo: c.Repo, After: c.Revision}
	return d.dispatch(event.New(event.OnGoalCompleted, p, &event.GoalEventMetadata{
		Goal:        g.Context(),
		GoalName:    g.Name(),
		State:       c.State,
		Description: description,
		SideEffect:  c.SideEffect,
		URL:         c.URL,
	})), nil
}

// RunCommand runs the first command handler with the intent given.
// Command handler makers are not filtered when units are composed, so
// nil makers are skipped here.
func (d *Daemon) RunCommand(ctx context.Context, cmd api.Command) (api.CommandResult, error) {
	result := api.CommandResult{Intent: cmd.Intent}
	for _, maker := range d.Machine.CommandHandlers() {
		if maker == nil {
			continue
		}
		h := maker()
		if h.Intent() != cmd.Intent {
			continue
		}
		ctx, cancel := d.handlerContext(ctx)
		defer cancel()
		msg, err := h.Handle(ctx, cmd.Parameters)
		if err != nil {
			return result, errors.Wrapf(err, "running command %q", cmd.Intent)
		}
		result.Message = msg
		return result, nil
	}
	return result, unknownCommandError(cmd.Intent)
}

func (d *Daemon) handlerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.HandlerTimeout > 0 {
		return context.WithTimeout(ctx, d.HandlerTimeout)
	}
	return context.WithCancel(ctx)
}

// JobStatus - Ask the daemon how far it's got dispatching an event;
// is the job queued? running? finished?
func (d *Daemon) JobStatus(ctx context.Context, jobID job.ID) (job.Status, error) {
	status, ok := d.JobStatusCache.Status(jobID)
	if !ok {
		return status, unknownJobError(jobID)
	}
	return status, nil
}

type jobFunc func(ctx context.Context, jobID job.ID, logger log.Logger) (job.Result, error)

// dispatch queues a job running the event handlers subscribed to the
// event, each made fresh from its maker.
func (d *Daemon) dispatch(e event.Event) job.ID {
	return d.queueJob(job.ID(e.ID.String()), e.Type, func(ctx context.Context, _ job.ID, logger log.Logger) (job.Result, error) {
		logger.Log("event", e.String())
		return d.handleEvent(ctx, e, logger)
	})
}

func (d *Daemon) handleEvent(ctx context.Context, e event.Event, logger log.Logger) (job.Result, error) {
	var result job.Result
	for i, maker := range d.Machine.EventHandlers() {
		h := maker()
		if h.Subscription() != e.Type {
			continue
		}
		result.Handled++
		hctx, cancel := d.handlerContext(ctx)
		err := h.Handle(hctx, e)
		cancel()
		if err != nil {
			name := fmt.Sprintf("%s[%d]", e.Type, i)
			result.Failed = append(result.Failed, name)
			logger.Log("handler", name, "err", err)
		}
	}
	if len(result.Failed) > 0 {
		return result, fmt.Errorf("%d of %d handlers failed: %s", len(result.Failed), result.Handled, strings.Join(result.Failed, ", "))
	}
	return result, nil
}

// executeJob runs a job func and keeps track of its status, so the
// daemon can report it when asked.
func (d *Daemon) executeJob(id job.ID, do jobFunc, logger log.Logger) (job.Result, error) {
	ctx := context.Background()
	d.JobStatusCache.SetStatus(id, job.Status{StatusString: job.StatusRunning})
	result, err := do(ctx, id, logger)
	if err != nil {
		d.JobStatusCache.SetStatus(id, job.Status{StatusString: job.StatusFailed, Err: err.Error(), Result: result})
		return result, err
	}
	d.JobStatusCache.SetStatus(id, job.Status{StatusString: job.StatusSucceeded, Result: result})
	return result, nil
}

// queueJob queues a job func to be executed.
func (d *Daemon) queueJob(id job.ID, kind string, do jobFunc) job.ID {
	enqueuedAt := time.Now()
	d.JobStatusCache.SetStatus(id, job.Status{StatusString: job.StatusQueued})
	d.Jobs.Enqueue(&job.Job{
		ID:   id,
		Kind: kind,
		Do: func(logger log.Logger) error {
			queueDuration.Observe(time.Since(enqueuedAt).Seconds())
			_, err := d.executeJob(id, do, logger)
			return err
		},
	})
	queueLength.Set(float64(d.Jobs.Len()))
	return id
}
