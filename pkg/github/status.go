package github

import (
	"context"
	"time"

	"github.com/google/go-github/v28/github"

	"github.com/fluxcd/sdm/pkg/goal"
	"github.com/fluxcd/sdm/pkg/push"
)

// GitHub rejects status descriptions longer than this.
const maxDescriptionLength = 140

// Commit status states.
const (
	statusPending = "pending"
	statusSuccess = "success"
	statusFailure = "failure"
)

func commitStatusState(s goal.State) string {
	switch s {
	case goal.StateSuccess, goal.StateSkipped:
		return statusSuccess
	case goal.StateFailure:
		return statusFailure
	default:
		return statusPending
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// SetGoalStatus reports the state of a goal as a commit status on the
// revision, under the goal's context.
func (c *Client) SetGoalStatus(ctx context.Context, repo push.RepoRef, revision string, g *goal.Goal, state goal.State, description, url string) (err error) {
	defer func(begin time.Time) { observe("status", begin, err) }(time.Now())

	status := &github.RepoStatus{
		State:       github.String(commitStatusState(state)),
		Description: github.String(truncate(description, maxDescriptionLength)),
		Context:     github.String(g.Context()),
	}
	if url != "" {
		status.TargetURL = github.String(url)
	}
	_, _, err = c.gh.Repositories.CreateStatus(ctx, repo.Owner, repo.Name, revision, status)
	return apiError(repo.String()+"@"+revision, err)
}
