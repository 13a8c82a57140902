package github

import (
	"fmt"
	"net/http"

	"github.com/google/go-github/v28/github"

	"github.com/fluxcd/sdm/pkg/push"
)

// ParsePushRequest reads a webhook delivery, checking its signature
// against the secret if there is one. It returns ErrPing for pings,
// and ErrRefDeleted for pushes that deleted a ref; any other event
// type is a user error.
func ParsePushRequest(r *http.Request, secret []byte) (push.Push, error) {
	payload, err := github.ValidatePayload(r, secret)
	if err != nil {
		return push.Push{}, webhookError(err)
	}
	eventType := github.WebHookType(r)
	switch eventType {
	case "ping":
		return push.Push{}, ErrPing
	case "push":
	default:
		return push.Push{}, webhookError(fmt.Errorf("unsupported event type %q", eventType))
	}

	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		return push.Push{}, webhookError(err)
	}
	pe, ok := event.(*github.PushEvent)
	if !ok {
		return push.Push{}, webhookError(fmt.Errorf("expected push event, got %T", event))
	}
	if pe.GetDeleted() {
		return push.Push{}, ErrRefDeleted
	}
	return pushFromEvent(pe), nil
}

func pushFromEvent(pe *github.PushEvent) push.Push {
	repo := pe.GetRepo()
	owner := repo.GetOwner().GetLogin()
	if owner == "" {
		owner = repo.GetOwner().GetName()
	}
	p := push.Push{
		Repo: push.RepoRef{
			Owner:         owner,
			Name:          repo.GetName(),
			URL:           repo.GetHTMLURL(),
			DefaultBranch: repo.GetDefaultBranch(),
		},
		Ref:    pe.GetRef(),
		Before: pe.GetBefore(),
		After:  pe.GetAfter(),
	}
	for _, c := range pe.Commits {
		p.Commits = append(p.Commits, push.Commit{
			SHA:     c.GetID(),
			Message: c.GetMessage(),
			Author:  c.GetAuthor().GetName(),
		})
	}
	return p
}
