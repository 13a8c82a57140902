package github

import (
	"net/http"

	"github.com/google/go-github/v28/github"
	"github.com/pkg/errors"

	fluxerr "github.com/fluxcd/sdm/pkg/errors"
)

// ErrPing is returned when a webhook delivery is GitHub checking the
// hook works, rather than an event.
var ErrPing = errors.New("webhook ping")

// ErrRefDeleted is returned for a push that deleted a ref; there is
// nothing to plan for it.
var ErrRefDeleted = errors.New("push deleted the ref")

func unauthorizedError(err error) error {
	return &fluxerr.Error{
		Type: fluxerr.User,
		Err:  err,
		Help: `GitHub refused the credentials

The GitHub API responded with 401 Unauthorized. Check that the token
given with --github-token (or SDM_GITHUB_TOKEN) is valid, and has the
repo:status scope for setting commit statuses, and repo scope for
reading private repositories.
`,
	}
}

func notFoundError(what string, err error) error {
	return &fluxerr.Error{
		Type: fluxerr.Missing,
		Err:  err,
		Help: `Not found on GitHub: ` + what + `

The GitHub API responded with 404 Not Found. Either it does not exist,
or the token in use cannot see it.
`,
	}
}

func webhookError(err error) error {
	return &fluxerr.Error{
		Type: fluxerr.User,
		Err:  err,
		Help: `Could not accept the webhook delivery

The request was not a valid GitHub webhook delivery. Check that the
webhook's secret matches the one given with --github-webhook-secret,
and that its content type is application/json.
`,
	}
}

// apiError translates errors from the GitHub API into typed errors.
func apiError(what string, err error) error {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case *github.RateLimitError:
		return errors.Wrapf(err, "rate limited by GitHub until %s", e.Rate.Reset)
	case *github.ErrorResponse:
		if e.Response != nil {
			switch e.Response.StatusCode {
			case http.StatusUnauthorized:
				return unauthorizedError(err)
			case http.StatusNotFound:
				return notFoundError(what, err)
			}
		}
	}
	return errors.Wrap(err, what)
}
