package github

import (
	"context"
	"time"

	fluxerr "github.com/fluxcd/sdm/pkg/errors"
	"github.com/fluxcd/sdm/pkg/push"
)

// The compare API lists at most this many files; a comparison with
// this many may have been cut short.
const maxComparedFiles = 300

// ChangedFiles lists the files a push changed using the compare API.
// A push with no before revision, a before revision GitHub no longer
// knows about (e.g., after a force push), or a comparison too big to
// be listed in full, has unknown changes.
func (c *Client) ChangedFiles(ctx context.Context, inv *push.Invocation) (_ push.Changes, err error) {
	p := inv.Push
	if !p.HasBefore() {
		return push.UnknownChanges(), nil
	}
	defer func(begin time.Time) { observe("compare", begin, err) }(time.Now())

	comparison, _, err := c.gh.Repositories.CompareCommits(ctx, p.Repo.Owner, p.Repo.Name, p.Before, p.After)
	if err != nil {
		err = apiError(p.Repo.String()+" "+p.Before+"..."+p.After, err)
		if fluxerr.IsMissing(err) {
			c.logger.Log("info", "comparison not found, changes unknown", "repo", p.Repo, "before", p.Before, "after", p.After)
			return push.UnknownChanges(), nil
		}
		return push.Changes{}, err
	}
	if len(comparison.Files) >= maxComparedFiles {
		return push.UnknownChanges(), nil
	}
	paths := make([]string, 0, len(comparison.Files))
	for _, f := range comparison.Files {
		paths = append(paths, f.GetFilename())
	}
	return push.KnownChanges(paths...), nil
}
