package git

import (
	"context"
	"strings"

	"github.com/fluxcd/sdm/pkg/push"
)

const defaultRemote = "origin"

// Lister enumerates the files changed by a push using a checkout of
// the pushed repository. When the checkout does not have both
// revisions, or the push is to some other repository, the changes are
// unknown.
type Lister struct {
	Checkout *Checkout
	// Remote is the remote the checkout was cloned from; origin if
	// empty. A checkout without it accepts pushes to any repository.
	Remote string
}

func (l Lister) ChangedFiles(ctx context.Context, inv *push.Invocation) (push.Changes, error) {
	p := inv.Push
	if !p.HasBefore() || !l.clones(ctx, p.Repo) {
		return push.UnknownChanges(), nil
	}
	for _, rev := range []string{p.Before, p.After} {
		ok, err := revisionExists(ctx, l.Checkout.dir, rev)
		if err != nil {
			return push.Changes{}, err
		}
		if !ok {
			return push.UnknownChanges(), nil
		}
	}
	files, err := l.Checkout.ChangedFiles(ctx, p.Before, p.After)
	if err != nil {
		return push.Changes{}, err
	}
	return push.KnownChanges(files...), nil
}

// clones reports whether the checkout is of the repository given,
// going by the owner and name in its remote URL.
func (l Lister) clones(ctx context.Context, repo push.RepoRef) bool {
	name := l.Remote
	if name == "" {
		name = defaultRemote
	}
	remote, err := l.Checkout.Remote(ctx, name)
	if err != nil {
		return true
	}
	ours, err := remote.RepoRef("")
	if err != nil {
		return true
	}
	return strings.EqualFold(ours.Owner, repo.Owner) && strings.EqualFold(ours.Name, repo.Name)
}
