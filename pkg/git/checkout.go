package git

import (
	"context"
	"path/filepath"

	"github.com/fluxcd/sdm/pkg/push"
)

// Commit is a commit in a checkout.
type Commit struct {
	Revision string
	Author   string
	Message  string
}

// Checkout is a local clone of a repository, on disk.
type Checkout struct {
	dir string
}

func NewCheckout(dir string) *Checkout {
	return &Checkout{dir: dir}
}

func (c *Checkout) Dir() string {
	return c.dir
}

// Project gives push tests the files in the working tree.
func (c *Checkout) Project() push.Project {
	return push.NewLocalProject(c.dir)
}

func (c *Checkout) HeadRevision(ctx context.Context) (string, error) {
	rev, err := refRevision(ctx, c.dir, "HEAD")
	if err != nil {
		return "", NotACheckoutError(c.dir, err)
	}
	return rev, nil
}

// Revision resolves a ref or revision, e.g., HEAD~1, to a full
// commit SHA.
func (c *Checkout) Revision(ctx context.Context, ref string) (string, error) {
	return refRevision(ctx, c.dir, ref)
}

// ChangedFiles lists the files changed between the two revisions.
func (c *Checkout) ChangedFiles(ctx context.Context, before, after string) ([]string, error) {
	return changedBetween(ctx, c.dir, before, after)
}

// CommitsBetween lists the commits after `before`, up to and including
// `after`, oldest first. With no `before`, it is just `after`.
func (c *Checkout) CommitsBetween(ctx context.Context, before, after string) ([]Commit, error) {
	if before == "" || before == nullRevision {
		return onelinelog(ctx, c.dir, after+"^!")
	}
	return onelinelog(ctx, c.dir, before+".."+after)
}

// Remote returns the remote of the name given, e.g., origin.
func (c *Checkout) Remote(ctx context.Context, name string) (Remote, error) {
	u, err := remoteURL(ctx, c.dir, name)
	if err != nil {
		return Remote{}, err
	}
	return Remote{URL: u}, nil
}

// PushOptions say how to describe the checked out HEAD as a push.
type PushOptions struct {
	// Before is the revision the push is from; it may be empty.
	Before string
	// Ref defaults to the branch checked out.
	Ref           string
	Remote        string
	DefaultBranch string
}

// Push describes the HEAD of the checkout as if it had just been
// pushed. The repository is named after the remote, if there is one,
// and otherwise after the directory.
func (c *Checkout) Push(ctx context.Context, opts PushOptions) (push.Push, error) {
	after, err := c.HeadRevision(ctx)
	if err != nil {
		return push.Push{}, err
	}
	ref := opts.Ref
	if ref == "" {
		if ref, err = symbolicRef(ctx, c.dir); err != nil {
			return push.Push{}, DetachedHeadError(c.dir, err)
		}
	}

	repo := push.RepoRef{Name: filepath.Base(c.dir), DefaultBranch: opts.DefaultBranch}
	if remote, err := c.Remote(ctx, opts.Remote); err == nil {
		if repo, err = remote.RepoRef(opts.DefaultBranch); err != nil {
			return push.Push{}, err
		}
	}

	commits, err := c.CommitsBetween(ctx, opts.Before, after)
	if err != nil {
		return push.Push{}, err
	}
	p := push.Push{Repo: repo, Ref: ref, Before: opts.Before, After: after}
	for _, commit := range commits {
		p.Commits = append(p.Commits, push.Commit{
			SHA:     commit.Revision,
			Author:  commit.Author,
			Message: commit.Message,
		})
	}
	return p, nil
}
