package main

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/fluxcd/sdm/pkg/git"
	"github.com/fluxcd/sdm/pkg/push"
)

// checkoutOpts describe the HEAD of a local checkout as a push.
type checkoutOpts struct {
	dir           string
	before        string
	ref           string
	remote        string
	defaultBranch string
}

func (opts *checkoutOpts) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&opts.dir, "dir", ".", "the git checkout to treat as pushed")
	fs.StringVar(&opts.before, "before", "", "revision the push is from; if empty, the changed files are unknown")
	fs.StringVar(&opts.ref, "ref", "", "ref pushed to; defaults to the branch checked out")
	fs.StringVar(&opts.remote, "remote", "origin", "remote used to name the repository")
	fs.StringVar(&opts.defaultBranch, "default-branch", "master", "default branch of the repository")
}

func (opts *checkoutOpts) push(ctx context.Context) (*git.Checkout, push.Push, error) {
	checkout := git.NewCheckout(opts.dir)
	before := opts.before
	if before != "" {
		rev, err := checkout.Revision(ctx, before)
		if err != nil {
			return nil, push.Push{}, err
		}
		before = rev
	}
	p, err := checkout.Push(ctx, git.PushOptions{
		Before:        before,
		Ref:           opts.ref,
		Remote:        opts.remote,
		DefaultBranch: opts.defaultBranch,
	})
	return checkout, p, err
}
