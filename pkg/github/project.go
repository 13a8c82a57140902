package github

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/ryanuber/go-glob"

	"github.com/fluxcd/sdm/pkg/push"
)

// Project returns the pushed tree as a push.Project. The tree is
// fetched the first time a test looks at it, and only then.
func (c *Client) Project(ctx context.Context, p push.Push) (push.Project, error) {
	return &treeProject{
		client: c,
		repo:   p.Repo,
		sha:    p.After,
		logger: log.With(c.logger, "repo", p.Repo, "revision", p.After),
	}, nil
}

type treeProject struct {
	client *Client
	repo   push.RepoRef
	sha    string
	logger log.Logger

	once  sync.Once
	paths []string
	err   error
}

func (p *treeProject) load(ctx context.Context) (err error) {
	defer func(begin time.Time) { observe("tree", begin, err) }(time.Now())

	tree, _, err := p.client.gh.Git.GetTree(ctx, p.repo.Owner, p.repo.Name, p.sha, true)
	if err != nil {
		return apiError(p.repo.String()+"@"+p.sha, err)
	}
	if tree.GetTruncated() {
		p.logger.Log("warn", "tree listing truncated, file probes may miss files")
	}
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" {
			p.paths = append(p.paths, entry.GetPath())
		}
	}
	return nil
}

// HasFile is true if a file in the tree matches the pattern. The
// error from fetching the tree, if any, is returned every time.
func (p *treeProject) HasFile(ctx context.Context, pattern string) (bool, error) {
	p.once.Do(func() { p.err = p.load(ctx) })
	if p.err != nil {
		return false, p.err
	}
	for _, path := range p.paths {
		if glob.Glob(pattern, path) {
			return true, nil
		}
	}
	return false, nil
}
