package git

import (
	"bytes"
	"context"
	"sync"

	"github.com/ryanuber/go-glob"
)

// ProjectAt gives push tests the files committed at a revision, which
// need not be the one checked out. The tree is listed the first time a
// test looks at it.
func (c *Checkout) ProjectAt(rev string) *RevisionProject {
	return &RevisionProject{dir: c.dir, rev: rev}
}

// RevisionProject is a push.Project backed by the tree of a commit.
type RevisionProject struct {
	dir string
	rev string

	once  sync.Once
	paths []string
	err   error
}

// HasFile is true if a file in the tree matches the pattern. The
// error from listing the tree, if any, is returned every time.
func (p *RevisionProject) HasFile(ctx context.Context, pattern string) (bool, error) {
	p.once.Do(func() { p.paths, p.err = treeFiles(ctx, p.dir, p.rev) })
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

// treeFiles lists the paths of all files in the tree of a revision.
func treeFiles(ctx context.Context, workingDir, rev string) ([]string, error) {
	out := &bytes.Buffer{}
	args := []string{"ls-tree", "-r", "--name-only", "--full-tree", rev}
	if err := execGitCmd(ctx, args, gitCmdConfig{dir: workingDir, out: out}); err != nil {
		return nil, err
	}
	return splitList(out.String()), nil
}
