package push

import (
	"context"
	"strings"
)

const (
	branchRefPrefix = "refs/heads/"
	tagRefPrefix    = "refs/tags/"
)

// RepoRef identifies a repository in the VCS.
type RepoRef struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	URL           string `json:"url,omitempty"`
	DefaultBranch string `json:"defaultBranch,omitempty"`
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// Commit is one of the commits carried by a push.
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message,omitempty"`
	Author  string `json:"author,omitempty"`
}

// Push describes a VCS push of one or more commits to a single ref.
type Push struct {
	Repo RepoRef `json:"repo"`
	// Ref is the fully qualified ref, e.g., refs/heads/master
	Ref string `json:"ref"`
	// Before is the revision the ref pointed at before the push. It
	// is empty, or all zeroes, when the ref was created by the push.
	Before  string   `json:"before,omitempty"`
	After   string   `json:"after"`
	Commits []Commit `json:"commits,omitempty"`
}

// Branch returns the short branch name, or the empty string if the
// push was not to a branch.
func (p Push) Branch() string {
	if strings.HasPrefix(p.Ref, branchRefPrefix) {
		return strings.TrimPrefix(p.Ref, branchRefPrefix)
	}
	return ""
}

// Tag returns the short tag name, or the empty string if the push
// was not of a tag.
func (p Push) Tag() string {
	if strings.HasPrefix(p.Ref, tagRefPrefix) {
		return strings.TrimPrefix(p.Ref, tagRefPrefix)
	}
	return ""
}

func (p Push) ToDefaultBranch() bool {
	b := p.Branch()
	return b != "" && b == p.Repo.DefaultBranch
}

// HasBefore reports whether there is a previous revision to compare
// the push against.
func (p Push) HasBefore() bool {
	return strings.Trim(p.Before, "0") != ""
}

// Project is the content of the pushed repository at the pushed
// revision, as far as push tests need to see it.
type Project interface {
	// HasFile reports whether any path in the project, relative to
	// its root, matches the glob pattern given.
	HasFile(ctx context.Context, pattern string) (bool, error)
}

// Invocation is what a push test gets to look at. It is owned by the
// caller for the duration of one evaluation, and must not be retained
// by the test.
type Invocation struct {
	ID      RepoRef
	Project Project
	Push    *Push
}

func NewInvocation(p *Push, project Project) *Invocation {
	return &Invocation{
		ID:      p.Repo,
		Project: project,
		Push:    p,
	}
}
