package git

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/whilp/git-urls"

	"github.com/fluxcd/sdm/pkg/push"
)

// Remote points at a git repo somewhere.
type Remote struct {
	// URL is where the repo is fetched from
	URL string `json:"url"`
}

func (r Remote) SafeURL() string {
	u, err := giturls.Parse(r.URL)
	if err != nil {
		return fmt.Sprintf("<unparseable: %s>", r.URL)
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.String()
}

// Equivalent compares the given URL with the remote URL without taking
// protocols or `.git` suffixes into account.
func (r Remote) Equivalent(u string) bool {
	lu, err := giturls.Parse(r.URL)
	if err != nil {
		return false
	}
	ru, err := giturls.Parse(u)
	if err != nil {
		return false
	}
	return lu.Host == ru.Host && trimPath(lu.Path) == trimPath(ru.Path)
}

func trimPath(p string) string {
	return strings.TrimSuffix(strings.Trim(p, "/"), ".git")
}

// RepoRef works out the owner and name of the repository from the
// last two elements of the URL's path, e.g., fluxcd/sdm for
// git@github.com:fluxcd/sdm.git.
func (r Remote) RepoRef(defaultBranch string) (push.RepoRef, error) {
	u, err := giturls.Parse(r.URL)
	if err != nil {
		return push.RepoRef{}, invalidRemoteError(r.URL, err)
	}
	parts := strings.Split(trimPath(u.Path), "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return push.RepoRef{}, invalidRemoteError(r.URL, fmt.Errorf("no owner/name in path %q", u.Path))
	}
	return push.RepoRef{
		Owner:         parts[len(parts)-2],
		Name:          parts[len(parts)-1],
		URL:           r.SafeURL(),
		DefaultBranch: defaultBranch,
	}, nil
}
