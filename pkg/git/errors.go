package git

import (
	fluxerr "github.com/fluxcd/sdm/pkg/errors"
)

func NotACheckoutError(dir string, actual error) error {
	return &fluxerr.Error{
		Type: fluxerr.User,
		Err:  actual,
		Help: `Not a git checkout

The directory

    ` + dir + `

does not look like a git repository with at least one commit. Push
tests are evaluated against a checkout; run this from the root of one,
or give its path with --dir.
`,
	}
}

func DetachedHeadError(dir string, actual error) error {
	return &fluxerr.Error{
		Type: fluxerr.User,
		Err:  actual,
		Help: `HEAD is not on a branch

The checkout in

    ` + dir + `

has a detached HEAD, so there is no ref to say the push was to. Check
out a branch, or give the ref explicitly with --ref.
`,
	}
}

func invalidRemoteError(url string, actual error) error {
	return &fluxerr.Error{
		Type: fluxerr.User,
		Err:  actual,
		Help: `Could not make sense of the git remote URL

The remote URL

    ` + url + `

does not have the form of a repository URL ending in owner/name, e.g.,
git@github.com:fluxcd/sdm.git or https://github.com/fluxcd/sdm.
`,
	}
}
