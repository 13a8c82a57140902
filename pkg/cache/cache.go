// Package cache keeps answers that are expensive to get from a VCS,
// such as the files changed by a push, in a shared cache.
package cache

import (
	"errors"
	"strings"
	"time"

	"github.com/fluxcd/sdm/pkg/push"
)

var ErrNotCached = errors.New("item not in cache")

type Reader interface {
	// GetKey gets the value at a key
	GetKey(k Keyer) ([]byte, error)
}

type Writer interface {
	// SetKey sets the value at a key, to expire after the duration
	// given
	SetKey(k Keyer, expiry time.Duration, v []byte) error
}

type Client interface {
	Reader
	Writer
}

// An interface to provide the key under which to store the data
type Keyer interface {
	Key() string
}

type changesKey struct {
	repo, before, after string
}

// NewChangesKey keys the files changed between two revisions of a
// repository. Revisions are immutable, so the entry never goes stale.
func NewChangesKey(repo push.RepoRef, before, after string) Keyer {
	return &changesKey{repo.String(), before, after}
}

func (k *changesKey) Key() string {
	return strings.Join([]string{
		"sdmchangesv1", // Bump the version number if the cache format changes
		k.repo,
		k.before,
		k.after,
	}, "|")
}
