package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-kit/kit/log"

	fluxmetrics "github.com/fluxcd/sdm/pkg/metrics"
	"github.com/fluxcd/sdm/pkg/push"
)

const (
	outcomeHit   = "hit"
	outcomeMiss  = "miss"
	outcomeError = "error"
)

// DefaultExpiry is how long changed-file lists are kept for. Pushes
// are rarely looked at again after a day.
const DefaultExpiry = 24 * time.Hour

// Lister caches the answers of another lister. Only known changes
// are cached; unknown changes might become known later, e.g., once a
// checkout has fetched the before revision. Cache errors are logged,
// and the next lister asked instead.
type Lister struct {
	Next   push.ChangedFilesLister
	Cache  Client
	Expiry time.Duration
	Logger log.Logger
}

func (l *Lister) ChangedFiles(ctx context.Context, inv *push.Invocation) (push.Changes, error) {
	p := inv.Push
	if !p.HasBefore() {
		return l.Next.ChangedFiles(ctx, inv)
	}
	key := NewChangesKey(p.Repo, p.Before, p.After)

	cached, err := l.Cache.GetKey(key)
	switch {
	case err == nil:
		var paths []string
		if err = json.Unmarshal(cached, &paths); err == nil {
			changesLookups.With(fluxmetrics.LabelOutcome, outcomeHit).Add(1)
			return push.KnownChanges(paths...), nil
		}
		fallthrough
	case err != ErrNotCached:
		changesLookups.With(fluxmetrics.LabelOutcome, outcomeError).Add(1)
		l.log("err", err, "key", key.Key())
	default:
		changesLookups.With(fluxmetrics.LabelOutcome, outcomeMiss).Add(1)
	}

	changes, err := l.Next.ChangedFiles(ctx, inv)
	if err != nil || !changes.Known {
		return changes, err
	}
	value, err := json.Marshal(changes.Paths)
	if err == nil {
		err = l.Cache.SetKey(key, l.expiry(), value)
	}
	if err != nil {
		l.log("err", err, "key", key.Key())
	}
	return changes, nil
}

func (l *Lister) expiry() time.Duration {
	if l.Expiry > 0 {
		return l.Expiry
	}
	return DefaultExpiry
}

func (l *Lister) log(keyvals ...interface{}) {
	if l.Logger != nil {
		l.Logger.Log(keyvals...)
	}
}
