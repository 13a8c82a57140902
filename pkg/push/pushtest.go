package push

import (
	"context"
)

// PushTest is a named, possibly slow, predicate over a push. It
// decides whether some goal applies. Values are immutable once
// constructed.
type PushTest interface {
	Name() string
	Mapping(ctx context.Context, inv *Invocation) (bool, error)
}

// Predicate is the function a push test wraps. It may do I/O, e.g.,
// enumerate the files changed by the push; errors are returned to the
// caller as-is.
type Predicate func(ctx context.Context, inv *Invocation) (bool, error)

type predicatePushTest struct {
	name      string
	predicate Predicate
}

// PredicatePushTest gives a predicate a display name.
func PredicatePushTest(name string, predicate Predicate) PushTest {
	return predicatePushTest{name: name, predicate: predicate}
}

func (t predicatePushTest) Name() string {
	return t.name
}

func (t predicatePushTest) Mapping(ctx context.Context, inv *Invocation) (bool, error) {
	return t.predicate(ctx, inv)
}

func (t predicatePushTest) String() string {
	return t.name
}
