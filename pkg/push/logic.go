package push

import (
	"context"
	"strings"
)

// AllSatisfied is true if all the tests given are true. The tests are
// evaluated in order, and evaluation stops at the first test that is
// false, or that returns an error. With no tests it is true.
func AllSatisfied(tests ...PushTest) PushTest {
	return PredicatePushTest(joinNames(tests, " && "), func(ctx context.Context, inv *Invocation) (bool, error) {
		for _, t := range tests {
			ok, err := t.Mapping(ctx, inv)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	})
}

// AnySatisfied is true if any of the tests given is true. The tests
// are evaluated in order, and evaluation stops at the first test that
// is true, or that returns an error. With no tests it is false.
func AnySatisfied(tests ...PushTest) PushTest {
	return PredicatePushTest(joinNames(tests, " || "), func(ctx context.Context, inv *Invocation) (bool, error) {
		for _, t := range tests {
			ok, err := t.Mapping(ctx, inv)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	})
}

// Not negates the test given.
func Not(test PushTest) PushTest {
	return PredicatePushTest("!"+test.Name(), func(ctx context.Context, inv *Invocation) (bool, error) {
		ok, err := test.Mapping(ctx, inv)
		if err != nil {
			return false, err
		}
		return !ok, nil
	})
}

// Names are for diagnostics only.
func joinNames(tests []PushTest, sep string) string {
	names := make([]string, len(tests))
	for i, t := range tests {
		names[i] = t.Name()
	}
	if len(names) > 1 {
		return "(" + strings.Join(names, sep) + ")"
	}
	return strings.Join(names, sep)
}
