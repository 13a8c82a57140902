package goal

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/fluxcd/sdm/pkg/push"
)

// PushRule sets the goals given when a push satisfies the test. A rule
// with nil Goals matches without setting any, so it still stops the
// rules after it.
type PushRule struct {
	Name  string
	Test  push.PushTest
	Goals *Goals
}

type RuleBuilder struct {
	test push.PushTest
}

// WhenPushSatisfies starts a rule that applies when all the tests
// given pass, e.g.,
//
//     goal.WhenPushSatisfies(push.IsMaven, push.ToDefaultBranch).SetGoals(deployGoals)
func WhenPushSatisfies(tests ...push.PushTest) RuleBuilder {
	if len(tests) == 1 {
		return RuleBuilder{test: tests[0]}
	}
	return RuleBuilder{test: push.AllSatisfied(tests...)}
}

// SetGoals finishes the rule. It is named after the goals, or after
// the test when there are none.
func (b RuleBuilder) SetGoals(goals *Goals) PushRule {
	if goals == nil {
		return PushRule{Name: b.test.Name(), Test: b.test}
	}
	return PushRule{Name: goals.Name, Test: b.test, Goals: goals}
}

// Mapping decides which goals apply to a push. A nil result means no
// goals.
type Mapping interface {
	Plan(ctx context.Context, inv *push.Invocation) (*Goals, error)
}

const (
	outcomeMatched   = "matched"
	outcomeUnmatched = "unmatched"
	outcomeError     = "error"
)

func evaluate(ctx context.Context, rule PushRule, inv *push.Invocation) (bool, error) {
	ok, err := rule.Test.Mapping(ctx, inv)
	outcome := outcomeUnmatched
	switch {
	case err != nil:
		outcome = outcomeError
	case ok:
		outcome = outcomeMatched
	}
	ruleEvaluations.With(LabelRule, rule.Name, LabelOutcome, outcome).Add(1)
	if err != nil {
		return false, errors.Wrapf(err, "evaluating push rule %q (%s)", rule.Name, rule.Test.Name())
	}
	return ok, nil
}

// Rules gives the goals of the first rule satisfied by a push, in the
// order the rules were given.
type Rules []PushRule

func (rs Rules) Plan(ctx context.Context, inv *push.Invocation) (*Goals, error) {
	for _, rule := range rs {
		ok, err := evaluate(ctx, rule, inv)
		if err != nil {
			return nil, err
		}
		if ok {
			return rule.Goals, nil
		}
	}
	return nil, nil
}

// Contributions gives the goals of every rule satisfied by a push,
// in rule order, with each goal context appearing once.
type Contributions []PushRule

func (cs Contributions) Plan(ctx context.Context, inv *push.Invocation) (*Goals, error) {
	var names []string
	var goals []*Goal
	seen := map[string]struct{}{}
	for _, rule := range cs {
		ok, err := evaluate(ctx, rule, inv)
		if err != nil {
			return nil, err
		}
		if !ok || rule.Goals == nil {
			continue
		}
		names = append(names, rule.Name)
		for _, g := range rule.Goals.Goals {
			if _, dup := seen[g.Context()]; dup {
				continue
			}
			seen[g.Context()] = struct{}{}
			goals = append(goals, g)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	return NewGoals(strings.Join(names, ", "), goals...), nil
}
