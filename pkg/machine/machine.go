// Package machine assembles a software delivery machine: the push
// rules deciding which goals apply to a push, the side effects
// fulfilling some of those goals, and the functional units reacting
// to what happens.
package machine

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/go-kit/kit/log"

	"github.com/fluxcd/sdm/pkg/event"
	"github.com/fluxcd/sdm/pkg/goal"
	"github.com/fluxcd/sdm/pkg/push"
	"github.com/fluxcd/sdm/pkg/sideeffect"
	"github.com/fluxcd/sdm/pkg/unit"
)

const DescribeIntent = "describe sdm"

// Machine is configured once, at startup, and only read afterwards.
type Machine struct {
	name          string
	sideEffects   *sideeffect.Mapper
	logger        log.Logger
	rules         goal.Rules
	contributions goal.Contributions
	units         []unit.FunctionalUnit
	builtin       *unit.Unit
}

// PlannedGoal is a goal that applies to a push, with the side effect
// that fulfils it, if there is one.
type PlannedGoal struct {
	Goal       *goal.Goal
	SideEffect sideeffect.GoalSideEffect
	External   bool
}

// InitialState is the state a planned goal is reported in: goals
// fulfilled by a side effect are requested of it straight away.
func (p PlannedGoal) InitialState() goal.State {
	if p.External {
		return goal.StateRequested
	}
	return goal.StatePlanned
}

func (p PlannedGoal) Description() string {
	if p.External {
		return fmt.Sprintf("%s (via %s)", p.Goal.Describe(goal.StateRequested), p.SideEffect.SideEffectName)
	}
	return p.Goal.Describe(goal.StatePlanned)
}

// Assemble creates a machine from the side effect registry and units
// given. The registry is the machine's from now on; it should not be
// added to once the machine is running.
func Assemble(name string, sideEffects *sideeffect.Mapper, logger log.Logger, units ...unit.FunctionalUnit) *Machine {
	if sideEffects == nil {
		sideEffects = sideeffect.NewMapper()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	m := &Machine{
		name:        name,
		sideEffects: sideEffects,
		logger:      log.With(logger, "component", "machine", "machine", name),
	}
	m.builtin = m.builtinUnit()
	return m.AddFunctionalUnits(units...)
}

func (m *Machine) Name() string {
	return m.name
}

func (m *Machine) SideEffects() *sideeffect.Mapper {
	return m.sideEffects
}

// WithPushRules adds rules of which the first satisfied by a push
// decides its goals.
func (m *Machine) WithPushRules(rules ...goal.PushRule) *Machine {
	m.rules = append(m.rules, rules...)
	return m
}

// WithGoalContributions adds rules which each contribute their goals
// when satisfied by a push, on top of those from the push rules.
func (m *Machine) WithGoalContributions(rules ...goal.PushRule) *Machine {
	m.contributions = append(m.contributions, rules...)
	return m
}

func (m *Machine) AddFunctionalUnits(units ...unit.FunctionalUnit) *Machine {
	m.units = append(m.units, units...)
	return m
}

func (m *Machine) composed() *unit.Composed {
	return unit.Compose(append([]unit.FunctionalUnit{m.builtin}, m.units...)...)
}

func (m *Machine) EventHandlers() []unit.EventHandlerMaker {
	return m.composed().EventHandlers()
}

func (m *Machine) CommandHandlers() []unit.CommandHandlerMaker {
	return m.composed().CommandHandlers()
}

// PlanGoals works out which goals apply to the push, in the order the
// rules give them, each goal once.
func (m *Machine) PlanGoals(ctx context.Context, inv *push.Invocation) ([]PlannedGoal, error) {
	var planned []PlannedGoal
	seen := map[string]struct{}{}
	for _, mapping := range []goal.Mapping{m.rules, m.contributions} {
		goals, err := mapping.Plan(ctx, inv)
		if err != nil {
			return nil, err
		}
		if goals == nil {
			continue
		}
		for _, g := range goals.Goals {
			if _, ok := seen[g.Context()]; ok {
				continue
			}
			seen[g.Context()] = struct{}{}
			se, external := m.sideEffects.FindByGoal(g)
			planned = append(planned, PlannedGoal{Goal: g, SideEffect: se, External: external})
		}
	}
	return planned, nil
}

// Goals returns every goal any rule could plan, sorted by context.
func (m *Machine) Goals() []*goal.Goal {
	byContext := map[string]*goal.Goal{}
	for _, rules := range [][]goal.PushRule{m.rules, m.contributions} {
		for _, r := range rules {
			if r.Goals == nil {
				continue
			}
			for _, g := range r.Goals.Goals {
				if _, ok := byContext[g.Context()]; !ok {
					byContext[g.Context()] = g
				}
			}
		}
	}
	res := make([]*goal.Goal, 0, len(byContext))
	for _, g := range byContext {
		res = append(res, g)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Context() < res[j].Context()
	})
	return res
}

func (m *Machine) GoalByContext(context string) (*goal.Goal, bool) {
	for _, g := range m.Goals() {
		if g.Context() == context {
			return g, true
		}
	}
	return nil, false
}

func (m *Machine) builtinUnit() *unit.Unit {
	return &unit.Unit{
		Events: []unit.EventHandlerMaker{
			func() unit.EventHandler {
				return unit.EventHandlerFunc(event.OnGoalCompleted, m.logCompletedGoal)
			},
		},
		Commands: []unit.CommandHandlerMaker{
			func() unit.CommandHandler {
				return unit.CommandHandlerFunc(DescribeIntent, func(context.Context, unit.Parameters) (string, error) {
					return m.Describe(), nil
				})
			},
		},
	}
}

func (m *Machine) logCompletedGoal(_ context.Context, e event.Event) error {
	metadata, ok := e.Metadata.(*event.GoalEventMetadata)
	if !ok {
		return fmt.Errorf("expected goal metadata for %s event, got %T", e.Type, e.Metadata)
	}
	m.logger.Log("event", e.ID.String(), "goal", metadata.Goal, "state", metadata.State,
		"repo", e.Repo.String(), "revision", e.ShortRevision())
	return nil
}

// Describe lists the machine's goals and how each is fulfilled.
func (m *Machine) Describe() string {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "SDM %s\n\n", m.name)
	w := tabwriter.NewWriter(buf, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "GOAL\tENVIRONMENT\tFULFILMENT")
	for _, g := range m.Goals() {
		fulfilment := "sdm"
		if se, ok := m.sideEffects.FindByGoal(g); ok {
			fulfilment = "side effect " + se.SideEffectName
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", g.Context(), g.Environment(), fulfilment)
	}
	w.Flush()
	return buf.String()
}
