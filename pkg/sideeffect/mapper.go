// Package sideeffect records which goals are fulfilled by something
// outside the machine, e.g., a CI system that reports back when it has
// built the pushed revision.
package sideeffect

import (
	"github.com/fluxcd/sdm/pkg/goal"
)

// GoalSideEffect associates a side effect with the goal it fulfils.
type GoalSideEffect struct {
	SideEffectName string `json:"sideEffectName" yaml:"sideEffectName"`
	GoalContext    string `json:"goalContext" yaml:"goalContext"`
}

// Mapper is a directory from goal context to side effect. It is
// populated while the machine is configured and only read afterwards;
// it is not safe to add side effects once it is being queried from
// other goroutines.
//
// Goal contexts are expected to be unique within a mapper. Nothing
// checks that: when a context is registered more than once, the first
// registration is the one found.
type Mapper struct {
	sideEffects []GoalSideEffect
}

func NewMapper() *Mapper {
	return &Mapper{}
}

// AddSideEffect records that the goal given is fulfilled by the named
// side effect. It returns the mapper so calls can be chained.
func (m *Mapper) AddSideEffect(g *goal.Goal, sideEffectName string) *Mapper {
	m.sideEffects = append(m.sideEffects, GoalSideEffect{
		SideEffectName: sideEffectName,
		GoalContext:    g.Context(),
	})
	return m
}

// FindByGoal returns the first side effect registered for the goal's
// context, and false if there is none.
func (m *Mapper) FindByGoal(g *goal.Goal) (GoalSideEffect, bool) {
	return m.FindByContext(g.Context())
}

func (m *Mapper) FindByContext(context string) (GoalSideEffect, bool) {
	for _, se := range m.sideEffects {
		if se.GoalContext == context {
			return se, true
		}
	}
	return GoalSideEffect{}, false
}

// SideEffects returns all registrations in the order they were made,
// shadowed ones included.
func (m *Mapper) SideEffects() []GoalSideEffect {
	res := make([]GoalSideEffect, len(m.sideEffects))
	copy(res, m.sideEffects)
	return res
}
