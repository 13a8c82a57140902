package sideeffect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fluxcd/sdm/pkg/goal"
)

func TestFindByGoal(t *testing.T) {
	m := NewMapper().AddSideEffect(goal.BuildGoal, "ci-build")

	se, ok := m.FindByGoal(goal.BuildGoal)
	assert.True(t, ok)
	assert.Equal(t, "ci-build", se.SideEffectName)
	assert.Equal(t, goal.BuildGoal.Context(), se.GoalContext)
}

func TestFirstRegistrationWins(t *testing.T) {
	m := NewMapper()
	m.AddSideEffect(goal.BuildGoal, "A").AddSideEffect(goal.BuildGoal, "B")

	se, ok := m.FindByGoal(goal.BuildGoal)
	assert.True(t, ok)
	assert.Equal(t, "A", se.SideEffectName)
	assert.Len(t, m.SideEffects(), 2)
}

func TestFindByGoalNotFound(t *testing.T) {
	m := NewMapper().AddSideEffect(goal.BuildGoal, "ci-build")

	se, ok := m.FindByGoal(goal.StagingDeploymentGoal)
	assert.False(t, ok)
	assert.Equal(t, GoalSideEffect{}, se)

	_, ok = NewMapper().FindByGoal(goal.BuildGoal)
	assert.False(t, ok)
}

func TestFindByContextDistinguishesEnvironments(t *testing.T) {
	m := NewMapper().
		AddSideEffect(goal.StagingDeploymentGoal, "deploy-staging").
		AddSideEffect(goal.ProductionDeploymentGoal, "deploy-prod")

	se, ok := m.FindByContext("sdm/2-prod/deploy")
	assert.True(t, ok)
	assert.Equal(t, "deploy-prod", se.SideEffectName)
}

func TestSideEffectsIsACopy(t *testing.T) {
	m := NewMapper().AddSideEffect(goal.BuildGoal, "ci-build")
	ses := m.SideEffects()
	ses[0].SideEffectName = "changed"

	se, _ := m.FindByGoal(goal.BuildGoal)
	assert.Equal(t, "ci-build", se.SideEffectName)
}
