package push

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recording returns a push test with a fixed outcome, which appends
// its name to calls when evaluated.
func recording(name string, outcome bool, calls *[]string) PushTest {
	return PredicatePushTest(name, func(context.Context, *Invocation) (bool, error) {
		*calls = append(*calls, name)
		return outcome, nil
	})
}

func failing(name string, err error) PushTest {
	return PredicatePushTest(name, func(context.Context, *Invocation) (bool, error) {
		return false, err
	})
}

var testInvocation = NewInvocation(&Push{
	Repo:  RepoRef{Owner: "fluxcd", Name: "sdm", DefaultBranch: "master"},
	Ref:   "refs/heads/master",
	After: "b9b7b1f",
}, nil)

func TestAllSatisfiedShortCircuits(t *testing.T) {
	var calls []string
	test := AllSatisfied(recording("a", false, &calls), recording("b", true, &calls))
	ok, err := test.Mapping(context.Background(), testInvocation)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, calls)

	calls = nil
	test = AllSatisfied(recording("a", true, &calls), recording("b", true, &calls))
	ok, err = test.Mapping(context.Background(), testInvocation)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestAnySatisfiedShortCircuits(t *testing.T) {
	var calls []string
	test := AnySatisfied(recording("a", true, &calls), recording("b", false, &calls))
	ok, err := test.Mapping(context.Background(), testInvocation)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, calls)

	calls = nil
	test = AnySatisfied(recording("a", false, &calls), recording("b", false, &calls))
	ok, err = test.Mapping(context.Background(), testInvocation)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestEmptyCombinators(t *testing.T) {
	ok, err := AllSatisfied().Mapping(context.Background(), testInvocation)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = AnySatisfied().Mapping(context.Background(), testInvocation)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNot(t *testing.T) {
	var calls []string
	ok, err := Not(recording("a", true, &calls)).Mapping(context.Background(), testInvocation)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Not(recording("b", false, &calls)).Mapping(context.Background(), testInvocation)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCombinatorsPropagateErrors(t *testing.T) {
	boom := errors.New("boom")
	var calls []string

	_, err := AllSatisfied(failing("f", boom), recording("a", true, &calls)).Mapping(context.Background(), testInvocation)
	assert.Equal(t, boom, err)
	_, err = AnySatisfied(failing("f", boom), recording("a", true, &calls)).Mapping(context.Background(), testInvocation)
	assert.Equal(t, boom, err)
	_, err = Not(failing("f", boom)).Mapping(context.Background(), testInvocation)
	assert.Equal(t, boom, err)
	assert.Empty(t, calls)
}

func TestCombinatorNames(t *testing.T) {
	var calls []string
	a, b, c := recording("a", true, &calls), recording("b", true, &calls), recording("c", true, &calls)
	assert.Equal(t, "(a && b)", AllSatisfied(a, b).Name())
	assert.Equal(t, "(a || !b)", AnySatisfied(a, Not(b)).Name())
	assert.Equal(t, "((a && b) || c)", AnySatisfied(AllSatisfied(a, b), c).Name())
	assert.Equal(t, "a", AllSatisfied(a).Name())
}
