package push

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invocationFor(ref string) *Invocation {
	return NewInvocation(&Push{
		Repo:   RepoRef{Owner: "fluxcd", Name: "sdm", DefaultBranch: "master"},
		Ref:    ref,
		Before: "0000000000000000000000000000000000000000",
		After:  "b9b7b1f",
	}, nil)
}

func TestPushRefs(t *testing.T) {
	p := invocationFor("refs/heads/feature/x").Push
	assert.Equal(t, "feature/x", p.Branch())
	assert.Equal(t, "", p.Tag())
	assert.False(t, p.ToDefaultBranch())
	assert.False(t, p.HasBefore())

	p = invocationFor("refs/tags/v1.2.0").Push
	assert.Equal(t, "", p.Branch())
	assert.Equal(t, "v1.2.0", p.Tag())

	p.Before = "a1b2c3"
	assert.True(t, p.HasBefore())
}

func TestRefPushTests(t *testing.T) {
	for _, c := range []struct {
		test     PushTest
		ref      string
		expected bool
	}{
		{ToDefaultBranch, "refs/heads/master", true},
		{ToDefaultBranch, "refs/heads/develop", false},
		{ToDefaultBranch, "refs/tags/master", false},
		{IsTag, "refs/tags/v1.0.0", true},
		{IsTag, "refs/heads/v1.0.0", false},
		{ToBranch("release/*"), "refs/heads/release/1.x", true},
		{ToBranch("glob:release/*"), "refs/heads/master", false},
		{ToBranch("regexp:^feature-[0-9]+$"), "refs/heads/feature-12", true},
		{ToBranch("release/*"), "refs/tags/release/1.x", false},
		{TagMatches("semver:>=1.0.0"), "refs/tags/v1.2.0", true},
		{TagMatches("semver:>=1.0.0"), "refs/tags/v0.9.0", false},
		{TagMatches("semver:>=1.0.0"), "refs/tags/latest", false},
	} {
		t.Run(c.test.Name()+" "+c.ref, func(t *testing.T) {
			ok, err := c.test.Mapping(context.Background(), invocationFor(c.ref))
			require.NoError(t, err)
			assert.Equal(t, c.expected, ok)
		})
	}
}

func TestPatterns(t *testing.T) {
	assert.True(t, PatternAll.Matches("anything/at/all"))
	assert.Equal(t, "glob:master", NewPattern("master").String())
	assert.Equal(t, "regexp:^v", NewPattern("regex:^v").String())

	invalidSemver := NewPattern("semver:not a constraint")
	assert.False(t, invalidSemver.Valid())
	assert.False(t, invalidSemver.Matches("1.0.0"))

	invalidRegexp := NewPattern("regexp:(")
	assert.False(t, invalidRegexp.Valid())
	assert.False(t, invalidRegexp.Matches("("))
}
