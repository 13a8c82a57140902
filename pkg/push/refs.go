package push

import (
	"context"
)

// ToDefaultBranch is true for pushes to the repository's default
// branch.
var ToDefaultBranch = PredicatePushTest("ToDefaultBranch", func(_ context.Context, inv *Invocation) (bool, error) {
	return inv.Push.ToDefaultBranch(), nil
})

// IsTag is true for pushes of a tag.
var IsTag = PredicatePushTest("IsTag", func(_ context.Context, inv *Invocation) (bool, error) {
	return inv.Push.Tag() != "", nil
})

// ToBranch is true for pushes to a branch whose name matches the
// pattern (see NewPattern).
func ToBranch(pattern string) PushTest {
	p := NewPattern(pattern)
	return PredicatePushTest("ToBranch("+p.String()+")", func(_ context.Context, inv *Invocation) (bool, error) {
		branch := inv.Push.Branch()
		return branch != "" && p.Matches(branch), nil
	})
}

// TagMatches is true for pushes of a tag whose name matches the
// pattern, e.g., `semver:>=1.0.0`.
func TagMatches(pattern string) PushTest {
	p := NewPattern(pattern)
	return PredicatePushTest("TagMatches("+p.String()+")", func(_ context.Context, inv *Invocation) (bool, error) {
		tag := inv.Push.Tag()
		return tag != "" && p.Matches(tag), nil
	})
}
