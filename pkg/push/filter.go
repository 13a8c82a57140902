package push

import (
	"github.com/ryanuber/go-glob"
)

// FileFilter is an include/exclude predicate over repository paths,
// using glob patterns. A `*` in a pattern matches across directory
// separators, so `*.java` matches `src/main/java/App.java`.
type FileFilter struct {
	Include []string
	Exclude []string
}

// IsIncluded uses the logic:
//  - if the path matches any exclude pattern, don't include it
//  - otherwise, if there are no include patterns, include it
//  - otherwise, if it matches an include pattern, include it
//  = otherwise don't include it.
func (f FileFilter) IsIncluded(path string) bool {
	for _, ex := range f.Exclude {
		if glob.Glob(ex, path) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, in := range f.Include {
		if glob.Glob(in, path) {
			return true
		}
	}
	return false
}

// AnyIncluded reports whether at least one of the paths is included.
func (f FileFilter) AnyIncluded(paths []string) bool {
	for _, p := range paths {
		if f.IsIncluded(p) {
			return true
		}
	}
	return false
}
