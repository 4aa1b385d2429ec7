package pdpmake

import (
	"path/filepath"
	"strings"
)

// containsWildcard reports whether s contains a shell glob metacharacter,
// per spec §4.3's non-POSIX "wildcard prerequisites" extension.
func containsWildcard(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// globExpand expands a wildcard prerequisite token via filepath.Glob,
// grounded on kati's pathutil.go globbing idiom but without its
// find-cache: pdpmake makefiles are small enough that a cache buys
// nothing and would need separate invalidation logic this scheduler has
// no hook for. If the pattern matches nothing, it is kept literally
// (spec §4.3: an unmatched wildcard prerequisite is not an error).
func globExpand(pattern string) []string {
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return []string{pattern}
	}
	return matches
}
