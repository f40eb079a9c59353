// Package safety provides content filtering and audit logging for the
// pmkin MCP tools.
package safety

import "path/filepath"

// Filter decides which categories the MCP tools may expose, by category
// slug. Glob patterns (as understood by filepath.Match) are supported in
// both lists.
//
// Rules:
//   - A nil Filter, or one with both lists empty, allows every slug.
//   - Denylist always takes priority over the allowlist.
//   - If a non-empty allowlist is present, a slug must match at least one
//     allowlist pattern to be permitted.
//
// Uncategorized documents are checked as the empty slug "".
type Filter struct {
	allowlist []string
	denylist  []string
}

// NewFilter constructs a Filter from the provided allowlist and denylist
// pattern slices. Either or both may be nil or empty.
func NewFilter(allowlist, denylist []string) *Filter {
	return &Filter{
		allowlist: allowlist,
		denylist:  denylist,
	}
}

// IsAllowed reports whether content in the category with the given slug
// may be exposed.
func (f *Filter) IsAllowed(slug string) bool {
	if f == nil {
		return true
	}

	for _, pattern := range f.denylist {
		if matchGlob(pattern, slug) {
			return false
		}
	}

	if len(f.allowlist) == 0 {
		return true
	}

	for _, pattern := range f.allowlist {
		if matchGlob(pattern, slug) {
			return true
		}
	}

	return false
}

// matchGlob returns true when name matches the given glob pattern.
// Malformed patterns never match.
func matchGlob(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		return false
	}
	return matched
}
