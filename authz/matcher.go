package authz

import "strings"

// MatchPattern checks if a permission pattern matches a required
// permission. Patterns use the "resource_type:action" format with
// wildcards:
//
//   - "*:*"           matches everything
//   - "project:*"     matches "project:read", "project:write", etc.
//   - "*:read"        matches "project:read", "component:read", etc.
//   - "project:read"  matches only "project:read"
//
// If either side has no ":" separator, the strings are compared plainly
// with wildcard support.
func MatchPattern(pattern, required string) bool {
	if pattern == required || pattern == "*" || pattern == "*:*" {
		return true
	}

	patParts := strings.SplitN(pattern, ":", 2)
	reqParts := strings.SplitN(required, ":", 2)

	if len(patParts) != len(reqParts) || len(patParts) == 1 {
		return matchWildcard(pattern, required)
	}
	return matchWildcard(patParts[0], reqParts[0]) && matchWildcard(patParts[1], reqParts[1])
}

// MatchAny returns true if any of the patterns match the required
// permission.
func MatchAny(patterns []string, required string) bool {
	for _, p := range patterns {
		if MatchPattern(p, required) {
			return true
		}
	}
	return false
}

func matchWildcard(pattern, value string) bool {
	return pattern == "*" || pattern == value
}
