package authz

import "sort"

// PermissionSet is a set of permission strings.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from permission strings.
func NewPermissionSet(perms ...string) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether the set satisfies the required permission, either
// exactly or through a wildcard entry.
func (s PermissionSet) Has(required string) bool {
	if _, ok := s[required]; ok {
		return true
	}
	for p := range s {
		if MatchPattern(p, required) {
			return true
		}
	}
	return false
}

// Slice returns the permissions in sorted order.
func (s PermissionSet) Slice() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Intersect keeps only the permissions matched by at least one scope
// pattern. An empty scope list means the credential is unrestricted and
// the set is returned unchanged.
func (s PermissionSet) Intersect(scopes []string) PermissionSet {
	if len(scopes) == 0 {
		return s
	}
	out := make(PermissionSet)
	for p := range s {
		if MatchAny(scopes, p) {
			out[p] = struct{}{}
		}
	}
	return out
}

// Authentication method names recorded on AuthContext.
const (
	MethodJWT    = "jwt"
	MethodAPIKey = "api_key"
)

// AuthContext is the authenticated principal every guarded operation
// receives. Permissions are already effective: for API keys they have
// been narrowed to the key's scopes.
type AuthContext struct {
	// Email identifies the user.
	Email string
	// DisplayName is the user's display name.
	DisplayName string
	// IsAdmin short-circuits all permission checks.
	IsAdmin bool
	// Method records how the principal authenticated (jwt, api_key).
	Method string
	// KeyID is set when Method is api_key.
	KeyID string
	// JTI is set when Method is jwt.
	JTI string
	// Permissions are the effective permissions.
	Permissions PermissionSet
}

// HasPermission reports whether the principal satisfies the required
// permission. Admins satisfy everything.
func (a *AuthContext) HasPermission(required string) bool {
	if a.IsAdmin {
		return true
	}
	return a.Permissions.Has(required)
}
