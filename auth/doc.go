// Package auth is the authentication dispatcher: it turns a presented
// credential into an authorized principal.
//
// Two credential shapes are accepted. API keys carry the "ik_" prefix
// and are verified against a stored hash; everything else is treated as
// a signed JWT. Both paths end in an authz.AuthContext carrying the
// principal's effective permissions, so callers never branch on how the
// caller authenticated.
//
// Subpackages hold the focused building blocks:
//
//   - auth/token    — JWT issuing and validation
//   - auth/password — password and API-key-secret hashing
//   - auth/oauth    — OAuth2/OIDC login brokering
//   - auth/mfa      — TOTP second factor and backup codes
//   - auth/authctx  — request context propagation for the principal
package auth
