package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no node. Callers translate
// it into their own error taxonomy.
var ErrNotFound = errors.New("store: not found")

// ErrAlreadyExists is returned when a create would violate a uniqueness
// constraint (jti, key_id, session_id).
var ErrAlreadyExists = errors.New("store: already exists")

// Users manages principal nodes keyed by email.
type Users interface {
	GetUser(ctx context.Context, email string) (*User, error)
	UpsertUser(ctx context.Context, u *User) error
	TouchLastLogin(ctx context.Context, email string, at time.Time) error
}

// Tokens manages token revocation metadata keyed by jti.
type Tokens interface {
	CreateTokenMetadata(ctx context.Context, tm *TokenMetadata) error
	GetTokenMetadata(ctx context.Context, jti string) (*TokenMetadata, error)
	RevokeToken(ctx context.Context, jti string, at time.Time) error
	// RevokeUserTokens revokes every live token owned by the user and
	// returns how many were revoked.
	RevokeUserTokens(ctx context.Context, email string, at time.Time) (int, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}

// APIKeys manages machine credentials keyed by key_id.
type APIKeys interface {
	CreateAPIKey(ctx context.Context, k *APIKey) error
	GetAPIKey(ctx context.Context, keyID string) (*APIKey, error)
	ListAPIKeys(ctx context.Context, email string) ([]*APIKey, error)
	// UpdateAPIKey replaces the stored key record.
	UpdateAPIKey(ctx context.Context, k *APIKey) error
	TouchAPIKey(ctx context.Context, keyID string, at time.Time) error
	RevokeAPIKey(ctx context.Context, keyID string, at time.Time) error
}

// Sessions manages interactive login records keyed by session_id.
type Sessions interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	// ListSessions returns the user's sessions ordered by last activity,
	// most recent first.
	ListSessions(ctx context.Context, email string) ([]*Session, error)
	TouchSession(ctx context.Context, sessionID string, at time.Time) error
	DeleteSessions(ctx context.Context, sessionIDs []string) error
	DeleteUserSessions(ctx context.Context, email string) (int, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// TOTPSecrets manages MFA enrollments, one per user.
type TOTPSecrets interface {
	GetTOTPSecret(ctx context.Context, email string) (*TOTPSecret, error)
	// PutTOTPSecret creates or replaces the user's enrollment.
	PutTOTPSecret(ctx context.Context, s *TOTPSecret) error
	DeleteTOTPSecret(ctx context.Context, email string) error
}

// OAuthIdentities manages provider-identity links keyed by
// (provider, provider_user_id).
type OAuthIdentities interface {
	GetOAuthIdentity(ctx context.Context, provider, providerUserID string) (*OAuthIdentity, error)
	ListOAuthIdentities(ctx context.Context, email string) ([]*OAuthIdentity, error)
	UpsertOAuthIdentity(ctx context.Context, id *OAuthIdentity) error
}

// Graph exposes the role, group, and grant topology the authorization
// resolver traverses. Read methods return empty slices, never ErrNotFound,
// when a principal simply has nothing assigned.
type Graph interface {
	GetRole(ctx context.Context, slug string) (*Role, error)
	UpsertRole(ctx context.Context, r *Role) error
	GetGroup(ctx context.Context, slug string) (*Group, error)
	UpsertGroup(ctx context.Context, g *Group) error
	GetPermission(ctx context.Context, name string) (*Permission, error)
	UpsertPermission(ctx context.Context, p *Permission) error

	// UserRoles returns role slugs assigned directly to the user (HAS_ROLE).
	UserRoles(ctx context.Context, email string) ([]string, error)
	AssignRole(ctx context.Context, email, roleSlug string) error
	// UserGroups returns group slugs the user belongs to directly (MEMBER_OF).
	UserGroups(ctx context.Context, email string) ([]string, error)
	AddGroupMember(ctx context.Context, email, groupSlug string) error

	// UserResourceGrants returns the user's CAN_ACCESS grants on one resource.
	UserResourceGrants(ctx context.Context, email, resourceType, resourceSlug string) ([]*ResourceGrant, error)
	// GroupResourceGrants returns a group's CAN_ACCESS grants on one resource.
	GroupResourceGrants(ctx context.Context, groupSlug, resourceType, resourceSlug string) ([]*ResourceGrant, error)
	GrantResourceAccess(ctx context.Context, principal, resourceType, resourceSlug string, actions []string, grantedBy string) error
}

// Store is the full collaborator contract the identity core assembles
// against. One backing store implements all of it.
type Store interface {
	Users
	Tokens
	APIKeys
	Sessions
	TOTPSecrets
	OAuthIdentities
	Graph
}
