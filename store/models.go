package store

import "time"

// User is a principal: a human account or a machine service account.
type User struct {
	Email       string
	DisplayName string
	// PasswordHash is nil for federation-only accounts.
	PasswordHash     *string
	IsActive         bool
	IsAdmin          bool
	IsServiceAccount bool
	AvatarURL        string
	CreatedAt        time.Time
	LastLogin        *time.Time
}

// OAuthIdentity links a provider identity to a User. Provider tokens are
// stored encrypted; use encryption.TokenEncryption to read them.
type OAuthIdentity struct {
	Provider       string
	ProviderUserID string
	Email          string
	DisplayName    string
	AvatarURL      string
	AccessToken    *string
	RefreshToken   *string
	TokenExpiresAt *time.Time
	LinkedAt       time.Time
	LastUsed       time.Time
	UserEmail      string
}

// Permission names an allowed action on a resource type.
// Name is always "<resource_type>:<action>".
type Permission struct {
	Name         string
	ResourceType string
	Action       string
	Description  string
}

// Role groups permissions. A role inherits from at most one parent role
// (INHERITS_FROM, acyclic by construction).
type Role struct {
	Name     string
	Slug     string
	Priority int
	IsSystem bool
	// Parent is the parent role slug, empty when the role is a root.
	Parent string
	// Permissions are permission names granted directly by this role.
	Permissions []string
}

// Group is a hierarchical container principals join. Groups can be
// assigned roles, extending the effective permissions of their members.
type Group struct {
	Name string
	Slug string
	// Parent is the parent group slug, empty when the group is a root.
	Parent string
	// Roles are role slugs assigned to the group (ASSIGNED_ROLE).
	Roles []string
}

// TokenMetadata is the stored revocation checkpoint for an otherwise
// stateless signed token. JTI is unique and is the sole revocation handle.
type TokenMetadata struct {
	JTI       string
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
	UserEmail string
}

// Session tracks one interactive login for concurrency-limit enforcement.
type Session struct {
	SessionID    string
	UserEmail    string
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
	LastActivity time.Time
	ExpiresAt    time.Time
}

// APIKey is a machine credential. Only the hash of the secret is stored.
type APIKey struct {
	KeyID       string
	KeyHash     string
	Name        string
	Description string
	// Scopes restrict which of the owner's permissions the key may
	// exercise. Empty means unrestricted by the key.
	Scopes      []string
	CreatedAt   time.Time
	ExpiresAt   *time.Time
	LastUsed    *time.Time
	LastRotated *time.Time
	Revoked     bool
	RevokedAt   *time.Time
	UserEmail   string
}

// TOTPSecret holds a user's MFA enrollment. Secret is encrypted at rest;
// BackupCodes hold hashes of single-use recovery codes.
type TOTPSecret struct {
	Secret      string
	Enabled     bool
	BackupCodes []string
	CreatedAt   time.Time
	LastUsed    *time.Time
	UserEmail   string
}

// ResourceGrant is a resource-scoped permission (CAN_ACCESS): the holder
// may perform Actions on the single resource named by type and slug.
type ResourceGrant struct {
	ResourceType string
	ResourceSlug string
	Actions      []string
	GrantedAt    time.Time
	GrantedBy    string
}
