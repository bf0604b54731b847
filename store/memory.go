package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cataloghq/idkit/util"
)

// Memory is an in-memory Store. All methods are safe for concurrent use.
// Returned records are copies; mutating them does not change stored state.
type Memory struct {
	mu sync.RWMutex

	users       map[string]*User
	tokens      map[string]*TokenMetadata
	apiKeys     map[string]*APIKey
	sessions    map[string]*Session
	totpSecrets map[string]*TOTPSecret
	identities  map[string]*OAuthIdentity

	roles       map[string]*Role
	groups      map[string]*Group
	permissions map[string]*Permission
	userRoles   map[string][]string
	userGroups  map[string][]string
	// grants is keyed by principal (user email or group slug), then by
	// resourceType + "/" + resourceSlug.
	grants map[string]map[string][]*ResourceGrant
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]*User),
		tokens:      make(map[string]*TokenMetadata),
		apiKeys:     make(map[string]*APIKey),
		sessions:    make(map[string]*Session),
		totpSecrets: make(map[string]*TOTPSecret),
		identities:  make(map[string]*OAuthIdentity),
		roles:       make(map[string]*Role),
		groups:      make(map[string]*Group),
		permissions: make(map[string]*Permission),
		userRoles:   make(map[string][]string),
		userGroups:  make(map[string][]string),
		grants:      make(map[string]map[string][]*ResourceGrant),
	}
}

var _ Store = (*Memory)(nil)

// --- Users ---

func (m *Memory) GetUser(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) UpsertUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Email] = cloneUser(u)
	return nil
}

func (m *Memory) TouchLastLogin(_ context.Context, email string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return ErrNotFound
	}
	t := at
	u.LastLogin = &t
	return nil
}

// --- Tokens ---

func (m *Memory) CreateTokenMetadata(_ context.Context, tm *TokenMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[tm.JTI]; ok {
		return ErrAlreadyExists
	}
	cp := *tm
	m.tokens[tm.JTI] = &cp
	return nil
}

func (m *Memory) GetTokenMetadata(_ context.Context, jti string) (*TokenMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tm, ok := m.tokens[jti]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tm
	return &cp, nil
}

func (m *Memory) RevokeToken(_ context.Context, jti string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tm, ok := m.tokens[jti]
	if !ok {
		return ErrNotFound
	}
	if !tm.Revoked {
		t := at
		tm.Revoked = true
		tm.RevokedAt = &t
	}
	return nil
}

func (m *Memory) RevokeUserTokens(_ context.Context, email string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tm := range m.tokens {
		if tm.UserEmail == email && !tm.Revoked {
			t := at
			tm.Revoked = true
			tm.RevokedAt = &t
			n++
		}
	}
	return n, nil
}

func (m *Memory) DeleteExpiredTokens(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for jti, tm := range m.tokens {
		if !tm.ExpiresAt.After(now) {
			delete(m.tokens, jti)
			n++
		}
	}
	return n, nil
}

// --- APIKeys ---

func (m *Memory) CreateAPIKey(_ context.Context, k *APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apiKeys[k.KeyID]; ok {
		return ErrAlreadyExists
	}
	m.apiKeys[k.KeyID] = cloneAPIKey(k)
	return nil
}

func (m *Memory) GetAPIKey(_ context.Context, keyID string) (*APIKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.apiKeys[keyID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAPIKey(k), nil
}

func (m *Memory) ListAPIKeys(_ context.Context, email string) ([]*APIKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*APIKey
	for _, k := range m.apiKeys {
		if k.UserEmail == email {
			out = append(out, cloneAPIKey(k))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateAPIKey(_ context.Context, k *APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apiKeys[k.KeyID]; !ok {
		return ErrNotFound
	}
	m.apiKeys[k.KeyID] = cloneAPIKey(k)
	return nil
}

func (m *Memory) TouchAPIKey(_ context.Context, keyID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.apiKeys[keyID]
	if !ok {
		return ErrNotFound
	}
	k.LastUsed = util.Ptr(at)
	return nil
}

func (m *Memory) RevokeAPIKey(_ context.Context, keyID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.apiKeys[keyID]
	if !ok {
		return ErrNotFound
	}
	if !k.Revoked {
		t := at
		k.Revoked = true
		k.RevokedAt = &t
	}
	return nil
}

// --- Sessions ---

func (m *Memory) CreateSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.SessionID]; ok {
		return ErrAlreadyExists
	}
	cp := *s
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *Memory) GetSession(_ context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) ListSessions(_ context.Context, email string) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Session
	for _, s := range m.sessions {
		if s.UserEmail == email {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out, nil
}

func (m *Memory) TouchSession(_ context.Context, sessionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	s.LastActivity = at
	return nil
}

func (m *Memory) DeleteSessions(_ context.Context, sessionIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sessionIDs {
		delete(m.sessions, id)
	}
	return nil
}

func (m *Memory) DeleteUserSessions(_ context.Context, email string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.UserEmail == email {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// --- TOTPSecrets ---

func (m *Memory) GetTOTPSecret(_ context.Context, email string) (*TOTPSecret, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.totpSecrets[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTOTPSecret(s), nil
}

func (m *Memory) PutTOTPSecret(_ context.Context, s *TOTPSecret) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totpSecrets[s.UserEmail] = cloneTOTPSecret(s)
	return nil
}

func (m *Memory) DeleteTOTPSecret(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.totpSecrets[email]; !ok {
		return ErrNotFound
	}
	delete(m.totpSecrets, email)
	return nil
}

// --- OAuthIdentities ---

func identityKey(provider, providerUserID string) string {
	return provider + "/" + providerUserID
}

func (m *Memory) GetOAuthIdentity(_ context.Context, provider, providerUserID string) (*OAuthIdentity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.identities[identityKey(provider, providerUserID)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneIdentity(id), nil
}

func (m *Memory) ListOAuthIdentities(_ context.Context, email string) ([]*OAuthIdentity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*OAuthIdentity
	for _, id := range m.identities {
		if id.UserEmail == email {
			out = append(out, cloneIdentity(id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}

func (m *Memory) UpsertOAuthIdentity(_ context.Context, id *OAuthIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[identityKey(id.Provider, id.ProviderUserID)] = cloneIdentity(id)
	return nil
}

// --- Graph ---

func (m *Memory) GetRole(_ context.Context, slug string) (*Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[slug]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	cp.Permissions = append([]string(nil), r.Permissions...)
	return &cp, nil
}

func (m *Memory) UpsertRole(_ context.Context, r *Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	cp.Permissions = append([]string(nil), r.Permissions...)
	m.roles[r.Slug] = &cp
	return nil
}

func (m *Memory) GetGroup(_ context.Context, slug string) (*Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[slug]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	cp.Roles = append([]string(nil), g.Roles...)
	return &cp, nil
}

func (m *Memory) UpsertGroup(_ context.Context, g *Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	cp.Roles = append([]string(nil), g.Roles...)
	m.groups[g.Slug] = &cp
	return nil
}

func (m *Memory) GetPermission(_ context.Context, name string) (*Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.permissions[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) UpsertPermission(_ context.Context, p *Permission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.permissions[p.Name] = &cp
	return nil
}

func (m *Memory) UserRoles(_ context.Context, email string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.userRoles[email]...), nil
}

func (m *Memory) AssignRole(_ context.Context, email, roleSlug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[roleSlug]; !ok {
		return ErrNotFound
	}
	for _, s := range m.userRoles[email] {
		if s == roleSlug {
			return nil
		}
	}
	m.userRoles[email] = append(m.userRoles[email], roleSlug)
	return nil
}

func (m *Memory) UserGroups(_ context.Context, email string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.userGroups[email]...), nil
}

func (m *Memory) AddGroupMember(_ context.Context, email, groupSlug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[groupSlug]; !ok {
		return ErrNotFound
	}
	for _, s := range m.userGroups[email] {
		if s == groupSlug {
			return nil
		}
	}
	m.userGroups[email] = append(m.userGroups[email], groupSlug)
	return nil
}

func resourceKey(resourceType, resourceSlug string) string {
	return resourceType + "/" + resourceSlug
}

func (m *Memory) UserResourceGrants(_ context.Context, email, resourceType, resourceSlug string) ([]*ResourceGrant, error) {
	return m.principalGrants(email, resourceType, resourceSlug), nil
}

func (m *Memory) GroupResourceGrants(_ context.Context, groupSlug, resourceType, resourceSlug string) ([]*ResourceGrant, error) {
	return m.principalGrants(groupSlug, resourceType, resourceSlug), nil
}

func (m *Memory) principalGrants(principal, resourceType, resourceSlug string) []*ResourceGrant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ResourceGrant
	for _, g := range m.grants[principal][resourceKey(resourceType, resourceSlug)] {
		cp := *g
		cp.Actions = append([]string(nil), g.Actions...)
		out = append(out, &cp)
	}
	return out
}

func (m *Memory) GrantResourceAccess(_ context.Context, principal, resourceType, resourceSlug string, actions []string, grantedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.grants[principal] == nil {
		m.grants[principal] = make(map[string][]*ResourceGrant)
	}
	key := resourceKey(resourceType, resourceSlug)
	m.grants[principal][key] = append(m.grants[principal][key], &ResourceGrant{
		ResourceType: resourceType,
		ResourceSlug: resourceSlug,
		Actions:      append([]string(nil), actions...),
		GrantedAt:    time.Now().UTC(),
		GrantedBy:    grantedBy,
	})
	return nil
}

// --- clone helpers ---

func cloneUser(u *User) *User {
	cp := *u
	if u.PasswordHash != nil {
		h := *u.PasswordHash
		cp.PasswordHash = &h
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		cp.LastLogin = &t
	}
	return &cp
}

func cloneAPIKey(k *APIKey) *APIKey {
	cp := *k
	cp.Scopes = append([]string(nil), k.Scopes...)
	cp.ExpiresAt = cloneTime(k.ExpiresAt)
	cp.LastUsed = cloneTime(k.LastUsed)
	cp.LastRotated = cloneTime(k.LastRotated)
	cp.RevokedAt = cloneTime(k.RevokedAt)
	return &cp
}

func cloneTOTPSecret(s *TOTPSecret) *TOTPSecret {
	cp := *s
	cp.BackupCodes = append([]string(nil), s.BackupCodes...)
	cp.LastUsed = cloneTime(s.LastUsed)
	return &cp
}

func cloneIdentity(id *OAuthIdentity) *OAuthIdentity {
	cp := *id
	if id.AccessToken != nil {
		v := *id.AccessToken
		cp.AccessToken = &v
	}
	if id.RefreshToken != nil {
		v := *id.RefreshToken
		cp.RefreshToken = &v
	}
	cp.TokenExpiresAt = cloneTime(id.TokenExpiresAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
