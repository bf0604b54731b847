package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cataloghq/idkit/auth/mfa"
	"github.com/cataloghq/idkit/auth/oauth"
	"github.com/cataloghq/idkit/auth/password"
	"github.com/cataloghq/idkit/auth/token"
	"github.com/cataloghq/idkit/authz"
	"github.com/cataloghq/idkit/encryption"
	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/logger"
	"github.com/cataloghq/idkit/session"
	"github.com/cataloghq/idkit/store"
)

// apiKeyPrefix marks machine credentials. Everything without it is
// treated as a JWT.
const apiKeyPrefix = "ik_"

// Deps are the collaborators an Authenticator needs. Store, Issuer,
// Hasher and Resolver are required; the rest degrade gracefully when
// nil (no federated login, no MFA step-up, no session tracking).
type Deps struct {
	Store    store.Store
	Issuer   *token.Service
	Hasher   password.Hasher
	Resolver *authz.Resolver
	Sessions *session.Governor
	MFA      *mfa.Verifier
	Broker   *oauth.Broker
	Crypt    *encryption.TokenEncryption
	Logger   *logger.Logger
}

// Authenticator turns presented credentials into authorized principals
// and owns the interactive login lifecycle.
type Authenticator struct {
	store    store.Store
	issuer   *token.Service
	hasher   password.Hasher
	resolver *authz.Resolver
	sessions *session.Governor
	mfa      *mfa.Verifier
	broker   *oauth.Broker
	crypt    *encryption.TokenEncryption
	log      *logger.Logger
	now      func() time.Time
}

// New assembles an Authenticator from its collaborators.
func New(deps Deps) (*Authenticator, error) {
	if deps.Store == nil {
		return nil, apperrors.InvalidConfig("auth: store is required")
	}
	if deps.Issuer == nil {
		return nil, apperrors.InvalidConfig("auth: token issuer is required")
	}
	if deps.Hasher == nil {
		return nil, apperrors.InvalidConfig("auth: password hasher is required")
	}
	if deps.Resolver == nil {
		return nil, apperrors.InvalidConfig("auth: permission resolver is required")
	}
	log := deps.Logger
	if log == nil {
		log = logger.Get("auth")
	}
	return &Authenticator{
		store:    deps.Store,
		issuer:   deps.Issuer,
		hasher:   deps.Hasher,
		resolver: deps.Resolver,
		sessions: deps.Sessions,
		mfa:      deps.MFA,
		broker:   deps.Broker,
		crypt:    deps.Crypt,
		log:      log,
		now:      time.Now,
	}, nil
}

// GetCurrentUser authenticates whatever credential the request carried.
func (a *Authenticator) GetCurrentUser(ctx context.Context, credential string) (*authz.AuthContext, error) {
	if credential == "" {
		return nil, apperrors.Unauthorized("missing credentials")
	}
	if strings.HasPrefix(credential, apiKeyPrefix) {
		return a.AuthenticateAPIKey(ctx, credential)
	}
	return a.AuthenticateJWT(ctx, credential)
}

// AuthenticateJWT validates an access token end to end: signature and
// expiry, token type, revocation metadata, and an active owner. The
// result carries the owner's resolved permissions.
func (a *Authenticator) AuthenticateJWT(ctx context.Context, raw string) (*authz.AuthContext, error) {
	claims, err := a.issuer.Decode(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != token.TypeAccess {
		return nil, apperrors.InvalidToken("not an access token")
	}

	md, err := a.store.GetTokenMetadata(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.log.Warn("access token with unknown jti", logger.Fields(logger.FieldJTI, claims.ID))
			return nil, apperrors.InvalidToken("token is not recognized")
		}
		return nil, apperrors.StoreError("load token metadata").WithCause(err)
	}
	if md.Revoked {
		return nil, apperrors.TokenRevoked("token has been revoked")
	}

	user, err := a.activeUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	if err := a.store.TouchLastLogin(ctx, user.Email, a.now().UTC()); err != nil {
		a.log.Warn("failed to stamp last_login", logger.Fields(
			logger.FieldEmail, user.Email,
			logger.FieldError, err.Error(),
		))
	}

	perms, err := a.resolver.LoadUserPermissions(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	return &authz.AuthContext{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsAdmin:     user.IsAdmin,
		Method:      authz.MethodJWT,
		JTI:         claims.ID,
		Permissions: perms,
	}, nil
}

// AuthenticateAPIKey validates an ik_<keyid>_<secret> credential. The
// caller sees one generic failure for every reason; the distinctions
// are logged.
func (a *Authenticator) AuthenticateAPIKey(ctx context.Context, raw string) (*authz.AuthContext, error) {
	parts := strings.SplitN(raw, "_", 3)
	if len(parts) != 3 || parts[0] != "ik" || parts[1] == "" || parts[2] == "" {
		return nil, apperrors.Unauthorized("invalid api key")
	}
	keyID := apiKeyPrefix + parts[1]
	secret := parts[2]

	key, err := a.store.GetAPIKey(ctx, keyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid api key")
		}
		return nil, apperrors.StoreError("load api key").WithCause(err)
	}
	if key.Revoked {
		a.log.Warn("revoked api key presented", logger.Fields(logger.FieldKeyID, keyID))
		return nil, apperrors.Unauthorized("invalid api key")
	}
	if key.ExpiresAt != nil && key.ExpiresAt.Before(a.now()) {
		a.log.Warn("expired api key presented", logger.Fields(logger.FieldKeyID, keyID))
		return nil, apperrors.Unauthorized("invalid api key")
	}
	if err := a.hasher.Verify(secret, key.KeyHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			a.log.Warn("api key secret mismatch", logger.Fields(logger.FieldKeyID, keyID))
			return nil, apperrors.Unauthorized("invalid api key")
		}
		return nil, apperrors.Internal("verify api key").WithCause(err)
	}

	user, err := a.activeUser(ctx, key.UserEmail)
	if err != nil {
		return nil, err
	}

	if err := a.store.TouchAPIKey(ctx, keyID, a.now().UTC()); err != nil {
		a.log.Warn("failed to stamp api key last_used", logger.Fields(
			logger.FieldKeyID, keyID,
			logger.FieldError, err.Error(),
		))
	}

	perms, err := a.resolver.LoadUserPermissions(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	return &authz.AuthContext{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsAdmin:     user.IsAdmin,
		Method:      authz.MethodAPIKey,
		KeyID:       keyID,
		Permissions: perms.Intersect(key.Scopes),
	}, nil
}

// activeUser loads a user and enforces the active flag. Missing and
// inactive accounts fail identically for the caller, with the real
// reason logged.
func (a *Authenticator) activeUser(ctx context.Context, email string) (*store.User, error) {
	user, err := a.store.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.log.Warn("credential references an unknown user", logger.Fields(logger.FieldEmail, email))
			return nil, apperrors.Unauthorized("authentication failed")
		}
		return nil, apperrors.StoreError("load user").WithCause(err)
	}
	if !user.IsActive {
		a.log.Warn("credential references an inactive user", logger.Fields(logger.FieldEmail, email))
		return nil, apperrors.Unauthorized("authentication failed")
	}
	return user, nil
}
