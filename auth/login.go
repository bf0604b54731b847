package auth

import (
	"context"
	"errors"

	"github.com/cataloghq/idkit/auth/password"
	"github.com/cataloghq/idkit/auth/token"
	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/logger"
	"github.com/cataloghq/idkit/store"
)

// TokenPair is a freshly minted access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

// LoginResult is what a successful interactive login returns.
type LoginResult struct {
	TokenPair
	SessionID string `json:"session_id"`
}

// LoginRequest carries the credentials and client details of one
// interactive login attempt.
type LoginRequest struct {
	Email     string
	Password  string
	MFACode   string
	IPAddress string
	UserAgent string
}

// Login runs the interactive password login: password check with
// transparent rehash, MFA step-up, token minting, and session
// bookkeeping. Unknown, inactive and federation-only accounts all fail
// with the same generic error.
func (a *Authenticator) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := a.activeUser(ctx, req.Email)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeUnauthorized) {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		a.log.Warn("password login against a federation-only account", logger.Fields(logger.FieldEmail, user.Email))
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	if err := a.hasher.Verify(req.Password, *user.PasswordHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			a.log.Info("password mismatch", logger.Fields(logger.FieldEmail, user.Email))
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, apperrors.Internal("verify password").WithCause(err)
	}
	a.rehashIfNeeded(ctx, user, req.Password)

	if a.mfa != nil {
		if err := a.mfa.VerifyLogin(ctx, user.Email, req.MFACode); err != nil {
			return nil, err
		}
	}

	return a.finishLogin(ctx, user, req.IPAddress, req.UserAgent)
}

// rehashIfNeeded upgrades the stored hash when the configured algorithm
// or cost has moved on. A failure here never fails the login.
func (a *Authenticator) rehashIfNeeded(ctx context.Context, user *store.User, plaintext string) {
	if !a.hasher.NeedsRehash(*user.PasswordHash) {
		return
	}
	rehashed, err := a.hasher.Hash(plaintext)
	if err == nil {
		user.PasswordHash = &rehashed
		err = a.store.UpsertUser(ctx, user)
	}
	if err != nil {
		a.log.Warn("password rehash failed", logger.Fields(
			logger.FieldEmail, user.Email,
			logger.FieldError, err.Error(),
		))
		return
	}
	a.log.Info("password hash upgraded", logger.Fields(logger.FieldEmail, user.Email))
}

// finishLogin mints the token pair, records metadata and a session, and
// stamps last_login. Shared by password and federated logins.
func (a *Authenticator) finishLogin(ctx context.Context, user *store.User, ipAddress, userAgent string) (*LoginResult, error) {
	pair, err := a.issuePair(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{TokenPair: *pair}
	if a.sessions != nil {
		sess, err := a.sessions.Create(ctx, user.Email, ipAddress, userAgent)
		if err != nil {
			return nil, err
		}
		if _, err := a.sessions.EnforceLimit(ctx, user.Email); err != nil {
			return nil, err
		}
		result.SessionID = sess.SessionID
	}

	if err := a.store.TouchLastLogin(ctx, user.Email, a.now().UTC()); err != nil {
		a.log.Warn("failed to stamp last_login", logger.Fields(
			logger.FieldEmail, user.Email,
			logger.FieldError, err.Error(),
		))
	}
	a.log.Info("login succeeded", logger.Fields(
		logger.FieldEmail, user.Email,
		logger.FieldSessionID, result.SessionID,
	))
	return result, nil
}

// issuePair mints an access/refresh pair and persists revocation
// metadata for both.
func (a *Authenticator) issuePair(ctx context.Context, email string) (*TokenPair, error) {
	now := a.now().UTC()

	access, accessJTI, err := a.issuer.CreateAccessToken(email)
	if err != nil {
		return nil, apperrors.Internal("issue access token").WithCause(err)
	}
	refresh, refreshJTI, err := a.issuer.CreateRefreshToken(email)
	if err != nil {
		return nil, apperrors.Internal("issue refresh token").WithCause(err)
	}

	records := []*store.TokenMetadata{
		{JTI: accessJTI, TokenType: token.TypeAccess, IssuedAt: now, ExpiresAt: now.Add(a.issuer.AccessTokenTTL()), UserEmail: email},
		{JTI: refreshJTI, TokenType: token.TypeRefresh, IssuedAt: now, ExpiresAt: now.Add(a.issuer.RefreshTokenTTL()), UserEmail: email},
	}
	for _, tm := range records {
		if err := a.store.CreateTokenMetadata(ctx, tm); err != nil {
			return nil, apperrors.StoreError("record token metadata").WithCause(err)
		}
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(a.issuer.AccessTokenTTL().Seconds()),
	}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// brand new pair is issued. A refresh token can therefore be used
// exactly once.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := a.issuer.Decode(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != token.TypeRefresh {
		return nil, apperrors.InvalidToken("not a refresh token")
	}

	md, err := a.store.GetTokenMetadata(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
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

	if err := a.store.RevokeToken(ctx, claims.ID, a.now().UTC()); err != nil {
		return nil, apperrors.StoreError("revoke refresh token").WithCause(err)
	}
	return a.issuePair(ctx, user.Email)
}

// Logout revokes the jtis of the presented tokens. Tokens that already
// expired are skipped; they cannot be replayed anyway.
func (a *Authenticator) Logout(ctx context.Context, tokens ...string) error {
	for _, raw := range tokens {
		claims, err := a.issuer.Decode(raw)
		if err != nil {
			if apperrors.IsCode(err, apperrors.ErrCodeTokenExpired) {
				continue
			}
			return err
		}
		if err := a.store.RevokeToken(ctx, claims.ID, a.now().UTC()); err != nil && !errors.Is(err, store.ErrNotFound) {
			return apperrors.StoreError("revoke token").WithCause(err)
		}
	}
	return nil
}

// LogoutAll revokes every live token and deletes every session the user
// has.
func (a *Authenticator) LogoutAll(ctx context.Context, email string) error {
	revoked, err := a.store.RevokeUserTokens(ctx, email, a.now().UTC())
	if err != nil {
		return apperrors.StoreError("revoke user tokens").WithCause(err)
	}
	var deleted int
	if a.sessions != nil {
		deleted, err = a.sessions.DeleteUserSessions(ctx, email)
		if err != nil {
			return err
		}
	}
	a.log.Info("logged out everywhere", logger.Fields(
		logger.FieldEmail, email,
		"tokens_revoked", revoked,
		"sessions_deleted", deleted,
	))
	return nil
}
