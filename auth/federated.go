package auth

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/logger"
	"github.com/cataloghq/idkit/store"
)

// BeginOAuthLogin starts a federated login and returns the provider
// authorization URL together with the sealed state token.
func (a *Authenticator) BeginOAuthLogin(ctx context.Context, providerName, redirectURI string) (authURL, state string, err error) {
	if a.broker == nil {
		return "", "", apperrors.InvalidConfig("federated login is not configured")
	}
	return a.broker.BeginFlow(ctx, providerName, redirectURI)
}

// CompleteOAuthLogin finishes a federated login: the callback code is
// exchanged, the profile fetched, the user and identity link upserted,
// and a normal login result issued. First-time profiles create an
// active account; a deactivated account cannot re-enter through a
// provider.
func (a *Authenticator) CompleteOAuthLogin(ctx context.Context, providerName, state, code, ipAddress, userAgent string) (*LoginResult, error) {
	if a.broker == nil {
		return nil, apperrors.InvalidConfig("federated login is not configured")
	}

	profile, tok, err := a.broker.CompleteFlow(ctx, providerName, state, code)
	if err != nil {
		return nil, err
	}

	user, err := a.store.GetUser(ctx, profile.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		user = &store.User{
			Email:       profile.Email,
			DisplayName: profile.Name,
			IsActive:    true,
			AvatarURL:   profile.AvatarURL,
			CreatedAt:   a.now().UTC(),
		}
		if err := a.store.UpsertUser(ctx, user); err != nil {
			return nil, apperrors.StoreError("create user").WithCause(err)
		}
		a.log.Info("provisioned user from identity provider", logger.Fields(
			logger.FieldEmail, user.Email,
			logger.FieldProvider, providerName,
		))
	case err != nil:
		return nil, apperrors.StoreError("load user").WithCause(err)
	case !user.IsActive:
		a.log.Warn("federated login for an inactive user", logger.Fields(logger.FieldEmail, user.Email))
		return nil, apperrors.Unauthorized("authentication failed")
	}

	if err := a.linkIdentity(ctx, providerName, user.Email, profile.ID, profile.Name, profile.AvatarURL, tok.AccessToken, tok.RefreshToken, tok.ExpiresIn); err != nil {
		return nil, err
	}

	return a.finishLogin(ctx, user, ipAddress, userAgent)
}

// linkIdentity upserts the provider-identity link with the provider
// tokens encrypted at rest.
func (a *Authenticator) linkIdentity(ctx context.Context, provider, email, providerUserID, displayName, avatarURL, accessToken, refreshToken string, expiresIn int64) error {
	now := a.now().UTC()
	id := &store.OAuthIdentity{
		Provider:       provider,
		ProviderUserID: providerUserID,
		Email:          email,
		DisplayName:    displayName,
		AvatarURL:      avatarURL,
		LinkedAt:       now,
		LastUsed:       now,
		UserEmail:      email,
	}
	if existing, err := a.store.GetOAuthIdentity(ctx, provider, providerUserID); err == nil {
		id.LinkedAt = existing.LinkedAt
	}

	if a.crypt != nil {
		var err error
		if accessToken != "" {
			if id.AccessToken, err = a.crypt.EncryptToken(&accessToken); err != nil {
				return apperrors.Internal("encrypt provider token").WithCause(err)
			}
		}
		if refreshToken != "" {
			if id.RefreshToken, err = a.crypt.EncryptToken(&refreshToken); err != nil {
				return apperrors.Internal("encrypt provider token").WithCause(err)
			}
		}
	}
	if expiresIn > 0 {
		exp := now.Add(time.Duration(expiresIn) * time.Second)
		id.TokenExpiresAt = &exp
	}

	if err := a.store.UpsertOAuthIdentity(ctx, id); err != nil {
		return apperrors.StoreError("link identity").WithCause(err)
	}
	return nil
}

// ProviderTokens returns the decrypted provider tokens for a linked
// identity. Tokens that cannot be decrypted read as absent.
func (a *Authenticator) ProviderTokens(ctx context.Context, provider, providerUserID string) (accessToken, refreshToken *string, err error) {
	id, err := a.store.GetOAuthIdentity(ctx, provider, providerUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, apperrors.NotFound("identity is not linked")
		}
		return nil, nil, apperrors.StoreError("load identity").WithCause(err)
	}
	if a.crypt == nil {
		return nil, nil, nil
	}
	return a.crypt.DecryptToken(id.AccessToken), a.crypt.DecryptToken(id.RefreshToken), nil
}
