package auth

import (
	"context"
	"errors"
	"time"

	"github.com/cataloghq/idkit/auth/password"
	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/logger"
	"github.com/cataloghq/idkit/store"
)

const (
	keyIDBytes     = 8
	keySecretBytes = 24
)

// CreateAPIKey mints a machine credential for the user. The returned
// plaintext is the only copy; the store keeps a hash of the secret.
// Scopes narrow the owner's permissions; an empty list leaves the key
// unrestricted.
func (a *Authenticator) CreateAPIKey(ctx context.Context, email, name, description string, scopes []string, expiresAt *time.Time) (plaintext string, key *store.APIKey, err error) {
	if name == "" {
		return "", nil, apperrors.InvalidInput("api key name is required")
	}

	id, err := password.GenerateToken(keyIDBytes)
	if err != nil {
		return "", nil, apperrors.Internal("generate key id").WithCause(err)
	}
	secret, err := password.GenerateToken(keySecretBytes)
	if err != nil {
		return "", nil, apperrors.Internal("generate key secret").WithCause(err)
	}
	hash, err := a.hasher.Hash(secret)
	if err != nil {
		return "", nil, apperrors.Internal("hash key secret").WithCause(err)
	}

	key = &store.APIKey{
		KeyID:       apiKeyPrefix + id,
		KeyHash:     hash,
		Name:        name,
		Description: description,
		Scopes:      scopes,
		CreatedAt:   a.now().UTC(),
		ExpiresAt:   expiresAt,
		UserEmail:   email,
	}
	if err := a.store.CreateAPIKey(ctx, key); err != nil {
		return "", nil, apperrors.StoreError("create api key").WithCause(err)
	}

	a.log.Info("api key created", logger.Fields(
		logger.FieldEmail, email,
		logger.FieldKeyID, key.KeyID,
	))
	return key.KeyID + "_" + secret, key, nil
}

// RotateAPIKey replaces the key's secret, keeping its id, scopes and
// metadata. The old secret stops working immediately.
func (a *Authenticator) RotateAPIKey(ctx context.Context, email, keyID string) (plaintext string, err error) {
	key, err := a.ownedAPIKey(ctx, email, keyID)
	if err != nil {
		return "", err
	}
	if key.Revoked {
		return "", apperrors.Conflict("api key is revoked")
	}

	secret, err := password.GenerateToken(keySecretBytes)
	if err != nil {
		return "", apperrors.Internal("generate key secret").WithCause(err)
	}
	hash, err := a.hasher.Hash(secret)
	if err != nil {
		return "", apperrors.Internal("hash key secret").WithCause(err)
	}

	now := a.now().UTC()
	key.KeyHash = hash
	key.LastRotated = &now
	if err := a.store.UpdateAPIKey(ctx, key); err != nil {
		return "", apperrors.StoreError("update api key").WithCause(err)
	}

	a.log.Info("api key rotated", logger.Fields(
		logger.FieldEmail, email,
		logger.FieldKeyID, keyID,
	))
	return key.KeyID + "_" + secret, nil
}

// RevokeAPIKey permanently disables the key. Idempotent.
func (a *Authenticator) RevokeAPIKey(ctx context.Context, email, keyID string) error {
	if _, err := a.ownedAPIKey(ctx, email, keyID); err != nil {
		return err
	}
	if err := a.store.RevokeAPIKey(ctx, keyID, a.now().UTC()); err != nil {
		return apperrors.StoreError("revoke api key").WithCause(err)
	}
	a.log.Info("api key revoked", logger.Fields(
		logger.FieldEmail, email,
		logger.FieldKeyID, keyID,
	))
	return nil
}

// ListAPIKeys returns the user's keys. KeyHash is cleared; nothing
// secret leaves this package.
func (a *Authenticator) ListAPIKeys(ctx context.Context, email string) ([]*store.APIKey, error) {
	keys, err := a.store.ListAPIKeys(ctx, email)
	if err != nil {
		return nil, apperrors.StoreError("list api keys").WithCause(err)
	}
	for _, k := range keys {
		k.KeyHash = ""
	}
	return keys, nil
}

// ownedAPIKey loads a key and verifies ownership. A key belonging to
// someone else reads as missing.
func (a *Authenticator) ownedAPIKey(ctx context.Context, email, keyID string) (*store.APIKey, error) {
	key, err := a.store.GetAPIKey(ctx, keyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("api key " + keyID)
		}
		return nil, apperrors.StoreError("load api key").WithCause(err)
	}
	if key.UserEmail != email {
		return nil, apperrors.NotFound("api key " + keyID)
	}
	return key, nil
}
