package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cataloghq/idkit/authz"
	apperrors "github.com/cataloghq/idkit/errors"
)

func TestAPIKeyLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestCore(t)
	c.seedUser(t, "dev@example.com")

	plaintext, key, err := c.a.CreateAPIKey(ctx, "dev@example.com", "ci", "pipeline key", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(plaintext, "ik_") {
		t.Fatalf("unexpected plaintext shape: %s", plaintext)
	}
	if parts := strings.SplitN(plaintext, "_", 3); len(parts) != 3 {
		t.Fatalf("plaintext must be ik_<keyid>_<secret>: %s", plaintext)
	}

	actx, err := c.a.GetCurrentUser(ctx, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	if actx.Method != authz.MethodAPIKey || actx.KeyID != key.KeyID {
		t.Errorf("unexpected principal: %+v", actx)
	}

	// A tampered secret fails.
	if _, err := c.a.GetCurrentUser(ctx, plaintext+"x"); !apperrors.IsCode(err, apperrors.ErrCodeUnauthorized) {
		t.Errorf("tampered secret: expected UNAUTHORIZED, got %v", err)
	}

	// Rotation invalidates the old secret.
	rotated, err := c.a.RotateAPIKey(ctx, "dev@example.com", key.KeyID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.a.GetCurrentUser(ctx, plaintext); !apperrors.IsCode(err, apperrors.ErrCodeUnauthorized) {
		t.Errorf("pre-rotation secret: expected UNAUTHORIZED, got %v", err)
	}
	if _, err := c.a.GetCurrentUser(ctx, rotated); err != nil {
		t.Errorf("rotated secret rejected: %v", err)
	}

	// Revocation is terminal; rotation of a revoked key is refused.
	if err := c.a.RevokeAPIKey(ctx, "dev@example.com", key.KeyID); err != nil {
		t.Fatal(err)
	}
	if _, err := c.a.GetCurrentUser(ctx, rotated); !apperrors.IsCode(err, apperrors.ErrCodeUnauthorized) {
		t.Errorf("revoked key: expected UNAUTHORIZED, got %v", err)
	}
	if _, err := c.a.RotateAPIKey(ctx, "dev@example.com", key.KeyID); !apperrors.IsCode(err, apperrors.ErrCodeConflict) {
		t.Errorf("rotating revoked key: expected CONFLICT, got %v", err)
	}
}

func TestAPIKeyScopesNarrowPermissions(t *testing.T) {
	ctx := context.Background()
	c := newTestCore(t)
	c.seedUser(t, "dev@example.com")
	c.seedRole(t, "dev@example.com", "developer", []string{"project:read", "project:write", "component:read"})

	full, _, err := c.a.CreateAPIKey(ctx, "dev@example.com", "full", "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	scoped, _, err := c.a.CreateAPIKey(ctx, "dev@example.com", "scoped", "", []string{"project:*"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	unrestricted, err := c.a.GetCurrentUser(ctx, full)
	if err != nil {
		t.Fatal(err)
	}
	narrowed, err := c.a.GetCurrentUser(ctx, scoped)
	if err != nil {
		t.Fatal(err)
	}

	if len(unrestricted.Permissions) != 3 {
		t.Errorf("unrestricted perms = %v", unrestricted.Permissions.Slice())
	}
	if len(narrowed.Permissions) != 2 || narrowed.Permissions.Has("component:read") {
		t.Errorf("scoped perms = %v", narrowed.Permissions.Slice())
	}
	// The scoped set is a subset of the unrestricted one.
	for p := range narrowed.Permissions {
		if !unrestricted.Permissions.Has(p) {
			t.Errorf("scoped permission %s not in unrestricted set", p)
		}
	}
}

func TestAPIKeyExpiry(t *testing.T) {
	ctx := context.Background()
	c := newTestCore(t)
	c.seedUser(t, "dev@example.com")

	past := time.Now().Add(-time.Hour)
	plaintext, _, err := c.a.CreateAPIKey(ctx, "dev@example.com", "stale", "", nil, &past)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.a.GetCurrentUser(ctx, plaintext); !apperrors.IsCode(err, apperrors.ErrCodeUnauthorized) {
		t.Errorf("expired key: expected UNAUTHORIZED, got %v", err)
	}
}

func TestAPIKeyOwnership(t *testing.T) {
	ctx := context.Background()
	c := newTestCore(t)
	c.seedUser(t, "dev@example.com")
	c.seedUser(t, "other@example.com")

	_, key, err := c.a.CreateAPIKey(ctx, "dev@example.com", "mine", "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Someone else's key reads as missing.
	if _, err := c.a.RotateAPIKey(ctx, "other@example.com", key.KeyID); !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	if err := c.a.RevokeAPIKey(ctx, "other@example.com", key.KeyID); !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}

	keys, err := c.a.ListAPIKeys(ctx, "dev@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0].KeyHash != "" {
		t.Errorf("listing must not expose hashes: %+v", keys)
	}
}
