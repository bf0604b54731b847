package mfa

import (
	"context"
	"encoding/base32"
	"strings"
	"testing"
	"time"

	"github.com/cataloghq/idkit/encryption"
	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/store"
)

func newTestVerifier(t *testing.T) (*Verifier, *store.Memory) {
	t.Helper()
	enc, err := encryption.New(encryption.Config{Key: "test-encryption-key"})
	if err != nil {
		t.Fatal(err)
	}
	m := store.NewMemory()
	v, err := NewVerifier(Config{Issuer: "Catalog"}, m, encryption.NewTokenEncryption(enc, nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	return v, m
}

// codeAt computes the valid code for a secret at a point in time.
func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return totpCode(key, uint64(at.Unix()/30), 6)
}

func TestVerifyLoginWithoutEnrollment(t *testing.T) {
	v, _ := newTestVerifier(t)
	if err := v.VerifyLogin(context.Background(), "plain@example.com", ""); err != nil {
		t.Errorf("unenrolled user must pass, got %v", err)
	}
}

func TestSetupAndEnable(t *testing.T) {
	ctx := context.Background()
	v, m := newTestVerifier(t)
	at := time.Unix(1700000000, 0)
	v.now = func() time.Time { return at }

	enr, err := v.Setup(ctx, "user@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(enr.Codes) != 10 {
		t.Fatalf("backup codes = %d, want 10", len(enr.Codes))
	}
	if !strings.Contains(enr.ProvisioningURI, "issuer=Catalog") {
		t.Errorf("unexpected provisioning URI: %s", enr.ProvisioningURI)
	}

	// Plaintext material must not be stored.
	rec, err := m.GetTOTPSecret(ctx, "user@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Secret == enr.Secret {
		t.Error("secret stored in plaintext")
	}
	for _, c := range rec.BackupCodes {
		if c == enr.Codes[0] {
			t.Error("backup code stored in plaintext")
		}
	}
	if rec.Enabled {
		t.Error("enrollment must start disabled")
	}

	// Pending enrollment does not yet gate logins.
	if err := v.VerifyLogin(ctx, "user@example.com", ""); err != nil {
		t.Errorf("pending enrollment must not require a code, got %v", err)
	}

	if err := v.VerifyAndEnable(ctx, "user@example.com", "000000"); !apperrors.IsCode(err, apperrors.ErrCodeInvalidMFACode) {
		t.Errorf("expected INVALID_MFA_CODE, got %v", err)
	}
	if err := v.VerifyAndEnable(ctx, "user@example.com", codeAt(t, enr.Secret, at)); err != nil {
		t.Fatal(err)
	}

	enabled, err := v.Enabled(ctx, "user@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !enabled {
		t.Error("expected enabled enrollment")
	}
}

func TestVerifyLoginEnabled(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVerifier(t)
	at := time.Unix(1700000000, 0)
	v.now = func() time.Time { return at }

	enr, err := v.Setup(ctx, "user@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.VerifyAndEnable(ctx, "user@example.com", codeAt(t, enr.Secret, at)); err != nil {
		t.Fatal(err)
	}

	if err := v.VerifyLogin(ctx, "user@example.com", ""); !apperrors.IsCode(err, apperrors.ErrCodeMFARequired) {
		t.Errorf("expected MFA_REQUIRED, got %v", err)
	}
	if err := v.VerifyLogin(ctx, "user@example.com", "999999"); !apperrors.IsCode(err, apperrors.ErrCodeInvalidMFACode) {
		t.Errorf("expected INVALID_MFA_CODE, got %v", err)
	}
	if err := v.VerifyLogin(ctx, "user@example.com", codeAt(t, enr.Secret, at)); err != nil {
		t.Errorf("valid code rejected: %v", err)
	}
}

func TestVerifyLoginBackupCodeConsumed(t *testing.T) {
	ctx := context.Background()
	v, m := newTestVerifier(t)
	at := time.Unix(1700000000, 0)
	v.now = func() time.Time { return at }

	enr, err := v.Setup(ctx, "user@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.VerifyAndEnable(ctx, "user@example.com", codeAt(t, enr.Secret, at)); err != nil {
		t.Fatal(err)
	}

	backup := enr.Codes[3]
	if err := v.VerifyLogin(ctx, "user@example.com", backup); err != nil {
		t.Fatalf("backup code rejected: %v", err)
	}

	rec, err := m.GetTOTPSecret(ctx, "user@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.BackupCodes) != 9 {
		t.Errorf("backup codes remaining = %d, want 9", len(rec.BackupCodes))
	}

	// Single use.
	if err := v.VerifyLogin(ctx, "user@example.com", backup); !apperrors.IsCode(err, apperrors.ErrCodeInvalidMFACode) {
		t.Errorf("expected reused code to fail, got %v", err)
	}
}

func TestDisable(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVerifier(t)
	at := time.Unix(1700000000, 0)
	v.now = func() time.Time { return at }

	enr, err := v.Setup(ctx, "user@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.VerifyAndEnable(ctx, "user@example.com", codeAt(t, enr.Secret, at)); err != nil {
		t.Fatal(err)
	}
	if err := v.Disable(ctx, "user@example.com"); err != nil {
		t.Fatal(err)
	}
	if err := v.VerifyLogin(ctx, "user@example.com", ""); err != nil {
		t.Errorf("disabled user must pass, got %v", err)
	}
	if err := v.Disable(ctx, "user@example.com"); !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
