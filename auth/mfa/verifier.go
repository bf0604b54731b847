package mfa

import (
	"context"
	"errors"
	"time"

	"github.com/cataloghq/idkit/auth/password"
	"github.com/cataloghq/idkit/encryption"
	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/logger"
	"github.com/cataloghq/idkit/store"
	"github.com/cataloghq/idkit/util"
)

// Enrollment is returned by Setup. Secret and Codes are the only copies
// of the plaintext material the caller will ever see.
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	Codes           []string
}

// Verifier checks second factors at login and manages enrollments.
type Verifier struct {
	secrets store.TOTPSecrets
	crypt   *encryption.TokenEncryption
	cfg     Config
	log     *logger.Logger
	now     func() time.Time
}

// NewVerifier creates a verifier over the given secret store.
func NewVerifier(cfg Config, secrets store.TOTPSecrets, crypt *encryption.TokenEncryption, log *logger.Logger) (*Verifier, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Get("mfa")
	}
	return &Verifier{
		secrets: secrets,
		crypt:   crypt,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}, nil
}

// Enabled reports whether the user has an active MFA enrollment.
func (v *Verifier) Enabled(ctx context.Context, email string) (bool, error) {
	rec, err := v.secrets.GetTOTPSecret(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, apperrors.StoreError("load totp secret").WithCause(err)
	}
	return rec.Enabled, nil
}

// VerifyLogin enforces the second factor during login. Users without an
// active enrollment pass through. An enrolled user with no code gets
// MFA_REQUIRED so the client can prompt; a wrong code gets
// INVALID_MFA_CODE. Backup codes are single use and are consumed here.
func (v *Verifier) VerifyLogin(ctx context.Context, email, code string) error {
	rec, err := v.secrets.GetTOTPSecret(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return apperrors.StoreError("load totp secret").WithCause(err)
	}
	if !rec.Enabled {
		return nil
	}
	if code == "" {
		return apperrors.MFARequired("a verification code is required")
	}

	secret := v.crypt.DecryptToken(&rec.Secret)
	if secret == nil {
		v.log.Error("enrolled totp secret could not be decrypted", logger.Fields(logger.FieldEmail, email))
		return apperrors.Internal("mfa verification unavailable")
	}

	if VerifyCode(*secret, code, v.now(), v.cfg.Period, v.cfg.Digits, v.cfg.Skew) {
		rec.LastUsed = util.Ptr(v.now().UTC())
		if err := v.secrets.PutTOTPSecret(ctx, rec); err != nil {
			return apperrors.StoreError("update totp secret").WithCause(err)
		}
		return nil
	}

	hashed := password.HashSHA256(code)
	for i, c := range rec.BackupCodes {
		if c == hashed {
			rec.BackupCodes = append(rec.BackupCodes[:i], rec.BackupCodes[i+1:]...)
			rec.LastUsed = util.Ptr(v.now().UTC())
			if err := v.secrets.PutTOTPSecret(ctx, rec); err != nil {
				return apperrors.StoreError("consume backup code").WithCause(err)
			}
			v.log.Info("backup code consumed", logger.Fields(
				logger.FieldEmail, email,
				"remaining", len(rec.BackupCodes),
			))
			return nil
		}
	}

	return apperrors.InvalidMFACode("invalid verification code")
}

// Setup creates a disabled enrollment and returns the plaintext secret,
// provisioning URI, and backup codes. Re-running setup replaces any
// previous enrollment.
func (v *Verifier) Setup(ctx context.Context, email string) (*Enrollment, error) {
	secret, err := GenerateSecret()
	if err != nil {
		return nil, apperrors.Internal("generate totp secret").WithCause(err)
	}

	codes := make([]string, v.cfg.BackupCodes)
	hashes := make([]string, v.cfg.BackupCodes)
	for i := range codes {
		c, err := password.GenerateToken(4)
		if err != nil {
			return nil, apperrors.Internal("generate backup code").WithCause(err)
		}
		codes[i] = c
		hashes[i] = password.HashSHA256(c)
	}

	sealed, err := v.crypt.EncryptToken(&secret)
	if err != nil {
		return nil, apperrors.Internal("encrypt totp secret").WithCause(err)
	}

	rec := &store.TOTPSecret{
		Secret:      *sealed,
		Enabled:     false,
		BackupCodes: hashes,
		CreatedAt:   v.now().UTC(),
		UserEmail:   email,
	}
	if err := v.secrets.PutTOTPSecret(ctx, rec); err != nil {
		return nil, apperrors.StoreError("store totp secret").WithCause(err)
	}

	return &Enrollment{
		Secret:          secret,
		ProvisioningURI: ProvisioningURI(v.cfg.Issuer, email, secret, v.cfg.Period, v.cfg.Digits),
		Codes:           codes,
	}, nil
}

// VerifyAndEnable activates a pending enrollment once the user proves
// their authenticator produces valid codes. Backup codes are not
// accepted here.
func (v *Verifier) VerifyAndEnable(ctx context.Context, email, code string) error {
	rec, err := v.secrets.GetTOTPSecret(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("no pending mfa enrollment")
		}
		return apperrors.StoreError("load totp secret").WithCause(err)
	}

	secret := v.crypt.DecryptToken(&rec.Secret)
	if secret == nil {
		return apperrors.Internal("mfa verification unavailable")
	}
	if !VerifyCode(*secret, code, v.now(), v.cfg.Period, v.cfg.Digits, v.cfg.Skew) {
		return apperrors.InvalidMFACode("invalid verification code")
	}

	rec.Enabled = true
	rec.LastUsed = util.Ptr(v.now().UTC())
	if err := v.secrets.PutTOTPSecret(ctx, rec); err != nil {
		return apperrors.StoreError("enable totp secret").WithCause(err)
	}
	v.log.Info("mfa enabled", logger.Fields(logger.FieldEmail, email))
	return nil
}

// Disable removes the user's enrollment. The caller is responsible for
// re-authenticating the user before disabling.
func (v *Verifier) Disable(ctx context.Context, email string) error {
	if err := v.secrets.DeleteTOTPSecret(ctx, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("no mfa enrollment")
		}
		return apperrors.StoreError("delete totp secret").WithCause(err)
	}
	v.log.Info("mfa disabled", logger.Fields(logger.FieldEmail, email))
	return nil
}
