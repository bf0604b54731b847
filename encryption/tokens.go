package encryption

import (
	"encoding/base64"

	"github.com/cataloghq/idkit/logger"
)

// TokenEncryption protects stored credentials with a forgiving decrypt
// contract: absent values pass through unchanged and an undecryptable
// value degrades to nil instead of failing the read path. A corrupt
// stored token must never make a profile fetch error out.
type TokenEncryption struct {
	enc Encryptor
	log *logger.Logger
}

// NewTokenEncryption wraps an Encryptor for credential storage.
func NewTokenEncryption(enc Encryptor, log *logger.Logger) *TokenEncryption {
	if log == nil {
		log = logger.Get("encryption")
	}
	return &TokenEncryption{enc: enc, log: log}
}

// EncryptToken encrypts a credential for storage. A nil input yields a nil
// output so optional tokens flow through without special-casing.
func (t *TokenEncryption) EncryptToken(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	out, err := t.enc.Encrypt(*value)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DecryptToken decrypts a stored credential. It never returns an error:
// nil stays nil, and a value that cannot be decrypted under the current
// or legacy encoding yields nil with a warning logged.
func (t *TokenEncryption) DecryptToken(value *string) *string {
	if value == nil {
		return nil
	}
	if out, err := t.enc.Decrypt(*value); err == nil {
		return &out
	}
	// Legacy rows carry an extra base64 layer around the ciphertext.
	if inner, err := base64.StdEncoding.DecodeString(*value); err == nil {
		if out, err := t.enc.Decrypt(string(inner)); err == nil {
			return &out
		}
	}
	t.log.Warn("stored token could not be decrypted, treating as absent")
	return nil
}
