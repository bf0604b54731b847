package encryption

import (
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ChaCha20 encrypts with ChaCha20-Poly1305.
type ChaCha20 struct {
	aead cipher.AEAD
}

// NewChaCha20 creates a ChaCha20-Poly1305 encryptor. The key is hashed
// with SHA-256 to produce a consistent 32-byte key.
func NewChaCha20(key string) (*ChaCha20, error) {
	keyBytes := sha256.Sum256([]byte(key))
	aead, err := chacha20poly1305.New(keyBytes[:])
	if err != nil {
		return nil, fmt.Errorf("create chacha20: %w", err)
	}
	return &ChaCha20{aead: aead}, nil
}

// Encrypt encrypts plaintext and returns a base64-encoded result with the
// nonce prepended.
func (s *ChaCha20) Encrypt(plaintext string) (string, error) {
	return sealToBase64(s.aead, plaintext)
}

// Decrypt decrypts a base64-encoded ciphertext.
func (s *ChaCha20) Decrypt(ciphertext string) (string, error) {
	return openFromBase64(s.aead, ciphertext)
}
