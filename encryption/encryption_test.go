package encryption

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	algorithms := []Algorithm{AlgorithmAESGCM, AlgorithmChaCha20}

	for _, alg := range algorithms {
		t.Run(string(alg), func(t *testing.T) {
			enc, err := New(Config{Key: "test-key", Algorithm: string(alg)})
			if err != nil {
				t.Fatal(err)
			}

			plaintexts := []string{"", "short", "a provider refresh token", strings.Repeat("x", 4096)}
			for _, pt := range plaintexts {
				ct, err := enc.Encrypt(pt)
				if err != nil {
					t.Fatalf("encrypt: %v", err)
				}
				if ct == pt && pt != "" {
					t.Error("ciphertext equals plaintext")
				}
				got, err := enc.Decrypt(ct)
				if err != nil {
					t.Fatalf("decrypt: %v", err)
				}
				if got != pt {
					t.Errorf("round trip mismatch: got %q want %q", got, pt)
				}
			}
		})
	}
}

func TestEncryptNonDeterministic(t *testing.T) {
	enc, err := New(Config{Key: "test-key"})
	if err != nil {
		t.Fatal(err)
	}
	a, _ := enc.Encrypt("same input")
	b, _ := enc.Encrypt("same input")
	if a == b {
		t.Error("expected distinct ciphertexts for repeated encryptions")
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	enc1, _ := New(Config{Key: "key-one"})
	enc2, _ := New(Config{Key: "key-two"})

	ct, err := enc1.Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc2.Decrypt(ct); err == nil {
		t.Error("expected decryption with wrong key to fail")
	}
}

func TestDecryptMalformed(t *testing.T) {
	enc, _ := New(Config{Key: "test-key"})

	for _, ct := range []string{"not base64 !!!", base64.StdEncoding.EncodeToString([]byte("xy"))} {
		if _, err := enc.Decrypt(ct); err == nil {
			t.Errorf("expected decrypt of %q to fail", ct)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Algorithm: string(AlgorithmAESGCM)}
	if err := cfg.Validate(); err == nil {
		t.Error("expected missing key to fail validation")
	}
	cfg = Config{Key: "k", Algorithm: "rot13"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown algorithm to fail validation")
	}
}

func TestTokenEncryptionNilTransparent(t *testing.T) {
	enc, _ := New(Config{Key: "test-key"})
	te := NewTokenEncryption(enc, nil)

	out, err := te.EncryptToken(nil)
	if err != nil || out != nil {
		t.Errorf("expected nil passthrough on encrypt, got %v (%v)", out, err)
	}
	if got := te.DecryptToken(nil); got != nil {
		t.Errorf("expected nil passthrough on decrypt, got %v", got)
	}
}

func TestTokenEncryptionRoundTrip(t *testing.T) {
	enc, _ := New(Config{Key: "test-key"})
	te := NewTokenEncryption(enc, nil)

	secret := "ya29.provider-access-token"
	ct, err := te.EncryptToken(&secret)
	if err != nil {
		t.Fatal(err)
	}
	if ct == nil || *ct == secret {
		t.Fatal("expected encrypted output")
	}
	got := te.DecryptToken(ct)
	if got == nil || *got != secret {
		t.Errorf("round trip mismatch: got %v", got)
	}
}

func TestTokenEncryptionLegacyEncoding(t *testing.T) {
	enc, _ := New(Config{Key: "test-key"})
	te := NewTokenEncryption(enc, nil)

	ct, err := enc.Encrypt("legacy secret")
	if err != nil {
		t.Fatal(err)
	}
	legacy := base64.StdEncoding.EncodeToString([]byte(ct))

	got := te.DecryptToken(&legacy)
	if got == nil || *got != "legacy secret" {
		t.Errorf("expected legacy value to decrypt, got %v", got)
	}
}

func TestTokenEncryptionGarbageYieldsNil(t *testing.T) {
	enc, _ := New(Config{Key: "test-key"})
	te := NewTokenEncryption(enc, nil)

	garbage := "definitely not ciphertext"
	if got := te.DecryptToken(&garbage); got != nil {
		t.Errorf("expected nil for undecryptable value, got %q", *got)
	}
}
