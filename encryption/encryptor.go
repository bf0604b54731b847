package encryption

import "fmt"

// Encryptor is a symmetric AEAD cipher over string values.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Algorithm represents supported encryption algorithms.
type Algorithm string

const (
	// AlgorithmAESGCM is AES-256-GCM (default, widely supported).
	AlgorithmAESGCM Algorithm = "aes-256-gcm"

	// AlgorithmChaCha20 is ChaCha20-Poly1305 (fast on CPUs without AES-NI).
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// Config configures the at-rest encryption layer.
type Config struct {
	// Key is the symmetric key material. It is hashed to the length the
	// chosen algorithm requires, so any non-empty string works.
	Key       string `yaml:"key" mapstructure:"key"`
	Algorithm string `yaml:"algorithm" mapstructure:"algorithm"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = string(AlgorithmAESGCM)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("encryption.key is required")
	}
	switch Algorithm(c.Algorithm) {
	case AlgorithmAESGCM, AlgorithmChaCha20:
		return nil
	default:
		return fmt.Errorf("encryption.algorithm must be one of [%s, %s] (got: %s)",
			AlgorithmAESGCM, AlgorithmChaCha20, c.Algorithm)
	}
}

// New creates an Encryptor for the configured algorithm.
func New(cfg Config) (Encryptor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch Algorithm(cfg.Algorithm) {
	case AlgorithmChaCha20:
		return NewChaCha20(cfg.Key)
	default:
		return NewAESGCM(cfg.Key)
	}
}
