package token

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"time"
)

// SigningMethod defines supported JWT signing algorithms.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
	RS256 SigningMethod = "RS256"
	ES256 SigningMethod = "ES256"
)

// Config configures the token service.
type Config struct {
	// Secret is the HMAC signing key (required for HS* methods).
	Secret string `yaml:"secret" mapstructure:"secret"`

	// Method is the signing algorithm (default: HS256).
	Method SigningMethod `yaml:"method" mapstructure:"method"`

	// PrivateKey is the RSA or ECDSA private key for RS256/ES256.
	PrivateKey interface{} `yaml:"-" mapstructure:"-"`

	// PublicKey overrides the verification key. When unset the public
	// half of PrivateKey is used.
	PublicKey interface{} `yaml:"-" mapstructure:"-"`

	// Issuer is the "iss" claim (optional).
	Issuer string `yaml:"issuer" mapstructure:"issuer"`

	// AccessTokenTTL is the lifetime of access tokens (default: 1h).
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" mapstructure:"access_token_ttl"`

	// RefreshTokenTTL is the lifetime of refresh tokens (default: 720h).
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" mapstructure:"refresh_token_ttl"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = time.Hour
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = 30 * 24 * time.Hour
	}
}

// Validate checks required fields based on the signing method.
func (c *Config) Validate() error {
	switch c.Method {
	case HS256, HS384, HS512:
		if c.Secret == "" {
			return errors.New("token: secret is required for HMAC signing methods")
		}
	case RS256:
		if _, ok := c.PrivateKey.(*rsa.PrivateKey); !ok {
			return errors.New("token: private key must be *rsa.PrivateKey for RS256")
		}
	case ES256:
		if _, ok := c.PrivateKey.(*ecdsa.PrivateKey); !ok {
			return errors.New("token: private key must be *ecdsa.PrivateKey for ES256")
		}
	default:
		return errors.New("token: unsupported signing method: " + string(c.Method))
	}
	// Zero TTLs are filled in by ApplyDefaults.
	if c.AccessTokenTTL < 0 || c.RefreshTokenTTL < 0 {
		return errors.New("token: ttls must not be negative")
	}
	return nil
}

func (c *Config) signKey() interface{} {
	switch c.Method {
	case HS256, HS384, HS512:
		return []byte(c.Secret)
	default:
		return c.PrivateKey
	}
}

func (c *Config) verifyKey() interface{} {
	switch c.Method {
	case HS256, HS384, HS512:
		return []byte(c.Secret)
	default:
		if c.PublicKey != nil {
			return c.PublicKey
		}
		switch pk := c.PrivateKey.(type) {
		case *rsa.PrivateKey:
			return &pk.PublicKey
		case *ecdsa.PrivateKey:
			return &pk.PublicKey
		}
		return c.PrivateKey
	}
}
