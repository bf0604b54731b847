package auth

import (
	"fmt"
	"sort"

	"github.com/cataloghq/idkit/auth/mfa"
	"github.com/cataloghq/idkit/auth/oauth"
	"github.com/cataloghq/idkit/auth/password"
	"github.com/cataloghq/idkit/auth/token"
)

// Config composes the authentication subpackage configs for loading
// from YAML/env via mapstructure. OAuth is a pointer so deployments
// without federated login leave it nil.
type Config struct {
	// Token configures the JWT issuer and validator.
	Token token.Config `yaml:"token" mapstructure:"token"`

	// Password configures credential hashing.
	Password password.Config `yaml:"password" mapstructure:"password"`

	// OAuth configures federated login providers (nil if not used).
	OAuth *oauth.Config `yaml:"oauth" mapstructure:"oauth"`

	// MFA configures the TOTP second factor.
	MFA mfa.Config `yaml:"mfa" mapstructure:"mfa"`
}

// ApplyDefaults sets defaults on all sub-configurations.
func (c *Config) ApplyDefaults() {
	c.Token.ApplyDefaults()
	c.Password.ApplyDefaults()
	c.MFA.ApplyDefaults()
	if c.OAuth != nil {
		c.OAuth.ApplyDefaults()
	}
}

// Validate checks all sub-configurations.
func (c *Config) Validate() error {
	if err := c.Token.Validate(); err != nil {
		return fmt.Errorf("auth.token: %w", err)
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("auth.password: %w", err)
	}
	if err := c.MFA.Validate(); err != nil {
		return fmt.Errorf("auth.mfa: %w", err)
	}
	if c.OAuth != nil {
		if err := c.OAuth.Validate(); err != nil {
			return fmt.Errorf("auth.oauth: %w", err)
		}
	}
	return nil
}

// Describe returns a human-readable one-liner for the startup summary.
// Example: "JWT(HS256) TTL=1h0m0s password=argon2id oauth=[github google]"
func (c *Config) Describe() string {
	line := fmt.Sprintf("JWT(%s) TTL=%s password=%s", c.Token.Method, c.Token.AccessTokenTTL, c.Password.Algorithm)
	if c.OAuth != nil && len(c.OAuth.Providers) > 0 {
		names := make([]string, 0, len(c.OAuth.Providers))
		for name := range c.OAuth.Providers {
			names = append(names, name)
		}
		sort.Strings(names)
		line += fmt.Sprintf(" oauth=%v", names)
	}
	return line
}
