package mfa

import (
	"time"

	apperrors "github.com/cataloghq/idkit/errors"
)

// Config holds MFA verification settings.
type Config struct {
	// Issuer names the service in provisioning URIs.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`

	// Digits is the code length.
	Digits int `yaml:"digits" mapstructure:"digits"`

	// Period is the TOTP time step.
	Period time.Duration `yaml:"period" mapstructure:"period"`

	// Skew is how many steps of clock drift to accept on either side.
	Skew int `yaml:"skew" mapstructure:"skew"`

	// BackupCodes is how many single-use recovery codes setup issues.
	BackupCodes int `yaml:"backup_codes" mapstructure:"backup_codes"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.Issuer == "" {
		c.Issuer = "idkit"
	}
	if c.Digits == 0 {
		c.Digits = defaultDigits
	}
	if c.Period == 0 {
		c.Period = defaultPeriod
	}
	if c.Skew == 0 {
		c.Skew = defaultSkew
	}
	if c.BackupCodes == 0 {
		c.BackupCodes = 10
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Digits < 6 || c.Digits > 8 {
		return apperrors.InvalidConfig("digits must be between 6 and 8")
	}
	if c.Period < time.Second {
		return apperrors.InvalidConfig("period must be at least one second")
	}
	if c.Skew < 0 {
		return apperrors.InvalidConfig("skew must not be negative")
	}
	return nil
}
