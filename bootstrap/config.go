package bootstrap

import (
	"fmt"

	"github.com/cataloghq/idkit/auth"
	"github.com/cataloghq/idkit/config"
	"github.com/cataloghq/idkit/encryption"
	"github.com/cataloghq/idkit/observability"
	"github.com/cataloghq/idkit/session"
	"github.com/cataloghq/idkit/version"
)

// Config is the root configuration of the identity core. It loads with
// config.Load, which layers config.yml, .env and environment variables.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Auth configures tokens, password hashing, OAuth and MFA.
	Auth auth.Config `yaml:"auth" mapstructure:"auth"`

	// Sessions configures the session governor.
	Sessions session.Config `yaml:"sessions" mapstructure:"sessions"`

	// Encryption configures credential encryption at rest.
	Encryption encryption.Config `yaml:"encryption" mapstructure:"encryption"`

	// Tracing enables OTLP span export when set. Spans are recorded
	// regardless; without this section they go nowhere.
	Tracing *observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "idkit"
	}
	if c.Version == "" {
		c.Version = version.GetShortVersion()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Sessions.ApplyDefaults()
	c.Encryption.ApplyDefaults()
	if c.Tracing != nil {
		c.Tracing.ApplyDefaults()
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Sessions.Validate(); err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	if err := c.Encryption.Validate(); err != nil {
		return fmt.Errorf("encryption: %w", err)
	}
	if c.Tracing != nil {
		if err := c.Tracing.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GetServiceConfig returns the embedded base configuration.
func (c *Config) GetServiceConfig() *config.ServiceConfig {
	return &c.ServiceConfig
}
