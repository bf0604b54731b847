package session

import (
	"time"

	apperrors "github.com/cataloghq/idkit/errors"
)

// Config holds session governor settings.
type Config struct {
	// MaxConcurrentSessions caps live sessions per user. Oldest sessions
	// are evicted when the cap is exceeded.
	MaxConcurrentSessions int `yaml:"max_concurrent_sessions" mapstructure:"max_concurrent_sessions"`

	// SessionTimeout is how long a session lives without regard to
	// activity.
	SessionTimeout time.Duration `yaml:"session_timeout" mapstructure:"session_timeout"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.MaxConcurrentSessions == 0 {
		c.MaxConcurrentSessions = 5
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = 24 * time.Hour
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxConcurrentSessions < 1 {
		return apperrors.InvalidConfig("max_concurrent_sessions must be at least 1")
	}
	if c.SessionTimeout < time.Minute {
		return apperrors.InvalidConfig("session_timeout must be at least one minute")
	}
	return nil
}
