package oauth

import (
	"fmt"
	"time"

	"github.com/cataloghq/idkit/security"
)

// Kind identifies a provider implementation.
type Kind string

const (
	KindGoogle Kind = "google"
	KindGitHub Kind = "github"
	KindOIDC   Kind = "oidc"
)

// ProviderConfig configures one identity provider.
type ProviderConfig struct {
	// Kind selects the implementation (google, github, oidc).
	Kind Kind `yaml:"kind" mapstructure:"kind"`

	// ClientID is the OAuth2 client ID.
	ClientID string `yaml:"client_id" mapstructure:"client_id"`

	// ClientSecret is the OAuth2 client secret.
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`

	// Issuer is the OIDC issuer URL. Required for kind "oidc".
	Issuer string `yaml:"issuer" mapstructure:"issuer"`

	// RedirectURI is the default callback URL.
	RedirectURI string `yaml:"redirect_uri" mapstructure:"redirect_uri"`

	// Scopes override the implementation's default scopes.
	Scopes []string `yaml:"scopes" mapstructure:"scopes"`
}

// Config configures the OAuth broker.
type Config struct {
	// Providers maps a provider name to its configuration. The map key is
	// the name used in login URLs and stored identities.
	Providers map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`

	// StateSecret signs the CSRF state tokens.
	StateSecret string `yaml:"state_secret" mapstructure:"state_secret"`

	// StateMaxAge bounds how long a state token stays acceptable
	// (default: 10m).
	StateMaxAge time.Duration `yaml:"state_max_age" mapstructure:"state_max_age"`

	// HTTPTimeout is the timeout for provider HTTP requests (default: 10s).
	HTTPTimeout time.Duration `yaml:"http_timeout" mapstructure:"http_timeout"`

	// TLS configures transport security for provider requests. Needed
	// when an OIDC issuer runs behind a private CA.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.StateMaxAge == 0 {
		c.StateMaxAge = 10 * time.Minute
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 10 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return nil
	}
	if c.StateSecret == "" {
		return fmt.Errorf("oauth.state_secret is required when providers are configured")
	}
	if err := c.TLS.Validate(); err != nil {
		return err
	}
	for name, pc := range c.Providers {
		switch pc.Kind {
		case KindGoogle, KindGitHub, KindOIDC:
		default:
			return fmt.Errorf("oauth.providers.%s.kind must be one of [google, github, oidc] (got: %s)", name, pc.Kind)
		}
		if pc.ClientID == "" || pc.ClientSecret == "" {
			return fmt.Errorf("oauth.providers.%s: client_id and client_secret are required", name)
		}
		if pc.Kind == KindOIDC && pc.Issuer == "" {
			return fmt.Errorf("oauth.providers.%s: issuer is required for oidc providers", name)
		}
	}
	return nil
}
