package oauth

import "context"

// Provider is the contract for one OAuth2/OIDC identity provider,
// covering the server-side Authorization Code flow.
type Provider interface {
	// Name returns the configured provider name (e.g. "google").
	Name() string

	// AuthURL returns the authorization URL for initiating the flow.
	// The state parameter must come from the broker's StateSealer.
	// Providers that resolve endpoints at runtime may need the network.
	AuthURL(ctx context.Context, state string, opts ...AuthURLOption) (string, error)

	// Exchange trades an authorization code for provider tokens.
	Exchange(ctx context.Context, code string, opts ...ExchangeOption) (*Token, error)

	// FetchProfile fetches and normalizes the user's profile using an
	// access token from Exchange.
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// Token is the provider token set returned by Exchange.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Profile is a provider profile normalized to the core's shape. Every
// provider guarantees ID and Email are non-empty.
type Profile struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
}

// AuthURLOption configures authorization URL generation.
type AuthURLOption func(*AuthURLOptions)

// AuthURLOptions holds the configuration for authorization URL generation.
type AuthURLOptions struct {
	RedirectURI string
	Scopes      []string
	Nonce       string
	PKCE        *PKCE
	ExtraParams map[string]string
}

// WithRedirectURI overrides the configured redirect URI for this request.
func WithRedirectURI(uri string) AuthURLOption {
	return func(o *AuthURLOptions) { o.RedirectURI = uri }
}

// WithScopes overrides the default scopes for this request.
func WithScopes(scopes ...string) AuthURLOption {
	return func(o *AuthURLOptions) { o.Scopes = scopes }
}

// WithNonce adds an OIDC nonce parameter for replay protection.
func WithNonce(nonce string) AuthURLOption {
	return func(o *AuthURLOptions) { o.Nonce = nonce }
}

// WithPKCE adds PKCE parameters to the authorization URL.
func WithPKCE(pkce *PKCE) AuthURLOption {
	return func(o *AuthURLOptions) { o.PKCE = pkce }
}

// WithExtraParam adds a custom query parameter to the authorization URL.
func WithExtraParam(key, value string) AuthURLOption {
	return func(o *AuthURLOptions) {
		if o.ExtraParams == nil {
			o.ExtraParams = make(map[string]string)
		}
		o.ExtraParams[key] = value
	}
}

func applyAuthURLOptions(opts []AuthURLOption) AuthURLOptions {
	var o AuthURLOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ExchangeOption configures the token exchange.
type ExchangeOption func(*ExchangeOptions)

// ExchangeOptions holds the configuration for token exchange.
type ExchangeOptions struct {
	RedirectURI  string
	CodeVerifier string
}

// WithExchangeRedirectURI sets the redirect URI for the exchange. It must
// match the one used in AuthURL.
func WithExchangeRedirectURI(uri string) ExchangeOption {
	return func(o *ExchangeOptions) { o.RedirectURI = uri }
}

// WithCodeVerifier adds the PKCE code verifier for the exchange.
func WithCodeVerifier(verifier string) ExchangeOption {
	return func(o *ExchangeOptions) { o.CodeVerifier = verifier }
}

func applyExchangeOptions(opts []ExchangeOption) ExchangeOptions {
	var o ExchangeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
