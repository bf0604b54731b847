package oauth

import (
	"context"
	"net/http"
	"strings"
	"sync"

	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/httpclient"
)

// discoveryDoc is the subset of the OIDC discovery document the flow needs.
type discoveryDoc struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
}

// OIDC implements Provider for any standards-compliant OpenID Connect
// issuer. Endpoints come from {issuer}/.well-known/openid-configuration,
// fetched once and cached for the provider's lifetime.
type OIDC struct {
	base
	issuer string

	mu         sync.Mutex
	discovered bool
}

// NewOIDC creates a generic OIDC provider for the configured issuer.
func NewOIDC(name string, cfg ProviderConfig, client *httpclient.Client) *OIDC {
	return &OIDC{
		base: base{
			name:          name,
			cfg:           cfg,
			client:        client,
			defaultScopes: []string{"openid", "email", "profile"},
		},
		issuer: strings.TrimRight(cfg.Issuer, "/"),
	}
}

// Discover fetches and caches the issuer's endpoint configuration. It is
// called implicitly by AuthURL, Exchange, and FetchProfile.
func (p *OIDC) Discover(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.discovered {
		return nil
	}

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   p.issuer + "/.well-known/openid-configuration",
	})
	if err != nil {
		return apperrors.ExternalServiceError("oidc discovery for " + p.name + " failed").WithCause(err)
	}

	var doc discoveryDoc
	if err := resp.JSON(&doc); err != nil {
		return apperrors.ExternalServiceError("oidc discovery document for " + p.name + " is not valid JSON").WithCause(err)
	}
	if doc.TokenEndpoint == "" || doc.UserinfoEndpoint == "" {
		return apperrors.InvalidConfig("oidc issuer " + p.issuer + " does not advertise token and userinfo endpoints")
	}

	p.ep = endpoints{
		auth:     doc.AuthorizationEndpoint,
		token:    doc.TokenEndpoint,
		userinfo: doc.UserinfoEndpoint,
	}
	p.discovered = true
	return nil
}

func (p *OIDC) AuthURL(ctx context.Context, state string, opts ...AuthURLOption) (string, error) {
	if err := p.Discover(ctx); err != nil {
		return "", err
	}
	return p.base.AuthURL(ctx, state, opts...)
}

func (p *OIDC) Exchange(ctx context.Context, code string, opts ...ExchangeOption) (*Token, error) {
	if err := p.Discover(ctx); err != nil {
		return nil, err
	}
	return p.base.Exchange(ctx, code, opts...)
}

func (p *OIDC) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	if err := p.Discover(ctx); err != nil {
		return nil, err
	}

	var raw struct {
		Sub               string `json:"sub"`
		Email             string `json:"email"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
		Picture           string `json:"picture"`
	}
	if err := p.fetchUserinfo(ctx, accessToken, &raw); err != nil {
		return nil, err
	}
	if raw.Sub == "" {
		return nil, apperrors.ExternalServiceError(p.name + " userinfo has no subject")
	}
	if raw.Email == "" {
		return nil, apperrors.InvalidInput(p.name + " profile has no email address")
	}

	name := raw.Name
	if name == "" {
		name = raw.PreferredUsername
	}
	if name == "" {
		name = emailLocalPart(raw.Email)
	}
	return &Profile{
		ID:        raw.Sub,
		Email:     raw.Email,
		Name:      name,
		AvatarURL: raw.Picture,
	}, nil
}
