package oauth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/httpclient"
)

// endpoints are the three URLs every authorization-code provider needs.
type endpoints struct {
	auth     string
	token    string
	userinfo string
}

// base carries the flow mechanics shared by all provider implementations.
type base struct {
	name          string
	cfg           ProviderConfig
	client        *httpclient.Client
	ep            endpoints
	defaultScopes []string
}

func (p *base) Name() string { return p.name }

func (p *base) AuthURL(ctx context.Context, state string, opts ...AuthURLOption) (string, error) {
	o := applyAuthURLOptions(opts)

	redirect := o.RedirectURI
	if redirect == "" {
		redirect = p.cfg.RedirectURI
	}
	scopes := o.Scopes
	if len(scopes) == 0 {
		scopes = p.cfg.Scopes
	}
	if len(scopes) == 0 {
		scopes = p.defaultScopes
	}

	v := url.Values{}
	v.Set("client_id", p.cfg.ClientID)
	v.Set("response_type", "code")
	v.Set("state", state)
	if redirect != "" {
		v.Set("redirect_uri", redirect)
	}
	if len(scopes) > 0 {
		v.Set("scope", strings.Join(scopes, " "))
	}
	if o.Nonce != "" {
		v.Set("nonce", o.Nonce)
	}
	if o.PKCE != nil {
		v.Set("code_challenge", o.PKCE.CodeChallenge)
		v.Set("code_challenge_method", o.PKCE.CodeChallengeMethod)
	}
	for k, val := range o.ExtraParams {
		v.Set(k, val)
	}
	return p.ep.auth + "?" + v.Encode(), nil
}

func (p *base) Exchange(ctx context.Context, code string, opts ...ExchangeOption) (*Token, error) {
	o := applyExchangeOptions(opts)

	redirect := o.RedirectURI
	if redirect == "" {
		redirect = p.cfg.RedirectURI
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	if redirect != "" {
		form.Set("redirect_uri", redirect)
	}
	if o.CodeVerifier != "" {
		form.Set("code_verifier", o.CodeVerifier)
	}

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   p.ep.token,
		// GitHub answers form-encoded unless told otherwise.
		Headers: map[string]string{"Accept": "application/json"},
		Body:    form,
	})
	if err != nil {
		return nil, apperrors.ExternalServiceError("token exchange with " + p.name + " failed").WithCause(err)
	}

	var tok Token
	if err := resp.JSON(&tok); err != nil {
		return nil, apperrors.ExternalServiceError("token response from " + p.name + " is not valid JSON").WithCause(err)
	}
	if tok.AccessToken == "" {
		return nil, apperrors.ExternalServiceError(p.name + " returned no access token")
	}
	return &tok, nil
}

// fetchUserinfo GETs the provider's userinfo endpoint with a bearer token
// and decodes the JSON response into out.
func (p *base) fetchUserinfo(ctx context.Context, accessToken string, out any) error {
	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   p.ep.userinfo,
		Auth:   httpclient.BearerAuth(accessToken),
	})
	if err != nil {
		return apperrors.ExternalServiceError("profile fetch from " + p.name + " failed").WithCause(err)
	}
	if err := resp.JSON(out); err != nil {
		return apperrors.ExternalServiceError("profile response from " + p.name + " is not valid JSON").WithCause(err)
	}
	return nil
}

// emailLocalPart returns everything before the @, used as a last-resort
// display name.
func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
