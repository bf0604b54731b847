package oauth

import (
	"context"

	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/httpclient"
)

// Google's published OAuth2 endpoints.
const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Google implements Provider against Google's OAuth2 endpoints.
type Google struct {
	base
}

// NewGoogle creates a Google provider.
func NewGoogle(name string, cfg ProviderConfig, client *httpclient.Client) *Google {
	return &Google{base: base{
		name:   name,
		cfg:    cfg,
		client: client,
		ep: endpoints{
			auth:     googleAuthURL,
			token:    googleTokenURL,
			userinfo: googleUserinfoURL,
		},
		defaultScopes: []string{"openid", "email", "profile"},
	}}
}

func (p *Google) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var raw struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := p.fetchUserinfo(ctx, accessToken, &raw); err != nil {
		return nil, err
	}
	if raw.Email == "" {
		return nil, apperrors.InvalidInput("google profile has no email address")
	}
	name := raw.Name
	if name == "" {
		name = emailLocalPart(raw.Email)
	}
	return &Profile{
		ID:        raw.ID,
		Email:     raw.Email,
		Name:      name,
		AvatarURL: raw.Picture,
	}, nil
}
