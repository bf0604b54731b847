package oauth

import (
	"context"
	"strconv"

	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/httpclient"
)

// GitHub's OAuth endpoints. GitHub is OAuth2 without OIDC, so the profile
// comes from the REST API rather than a userinfo endpoint.
const (
	githubAuthURL  = "https://github.com/login/oauth/authorize"
	githubTokenURL = "https://github.com/login/oauth/access_token"
	githubUserURL  = "https://api.github.com/user"
)

// GitHub implements Provider against GitHub's OAuth endpoints.
type GitHub struct {
	base
}

// NewGitHub creates a GitHub provider.
func NewGitHub(name string, cfg ProviderConfig, client *httpclient.Client) *GitHub {
	return &GitHub{base: base{
		name:   name,
		cfg:    cfg,
		client: client,
		ep: endpoints{
			auth:     githubAuthURL,
			token:    githubTokenURL,
			userinfo: githubUserURL,
		},
		defaultScopes: []string{"read:user", "user:email"},
	}}
}

func (p *GitHub) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var raw struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := p.fetchUserinfo(ctx, accessToken, &raw); err != nil {
		return nil, err
	}
	if raw.Email == "" {
		return nil, apperrors.InvalidInput("github profile has no public email address")
	}
	// GitHub leaves name empty unless the user set one.
	name := raw.Name
	if name == "" {
		name = raw.Login
	}
	return &Profile{
		ID:        strconv.FormatInt(raw.ID, 10),
		Email:     raw.Email,
		Name:      name,
		AvatarURL: raw.AvatarURL,
	}, nil
}
