package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/httpclient"
)

func testClient(t *testing.T) *httpclient.Client {
	t.Helper()
	c, err := httpclient.New(httpclient.Config{})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestAuthURL(t *testing.T) {
	p := NewGoogle("google", ProviderConfig{
		Kind:        KindGoogle,
		ClientID:    "client-123",
		RedirectURI: "https://app.example.com/callback",
	}, testClient(t))

	raw, err := p.AuthURL(context.Background(), "the-state")
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(raw, googleAuthURL+"?") {
		t.Errorf("unexpected base %s", raw)
	}
	q := u.Query()
	if q.Get("client_id") != "client-123" || q.Get("state") != "the-state" {
		t.Errorf("unexpected query: %v", q)
	}
	if q.Get("response_type") != "code" {
		t.Errorf("expected code response type, got %q", q.Get("response_type"))
	}
	if q.Get("scope") != "openid email profile" {
		t.Errorf("unexpected scope %q", q.Get("scope"))
	}
	if q.Get("redirect_uri") != "https://app.example.com/callback" {
		t.Errorf("unexpected redirect %q", q.Get("redirect_uri"))
	}
}

func TestAuthURLWithPKCEAndNonce(t *testing.T) {
	p := NewGitHub("github", ProviderConfig{Kind: KindGitHub, ClientID: "c"}, testClient(t))
	pkce, _ := NewPKCE()

	raw, err := p.AuthURL(context.Background(), "s", WithPKCE(pkce), WithNonce("n1"), WithExtraParam("prompt", "consent"))
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("code_challenge") != pkce.CodeChallenge || q.Get("code_challenge_method") != "S256" {
		t.Errorf("pkce params missing: %v", q)
	}
	if q.Get("nonce") != "n1" || q.Get("prompt") != "consent" {
		t.Errorf("extra params missing: %v", q)
	}
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("expected JSON accept header, got %q", got)
		}
		_ = r.ParseForm()
		if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code") != "the-code" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		if r.PostForm.Get("client_secret") != "sec" {
			t.Errorf("missing client secret")
		}
		_ = json.NewEncoder(w).Encode(Token{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer"})
	}))
	defer srv.Close()

	p := NewGoogle("google", ProviderConfig{ClientID: "c", ClientSecret: "sec"}, testClient(t))
	p.ep.token = srv.URL

	tok, err := p.Exchange(context.Background(), "the-code")
	if err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "at" || tok.RefreshToken != "rt" {
		t.Errorf("unexpected token: %+v", tok)
	}
}

func TestExchangeFailures(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"bad_verification_code"}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		p := NewGitHub("github", ProviderConfig{ClientID: "c", ClientSecret: "s"}, testClient(t))
		p.ep.token = srv.URL
		_, err := p.Exchange(context.Background(), "stale-code")
		if !apperrors.IsCode(err, apperrors.ErrCodeExternalService) {
			t.Errorf("expected EXTERNAL_SERVICE_ERROR, got %v", err)
		}
	})

	t.Run("missing access token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
		}))
		defer srv.Close()

		p := NewGitHub("github", ProviderConfig{ClientID: "c", ClientSecret: "s"}, testClient(t))
		p.ep.token = srv.URL
		_, err := p.Exchange(context.Background(), "code")
		if !apperrors.IsCode(err, apperrors.ErrCodeExternalService) {
			t.Errorf("expected EXTERNAL_SERVICE_ERROR, got %v", err)
		}
	})
}

func TestGoogleProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer at" {
			t.Errorf("unexpected auth header %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"g-1","email":"dev@example.com","name":"Dev One","picture":"https://img/p.png"}`))
	}))
	defer srv.Close()

	p := NewGoogle("google", ProviderConfig{ClientID: "c"}, testClient(t))
	p.ep.userinfo = srv.URL

	profile, err := p.FetchProfile(context.Background(), "at")
	if err != nil {
		t.Fatal(err)
	}
	want := Profile{ID: "g-1", Email: "dev@example.com", Name: "Dev One", AvatarURL: "https://img/p.png"}
	if *profile != want {
		t.Errorf("got %+v want %+v", *profile, want)
	}
}

func TestGitHubProfileNameFallback(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantName string
		wantErr  bool
	}{
		{"name present", `{"id":7,"login":"octodev","name":"Octo Dev","email":"o@example.com"}`, "Octo Dev", false},
		{"name null falls back to login", `{"id":7,"login":"octodev","name":null,"email":"o@example.com"}`, "octodev", false},
		{"missing email errors", `{"id":7,"login":"octodev","name":"Octo Dev","email":null}`, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			p := NewGitHub("github", ProviderConfig{ClientID: "c"}, testClient(t))
			p.ep.userinfo = srv.URL

			profile, err := p.FetchProfile(context.Background(), "at")
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if profile.Name != tc.wantName {
				t.Errorf("got name %q want %q", profile.Name, tc.wantName)
			}
			if profile.ID != "7" {
				t.Errorf("expected numeric id as string, got %q", profile.ID)
			}
		})
	}
}

// oidcTestServer serves discovery, token, and userinfo endpoints from one
// httptest server, counting discovery hits.
func oidcTestServer(t *testing.T, userinfo string, discoveryHits *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		if discoveryHits != nil {
			*discoveryHits++
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         srv.URL + "/token",
			"userinfo_endpoint":      srv.URL + "/userinfo",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Token{AccessToken: "oidc-at"})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(userinfo))
	})
	srv = httptest.NewServer(mux)
	return srv
}

func TestOIDCDiscoveryAndProfile(t *testing.T) {
	hits := 0
	srv := oidcTestServer(t, `{"sub":"u-9","email":"dev@corp.example","preferred_username":"devuser"}`, &hits)
	defer srv.Close()

	p := NewOIDC("corp", ProviderConfig{Kind: KindOIDC, ClientID: "c", ClientSecret: "s", Issuer: srv.URL}, testClient(t))

	tok, err := p.Exchange(context.Background(), "code")
	if err != nil {
		t.Fatal(err)
	}
	profile, err := p.FetchProfile(context.Background(), tok.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if profile.ID != "u-9" || profile.Email != "dev@corp.example" {
		t.Errorf("unexpected profile: %+v", profile)
	}
	// name -> preferred_username fallback
	if profile.Name != "devuser" {
		t.Errorf("expected preferred_username fallback, got %q", profile.Name)
	}
	if hits != 1 {
		t.Errorf("expected discovery to be cached, got %d hits", hits)
	}
}

func TestOIDCNameFallsBackToEmailLocalPart(t *testing.T) {
	srv := oidcTestServer(t, `{"sub":"u-9","email":"someone@corp.example"}`, nil)
	defer srv.Close()

	p := NewOIDC("corp", ProviderConfig{Kind: KindOIDC, ClientID: "c", ClientSecret: "s", Issuer: srv.URL}, testClient(t))
	profile, err := p.FetchProfile(context.Background(), "at")
	if err != nil {
		t.Fatal(err)
	}
	if profile.Name != "someone" {
		t.Errorf("expected email local part, got %q", profile.Name)
	}
}

func TestOIDCDiscoveryMissingEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"authorization_endpoint":"https://x/authorize"}`))
	}))
	defer srv.Close()

	p := NewOIDC("corp", ProviderConfig{Kind: KindOIDC, ClientID: "c", ClientSecret: "s", Issuer: srv.URL}, testClient(t))
	err := p.Discover(context.Background())
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}
