package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/cataloghq/idkit/security"
	"github.com/cataloghq/idkit/security/tlstest"
)

func TestDoGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"dev@example.com"}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/user",
		Auth:   BearerAuth("tok"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.IsSuccess() {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Email string `json:"email"`
	}
	if err := resp.JSON(&out); err != nil {
		t.Fatal(err)
	}
	if out.Email != "dev@example.com" {
		t.Errorf("unexpected body: %+v", out)
	}
}

func TestDoFormPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		_, _ = w.Write([]byte(`{"access_token":"x"}`))
	}))
	defer srv.Close()

	c, _ := New(Config{})
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   srv.URL,
		Body: url.Values{
			"grant_type": {"authorization_code"},
			"code":       {"abc"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func TestDoClassifiesErrors(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
		name   string
	}{
		{http.StatusUnauthorized, IsAuth, "auth"},
		{http.StatusNotFound, IsNotFound, "not_found"},
		{http.StatusTooManyRequests, IsRetryable, "rate_limit retryable"},
		{http.StatusInternalServerError, IsRetryable, "server retryable"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte("nope"))
			}))
			defer srv.Close()

			c, _ := New(Config{})
			resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: srv.URL})
			if err == nil {
				t.Fatal("expected error")
			}
			if !tc.check(err) {
				t.Errorf("classification failed for %d: %v", tc.status, err)
			}
			if resp == nil || resp.StatusCode != tc.status {
				t.Errorf("expected response alongside error, got %+v", resp)
			}
		})
	}
}

func TestDoConnectionError(t *testing.T) {
	c, _ := New(Config{})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "http://127.0.0.1:1/nope"})
	if err == nil {
		t.Fatal("expected connection error")
	}
	var e *Error
	if !errors.As(err, &e) || e.Code != ErrCodeConnection {
		t.Errorf("expected connection classification, got %v", err)
	}
}

func TestDoTrustsConfiguredCA(t *testing.T) {
	certs := tlstest.Generate(t)
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	srv.TLS = &tls.Config{Certificates: []tls.Certificate{certs.Leaf}}
	srv.StartTLS()
	defer srv.Close()

	// Without the CA the handshake must fail.
	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"}); err == nil {
		t.Fatal("expected handshake failure against untrusted CA")
	}

	c, err = New(Config{BaseURL: srv.URL, TLS: &security.TLSConfig{CAFile: certs.CAFile}})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.IsSuccess() {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}

func TestNewRejectsBrokenTLS(t *testing.T) {
	_, err := New(Config{TLS: &security.TLSConfig{CAFile: "/nonexistent/ca.pem"}})
	if err == nil {
		t.Fatal("expected error for unreadable CA file")
	}
}

func TestDefaultHeadersAndOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("unexpected Accept header %q", got)
		}
	}))
	defer srv.Close()

	c, _ := New(Config{Headers: map[string]string{"Accept": "text/html"}})
	_, err := c.Do(context.Background(), Request{
		Method:  http.MethodGet,
		Path:    srv.URL,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		t.Fatal(err)
	}
}
