package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/cataloghq/idkit/errors"
)

// stateClaims is the payload sealed into a CSRF state token.
type stateClaims struct {
	gojwt.RegisteredClaims
	Provider    string `json:"provider"`
	Nonce       string `json:"nonce"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// State is the verified content of a CSRF state token.
type State struct {
	Provider    string
	Nonce       string
	RedirectURI string
	IssuedAt    time.Time
}

// StateSealer signs and verifies CSRF state tokens.
type StateSealer struct {
	secret []byte
	maxAge time.Duration
}

// NewStateSealer creates a sealer with the given signing secret and
// maximum state age.
func NewStateSealer(secret string, maxAge time.Duration) *StateSealer {
	return &StateSealer{secret: []byte(secret), maxAge: maxAge}
}

// Seal produces a signed state token binding the flow to a provider and
// redirect URI.
func (s *StateSealer) Seal(provider, redirectURI string) (string, error) {
	nonce, err := GenerateNonce()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := &stateClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.maxAge)),
		},
		Provider:    provider,
		Nonce:       nonce,
		RedirectURI: redirectURI,
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks a state token's signature and age and confirms it was
// issued for the named provider. A stale state yields TOKEN_EXPIRED; any
// other defect yields INVALID_TOKEN.
func (s *StateSealer) Verify(state, provider string) (*State, error) {
	claims := &stateClaims{}
	parsed, err := gojwt.ParseWithClaims(state, claims, func(t *gojwt.Token) (interface{}, error) {
		if t.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, apperrors.TokenExpired("authorization state has expired")
		}
		return nil, apperrors.InvalidToken("authorization state is invalid").WithCause(err)
	}
	if !parsed.Valid || claims.IssuedAt == nil || claims.Nonce == "" {
		return nil, apperrors.InvalidToken("authorization state is invalid")
	}
	if claims.Provider != provider {
		return nil, apperrors.InvalidToken("authorization state was issued for a different provider")
	}
	return &State{
		Provider:    claims.Provider,
		Nonce:       claims.Nonce,
		RedirectURI: claims.RedirectURI,
		IssuedAt:    claims.IssuedAt.Time,
	}, nil
}

// GenerateNonce creates a cryptographically secure random nonce.
// Returns a 16-byte hex-encoded string (32 characters).
func GenerateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// PKCE holds a Proof Key for Code Exchange challenge/verifier pair.
// Send CodeChallenge + CodeChallengeMethod in the authorization URL and
// CodeVerifier in the token exchange.
type PKCE struct {
	CodeVerifier        string
	CodeChallenge       string
	CodeChallengeMethod string
}

// NewPKCE generates a PKCE pair using the S256 method. The verifier is a
// 32-byte random value, base64url-encoded.
func NewPKCE() (*PKCE, error) {
	verifier := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, verifier); err != nil {
		return nil, err
	}
	verifierStr := base64.RawURLEncoding.EncodeToString(verifier)
	h := sha256.Sum256([]byte(verifierStr))
	return &PKCE{
		CodeVerifier:        verifierStr,
		CodeChallenge:       base64.RawURLEncoding.EncodeToString(h[:]),
		CodeChallengeMethod: "S256",
	}, nil
}
