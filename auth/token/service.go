// Package token issues and validates the signed JWTs the identity core
// uses as session credentials.
//
// Every token carries sub (the user's email), jti (a random identifier
// recorded in the store for revocation), type (access or refresh), iat
// and exp. Validation is purely cryptographic here; revocation lookups
// against stored metadata belong to the authentication dispatcher.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/cataloghq/idkit/errors"
)

// Token type claim values.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the claim set carried by every issued token.
type Claims struct {
	gojwt.RegisteredClaims
	TokenType string `json:"type"`
}

// Service signs and validates tokens.
type Service struct {
	cfg    Config
	method gojwt.SigningMethod
}

// NewService creates a token service from config.
func NewService(cfg Config) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	return &Service{cfg: cfg, method: signingMethod(cfg.Method)}, nil
}

// CreateAccessToken issues an access token for the subject and returns the
// signed token with its jti.
func (s *Service) CreateAccessToken(subject string) (string, string, error) {
	return s.create(subject, TypeAccess, s.cfg.AccessTokenTTL)
}

// CreateRefreshToken issues a refresh token for the subject and returns the
// signed token with its jti.
func (s *Service) CreateRefreshToken(subject string) (string, string, error) {
	return s.create(subject, TypeRefresh, s.cfg.RefreshTokenTTL)
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *Service) AccessTokenTTL() time.Duration { return s.cfg.AccessTokenTTL }

// RefreshTokenTTL returns the configured refresh token lifetime.
func (s *Service) RefreshTokenTTL() time.Duration { return s.cfg.RefreshTokenTTL }

func (s *Service) create(subject, tokenType string, ttl time.Duration) (string, string, error) {
	jti, err := newJTI()
	if err != nil {
		return "", "", fmt.Errorf("token: generate jti: %w", err)
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
	}

	signed, err := gojwt.NewWithClaims(s.method, claims).SignedString(s.cfg.signKey())
	if err != nil {
		return "", "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, jti, nil
}

// Decode validates a token's signature and time claims and returns its
// claim set. An expired token yields a TOKEN_EXPIRED error; everything
// else wrong with the token yields INVALID_TOKEN.
func (s *Service) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc, s.parserOptions()...)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, apperrors.TokenExpired("token has expired")
		}
		return nil, apperrors.InvalidToken("token is invalid").WithCause(err)
	}
	if !parsed.Valid {
		return nil, apperrors.InvalidToken("token is invalid")
	}
	if claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, apperrors.InvalidToken("token is missing required claims")
	}
	if claims.TokenType != TypeAccess && claims.TokenType != TypeRefresh {
		return nil, apperrors.InvalidToken("token has an unknown type")
	}
	return claims, nil
}

func (s *Service) keyFunc(t *gojwt.Token) (interface{}, error) {
	if t.Method.Alg() != s.method.Alg() {
		return nil, apperrors.InvalidToken(fmt.Sprintf("unexpected signing method: %s", t.Method.Alg()))
	}
	return s.cfg.verifyKey(), nil
}

func (s *Service) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{s.method.Alg()}),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.cfg.Issuer))
	}
	return opts
}

func signingMethod(m SigningMethod) gojwt.SigningMethod {
	switch m {
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	case RS256:
		return gojwt.SigningMethodRS256
	case ES256:
		return gojwt.SigningMethodES256
	default:
		return gojwt.SigningMethodHS256
	}
}

// newJTI returns a 256-bit random identifier in URL-safe base64.
func newJTI() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
