package infra

import (
	"errors"
	"fmt"
	"strings"

	"card-collection/collection/domain"

	"github.com/golang-jwt/jwt/v5"
)

// JWTAuthenticator valida tokens HS256 e devolve o claim "sub" como dono das linhas.
type JWTAuthenticator struct {
	secret   []byte
	audience string
}

type JWTOption func(*JWTAuthenticator)

// WithAudience exige o claim "aud" (ex.: "authenticated" em tokens emitidos pelo provedor de auth).
func WithAudience(aud string) JWTOption {
	return func(a *JWTAuthenticator) { a.audience = strings.TrimSpace(aud) }
}

func NewJWTAuthenticator(secret string, opts ...JWTOption) (*JWTAuthenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	a := &JWTAuthenticator{secret: []byte(secret)}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Subject implementa domain.Authenticator.
func (a *JWTAuthenticator) Subject(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated)
	}
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(a.audience))
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token has expired", domain.ErrUnauthenticated)
		}
		return "", fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	return claims.Subject, nil
}
