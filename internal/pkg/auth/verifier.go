// Package auth verifies Clerk session JWTs via the instance JWKS endpoint.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const defaultLeeway = 30 * time.Second

// Claims carries the verified token fields the middleware needs.
type Claims struct {
	Subject string
	Issuer  string
	Raw     jwt.MapClaims
}

// TokenVerifier validates a bearer token. The interface lets handlers be
// tested without a live JWKS endpoint.
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

// Verifier validates Clerk session tokens against the instance JWKS.
type Verifier struct {
	issuer  string
	keyfunc keyfunc.Keyfunc
	parser  *jwt.Parser
}

// NewVerifier builds a verifier for the given issuer with an optional JWKS
// URL override. The JWKS is fetched and refreshed in the background.
func NewVerifier(issuer, jwksURL string) (*Verifier, error) {
	issuer = strings.TrimRight(strings.TrimSpace(issuer), "/")
	if issuer == "" {
		return nil, errors.New("issuer must be set")
	}
	if jwksURL == "" {
		jwksURL = issuer + "/.well-known/jwks.json"
	}

	keyProvider, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to init JWKS keyfunc: %w", err)
	}

	parser := jwt.NewParser(
		jwt.WithIssuer(issuer),
		jwt.WithLeeway(defaultLeeway),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name, jwt.SigningMethodRS384.Name, jwt.SigningMethodRS512.Name}),
	)

	return &Verifier{
		issuer:  issuer,
		keyfunc: keyProvider,
		parser:  parser,
	}, nil
}

// Verify parses and validates a JWT, returning the extracted claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := v.parser.Parse(tokenString, v.keyfunc.Keyfunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return nil, errors.New("token missing sub")
	}
	iss, _ := mapClaims["iss"].(string)

	return &Claims{
		Subject: sub,
		Issuer:  iss,
		Raw:     mapClaims,
	}, nil
}
