// Package auth owns everything about who the visitor is: the provider
// client that runs the code-for-session exchange against the managed auth
// service, the session JWT issued after a successful exchange, and the
// middleware that reads it back on later requests.
//
// SESSION FLOW OVERVIEW:
// 1. Visitor hits /auth/sign-in → redirected to the auth service
// 2. The service calls back /auth/callback with a code
// 3. Server exchanges code for a session, fetches the identity,
//    provisions the author row on first sign-in
// 4. Server issues its own JWT session token in an HttpOnly cookie
// 5. On later requests, middleware reads the cookie, validates the JWT,
//    and puts the Session in the request context
//
// WHY OUR OWN JWT?
// The provider's tokens belong to the provider. Minting our own HS256 token
// for the browser session keeps sign-in checks local — no round trip to the
// auth service per request — and the claims carry exactly what the pages
// need: identity id, display name, email.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is the session cookie lifetime. After expiry the visitor goes
// through the provider flow again.
const SessionTTL = 24 * time.Hour

// Session is the signed-in principal as the rest of the application sees
// it. UserID is the auth service's UUID for the identity — the same value
// used as the author row's id and as author_id on created posts.
type Session struct {
	UserID string
	Name   string
	Email  string
}

// TokenService handles session JWT creation and validation. It holds the
// HMAC secret used to sign and verify — the same key does both.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload: the standard registered claims (sub carries
// the identity id) plus the display name and email the pages render.
type claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given Session.
func (s *TokenService) Generate(session Session) (string, error) {
	return s.GenerateWithDuration(session, SessionTTL)
}

// GenerateWithDuration creates a token with a custom expiry. Used in tests
// to produce already-expired tokens.
func (s *TokenService) GenerateWithDuration(session Session, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Name:  session.Name,
		Email: session.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    "supablog",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session token string.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired
//   - Issuer matches "supablog" (rejects tokens minted by other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
func (s *TokenService) Validate(tokenStr string) (Session, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer("supablog"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, fmt.Errorf("auth: token expired")
		}
		return Session{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Session{}, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return Session{}, fmt.Errorf("auth: token has no subject")
	}

	return Session{
		UserID: c.Subject,
		Name:   c.Name,
		Email:  c.Email,
	}, nil
}
