// Package session holds the caller's authentication context. It is passed
// explicitly to the API client instead of living in process-wide state.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing session token")
	ErrExpired      = errors.New("session expired")
)

// Session is a bearer token plus whatever claims could be read from it.
// Tokens are not verified here: the external API owns the signing key.
type Session struct {
	token     string
	subject   string
	expiresAt time.Time
}

// New builds a session from a raw bearer token. Opaque (non-JWT) tokens are
// accepted as-is, without claims.
func New(token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	s := &Session{token: token}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if sub, err := claims.GetSubject(); err == nil {
			s.subject = sub
		}
		if s.subject == "" {
			if uid, ok := claims["user_id"].(string); ok {
				s.subject = uid
			}
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			s.expiresAt = exp.Time
		}
	}

	return s, nil
}

// FromAuthorizationHeader parses "Bearer <token>".
func FromAuthorizationHeader(header string) (*Session, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, ErrMissingToken
	}
	return New(parts[1])
}

// Token returns the raw bearer token.
func (s *Session) Token() string {
	return s.token
}

// AuthorizationHeader returns the value for the Authorization header.
func (s *Session) AuthorizationHeader() string {
	return "Bearer " + s.token
}

// Subject is the user id from the token claims, if any.
func (s *Session) Subject() string {
	return s.subject
}

// ExpiresAt is zero for tokens without an exp claim.
func (s *Session) ExpiresAt() time.Time {
	return s.expiresAt
}

// Expired reports whether the token carries an exp claim that is in the past.
func (s *Session) Expired(now time.Time) bool {
	return !s.expiresAt.IsZero() && !now.Before(s.expiresAt)
}

// Key identifies the session by a hash of its token. Claims are unverified,
// so the subject never decides ownership.
func (s *Session) Key() string {
	sum := sha256.Sum256([]byte(s.token))
	return "tok:" + hex.EncodeToString(sum[:])
}

type contextKey struct{}

// WithContext attaches the session to ctx.
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by the auth middleware, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
