// Package session models the authenticated back-office user as an explicit
// value passed to collaborator calls, instead of an ambient token singleton.
package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session carries the collaborator bearer token plus whatever identity the
// token discloses. The collaborator verifies the signature; this side only
// reads claims to fail fast on expired tokens.
type Session struct {
	Token  string
	UserID string
	Name   string
	Email  string

	expiresAt time.Time
}

// FromToken builds a session from a raw bearer token. JWT claims are parsed
// unverified for identity and expiry; opaque tokens are accepted with no
// expiry knowledge.
func FromToken(token string) *Session {
	s := &Session{Token: strings.TrimSpace(token)}
	if s.Token == "" {
		return s
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(s.Token, claims); err != nil {
		return s
	}

	if sub, err := claims.GetSubject(); err == nil {
		s.UserID = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.expiresAt = exp.Time
	}
	if name, ok := claims["name"].(string); ok {
		s.Name = name
	}
	if email, ok := claims["email"].(string); ok {
		s.Email = email
	}
	return s
}

// FromBearer extracts a session from an Authorization header value.
func FromBearer(header string) (*Session, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return nil, false
	}
	return FromToken(token), true
}

// Anonymous reports whether there is no token at all.
func (s *Session) Anonymous() bool {
	return s == nil || s.Token == ""
}

// Expired reports whether the token's exp claim has passed. Tokens without a
// readable expiry are never reported expired here; the collaborator has the
// final say.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.expiresAt.IsZero() {
		return false
	}
	return now.After(s.expiresAt)
}

// BearerHeader renders the Authorization header value, empty when anonymous.
func (s *Session) BearerHeader() string {
	if s.Anonymous() {
		return ""
	}
	return "Bearer " + s.Token
}
