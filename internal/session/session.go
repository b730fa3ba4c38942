// Package session holds the authenticated session state: the bearer token
// issued by POST /api/login and the claims parsed out of it. An explicit
// Session object is threaded through constructors; there is no module-level
// token.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ponziworld/pwclient-go/internal/domain"
)

// Session is a thread-safe holder for one login's bearer token.
type Session struct {
	mu        sync.RWMutex
	token     string
	username  string
	expiresAt time.Time

	// now is swappable for tests.
	now func() time.Time
}

// New returns an unauthenticated session.
func New() *Session {
	return &Session{now: time.Now}
}

// SetToken stores a freshly issued bearer token. The token's claims are
// parsed without signature verification — only the backend holds the secret;
// the client reads exp/sub purely to refuse doomed requests locally.
func (s *Session) SetToken(token string) error {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return err
	}

	var username string
	if sub, err := claims.GetSubject(); err == nil {
		username = sub
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.username = username
	s.expiresAt = expiresAt
	return nil
}

// Token returns the bearer token for the Authorization header.
// Fails with ErrNotAuthenticated before login and ErrSessionExpired once the
// token's exp claim has passed.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", &domain.ErrNotAuthenticated{}
	}
	if !s.expiresAt.IsZero() && s.now().After(s.expiresAt) {
		return "", &domain.ErrSessionExpired{Username: s.username}
	}
	return s.token, nil
}

// Username returns the subject claim of the current token, if any.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// ExpiresAt returns the token expiry, zero when the token carries none.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Valid reports whether a usable token is present.
func (s *Session) Valid() bool {
	_, err := s.Token()
	return err == nil
}

// Clear drops the token, returning the session to the unauthenticated state.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.username = ""
	s.expiresAt = time.Time{}
}
