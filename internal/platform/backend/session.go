package backend

import (
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the authenticated user as reported by the backend.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Tokens are the credentials a handle presents to the backend.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Empty reports whether no access token is present.
func (t Tokens) Empty() bool {
	return strings.TrimSpace(t.AccessToken) == ""
}

// Session is a signed-in session returned by sign-in and refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Tokens returns the credentials carried by the session.
func (s Session) Tokens() Tokens {
	return Tokens{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
}

// SessionStore is where a handle reads and persists session tokens. Web
// requests back it with cookies; tests and background jobs use MemoryStore.
type SessionStore interface {
	Tokens() Tokens
	Save(Session)
	Clear()
}

// MemoryStore is a SessionStore held in memory.
type MemoryStore struct {
	mu     sync.Mutex
	tokens Tokens
}

// NewMemoryStore returns a store preloaded with tokens.
func NewMemoryStore(tokens Tokens) *MemoryStore {
	return &MemoryStore{tokens: tokens}
}

// Tokens returns the stored tokens.
func (m *MemoryStore) Tokens() Tokens {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens
}

// Save replaces the stored tokens with the session's tokens.
func (m *MemoryStore) Save(session Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = session.Tokens()
}

// Clear drops the stored tokens.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = Tokens{}
}

// expirySkew treats tokens this close to expiry as already expired.
const expirySkew = 10 * time.Second

// accessTokenClaims reads the registered claims of an access token without
// verifying its signature. Only the backend verifies tokens; the client reads
// expiry to decide when to refresh.
func accessTokenClaims(token string) (*jwt.RegisteredClaims, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// accessTokenExpired reports whether token's exp claim is at or before now.
// Unreadable tokens are not considered expired; the backend will reject them.
func accessTokenExpired(token string, now time.Time) bool {
	claims, ok := accessTokenClaims(token)
	if !ok || claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now.Add(expirySkew))
}

// accessTokenSubject returns the token's sub claim when readable.
func accessTokenSubject(token string) string {
	claims, ok := accessTokenClaims(token)
	if !ok {
		return ""
	}
	return claims.Subject
}
