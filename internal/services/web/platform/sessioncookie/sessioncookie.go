// Package sessioncookie keeps backend session tokens in browser cookies.
//
// A Jar is the per-request view of those cookies. Every backend handle built
// during one request shares the request's Jar, so a token refreshed by one
// handle is what the next handle presents.
package sessioncookie

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/httpx"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/requestmeta"
)

const (
	// AccessName holds the backend access token.
	AccessName = "cf_access"
	// RefreshName holds the backend refresh token.
	RefreshName = "cf_refresh"

	maxAge = 30 * 24 * time.Hour
)

// Read returns the session tokens carried by the request cookies.
func Read(r *http.Request) (backend.Tokens, bool) {
	if r == nil {
		return backend.Tokens{}, false
	}
	tokens := backend.Tokens{
		AccessToken:  cookieValue(r, AccessName),
		RefreshToken: cookieValue(r, RefreshName),
	}
	if tokens.Empty() {
		return backend.Tokens{}, false
	}
	return tokens, true
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil || cookie == nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

// Jar is a backend.SessionStore backed by the request and response cookies.
type Jar struct {
	mu     sync.Mutex
	w      http.ResponseWriter
	secure bool
	tokens backend.Tokens
}

// NewJar reads the request cookies into a jar that writes updates to w.
func NewJar(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) *Jar {
	tokens, _ := Read(r)
	return &Jar{w: w, secure: requestmeta.IsHTTPS(r, policy), tokens: tokens}
}

// Tokens returns the tokens current for this request.
func (j *Jar) Tokens() backend.Tokens {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.tokens
}

// Save stores session tokens and sets both cookies on the response.
func (j *Jar) Save(session backend.Session) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tokens = session.Tokens()
	j.set(AccessName, session.AccessToken, int(maxAge.Seconds()))
	j.set(RefreshName, session.RefreshToken, int(maxAge.Seconds()))
}

// Clear drops the tokens and expires both cookies.
func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tokens = backend.Tokens{}
	j.set(AccessName, "", -1)
	j.set(RefreshName, "", -1)
}

func (j *Jar) set(name, value string, maxAge int) {
	if j.w == nil {
		return
	}
	http.SetCookie(j.w, &http.Cookie{
		Name:     name,
		Value:    strings.TrimSpace(value),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type jarContextKey struct{}

// Middleware installs one Jar per request.
func Middleware(policy requestmeta.SchemePolicy) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			jar := NewJar(w, r, policy)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), jarContextKey{}, jar)))
		})
	}
}

// FromRequest returns the request's Jar, or a new one when Middleware is not
// installed.
func FromRequest(w http.ResponseWriter, r *http.Request) *Jar {
	if r != nil {
		if jar, ok := r.Context().Value(jarContextKey{}).(*Jar); ok {
			return jar
		}
	}
	return NewJar(w, r, requestmeta.SchemePolicy{})
}

var _ backend.SessionStore = (*Jar)(nil)
