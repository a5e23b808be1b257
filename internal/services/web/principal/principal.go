// Package principal resolves the signed-in user of a request once and shares
// the answer with every reader in that request.
package principal

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/httpx"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/sessioncookie"
)

type requestPrincipalState struct {
	once sync.Once
	user *backend.User
	err  error
}

type requestPrincipalStateKey struct{}

// Middleware installs per-request memoization. It must run inside the
// session cookie middleware so lookups persist refreshed tokens.
func Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), requestPrincipalStateKey{}, &requestPrincipalState{})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// User returns the session user of r, asking the backend through a fresh
// handle from factory. A nil user with a nil error means no usable session.
// Inside Middleware the backend is asked at most once per request.
func User(w http.ResponseWriter, r *http.Request, factory *backend.Factory) (*backend.User, error) {
	if r == nil || factory == nil {
		return nil, nil
	}
	lookup := func() (*backend.User, error) {
		if _, ok := sessioncookie.Read(r); !ok {
			return nil, nil
		}
		return factory.New(sessioncookie.FromRequest(w, r)).GetUser(r.Context())
	}
	state, ok := r.Context().Value(requestPrincipalStateKey{}).(*requestPrincipalState)
	if !ok {
		return lookup()
	}
	state.once.Do(func() {
		state.user, state.err = lookup()
	})
	return state.user, state.err
}

// UserIDResolver returns a resolver for requestctx.Provide. Lookup failures
// are logged and resolve to no user.
func UserIDResolver(factory *backend.Factory) func(*http.Request) string {
	return func(r *http.Request) string {
		user, err := User(nil, r, factory)
		if err != nil {
			log.Printf("principal lookup failed path=%s err=%v", r.URL.Path, err)
			return ""
		}
		if user == nil {
			return ""
		}
		return user.ID
	}
}

// Session is the request's session user viewed through GetUser, for readers
// such as userdisplay that take a user source rather than a request.
type Session struct {
	w       http.ResponseWriter
	r       *http.Request
	factory *backend.Factory
}

// ForRequest returns the session view of r.
func ForRequest(w http.ResponseWriter, r *http.Request, factory *backend.Factory) Session {
	return Session{w: w, r: r, factory: factory}
}

// GetUser returns the memoized session user of the request.
func (s Session) GetUser(context.Context) (*backend.User, error) {
	return User(s.w, s.r, s.factory)
}
