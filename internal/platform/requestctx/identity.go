// Package requestctx carries the campaign/user identity for a request subtree.
//
// An identity is installed once by a provider (usually the Provide middleware
// on a route group) and read by everything beneath it. Readers that require an
// identity get ErrNoIdentity when no provider is active; there is no default.
package requestctx

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrNoIdentity reports an identity lookup outside any identity provider.
var ErrNoIdentity = errors.New("identity requested outside an identity provider")

// Identity holds the optional campaign and user identifiers for a subtree.
// Empty strings mean absent.
type Identity struct {
	CampaignID string
	UserID     string
}

// HasCampaign reports whether a campaign identifier is present.
func (i Identity) HasCampaign() bool { return i.CampaignID != "" }

// HasUser reports whether a user identifier is present.
func (i Identity) HasUser() bool { return i.UserID != "" }

type identityContextKey struct{}

// WithIdentity installs identity on ctx for every descendant reader.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	identity.CampaignID = strings.TrimSpace(identity.CampaignID)
	identity.UserID = strings.TrimSpace(identity.UserID)
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the installed identity and whether a provider
// is active.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityContextKey{}).(Identity)
	return identity, ok
}

// RequireIdentity returns the installed identity or ErrNoIdentity.
func RequireIdentity(ctx context.Context) (Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return Identity{}, ErrNoIdentity
	}
	return identity, nil
}

// UserIDFromContext returns the user identifier of the active identity, or
// an empty string when none is installed.
func UserIDFromContext(ctx context.Context) string {
	identity, _ := IdentityFromContext(ctx)
	return identity.UserID
}

// CampaignPathValue is the route wildcard read by Provide.
const CampaignPathValue = "campaignID"

// Provide returns middleware that installs an identity for the wrapped
// handler. The campaign comes from the {campaignID} path value; the user
// comes from resolveUserID when set.
func Provide(resolveUserID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r == nil {
				next.ServeHTTP(w, r)
				return
			}
			identity := Identity{CampaignID: r.PathValue(CampaignPathValue)}
			if resolveUserID != nil {
				identity.UserID = resolveUserID(r)
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}
