// Package app composes web modules into the root handler.
//
// Modules come in two groups. Public modules (sign-in, standalone pages)
// mount anywhere outside /app/ and render inside the standalone shell.
// Protected modules mount under /app/, require a session cookie, and render
// inside the authenticated shell. Cookie-authenticated mutations in either
// group must prove same-origin.
package app

import (
	"fmt"
	"net/http"
	"strings"

	module "github.com/louisbranch/campaignforge/internal/services/web/module"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/httpx"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
)

// ComposeInput carries module groups and shared composition contracts.
type ComposeInput struct {
	// Authenticated gates the protected group. It defaults to the presence
	// of a session cookie; the backend remains the authority on validity.
	Authenticated       func(*http.Request) bool
	PublicModules       []module.Module
	ProtectedModules    []module.Module
	PublicShell         httpx.Middleware
	ProtectedShell      httpx.Middleware
	RequestSchemePolicy requestmeta.SchemePolicy
}

// group is one set of modules sharing a prefix rule and a middleware stack.
type group struct {
	name string
	// underApp is whether every prefix of the group must sit below /app/.
	underApp bool
	modules  []module.Module
	wrap     []httpx.Middleware
}

// Compose builds a root HTTP handler from module groups.
func Compose(input ComposeInput) (*http.ServeMux, error) {
	authenticated := input.Authenticated
	if authenticated == nil {
		authenticated = hasSessionCookie
	}
	sameOrigin := requireSameOriginMutations(input.RequestSchemePolicy)
	groups := []group{
		{
			name:    "public",
			modules: input.PublicModules,
			wrap:    []httpx.Middleware{sameOrigin, input.PublicShell},
		},
		{
			name:     "protected",
			underApp: true,
			modules:  input.ProtectedModules,
			wrap:     []httpx.Middleware{requireSession(authenticated), sameOrigin, input.ProtectedShell},
		},
	}

	root := http.NewServeMux()
	owners := make(map[string]string)
	for _, g := range groups {
		for _, feature := range g.modules {
			if err := g.mount(root, owners, feature); err != nil {
				return nil, err
			}
		}
	}
	return root, nil
}

func (g group) mount(root *http.ServeMux, owners map[string]string, feature module.Module) error {
	if feature == nil {
		return fmt.Errorf("%s module is nil", g.name)
	}
	id := feature.ID()
	mount, err := feature.Mount()
	if err != nil {
		return fmt.Errorf("mount module %q: %w", id, err)
	}
	if mount.Handler == nil {
		return fmt.Errorf("mount module %q: handler is required", id)
	}
	if err := checkPrefix(mount.Prefix); err != nil {
		return fmt.Errorf("mount module %q has invalid prefix %q: %w", id, mount.Prefix, err)
	}
	if underApp(mount.Prefix) != g.underApp {
		if g.underApp {
			return fmt.Errorf("%s module %q must mount under %s, got %q", g.name, id, routepath.AppPrefix, mount.Prefix)
		}
		return fmt.Errorf("%s module %q must not mount under %s, got %q", g.name, id, routepath.AppPrefix, mount.Prefix)
	}

	handler := httpx.Chain(mount.Handler, g.wrap...)
	patterns := []string{mount.Prefix}
	// Protected roots also answer without the trailing slash so /app/campaigns
	// is gated instead of falling through to the not-found page.
	if g.underApp {
		patterns = append(patterns, strings.TrimSuffix(mount.Prefix, "/"))
	}
	for _, pattern := range patterns {
		if owner, taken := owners[pattern]; taken {
			return fmt.Errorf("module %q duplicates prefix %q owned by module %q", id, pattern, owner)
		}
		owners[pattern] = id
		root.Handle(pattern, handler)
	}
	return nil
}

func checkPrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("prefix is required")
	case strings.TrimSpace(prefix) != prefix:
		return fmt.Errorf("prefix must not include surrounding whitespace")
	case !strings.HasPrefix(prefix, "/") || !strings.HasSuffix(prefix, "/"):
		return fmt.Errorf("prefix must begin and end with /")
	case prefix == routepath.AppPrefix:
		return fmt.Errorf("prefix must name a section below %s", routepath.AppPrefix)
	}
	return nil
}

func underApp(prefix string) bool {
	return strings.HasPrefix(prefix, routepath.AppPrefix)
}

// requireSession sends requests without a session to sign-in, keeping the
// requested URI as the return target.
func requireSession(authenticated func(*http.Request) bool) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authenticated(r) {
				httpx.WriteRedirect(w, r, routepath.LoginWithNext(r.URL.RequestURI()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireSameOriginMutations rejects state-changing requests that carry the
// session cookie without an Origin or Referer from this site.
func requireSameOriginMutations(policy requestmeta.SchemePolicy) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethod(r.Method) || !hasSessionCookie(r) || requestmeta.HasSameOriginProof(r, policy) {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func hasSessionCookie(r *http.Request) bool {
	_, ok := sessioncookie.Read(r)
	return ok
}
