// Package layout wraps page handlers in the document shell.
//
// Two shells exist. Standalone renders the child's markup with no
// navigation; Authenticated adds the navigation chrome for the session's
// user. Both buffer the child response and only wrap HTML bodies; redirects,
// non-HTML payloads such as plain-text errors, and HTMX fragment requests
// pass through untouched.
package layout

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/louisbranch/campaignforge/internal/platform/backend"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/httpx"
	"github.com/louisbranch/campaignforge/internal/services/web/principal"
	"github.com/louisbranch/campaignforge/internal/services/web/templates"
)

type page struct {
	mu    sync.Mutex
	title string
}

type pageContextKey struct{}

// SetTitle sets the document title of the page being rendered. Outside a
// shell it does nothing.
func SetTitle(ctx context.Context, title string) {
	if ctx == nil {
		return
	}
	p, ok := ctx.Value(pageContextKey{}).(*page)
	if !ok {
		return
	}
	p.mu.Lock()
	p.title = strings.TrimSpace(title)
	p.mu.Unlock()
}

func (p *page) currentTitle() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

// Standalone renders children in a bare document.
func Standalone() httpx.Middleware {
	return shell(func(_ http.ResponseWriter, _ *http.Request) func(templ.Component) templ.Component {
		return templates.StandaloneShell
	})
}

// Authenticated renders children under the navigation chrome. The user is
// read from the backend with the request's session; a missing or rejected
// session renders the signed-out chrome rather than redirecting.
func Authenticated(factory *backend.Factory) httpx.Middleware {
	return shell(func(w http.ResponseWriter, r *http.Request) func(templ.Component) templ.Component {
		user := currentUser(w, r, factory)
		return func(children templ.Component) templ.Component {
			return templates.AppShell(user, children)
		}
	})
}

func currentUser(w http.ResponseWriter, r *http.Request, factory *backend.Factory) *templates.NavUser {
	user, err := principal.User(w, r, factory)
	if err != nil {
		log.Printf("layout user lookup failed path=%s err=%v", r.URL.Path, err)
		return nil
	}
	if user == nil {
		return nil
	}
	return &templates.NavUser{ID: user.ID, Email: user.Email}
}

// shell buffers the child and wraps it with the shell returned by chrome,
// which runs only for responses that will be wrapped.
func shell(chrome func(http.ResponseWriter, *http.Request) func(templ.Component) templ.Component) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := &page{}
			r = r.WithContext(context.WithValue(r.Context(), pageContextKey{}, p))
			if httpx.IsHTMXRequest(r) || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			capture := newResponseBuffer()
			next.ServeHTTP(capture, r)
			if !capture.wrappable() {
				capture.flush(w)
				return
			}

			children := templ.Raw(capture.body.String())
			wrap := chrome(w, r)
			copyHeaders(w.Header(), capture.header)
			w.Header().Del("Content-Length")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(capture.statusCode)
			if err := templates.Document(p.currentTitle(), wrap(children)).Render(r.Context(), w); err != nil {
				log.Printf("layout render failed path=%s err=%v", r.URL.Path, err)
			}
		})
	}
}
