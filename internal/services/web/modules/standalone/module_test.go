package standalone

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
	module "github.com/louisbranch/campaignforge/internal/services/web/module"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/campaignforge/internal/services/web/principal"
	"github.com/louisbranch/campaignforge/internal/services/web/resources"
)

type fakeBackend struct {
	inserts atomic.Int32
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/auth/v1/user":
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"id":"user-1","email":"gm@example.com"}`)
	case r.URL.Path == "/rest/v1/party_tools" && r.Method == http.MethodGet:
		if r.URL.Query().Get("campaign_id") != "eq.c1" {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		_, _ = io.WriteString(w, `[{"id":"p1","campaign_id":"c1","owner_id":"user-1","title":"Initiative tracker","kind":"tool","created_at":"2026-03-01T12:00:00Z"}]`)
	case r.URL.Path == "/rest/v1/party_tools" && r.Method == http.MethodPost:
		f.inserts.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":"p2","campaign_id":"c1","owner_id":"user-1","title":"Map","kind":"note"}]`)
	default:
		http.NotFound(w, r)
	}
}

func newTestHandler(t *testing.T, fake *fakeBackend) http.Handler {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	factory, err := backend.NewFactory(backend.Config{URL: server.URL, PublishableKey: "pk-test"})
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}
	mount, err := New(module.Dependencies{
		Factory:       factory,
		Resources:     resources.NewService(factory),
		ResolveUserID: principal.UserIDResolver(factory),
	}).Mount()
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	return principal.Middleware()(mount.Handler)
}

func signedIn(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: sessioncookie.AccessName, Value: "access-1"})
	return r
}

func TestMountRequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := New(module.Dependencies{}).Mount(); err == nil {
		t.Fatalf("expected missing dependency error")
	}
	if got := New(module.Dependencies{}).ID(); got != "standalone" {
		t.Fatalf("ID() = %q", got)
	}
}

func TestPartyPageRendersPanel(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeBackend{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedIn(httptest.NewRequest(http.MethodGet, "/standalone/campaigns/c1/party", nil)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`class="party-page"`,
		"Initiative tracker",
		"by gm@example.com",
		`action="/standalone/campaigns/c1/party/items"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q: %s", want, body)
		}
	}
}

func TestPartyItemsFragmentAndCreate(t *testing.T) {
	t.Parallel()

	fake := &fakeBackend{}
	h := newTestHandler(t, fake)

	req := signedIn(httptest.NewRequest(http.MethodGet, "/standalone/campaigns/c1/party/items", nil))
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if body := rec.Body.String(); !strings.HasPrefix(body, `<section class="list" id="party-tools-list" data-state="success"`) {
		t.Fatalf("fragment = %s", body)
	}

	post := httptest.NewRequest(http.MethodPost, "/standalone/campaigns/c1/party/items", strings.NewReader(url.Values{"title": {"Map"}}.Encode()))
	post.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, signedIn(post))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/standalone/campaigns/c1/party" {
		t.Fatalf("status = %d Location = %q", rec.Code, rec.Header().Get("Location"))
	}
	if fake.inserts.Load() != 1 {
		t.Fatalf("inserts = %d", fake.inserts.Load())
	}
}

func TestCreateWithoutSessionRedirectsToLogin(t *testing.T) {
	t.Parallel()

	fake := &fakeBackend{}
	h := newTestHandler(t, fake)
	post := httptest.NewRequest(http.MethodPost, "/standalone/campaigns/c1/party/items", strings.NewReader(url.Values{"title": {"Map"}}.Encode()))
	post.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, post)

	if rec.Code != http.StatusSeeOther || !strings.HasPrefix(rec.Header().Get("Location"), "/auth/login?next=") {
		t.Fatalf("status = %d Location = %q", rec.Code, rec.Header().Get("Location"))
	}
	if fake.inserts.Load() != 0 {
		t.Fatalf("anonymous create reached the backend")
	}
}

func TestUnknownStandaloneRouteIsNotFound(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeBackend{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/standalone/elsewhere", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
