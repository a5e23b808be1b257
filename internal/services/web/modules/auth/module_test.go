package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/sessioncookie"
)

type fakeAuthBackend struct {
	signIns  atomic.Int32
	signOuts atomic.Int32
	status   int
}

func (f *fakeAuthBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/v1/token":
		f.signIns.Add(1)
		if f.status != 0 {
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, `{"error_description":"Invalid login credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"access-new","refresh_token":"refresh-new","expires_in":3600,"user":{"id":"user-1","email":"gm@example.com"}}`)
	case r.Method == http.MethodPost && r.URL.Path == "/auth/v1/logout":
		f.signOuts.Add(1)
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/auth/v1/user":
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"id":"user-1","email":"gm@example.com"}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestHandler(t *testing.T, fake *fakeAuthBackend) http.Handler {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	factory, err := backend.NewFactory(backend.Config{URL: server.URL, PublishableKey: "pk-test"})
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}
	mount, err := New(factory).Mount()
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	return mount.Handler
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestMountRequiresFactory(t *testing.T) {
	t.Parallel()

	if _, err := New(nil).Mount(); err == nil {
		t.Fatalf("expected missing factory error")
	}
	m := New(&backend.Factory{})
	if m.ID() != "auth" {
		t.Fatalf("ID() = %q", m.ID())
	}
}

func TestLoginPageRendersForm(t *testing.T) {
	t.Parallel()

	fake := &fakeAuthBackend{}
	h := newTestHandler(t, fake)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login?next=%2Fapp%2Fcampaigns%2Fc1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`action="/auth/login"`, `name="next" value="/app/campaigns/c1"`, `type="password"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q: %s", want, body)
		}
	}
}

func TestLoginPageDropsForeignNext(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeAuthBackend{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login?next=https%3A%2F%2Fevil.example", nil))
	if strings.Contains(rec.Body.String(), "evil.example") {
		t.Fatalf("foreign next rendered: %s", rec.Body.String())
	}
}

func TestLoginPageRedirectsSignedInUser(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeAuthBackend{})
	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.AddCookie(&http.Cookie{Name: sessioncookie.AccessName, Value: "access-1"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := rec.Header().Get("Location"); got != "/app/campaigns" {
		t.Fatalf("Location = %q", got)
	}
}

func TestLoginSetsSessionCookiesAndRedirects(t *testing.T) {
	t.Parallel()

	fake := &fakeAuthBackend{}
	h := newTestHandler(t, fake)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, postForm("/auth/login", url.Values{
		"email":    {"gm@example.com"},
		"password": {"secret"},
		"next":     {"/app/campaigns/c1"},
	}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := rec.Header().Get("Location"); got != "/app/campaigns/c1" {
		t.Fatalf("Location = %q", got)
	}
	access := responseCookie(rec, sessioncookie.AccessName)
	if access == nil || access.Value != "access-new" || !access.HttpOnly {
		t.Fatalf("access cookie = %+v", access)
	}
	if refresh := responseCookie(rec, sessioncookie.RefreshName); refresh == nil || refresh.Value != "refresh-new" {
		t.Fatalf("refresh cookie = %+v", refresh)
	}
	if fake.signIns.Load() != 1 {
		t.Fatalf("sign-in calls = %d", fake.signIns.Load())
	}
}

func TestLoginFailureRerendersForm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		form       url.Values
		status     int
		wantStatus int
		wantCalls  int32
	}{
		{name: "missing password", form: url.Values{"email": {"gm@example.com"}}, wantStatus: http.StatusUnprocessableEntity},
		{name: "rejected credentials", form: url.Values{"email": {"gm@example.com"}, "password": {"wrong"}}, status: http.StatusBadRequest, wantStatus: http.StatusUnauthorized, wantCalls: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fake := &fakeAuthBackend{status: tc.status}
			h := newTestHandler(t, fake)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, postForm("/auth/login", tc.form))

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			body := rec.Body.String()
			if !strings.Contains(body, `class="form-error"`) || !strings.Contains(body, `value="gm@example.com"`) {
				t.Fatalf("body missing error or email: %s", body)
			}
			if responseCookie(rec, sessioncookie.AccessName) != nil {
				t.Fatalf("failed sign-in set a session cookie")
			}
			if got := fake.signIns.Load(); got != tc.wantCalls {
				t.Fatalf("sign-in calls = %d, want %d", got, tc.wantCalls)
			}
		})
	}
}

func TestLoginBackendOutageRendersErrorPage(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeAuthBackend{status: http.StatusBadGateway})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, postForm("/auth/login", url.Values{"email": {"gm@example.com"}, "password": {"secret"}}))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestLogoutClearsCookies(t *testing.T) {
	t.Parallel()

	fake := &fakeAuthBackend{}
	h := newTestHandler(t, fake)
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessioncookie.AccessName, Value: "access-1"})
	req.AddCookie(&http.Cookie{Name: sessioncookie.RefreshName, Value: "refresh-1"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/auth/login" {
		t.Fatalf("status = %d Location = %q", rec.Code, rec.Header().Get("Location"))
	}
	access := responseCookie(rec, sessioncookie.AccessName)
	if access == nil || access.MaxAge >= 0 {
		t.Fatalf("access cookie not expired: %+v", access)
	}
	if fake.signOuts.Load() != 1 {
		t.Fatalf("sign-out calls = %d", fake.signOuts.Load())
	}
}

func TestUnknownAuthRouteIsNotFound(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeAuthBackend{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
