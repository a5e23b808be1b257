package sessioncookie

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/requestmeta"
)

func TestRead(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := Read(req); ok {
		t.Fatal("expected no session without cookies")
	}
	req.AddCookie(&http.Cookie{Name: RefreshName, Value: "refresh-1"})
	if _, ok := Read(req); ok {
		t.Fatal("refresh cookie alone is not a session")
	}
	req.AddCookie(&http.Cookie{Name: AccessName, Value: " access-1 "})
	tokens, ok := Read(req)
	if !ok {
		t.Fatal("expected session")
	}
	if tokens.AccessToken != "access-1" || tokens.RefreshToken != "refresh-1" {
		t.Fatalf("tokens = %+v", tokens)
	}
	if _, ok := Read(nil); ok {
		t.Fatal("nil request has no session")
	}
}

func TestJarSaveWritesCookies(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	jar := NewJar(rr, httptest.NewRequest(http.MethodPost, "https://forge.example.test/login", nil), requestmeta.SchemePolicy{})
	jar.Save(backend.Session{AccessToken: "access-2", RefreshToken: "refresh-2"})

	if got := jar.Tokens(); got.AccessToken != "access-2" || got.RefreshToken != "refresh-2" {
		t.Fatalf("jar tokens = %+v", got)
	}
	cookies := responseCookies(rr)
	for name, want := range map[string]string{AccessName: "access-2", RefreshName: "refresh-2"} {
		cookie, ok := cookies[name]
		if !ok {
			t.Fatalf("missing cookie %s", name)
		}
		if cookie.Value != want || !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteLaxMode {
			t.Fatalf("cookie %s = %+v", name, cookie)
		}
		if cookie.MaxAge <= 0 {
			t.Fatalf("cookie %s max age = %d, want persistent", name, cookie.MaxAge)
		}
	}
}

func TestJarClearExpiresCookies(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "http://forge.example.test/logout", nil)
	req.AddCookie(&http.Cookie{Name: AccessName, Value: "access-1"})
	rr := httptest.NewRecorder()
	jar := NewJar(rr, req, requestmeta.SchemePolicy{})
	if jar.Tokens().Empty() {
		t.Fatal("expected jar to start from request cookies")
	}
	jar.Clear()

	if !jar.Tokens().Empty() {
		t.Fatal("expected cleared tokens")
	}
	for _, name := range []string{AccessName, RefreshName} {
		cookie, ok := responseCookies(rr)[name]
		if !ok || cookie.MaxAge >= 0 || cookie.Secure {
			t.Fatalf("cookie %s = %+v, want expired non-secure cookie", name, cookie)
		}
	}
}

func TestMiddlewareSharesJarAcrossHandles(t *testing.T) {
	t.Parallel()

	var first, second *Jar
	h := Middleware(requestmeta.SchemePolicy{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = FromRequest(w, r)
		first.Save(backend.Session{AccessToken: "access-3"})
		second = FromRequest(w, r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if first == nil || first != second {
		t.Fatal("expected one jar per request")
	}
	if second.Tokens().AccessToken != "access-3" {
		t.Fatal("second lookup did not see saved tokens")
	}
}

func TestFromRequestWithoutMiddleware(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessName, Value: "access-1"})
	jar := FromRequest(httptest.NewRecorder(), req)
	if jar.Tokens().AccessToken != "access-1" {
		t.Fatalf("tokens = %+v", jar.Tokens())
	}
}

func responseCookies(rr *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, cookie := range rr.Result().Cookies() {
		out[cookie.Name] = cookie
	}
	return out
}
