package pagerender

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/louisbranch/campaignforge/internal/services/web/layout"
)

func textComponent(value string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, value)
		return err
	})
}

func TestWriteModulePageWritesFragmentWithStatus(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/app/campaigns/c1", nil)
	rr := httptest.NewRecorder()
	err := WriteModulePage(rr, req, ModulePage{
		Title:      "Campaign",
		StatusCode: http.StatusCreated,
		Fragment:   textComponent(`<section id="fragment-root">ok</section>`),
	})
	if err != nil {
		t.Fatalf("WriteModulePage() error = %v", err)
	}
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	if got := rr.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Fatalf("content-type = %q", got)
	}
	if body := rr.Body.String(); body != `<section id="fragment-root">ok</section>` {
		t.Fatalf("body = %q", body)
	}
}

func TestWriteModulePageInsideShellSetsTitle(t *testing.T) {
	t.Parallel()

	h := layout.Standalone()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := WriteModulePage(w, r, ModulePage{Title: "Party tools", Fragment: textComponent("<p>x</p>")}); err != nil {
			t.Errorf("WriteModulePage() error = %v", err)
		}
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/standalone/campaigns/c1/party", nil))

	if body := rr.Body.String(); !strings.Contains(body, "<title>Party tools | Campaign Forge</title>") {
		t.Fatalf("body missing title: %s", body)
	}
}

func TestWriteModulePageRenderErrorWritesNothing(t *testing.T) {
	t.Parallel()

	failing := templ.ComponentFunc(func(context.Context, io.Writer) error {
		return errors.New("render failed")
	})
	rr := httptest.NewRecorder()
	if err := WriteModulePage(rr, httptest.NewRequest(http.MethodGet, "/", nil), ModulePage{Fragment: failing}); err == nil {
		t.Fatal("expected render error")
	}
	if rr.Body.Len() != 0 || rr.Header().Get("Content-Type") != "" {
		t.Fatalf("expected no response to be written, got %q", rr.Body.String())
	}
}
