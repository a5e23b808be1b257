// Package pagerender centralizes module page rendering behavior.
package pagerender

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	"github.com/louisbranch/campaignforge/internal/services/web/layout"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/httpx"
)

// ModulePage describes a module page response. The surrounding layout shell
// turns it into a full document; HTMX requests receive the fragment alone.
type ModulePage struct {
	Title      string
	StatusCode int
	Fragment   templ.Component
}

// WriteModulePage renders page into a buffer and writes it with its status.
// Nothing is written when rendering fails, so callers can still write an
// error response.
func WriteModulePage(w http.ResponseWriter, r *http.Request, page ModulePage) error {
	if w == nil {
		return nil
	}
	statusCode := page.StatusCode
	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	ctx := httpx.RequestContext(r)
	layout.SetTitle(ctx, page.Title)

	var buf bytes.Buffer
	if page.Fragment != nil {
		if err := page.Fragment.Render(ctx, &buf); err != nil {
			return err
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
	return nil
}
