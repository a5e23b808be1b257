// Package templates renders the web service's HTML.
//
// Components are templ components; text passes through templ's escaper and
// user-visible copy resolves through the request's localizer.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
	webi18n "github.com/louisbranch/campaignforge/internal/services/web/platform/i18n"
)

// htmlWriter accumulates the first write error so components can emit a
// sequence of fragments without checking every call.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newHTMLWriter(ctx context.Context, w io.Writer) *htmlWriter {
	return &htmlWriter{ctx: ctx, w: w}
}

func (h *htmlWriter) raw(fragments ...string) {
	for _, fragment := range fragments {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, fragment)
	}
}

func (h *htmlWriter) text(value string) {
	h.raw(templ.EscapeString(value))
}

// attr writes ` name="value"` with value escaped.
func (h *htmlWriter) attr(name, value string) {
	h.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

// urlAttr writes a URL-valued attribute, replacing unsafe schemes the way
// templ does for href and action.
func (h *htmlWriter) urlAttr(name, value string) {
	h.attr(name, string(templ.URL(value)))
}

func (h *htmlWriter) t(key string, args ...any) {
	h.text(webi18n.T(h.ctx, key, args...))
}

func (h *htmlWriter) component(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}

func component(render func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		render(h)
		return h.err
	})
}
