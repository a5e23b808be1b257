package templates

import (
	"strconv"

	"github.com/a-h/templ"
)

// ErrorPage renders a localized error body for status.
func ErrorPage(status int, message string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="error-page"`)
		h.attr("data-status", strconv.Itoa(status))
		h.raw("><h1>")
		h.t("core.error.title")
		h.raw("</h1><p>")
		h.text(message)
		h.raw("</p></div>")
	})
}
