package templates

import (
	"github.com/a-h/templ"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
)

// LoginView is the state of the sign-in form.
type LoginView struct {
	Email string
	Next  string
	Error string
}

// LoginPage renders the email and password sign-in form.
func LoginPage(view LoginView) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="login"><h1>`)
		h.t("web.login.title")
		h.raw(`</h1><form method="post"`)
		h.urlAttr("action", routepath.Login)
		h.raw(">")
		if view.Error != "" {
			h.raw(`<p class="form-error" role="alert">`)
			h.text(view.Error)
			h.raw("</p>")
		}
		if view.Next != "" {
			h.raw(`<input type="hidden"`)
			h.attr("name", routepath.NextQueryKey)
			h.attr("value", view.Next)
			h.raw(">")
		}
		h.raw("<label>")
		h.t("web.login.email")
		h.raw(`<input type="email" name="email" autocomplete="username" required`)
		h.attr("value", view.Email)
		h.raw("></label><label>")
		h.t("web.login.password")
		h.raw(`<input type="password" name="password" autocomplete="current-password" required></label>`)
		h.raw(`<button type="submit">`)
		h.t("web.login.submit")
		h.raw("</button></form></div>")
	})
}
