package templates

import (
	"github.com/a-h/templ"
	"github.com/louisbranch/campaignforge/internal/platform/branding"
	webi18n "github.com/louisbranch/campaignforge/internal/services/web/platform/i18n"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
)

const htmxScriptURL = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

// NavUser is the signed-in user shown in the navigation chrome.
type NavUser struct {
	ID    string
	Email string
}

// Document renders a full HTML page around body.
func Document(title string, body templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw("<!DOCTYPE html>\n<html")
		h.attr("lang", webi18n.TagFromContext(h.ctx).String())
		h.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(branding.ComposePageTitle(title))
		h.raw("</title>")
		h.raw(`<link rel="stylesheet" href="`, routepath.StaticPrefix, `app.css">`)
		h.raw(`<script defer src="`, htmxScriptURL, `"></script>`)
		h.raw(`<script defer src="`, routepath.StaticPrefix, `app.js"></script>`)
		h.raw("</head><body>")
		h.component(body)
		h.raw("</body></html>")
	})
}

// Nav renders the application navigation. A nil user renders the signed-out
// chrome.
func Nav(user *NavUser) templ.Component {
	return component(func(h *htmlWriter) {
		state := "absent"
		if user != nil {
			state = "present"
		}
		h.raw(`<nav class="app-nav"`)
		h.attr("data-session", state)
		h.raw(`><a class="brand" href="`, routepath.AppCampaigns, `">`)
		h.text(branding.AppName)
		h.raw(`</a><a href="`, routepath.AppCampaigns, `">`)
		h.t("core.nav.campaigns")
		h.raw(`</a><div class="session">`)
		if user == nil {
			h.raw(`<span class="session-status">`)
			h.t("core.nav.no_session")
			h.raw(`</span><a class="sign-in" href="`, routepath.Login, `">`)
			h.t("core.nav.sign_in")
			h.raw("</a>")
		} else {
			label := user.Email
			if label == "" {
				label = user.ID
			}
			h.raw(`<span class="session-status">`)
			h.t("core.nav.signed_in_as", label)
			h.raw(`</span><form method="post"`)
			h.urlAttr("action", routepath.Logout)
			h.raw(`><button type="submit">`)
			h.t("core.nav.sign_out")
			h.raw("</button></form>")
		}
		h.raw("</div></nav>")
	})
}

// AppShell renders the navigation chrome around children.
func AppShell(user *NavUser, children templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		h.component(Nav(user))
		h.raw(`<main id="main" class="app-main">`)
		h.component(children)
		h.raw("</main>")
	})
}

// StandaloneShell renders children with no navigation chrome.
func StandaloneShell(children templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<main id="main" class="standalone">`)
		h.component(children)
		h.raw("</main>")
	})
}
