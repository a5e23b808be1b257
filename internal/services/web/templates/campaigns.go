package templates

import (
	"github.com/a-h/templ"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
)

// CampaignItem is one campaign in the dashboard list.
type CampaignItem struct {
	ID      string
	Name    string
	Summary string
}

// CampaignListView is a paginated campaign list.
type CampaignListView struct {
	ListView
	Items []CampaignItem
}

// CampaignList renders the campaigns visible to the session.
func CampaignList(view CampaignListView) templ.Component {
	return component(func(h *htmlWriter) {
		openList(h, view.ListView)
		if listBody(h, view.ListView, len(view.Items)) {
			h.raw(`<ul class="campaigns">`)
			for _, item := range view.Items {
				h.raw(`<li class="campaign"><h3><a`)
				h.urlAttr("href", routepath.AppCampaign(item.ID))
				h.raw(">")
				h.text(item.Name)
				h.raw("</a></h3>")
				if item.Summary != "" {
					h.raw("<p>")
					h.text(item.Summary)
					h.raw("</p>")
				}
				h.raw("</li>")
			}
			h.raw("</ul>")
			pagination(h, view.ListView)
		}
		h.raw("</section>")
	})
}

// CampaignForm renders the create-campaign form.
func CampaignForm(view FormView) templ.Component {
	return component(func(h *htmlWriter) {
		openForm(h, view)
		textInput(h, "name", "web.dashboard.name", view.value("name"), true)
		h.raw("<label>")
		h.t("web.dashboard.summary")
		h.raw(`<textarea name="summary" rows="2">`)
		h.text(view.value("summary"))
		h.raw("</textarea></label>")
		h.raw(`<button type="submit">`)
		h.t("web.dashboard.create")
		h.raw("</button></form>")
	})
}

// DashboardPanel renders the campaign form and list as one swappable unit.
func DashboardPanel(id string, form FormView, list CampaignListView) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="panel"`)
		h.attr("id", id)
		h.raw("><h1>")
		h.t("web.dashboard.title")
		h.raw("</h1>")
		form.Target = id
		h.component(CampaignForm(form))
		h.component(CampaignList(list))
		h.raw("</div>")
	})
}

// CampaignPage renders a campaign with its content and embedded party tools.
func CampaignPage(campaignID string, content, party templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="campaign-page"><nav class="campaign-links"><a`)
		h.urlAttr("href", routepath.AppCampaignForge(campaignID))
		h.raw(">")
		h.t("web.campaign.open_forge")
		h.raw("</a><a")
		h.urlAttr("href", routepath.StandaloneParty(campaignID))
		h.raw(` target="_blank" rel="noopener">`)
		h.t("web.campaign.open_party")
		h.raw(`</a></nav><div class="campaign-columns"><div class="column">`)
		h.component(content)
		h.raw(`</div><aside class="column">`)
		h.component(party)
		h.raw("</aside></div></div>")
	})
}

// ForgePage renders the forge content page of a campaign.
func ForgePage(campaignID string, panel templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="forge-page"><nav class="campaign-links"><a`)
		h.urlAttr("href", routepath.AppCampaign(campaignID))
		h.raw(">")
		h.t("web.campaign.back")
		h.raw("</a></nav><h1>")
		h.t("web.campaign.forge")
		h.raw("</h1>")
		h.component(panel)
		h.raw("</div>")
	})
}

// StandalonePartyPage renders the pop-out party tools.
func StandalonePartyPage(panel templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="party-page"><h1>`)
		h.t("web.campaign.party_tools")
		h.raw("</h1>")
		h.component(panel)
		h.raw("</div>")
	})
}
