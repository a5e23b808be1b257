package campaigns

import (
	"context"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/campaignforge/internal/platform/timeouts"
	module "github.com/louisbranch/campaignforge/internal/services/web/module"
	apperrors "github.com/louisbranch/campaignforge/internal/services/web/platform/errors"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/campaignforge/internal/services/web/platform/i18n"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/pagerender"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/weberror"
	"github.com/louisbranch/campaignforge/internal/services/web/recordpanel"
	"github.com/louisbranch/campaignforge/internal/services/web/resources"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
	"github.com/louisbranch/campaignforge/internal/services/web/templates"
)

const (
	dashboardPanelID = "campaigns"
	maxFormBytes     = 16 << 10
)

type handlers struct {
	resources *resources.Service
	content   recordpanel.Panel
	party     recordpanel.Panel
	forge     recordpanel.Panel
}

func newHandlers(deps module.Dependencies) handlers {
	panel := func(id string, collection resources.Collection, headingKey string, route, page func(string) string) recordpanel.Panel {
		return recordpanel.Panel{
			ID:         id,
			Collection: collection,
			HeadingKey: headingKey,
			Route:      route,
			Page:       page,
			Resources:  deps.Resources,
			Factory:    deps.Factory,
		}
	}
	return handlers{
		resources: deps.Resources,
		content:   panel("campaign-content", resources.CampaignContent, "web.campaign.content", routepath.AppCampaignContent, routepath.AppCampaign),
		party:     panel("party-tools", resources.PartyTools, "web.campaign.party_tools", routepath.AppCampaignParty, routepath.AppCampaign),
		forge:     panel("forge-content", resources.ForgeContent, "web.campaign.forge_content", routepath.AppCampaignForgeItems, routepath.AppCampaignForge),
	}
}

// handleDashboard renders the campaign list; HTMX refreshes get the list
// alone.
func (h handlers) handleDashboard(w http.ResponseWriter, r *http.Request) {
	loader, err := h.startCampaigns(w, r, routepath.Page(r.URL.Query().Get(routepath.PageQueryKey)))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer loader.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.ResourceLoad)
	snapshot, err := loader.Wait(ctx)
	cancel()
	if err != nil {
		snapshot.State = resources.StateError
		snapshot.Err = apperrors.Wrap(apperrors.KindUnavailable, "load campaigns", err)
	}

	list := campaignListView(r.Context(), snapshot)
	if httpx.IsHTMXRequest(r) {
		h.writePage(w, r, "web.dashboard.title", http.StatusOK, templates.CampaignList(list))
		return
	}
	h.writePage(w, r, "web.dashboard.title", http.StatusOK, templates.DashboardPanel(dashboardPanelID, dashboardForm(templates.FormView{}), list))
}

func (h handlers) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, apperrors.Wrap(apperrors.KindInvalidInput, "parse campaign form", err))
		return
	}
	values := map[string]string{
		"name":    r.PostForm.Get("name"),
		"summary": r.PostForm.Get("summary"),
	}
	created, err := h.resources.CreateCampaign(r.Context(), sessioncookie.FromRequest(w, r), resources.CampaignInput{
		Name:    values["name"],
		Summary: values["summary"],
	})
	form := templates.FormView{}
	status := http.StatusOK
	switch {
	case err != nil && apperrors.KindOf(err) != apperrors.KindInvalidInput:
		h.writeError(w, r, err)
		return
	case err != nil:
		form = templates.FormView{Error: weberror.PublicMessage(r.Context(), err), Values: values}
		status = http.StatusUnprocessableEntity
	case !httpx.IsHTMXRequest(r):
		target := routepath.AppCampaigns
		if strings.TrimSpace(created.ID) != "" {
			target = routepath.AppCampaign(created.ID)
		}
		httpx.WriteRedirect(w, r, target)
		return
	}

	loader, err := h.startCampaigns(w, r, 1)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer loader.Close()
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.RenderWait)
	snapshot, _ := loader.Wait(ctx)
	cancel()
	h.writePage(w, r, "web.dashboard.title", status, templates.DashboardPanel(dashboardPanelID, dashboardForm(form), campaignListView(r.Context(), snapshot)))
}

// handleCampaign renders campaign content beside the party tools. Both lists
// load concurrently; a list still loading after RenderWait is rendered as a
// placeholder that fetches itself.
func (h handlers) handleCampaign(w http.ResponseWriter, r *http.Request) {
	content, err := h.content.Start(w, r, 1)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer content.Close()
	party, err := h.party.Start(w, r, 1)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer party.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.RenderWait)
	contentSnapshot := recordpanel.Await(ctx, content)
	partySnapshot := recordpanel.Await(ctx, party)
	cancel()

	campaignID := r.PathValue("campaignID")
	h.writePage(w, r, "web.campaign.content", http.StatusOK, templates.CampaignPage(
		campaignID,
		h.content.Render(w, r, contentSnapshot, templates.FormView{}),
		h.party.Render(w, r, partySnapshot, templates.FormView{}),
	))
}

func (h handlers) handleForge(w http.ResponseWriter, r *http.Request) {
	forge, err := h.forge.Start(w, r, routepath.Page(r.URL.Query().Get(routepath.PageQueryKey)))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer forge.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.RenderWait)
	snapshot := recordpanel.Await(ctx, forge)
	cancel()

	h.writePage(w, r, "web.campaign.forge", http.StatusOK, templates.ForgePage(
		r.PathValue("campaignID"),
		h.forge.Render(w, r, snapshot, templates.FormView{}),
	))
}

func (h handlers) startCampaigns(w http.ResponseWriter, r *http.Request, page int) (*resources.Loader[resources.Campaign], error) {
	key, err := resources.KeyFor(r.Context(), page)
	if err != nil {
		return nil, err
	}
	loader := h.resources.CampaignLoader(sessioncookie.FromRequest(w, r))
	loader.Load(r.Context(), key)
	return loader, nil
}

func dashboardForm(form templates.FormView) templates.FormView {
	form.Action = routepath.AppCampaigns
	return form
}

func campaignListView(ctx context.Context, snapshot resources.Snapshot[resources.Campaign]) templates.CampaignListView {
	view := templates.CampaignListView{ListView: templates.ListView{
		ID:     dashboardPanelID + "-list",
		Source: routepath.AppCampaigns,
		State:  snapshot.State,
		Page:   snapshot.Key.Page,
	}}
	switch snapshot.State {
	case resources.StateError:
		view.Error = weberror.PublicMessage(ctx, snapshot.Err)
	case resources.StateSuccess:
		view.Items = make([]templates.CampaignItem, 0, len(snapshot.Items))
		for _, campaign := range snapshot.Items {
			view.Items = append(view.Items, templates.CampaignItem{
				ID:      campaign.ID,
				Name:    campaign.Name,
				Summary: campaign.Summary,
			})
		}
		view.HasNext = len(snapshot.Items) == resources.PageSize
	}
	return view
}

func (h handlers) writePage(w http.ResponseWriter, r *http.Request, titleKey string, status int, fragment templ.Component) {
	if err := pagerender.WriteModulePage(w, r, pagerender.ModulePage{
		Title:      webi18n.T(r.Context(), titleKey),
		StatusCode: status,
		Fragment:   fragment,
	}); err != nil {
		h.writeError(w, r, err)
	}
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusNotFound)
}

func (h handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	weberror.WriteModuleError(w, r, err)
}
