package standalone

import (
	"context"
	"net/http"

	"github.com/louisbranch/campaignforge/internal/platform/timeouts"
	module "github.com/louisbranch/campaignforge/internal/services/web/module"
	webi18n "github.com/louisbranch/campaignforge/internal/services/web/platform/i18n"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/pagerender"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/weberror"
	"github.com/louisbranch/campaignforge/internal/services/web/recordpanel"
	"github.com/louisbranch/campaignforge/internal/services/web/resources"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
	"github.com/louisbranch/campaignforge/internal/services/web/templates"
)

type handlers struct {
	party recordpanel.Panel
}

func newHandlers(deps module.Dependencies) handlers {
	return handlers{party: recordpanel.Panel{
		ID:         "party-tools",
		Collection: resources.PartyTools,
		HeadingKey: "web.campaign.party_tools",
		Route:      routepath.StandalonePartyItems,
		Page:       routepath.StandaloneParty,
		Resources:  deps.Resources,
		Factory:    deps.Factory,
	}}
}

func (h handlers) handleParty(w http.ResponseWriter, r *http.Request) {
	loader, err := h.party.Start(w, r, routepath.Page(r.URL.Query().Get(routepath.PageQueryKey)))
	if err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	defer loader.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.RenderWait)
	snapshot := recordpanel.Await(ctx, loader)
	cancel()

	if err := pagerender.WriteModulePage(w, r, pagerender.ModulePage{
		Title:    webi18n.T(r.Context(), "web.campaign.party_tools"),
		Fragment: templates.StandalonePartyPage(h.party.Render(w, r, snapshot, templates.FormView{})),
	}); err != nil {
		weberror.WriteModuleError(w, r, err)
	}
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusNotFound)
}
