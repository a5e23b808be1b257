package campaigns

import (
	"net/http"

	"github.com/louisbranch/campaignforge/internal/platform/requestctx"
	module "github.com/louisbranch/campaignforge/internal/services/web/module"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
)

// registerRoutes installs the identity provider on each route rather than on
// the mux so the {campaignID} path value is already matched.
func registerRoutes(mux *http.ServeMux, h handlers, resolveUserID module.ResolveUserID) {
	if mux == nil {
		return
	}
	provide := requestctx.Provide(resolveUserID)
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, provide(fn))
	}
	handle(http.MethodGet+" "+routepath.AppCampaigns, h.handleDashboard)
	handle(http.MethodGet+" "+routepath.CampaignsPrefix+"{$}", h.handleDashboard)
	handle(http.MethodPost+" "+routepath.AppCampaigns, h.handleCreateCampaign)
	handle(http.MethodPost+" "+routepath.CampaignsPrefix+"{$}", h.handleCreateCampaign)
	handle(http.MethodGet+" "+routepath.AppCampaignPattern, h.handleCampaign)
	handle(http.MethodGet+" "+routepath.AppCampaignContentPattern, h.content.ServeList)
	handle(http.MethodPost+" "+routepath.AppCampaignContentPattern, h.content.ServeCreate)
	handle(http.MethodGet+" "+routepath.AppCampaignPartyPattern, h.party.ServeList)
	handle(http.MethodPost+" "+routepath.AppCampaignPartyPattern, h.party.ServeCreate)
	handle(http.MethodGet+" "+routepath.AppCampaignForgePattern, h.handleForge)
	handle(http.MethodGet+" "+routepath.AppCampaignForgeItemsPattern, h.forge.ServeList)
	handle(http.MethodPost+" "+routepath.AppCampaignForgeItemsPattern, h.forge.ServeCreate)
	mux.HandleFunc(routepath.CampaignsPrefix+"{rest...}", h.handleNotFound)
}
