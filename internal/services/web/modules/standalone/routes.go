package standalone

import (
	"net/http"

	"github.com/louisbranch/campaignforge/internal/platform/requestctx"
	module "github.com/louisbranch/campaignforge/internal/services/web/module"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers, resolveUserID module.ResolveUserID) {
	if mux == nil {
		return
	}
	provide := requestctx.Provide(resolveUserID)
	mux.Handle(http.MethodGet+" "+routepath.StandalonePartyPattern, provide(http.HandlerFunc(h.handleParty)))
	mux.Handle(http.MethodGet+" "+routepath.StandalonePartyItemsPattern, provide(http.HandlerFunc(h.party.ServeList)))
	mux.Handle(http.MethodPost+" "+routepath.StandalonePartyItemsPattern, provide(http.HandlerFunc(h.party.ServeCreate)))
	mux.HandleFunc(routepath.StandalonePrefix+"{rest...}", h.handleNotFound)
}
