// Package campaigns provides the authenticated campaign pages: the campaign
// dashboard, one campaign's content with its embedded party tools, and the
// forge.
package campaigns

import (
	"errors"
	"net/http"

	module "github.com/louisbranch/campaignforge/internal/services/web/module"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
)

// Module provides authenticated campaign routes.
type Module struct {
	deps module.Dependencies
}

// New returns a campaigns module.
func New(deps module.Dependencies) Module {
	return Module{deps: deps}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "campaigns" }

// Mount wires campaign route handlers.
func (m Module) Mount() (module.Mount, error) {
	if m.deps.Factory == nil || m.deps.Resources == nil {
		return module.Mount{}, errors.New("campaigns module requires a backend factory and resource service")
	}
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers(m.deps), m.deps.ResolveUserID)
	return module.Mount{Prefix: routepath.CampaignsPrefix, Handler: mux}, nil
}
