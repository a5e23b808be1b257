// Package standalone provides chrome-less pages meant to be opened in their
// own window, such as the pop-out party tools.
package standalone

import (
	"errors"
	"net/http"

	module "github.com/louisbranch/campaignforge/internal/services/web/module"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
)

// Module provides standalone routes.
type Module struct {
	deps module.Dependencies
}

// New returns a standalone module.
func New(deps module.Dependencies) Module {
	return Module{deps: deps}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "standalone" }

// Mount wires standalone route handlers.
func (m Module) Mount() (module.Mount, error) {
	if m.deps.Factory == nil || m.deps.Resources == nil {
		return module.Mount{}, errors.New("standalone module requires a backend factory and resource service")
	}
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers(m.deps), m.deps.ResolveUserID)
	return module.Mount{Prefix: routepath.StandalonePrefix, Handler: mux}, nil
}
