// Package auth provides the sign-in and sign-out routes.
package auth

import (
	"errors"
	"net/http"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
	module "github.com/louisbranch/campaignforge/internal/services/web/module"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
)

// Module provides public auth routes.
type Module struct {
	factory *backend.Factory
}

// New returns an auth module that signs in through factory.
func New(factory *backend.Factory) Module {
	return Module{factory: factory}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "auth" }

// Mount wires auth route handlers.
func (m Module) Mount() (module.Mount, error) {
	if m.factory == nil {
		return module.Mount{}, errors.New("auth module requires a backend factory")
	}
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers(m.factory))
	return module.Mount{Prefix: routepath.AuthPrefix, Handler: mux}, nil
}
