// Package module defines the feature contract used by web composition.
package module

import (
	"net/http"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
	"github.com/louisbranch/campaignforge/internal/services/web/resources"
)

// ResolveUserID resolves the authenticated user id for a request.
type ResolveUserID func(*http.Request) string

// Mount describes a module route mount.
type Mount struct {
	Prefix  string
	Handler http.Handler
}

// Module declares the minimum contract required by web composition.
type Module interface {
	ID() string
	Mount() (Mount, error)
}

// Dependencies are the shared services handed to every module.
type Dependencies struct {
	// Factory builds backend handles; modules build one per call site.
	Factory *backend.Factory
	// Resources loads and writes campaign collections.
	Resources *resources.Service
	// ResolveUserID feeds the identity provider installed on module routes.
	ResolveUserID ResolveUserID
}
