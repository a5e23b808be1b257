package modules

import (
	"github.com/louisbranch/campaignforge/internal/services/web/modules/auth"
	"github.com/louisbranch/campaignforge/internal/services/web/modules/campaigns"
	"github.com/louisbranch/campaignforge/internal/services/web/modules/standalone"
)

// DefaultPublicModules returns the modules served without a session check:
// sign-in and the standalone pages.
func DefaultPublicModules(deps Dependencies) []Module {
	return []Module{
		auth.New(deps.Factory),
		standalone.New(deps),
	}
}

// DefaultProtectedModules returns the modules served under /app/.
func DefaultProtectedModules(deps Dependencies) []Module {
	return []Module{
		campaigns.New(deps),
	}
}
