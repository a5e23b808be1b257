// Package modules composes the web feature modules.
package modules

import (
	module "github.com/louisbranch/campaignforge/internal/services/web/module"
)

// Mount aliases the module mount contract.
type Mount = module.Mount

// Module aliases the module interface contract.
type Module = module.Module

// Dependencies aliases the shared module dependencies.
type Dependencies = module.Dependencies
