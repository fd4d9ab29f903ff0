// Package di provides dependency injection configuration for the Workbets server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/workbets/workbets-server/internal/api"
	"github.com/workbets/workbets-server/internal/auth"
	"github.com/workbets/workbets-server/internal/config"
	"github.com/workbets/workbets-server/internal/di/providers"
	"github.com/workbets/workbets-server/internal/ledger"
	"github.com/workbets/workbets-server/internal/logger"
	"github.com/workbets/workbets-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideHasher)

	// Business services
	do.Provide(injector, providers.ProvideLedgerEngine)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideDirectoryService)
	do.Provide(injector, providers.ProvideWagerService)
	do.Provide(injector, providers.ProvideVoteService)
	do.Provide(injector, providers.ProvideProfileService)
	do.Provide(injector, providers.ProvideSeedService)
	do.Provide(injector, providers.ProvideSeeded)

	// Server
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services in dependency order and starts the
// HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*ledger.Engine](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.DirectoryService](injector)
	_ = do.MustInvoke[*service.WagerService](injector)
	_ = do.MustInvoke[*service.VoteService](injector)
	_ = do.MustInvoke[*service.ProfileService](injector)

	// Seeding runs before the reindex so demo wagers are picked up.
	if _, err := do.Invoke[*providers.Seeded](injector); err != nil {
		return err
	}
	providers.TriggerSearchReindex(injector)

	// Server
	_ = do.MustInvoke[*api.Server](injector)
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
