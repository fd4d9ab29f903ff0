package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/workbets/workbets-server/internal/auth"
	"github.com/workbets/workbets-server/internal/config"
	"github.com/workbets/workbets-server/internal/ledger"
	"github.com/workbets/workbets-server/internal/logger"
	"github.com/workbets/workbets-server/internal/service"
)

// ProvideLedgerEngine provides the vote and ledger engine.
func ProvideLedgerEngine(i do.Injector) (*ledger.Engine, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return ledger.NewEngine(log.Logger), nil
}

// ProvideAuthService provides the credential store service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	hasher := do.MustInvoke[*auth.CredentialHasher](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, hasher, tokens, cfg.Seed.DefaultWorkplace, log.Logger), nil
}

// ProvideDirectoryService provides the directory service.
func ProvideDirectoryService(i do.Injector) (*service.DirectoryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDirectoryService(storeHandle.Store, log.Logger), nil
}

// ProvideWagerService provides the wager repository service. Free-text
// search falls back to a store scan when the index is disabled.
func ProvideWagerService(i do.Injector) (*service.WagerService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	engine := do.MustInvoke[*ledger.Engine](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	var searcher service.WagerSearcher
	if searchHandle.Index != nil {
		searcher = searchHandle.Index
	}

	return service.NewWagerService(storeHandle.Store, engine, searcher, log.Logger), nil
}

// ProvideVoteService provides the vote service.
func ProvideVoteService(i do.Injector) (*service.VoteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	engine := do.MustInvoke[*ledger.Engine](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewVoteService(storeHandle.Store, engine, log.Logger), nil
}

// ProvideProfileService provides the profile projector.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	engine := do.MustInvoke[*ledger.Engine](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(storeHandle.Store, engine, log.Logger), nil
}

// ProvideSeedService provides the bootstrap data seeder.
func ProvideSeedService(i do.Injector) (*service.SeedService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	hasher := do.MustInvoke[*auth.CredentialHasher](i)
	engine := do.MustInvoke[*ledger.Engine](i)
	wagers := do.MustInvoke[*service.WagerService](i)
	votes := do.MustInvoke[*service.VoteService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSeedService(storeHandle.Store, hasher, engine, wagers, votes, log.Logger), nil
}

// Seeded records what bootstrap seeding did.
type Seeded struct {
	TagCatalog bool
	Demo       bool
}

// ProvideSeeded installs the tag catalog, plus demo data when configured.
func ProvideSeeded(i do.Injector) (*Seeded, error) {
	cfg := do.MustInvoke[*config.Config](i)
	seed := do.MustInvoke[*service.SeedService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx := context.Background()
	var result Seeded

	var err error
	if result.TagCatalog, err = seed.EnsureTagCatalog(ctx); err != nil {
		return nil, err
	}
	if cfg.Seed.Demo {
		if result.Demo, err = seed.EnsureDemoData(ctx); err != nil {
			return nil, err
		}
	}

	log.Info("Bootstrap data ready",
		"tag_catalog_seeded", result.TagCatalog,
		"demo_enabled", cfg.Seed.Demo,
		"demo_seeded", result.Demo,
	)
	return &result, nil
}
