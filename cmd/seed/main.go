// Package main seeds the store with the tag catalog and the demo workplaces,
// users and wagers.
//
// Usage:
//
//	DATA_PATH=~/Workbets/data go run ./cmd/seed
//	go run ./cmd/seed --data-path /tmp/workbets --store-backend sqlite
//
// Seeding is idempotent: a second run finds the markers and does nothing.
package main

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/workbets/workbets-server/internal/config"
	"github.com/workbets/workbets-server/internal/di"
	"github.com/workbets/workbets-server/internal/di/providers"
	"github.com/workbets/workbets-server/internal/logger"
)

func main() {
	injector := di.NewContainer()

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Seed.Demo = true

	log := do.MustInvoke[*logger.Logger](injector)
	defer func() {
		if err := injector.Shutdown(); err != nil {
			log.Error("Shutdown error", "error", err)
		}
	}()

	seeded, err := do.Invoke[*providers.Seeded](injector)
	if err != nil {
		log.Error("Seeding failed", "error", err)
		return
	}

	fmt.Printf("Data path:   %s (%s)\n", cfg.Store.DataPath, cfg.Store.Backend)
	fmt.Printf("Tag catalog: %s\n", outcome(seeded.TagCatalog))
	fmt.Printf("Demo data:   %s\n", outcome(seeded.Demo))
	if seeded.Demo {
		fmt.Println("Demo accounts share the password \"workbets123\".")
	}
}

func outcome(ran bool) string {
	if ran {
		return "seeded"
	}
	return "already present"
}
