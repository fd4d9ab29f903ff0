// Package main prints collection counts for a Workbets store and audits the
// ledger invariants. It exits non-zero when the audit finds a problem.
//
// Usage:
//
//	DATA_PATH=~/Workbets/data go run ./cmd/dbinspect
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/workbets/workbets-server/internal/config"
	"github.com/workbets/workbets-server/internal/di/providers"
	"github.com/workbets/workbets-server/internal/ledger"
	"github.com/workbets/workbets-server/internal/logger"
	"github.com/workbets/workbets-server/internal/store"
)

type counter struct {
	name  string
	count func(tx *store.Tx) (int, error)
}

func countOf[T any](c *store.Collection[T]) counter {
	return counter{name: c.Name(), count: func(tx *store.Tx) (int, error) {
		all, err := c.In(tx).All()
		return len(all), err
	}}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	backend, err := providers.OpenBackend(cfg, logger.Discard())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	s := store.New(backend, nil)

	clean := inspect(cfg, s)
	if err := s.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
	if !clean {
		os.Exit(1)
	}
}

// inspect prints the report and reports whether the audit came back clean.
func inspect(cfg *config.Config, s *store.Store) bool {
	counters := []counter{
		countOf(store.Workplaces),
		countOf(store.Users),
		countOf(store.Credentials),
		countOf(store.Wagers),
		countOf(store.Options),
		countOf(store.WagerTags),
		countOf(store.TagOptions),
		countOf(store.Votes),
		countOf(store.Transactions),
		countOf(store.SeedMarkers),
	}

	fmt.Println("=== Database Inspection ===")
	fmt.Printf("Path: %s (%s)\n\n", cfg.StorePath(), cfg.Store.Backend)

	var findings []ledger.Finding
	err := s.View(context.Background(), func(tx *store.Tx) error {
		for _, c := range counters {
			n, err := c.count(tx)
			if err != nil {
				return fmt.Errorf("count %s: %w", c.name, err)
			}
			fmt.Printf("%-22s %d\n", c.name, n)
		}
		var err error
		findings, err = ledger.NewEngine(nil).Audit(tx)
		return err
	})
	if err != nil {
		log.Fatalf("Error inspecting database: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Audit ===")
	if len(findings) == 0 {
		fmt.Println("No problems found")
		return true
	}
	for _, f := range findings {
		fmt.Println(f)
	}
	return false
}
