package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/workbets/workbets-server/internal/config"
	"github.com/workbets/workbets-server/internal/logger"
	"github.com/workbets/workbets-server/internal/sse"
	"github.com/workbets/workbets-server/internal/store"
	"github.com/workbets/workbets-server/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured backend and subscribes the SSE manager
// to committed changes.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	backend, err := OpenBackend(cfg, log)
	if err != nil {
		return nil, err
	}

	db := store.New(backend, log.Logger)
	db.Subscribe(sseHandle.Manager)

	log.Info("Database initialized", "backend", cfg.Store.Backend, "path", cfg.StorePath())

	return &StoreHandle{Store: db}, nil
}

// OpenBackend opens the key-value backend selected by cfg.Store.Backend.
// Tools outside the server share it so they read the same files.
func OpenBackend(cfg *config.Config, log *logger.Logger) (store.Backend, error) {
	path := cfg.StorePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	switch cfg.Store.Backend {
	case config.BackendSQLite:
		return sqlite.Open(path, log.Logger)
	case config.BackendBadger, "":
		return store.OpenBadger(path, log.Logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
