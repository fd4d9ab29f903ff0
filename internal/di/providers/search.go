package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/workbets/workbets-server/internal/config"
	"github.com/workbets/workbets-server/internal/logger"
	"github.com/workbets/workbets-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// Index and Indexer are nil when search is disabled.
type SearchIndexHandle struct {
	Index   *search.SearchIndex
	Indexer *search.Indexer
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.Index == nil {
		return nil
	}
	return h.Index.Close()
}

// ProvideSearchIndex provides the Bleve wager index and subscribes its
// indexer to store changes.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	if !cfg.Search.Enabled {
		log.Info("Search disabled by configuration")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewSearchIndex(search.Options{
		Path:   cfg.SearchPath(),
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	indexer := search.NewIndexer(index, storeHandle.Store, log.Logger)
	storeHandle.Subscribe(indexer)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index, Indexer: indexer}, nil
}

// TriggerSearchReindex rebuilds the index from the store in the background.
// Bleve is not transactional with the store, so every start reconciles them.
func TriggerSearchReindex(i do.Injector) {
	handle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	if handle.Indexer == nil {
		return
	}

	go func() {
		n, err := handle.Indexer.Reindex(context.Background())
		if err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		log.Info("Search reindex completed", "wagers", n)
	}()
}
