package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/workbets/workbets-server/internal/domain"
	"github.com/workbets/workbets-server/internal/store"
)

// Indexer keeps a SearchIndex in step with the store. Register it with
// store.Subscribe; it reindexes the wager named by each committed wager event.
type Indexer struct {
	index   *SearchIndex
	store   store.Transactor
	logger  *slog.Logger
	timeout time.Duration
}

// NewIndexer creates an indexer. logger may be nil.
func NewIndexer(index *SearchIndex, s store.Transactor, logger *slog.Logger) *Indexer {
	return &Indexer{index: index, store: s, logger: logger, timeout: 5 * time.Second}
}

// Emit implements store.EventEmitter.
func (i *Indexer) Emit(event store.Event) {
	var err error
	switch event.Type {
	case store.EventWagerDeleted:
		err = i.index.DeleteWager(event.WagerID)
	case store.EventWagerCreated, store.EventWagerVoted, store.EventWagerClosed, store.EventWagerCancelled:
		ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
		defer cancel()
		err = i.Refresh(ctx, event.WagerID)
	default:
		return
	}
	if err != nil && i.logger != nil {
		i.logger.Warn("Search index update failed", "event", event.Type, "wager_id", event.WagerID, "error", err)
	}
}

// Refresh reindexes one wager from the store, or drops it when it is gone.
func (i *Indexer) Refresh(ctx context.Context, wagerID string) error {
	var doc *WagerDocument
	err := i.store.View(ctx, func(tx *store.Tx) error {
		w, err := store.Wagers.In(tx).Get(wagerID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		doc, err = loadDocument(tx, w)
		return err
	})
	if err != nil {
		return err
	}
	if doc == nil {
		return i.index.DeleteWager(wagerID)
	}
	return i.index.IndexWager(doc)
}

// Reindex rebuilds the whole index from the store and returns the number of
// wagers indexed.
func (i *Indexer) Reindex(ctx context.Context) (int, error) {
	var docs []*WagerDocument
	err := i.store.View(ctx, func(tx *store.Tx) error {
		wagers, err := store.Wagers.In(tx).All()
		if err != nil {
			return err
		}
		docs = make([]*WagerDocument, 0, len(wagers))
		for _, w := range wagers {
			doc, err := loadDocument(tx, w)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("load wagers: %w", err)
	}

	if err := i.index.Rebuild(); err != nil {
		return 0, err
	}
	if err := i.index.IndexWagers(docs); err != nil {
		return 0, err
	}

	if i.logger != nil {
		i.logger.Info("Search index rebuilt", "wagers", len(docs))
	}
	return len(docs), nil
}

func loadDocument(tx *store.Tx, w *domain.Wager) (*WagerDocument, error) {
	options, err := store.Options.In(tx).Query(store.IndexWager, w.ID)
	if err != nil {
		return nil, err
	}
	domain.SortOptions(options)
	tags, err := store.WagerTags.In(tx).Query(store.IndexWager, w.ID)
	if err != nil {
		return nil, err
	}

	var creator *domain.User
	if w.WorkplaceID == nil && w.CreatedBy != nil {
		creator, err = store.Users.In(tx).Get(*w.CreatedBy)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return NewWagerDocument(w, domain.WagerWorkplace(w, creator), options, tags), nil
}
