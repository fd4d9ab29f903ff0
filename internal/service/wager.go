package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/workbets/workbets-server/internal/domain"
	domainerrors "github.com/workbets/workbets-server/internal/errors"
	"github.com/workbets/workbets-server/internal/id"
	"github.com/workbets/workbets-server/internal/ledger"
	"github.com/workbets/workbets-server/internal/logger"
	"github.com/workbets/workbets-server/internal/store"
)

// WagerSearcher finds wager IDs matching a free-text query within a workplace.
type WagerSearcher interface {
	SearchWagers(ctx context.Context, workplaceID, query string, limit int) ([]string, error)
}

// searchLimit caps search results.
const searchLimit = 50

// WagerService runs the wager lifecycle: create, close, cancel, delete and the
// read views.
type WagerService struct {
	store    store.Transactor
	engine   *ledger.Engine
	searcher WagerSearcher
	logger   *slog.Logger
	now      clock
}

// NewWagerService creates a wager service. searcher may be nil, in which case
// SearchWagers falls back to a substring scan of the caller's wagers.
func NewWagerService(store store.Transactor, engine *ledger.Engine, searcher WagerSearcher, logger *slog.Logger) *WagerService {
	return &WagerService{store: store, engine: engine, searcher: searcher, logger: logger, now: time.Now}
}

// CreateWagerRequest contains the data for a new wager.
type CreateWagerRequest struct {
	Title       string     `json:"title" validate:"notblank,max=200"`
	Description string     `json:"description" validate:"max=4000"`
	TotalCred   int        `json:"total_cred" validate:"gte=0"`
	ClosesAt    *time.Time `json:"closes_at,omitempty"`
	Options     []string   `json:"options"`
	Tags        []string   `json:"tags,omitempty"`
}

// OptionView is an option as shown on the board.
type OptionView struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	SortOrder   int    `json:"sort_order"`
	VotePercent int    `json:"vote_percent"`
}

// WagerView is a wager with everything the board renders.
type WagerView struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Status         domain.WagerStatus `json:"status"`
	TotalCred      int                `json:"total_cred"`
	ClosesAt       *time.Time         `json:"closes_at,omitempty"`
	CreatedBy      *string            `json:"created_by,omitempty"`
	WorkplaceID    string             `json:"workplace_id,omitempty"`
	Options        []OptionView       `json:"options"`
	Tags           []string           `json:"tags"`
	WinnerOptionID *string            `json:"winner_option_id,omitempty"`
	Winner         *string            `json:"winner,omitempty"`
	VoteCount      int                `json:"vote_count"`
	Expired        bool               `json:"expired"`
	CanManage      bool               `json:"can_manage"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// CreateWager creates an open wager in the creator's workplace with its
// options and tags.
func (s *WagerService) CreateWager(ctx context.Context, creatorID string, req CreateWagerRequest) (*domain.Wager, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	var wager *domain.Wager
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		creator, err := loadUser(tx, creatorID)
		if err != nil {
			return err
		}
		if err := validate.Validate(req); err != nil {
			return err
		}
		labels := domain.NormalizeOptionLabels(req.Options)
		if len(labels) < domain.MinOptions {
			return domainerrors.ValidationWithDetails("At least two wager options are required.",
				map[string]string{"options": fmt.Sprintf("must have at least %d distinct entries", domain.MinOptions)})
		}

		catalog, err := store.TagOptions.In(tx).All()
		if err != nil {
			return err
		}
		tags := domain.ApplicableTags(req.Tags, catalog)

		wagerID, err := id.Generate(id.PrefixWager)
		if err != nil {
			return err
		}
		now := s.now()
		workplaceID := creator.WorkplaceID
		wager = &domain.Wager{
			ID:          wagerID,
			Title:       req.Title,
			Description: req.Description,
			Status:      domain.WagerStatusOpen,
			TotalCred:   req.TotalCred,
			ClosesAt:    req.ClosesAt,
			CreatedBy:   &creator.ID,
			WorkplaceID: &workplaceID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.Wagers.In(tx).Insert(wager); err != nil {
			return fmt.Errorf("create wager: %w", err)
		}

		for i, label := range labels {
			optionID, err := id.Generate(id.PrefixOption)
			if err != nil {
				return err
			}
			if err := store.Options.In(tx).Insert(&domain.Option{
				ID: optionID, WagerID: wagerID, Label: label, SortOrder: i,
			}); err != nil {
				return fmt.Errorf("create option: %w", err)
			}
		}
		for _, tag := range tags {
			tagID, err := id.Generate(id.PrefixWagerTag)
			if err != nil {
				return err
			}
			if err := store.WagerTags.In(tx).Insert(&domain.WagerTag{ID: tagID, WagerID: wagerID, Tag: tag}); err != nil {
				return fmt.Errorf("create wager tag: %w", err)
			}
		}

		tx.Emit(store.Event{Type: store.EventWagerCreated, WorkplaceID: workplaceID, WagerID: wagerID, UserID: creator.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if log := logger.FromContext(ctx, s.logger); log != nil {
		log.Info("Wager created", "wager_id", wager.ID, "workplace_id", *wager.WorkplaceID, "total_cred", wager.TotalCred)
	}
	return wager, nil
}

// managed is a wager the caller has been cleared to manage.
type managed struct {
	wager       *domain.Wager
	user        *domain.User
	workplaceID string
}

// authorize loads the wager and caller and checks that the caller may manage it.
func authorize(tx *store.Tx, wagerID, userID string) (*managed, error) {
	wager, err := loadWager(tx, wagerID)
	if err != nil {
		return nil, err
	}
	user, err := loadUser(tx, userID)
	if err != nil {
		return nil, err
	}
	workplaceID, err := wagerWorkplace(tx, wager)
	if err != nil {
		return nil, err
	}
	if !domain.CanManage(wager, user, workplaceID) {
		return nil, domainerrors.Forbidden("You don't have permission to modify this wager.")
	}
	return &managed{wager: wager, user: user, workplaceID: workplaceID}, nil
}

// CloseWager resolves an open wager to winnerOptionID and pays out its pool.
func (s *WagerService) CloseWager(ctx context.Context, userID, wagerID, winnerOptionID string) ([]domain.Share, error) {
	var shares []domain.Share
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		m, err := authorize(tx, wagerID, userID)
		if err != nil {
			return err
		}
		if !m.wager.IsOpen() {
			return domainerrors.Validation("Only open wagers can be closed.")
		}

		winner, err := store.Options.In(tx).Get(winnerOptionID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && winner.WagerID != m.wager.ID) {
			return domainerrors.Validation("Selected winner is invalid.")
		}
		if err != nil {
			return err
		}

		closed, err := store.Wagers.In(tx).Patch(m.wager.ID, func(w *domain.Wager) error {
			w.Status = domain.WagerStatusClosed
			w.WinnerOptionID = &winner.ID
			w.UpdatedAt = s.now()
			return nil
		})
		if err != nil {
			return fmt.Errorf("close wager: %w", err)
		}

		shares, err = s.engine.Settle(tx, closed)
		if err != nil {
			return fmt.Errorf("settle wager: %w", err)
		}

		tx.Emit(store.Event{
			Type: store.EventWagerClosed, WorkplaceID: m.workplaceID, WagerID: closed.ID, UserID: userID,
			Data: map[string]any{"winner_option_id": winner.ID, "winner": winner.Label},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if log := logger.FromContext(ctx, s.logger); log != nil {
		log.Info("Wager closed", "wager_id", wagerID, "winner_option_id", winnerOptionID, "by", userID, "payouts", len(shares))
	}
	return shares, nil
}

// CancelWager cancels an open wager and refunds every enhancement staked on it.
func (s *WagerService) CancelWager(ctx context.Context, userID, wagerID string) error {
	refunded := 0
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		m, err := authorize(tx, wagerID, userID)
		if err != nil {
			return err
		}
		if !m.wager.IsOpen() {
			return domainerrors.Validation("Only open wagers can be cancelled.")
		}

		cancelled, err := store.Wagers.In(tx).Patch(m.wager.ID, func(w *domain.Wager) error {
			w.Status = domain.WagerStatusCancelled
			w.WinnerOptionID = nil
			w.UpdatedAt = s.now()
			return nil
		})
		if err != nil {
			return fmt.Errorf("cancel wager: %w", err)
		}

		refunded, err = s.engine.Refund(tx, cancelled)
		if err != nil {
			return fmt.Errorf("refund wager: %w", err)
		}

		tx.Emit(store.Event{Type: store.EventWagerCancelled, WorkplaceID: m.workplaceID, WagerID: cancelled.ID, UserID: userID})
		return nil
	})
	if err != nil {
		return err
	}

	if log := logger.FromContext(ctx, s.logger); log != nil {
		log.Info("Wager cancelled", "wager_id", wagerID, "by", userID, "refunded", refunded)
	}
	return nil
}

// DeleteWager removes a wager with its options, tags and votes, whatever its
// status. Ledger entries that mention it are kept.
func (s *WagerService) DeleteWager(ctx context.Context, userID, wagerID string) error {
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		m, err := authorize(tx, wagerID, userID)
		if err != nil {
			return err
		}

		if err := deleteChildren[domain.Option](store.Options.In(tx), m.wager.ID, func(o *domain.Option) string { return o.ID }); err != nil {
			return fmt.Errorf("delete options: %w", err)
		}
		if err := deleteChildren[domain.WagerTag](store.WagerTags.In(tx), m.wager.ID, func(t *domain.WagerTag) string { return t.ID }); err != nil {
			return fmt.Errorf("delete tags: %w", err)
		}
		if err := deleteChildren[domain.Vote](store.Votes.In(tx), m.wager.ID, func(v *domain.Vote) string { return v.ID }); err != nil {
			return fmt.Errorf("delete votes: %w", err)
		}
		if err := store.Wagers.In(tx).Delete(m.wager.ID); err != nil {
			return fmt.Errorf("delete wager: %w", err)
		}

		tx.Emit(store.Event{Type: store.EventWagerDeleted, WorkplaceID: m.workplaceID, WagerID: m.wager.ID, UserID: userID})
		return nil
	})
	if err != nil {
		return err
	}

	if log := logger.FromContext(ctx, s.logger); log != nil {
		log.Info("Wager deleted", "wager_id", wagerID, "by", userID)
	}
	return nil
}

func deleteChildren[T any](repo store.Repository[T], wagerID string, idOf func(*T) string) error {
	children, err := repo.Query(store.IndexWager, wagerID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := repo.Delete(idOf(child)); err != nil {
			return err
		}
	}
	return nil
}

// ListWagers returns the caller's workplace board, newest first. An unknown
// caller sees nothing. An empty callerID lists every wager.
func (s *WagerService) ListWagers(ctx context.Context, callerID string) ([]*WagerView, error) {
	var views []*WagerView
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var caller *domain.User
		if callerID != "" {
			u, err := store.Users.In(tx).Get(callerID)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			caller = u
		}

		wagers, err := visibleWagers(tx, caller)
		if err != nil {
			return err
		}
		views, err = s.buildViews(tx, wagers, caller)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list wagers: %w", err)
	}
	if views == nil {
		views = []*WagerView{}
	}
	return views, nil
}

// GetWager returns one wager as seen by the caller. Wagers outside the
// caller's workplace are reported as not found.
func (s *WagerService) GetWager(ctx context.Context, callerID, wagerID string) (*WagerView, error) {
	var view *WagerView
	err := s.store.View(ctx, func(tx *store.Tx) error {
		caller, err := loadUser(tx, callerID)
		if err != nil {
			return err
		}
		wager, err := loadWager(tx, wagerID)
		if err != nil {
			return err
		}
		workplaceID, err := wagerWorkplace(tx, wager)
		if err != nil {
			return err
		}
		if workplaceID != caller.WorkplaceID {
			return domainerrors.NotFound("Wager not found.")
		}
		views, err := s.buildViews(tx, []*domain.Wager{wager}, caller)
		if err != nil {
			return err
		}
		view = views[0]
		return nil
	})
	return view, err
}

// SearchWagers finds wagers in the caller's workplace whose title,
// description, options or tags match query.
func (s *WagerService) SearchWagers(ctx context.Context, callerID, query string) ([]*WagerView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domainerrors.ValidationWithDetails("q is required", map[string]string{"q": "is required"})
	}

	var caller *domain.User
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		caller, err = loadUser(tx, callerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	var ids []string
	if s.searcher != nil {
		ids, err = s.searcher.SearchWagers(ctx, caller.WorkplaceID, query, searchLimit)
		if err != nil {
			return nil, fmt.Errorf("search wagers: %w", err)
		}
	}

	var views []*WagerView
	err = s.store.View(ctx, func(tx *store.Tx) error {
		var wagers []*domain.Wager
		if s.searcher != nil {
			for _, wagerID := range ids {
				w, err := store.Wagers.In(tx).Get(wagerID)
				if errors.Is(err, store.ErrNotFound) {
					// The index can trail a delete by a moment.
					continue
				}
				if err != nil {
					return err
				}
				if wp, err := wagerWorkplace(tx, w); err != nil {
					return err
				} else if wp == caller.WorkplaceID {
					wagers = append(wagers, w)
				}
			}
		} else {
			all, err := visibleWagers(tx, caller)
			if err != nil {
				return err
			}
			for _, w := range all {
				ok, err := matchesQuery(tx, w, query)
				if err != nil {
					return err
				}
				if ok {
					wagers = append(wagers, w)
				}
			}
		}

		var err error
		views, err = s.buildViews(tx, wagers, caller)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search wagers: %w", err)
	}
	if views == nil {
		views = []*WagerView{}
	}
	return views, nil
}

// matchesQuery reports whether every query term appears somewhere in the
// wager's text, ignoring case.
func matchesQuery(tx *store.Tx, w *domain.Wager, query string) (bool, error) {
	options, err := store.Options.In(tx).Query(store.IndexWager, w.ID)
	if err != nil {
		return false, err
	}
	tags, err := store.WagerTags.In(tx).Query(store.IndexWager, w.ID)
	if err != nil {
		return false, err
	}

	var text strings.Builder
	text.WriteString(w.Title + " " + w.Description)
	for _, o := range options {
		text.WriteString(" " + o.Label)
	}
	for _, t := range tags {
		text.WriteString(" " + t.Tag)
	}
	haystack := strings.ToLower(text.String())

	for _, term := range strings.Fields(strings.ToLower(query)) {
		if !strings.Contains(haystack, term) {
			return false, nil
		}
	}
	return true, nil
}

// visibleWagers returns the wagers in caller's workplace, including legacy
// wagers that inherit it from their creator. A nil caller sees every wager.
func visibleWagers(tx *store.Tx, caller *domain.User) ([]*domain.Wager, error) {
	if caller == nil {
		return store.Wagers.In(tx).All()
	}

	wagers, err := store.Wagers.In(tx).Query(store.IndexWorkplace, caller.WorkplaceID)
	if err != nil {
		return nil, err
	}
	unassigned, err := store.Wagers.In(tx).Query(store.IndexWorkplace, store.UnassignedWorkplace)
	if err != nil {
		return nil, err
	}
	for _, w := range unassigned {
		wp, err := wagerWorkplace(tx, w)
		if err != nil {
			return nil, err
		}
		if wp == caller.WorkplaceID {
			wagers = append(wagers, w)
		}
	}
	return wagers, nil
}

// buildViews joins options, tags and votes onto wagers, newest first.
func (s *WagerService) buildViews(tx *store.Tx, wagers []*domain.Wager, caller *domain.User) ([]*WagerView, error) {
	slices.SortFunc(wagers, func(a, b *domain.Wager) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(b.ID, a.ID))
	})

	now := s.now()
	views := make([]*WagerView, 0, len(wagers))
	for _, w := range wagers {
		options, err := store.Options.In(tx).Query(store.IndexWager, w.ID)
		if err != nil {
			return nil, err
		}
		domain.SortOptions(options)
		tags, err := store.WagerTags.In(tx).Query(store.IndexWager, w.ID)
		if err != nil {
			return nil, err
		}
		votes, err := store.Votes.In(tx).QueryIDs(store.IndexWager, w.ID)
		if err != nil {
			return nil, err
		}
		workplaceID, err := wagerWorkplace(tx, w)
		if err != nil {
			return nil, err
		}

		view := &WagerView{
			ID:             w.ID,
			Title:          w.Title,
			Description:    w.Description,
			Status:         w.Status,
			TotalCred:      w.TotalCred,
			ClosesAt:       w.ClosesAt,
			CreatedBy:      w.CreatedBy,
			WorkplaceID:    workplaceID,
			Options:        make([]OptionView, 0, len(options)),
			Tags:           make([]string, 0, len(tags)),
			WinnerOptionID: w.WinnerOptionID,
			VoteCount:      len(votes),
			Expired:        w.IsExpired(now),
			CanManage:      domain.CanManage(w, caller, workplaceID),
			CreatedAt:      w.CreatedAt,
			UpdatedAt:      w.UpdatedAt,
		}
		for _, o := range options {
			view.Options = append(view.Options, OptionView{ID: o.ID, Label: o.Label, SortOrder: o.SortOrder, VotePercent: o.VotePercent})
			if w.WinnerOptionID != nil && *w.WinnerOptionID == o.ID {
				label := o.Label
				view.Winner = &label
			}
		}
		for _, t := range tags {
			view.Tags = append(view.Tags, t.Tag)
		}
		// "Open" leads, the rest keep label order.
		slices.SortStableFunc(view.Tags, func(a, b string) int {
			switch {
			case a == domain.TagOpen && b != domain.TagOpen:
				return -1
			case b == domain.TagOpen && a != domain.TagOpen:
				return 1
			}
			return strings.Compare(a, b)
		})
		views = append(views, view)
	}
	return views, nil
}
