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
	"github.com/workbets/workbets-server/internal/ledger"
	"github.com/workbets/workbets-server/internal/store"
)

// unknownWorkplace is shown when a user's workplace record is missing.
const unknownWorkplace = "Unknown"

// ProfileService projects a user's votes and ledger into a profile page.
type ProfileService struct {
	store  store.Transactor
	engine *ledger.Engine
	logger *slog.Logger
}

// NewProfileService creates a profile service.
func NewProfileService(store store.Transactor, engine *ledger.Engine, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: store, engine: engine, logger: logger}
}

// VoteHistoryItem is one past vote.
type VoteHistoryItem struct {
	ID        string    `json:"id"`
	WagerID   string    `json:"wager_id"`
	Title     string    `json:"title"`
	Choice    string    `json:"choice"`
	Enhanced  int       `json:"enhanced"`
	CreatedAt time.Time `json:"created_at"`
}

// PointsHistoryItem is one ledger entry.
type PointsHistoryItem struct {
	ID        string                 `json:"id"`
	Label     string                 `json:"label"`
	Amount    int                    `json:"amount"`
	Kind      domain.TransactionKind `json:"kind"`
	WagerID   *string                `json:"wager_id,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// ProfileView is a user's profile page.
type ProfileView struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Role          domain.Role         `json:"role"`
	WorkCred      int                 `json:"work_cred"`
	Workplace     string              `json:"workplace"`
	VotingHistory []VoteHistoryItem   `json:"voting_history"`
	PointsHistory []PointsHistoryItem `json:"points_history"`
}

// GetProfile returns userID's profile, or nil when the user does not exist.
//
// Voting history covers only wagers in the user's current workplace and skips
// votes whose wager or option is gone. Points history is the full ledger,
// newest first.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*ProfileView, error) {
	var view *ProfileView
	err := s.store.View(ctx, func(tx *store.Tx) error {
		user, err := store.Users.In(tx).Get(userID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		view = &ProfileView{
			ID:            user.ID,
			Name:          user.Name,
			Role:          user.Role,
			WorkCred:      user.WorkCred,
			Workplace:     unknownWorkplace,
			VotingHistory: []VoteHistoryItem{},
			PointsHistory: []PointsHistoryItem{},
		}
		if wp, err := store.Workplaces.In(tx).Get(user.WorkplaceID); err == nil {
			view.Workplace = wp.Name
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if view.VotingHistory, err = votingHistory(tx, user); err != nil {
			return err
		}

		entries, err := s.engine.History(tx, user.ID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			view.PointsHistory = append(view.PointsHistory, PointsHistoryItem{
				ID:        e.ID,
				Label:     e.Label,
				Amount:    e.Amount,
				Kind:      e.Kind,
				WagerID:   e.WagerID,
				CreatedAt: e.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return view, nil
}

func votingHistory(tx *store.Tx, user *domain.User) ([]VoteHistoryItem, error) {
	votes, err := store.Votes.In(tx).Query(store.IndexUser, user.ID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(votes, func(a, b *domain.Vote) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(b.ID, a.ID))
	})

	items := []VoteHistoryItem{}
	for _, v := range votes {
		wager, err := store.Wagers.In(tx).Get(v.WagerID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		workplaceID, err := wagerWorkplace(tx, wager)
		if err != nil {
			return nil, err
		}
		if workplaceID != user.WorkplaceID {
			continue
		}
		option, err := store.Options.In(tx).Get(v.OptionID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		items = append(items, VoteHistoryItem{
			ID:        v.ID,
			WagerID:   wager.ID,
			Title:     wager.Title,
			Choice:    option.Label,
			Enhanced:  v.EnhancedCred,
			CreatedAt: v.CreatedAt,
		})
	}
	return items, nil
}
