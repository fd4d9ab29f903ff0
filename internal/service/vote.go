package service

import (
	"context"
	"log/slog"

	"github.com/workbets/workbets-server/internal/domain"
	"github.com/workbets/workbets-server/internal/ledger"
	"github.com/workbets/workbets-server/internal/logger"
	"github.com/workbets/workbets-server/internal/store"
)

// VoteService casts votes through the ledger engine.
type VoteService struct {
	store  store.Transactor
	engine *ledger.Engine
	logger *slog.Logger
}

// NewVoteService creates a vote service.
func NewVoteService(store store.Transactor, engine *ledger.Engine, logger *slog.Logger) *VoteService {
	return &VoteService{store: store, engine: engine, logger: logger}
}

// CastVoteRequest is one user's ballot on a wager.
type CastVoteRequest struct {
	OptionID     string `json:"option_id"`
	EnhancedCred int    `json:"enhanced_cred,omitempty"`
}

// CastVote records userID's vote on wagerID. The vote, its enhancement charge
// and the recomputed percentages commit together.
func (s *VoteService) CastVote(ctx context.Context, userID, wagerID string, req CastVoteRequest) (*domain.Vote, error) {
	var vote *domain.Vote
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		wager, v, err := s.engine.CastVote(tx, ledger.Ballot{
			WagerID:      wagerID,
			UserID:       userID,
			OptionID:     req.OptionID,
			EnhancedCred: req.EnhancedCred,
		})
		if err != nil {
			return err
		}
		vote = v

		workplaceID, err := wagerWorkplace(tx, wager)
		if err != nil {
			return err
		}
		tx.Emit(store.Event{
			Type: store.EventWagerVoted, WorkplaceID: workplaceID, WagerID: wager.ID, UserID: userID,
			Data: map[string]any{"option_id": v.OptionID, "enhanced_cred": v.EnhancedCred},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if log := logger.FromContext(ctx, s.logger); log != nil {
		log.Info("Vote cast", "wager_id", wagerID, "user_id", userID, "enhanced_cred", vote.EnhancedCred)
	}
	return vote, nil
}
