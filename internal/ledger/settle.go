package ledger

import (
	"slices"
	"strings"

	"github.com/workbets/workbets-server/internal/domain"
	"github.com/workbets/workbets-server/internal/store"
)

// Settle pays the wager's pool to the voters of its winning option, split
// evenly. It returns the shares paid; a wager without winning voters pays nothing.
func (e *Engine) Settle(tx *store.Tx, wager *domain.Wager) ([]domain.Share, error) {
	if wager.WinnerOptionID == nil {
		return nil, nil
	}

	votes, err := store.Votes.In(tx).Query(store.IndexWager, wager.ID)
	if err != nil {
		return nil, err
	}
	var winners []*domain.Vote
	for _, v := range votes {
		if v.OptionID == *wager.WinnerOptionID {
			winners = append(winners, v)
		}
	}

	shares := domain.SplitPool(wager.TotalCred, winners)
	for _, share := range shares {
		if _, err := e.Append(tx, Entry{
			UserID:  share.UserID,
			Label:   domain.PayoutLabel(wager.Title),
			Amount:  share.Amount,
			Kind:    domain.TransactionPayout,
			WagerID: &wager.ID,
		}); err != nil {
			return nil, err
		}
	}

	if e.logger != nil {
		e.logger.Info("Wager settled", "wager_id", wager.ID, "winners", len(winners), "pool", wager.TotalCred)
	}
	return shares, nil
}

// Refund returns every enhancement staked on the wager to its voter.
func (e *Engine) Refund(tx *store.Tx, wager *domain.Wager) (int, error) {
	votes, err := store.Votes.In(tx).Query(store.IndexWager, wager.ID)
	if err != nil {
		return 0, err
	}

	refunded := 0
	for _, v := range votes {
		if v.EnhancedCred <= 0 {
			continue
		}
		if _, err := e.Append(tx, Entry{
			UserID:  v.UserID,
			Label:   domain.RefundLabel(wager.Title),
			Amount:  v.EnhancedCred,
			Kind:    domain.TransactionRefund,
			WagerID: &wager.ID,
		}); err != nil {
			return refunded, err
		}
		refunded += v.EnhancedCred
	}
	return refunded, nil
}

func sortNewestFirst(entries []*domain.PointsTransaction) {
	slices.SortStableFunc(entries, func(a, b *domain.PointsTransaction) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
}
