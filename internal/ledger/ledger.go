// Package ledger implements vote casting and work-cred accounting.
//
// Every function here runs inside a caller's store transaction and never
// commits on its own, so a vote, its enhancement charge and the recomputed
// percentages land together or not at all.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/workbets/workbets-server/internal/domain"
	domainerrors "github.com/workbets/workbets-server/internal/errors"
	"github.com/workbets/workbets-server/internal/id"
	"github.com/workbets/workbets-server/internal/store"
)

// Engine applies vote and ledger rules.
type Engine struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates an engine. logger may be nil.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger, now: time.Now}
}

// SetClock overrides the engine's time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Entry describes a ledger entry to append.
type Entry struct {
	UserID  string
	Label   string
	Amount  int
	Kind    domain.TransactionKind
	WagerID *string
}

// Append records entry and moves the user's WorkCred by the same amount.
// A debit that would take the balance below zero fails with a validation error.
func (e *Engine) Append(tx *store.Tx, entry Entry) (*domain.PointsTransaction, error) {
	if entry.Amount == 0 {
		return nil, domainerrors.Validation("ledger entry amount cannot be zero")
	}

	_, err := store.Users.In(tx).Patch(entry.UserID, func(u *domain.User) error {
		if u.WorkCred+entry.Amount < 0 {
			return domainerrors.Validationf("insufficient work cred: have %d, need %d", u.WorkCred, -entry.Amount)
		}
		u.WorkCred += entry.Amount
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("User not found.")
	}
	if err != nil {
		return nil, err
	}

	txnID, err := id.Generate(id.PrefixTransaction)
	if err != nil {
		return nil, err
	}
	record := &domain.PointsTransaction{
		ID:        txnID,
		UserID:    entry.UserID,
		Label:     entry.Label,
		Amount:    entry.Amount,
		Kind:      entry.Kind,
		WagerID:   entry.WagerID,
		CreatedAt: e.now(),
	}
	if err := store.Transactions.In(tx).Insert(record); err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}
	return record, nil
}

// History returns a user's ledger, newest first.
func (e *Engine) History(tx *store.Tx, userID string) ([]*domain.PointsTransaction, error) {
	entries, err := store.Transactions.In(tx).Query(store.IndexUser, userID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(entries)
	return entries, nil
}

// Balance sums a user's ledger. It equals the user's WorkCred.
func (e *Engine) Balance(tx *store.Tx, userID string) (int, error) {
	entries, err := store.Transactions.In(tx).Query(store.IndexUser, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, entry := range entries {
		total += entry.Amount
	}
	return total, nil
}
