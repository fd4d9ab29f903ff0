// Package service holds the Workbets use cases. Each exported method runs as
// one store transaction, so a failed command leaves no partial state.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/workbets/workbets-server/internal/domain"
	domainerrors "github.com/workbets/workbets-server/internal/errors"
	"github.com/workbets/workbets-server/internal/store"
	"github.com/workbets/workbets-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

// clock is the time source for services; tests replace it.
type clock func() time.Time

// loadUser fetches a user, mapping a miss to a not found error.
func loadUser(tx *store.Tx, userID string) (*domain.User, error) {
	user, err := store.Users.In(tx).Get(userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("User not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// loadWager fetches a wager, mapping a miss to a not found error.
func loadWager(tx *store.Tx, wagerID string) (*domain.Wager, error) {
	wager, err := store.Wagers.In(tx).Get(wagerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("Wager not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get wager: %w", err)
	}
	return wager, nil
}

// wagerWorkplace resolves the workplace of wager, falling back to its creator's.
func wagerWorkplace(tx *store.Tx, wager *domain.Wager) (string, error) {
	if wager.WorkplaceID != nil && *wager.WorkplaceID != "" {
		return *wager.WorkplaceID, nil
	}
	if wager.CreatedBy == nil {
		return "", nil
	}
	creator, err := store.Users.In(tx).Get(*wager.CreatedBy)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get wager creator: %w", err)
	}
	return domain.WagerWorkplace(wager, creator), nil
}
