package ledger

import (
	"errors"
	"fmt"

	"github.com/workbets/workbets-server/internal/domain"
	domainerrors "github.com/workbets/workbets-server/internal/errors"
	"github.com/workbets/workbets-server/internal/id"
	"github.com/workbets/workbets-server/internal/store"
)

// Ballot is a request to vote.
type Ballot struct {
	WagerID      string
	UserID       string
	OptionID     string
	EnhancedCred int
}

// CastVote records a ballot, charges any enhancement to the voter's ledger
// and recomputes the wager's percentages.
func (e *Engine) CastVote(tx *store.Tx, b Ballot) (*domain.Wager, *domain.Vote, error) {
	wager, err := store.Wagers.In(tx).Get(b.WagerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, domainerrors.NotFound("Wager not found.")
	}
	if err != nil {
		return nil, nil, err
	}

	voter, err := store.Users.In(tx).Get(b.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, domainerrors.NotFound("User not found.")
	}
	if err != nil {
		return nil, nil, err
	}

	if !wager.IsOpen() {
		return nil, nil, domainerrors.Validation("Only open wagers accept votes.")
	}

	option, err := store.Options.In(tx).Get(b.OptionID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && option.WagerID != wager.ID) {
		return nil, nil, domainerrors.NotFound("Option not found on this wager.")
	}
	if err != nil {
		return nil, nil, err
	}

	if err := e.checkSameWorkplace(tx, wager, voter); err != nil {
		return nil, nil, err
	}

	existing, err := store.Votes.In(tx).QueryIDs(store.IndexWagerUser, domain.VoteKey(wager.ID, voter.ID))
	if err != nil {
		return nil, nil, err
	}
	if len(existing) > 0 {
		return nil, nil, domainerrors.Validation("You have already voted on this wager.")
	}

	if b.EnhancedCred < 0 {
		return nil, nil, domainerrors.Validation("Enhanced cred cannot be negative.")
	}
	if limit := wager.MaxEnhancement(); b.EnhancedCred > limit {
		return nil, nil, domainerrors.Validationf("Enhanced cred cannot exceed %d for this wager.", limit)
	}

	voteID, err := id.Generate(id.PrefixVote)
	if err != nil {
		return nil, nil, err
	}
	vote := &domain.Vote{
		ID:           voteID,
		WagerID:      wager.ID,
		OptionID:     option.ID,
		UserID:       voter.ID,
		EnhancedCred: b.EnhancedCred,
		CreatedAt:    e.now(),
	}
	if err := store.Votes.In(tx).Insert(vote); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, nil, domainerrors.Validation("You have already voted on this wager.")
		}
		return nil, nil, fmt.Errorf("insert vote: %w", err)
	}

	if b.EnhancedCred > 0 {
		if _, err := e.Append(tx, Entry{
			UserID:  voter.ID,
			Label:   domain.EnhancementLabel(wager.Title),
			Amount:  -b.EnhancedCred,
			Kind:    domain.TransactionEnhancement,
			WagerID: &wager.ID,
		}); err != nil {
			return nil, nil, err
		}
	}

	if err := e.RecomputePercents(tx, wager.ID); err != nil {
		return nil, nil, err
	}

	if e.logger != nil {
		e.logger.Debug("Vote cast", "wager_id", wager.ID, "user_id", voter.ID, "enhanced_cred", b.EnhancedCred)
	}
	return wager, vote, nil
}

// checkSameWorkplace refuses votes from outside the wager's workplace.
func (e *Engine) checkSameWorkplace(tx *store.Tx, wager *domain.Wager, voter *domain.User) error {
	var creator *domain.User
	if wager.WorkplaceID == nil && wager.CreatedBy != nil {
		c, err := store.Users.In(tx).Get(*wager.CreatedBy)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		creator = c
	}
	if wp := domain.WagerWorkplace(wager, creator); wp != "" && wp != voter.WorkplaceID {
		return domainerrors.Forbidden("You can only vote on wagers in your workplace.")
	}
	return nil
}

// RecomputePercents rewrites every option's VotePercent from the current votes.
func (e *Engine) RecomputePercents(tx *store.Tx, wagerID string) error {
	options, err := store.Options.In(tx).Query(store.IndexWager, wagerID)
	if err != nil {
		return err
	}
	votes, err := store.Votes.In(tx).Query(store.IndexWager, wagerID)
	if err != nil {
		return err
	}

	percents := domain.VotePercents(options, votes)
	for _, o := range options {
		if o.VotePercent == percents[o.ID] {
			continue
		}
		if _, err := store.Options.In(tx).Patch(o.ID, func(opt *domain.Option) error {
			opt.VotePercent = percents[o.ID]
			return nil
		}); err != nil {
			return fmt.Errorf("update option %s: %w", o.ID, err)
		}
	}
	return nil
}
