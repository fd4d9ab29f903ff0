package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workbets/workbets-server/internal/domain"
	domainerrors "github.com/workbets/workbets-server/internal/errors"
	"github.com/workbets/workbets-server/internal/ledger"
	"github.com/workbets/workbets-server/internal/store"
)

type fixture struct {
	store  *store.Store
	engine *ledger.Engine
	clock  time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()

	backend, err := store.OpenBadger("", nil)
	require.NoError(t, err)
	s := store.New(backend, nil)
	t.Cleanup(func() { _ = s.Close() })

	f := &fixture{store: s, engine: ledger.NewEngine(nil), clock: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	// Each call advances a second so ordering by time is deterministic.
	f.engine.SetClock(func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	})

	f.update(t, func(tx *store.Tx) error {
		for _, wp := range []string{"wp-1", "wp-2"} {
			if err := store.Workplaces.In(tx).Insert(&domain.Workplace{ID: wp, Name: wp}); err != nil {
				return err
			}
		}
		for _, u := range []*domain.User{
			{ID: "usr-a", Email: "a@x.io", Role: domain.RoleUser, WorkplaceID: "wp-1"},
			{ID: "usr-b", Email: "b@x.io", Role: domain.RoleUser, WorkplaceID: "wp-1"},
			{ID: "usr-c", Email: "c@x.io", Role: domain.RoleUser, WorkplaceID: "wp-1"},
			{ID: "usr-far", Email: "far@x.io", Role: domain.RoleUser, WorkplaceID: "wp-2"},
		} {
			if err := store.Users.In(tx).Insert(u); err != nil {
				return err
			}
		}
		wp := "wp-1"
		creator := "usr-a"
		if err := store.Wagers.In(tx).Insert(&domain.Wager{
			ID: "wgr-1", Title: "Ship Friday?", Status: domain.WagerStatusOpen,
			TotalCred: 40, WorkplaceID: &wp, CreatedBy: &creator,
		}); err != nil {
			return err
		}
		for i, label := range []string{"Yes", "No"} {
			if err := store.Options.In(tx).Insert(&domain.Option{
				ID: "opt-" + label, WagerID: "wgr-1", Label: label, SortOrder: i,
			}); err != nil {
				return err
			}
		}
		return store.Options.In(tx).Insert(&domain.Option{ID: "opt-elsewhere", WagerID: "wgr-other", Label: "X"})
	})
	return f
}

func (f *fixture) update(t *testing.T, fn func(tx *store.Tx) error) {
	t.Helper()
	require.NoError(t, f.store.Update(context.Background(), fn))
}

func (f *fixture) grant(t *testing.T, userID string, amount int) {
	t.Helper()
	f.update(t, func(tx *store.Tx) error {
		_, err := f.engine.Append(tx, ledger.Entry{UserID: userID, Label: domain.OpeningBalanceLabel, Amount: amount, Kind: domain.TransactionOpening})
		return err
	})
}

func (f *fixture) vote(userID, optionID string, enhanced int) error {
	return f.store.Update(context.Background(), func(tx *store.Tx) error {
		_, _, err := f.engine.CastVote(tx, ledger.Ballot{WagerID: "wgr-1", UserID: userID, OptionID: optionID, EnhancedCred: enhanced})
		return err
	})
}

func (f *fixture) user(t *testing.T, userID string) *domain.User {
	t.Helper()
	var u *domain.User
	require.NoError(t, f.store.View(context.Background(), func(tx *store.Tx) error {
		var err error
		u, err = store.Users.In(tx).Get(userID)
		return err
	}))
	return u
}

func (f *fixture) percents(t *testing.T) map[string]int {
	t.Helper()
	out := map[string]int{}
	require.NoError(t, f.store.View(context.Background(), func(tx *store.Tx) error {
		opts, err := store.Options.In(tx).Query(store.IndexWager, "wgr-1")
		for _, o := range opts {
			out[o.Label] = o.VotePercent
		}
		return err
	}))
	return out
}

func (f *fixture) assertLedgerMatchesBalance(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, f.store.View(context.Background(), func(tx *store.Tx) error {
		sum, err := f.engine.Balance(tx, userID)
		require.NoError(t, err)
		u, err := store.Users.In(tx).Get(userID)
		require.NoError(t, err)
		assert.Equal(t, u.WorkCred, sum, "ledger and work cred diverged for %s", userID)
		return nil
	}))
}

func TestAppend_MovesBalance(t *testing.T) {
	f := setup(t)
	f.grant(t, "usr-a", 50)

	assert.Equal(t, 50, f.user(t, "usr-a").WorkCred)
	f.assertLedgerMatchesBalance(t, "usr-a")
}

func TestAppend_RejectsOverdraftAndZero(t *testing.T) {
	f := setup(t)
	f.grant(t, "usr-a", 5)

	err := f.store.Update(context.Background(), func(tx *store.Tx) error {
		_, err := f.engine.Append(tx, ledger.Entry{UserID: "usr-a", Label: "spend", Amount: -6, Kind: domain.TransactionAdjustment})
		return err
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	err = f.store.Update(context.Background(), func(tx *store.Tx) error {
		_, err := f.engine.Append(tx, ledger.Entry{UserID: "usr-a", Label: "nothing", Kind: domain.TransactionAdjustment})
		return err
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	err = f.store.Update(context.Background(), func(tx *store.Tx) error {
		_, err := f.engine.Append(tx, ledger.Entry{UserID: "usr-ghost", Label: "x", Amount: 1, Kind: domain.TransactionAdjustment})
		return err
	})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	assert.Equal(t, 5, f.user(t, "usr-a").WorkCred)
	f.assertLedgerMatchesBalance(t, "usr-a")
}

func TestCastVote_UpdatesPercents(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.vote("usr-a", "opt-Yes", 0))
	assert.Equal(t, map[string]int{"Yes": 100, "No": 0}, f.percents(t))

	require.NoError(t, f.vote("usr-b", "opt-No", 0))
	assert.Equal(t, map[string]int{"Yes": 50, "No": 50}, f.percents(t))

	require.NoError(t, f.vote("usr-c", "opt-No", 0))
	assert.Equal(t, map[string]int{"Yes": 33, "No": 67}, f.percents(t))
}

func TestCastVote_EnhancementChargesLedger(t *testing.T) {
	f := setup(t)
	f.grant(t, "usr-a", 30)

	require.NoError(t, f.vote("usr-a", "opt-Yes", 20))

	assert.Equal(t, 10, f.user(t, "usr-a").WorkCred)
	f.assertLedgerMatchesBalance(t, "usr-a")

	require.NoError(t, f.store.View(context.Background(), func(tx *store.Tx) error {
		history, err := f.engine.History(tx, "usr-a")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "Enhanced wager on Ship Friday?", history[0].Label)
		assert.Equal(t, -20, history[0].Amount)
		assert.Equal(t, domain.TransactionEnhancement, history[0].Kind)
		return nil
	}))
}

func TestCastVote_EnhancementCap(t *testing.T) {
	f := setup(t)
	f.grant(t, "usr-a", 100)
	f.grant(t, "usr-b", 100)

	// totalCred 40: the cap is exactly 20.
	err := f.vote("usr-a", "opt-Yes", 21)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	require.NoError(t, f.vote("usr-b", "opt-Yes", 20))

	err = f.vote("usr-a", "opt-Yes", -1)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestCastVote_InsufficientCredWritesNothing(t *testing.T) {
	f := setup(t)
	f.grant(t, "usr-a", 5)

	err := f.vote("usr-a", "opt-Yes", 10)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	assert.Equal(t, map[string]int{"Yes": 0, "No": 0}, f.percents(t))
	// The rejected vote left no trace, so a plain vote still works.
	require.NoError(t, f.vote("usr-a", "opt-Yes", 0))
}

func TestCastVote_Rejections(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.vote("usr-a", "opt-Yes", 0))

	tests := []struct {
		name   string
		ballot ledger.Ballot
		want   error
	}{
		{"second vote", ledger.Ballot{WagerID: "wgr-1", UserID: "usr-a", OptionID: "opt-No"}, domainerrors.ErrValidation},
		{"missing wager", ledger.Ballot{WagerID: "wgr-none", UserID: "usr-b", OptionID: "opt-Yes"}, domainerrors.ErrNotFound},
		{"missing user", ledger.Ballot{WagerID: "wgr-1", UserID: "usr-none", OptionID: "opt-Yes"}, domainerrors.ErrNotFound},
		{"missing option", ledger.Ballot{WagerID: "wgr-1", UserID: "usr-b", OptionID: "opt-none"}, domainerrors.ErrNotFound},
		{"option of another wager", ledger.Ballot{WagerID: "wgr-1", UserID: "usr-b", OptionID: "opt-elsewhere"}, domainerrors.ErrNotFound},
		{"other workplace", ledger.Ballot{WagerID: "wgr-1", UserID: "usr-far", OptionID: "opt-Yes"}, domainerrors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.store.Update(context.Background(), func(tx *store.Tx) error {
				_, _, err := f.engine.CastVote(tx, tt.ballot)
				return err
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCastVote_ClosedWager(t *testing.T) {
	f := setup(t)
	f.update(t, func(tx *store.Tx) error {
		_, err := store.Wagers.In(tx).Patch("wgr-1", func(w *domain.Wager) error {
			w.Status = domain.WagerStatusCancelled
			return nil
		})
		return err
	})

	assert.ErrorIs(t, f.vote("usr-a", "opt-Yes", 0), domainerrors.ErrValidation)
}

func TestSettle_EvenSplitToWinners(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.vote("usr-a", "opt-Yes", 0))
	require.NoError(t, f.vote("usr-b", "opt-No", 0))
	require.NoError(t, f.vote("usr-c", "opt-Yes", 0))

	var shares []domain.Share
	f.update(t, func(tx *store.Tx) error {
		w, err := store.Wagers.In(tx).Patch("wgr-1", func(w *domain.Wager) error {
			winner := "opt-Yes"
			w.Status = domain.WagerStatusClosed
			w.WinnerOptionID = &winner
			return nil
		})
		if err != nil {
			return err
		}
		shares, err = f.engine.Settle(tx, w)
		return err
	})

	assert.Equal(t, []domain.Share{{UserID: "usr-a", Amount: 20}, {UserID: "usr-c", Amount: 20}}, shares)
	assert.Equal(t, 20, f.user(t, "usr-a").WorkCred)
	assert.Equal(t, 0, f.user(t, "usr-b").WorkCred)
	assert.Equal(t, 20, f.user(t, "usr-c").WorkCred)
	for _, u := range []string{"usr-a", "usr-b", "usr-c"} {
		f.assertLedgerMatchesBalance(t, u)
	}
}

func TestSettle_NoWinnersPaysNothing(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.vote("usr-a", "opt-No", 0))

	f.update(t, func(tx *store.Tx) error {
		winner := "opt-Yes"
		shares, err := f.engine.Settle(tx, &domain.Wager{ID: "wgr-1", TotalCred: 40, WinnerOptionID: &winner})
		assert.Empty(t, shares)
		return err
	})
	assert.Equal(t, 0, f.user(t, "usr-a").WorkCred)
}

func TestRefund_ReturnsEnhancements(t *testing.T) {
	f := setup(t)
	f.grant(t, "usr-a", 30)
	require.NoError(t, f.vote("usr-a", "opt-Yes", 15))
	require.NoError(t, f.vote("usr-b", "opt-No", 0))

	f.update(t, func(tx *store.Tx) error {
		w, err := store.Wagers.In(tx).Get("wgr-1")
		if err != nil {
			return err
		}
		refunded, err := f.engine.Refund(tx, w)
		assert.Equal(t, 15, refunded)
		return err
	})

	assert.Equal(t, 30, f.user(t, "usr-a").WorkCred)
	f.assertLedgerMatchesBalance(t, "usr-a")
}
