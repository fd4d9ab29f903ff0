package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/workbets/workbets-server/internal/auth"
	"github.com/workbets/workbets-server/internal/domain"
	"github.com/workbets/workbets-server/internal/ledger"
	"github.com/workbets/workbets-server/internal/store"
)

// testEnv wires every service over an in-memory badger store.
type testEnv struct {
	store     *store.Store
	engine    *ledger.Engine
	auth      *AuthService
	directory *DirectoryService
	wagers    *WagerService
	votes     *VoteService
	profiles  *ProfileService
	seed      *SeedService
	clock     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend, err := store.OpenBadger("", nil)
	require.NoError(t, err)
	s := store.New(backend, nil)
	t.Cleanup(func() { _ = s.Close() })

	tokens, err := auth.NewTokenService(bytes.Repeat([]byte{3}, 32), time.Hour)
	require.NoError(t, err)
	hasher := auth.NewCredentialHasher(&auth.PBKDF2Hasher{Iterations: 1000})

	env := &testEnv{store: s, clock: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	// Every reading of the clock moves it a second forward.
	tick := func() time.Time {
		env.clock = env.clock.Add(time.Second)
		return env.clock
	}

	env.engine = ledger.NewEngine(nil)
	env.engine.SetClock(tick)
	env.auth = NewAuthService(s, hasher, tokens, "Workbets HQ", nil)
	env.auth.now = tick
	env.directory = NewDirectoryService(s, nil)
	env.wagers = NewWagerService(s, env.engine, nil, nil)
	env.wagers.now = tick
	env.votes = NewVoteService(s, env.engine, nil)
	env.profiles = NewProfileService(s, env.engine, nil)
	env.seed = NewSeedService(s, hasher, env.engine, env.wagers, env.votes, nil)
	env.seed.now = tick
	return env
}

func (e *testEnv) update(t *testing.T, fn func(tx *store.Tx) error) {
	t.Helper()
	require.NoError(t, e.store.Update(context.Background(), fn))
}

func (e *testEnv) addWorkplace(t *testing.T, id, name string) {
	t.Helper()
	e.update(t, func(tx *store.Tx) error {
		return store.Workplaces.In(tx).Insert(&domain.Workplace{ID: id, Name: name, CreatedAt: e.clock})
	})
}

// addUser inserts a user and grants balance through the ledger.
func (e *testEnv) addUser(t *testing.T, id string, role domain.Role, workplaceID string, balance int) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, Name: id, Email: id + "@workbets.io", Role: role, WorkplaceID: workplaceID}
	e.update(t, func(tx *store.Tx) error {
		if err := store.Users.In(tx).Insert(u); err != nil {
			return err
		}
		if balance == 0 {
			return nil
		}
		_, err := e.engine.Append(tx, ledger.Entry{
			UserID: id, Label: domain.OpeningBalanceLabel, Amount: balance, Kind: domain.TransactionOpening,
		})
		return err
	})
	return u
}

func (e *testEnv) user(t *testing.T, id string) *domain.User {
	t.Helper()
	var u *domain.User
	require.NoError(t, e.store.View(context.Background(), func(tx *store.Tx) error {
		var err error
		u, err = store.Users.In(tx).Get(id)
		return err
	}))
	return u
}

func (e *testEnv) wager(t *testing.T, id string) *domain.Wager {
	t.Helper()
	var w *domain.Wager
	require.NoError(t, e.store.View(context.Background(), func(tx *store.Tx) error {
		var err error
		w, err = store.Wagers.In(tx).Get(id)
		return err
	}))
	return w
}

// options returns the wager's option IDs keyed by label.
func (e *testEnv) options(t *testing.T, wagerID string) map[string]string {
	t.Helper()
	out := map[string]string{}
	require.NoError(t, e.store.View(context.Background(), func(tx *store.Tx) error {
		opts, err := store.Options.In(tx).Query(store.IndexWager, wagerID)
		for _, o := range opts {
			out[o.Label] = o.ID
		}
		return err
	}))
	return out
}

// seedCatalog installs the default tag catalog.
func (e *testEnv) seedCatalog(t *testing.T) {
	t.Helper()
	_, err := e.seed.EnsureTagCatalog(context.Background())
	require.NoError(t, err)
}

// createWager creates a two-option wager owned by creatorID.
func (e *testEnv) createWager(t *testing.T, creatorID, title string, totalCred int) *domain.Wager {
	t.Helper()
	w, err := e.wagers.CreateWager(context.Background(), creatorID, CreateWagerRequest{
		Title:     title,
		TotalCred: totalCred,
		Options:   []string{"Yes", "No"},
	})
	require.NoError(t, err)
	return w
}
