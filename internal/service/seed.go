package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/workbets/workbets-server/internal/auth"
	"github.com/workbets/workbets-server/internal/domain"
	"github.com/workbets/workbets-server/internal/id"
	"github.com/workbets/workbets-server/internal/ledger"
	"github.com/workbets/workbets-server/internal/store"
	"github.com/workbets/workbets-server/internal/util"
)

// Seed marker names.
const (
	SeedMarkerTagCatalog = "tag-catalog"
	SeedMarkerDemo       = "demo"
)

// DemoPassword is the password of every demo account.
const DemoPassword = "workbets123"

type demoUser struct {
	name, email string
	role        domain.Role
	workplace   string
	balance     int
}

type demoVote struct {
	email, option string
	enhanced      int
}

type demoWager struct {
	title, description string
	creator            string
	totalCred          int
	tags               []string
	options            []string
	votes              []demoVote
	winner             string // Closes the wager when set
}

var demoWorkplaces = []string{"Product Studio", "Design Guild"}

var demoUsers = []demoUser{
	{"Admin Test", "admin@workbets.io", domain.RoleAdmin, "Product Studio", 210},
	{"Avery Knight", "avery@workbets.io", domain.RoleAdmin, "Product Studio", 156},
	{"Jordan Ellis", "jordan@workbets.io", domain.RoleCreator, "Product Studio", 98},
	{"Marin Patel", "marin@workbets.io", domain.RoleGuest, "Design Guild", 77},
	{"Riley Chen", "riley@workbets.io", domain.RoleUser, "Product Studio", 124},
}

var demoWagers = []demoWager{
	{
		title:       "Will the marketing site ship by Friday?",
		description: "Front-end polish and copy edits pending. Bets close Thursday 5pm.",
		creator:     "jordan@workbets.io",
		totalCred:   48,
		tags:        []string{"Trending", "Low risk"},
		options:     []string{"Yes, ship it", "No, still polishing", "Depends on review"},
		votes: []demoVote{
			{"riley@workbets.io", "Yes, ship it", 8},
			{"avery@workbets.io", "Yes, ship it", 17},
			{"jordan@workbets.io", "No, still polishing", 15},
			{"admin@workbets.io", "Depends on review", 8},
		},
	},
	{
		title:       "Will support backlog clear this sprint?",
		description: "Current queue is 23 tickets. Betting closes Wednesday.",
		creator:     "avery@workbets.io",
		totalCred:   62,
		tags:        []string{"Popular pick"},
		options:     []string{"Clear by Friday", "Still >10 tickets", "Need a tiger team"},
		votes: []demoVote{
			{"riley@workbets.io", "Still >10 tickets", 4},
			{"avery@workbets.io", "Clear by Friday", 25},
			{"jordan@workbets.io", "Still >10 tickets", 23},
			{"admin@workbets.io", "Need a tiger team", 10},
		},
	},
	{
		title:       "Which snack wins demo day?",
		description: "Cast your vote for the snack that fuels the next big idea.",
		creator:     "avery@workbets.io",
		totalCred:   31,
		tags:        []string{"Completed"},
		options:     []string{"Mocha bar", "Sea salt popcorn", "Berry bites"},
		votes: []demoVote{
			{"avery@workbets.io", "Mocha bar", 9},
			{"jordan@workbets.io", "Sea salt popcorn", 15},
			{"riley@workbets.io", "Berry bites", 5},
		},
		winner: "Sea salt popcorn",
	},
	{
		title:       "Will the rebrand moodboard land this week?",
		description: "Three directions in review with the guild.",
		creator:     "marin@workbets.io",
		totalCred:   20,
		tags:        []string{"Low risk"},
		options:     []string{"Yes", "No"},
		votes: []demoVote{
			{"marin@workbets.io", "Yes", 6},
		},
	},
}

// SeedService installs bootstrap data once, tracked by persisted markers.
type SeedService struct {
	store  store.Transactor
	hasher auth.PasswordHasher
	engine *ledger.Engine
	wagers *WagerService
	votes  *VoteService
	logger *slog.Logger
	now    clock
}

// NewSeedService creates a seed service.
func NewSeedService(
	store store.Transactor,
	hasher auth.PasswordHasher,
	engine *ledger.Engine,
	wagers *WagerService,
	votes *VoteService,
	logger *slog.Logger,
) *SeedService {
	return &SeedService{
		store:  store,
		hasher: hasher,
		engine: engine,
		wagers: wagers,
		votes:  votes,
		logger: logger,
		now:    time.Now,
	}
}

// EnsureTagCatalog installs the default tag catalog unless it was installed
// before. Labels already present by slug are left alone. It reports whether
// anything ran.
func (s *SeedService) EnsureTagCatalog(ctx context.Context) (bool, error) {
	seeded := false
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		done, err := store.SeedMarkers.In(tx).Exists(SeedMarkerTagCatalog)
		if err != nil || done {
			return err
		}

		for _, entry := range domain.DefaultTagCatalog {
			slug := util.Slugify(entry.Label)
			taken, err := store.TagOptions.In(tx).QueryIDs(store.IndexSlug, slug)
			if err != nil {
				return err
			}
			if len(taken) > 0 {
				continue
			}
			if _, err := insertTagOption(tx, entry.Label, slug, entry.Selectable); err != nil {
				return err
			}
		}

		seeded = true
		return s.mark(tx, SeedMarkerTagCatalog)
	})
	if err != nil {
		return false, fmt.Errorf("seed tag catalog: %w", err)
	}
	if seeded && s.logger != nil {
		s.logger.Info("Tag catalog seeded", "entries", len(domain.DefaultTagCatalog))
	}
	return seeded, nil
}

// EnsureDemoData installs the demo workplaces, accounts and wagers unless the
// demo marker exists. Votes and settlement run through the regular services,
// so demo balances obey the same ledger rules as real ones.
func (s *SeedService) EnsureDemoData(ctx context.Context) (bool, error) {
	var done bool
	if err := s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		done, err = store.SeedMarkers.In(tx).Exists(SeedMarkerDemo)
		return err
	}); err != nil {
		return false, fmt.Errorf("check demo marker: %w", err)
	}
	if done {
		return false, nil
	}

	passwordHash, err := s.hasher.Hash(DemoPassword)
	if err != nil {
		return false, fmt.Errorf("hash demo password: %w", err)
	}

	userIDs := make(map[string]string, len(demoUsers))
	if err := s.store.Update(ctx, func(tx *store.Tx) error {
		return s.seedAccounts(tx, passwordHash, userIDs)
	}); err != nil {
		return false, fmt.Errorf("seed demo accounts: %w", err)
	}

	for _, dw := range demoWagers {
		if err := s.seedWager(ctx, dw, userIDs); err != nil {
			return false, fmt.Errorf("seed wager %q: %w", dw.title, err)
		}
	}

	if err := s.store.Update(ctx, func(tx *store.Tx) error {
		return s.mark(tx, SeedMarkerDemo)
	}); err != nil {
		return false, fmt.Errorf("mark demo seeded: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Demo data seeded", "users", len(demoUsers), "wagers", len(demoWagers))
	}
	return true, nil
}

// seedAccounts creates the demo workplaces and users that do not exist yet
// and records every demo user's ID by email.
func (s *SeedService) seedAccounts(tx *store.Tx, passwordHash string, userIDs map[string]string) error {
	now := s.now()

	workplaceIDs := make(map[string]string, len(demoWorkplaces))
	existing, err := store.Workplaces.In(tx).All()
	if err != nil {
		return err
	}
	for _, wp := range existing {
		workplaceIDs[wp.Name] = wp.ID
	}
	for _, name := range demoWorkplaces {
		if _, ok := workplaceIDs[name]; ok {
			continue
		}
		if workplaceIDs[name], err = createWorkplace(tx, name, now); err != nil {
			return err
		}
	}

	for _, du := range demoUsers {
		if u, err := store.Users.In(tx).First(store.IndexEmail, du.email); err == nil {
			userIDs[du.email] = u.ID
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		userID, err := id.Generate(id.PrefixUser)
		if err != nil {
			return err
		}
		if err := store.Users.In(tx).Insert(&domain.User{
			ID:          userID,
			Name:        du.name,
			Email:       du.email,
			Role:        du.role,
			WorkplaceID: workplaceIDs[du.workplace],
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("create user %s: %w", du.email, err)
		}
		credentialID, err := id.Generate(id.PrefixCredential)
		if err != nil {
			return err
		}
		if err := store.Credentials.In(tx).Insert(&domain.Credential{
			ID:           credentialID,
			Username:     du.email,
			PasswordHash: passwordHash,
			UserID:       userID,
			CreatedAt:    now,
		}); err != nil {
			return fmt.Errorf("create credential %s: %w", du.email, err)
		}
		if _, err := s.engine.Append(tx, ledger.Entry{
			UserID: userID,
			Label:  domain.OpeningBalanceLabel,
			Amount: du.balance,
			Kind:   domain.TransactionOpening,
		}); err != nil {
			return err
		}
		userIDs[du.email] = userID
	}
	return nil
}

func (s *SeedService) seedWager(ctx context.Context, dw demoWager, userIDs map[string]string) error {
	creatorID := userIDs[dw.creator]
	wager, err := s.wagers.CreateWager(ctx, creatorID, CreateWagerRequest{
		Title:       dw.title,
		Description: dw.description,
		TotalCred:   dw.totalCred,
		Options:     dw.options,
		Tags:        dw.tags,
	})
	if err != nil {
		return err
	}

	optionIDs := make(map[string]string, len(dw.options))
	if err := s.store.View(ctx, func(tx *store.Tx) error {
		options, err := store.Options.In(tx).Query(store.IndexWager, wager.ID)
		for _, o := range options {
			optionIDs[o.Label] = o.ID
		}
		return err
	}); err != nil {
		return err
	}

	for _, v := range dw.votes {
		if _, err := s.votes.CastVote(ctx, userIDs[v.email], wager.ID, CastVoteRequest{
			OptionID:     optionIDs[v.option],
			EnhancedCred: v.enhanced,
		}); err != nil {
			return fmt.Errorf("vote by %s: %w", v.email, err)
		}
	}

	if dw.winner != "" {
		if _, err := s.wagers.CloseWager(ctx, creatorID, wager.ID, optionIDs[dw.winner]); err != nil {
			return fmt.Errorf("close: %w", err)
		}
	}
	return nil
}

func (s *SeedService) mark(tx *store.Tx, name string) error {
	return store.SeedMarkers.In(tx).Insert(&domain.SeedMarker{Name: name, SeededAt: s.now()})
}
