package ledger

import (
	"fmt"

	"github.com/workbets/workbets-server/internal/domain"
	"github.com/workbets/workbets-server/internal/store"
)

// Finding kinds reported by Audit.
const (
	FindingPercents  = "percents"
	FindingWinner    = "winner"
	FindingBalance   = "balance"
	FindingDuplicate = "duplicate_vote"
)

// Finding is one broken invariant.
type Finding struct {
	Kind    string
	Subject string // Wager or user ID
	Detail  string
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Kind, f.Subject, f.Detail)
}

// Audit checks every wager and user in the store against the ledger
// invariants and returns what it found broken. An empty result means the
// store is consistent.
func (e *Engine) Audit(tx *store.Tx) ([]Finding, error) {
	var findings []Finding

	wagers, err := store.Wagers.In(tx).All()
	if err != nil {
		return nil, err
	}
	for _, w := range wagers {
		found, err := auditWager(tx, w)
		if err != nil {
			return nil, fmt.Errorf("audit wager %s: %w", w.ID, err)
		}
		findings = append(findings, found...)
	}

	users, err := store.Users.In(tx).All()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		balance, err := e.Balance(tx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("audit user %s: %w", u.ID, err)
		}
		if balance != u.WorkCred {
			findings = append(findings, Finding{
				Kind: FindingBalance, Subject: u.ID,
				Detail: fmt.Sprintf("work cred %d but ledger sums to %d", u.WorkCred, balance),
			})
		}
		if u.WorkCred < 0 {
			findings = append(findings, Finding{
				Kind: FindingBalance, Subject: u.ID,
				Detail: fmt.Sprintf("negative work cred %d", u.WorkCred),
			})
		}
	}

	return findings, nil
}

func auditWager(tx *store.Tx, w *domain.Wager) ([]Finding, error) {
	var findings []Finding

	options, err := store.Options.In(tx).Query(store.IndexWager, w.ID)
	if err != nil {
		return nil, err
	}
	votes, err := store.Votes.In(tx).Query(store.IndexWager, w.ID)
	if err != nil {
		return nil, err
	}

	want := domain.VotePercents(options, votes)
	sum := 0
	for _, o := range options {
		sum += o.VotePercent
		if o.VotePercent != want[o.ID] {
			findings = append(findings, Finding{
				Kind: FindingPercents, Subject: w.ID,
				Detail: fmt.Sprintf("option %s stores %d%%, votes give %d%%", o.ID, o.VotePercent, want[o.ID]),
			})
		}
	}
	if len(votes) > 0 && sum != 100 {
		findings = append(findings, Finding{
			Kind: FindingPercents, Subject: w.ID,
			Detail: fmt.Sprintf("percents sum to %d", sum),
		})
	}

	switch {
	case w.Status == domain.WagerStatusClosed && w.WinnerOptionID == nil:
		findings = append(findings, Finding{Kind: FindingWinner, Subject: w.ID, Detail: "closed without a winner"})
	case w.Status != domain.WagerStatusClosed && w.WinnerOptionID != nil:
		findings = append(findings, Finding{
			Kind: FindingWinner, Subject: w.ID,
			Detail: fmt.Sprintf("%s wager has winner %s", w.Status, *w.WinnerOptionID),
		})
	case w.WinnerOptionID != nil && !ownsOption(options, *w.WinnerOptionID):
		findings = append(findings, Finding{
			Kind: FindingWinner, Subject: w.ID,
			Detail: fmt.Sprintf("winner %s is not one of its options", *w.WinnerOptionID),
		})
	}

	seen := make(map[string]bool, len(votes))
	for _, v := range votes {
		if seen[v.UserID] {
			findings = append(findings, Finding{
				Kind: FindingDuplicate, Subject: w.ID,
				Detail: fmt.Sprintf("user %s voted more than once", v.UserID),
			})
		}
		seen[v.UserID] = true
	}

	return findings, nil
}

func ownsOption(options []*domain.Option, id string) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}
