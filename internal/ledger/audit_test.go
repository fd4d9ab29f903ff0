package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workbets/workbets-server/internal/domain"
	"github.com/workbets/workbets-server/internal/ledger"
	"github.com/workbets/workbets-server/internal/store"
)

func (f *fixture) audit(t *testing.T) []ledger.Finding {
	t.Helper()
	var findings []ledger.Finding
	require.NoError(t, f.store.View(context.Background(), func(tx *store.Tx) error {
		var err error
		findings, err = f.engine.Audit(tx)
		return err
	}))
	return findings
}

func kinds(findings []ledger.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Kind)
	}
	return out
}

func TestAudit_ConsistentStore(t *testing.T) {
	f := setup(t)
	f.grant(t, "usr-a", 30)
	f.grant(t, "usr-b", 30)
	require.NoError(t, f.vote("usr-a", "opt-Yes", 10))
	require.NoError(t, f.vote("usr-b", "opt-No", 0))

	assert.Empty(t, f.audit(t))
}

func TestAudit_ReportsBrokenInvariants(t *testing.T) {
	f := setup(t)
	f.grant(t, "usr-a", 30)
	require.NoError(t, f.vote("usr-a", "opt-Yes", 0))

	f.update(t, func(tx *store.Tx) error {
		// Balance edited behind the ledger's back.
		if _, err := store.Users.In(tx).Patch("usr-a", func(u *domain.User) error {
			u.WorkCred = 99
			return nil
		}); err != nil {
			return err
		}
		if _, err := store.Options.In(tx).Patch("opt-No", func(o *domain.Option) error {
			o.VotePercent = 20
			return nil
		}); err != nil {
			return err
		}
		winner := "opt-Yes"
		_, err := store.Wagers.In(tx).Patch("wgr-1", func(w *domain.Wager) error {
			w.WinnerOptionID = &winner
			return nil
		})
		return err
	})

	findings := f.audit(t)
	got := kinds(findings)
	assert.Contains(t, got, ledger.FindingBalance)
	assert.Contains(t, got, ledger.FindingPercents)
	assert.Contains(t, got, ledger.FindingWinner)
	assert.NotContains(t, got, ledger.FindingDuplicate)

	for _, finding := range findings {
		if finding.Kind == ledger.FindingBalance {
			assert.Equal(t, "[balance] usr-a: work cred 99 but ledger sums to 30", finding.String())
		}
	}
}
