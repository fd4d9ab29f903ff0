package domain

import "time"

// TransactionKind classifies a ledger entry.
type TransactionKind string

// Ledger entry kinds.
const (
	TransactionOpening     TransactionKind = "opening"
	TransactionEnhancement TransactionKind = "enhancement"
	TransactionPayout      TransactionKind = "payout"
	TransactionRefund      TransactionKind = "refund"
	TransactionAdjustment  TransactionKind = "adjustment"
)

// PointsTransaction is an append-only ledger entry. A user's WorkCred always
// equals the sum of Amount over their entries.
type PointsTransaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Label     string          `json:"label"`
	Amount    int             `json:"amount"`
	Kind      TransactionKind `json:"kind"`
	WagerID   *string         `json:"wager_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// EnhancementLabel is the ledger label for cred staked on a vote.
func EnhancementLabel(title string) string { return "Enhanced wager on " + title }

// PayoutLabel is the ledger label for a share of a settled pool.
func PayoutLabel(title string) string { return "Won: " + title }

// RefundLabel is the ledger label for stakes returned by a cancellation.
func RefundLabel(title string) string { return "Refund: " + title }

// OpeningBalanceLabel is the ledger label for a starting grant.
const OpeningBalanceLabel = "Opening balance"

// SeedMarker records that a named bootstrap step already ran.
type SeedMarker struct {
	Name     string    `json:"name"`
	SeededAt time.Time `json:"seeded_at"`
}
