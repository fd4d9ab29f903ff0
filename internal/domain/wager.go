package domain

import (
	"slices"
	"strings"
	"time"
)

// WagerStatus is the lifecycle state of a wager.
type WagerStatus string

// Wager states. Closed and Cancelled are terminal.
const (
	WagerStatusOpen      WagerStatus = "Open"
	WagerStatusClosed    WagerStatus = "Closed"
	WagerStatusCancelled WagerStatus = "Cancelled"
)

// MinOptions is the fewest distinct options a wager may have.
const MinOptions = 2

// Wager is a proposition with a cred pool that workplace members vote on.
//
// Optional fields are pointers:
//   - WorkplaceID nil means the wager belongs to its creator's workplace.
//   - ClosesAt nil means no advertised deadline. The deadline is never enforced.
//   - CreatedBy nil marks a legacy wager without an owner; only admins of its
//     workplace manage it.
//   - WinnerOptionID is set only while Status is Closed and always names one of
//     the wager's own options.
type Wager struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Status         WagerStatus `json:"status"`
	TotalCred      int         `json:"total_cred"`
	ClosesAt       *time.Time  `json:"closes_at,omitempty"`
	CreatedBy      *string     `json:"created_by,omitempty"`
	WinnerOptionID *string     `json:"winner_option_id,omitempty"`
	WorkplaceID    *string     `json:"workplace_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// IsOpen reports whether the wager still accepts votes.
func (w *Wager) IsOpen() bool {
	return w.Status == WagerStatusOpen
}

// IsExpired reports whether an open wager is past its advertised deadline.
// Display only; expiry never changes Status.
func (w *Wager) IsExpired(now time.Time) bool {
	return w.IsOpen() && w.ClosesAt != nil && now.After(*w.ClosesAt)
}

// CreatedByUser reports whether userID created the wager.
func (w *Wager) CreatedByUser(userID string) bool {
	return w.CreatedBy != nil && *w.CreatedBy == userID
}

// MaxEnhancement is the most extra cred a single vote may stake.
func (w *Wager) MaxEnhancement() int {
	return w.TotalCred / 2
}

// Touch updates the UpdatedAt timestamp.
func (w *Wager) Touch() {
	w.UpdatedAt = time.Now()
}

// Option is one of a wager's mutually exclusive answers.
type Option struct {
	ID          string `json:"id"`
	WagerID     string `json:"wager_id"`
	Label       string `json:"label"`
	SortOrder   int    `json:"sort_order"`
	VotePercent int    `json:"vote_percent"` // Derived from votes, 0..100
}

// NormalizeOptionLabels trims labels, drops empties and removes exact duplicates.
// Comparison is case-sensitive: "Yes" and "yes" are different options.
func NormalizeOptionLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || slices.Contains(out, l) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// SortOptions orders options by SortOrder, then ID.
func SortOptions(options []*Option) {
	slices.SortFunc(options, func(a, b *Option) int {
		if a.SortOrder != b.SortOrder {
			return a.SortOrder - b.SortOrder
		}
		return strings.Compare(a.ID, b.ID)
	})
}
