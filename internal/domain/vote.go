package domain

import "time"

// Vote is one user's choice on one wager. A user votes at most once per wager.
type Vote struct {
	ID           string    `json:"id"`
	WagerID      string    `json:"wager_id"`
	OptionID     string    `json:"option_id"`
	UserID       string    `json:"user_id"`
	EnhancedCred int       `json:"enhanced_cred,omitempty"` // 0 means a plain vote
	CreatedAt    time.Time `json:"created_at"`
}

// VoteKey is the composite identity enforcing one vote per user per wager.
func VoteKey(wagerID, userID string) string {
	return wagerID + "|" + userID
}
