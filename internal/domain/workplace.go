package domain

import "time"

// Workplace groups users and the wagers they can see. Workplaces are never renamed.
type Workplace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
