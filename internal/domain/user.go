package domain

import (
	"strings"
	"time"
)

// Role is a user's permission level. Stored as entered, compared case-insensitively.
type Role string

// Known roles.
const (
	RoleAdmin   Role = "Admin"
	RoleCreator Role = "Creator"
	RoleGuest   Role = "Guest"
	RoleUser    Role = "User"
)

// Is reports whether r names the same role as other, ignoring case and padding.
func (r Role) Is(other Role) bool {
	return strings.EqualFold(strings.TrimSpace(string(r)), string(other))
}

// User is a member of exactly one workplace.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"` // Trimmed and lowercased, unique
	Role        Role      `json:"role"`
	WorkplaceID string    `json:"workplace_id"`
	WorkCred    int       `json:"work_cred"` // Mirrors the sum of the user's ledger; only the ledger writes it
	CreatedAt   time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role.Is(RoleAdmin)
}

// Credential maps a login name to a password hash.
type Credential struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"` // Same as the user's email
	PasswordHash string    `json:"password_hash"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeEmail is the canonical form used for uniqueness and login lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayNameFromEmail derives a starting display name from the local part of email.
func DisplayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(NormalizeEmail(email), "@")
	if local == "" {
		return "New User"
	}
	return local
}
