package auth

import (
	"errors"
	"fmt"
	"strings"
)

// maxPasswordLength bounds the work an attacker can force per attempt.
const maxPasswordLength = 1024

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// Hasher produces and checks self-describing password hashes for one scheme.
type Hasher interface {
	// Scheme is the tag that identifies this hasher's output.
	Scheme() string
	Hash(password string) (string, error)
	// Verify reports whether password matches encoded. Malformed hashes
	// never match.
	Verify(encoded, password string) bool
}

// PasswordHasher is what services need from a credential hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) bool
}

var _ PasswordHasher = (*CredentialHasher)(nil)

// CredentialHasher hashes new passwords with its primary scheme and verifies
// stored hashes with whichever registered scheme produced them, so older
// hashes keep working after the primary scheme changes.
type CredentialHasher struct {
	primary Hasher
	schemes map[string]Hasher
}

// NewCredentialHasher registers primary and any legacy hashers.
func NewCredentialHasher(primary Hasher, legacy ...Hasher) *CredentialHasher {
	h := &CredentialHasher{primary: primary, schemes: map[string]Hasher{primary.Scheme(): primary}}
	for _, l := range legacy {
		h.schemes[l.Scheme()] = l
	}
	return h
}

// DefaultCredentialHasher hashes with argon2id and still accepts PBKDF2 hashes.
func DefaultCredentialHasher() *CredentialHasher {
	return NewCredentialHasher(NewArgon2idHasher(), NewPBKDF2Hasher())
}

// Hash hashes password with the primary scheme.
func (h *CredentialHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPasswordLength {
		return "", errors.New("password exceeds maximum length")
	}
	encoded, err := h.primary.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return encoded, nil
}

// Verify checks password against an encoded hash of any registered scheme.
// Unknown schemes and malformed hashes fail closed.
func (h *CredentialHasher) Verify(encoded, password string) bool {
	if len(password) > maxPasswordLength {
		return false
	}
	hasher, ok := h.schemes[SchemeOf(encoded)]
	if !ok {
		return false
	}
	return hasher.Verify(encoded, password)
}

// SchemeOf extracts the scheme tag from an encoded hash. Both
// "$argon2id$..." and "pbkdf2$..." layouts are recognized.
func SchemeOf(encoded string) string {
	scheme, _, _ := strings.Cut(strings.TrimPrefix(encoded, "$"), "$")
	return scheme
}
