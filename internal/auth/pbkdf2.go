package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// SchemePBKDF2 tags PBKDF2-SHA256 hashes.
const SchemePBKDF2 = "pbkdf2"

const (
	pbkdf2Iterations    = 100_000
	pbkdf2MaxIterations = 10_000_000
	pbkdf2SaltLength    = 16
	pbkdf2KeyLength     = 32
)

// PBKDF2Hasher reads and writes hashes of the form
//
//	pbkdf2$<iterations>$<salt hex>$<hash hex>
//
// which is the format credentials were first stored in.
type PBKDF2Hasher struct {
	Iterations int
}

// NewPBKDF2Hasher returns a hasher with 100,000 iterations.
func NewPBKDF2Hasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{Iterations: pbkdf2Iterations}
}

// Scheme implements Hasher.
func (h *PBKDF2Hasher) Scheme() string { return SchemePBKDF2 }

// Hash implements Hasher.
func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, pbkdf2SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	derived := pbkdf2.Key([]byte(password), salt, h.Iterations, pbkdf2KeyLength, sha256.New)
	return fmt.Sprintf("%s$%d$%s$%s", SchemePBKDF2, h.Iterations, hex.EncodeToString(salt), hex.EncodeToString(derived)), nil
}

// Verify implements Hasher using a constant-time comparison.
func (h *PBKDF2Hasher) Verify(encoded, password string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 || parts[0] != SchemePBKDF2 {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 || iterations > pbkdf2MaxIterations {
		return false
	}
	salt, err := hex.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return false
	}
	expected, err := hex.DecodeString(parts[3])
	if err != nil || len(expected) == 0 {
		return false
	}

	derived := pbkdf2.Key([]byte(password), salt, iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(expected, derived) == 1
}
