package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A hash in the format credentials were originally stored in.
const legacyHash = "pbkdf2$100000$00112233445566778899aabbccddeeff$fbcc2aca5470c736230a3be115a9940b4006a375ef67be46b62fef10ab5fbedf"

func cheapHasher() *CredentialHasher {
	return NewCredentialHasher(
		&Argon2idHasher{Memory: 1024, Iterations: 1, Parallelism: 1},
		&PBKDF2Hasher{Iterations: 1000},
	)
}

func TestCredentialHasher_RoundTrip(t *testing.T) {
	h := cheapHasher()

	encoded, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

	assert.True(t, h.Verify(encoded, "correct horse"))
	assert.False(t, h.Verify(encoded, "correct horse "))
	assert.False(t, h.Verify(encoded, ""))
}

func TestCredentialHasher_SaltsEveryHash(t *testing.T) {
	h := cheapHasher()
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCredentialHasher_VerifiesLegacyPBKDF2(t *testing.T) {
	h := DefaultCredentialHasher()

	assert.True(t, h.Verify(legacyHash, "workbets123"))
	assert.False(t, h.Verify(legacyHash, "workbets124"))
}

func TestCredentialHasher_ServesAsPasswordHasher(t *testing.T) {
	// Services hold the composite hasher through the narrow interface.
	var h PasswordHasher = DefaultCredentialHasher()

	encoded, err := h.Hash("workbets123")
	require.NoError(t, err)
	assert.Equal(t, SchemeArgon2id, SchemeOf(encoded))
	assert.True(t, h.Verify(encoded, "workbets123"))
	assert.True(t, h.Verify(legacyHash, "workbets123"))
}

func TestCredentialHasher_RejectsInput(t *testing.T) {
	h := cheapHasher()

	_, err := h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = h.Hash(strings.Repeat("a", maxPasswordLength+1))
	assert.Error(t, err)
	assert.False(t, h.Verify(legacyHash, strings.Repeat("a", maxPasswordLength+1)))
}

func TestCredentialHasher_MalformedHashesFailClosed(t *testing.T) {
	h := cheapHasher()
	malformed := []string{
		"",
		"plaintext",
		"bcrypt$10$abc$def",
		"pbkdf2$notanumber$0011$0011",
		"pbkdf2$0$0011$0011",
		"pbkdf2$100000$zz$0011",
		"pbkdf2$100000$0011$",
		"pbkdf2$100000$0011",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=0,p=0$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
	}

	for _, encoded := range malformed {
		t.Run(encoded, func(t *testing.T) {
			assert.False(t, h.Verify(encoded, "anything"))
		})
	}
}

func TestSchemeOf(t *testing.T) {
	assert.Equal(t, SchemeArgon2id, SchemeOf("$argon2id$v=19$m=1,t=1,p=1$a$b"))
	assert.Equal(t, SchemePBKDF2, SchemeOf(legacyHash))
	assert.Equal(t, "", SchemeOf(""))
}

func TestPBKDF2Hasher_HashFormat(t *testing.T) {
	h := &PBKDF2Hasher{Iterations: 1000}
	encoded, err := h.Hash("pw")
	require.NoError(t, err)

	parts := strings.Split(encoded, "$")
	require.Len(t, parts, 4)
	assert.Equal(t, "pbkdf2", parts[0])
	assert.Equal(t, "1000", parts[1])
	assert.Len(t, parts[2], 32)
	assert.Len(t, parts[3], 64)
	assert.True(t, h.Verify(encoded, "pw"))
}
