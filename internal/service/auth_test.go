package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workbets/workbets-server/internal/domain"
	domainerrors "github.com/workbets/workbets-server/internal/errors"
	"github.com/workbets/workbets-server/internal/store"
)

func TestRegister_FirstUserCreatesDefaultWorkplace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{Email: "  Ava@WorkBets.io ", Password: "correct-horse"})
	require.NoError(t, err)

	user := env.user(t, resp.UserID)
	assert.Equal(t, "ava@workbets.io", user.Email)
	assert.Equal(t, "ava", user.Name)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, 0, user.WorkCred)

	workplaces, err := env.directory.ListWorkplaces(ctx)
	require.NoError(t, err)
	require.Len(t, workplaces, 1)
	assert.Equal(t, "Workbets HQ", workplaces[0].Name)
	assert.Equal(t, workplaces[0].ID, user.WorkplaceID)
}

func TestRegister_WorkplaceResolution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addWorkplace(t, "wp-1", "Product Studio")

	_, err := env.auth.Register(ctx, RegisterRequest{Email: "a@workbets.io", Password: "password1"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.auth.Register(ctx, RegisterRequest{Email: "a@workbets.io", Password: "password1", WorkplaceID: "wp-missing"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	resp, err := env.auth.Register(ctx, RegisterRequest{Email: "a@workbets.io", Password: "password1", WorkplaceID: "wp-1"})
	require.NoError(t, err)
	assert.Equal(t, "wp-1", env.user(t, resp.UserID).WorkplaceID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterRequest{Email: "dup@workbets.io", Password: "password1"})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, RegisterRequest{Email: "DUP@workbets.io ", Password: "password2"})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestRegister_RejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), RegisterRequest{Email: "not-an-email", Password: "password1"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.auth.Register(context.Background(), RegisterRequest{Email: "a@workbets.io", Password: "short"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{Email: "ava@workbets.io", Password: "correct-horse"})
	require.NoError(t, err)

	userID, ok, err := env.auth.Authenticate(ctx, " AVA@workbets.io", "correct-horse")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, resp.UserID, userID)

	_, ok, err = env.auth.Authenticate(ctx, "ava@workbets.io", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = env.auth.Authenticate(ctx, "nobody@workbets.io", "correct-horse")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthenticate_AmbiguousUsernameFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{Email: "ava@workbets.io", Password: "correct-horse"})
	require.NoError(t, err)

	// A second credential for the same username makes the login ambiguous.
	hash, err := env.auth.hasher.Hash("correct-horse")
	require.NoError(t, err)
	env.update(t, func(tx *store.Tx) error {
		return store.Credentials.In(tx).Insert(&domain.Credential{
			ID: "cred-dup", Username: "ava@workbets.io", PasswordHash: hash, UserID: resp.UserID,
		})
	})

	_, ok, err := env.auth.Authenticate(ctx, "ava@workbets.io", "correct-horse")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthenticate_MalformedHashFails(t *testing.T) {
	env := newTestEnv(t)
	env.addWorkplace(t, "wp-1", "Product Studio")
	env.addUser(t, "usr-1", domain.RoleUser, "wp-1", 0)
	env.update(t, func(tx *store.Tx) error {
		return store.Credentials.In(tx).Insert(&domain.Credential{
			ID: "cred-1", Username: "usr-1@workbets.io", PasswordHash: "pbkdf2$nope", UserID: "usr-1",
		})
	})

	_, ok, err := env.auth.Authenticate(context.Background(), "usr-1@workbets.io", "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, RegisterRequest{Email: "ava@workbets.io", Password: "correct-horse"})
	require.NoError(t, err)

	resp, err := env.auth.Login(ctx, LoginRequest{Username: "ava@workbets.io", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, resp.UserID)
	assert.Equal(t, 3600, resp.ExpiresIn)

	user, err := env.auth.VerifyToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, user.ID)

	_, err = env.auth.Login(ctx, LoginRequest{Username: "ava@workbets.io", Password: "nope"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = env.auth.VerifyToken(ctx, "v4.local.garbage")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}
