package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"username": "  Riley@Workbets.io ",
		"password": "workbets123",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[LoginResponse](t, resp)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Data.UserID)
	assert.NotEmpty(t, env.Data.AccessToken)
	assert.Equal(t, "Bearer", env.Data.TokenType)
	assert.Equal(t, 15*60, env.Data.ExpiresIn)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := setupTestServer(t, Options{})

	for _, username := range []string{"riley@workbets.io", "nobody@workbets.io"} {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"username": username,
			"password": "not-the-password",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		env := decode[any](t, resp)
		assert.False(t, env.Success)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
	}
}

func TestRegister(t *testing.T) {
	ts := setupTestServer(t, Options{})

	// Workplaces exist, so one must be chosen.
	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "new@workbets.io",
		"password": "longenough",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[any](t, resp).Error.Code)

	resp = ts.api.Get("/api/v1/workplaces")
	require.Equal(t, http.StatusOK, resp.Code)
	workplaces := decode[struct {
		Workplaces []WorkplaceResponse `json:"workplaces"`
	}](t, resp).Data.Workplaces
	require.Len(t, workplaces, 2)
	assert.Equal(t, "Design Guild", workplaces[0].Name)

	resp = ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        "new@workbets.io",
		"password":     "longenough",
		"workplace_id": workplaces[1].ID,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.NotEmpty(t, decode[RegisterResponse](t, resp).Data.UserID)

	resp = ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        "NEW@workbets.io",
		"password":     "longenough",
		"workplace_id": workplaces[1].ID,
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	// The new account can log in.
	resp = ts.api.Post("/api/v1/auth/login", map[string]any{"username": "new@workbets.io", "password": "longenough"})
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestAuthRateLimit(t *testing.T) {
	ts := setupTestServer(t, Options{AuthRatePerMinute: 2})

	body := map[string]any{"username": "riley@workbets.io", "password": "wrong"}
	for range 2 {
		resp := ts.api.Post("/api/v1/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	}

	resp := ts.api.Post("/api/v1/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "RATE_LIMITED", decode[any](t, resp).Error.Code)
}

func TestAuthenticateRequest_RejectsBadTokens(t *testing.T) {
	ts := setupTestServer(t, Options{})

	tests := []struct {
		name   string
		header []any
	}{
		{"missing", nil},
		{"wrong scheme", []any{"Authorization: Basic abc"}},
		{"garbage token", []any{"Authorization: Bearer v4.local.garbage"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/wagers", tt.header...)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			assert.False(t, decode[any](t, resp).Success)
		})
	}
}
