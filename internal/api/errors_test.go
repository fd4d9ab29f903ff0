package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/workbets/workbets-server/internal/errors"
	"github.com/workbets/workbets-server/internal/store"
)

func TestRegisterErrorHandler_MapsErrors(t *testing.T) {
	RegisterErrorHandler()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"domain error", domainerrors.Forbidden("Only admins can do that."), http.StatusForbidden, "FORBIDDEN"},
		{"wrapped domain error", fmt.Errorf("cast vote: %w", domainerrors.NotFound("Wager not found.")), http.StatusNotFound, "NOT_FOUND"},
		{"exhausted write retries", fmt.Errorf("transaction kept conflicting: %w", store.ErrConflict), http.StatusConflict, "CONFLICT"},
		{"unknown error", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := huma.NewError(http.StatusInternalServerError, "unexpected error occurred", tt.err)
			apiErr, ok := se.(*APIError)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.GetStatus())
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestRegisterErrorHandler_ConflictIsRetryable(t *testing.T) {
	RegisterErrorHandler()

	se := huma.NewError(http.StatusInternalServerError, "unexpected error occurred", store.ErrConflict)
	apiErr, ok := se.(*APIError)
	require.True(t, ok)
	assert.Equal(t, map[string]bool{"retryable": true}, apiErr.Details)
	assert.NotContains(t, apiErr.Message, "store:")
}
