package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/workbets/workbets-server/internal/domain"
)

// bearerSecurity marks an operation as requiring a bearer token in OpenAPI.
var bearerSecurity = []map[string][]string{{"bearer": {}}}

// authenticateRequest validates the Authorization header and returns the user.
// Expired tokens and deleted users both come back as 401.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (*domain.User, error) {
	if authHeader == "" {
		return nil, huma.Error401Unauthorized("Missing authorization header")
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, huma.Error401Unauthorized("Invalid authorization header format")
	}

	return s.services.Auth.VerifyToken(ctx, strings.TrimSpace(token))
}
