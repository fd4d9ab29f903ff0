package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/workbets/workbets-server/internal/errors"
	"github.com/workbets/workbets-server/internal/service"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getMyProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/profile",
		Summary:     "Get my profile",
		Description: "Returns the caller's balance, voting history and points history",
		Tags:        []string{"Profiles"},
		Security:    bearerSecurity,
	}, s.handleGetMyProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUserProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/profile",
		Summary:     "Get user profile",
		Description: "Returns a user's profile",
		Tags:        []string{"Profiles"},
		Security:    bearerSecurity,
	}, s.handleGetUserProfile)
}

// UserProfileInput addresses one user's profile.
type UserProfileInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"User ID"`
}

// ProfileOutput wraps a profile for Huma.
type ProfileOutput struct {
	Body *service.ProfileView
}

func (s *Server) handleGetMyProfile(ctx context.Context, input *AuthorizedInput) (*ProfileOutput, error) {
	caller, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, caller.ID)
}

func (s *Server) handleGetUserProfile(ctx context.Context, input *UserProfileInput) (*ProfileOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}
	return s.profile(ctx, input.ID)
}

func (s *Server) profile(ctx context.Context, userID string) (*ProfileOutput, error) {
	view, err := s.services.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, domainerrors.NotFound("User not found.")
	}
	return &ProfileOutput{Body: view}, nil
}
