package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/workbets/workbets-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Register new user",
		Description:   "Creates an account in a workplace. The first account on an empty server creates the default workplace.",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.rateLimitAuth},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Checks a username and password and returns an access token",
		Tags:        []string{"Authentication"},
		Middlewares: huma.Middlewares{s.rateLimitAuth},
	}, s.handleLogin)
}

// === DTOs ===

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Username string `json:"username" doc:"Login name (the account email)"`
	Password string `json:"password" doc:"User password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// LoginResponse contains the issued token.
type LoginResponse struct {
	UserID      string    `json:"user_id" doc:"Authenticated user ID"`
	AccessToken string    `json:"access_token" doc:"PASETO access token"`
	TokenType   string    `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn   int       `json:"expires_in" doc:"Token expiry in seconds"`
	ExpiresAt   time.Time `json:"expires_at" doc:"Token expiry time"`
}

// LoginOutput wraps the login response for Huma.
type LoginOutput struct {
	Body LoginResponse
}

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email       string `json:"email" doc:"User email address, also the login name"`
	Password    string `json:"password" doc:"User password, at least 8 characters"`
	WorkplaceID string `json:"workplace_id,omitempty" doc:"Workplace to join; required once any workplace exists"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// RegisterResponse contains the result of a registration.
type RegisterResponse struct {
	UserID string `json:"user_id" doc:"Created user ID"`
}

// RegisterOutput wraps the register response for Huma.
type RegisterOutput struct {
	Body RegisterResponse
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
	resp, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:       input.Body.Email,
		Password:    input.Body.Password,
		WorkplaceID: input.Body.WorkplaceID,
	})
	if err != nil {
		return nil, err
	}

	return &RegisterOutput{Body: RegisterResponse{UserID: resp.UserID}}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Username: input.Body.Username,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		Body: LoginResponse{
			UserID:      resp.UserID,
			AccessToken: resp.AccessToken,
			TokenType:   "Bearer",
			ExpiresIn:   resp.ExpiresIn,
			ExpiresAt:   resp.ExpiresAt,
		},
	}, nil
}
