package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/workbets/workbets-server/internal/auth"
	"github.com/workbets/workbets-server/internal/domain"
	domainerrors "github.com/workbets/workbets-server/internal/errors"
	"github.com/workbets/workbets-server/internal/id"
	"github.com/workbets/workbets-server/internal/logger"
	"github.com/workbets/workbets-server/internal/store"
)

// AuthService owns credentials: login, registration and token checks.
type AuthService struct {
	store            store.Transactor
	hasher           auth.PasswordHasher
	tokens           *auth.TokenService
	defaultWorkplace string
	logger           *slog.Logger
	now              clock
}

// NewAuthService creates an authentication service. defaultWorkplace names
// the workplace created when the first user registers on an empty store.
func NewAuthService(
	store store.Transactor,
	hasher auth.PasswordHasher,
	tokens *auth.TokenService,
	defaultWorkplace string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:            store,
		hasher:           hasher,
		tokens:           tokens,
		defaultWorkplace: defaultWorkplace,
		logger:           logger,
		now:              time.Now,
	}
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int       `json:"expires_in"` // Seconds
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	WorkplaceID string `json:"workplace_id,omitempty"`
}

// RegisterResponse contains the new user's ID.
type RegisterResponse struct {
	UserID string `json:"user_id"`
}

// Authenticate checks a username and password. It reports ok=false, never an
// error, for unknown users, ambiguous usernames, malformed hashes and wrong
// passwords; err is reserved for storage failures.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (userID string, ok bool, err error) {
	var credential *domain.Credential
	err = s.store.View(ctx, func(tx *store.Tx) error {
		matches, err := store.Credentials.In(tx).Query(store.IndexUsername, username)
		if err != nil {
			return err
		}
		if len(matches) == 1 {
			credential = matches[0]
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("lookup credential: %w", err)
	}

	if credential == nil {
		if s.logger != nil {
			s.logger.Debug("Login rejected: no unique credential", "username", domain.NormalizeEmail(username))
		}
		return "", false, nil
	}
	if !s.hasher.Verify(credential.PasswordHash, password) {
		return "", false, nil
	}
	return credential.UserID, true, nil
}

// Login authenticates and issues an access token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	userID, ok, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainerrors.InvalidCredentials("Invalid username or password.")
	}

	var user *domain.User
	err = s.store.View(ctx, func(tx *store.Tx) error {
		user, err = loadUser(tx, userID)
		return err
	})
	if errors.Is(err, domainerrors.ErrNotFound) {
		// A credential pointing at a deleted user cannot log in.
		return nil, domainerrors.InvalidCredentials("Invalid username or password.")
	}
	if err != nil {
		return nil, err
	}

	token, expires, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	if log := logger.FromContext(ctx, s.logger); log != nil {
		log.Info("User logged in", "user_id", user.ID)
	}

	return &LoginResponse{
		UserID:      user.ID,
		AccessToken: token,
		ExpiresAt:   expires,
		ExpiresIn:   int(s.tokens.AccessTokenDuration().Seconds()),
	}, nil
}

// Register creates a user and its credential in one transaction.
//
// Workplace resolution: a supplied workplace that exists is used. Otherwise,
// when no workplace exists at all, the default workplace is created. When
// workplaces exist, a missing choice is a validation error and an unknown
// choice is not found.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	req.WorkplaceID = strings.TrimSpace(req.WorkplaceID)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *domain.User
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		taken, err := store.Users.In(tx).QueryIDs(store.IndexEmail, req.Email)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return domainerrors.Conflict("An account with that email already exists.")
		}

		workplaceID, err := s.resolveWorkplace(tx, req.WorkplaceID)
		if err != nil {
			return err
		}

		now := s.now()
		userID, err := id.Generate(id.PrefixUser)
		if err != nil {
			return err
		}
		user = &domain.User{
			ID:          userID,
			Name:        domain.DisplayNameFromEmail(req.Email),
			Email:       req.Email,
			Role:        domain.RoleUser,
			WorkplaceID: workplaceID,
			CreatedAt:   now,
		}
		if err := store.Users.In(tx).Insert(user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return domainerrors.Conflict("An account with that email already exists.")
			}
			return fmt.Errorf("create user: %w", err)
		}

		credentialID, err := id.Generate(id.PrefixCredential)
		if err != nil {
			return err
		}
		if err := store.Credentials.In(tx).Insert(&domain.Credential{
			ID:           credentialID,
			Username:     req.Email,
			PasswordHash: passwordHash,
			UserID:       userID,
			CreatedAt:    now,
		}); err != nil {
			return fmt.Errorf("create credential: %w", err)
		}

		tx.Emit(store.Event{Type: store.EventUserRegistered, WorkplaceID: workplaceID, UserID: userID})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if log := logger.FromContext(ctx, s.logger); log != nil {
		log.Info("User registered", "user_id", user.ID, "workplace_id", user.WorkplaceID)
	}
	return &RegisterResponse{UserID: user.ID}, nil
}

func (s *AuthService) resolveWorkplace(tx *store.Tx, requested string) (string, error) {
	if requested != "" {
		exists, err := store.Workplaces.In(tx).Exists(requested)
		if err != nil {
			return "", err
		}
		if exists {
			return requested, nil
		}
	}

	existing, err := store.Workplaces.In(tx).All()
	if err != nil {
		return "", err
	}
	switch {
	case len(existing) == 0:
		return createWorkplace(tx, s.defaultWorkplace, s.now())
	case requested == "":
		return "", domainerrors.Validation("Choose a workplace to continue.")
	default:
		return "", domainerrors.NotFound("Workplace not found.")
	}
}

// VerifyToken checks an access token and loads the user it names.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		if strings.Contains(err.Error(), "expired") {
			return nil, domainerrors.TokenExpired("Access token expired.").WithCause(err)
		}
		return nil, domainerrors.Unauthorized("Invalid access token.").WithCause(err)
	}

	var user *domain.User
	err = s.store.View(ctx, func(tx *store.Tx) error {
		user, err = loadUser(tx, claims.UserID)
		return err
	})
	if errors.Is(err, domainerrors.ErrNotFound) {
		return nil, domainerrors.Unauthorized("Account no longer exists.")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func createWorkplace(tx *store.Tx, name string, now time.Time) (string, error) {
	workplaceID, err := id.Generate(id.PrefixWorkplace)
	if err != nil {
		return "", err
	}
	if err := store.Workplaces.In(tx).Insert(&domain.Workplace{
		ID:        workplaceID,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
	}); err != nil {
		return "", fmt.Errorf("create workplace: %w", err)
	}
	return workplaceID, nil
}
