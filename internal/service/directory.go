package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/workbets/workbets-server/internal/domain"
	domainerrors "github.com/workbets/workbets-server/internal/errors"
	"github.com/workbets/workbets-server/internal/id"
	"github.com/workbets/workbets-server/internal/logger"
	"github.com/workbets/workbets-server/internal/store"
	"github.com/workbets/workbets-server/internal/util"
)

// DirectoryService answers who is in a workplace and which tags exist.
type DirectoryService struct {
	store  store.Transactor
	logger *slog.Logger
}

// NewDirectoryService creates a directory service.
func NewDirectoryService(store store.Transactor, logger *slog.Logger) *DirectoryService {
	return &DirectoryService{store: store, logger: logger}
}

// UserSummary is a directory row.
type UserSummary struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Role          domain.Role `json:"role"`
	WorkCred      int         `json:"work_cred"`
	WorkplaceID   string      `json:"workplace_id"`
	WorkplaceName string      `json:"workplace_name"`
}

// CreateTagOptionRequest adds a label to the tag catalog.
type CreateTagOptionRequest struct {
	Label string `json:"label" validate:"notblank,max=40"`
}

// ListUsers returns the caller's workplace roster when the caller is an admin.
// Everyone else, including unknown callers, gets an empty list.
func (s *DirectoryService) ListUsers(ctx context.Context, callerID string) ([]UserSummary, error) {
	out := []UserSummary{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		caller, err := store.Users.In(tx).Get(callerID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !caller.IsAdmin() {
			return nil
		}

		workplaceName := unknownWorkplace
		if wp, err := store.Workplaces.In(tx).Get(caller.WorkplaceID); err == nil {
			workplaceName = wp.Name
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		members, err := store.Users.In(tx).Query(store.IndexWorkplace, caller.WorkplaceID)
		if err != nil {
			return err
		}
		slices.SortFunc(members, func(a, b *domain.User) int {
			return cmp.Or(strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), strings.Compare(a.ID, b.ID))
		})
		for _, u := range members {
			out = append(out, UserSummary{
				ID:            u.ID,
				Name:          u.Name,
				Email:         u.Email,
				Role:          u.Role,
				WorkCred:      u.WorkCred,
				WorkplaceID:   u.WorkplaceID,
				WorkplaceName: workplaceName,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// GetUserByEmail looks a user up by email, ignoring case and padding.
func (s *DirectoryService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := s.store.View(ctx, func(tx *store.Tx) error {
		u, err := store.Users.In(tx).First(store.IndexEmail, email)
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("User not found.")
		}
		user = u
		return err
	})
	return user, err
}

// ListWorkplaces returns every workplace sorted by name.
func (s *DirectoryService) ListWorkplaces(ctx context.Context) ([]*domain.Workplace, error) {
	var workplaces []*domain.Workplace
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		workplaces, err = store.Workplaces.In(tx).All()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list workplaces: %w", err)
	}
	slices.SortStableFunc(workplaces, func(a, b *domain.Workplace) int {
		return strings.Compare(a.Name, b.Name)
	})
	return workplaces, nil
}

// ListTagOptions returns the selectable catalog in sort order. The system
// labels never appear, whatever their stored flags say.
func (s *DirectoryService) ListTagOptions(ctx context.Context) ([]*domain.TagOption, error) {
	var catalog []*domain.TagOption
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		catalog, err = store.TagOptions.In(tx).All()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list tag options: %w", err)
	}

	out := make([]*domain.TagOption, 0, len(catalog))
	for _, opt := range catalog {
		if opt.Selectable() {
			out = append(out, opt)
		}
	}
	sortTagOptions(out)
	return out, nil
}

// CreateTagOption appends a selectable label to the end of the catalog.
// Only admins may extend the catalog.
func (s *DirectoryService) CreateTagOption(ctx context.Context, callerID string, req CreateTagOptionRequest) (*domain.TagOption, error) {
	req.Label = strings.TrimSpace(req.Label)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if domain.IsSystemTag(req.Label) {
		return nil, domainerrors.Validationf("%q is a reserved tag.", req.Label)
	}
	slug := util.Slugify(req.Label)
	if slug == "" {
		return nil, domainerrors.Validation("Tag label must contain letters or digits.")
	}

	var created *domain.TagOption
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		caller, err := loadUser(tx, callerID)
		if err != nil {
			return err
		}
		if !caller.IsAdmin() {
			return domainerrors.Forbidden("Only admins can add tags.")
		}

		created, err = insertTagOption(tx, req.Label, slug, true)
		if err != nil {
			return err
		}
		tx.Emit(store.Event{Type: store.EventTagOptionCreated, Data: created})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if log := logger.FromContext(ctx, s.logger); log != nil {
		log.Info("Tag option created", "label", created.Label, "slug", created.Slug, "by", callerID)
	}
	return created, nil
}

// insertTagOption appends an entry after the current last sort position.
func insertTagOption(tx *store.Tx, label, slug string, selectable bool) (*domain.TagOption, error) {
	catalog, err := store.TagOptions.In(tx).All()
	if err != nil {
		return nil, err
	}
	next := 0
	for _, opt := range catalog {
		next = max(next, opt.SortOrder+1)
	}

	tagID, err := id.Generate(id.PrefixTagOption)
	if err != nil {
		return nil, err
	}
	opt := &domain.TagOption{
		ID:           tagID,
		Label:        label,
		Slug:         slug,
		SortOrder:    next,
		IsSelectable: &selectable,
	}
	if err := store.TagOptions.In(tx).Insert(opt); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("Tag %q already exists.", label)
		}
		return nil, fmt.Errorf("create tag option: %w", err)
	}
	return opt, nil
}

func sortTagOptions(opts []*domain.TagOption) {
	slices.SortStableFunc(opts, func(a, b *domain.TagOption) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), strings.Compare(a.ID, b.ID))
	})
}
