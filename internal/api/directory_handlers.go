package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/workbets/workbets-server/internal/domain"
	"github.com/workbets/workbets-server/internal/service"
)

func (s *Server) registerDirectoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "List users",
		Description: "Returns the caller's workplace roster. Non-admins get an empty list.",
		Tags:        []string{"Directory"},
		Security:    bearerSecurity,
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "listWorkplaces",
		Method:      http.MethodGet,
		Path:        "/api/v1/workplaces",
		Summary:     "List workplaces",
		Description: "Returns every workplace, for the registration form",
		Tags:        []string{"Directory"},
	}, s.handleListWorkplaces)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTagOptions",
		Method:      http.MethodGet,
		Path:        "/api/v1/tag-options",
		Summary:     "List tag options",
		Description: "Returns the selectable tag catalog in display order",
		Tags:        []string{"Directory"},
	}, s.handleListTagOptions)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTagOption",
		Method:        http.MethodPost,
		Path:          "/api/v1/tag-options",
		Summary:       "Create tag option",
		Description:   "Adds a label to the tag catalog (admin only)",
		Tags:          []string{"Directory"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateTagOption)
}

// === DTOs ===

// AuthorizedInput carries only the bearer token.
type AuthorizedInput struct {
	Authorization string `header:"Authorization"`
}

// ListUsersOutput wraps the roster for Huma.
type ListUsersOutput struct {
	Body struct {
		Users []service.UserSummary `json:"users" doc:"Workplace members sorted by name"`
	}
}

// WorkplaceResponse is a workplace in API responses.
type WorkplaceResponse struct {
	ID   string `json:"id" doc:"Workplace ID"`
	Name string `json:"name" doc:"Workplace name"`
}

// ListWorkplacesOutput wraps the workplace list for Huma.
type ListWorkplacesOutput struct {
	Body struct {
		Workplaces []WorkplaceResponse `json:"workplaces" doc:"Workplaces sorted by name"`
	}
}

// TagOptionResponse is a catalog entry in API responses.
type TagOptionResponse struct {
	ID        string `json:"id" doc:"Tag option ID"`
	Label     string `json:"label" doc:"Display label"`
	Slug      string `json:"slug" doc:"URL-safe slug"`
	SortOrder int    `json:"sort_order" doc:"Display position"`
}

// ListTagOptionsOutput wraps the catalog for Huma.
type ListTagOptionsOutput struct {
	Body struct {
		TagOptions []TagOptionResponse `json:"tag_options" doc:"Selectable tags in display order"`
	}
}

// CreateTagOptionInput wraps the create request for Huma.
type CreateTagOptionInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		Label string `json:"label" doc:"Tag label, at most 40 characters"`
	}
}

// TagOptionOutput wraps one catalog entry for Huma.
type TagOptionOutput struct {
	Body TagOptionResponse
}

// === Handlers ===

func (s *Server) handleListUsers(ctx context.Context, input *AuthorizedInput) (*ListUsersOutput, error) {
	caller, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	users, err := s.services.Directory.ListUsers(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	out := &ListUsersOutput{}
	out.Body.Users = users
	return out, nil
}

func (s *Server) handleListWorkplaces(ctx context.Context, _ *struct{}) (*ListWorkplacesOutput, error) {
	workplaces, err := s.services.Directory.ListWorkplaces(ctx)
	if err != nil {
		return nil, err
	}

	out := &ListWorkplacesOutput{}
	out.Body.Workplaces = make([]WorkplaceResponse, len(workplaces))
	for i, wp := range workplaces {
		out.Body.Workplaces[i] = WorkplaceResponse{ID: wp.ID, Name: wp.Name}
	}
	return out, nil
}

func (s *Server) handleListTagOptions(ctx context.Context, _ *struct{}) (*ListTagOptionsOutput, error) {
	options, err := s.services.Directory.ListTagOptions(ctx)
	if err != nil {
		return nil, err
	}

	out := &ListTagOptionsOutput{}
	out.Body.TagOptions = make([]TagOptionResponse, len(options))
	for i, t := range options {
		out.Body.TagOptions[i] = mapTagOption(t)
	}
	return out, nil
}

func (s *Server) handleCreateTagOption(ctx context.Context, input *CreateTagOptionInput) (*TagOptionOutput, error) {
	caller, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	created, err := s.services.Directory.CreateTagOption(ctx, caller.ID, service.CreateTagOptionRequest{
		Label: input.Body.Label,
	})
	if err != nil {
		return nil, err
	}

	return &TagOptionOutput{Body: mapTagOption(created)}, nil
}

func mapTagOption(t *domain.TagOption) TagOptionResponse {
	return TagOptionResponse{ID: t.ID, Label: t.Label, Slug: t.Slug, SortOrder: t.SortOrder}
}
