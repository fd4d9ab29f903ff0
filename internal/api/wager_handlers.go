package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/workbets/workbets-server/internal/service"
)

func (s *Server) registerWagerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listWagers",
		Method:      http.MethodGet,
		Path:        "/api/v1/wagers",
		Summary:     "List wagers",
		Description: "Returns the caller's workplace board, newest first",
		Tags:        []string{"Wagers"},
		Security:    bearerSecurity,
	}, s.handleListWagers)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchWagers",
		Method:      http.MethodGet,
		Path:        "/api/v1/wagers/search",
		Summary:     "Search wagers",
		Description: "Full-text search over titles, descriptions, options and tags in the caller's workplace",
		Tags:        []string{"Wagers"},
		Security:    bearerSecurity,
	}, s.handleSearchWagers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWager",
		Method:      http.MethodGet,
		Path:        "/api/v1/wagers/{id}",
		Summary:     "Get wager",
		Description: "Returns one wager of the caller's workplace",
		Tags:        []string{"Wagers"},
		Security:    bearerSecurity,
	}, s.handleGetWager)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createWager",
		Method:        http.MethodPost,
		Path:          "/api/v1/wagers",
		Summary:       "Create wager",
		Description:   "Creates an open wager with at least two distinct options",
		Tags:          []string{"Wagers"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateWager)

	huma.Register(s.api, huma.Operation{
		OperationID: "closeWager",
		Method:      http.MethodPost,
		Path:        "/api/v1/wagers/{id}/close",
		Summary:     "Close wager",
		Description: "Closes an open wager with a winning option and pays out the pool",
		Tags:        []string{"Wagers"},
		Security:    bearerSecurity,
	}, s.handleCloseWager)

	huma.Register(s.api, huma.Operation{
		OperationID: "cancelWager",
		Method:      http.MethodPost,
		Path:        "/api/v1/wagers/{id}/cancel",
		Summary:     "Cancel wager",
		Description: "Cancels an open wager and refunds enhancements",
		Tags:        []string{"Wagers"},
		Security:    bearerSecurity,
	}, s.handleCancelWager)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteWager",
		Method:      http.MethodDelete,
		Path:        "/api/v1/wagers/{id}",
		Summary:     "Delete wager",
		Description: "Deletes a wager with its options, tags and votes. Ledger entries are kept.",
		Tags:        []string{"Wagers"},
		Security:    bearerSecurity,
	}, s.handleDeleteWager)

	huma.Register(s.api, huma.Operation{
		OperationID: "castVote",
		Method:      http.MethodPost,
		Path:        "/api/v1/wagers/{id}/votes",
		Summary:     "Cast vote",
		Description: "Votes for one option, optionally staking extra work cred",
		Tags:        []string{"Wagers"},
		Security:    bearerSecurity,
	}, s.handleCastVote)
}

// === DTOs ===

// WagersOutput wraps a list of wagers for Huma.
type WagersOutput struct {
	Body struct {
		Wagers []*service.WagerView `json:"wagers" doc:"Wagers, newest first"`
	}
}

// SearchWagersInput contains the search query.
type SearchWagersInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" doc:"Search text"`
}

// WagerPathInput addresses one wager.
type WagerPathInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Wager ID"`
}

// WagerOutput wraps one wager for Huma.
type WagerOutput struct {
	Body *service.WagerView
}

// CreateWagerRequest is the request body for a new wager.
type CreateWagerRequest struct {
	Title       string     `json:"title" doc:"Proposition"`
	Description string     `json:"description,omitempty" doc:"Details"`
	TotalCred   int        `json:"total_cred,omitempty" doc:"Pool paid to the winners"`
	ClosesAt    *time.Time `json:"closes_at,omitempty" doc:"Advertised deadline; display only"`
	Options     []string   `json:"options" doc:"Option labels; at least two distinct"`
	Tags        []string   `json:"tags,omitempty" doc:"Labels from the tag catalog"`
}

// CreateWagerInput wraps the create request for Huma.
type CreateWagerInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateWagerRequest
}

// CreateWagerOutput returns the new wager's ID.
type CreateWagerOutput struct {
	Body struct {
		WagerID string `json:"wager_id" doc:"Created wager ID"`
	}
}

// CloseWagerInput names the winning option.
type CloseWagerInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Wager ID"`
	Body          struct {
		WinnerOptionID string `json:"winner_option_id" doc:"Winning option ID"`
	}
}

// PayoutResponse is one winner's share.
type PayoutResponse struct {
	UserID string `json:"user_id" doc:"Winning voter"`
	Amount int    `json:"amount" doc:"Work cred paid"`
}

// CloseWagerOutput reports the new status and payouts.
type CloseWagerOutput struct {
	Body struct {
		Status  string           `json:"status" doc:"Always closed"`
		Payouts []PayoutResponse `json:"payouts" doc:"Shares paid to winning voters"`
	}
}

// StatusResponse reports the outcome of a command.
type StatusResponse struct {
	Status string `json:"status" doc:"Outcome"`
}

// StatusOutput wraps a status for Huma.
type StatusOutput struct {
	Body StatusResponse
}

// CastVoteInput wraps a ballot for Huma.
type CastVoteInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Wager ID"`
	Body          struct {
		OptionID     string `json:"option_id" doc:"Chosen option ID"`
		EnhancedCred int    `json:"enhanced_cred,omitempty" doc:"Extra work cred staked, up to half the pool"`
	}
}

// === Handlers ===

func (s *Server) handleListWagers(ctx context.Context, input *AuthorizedInput) (*WagersOutput, error) {
	caller, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	wagers, err := s.services.Wagers.ListWagers(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	out := &WagersOutput{}
	out.Body.Wagers = wagers
	return out, nil
}

func (s *Server) handleSearchWagers(ctx context.Context, input *SearchWagersInput) (*WagersOutput, error) {
	caller, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	wagers, err := s.services.Wagers.SearchWagers(ctx, caller.ID, input.Query)
	if err != nil {
		return nil, err
	}

	out := &WagersOutput{}
	out.Body.Wagers = wagers
	return out, nil
}

func (s *Server) handleGetWager(ctx context.Context, input *WagerPathInput) (*WagerOutput, error) {
	caller, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Wagers.GetWager(ctx, caller.ID, input.ID)
	if err != nil {
		return nil, err
	}
	return &WagerOutput{Body: view}, nil
}

func (s *Server) handleCreateWager(ctx context.Context, input *CreateWagerInput) (*CreateWagerOutput, error) {
	caller, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	w, err := s.services.Wagers.CreateWager(ctx, caller.ID, service.CreateWagerRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		TotalCred:   input.Body.TotalCred,
		ClosesAt:    input.Body.ClosesAt,
		Options:     input.Body.Options,
		Tags:        input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}

	out := &CreateWagerOutput{}
	out.Body.WagerID = w.ID
	return out, nil
}

func (s *Server) handleCloseWager(ctx context.Context, input *CloseWagerInput) (*CloseWagerOutput, error) {
	caller, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	shares, err := s.services.Wagers.CloseWager(ctx, caller.ID, input.ID, input.Body.WinnerOptionID)
	if err != nil {
		return nil, err
	}

	out := &CloseWagerOutput{}
	out.Body.Status = "closed"
	out.Body.Payouts = make([]PayoutResponse, len(shares))
	for i, sh := range shares {
		out.Body.Payouts[i] = PayoutResponse{UserID: sh.UserID, Amount: sh.Amount}
	}
	return out, nil
}

func (s *Server) handleCancelWager(ctx context.Context, input *WagerPathInput) (*StatusOutput, error) {
	caller, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Wagers.CancelWager(ctx, caller.ID, input.ID); err != nil {
		return nil, err
	}
	return &StatusOutput{Body: StatusResponse{Status: "cancelled"}}, nil
}

func (s *Server) handleDeleteWager(ctx context.Context, input *WagerPathInput) (*StatusOutput, error) {
	caller, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Wagers.DeleteWager(ctx, caller.ID, input.ID); err != nil {
		return nil, err
	}
	return &StatusOutput{Body: StatusResponse{Status: "deleted"}}, nil
}

func (s *Server) handleCastVote(ctx context.Context, input *CastVoteInput) (*StatusOutput, error) {
	caller, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if _, err := s.services.Votes.CastVote(ctx, caller.ID, input.ID, service.CastVoteRequest{
		OptionID:     input.Body.OptionID,
		EnhancedCred: input.Body.EnhancedCred,
	}); err != nil {
		return nil, err
	}
	return &StatusOutput{Body: StatusResponse{Status: "voted"}}, nil
}
