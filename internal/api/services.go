package api

import "github.com/workbets/workbets-server/internal/service"

// Services groups the business logic services used by the API server.
type Services struct {
	Auth      *service.AuthService
	Directory *service.DirectoryService
	Wagers    *service.WagerService
	Votes     *service.VoteService
	Profiles  *service.ProfileService
}
