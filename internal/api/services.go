package api

import (
	"github.com/emberforum/ember-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth      *service.AuthService
	Session   *service.SessionService
	Tag       *service.TagService
	Category  *service.CategoryService
	Post      *service.PostService
	Comment   *service.CommentService
	Community *service.CommunityService
}
