package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/service"
)

func (s *Server) registerCommentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getComment",
		Method:      http.MethodGet,
		Path:        "/api/v1/comments/{id}",
		Summary:     "Get comment",
		Description: "Returns a comment with its vote tallies and reaction counts",
		Tags:        []string{"Comments"},
	}, s.handleGetComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateComment",
		Method:      http.MethodPatch,
		Path:        "/api/v1/comments/{id}",
		Summary:     "Update comment",
		Description: "Edits a comment's content. Author only.",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteComment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/comments/{id}",
		Summary:     "Delete comment",
		Description: "Deletes a comment. Author or admin only.",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "voteComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/comments/{id}/vote",
		Summary:     "Vote on comment",
		Description: "Casts an up or down vote. Repeating the held direction removes the vote; the other direction switches it.",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleVoteComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "reactToComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/comments/{id}/react",
		Summary:     "React to comment",
		Description: "Sets the caller's reaction, one per user. Repeating the held reaction clears it; a different one replaces it.",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReactToComment)
}

// === DTOs ===

// GetCommentInput identifies a comment by ID.
type GetCommentInput struct {
	ID string `path:"id" doc:"Comment ID"`
}

// UpdateCommentInput wraps the comment edit request for Huma.
type UpdateCommentInput struct {
	ID   string `path:"id" doc:"Comment ID"`
	Body struct {
		Content string `json:"content" doc:"New comment text"`
	}
}

// VoteCommentInput wraps the vote request for Huma.
type VoteCommentInput struct {
	ID   string `path:"id" doc:"Comment ID"`
	Body struct {
		Vote string `json:"vote" enum:"up,down" doc:"Vote direction"`
	}
}

// ReactCommentInput wraps the reaction request for Huma.
type ReactCommentInput struct {
	ID   string `path:"id" doc:"Comment ID"`
	Body struct {
		Reaction string `json:"reaction" enum:"like,love,haha,wow,sad,angry" doc:"Reaction to set"`
	}
}

// VoteCommentOutput wraps the vote outcome for Huma: the comment with
// fresh tallies plus the vote the caller holds after the transition.
type VoteCommentOutput struct {
	Body service.VoteResult
}

// ReactCommentOutput wraps the reaction outcome for Huma.
type ReactCommentOutput struct {
	Body service.ReactionResult
}

// === Handlers ===

func (s *Server) handleGetComment(ctx context.Context, input *GetCommentInput) (*CommentOutput, error) {
	comment, err := s.services.Comment.GetComment(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: *comment}, nil
}

func (s *Server) handleUpdateComment(ctx context.Context, input *UpdateCommentInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Comment.UpdateComment(ctx, input.ID, userID, input.Body.Content)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: *comment}, nil
}

func (s *Server) handleDeleteComment(ctx context.Context, input *GetCommentInput) (*EmptyOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Comment.DeleteComment(ctx, input.ID, user.ID, user.IsAdmin()); err != nil {
		return nil, err
	}
	out := &EmptyOutput{}
	out.Body.OK = true
	return out, nil
}

func (s *Server) handleVoteComment(ctx context.Context, input *VoteCommentInput) (*VoteCommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Comment.Vote(ctx, input.ID, userID, domain.VoteType(input.Body.Vote))
	if err != nil {
		return nil, err
	}
	return &VoteCommentOutput{Body: *result}, nil
}

func (s *Server) handleReactToComment(ctx context.Context, input *ReactCommentInput) (*ReactCommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Comment.React(ctx, input.ID, userID, domain.ReactionType(input.Body.Reaction))
	if err != nil {
		return nil, err
	}
	return &ReactCommentOutput{Body: *result}, nil
}
