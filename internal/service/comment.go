package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/errors"
	"github.com/emberforum/ember-server/internal/id"
	"github.com/emberforum/ember-server/internal/store"
)

const maxCommentLength = 10000

// CommentService manages comments on posts, including votes and
// reactions. Votes and reactions follow toggle semantics: repeating the
// same action removes it, a different action replaces the current one.
type CommentService struct {
	store  store.Store
	logger *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(store store.Store, logger *slog.Logger) *CommentService {
	return &CommentService{
		store:  store,
		logger: logger,
	}
}

// CreateCommentInput carries the fields for a new comment.
type CreateCommentInput struct {
	PostID   string
	AuthorID string
	ParentID string // optional, for replies
	Content  string
}

// CreateComment adds a comment to a post. Replies nest one level deep:
// replying to a reply attaches the comment to the original parent.
func (s *CommentService) CreateComment(ctx context.Context, input CreateCommentInput) (*domain.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errors.Validation("comment content is required")
	}
	if len(content) > maxCommentLength {
		return nil, errors.Validationf("comment must not exceed %d characters", maxCommentLength)
	}

	post, err := s.store.GetPost(ctx, input.PostID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("post not found")
		}
		return nil, err
	}
	if !post.Published() {
		return nil, errors.Forbidden("cannot comment on an unpublished post")
	}

	parentID := input.ParentID
	if parentID != "" {
		parent, err := s.store.GetComment(ctx, parentID)
		if err != nil {
			if err == store.ErrNotFound {
				return nil, errors.NotFound("parent comment not found")
			}
			return nil, err
		}
		if parent.PostID != input.PostID {
			return nil, errors.Validation("parent comment belongs to a different post")
		}
		// Flatten deep threads to a single reply level.
		if parent.ParentID != "" {
			parentID = parent.ParentID
		}
	}

	now := time.Now().UTC()
	comment := &domain.Comment{
		ID:        id.MustGenerate("cmt"),
		PostID:    input.PostID,
		AuthorID:  input.AuthorID,
		ParentID:  parentID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// GetComment returns a comment with its reaction counts attached.
func (s *CommentService) GetComment(ctx context.Context, commentID string) (*domain.Comment, error) {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("comment not found")
		}
		return nil, err
	}

	counts, err := s.store.GetCommentReactionCounts(ctx, commentID)
	if err != nil {
		return nil, err
	}
	comment.Reactions = counts
	return comment, nil
}

// ListComments returns a page of a post's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Comment], error) {
	return s.store.ListCommentsForPost(ctx, postID, params)
}

// UpdateComment edits a comment's content. Only the author may edit.
func (s *CommentService) UpdateComment(ctx context.Context, commentID, userID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.Validation("comment content is required")
	}
	if len(content) > maxCommentLength {
		return nil, errors.Validationf("comment must not exceed %d characters", maxCommentLength)
	}

	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("comment not found")
		}
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, errors.Forbidden("only the author can edit a comment")
	}

	comment.Content = content
	comment.Touch()
	if err := s.store.UpdateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment. The author or an admin may delete.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, userID string, isAdmin bool) error {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		if err == store.ErrNotFound {
			return errors.NotFound("comment not found")
		}
		return err
	}
	if comment.AuthorID != userID && !isAdmin {
		return errors.Forbidden("only the author or an admin can delete a comment")
	}
	return s.store.DeleteComment(ctx, commentID)
}

// VoteResult is the outcome of a vote transition: the comment with
// tallies recomputed from the per-user rows, plus the vote the caller
// now holds. Vote is empty when the action toggled the held vote off.
type VoteResult struct {
	Comment *domain.Comment `json:"comment"`
	Vote    domain.VoteType `json:"vote,omitempty"`
}

// ReactionResult mirrors VoteResult for reactions.
type ReactionResult struct {
	Comment  *domain.Comment     `json:"comment"`
	Reaction domain.ReactionType `json:"reaction,omitempty"`
}

// Vote casts an up or down vote on a comment for the user. Repeating the
// held direction removes the vote; the opposite direction switches it.
// Returns the comment with tallies current as of the write and the
// caller's resulting vote.
func (s *CommentService) Vote(ctx context.Context, commentID, userID string, vote domain.VoteType) (*VoteResult, error) {
	if !vote.Valid() {
		return nil, errors.Validationf("unknown vote type %q", vote)
	}

	current := domain.VoteState{}
	existing, err := s.store.GetCommentVote(ctx, commentID, userID)
	if err != nil && err != store.ErrNotFound {
		return nil, err
	}
	if existing != nil {
		current.Vote = existing.Vote
	}

	next := current.Cast(vote)
	comment, err := s.store.ApplyCommentVote(ctx, commentID, userID, next)
	if err != nil {
		if err == store.ErrNotFound || isStoreNotFound(err) {
			return nil, errors.NotFound("comment not found")
		}
		return nil, err
	}
	return &VoteResult{Comment: comment, Vote: next.Vote}, nil
}

// React sets the user's reaction on a comment with the same toggle rules
// as Vote: one reaction per user, repeat to clear, different to switch.
func (s *CommentService) React(ctx context.Context, commentID, userID string, reaction domain.ReactionType) (*ReactionResult, error) {
	if !reaction.Valid() {
		return nil, errors.Validationf("unknown reaction type %q", reaction)
	}

	current := domain.ReactionState{}
	existing, err := s.store.GetCommentReaction(ctx, commentID, userID)
	if err != nil && err != store.ErrNotFound {
		return nil, err
	}
	if existing != nil {
		current.Reaction = existing.Reaction
	}

	next := current.Cast(reaction)
	comment, err := s.store.ApplyCommentReaction(ctx, commentID, userID, next)
	if err != nil {
		if err == store.ErrNotFound || isStoreNotFound(err) {
			return nil, errors.NotFound("comment not found")
		}
		return nil, err
	}
	return &ReactionResult{Comment: comment, Reaction: next.Reaction}, nil
}
