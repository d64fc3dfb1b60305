package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/errors"
	"github.com/emberforum/ember-server/internal/id"
	"github.com/emberforum/ember-server/internal/slug"
	"github.com/emberforum/ember-server/internal/store"
)

const (
	maxPostTitleLength = 200
	maxTagsPerPost     = 10
)

// PostService manages posts: creation and publishing, tag assignment,
// and visibility rules for drafts and community posts.
type PostService struct {
	store  store.Store
	logger *slog.Logger
}

// NewPostService creates a new post service.
func NewPostService(store store.Store, logger *slog.Logger) *PostService {
	return &PostService{
		store:  store,
		logger: logger,
	}
}

// CreatePostInput carries the fields for a new post.
type CreatePostInput struct {
	Title       string
	Content     string
	AuthorID    string
	CategoryID  string   // optional
	CommunityID string   // optional
	ImageURL    string   // optional
	TagIDs      []string // optional
	Publish     bool     // false creates a draft
}

// UpdatePostInput carries the mutable post fields. Nil pointers leave
// the current value unchanged; a non-nil empty TagIDs clears the tags.
type UpdatePostInput struct {
	Title      *string
	Content    *string
	CategoryID *string
	ImageURL   *string
	TagIDs     *[]string
}

// CreatePost creates a post, optionally publishing it immediately. The
// slug comes from the title; posting into a community requires an active
// membership there.
func (s *PostService) CreatePost(ctx context.Context, input CreatePostInput) (*domain.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.Validation("post title is required")
	}
	if len(title) > maxPostTitleLength {
		return nil, errors.Validationf("post title must not exceed %d characters", maxPostTitleLength)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, errors.Validation("post content is required")
	}

	if input.CategoryID != "" {
		category, err := s.store.GetCategory(ctx, input.CategoryID)
		if err != nil {
			if err == store.ErrNotFound {
				return nil, errors.NotFound("category not found")
			}
			return nil, err
		}
		if !category.IsActive {
			return nil, errors.Validation("cannot post into an inactive category")
		}
	}

	if input.CommunityID != "" {
		if err := s.requireActiveMember(ctx, input.CommunityID, input.AuthorID); err != nil {
			return nil, err
		}
	}

	tags, err := s.resolveTags(ctx, input.TagIDs)
	if err != nil {
		return nil, err
	}

	post, err := s.insertPost(ctx, title, input)
	if err != nil {
		return nil, err
	}

	if len(tags) > 0 {
		if err := s.store.SetPostTags(ctx, post.ID, input.TagIDs); err != nil {
			return nil, err
		}
		post.Tags = tags
	}

	return post, nil
}

// insertPost generates a unique slug and writes the post, retrying once
// with a random suffix if a concurrent writer takes the slug first.
func (s *PostService) insertPost(ctx context.Context, title string, input CreatePostInput) (*domain.Post, error) {
	slugStr, err := slug.GenerateUnique(ctx, title, slug.DefaultMaxLength, s.store.PostSlugExists, "")
	if err != nil {
		return nil, err
	}

	build := func(slugStr string) *domain.Post {
		now := time.Now().UTC()
		post := &domain.Post{
			ID:          id.MustGenerate("post"),
			Title:       title,
			Slug:        slugStr,
			Content:     input.Content,
			AuthorID:    input.AuthorID,
			CategoryID:  input.CategoryID,
			CommunityID: input.CommunityID,
			ImageURL:    input.ImageURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if input.Publish {
			post.PublishedAt = &now
		}
		return post
	}

	post := build(slugStr)
	err = s.store.CreatePost(ctx, post)
	if isAlreadyExists(err) {
		post = build(slug.Generate(title, slug.DefaultMaxLength) + "-" + slug.Random())
		err = s.store.CreatePost(ctx, post)
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost returns a post with its tags. Drafts are visible only to their
// author or an admin.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID string, isAdmin bool) (*domain.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("post not found")
		}
		return nil, err
	}
	return s.finishPost(ctx, post, viewerID, isAdmin)
}

// GetPostBySlug returns a post by its slug, with the same draft
// visibility rules as GetPost.
func (s *PostService) GetPostBySlug(ctx context.Context, slugStr, viewerID string, isAdmin bool) (*domain.Post, error) {
	post, err := s.store.GetPostBySlug(ctx, slugStr)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("post not found")
		}
		return nil, err
	}
	return s.finishPost(ctx, post, viewerID, isAdmin)
}

func (s *PostService) finishPost(ctx context.Context, post *domain.Post, viewerID string, isAdmin bool) (*domain.Post, error) {
	if !post.Published() && post.AuthorID != viewerID && !isAdmin {
		// Drafts look like missing posts to everyone else.
		return nil, errors.NotFound("post not found")
	}

	tags, err := s.store.GetTagsForPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.Tags = tags
	return post, nil
}

// ListPosts returns a page of posts matching the filter.
func (s *PostService) ListPosts(ctx context.Context, filter store.PostFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Post], error) {
	return s.store.ListPosts(ctx, filter, params)
}

// UpdatePost applies the provided changes. Only the author or an admin
// may edit; the slug never changes on edit so links stay stable.
func (s *PostService) UpdatePost(ctx context.Context, postID, userID string, isAdmin bool, input UpdatePostInput) (*domain.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("post not found")
		}
		return nil, err
	}
	if post.AuthorID != userID && !isAdmin {
		return nil, errors.Forbidden("only the author or an admin can edit a post")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, errors.Validation("post title cannot be empty")
		}
		if len(title) > maxPostTitleLength {
			return nil, errors.Validationf("post title must not exceed %d characters", maxPostTitleLength)
		}
		post.Title = title
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, errors.Validation("post content cannot be empty")
		}
		post.Content = *input.Content
	}
	if input.CategoryID != nil {
		post.CategoryID = *input.CategoryID
	}
	if input.ImageURL != nil {
		post.ImageURL = *input.ImageURL
	}

	post.Touch()
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return nil, err
	}

	if input.TagIDs != nil {
		tags, err := s.resolveTags(ctx, *input.TagIDs)
		if err != nil {
			return nil, err
		}
		if err := s.store.SetPostTags(ctx, post.ID, *input.TagIDs); err != nil {
			return nil, err
		}
		post.Tags = tags
	} else {
		tags, err := s.store.GetTagsForPost(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		post.Tags = tags
	}

	return post, nil
}

// PublishPost makes a draft visible. Publishing an already published
// post is a no-op.
func (s *PostService) PublishPost(ctx context.Context, postID, userID string, isAdmin bool) (*domain.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("post not found")
		}
		return nil, err
	}
	if post.AuthorID != userID && !isAdmin {
		return nil, errors.Forbidden("only the author or an admin can publish a post")
	}
	if post.Published() {
		return post, nil
	}

	now := time.Now().UTC()
	post.PublishedAt = &now
	post.Touch()
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes a post. The author, an admin, or a moderator of the
// post's community may delete it. Tag post counts are kept in sync by
// the store.
func (s *PostService) DeletePost(ctx context.Context, postID, userID string, isAdmin bool) error {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if err == store.ErrNotFound {
			return errors.NotFound("post not found")
		}
		return err
	}

	allowed := post.AuthorID == userID || isAdmin
	if !allowed && post.CommunityID != "" {
		member, err := s.store.GetCommunityMember(ctx, post.CommunityID, userID)
		if err != nil && err != store.ErrNotFound {
			return err
		}
		allowed = member != nil && member.CanModerate()
	}
	if !allowed {
		return errors.Forbidden("not allowed to delete this post")
	}

	return s.store.DeletePost(ctx, postID)
}

// resolveTags validates tag IDs and loads the tags for attachment.
func (s *PostService) resolveTags(ctx context.Context, tagIDs []string) ([]*domain.Tag, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	if len(tagIDs) > maxTagsPerPost {
		return nil, errors.Validationf("a post can carry at most %d tags", maxTagsPerPost)
	}

	unique := make([]string, 0, len(tagIDs))
	seen := map[string]bool{}
	for _, tagID := range tagIDs {
		if seen[tagID] {
			continue
		}
		seen[tagID] = true
		unique = append(unique, tagID)
	}

	tags, err := s.store.GetTagsByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(unique) {
		return nil, errors.NotFound("one or more tags not found")
	}
	return tags, nil
}

// requireActiveMember fails unless userID is an active member of the
// community.
func (s *PostService) requireActiveMember(ctx context.Context, communityID, userID string) error {
	if _, err := s.store.GetCommunity(ctx, communityID); err != nil {
		if err == store.ErrNotFound {
			return errors.NotFound("community not found")
		}
		return err
	}

	member, err := s.store.GetCommunityMember(ctx, communityID, userID)
	if err != nil {
		if err == store.ErrNotFound {
			return errors.Forbidden("community membership required to post")
		}
		return err
	}
	if !member.Status.Active() {
		return errors.Forbidden("community membership required to post")
	}
	return nil
}
