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

// CategoryService manages the admin-curated category tree. Categories
// that still have posts are deactivated instead of deleted unless the
// caller forces the delete.
type CategoryService struct {
	store  store.Store
	logger *slog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(store store.Store, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		store:  store,
		logger: logger,
	}
}

// CreateCategoryInput carries the fields for a new category.
type CreateCategoryInput struct {
	Name        string
	Description string
	Color       string
	SortOrder   int
}

// UpdateCategoryInput carries the mutable category fields. Nil pointers
// leave the current value unchanged.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
	Color       *string
	SortOrder   *int
	IsActive    *bool
}

// DeleteCategoryResult reports how a delete request was resolved.
type DeleteCategoryResult struct {
	Deleted     bool `json:"deleted"`
	Deactivated bool `json:"deactivated"`
	PostCount   int  `json:"post_count"`
}

// ListCategories returns categories in sort order. Inactive categories
// are included only when requested (admin views).
func (s *CategoryService) ListCategories(ctx context.Context, includeInactive bool) ([]*domain.Category, error) {
	return s.store.ListCategories(ctx, includeInactive)
}

// GetCategory returns a category by ID.
func (s *CategoryService) GetCategory(ctx context.Context, categoryID string) (*domain.Category, error) {
	c, err := s.store.GetCategory(ctx, categoryID)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("category not found")
	}
	return c, err
}

// GetCategoryBySlug returns a category by its slug.
func (s *CategoryService) GetCategoryBySlug(ctx context.Context, slugStr string) (*domain.Category, error) {
	c, err := s.store.GetCategoryBySlug(ctx, slugStr)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("category not found")
	}
	return c, err
}

// CreateCategory creates an active category with a generated slug.
func (s *CategoryService) CreateCategory(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.Validation("category name is required")
	}

	slugStr, err := slug.GenerateUnique(ctx, name, slug.DefaultMaxLength, s.store.CategorySlugExists, "")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	category := &domain.Category{
		ID:          id.MustGenerate("cat"),
		Name:        name,
		Slug:        slugStr,
		Description: strings.TrimSpace(input.Description),
		Color:       input.Color,
		IsActive:    true,
		SortOrder:   input.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateCategory(ctx, category); err != nil {
		if isAlreadyExists(err) {
			return nil, errors.AlreadyExistsf("category %q already exists", name)
		}
		return nil, err
	}
	return category, nil
}

// UpdateCategory applies the provided changes. Renaming does not change
// the slug; existing URLs keep working.
func (s *CategoryService) UpdateCategory(ctx context.Context, categoryID string, input UpdateCategoryInput) (*domain.Category, error) {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("category not found")
		}
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.Validation("category name cannot be empty")
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}
	if input.Color != nil {
		category.Color = *input.Color
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	category.Touch()
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category. If posts still reference it and
// force is not set, the category is deactivated instead so post
// references stay valid. With force, posts are detached and the category
// is deleted.
func (s *CategoryService) DeleteCategory(ctx context.Context, categoryID string, force bool) (*DeleteCategoryResult, error) {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("category not found")
		}
		return nil, err
	}

	postCount, err := s.store.CountPostsInCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if postCount > 0 && !force {
		category.IsActive = false
		category.Touch()
		if err := s.store.UpdateCategory(ctx, category); err != nil {
			return nil, err
		}
		s.logger.Info("deactivated category with posts instead of deleting",
			"category", category.Slug, "posts", postCount)
		return &DeleteCategoryResult{Deactivated: true, PostCount: postCount}, nil
	}

	if err := s.store.DeleteCategory(ctx, categoryID, postCount > 0); err != nil {
		return nil, err
	}
	return &DeleteCategoryResult{Deleted: true, PostCount: postCount}, nil
}
