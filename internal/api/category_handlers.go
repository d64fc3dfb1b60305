package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/service"
)

func (s *Server) registerCategoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Description: "Returns categories in sort order. Inactive categories require the include_inactive flag.",
		Tags:        []string{"Categories"},
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "createCategory",
		Method:      http.MethodPost,
		Path:        "/api/v1/categories",
		Summary:     "Create category",
		Description: "Creates a category. Admin only.",
		Tags:        []string{"Categories"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCategory",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Get category",
		Tags:        []string{"Categories"},
	}, s.handleGetCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCategory",
		Method:      http.MethodPatch,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Update category",
		Description: "Updates category fields. Renaming keeps the slug stable. Admin only.",
		Tags:        []string{"Categories"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCategory",
		Method:      http.MethodDelete,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Delete category",
		Description: "Deletes a category. Categories with posts are deactivated instead unless force is set. Admin only.",
		Tags:        []string{"Categories"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteCategory)
}

// === DTOs ===

// ListCategoriesInput carries the category list flags.
type ListCategoriesInput struct {
	IncludeInactive bool `query:"include_inactive" doc:"Include deactivated categories"`
}

// CategoryListOutput wraps the category list for Huma.
type CategoryListOutput struct {
	Body struct {
		Categories []*domain.Category `json:"categories"`
	}
}

// CreateCategoryInput wraps the category creation request for Huma.
type CreateCategoryInput struct {
	Body struct {
		Name        string `json:"name" doc:"Display name"`
		Description string `json:"description,omitempty" doc:"Short description"`
		Color       string `json:"color,omitempty" doc:"Hex display color"`
		SortOrder   int    `json:"sort_order,omitempty" doc:"Position in category listings"`
	}
}

// CategoryOutput wraps a single category for Huma.
type CategoryOutput struct {
	Body domain.Category
}

// GetCategoryInput identifies a category by ID.
type GetCategoryInput struct {
	ID string `path:"id" doc:"Category ID"`
}

// UpdateCategoryInput wraps the category update request for Huma. Omitted
// fields are left unchanged.
type UpdateCategoryInput struct {
	ID   string `path:"id" doc:"Category ID"`
	Body struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
		Color       *string `json:"color,omitempty"`
		SortOrder   *int    `json:"sort_order,omitempty"`
		IsActive    *bool   `json:"is_active,omitempty"`
	}
}

// DeleteCategoryInput identifies a category to delete.
type DeleteCategoryInput struct {
	ID    string `path:"id" doc:"Category ID"`
	Force bool   `query:"force" doc:"Delete even if posts reference the category"`
}

// DeleteCategoryOutput wraps the delete result for Huma.
type DeleteCategoryOutput struct {
	Body service.DeleteCategoryResult
}

// === Handlers ===

func (s *Server) handleListCategories(ctx context.Context, input *ListCategoriesInput) (*CategoryListOutput, error) {
	categories, err := s.services.Category.ListCategories(ctx, input.IncludeInactive)
	if err != nil {
		return nil, err
	}

	out := &CategoryListOutput{}
	out.Body.Categories = categories
	return out, nil
}

func (s *Server) handleCreateCategory(ctx context.Context, input *CreateCategoryInput) (*CategoryOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	category, err := s.services.Category.CreateCategory(ctx, service.CreateCategoryInput{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Color:       input.Body.Color,
		SortOrder:   input.Body.SortOrder,
	})
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: *category}, nil
}

func (s *Server) handleGetCategory(ctx context.Context, input *GetCategoryInput) (*CategoryOutput, error) {
	category, err := s.services.Category.GetCategory(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: *category}, nil
}

func (s *Server) handleUpdateCategory(ctx context.Context, input *UpdateCategoryInput) (*CategoryOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	category, err := s.services.Category.UpdateCategory(ctx, input.ID, service.UpdateCategoryInput{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Color:       input.Body.Color,
		SortOrder:   input.Body.SortOrder,
		IsActive:    input.Body.IsActive,
	})
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: *category}, nil
}

func (s *Server) handleDeleteCategory(ctx context.Context, input *DeleteCategoryInput) (*DeleteCategoryOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	result, err := s.services.Category.DeleteCategory(ctx, input.ID, input.Force)
	if err != nil {
		return nil, err
	}
	return &DeleteCategoryOutput{Body: *result}, nil
}
