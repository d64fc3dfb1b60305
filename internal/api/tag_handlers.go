package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/service"
	"github.com/emberforum/ember-server/internal/store"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns tags ordered by popularity",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags",
		Summary:     "Create tag",
		Description: "Creates a tag. Names similar to existing tags come back as warnings; an exact duplicate is rejected.",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "bulkCreateTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/bulk",
		Summary:     "Bulk create tags",
		Description: "Creates several tags at once. Duplicates resolve to the existing tag and failures are reported per name instead of failing the batch.",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleBulkCreateTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "findSimilarTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/similar",
		Summary:     "Find similar tags",
		Description: "Scores every tag against a candidate name and returns close matches",
		Tags:        []string{"Tags"},
	}, s.handleFindSimilarTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "mergeTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/merge",
		Summary:     "Merge tags",
		Description: "Folds source tags into a target tag, moving post associations. Admin only.",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMergeTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Get tag",
		Tags:        []string{"Tags"},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete tag",
		Description: "Deletes a tag. Tags still carried by posts are refused unless force is set. Admin only.",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTag)
}

// === DTOs ===

// ListTagsInput carries pagination for the tag list.
type ListTagsInput struct {
	Limit  int `query:"limit" doc:"Items per page, max 100" default:"20"`
	Offset int `query:"offset" doc:"Items to skip" default:"0"`
}

// TagListOutput wraps a page of tags for Huma.
type TagListOutput struct {
	Body store.PaginatedResult[*domain.Tag]
}

// CreateTagInput wraps the tag creation request for Huma.
type CreateTagInput struct {
	Body struct {
		Name string `json:"name" doc:"Display name for the tag"`
	}
}

// CreateTagOutput wraps the creation result for Huma.
type CreateTagOutput struct {
	Body service.CreateTagResult
}

// BulkCreateTagsInput wraps the bulk creation request for Huma.
type BulkCreateTagsInput struct {
	Body struct {
		Names []string `json:"names" doc:"Tag names to create"`
	}
}

// BulkCreateTagsOutput wraps the bulk creation result for Huma.
type BulkCreateTagsOutput struct {
	Body service.BulkCreateTagsResult
}

// FindSimilarTagsInput carries the candidate name to score.
type FindSimilarTagsInput struct {
	Name  string `query:"name" doc:"Candidate tag name"`
	Limit int    `query:"limit" doc:"Maximum matches to return" default:"20"`
}

// SimilarTagsOutput wraps the similarity matches for Huma.
type SimilarTagsOutput struct {
	Body struct {
		Matches []domain.SimilarTag `json:"matches"`
	}
}

// MergeTagsInput wraps the merge request for Huma.
type MergeTagsInput struct {
	Body struct {
		SourceIDs []string `json:"source_ids" doc:"Tags to fold into the target"`
		TargetID  string   `json:"target_id" doc:"Surviving tag"`
	}
}

// TagOutput wraps a single tag for Huma.
type TagOutput struct {
	Body domain.Tag
}

// GetTagInput identifies a tag by ID.
type GetTagInput struct {
	ID string `path:"id" doc:"Tag ID"`
}

// DeleteTagInput identifies a tag to delete.
type DeleteTagInput struct {
	ID    string `path:"id" doc:"Tag ID"`
	Force bool   `query:"force" doc:"Delete even if posts still carry the tag"`
}

// DeleteTagOutput wraps the delete result for Huma.
type DeleteTagOutput struct {
	Body service.DeleteTagResult
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *ListTagsInput) (*TagListOutput, error) {
	page, err := s.services.Tag.ListTags(ctx, store.PaginationParams{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &TagListOutput{Body: *page}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*CreateTagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Tag.CreateTag(ctx, input.Body.Name, userID)
	if err != nil {
		return nil, err
	}
	return &CreateTagOutput{Body: *result}, nil
}

func (s *Server) handleBulkCreateTags(ctx context.Context, input *BulkCreateTagsInput) (*BulkCreateTagsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Tag.BulkCreateTags(ctx, input.Body.Names, userID)
	if err != nil {
		return nil, err
	}
	return &BulkCreateTagsOutput{Body: *result}, nil
}

func (s *Server) handleFindSimilarTags(ctx context.Context, input *FindSimilarTagsInput) (*SimilarTagsOutput, error) {
	matches, err := s.services.Tag.FindSimilarTags(ctx, input.Name, input.Limit)
	if err != nil {
		return nil, err
	}

	out := &SimilarTagsOutput{}
	out.Body.Matches = matches
	return out, nil
}

func (s *Server) handleMergeTags(ctx context.Context, input *MergeTagsInput) (*TagOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	target, err := s.services.Tag.MergeTags(ctx, input.Body.SourceIDs, input.Body.TargetID)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: *target}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *GetTagInput) (*TagOutput, error) {
	tag, err := s.services.Tag.GetTag(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: *tag}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *DeleteTagInput) (*DeleteTagOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	result, err := s.services.Tag.DeleteTag(ctx, input.ID, input.Force)
	if err != nil {
		return nil, err
	}
	return &DeleteTagOutput{Body: *result}, nil
}
