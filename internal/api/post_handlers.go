package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/service"
	"github.com/emberforum/ember-server/internal/store"
)

func (s *Server) registerPostRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPosts",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts",
		Summary:     "List posts",
		Description: "Returns published posts, newest first, with optional filters",
		Tags:        []string{"Posts"},
	}, s.handleListPosts)

	huma.Register(s.api, huma.Operation{
		OperationID: "createPost",
		Method:      http.MethodPost,
		Path:        "/api/v1/posts",
		Summary:     "Create post",
		Description: "Creates a post, as a draft unless publish is set. Posting into a community requires membership.",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreatePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPostBySlug",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/by-slug/{slug}",
		Summary:     "Get post by slug",
		Tags:        []string{"Posts"},
	}, s.handleGetPostBySlug)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPost",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Get post",
		Description: "Returns a post with its tags. Drafts are visible only to their author or an admin.",
		Tags:        []string{"Posts"},
	}, s.handleGetPost)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePost",
		Method:      http.MethodPatch,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Update post",
		Description: "Updates post fields. The slug never changes on edit.",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdatePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "publishPost",
		Method:      http.MethodPost,
		Path:        "/api/v1/posts/{id}/publish",
		Summary:     "Publish post",
		Description: "Makes a draft visible. Publishing twice is a no-op.",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePublishPost)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePost",
		Method:      http.MethodDelete,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Delete post",
		Description: "Deletes a post. Allowed for the author, an admin, or a moderator of the post's community.",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeletePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPostComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/{id}/comments",
		Summary:     "List comments",
		Description: "Returns a post's comments, oldest first",
		Tags:        []string{"Comments"},
	}, s.handleListPostComments)

	huma.Register(s.api, huma.Operation{
		OperationID: "createComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/posts/{id}/comments",
		Summary:     "Create comment",
		Description: "Adds a comment to a post. Replies nest one level deep.",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateComment)
}

// === DTOs ===

// ListPostsInput carries filters and pagination for the post list.
type ListPostsInput struct {
	AuthorID    string `query:"author_id" doc:"Filter by author"`
	CategoryID  string `query:"category_id" doc:"Filter by category"`
	CommunityID string `query:"community_id" doc:"Filter by community"`
	TagID       string `query:"tag_id" doc:"Filter by tag"`
	Limit       int    `query:"limit" doc:"Items per page, max 100" default:"20"`
	Offset      int    `query:"offset" doc:"Items to skip" default:"0"`
}

// PostListOutput wraps a page of posts for Huma.
type PostListOutput struct {
	Body store.PaginatedResult[*domain.Post]
}

// CreatePostInput wraps the post creation request for Huma.
type CreatePostInput struct {
	Body struct {
		Title       string   `json:"title" doc:"Post title, up to 200 characters"`
		Content     string   `json:"content" doc:"Post body"`
		CategoryID  string   `json:"category_id,omitempty" doc:"Optional category"`
		CommunityID string   `json:"community_id,omitempty" doc:"Optional community; requires active membership"`
		ImageURL    string   `json:"image_url,omitempty" doc:"Optional header image"`
		TagIDs      []string `json:"tag_ids,omitempty" doc:"Up to 10 tag IDs"`
		Publish     bool     `json:"publish,omitempty" doc:"Publish immediately instead of saving a draft"`
	}
}

// PostOutput wraps a single post for Huma.
type PostOutput struct {
	Body domain.Post
}

// GetPostInput identifies a post by ID.
type GetPostInput struct {
	ID string `path:"id" doc:"Post ID"`
}

// GetPostBySlugInput identifies a post by slug.
type GetPostBySlugInput struct {
	Slug string `path:"slug" doc:"Post slug"`
}

// UpdatePostInput wraps the post update request for Huma. Omitted fields
// are left unchanged; an empty tag_ids array clears the tags.
type UpdatePostInput struct {
	ID   string `path:"id" doc:"Post ID"`
	Body struct {
		Title      *string   `json:"title,omitempty"`
		Content    *string   `json:"content,omitempty"`
		CategoryID *string   `json:"category_id,omitempty"`
		ImageURL   *string   `json:"image_url,omitempty"`
		TagIDs     *[]string `json:"tag_ids,omitempty"`
	}
}

// ListPostCommentsInput carries pagination for a post's comment list.
type ListPostCommentsInput struct {
	ID     string `path:"id" doc:"Post ID"`
	Limit  int    `query:"limit" doc:"Items per page, max 100" default:"20"`
	Offset int    `query:"offset" doc:"Items to skip" default:"0"`
}

// CommentListOutput wraps a page of comments for Huma.
type CommentListOutput struct {
	Body store.PaginatedResult[*domain.Comment]
}

// CreateCommentInput wraps the comment creation request for Huma.
type CreateCommentInput struct {
	ID   string `path:"id" doc:"Post ID"`
	Body struct {
		Content  string `json:"content" doc:"Comment text"`
		ParentID string `json:"parent_id,omitempty" doc:"Comment being replied to"`
	}
}

// CommentOutput wraps a single comment for Huma.
type CommentOutput struct {
	Body domain.Comment
}

// === Handlers ===

func (s *Server) handleListPosts(ctx context.Context, input *ListPostsInput) (*PostListOutput, error) {
	page, err := s.services.Post.ListPosts(ctx, store.PostFilter{
		AuthorID:      input.AuthorID,
		CategoryID:    input.CategoryID,
		CommunityID:   input.CommunityID,
		TagID:         input.TagID,
		PublishedOnly: true,
	}, store.PaginationParams{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &PostListOutput{Body: *page}, nil
}

func (s *Server) handleCreatePost(ctx context.Context, input *CreatePostInput) (*PostOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	post, err := s.services.Post.CreatePost(ctx, service.CreatePostInput{
		Title:       input.Body.Title,
		Content:     input.Body.Content,
		AuthorID:    userID,
		CategoryID:  input.Body.CategoryID,
		CommunityID: input.Body.CommunityID,
		ImageURL:    input.Body.ImageURL,
		TagIDs:      input.Body.TagIDs,
		Publish:     input.Body.Publish,
	})
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: *post}, nil
}

func (s *Server) handleGetPost(ctx context.Context, input *GetPostInput) (*PostOutput, error) {
	viewerID, isAdmin := viewerIdentity(ctx)
	post, err := s.services.Post.GetPost(ctx, input.ID, viewerID, isAdmin)
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: *post}, nil
}

func (s *Server) handleGetPostBySlug(ctx context.Context, input *GetPostBySlugInput) (*PostOutput, error) {
	viewerID, isAdmin := viewerIdentity(ctx)
	post, err := s.services.Post.GetPostBySlug(ctx, input.Slug, viewerID, isAdmin)
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: *post}, nil
}

func (s *Server) handleUpdatePost(ctx context.Context, input *UpdatePostInput) (*PostOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	post, err := s.services.Post.UpdatePost(ctx, input.ID, user.ID, user.IsAdmin(), service.UpdatePostInput{
		Title:      input.Body.Title,
		Content:    input.Body.Content,
		CategoryID: input.Body.CategoryID,
		ImageURL:   input.Body.ImageURL,
		TagIDs:     input.Body.TagIDs,
	})
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: *post}, nil
}

func (s *Server) handlePublishPost(ctx context.Context, input *GetPostInput) (*PostOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	post, err := s.services.Post.PublishPost(ctx, input.ID, user.ID, user.IsAdmin())
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: *post}, nil
}

func (s *Server) handleDeletePost(ctx context.Context, input *GetPostInput) (*EmptyOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Post.DeletePost(ctx, input.ID, user.ID, user.IsAdmin()); err != nil {
		return nil, err
	}
	out := &EmptyOutput{}
	out.Body.OK = true
	return out, nil
}

func (s *Server) handleListPostComments(ctx context.Context, input *ListPostCommentsInput) (*CommentListOutput, error) {
	page, err := s.services.Comment.ListComments(ctx, input.ID, store.PaginationParams{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &CommentListOutput{Body: *page}, nil
}

func (s *Server) handleCreateComment(ctx context.Context, input *CreateCommentInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Comment.CreateComment(ctx, service.CreateCommentInput{
		PostID:   input.ID,
		AuthorID: userID,
		ParentID: input.Body.ParentID,
		Content:  input.Body.Content,
	})
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: *comment}, nil
}
