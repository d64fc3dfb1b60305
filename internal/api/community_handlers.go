package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/service"
	"github.com/emberforum/ember-server/internal/store"
)

func (s *Server) registerCommunityRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCommunities",
		Method:      http.MethodGet,
		Path:        "/api/v1/communities",
		Summary:     "List communities",
		Description: "Returns communities, largest first",
		Tags:        []string{"Communities"},
	}, s.handleListCommunities)

	huma.Register(s.api, huma.Operation{
		OperationID: "createCommunity",
		Method:      http.MethodPost,
		Path:        "/api/v1/communities",
		Summary:     "Create community",
		Description: "Creates a community with the caller as its first member. Counts against the membership cap.",
		Tags:        []string{"Communities"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateCommunity)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCommunityBySlug",
		Method:      http.MethodGet,
		Path:        "/api/v1/communities/by-slug/{slug}",
		Summary:     "Get community by slug",
		Tags:        []string{"Communities"},
	}, s.handleGetCommunityBySlug)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCommunity",
		Method:      http.MethodGet,
		Path:        "/api/v1/communities/{id}",
		Summary:     "Get community",
		Tags:        []string{"Communities"},
	}, s.handleGetCommunity)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCommunity",
		Method:      http.MethodPatch,
		Path:        "/api/v1/communities/{id}",
		Summary:     "Update community",
		Description: "Updates community fields. Moderators only.",
		Tags:        []string{"Communities"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCommunity)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCommunity",
		Method:      http.MethodDelete,
		Path:        "/api/v1/communities/{id}",
		Summary:     "Delete community",
		Description: "Deletes a community and its memberships. Creator only.",
		Tags:        []string{"Communities"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteCommunity)

	huma.Register(s.api, huma.Operation{
		OperationID: "joinCommunity",
		Method:      http.MethodPost,
		Path:        "/api/v1/communities/{id}/join",
		Summary:     "Join community",
		Description: "Joins a public community immediately, or queues a join request for a private one",
		Tags:        []string{"Communities"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleJoinCommunity)

	huma.Register(s.api, huma.Operation{
		OperationID: "leaveCommunity",
		Method:      http.MethodPost,
		Path:        "/api/v1/communities/{id}/leave",
		Summary:     "Leave community",
		Description: "Removes the caller's membership. The creator cannot leave.",
		Tags:        []string{"Communities"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLeaveCommunity)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCommunityMembers",
		Method:      http.MethodGet,
		Path:        "/api/v1/communities/{id}/members",
		Summary:     "List members",
		Description: "Returns a community's members, optionally filtered by status",
		Tags:        []string{"Communities"},
	}, s.handleListCommunityMembers)

	huma.Register(s.api, huma.Operation{
		OperationID: "approveCommunityMember",
		Method:      http.MethodPost,
		Path:        "/api/v1/communities/{id}/members/{userId}/approve",
		Summary:     "Approve join request",
		Description: "Grants a pending join request. Moderators only; the requester's membership cap applies here.",
		Tags:        []string{"Communities"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleApproveMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "banCommunityMember",
		Method:      http.MethodPost,
		Path:        "/api/v1/communities/{id}/members/{userId}/ban",
		Summary:     "Ban member",
		Description: "Bans a member from the community. Moderators only; the creator cannot be banned.",
		Tags:        []string{"Communities"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleBanMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeCommunityMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/communities/{id}/members/{userId}",
		Summary:     "Remove member",
		Description: "Kicks a member out; unlike a ban they may rejoin. Moderators only.",
		Tags:        []string{"Communities"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "setCommunityMemberRole",
		Method:      http.MethodPut,
		Path:        "/api/v1/communities/{id}/members/{userId}/role",
		Summary:     "Set member role",
		Description: "Changes an active member's role. Creator or community admin only.",
		Tags:        []string{"Communities"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetMemberRole)
}

// === DTOs ===

// ListCommunitiesInput carries pagination for the community list.
type ListCommunitiesInput struct {
	Limit  int `query:"limit" doc:"Items per page, max 100" default:"20"`
	Offset int `query:"offset" doc:"Items to skip" default:"0"`
}

// CommunityListOutput wraps a page of communities for Huma.
type CommunityListOutput struct {
	Body store.PaginatedResult[*domain.Community]
}

// CreateCommunityInput wraps the community creation request for Huma.
type CreateCommunityInput struct {
	Body struct {
		Name        string `json:"name" doc:"Display name"`
		Description string `json:"description,omitempty" doc:"Short description"`
		CategoryID  string `json:"category_id,omitempty" doc:"Optional category"`
		IsPrivate   bool   `json:"is_private,omitempty" doc:"Require moderator approval to join"`
	}
}

// CommunityOutput wraps a single community for Huma.
type CommunityOutput struct {
	Body domain.Community
}

// GetCommunityInput identifies a community by ID.
type GetCommunityInput struct {
	ID string `path:"id" doc:"Community ID"`
}

// GetCommunityBySlugInput identifies a community by its URL slug.
type GetCommunityBySlugInput struct {
	Slug string `path:"slug" doc:"Community slug"`
}

// UpdateCommunityInput wraps the community update request for Huma.
// Omitted fields are left unchanged.
type UpdateCommunityInput struct {
	ID   string `path:"id" doc:"Community ID"`
	Body struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
		CategoryID  *string `json:"category_id,omitempty"`
		IsPrivate   *bool   `json:"is_private,omitempty"`
	}
}

// JoinCommunityOutput wraps the join result for Huma.
type JoinCommunityOutput struct {
	Body service.JoinResult
}

// ListMembersInput carries the member list filters.
type ListMembersInput struct {
	ID     string `path:"id" doc:"Community ID"`
	Status string `query:"status" doc:"Filter by membership status: creator, approved, pending, or banned"`
}

// MemberListOutput wraps the member list for Huma.
type MemberListOutput struct {
	Body struct {
		Members []*domain.CommunityMember `json:"members"`
	}
}

// MemberInput identifies a member within a community.
type MemberInput struct {
	ID     string `path:"id" doc:"Community ID"`
	UserID string `path:"userId" doc:"Member's user ID"`
}

// MemberOutput wraps a single membership record for Huma.
type MemberOutput struct {
	Body domain.CommunityMember
}

// SetMemberRoleInput wraps the role assignment request for Huma.
type SetMemberRoleInput struct {
	ID     string `path:"id" doc:"Community ID"`
	UserID string `path:"userId" doc:"Member's user ID"`
	Body   struct {
		Role string `json:"role" enum:"member,moderator,admin" doc:"Role to assign"`
	}
}

// === Handlers ===

func (s *Server) handleListCommunities(ctx context.Context, input *ListCommunitiesInput) (*CommunityListOutput, error) {
	page, err := s.services.Community.ListCommunities(ctx, store.PaginationParams{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &CommunityListOutput{Body: *page}, nil
}

func (s *Server) handleCreateCommunity(ctx context.Context, input *CreateCommunityInput) (*CommunityOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	community, err := s.services.Community.CreateCommunity(ctx, service.CreateCommunityInput{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		CategoryID:  input.Body.CategoryID,
		IsPrivate:   input.Body.IsPrivate,
		CreatorID:   userID,
	})
	if err != nil {
		return nil, err
	}
	return &CommunityOutput{Body: *community}, nil
}

func (s *Server) handleGetCommunity(ctx context.Context, input *GetCommunityInput) (*CommunityOutput, error) {
	community, err := s.services.Community.GetCommunity(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CommunityOutput{Body: *community}, nil
}

func (s *Server) handleGetCommunityBySlug(ctx context.Context, input *GetCommunityBySlugInput) (*CommunityOutput, error) {
	community, err := s.services.Community.GetCommunityBySlug(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	return &CommunityOutput{Body: *community}, nil
}

func (s *Server) handleUpdateCommunity(ctx context.Context, input *UpdateCommunityInput) (*CommunityOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	community, err := s.services.Community.UpdateCommunity(ctx, input.ID, userID, service.UpdateCommunityInput{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		CategoryID:  input.Body.CategoryID,
		IsPrivate:   input.Body.IsPrivate,
	})
	if err != nil {
		return nil, err
	}
	return &CommunityOutput{Body: *community}, nil
}

func (s *Server) handleDeleteCommunity(ctx context.Context, input *GetCommunityInput) (*EmptyOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Community.DeleteCommunity(ctx, input.ID, userID); err != nil {
		return nil, err
	}
	out := &EmptyOutput{}
	out.Body.OK = true
	return out, nil
}

func (s *Server) handleJoinCommunity(ctx context.Context, input *GetCommunityInput) (*JoinCommunityOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Community.Join(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}
	return &JoinCommunityOutput{Body: *result}, nil
}

func (s *Server) handleLeaveCommunity(ctx context.Context, input *GetCommunityInput) (*EmptyOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Community.Leave(ctx, input.ID, userID); err != nil {
		return nil, err
	}
	out := &EmptyOutput{}
	out.Body.OK = true
	return out, nil
}

func (s *Server) handleListCommunityMembers(ctx context.Context, input *ListMembersInput) (*MemberListOutput, error) {
	members, err := s.services.Community.ListMembers(ctx, input.ID, domain.MembershipStatus(input.Status))
	if err != nil {
		return nil, err
	}

	out := &MemberListOutput{}
	out.Body.Members = members
	return out, nil
}

func (s *Server) handleApproveMember(ctx context.Context, input *MemberInput) (*MemberOutput, error) {
	moderatorID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	member, err := s.services.Community.ApproveMember(ctx, input.ID, moderatorID, input.UserID)
	if err != nil {
		return nil, err
	}
	return &MemberOutput{Body: *member}, nil
}

func (s *Server) handleBanMember(ctx context.Context, input *MemberInput) (*MemberOutput, error) {
	moderatorID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	member, err := s.services.Community.BanMember(ctx, input.ID, moderatorID, input.UserID)
	if err != nil {
		return nil, err
	}
	return &MemberOutput{Body: *member}, nil
}

func (s *Server) handleRemoveMember(ctx context.Context, input *MemberInput) (*EmptyOutput, error) {
	moderatorID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Community.RemoveMember(ctx, input.ID, moderatorID, input.UserID); err != nil {
		return nil, err
	}
	out := &EmptyOutput{}
	out.Body.OK = true
	return out, nil
}

func (s *Server) handleSetMemberRole(ctx context.Context, input *SetMemberRoleInput) (*MemberOutput, error) {
	actorID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	member, err := s.services.Community.SetMemberRole(ctx, input.ID, actorID, input.UserID, domain.CommunityRole(input.Body.Role))
	if err != nil {
		return nil, err
	}
	return &MemberOutput{Body: *member}, nil
}
