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

// DefaultMaxMemberships caps how many communities a user can be an
// active member of when no limit is configured.
const DefaultMaxMemberships = 10

// CommunityService manages communities and their memberships. Joining a
// public community is immediate; private communities queue a pending
// request that a moderator approves. Active memberships (creator or
// approved) count against a per-user cap.
type CommunityService struct {
	store          store.Store
	maxMemberships int
	logger         *slog.Logger
}

// NewCommunityService creates a new community service. maxMemberships is
// the per-user cap on active memberships; pass 0 to use the default.
func NewCommunityService(store store.Store, maxMemberships int, logger *slog.Logger) *CommunityService {
	if maxMemberships <= 0 {
		maxMemberships = DefaultMaxMemberships
	}
	return &CommunityService{
		store:          store,
		maxMemberships: maxMemberships,
		logger:         logger,
	}
}

// CreateCommunityInput carries the fields for a new community.
type CreateCommunityInput struct {
	Name        string
	Description string
	CategoryID  string
	IsPrivate   bool
	CreatorID   string
}

// UpdateCommunityInput carries the mutable community fields. Nil
// pointers leave the current value unchanged.
type UpdateCommunityInput struct {
	Name        *string
	Description *string
	CategoryID  *string
	IsPrivate   *bool
}

// JoinResult reports the outcome of a join request. Pending means the
// community is private and a moderator still has to approve.
type JoinResult struct {
	Member  *domain.CommunityMember `json:"member"`
	Pending bool                    `json:"pending"`
}

// ListCommunities returns a page of communities, largest first.
func (s *CommunityService) ListCommunities(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Community], error) {
	return s.store.ListCommunities(ctx, params)
}

// GetCommunity returns a community by ID.
func (s *CommunityService) GetCommunity(ctx context.Context, communityID string) (*domain.Community, error) {
	c, err := s.store.GetCommunity(ctx, communityID)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("community not found")
	}
	return c, err
}

// GetCommunityBySlug returns a community by its slug.
func (s *CommunityService) GetCommunityBySlug(ctx context.Context, slugStr string) (*domain.Community, error) {
	c, err := s.store.GetCommunityBySlug(ctx, slugStr)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("community not found")
	}
	return c, err
}

// CreateCommunity creates a community with the creator as its first
// member. The creator membership counts against the membership cap.
func (s *CommunityService) CreateCommunity(ctx context.Context, input CreateCommunityInput) (*domain.Community, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.Validation("community name is required")
	}

	if err := s.checkMembershipCap(ctx, input.CreatorID); err != nil {
		return nil, err
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
			return nil, errors.Validation("cannot create a community in an inactive category")
		}
	}

	slugStr, err := slug.GenerateUnique(ctx, name, slug.DefaultMaxLength, s.store.CommunitySlugExists, "")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	community := &domain.Community{
		ID:          id.MustGenerate("com"),
		Name:        name,
		Slug:        slugStr,
		Description: strings.TrimSpace(input.Description),
		CategoryID:  input.CategoryID,
		CreatorID:   input.CreatorID,
		IsPrivate:   input.IsPrivate,
		MemberCount: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	creator := &domain.CommunityMember{
		CommunityID: community.ID,
		UserID:      input.CreatorID,
		Role:        domain.CommunityRoleAdmin,
		Status:      domain.MembershipCreator,
		JoinedAt:    now,
	}

	if err := s.store.CreateCommunity(ctx, community, creator); err != nil {
		if isAlreadyExists(err) {
			return nil, errors.AlreadyExistsf("community %q already exists", name)
		}
		return nil, err
	}
	return community, nil
}

// UpdateCommunity applies the provided changes. Only moderators of the
// community may update it.
func (s *CommunityService) UpdateCommunity(ctx context.Context, communityID, userID string, input UpdateCommunityInput) (*domain.Community, error) {
	community, err := s.GetCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}

	if err := s.requireModerator(ctx, communityID, userID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.Validation("community name cannot be empty")
		}
		community.Name = name
	}
	if input.Description != nil {
		community.Description = strings.TrimSpace(*input.Description)
	}
	if input.CategoryID != nil {
		community.CategoryID = *input.CategoryID
	}
	if input.IsPrivate != nil {
		community.IsPrivate = *input.IsPrivate
	}

	community.Touch()
	if err := s.store.UpdateCommunity(ctx, community); err != nil {
		return nil, err
	}
	return community, nil
}

// DeleteCommunity removes a community and its memberships. Only the
// creator may delete it.
func (s *CommunityService) DeleteCommunity(ctx context.Context, communityID, userID string) error {
	community, err := s.GetCommunity(ctx, communityID)
	if err != nil {
		return err
	}
	if community.CreatorID != userID {
		return errors.Forbidden("only the creator can delete a community")
	}
	return s.store.DeleteCommunity(ctx, communityID)
}

// Join adds the user to a community. Public communities grant immediate
// membership; private ones record a pending request. Banned users are
// refused. The membership cap applies when membership becomes active, so
// a pending request never consumes a slot.
func (s *CommunityService) Join(ctx context.Context, communityID, userID string) (*JoinResult, error) {
	community, err := s.GetCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetCommunityMember(ctx, communityID, userID)
	if err != nil && err != store.ErrNotFound {
		return nil, err
	}
	if existing != nil {
		switch {
		case existing.Status == domain.MembershipBanned:
			return nil, errors.Forbidden("you are banned from this community")
		case existing.Status == domain.MembershipPending:
			return nil, errors.Conflict("join request already pending")
		case existing.Status.Active():
			return nil, errors.Conflict("already a member of this community")
		}
	}

	status := domain.MembershipApproved
	if community.IsPrivate {
		status = domain.MembershipPending
	} else if err := s.checkMembershipCap(ctx, userID); err != nil {
		return nil, err
	}

	member := &domain.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        domain.CommunityRoleMember,
		Status:      status,
		JoinedAt:    time.Now().UTC(),
	}
	if err := s.store.UpsertCommunityMember(ctx, member); err != nil {
		return nil, err
	}

	return &JoinResult{Member: member, Pending: status == domain.MembershipPending}, nil
}

// Leave removes the user's membership. The creator cannot leave; they
// must delete the community instead.
func (s *CommunityService) Leave(ctx context.Context, communityID, userID string) error {
	member, err := s.getMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if member.Status == domain.MembershipCreator {
		return errors.Forbidden("the creator cannot leave their community")
	}
	return s.store.DeleteCommunityMember(ctx, communityID, userID)
}

// ApproveMember grants a pending join request. Requires moderator rights
// and enforces the requester's membership cap at approval time.
func (s *CommunityService) ApproveMember(ctx context.Context, communityID, moderatorID, userID string) (*domain.CommunityMember, error) {
	if err := s.requireModerator(ctx, communityID, moderatorID); err != nil {
		return nil, err
	}

	member, err := s.getMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if member.Status != domain.MembershipPending {
		return nil, errors.Conflict("membership is not pending approval")
	}

	if err := s.checkMembershipCap(ctx, userID); err != nil {
		return nil, err
	}

	member.Status = domain.MembershipApproved
	if err := s.store.UpsertCommunityMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// BanMember bans a member from the community. Requires moderator rights;
// the creator can never be banned.
func (s *CommunityService) BanMember(ctx context.Context, communityID, moderatorID, userID string) (*domain.CommunityMember, error) {
	if err := s.requireModerator(ctx, communityID, moderatorID); err != nil {
		return nil, err
	}

	member, err := s.getMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if member.Status == domain.MembershipCreator {
		return nil, errors.Forbidden("the creator cannot be banned")
	}

	member.Status = domain.MembershipBanned
	if err := s.store.UpsertCommunityMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember kicks a member out of the community. Unlike a ban, the
// user may rejoin later. Requires moderator rights; the creator cannot
// be removed.
func (s *CommunityService) RemoveMember(ctx context.Context, communityID, moderatorID, userID string) error {
	if err := s.requireModerator(ctx, communityID, moderatorID); err != nil {
		return err
	}

	member, err := s.getMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if member.Status == domain.MembershipCreator {
		return errors.Forbidden("the creator cannot be removed")
	}
	return s.store.DeleteCommunityMember(ctx, communityID, userID)
}

// SetMemberRole changes an active member's role. Only the creator or a
// community admin may assign roles; the creator's own record is fixed.
func (s *CommunityService) SetMemberRole(ctx context.Context, communityID, actorID, userID string, role domain.CommunityRole) (*domain.CommunityMember, error) {
	if !role.Valid() {
		return nil, errors.Validationf("unknown role %q", role)
	}

	actor, err := s.getMember(ctx, communityID, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Status != domain.MembershipCreator && actor.Role != domain.CommunityRoleAdmin {
		return nil, errors.Forbidden("only the creator or an admin can assign roles")
	}

	member, err := s.getMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if member.Status == domain.MembershipCreator {
		return nil, errors.Forbidden("the creator's role cannot be changed")
	}
	if !member.Status.Active() {
		return nil, errors.Conflict("cannot assign a role to an inactive member")
	}

	member.Role = role
	if err := s.store.UpsertCommunityMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// ListMembers returns a community's members, optionally filtered by
// status. The creator sorts first.
func (s *CommunityService) ListMembers(ctx context.Context, communityID string, status domain.MembershipStatus) ([]*domain.CommunityMember, error) {
	if _, err := s.GetCommunity(ctx, communityID); err != nil {
		return nil, err
	}
	return s.store.ListCommunityMembers(ctx, communityID, status)
}

// GetMembership returns the user's membership in a community, if any.
func (s *CommunityService) GetMembership(ctx context.Context, communityID, userID string) (*domain.CommunityMember, error) {
	return s.getMember(ctx, communityID, userID)
}

// checkMembershipCap fails with a limit error when the user already
// holds the maximum number of active memberships.
func (s *CommunityService) checkMembershipCap(ctx context.Context, userID string) error {
	count, err := s.store.CountActiveMemberships(ctx, userID)
	if err != nil {
		return err
	}
	if count >= s.maxMemberships {
		return errors.LimitExceededf("membership limit of %d communities reached", s.maxMemberships)
	}
	return nil
}

// requireModerator fails unless userID holds moderation rights in the
// community.
func (s *CommunityService) requireModerator(ctx context.Context, communityID, userID string) error {
	member, err := s.store.GetCommunityMember(ctx, communityID, userID)
	if err != nil {
		if err == store.ErrNotFound {
			return errors.Forbidden("moderator rights required")
		}
		return err
	}
	if !member.CanModerate() {
		return errors.Forbidden("moderator rights required")
	}
	return nil
}

func (s *CommunityService) getMember(ctx context.Context, communityID, userID string) (*domain.CommunityMember, error) {
	member, err := s.store.GetCommunityMember(ctx, communityID, userID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("membership not found")
		}
		return nil, err
	}
	return member, nil
}
