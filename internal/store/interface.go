// Package store defines the persistence interface for the Ember server.
package store

import (
	"context"
	"time"

	"github.com/emberforum/ember-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.User], error)

	// Auth Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteAllUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Categories
	CreateCategory(ctx context.Context, c *domain.Category) error
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListCategories(ctx context.Context, includeInactive bool) ([]*domain.Category, error)
	UpdateCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id string, detachPosts bool) error
	CategorySlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	CountPostsInCategory(ctx context.Context, categoryID string) (int, error)

	// Tags
	CreateTag(ctx context.Context, t *domain.Tag) error
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	GetTagBySlug(ctx context.Context, slug string) (*domain.Tag, error)
	GetTagsByIDs(ctx context.Context, ids []string) ([]*domain.Tag, error)
	ListTags(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.Tag], error)
	ListAllTags(ctx context.Context) ([]*domain.Tag, error)
	UpdateTag(ctx context.Context, t *domain.Tag) error
	DeleteTag(ctx context.Context, id string) error
	TagSlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	MergeTags(ctx context.Context, sourceIDs []string, targetID string) (*domain.Tag, error)
	CountPostsForTag(ctx context.Context, tagID string) (int, error)
	RecalculateTagPostCount(ctx context.Context, tagID string) error

	// Posts
	CreatePost(ctx context.Context, p *domain.Post) error
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error)
	UpdatePost(ctx context.Context, p *domain.Post) error
	DeletePost(ctx context.Context, id string) error
	ListPosts(ctx context.Context, filter PostFilter, params PaginationParams) (*PaginatedResult[*domain.Post], error)
	PostSlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	SetPostTags(ctx context.Context, postID string, tagIDs []string) error
	GetTagsForPost(ctx context.Context, postID string) ([]*domain.Tag, error)

	// Comments
	CreateComment(ctx context.Context, c *domain.Comment) error
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	UpdateComment(ctx context.Context, c *domain.Comment) error
	DeleteComment(ctx context.Context, id string) error
	ListCommentsForPost(ctx context.Context, postID string, params PaginationParams) (*PaginatedResult[*domain.Comment], error)
	GetCommentVote(ctx context.Context, commentID, userID string) (*domain.CommentVote, error)
	ApplyCommentVote(ctx context.Context, commentID, userID string, next domain.VoteState) (*domain.Comment, error)
	GetCommentReaction(ctx context.Context, commentID, userID string) (*domain.CommentReaction, error)
	ApplyCommentReaction(ctx context.Context, commentID, userID string, next domain.ReactionState) (*domain.Comment, error)
	GetCommentReactionCounts(ctx context.Context, commentID string) (map[domain.ReactionType]int, error)

	// Communities
	CreateCommunity(ctx context.Context, c *domain.Community, creator *domain.CommunityMember) error
	GetCommunity(ctx context.Context, id string) (*domain.Community, error)
	GetCommunityBySlug(ctx context.Context, slug string) (*domain.Community, error)
	UpdateCommunity(ctx context.Context, c *domain.Community) error
	DeleteCommunity(ctx context.Context, id string) error
	ListCommunities(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.Community], error)
	CommunitySlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	GetCommunityMember(ctx context.Context, communityID, userID string) (*domain.CommunityMember, error)
	UpsertCommunityMember(ctx context.Context, m *domain.CommunityMember) error
	DeleteCommunityMember(ctx context.Context, communityID, userID string) error
	ListCommunityMembers(ctx context.Context, communityID string, status domain.MembershipStatus) ([]*domain.CommunityMember, error)
	CountActiveMemberships(ctx context.Context, userID string) (int, error)
}

// PostFilter narrows ListPosts results. Zero values mean "any".
type PostFilter struct {
	AuthorID      string
	CategoryID    string
	CommunityID   string
	TagID         string
	PublishedOnly bool
	Before        *time.Time
}
