package domain

import "time"

// CommunityRole is a member's role within a community.
type CommunityRole string

const (
	CommunityRoleMember    CommunityRole = "member"
	CommunityRoleModerator CommunityRole = "moderator"
	CommunityRoleAdmin     CommunityRole = "admin"
)

// Valid reports whether r is a known community role.
func (r CommunityRole) Valid() bool {
	return r == CommunityRoleMember || r == CommunityRoleModerator || r == CommunityRoleAdmin
}

// MembershipStatus tracks how a user stands with a community.
type MembershipStatus string

const (
	// MembershipCreator marks the founding member. Exactly one per
	// community, never removable.
	MembershipCreator  MembershipStatus = "creator"
	MembershipApproved MembershipStatus = "approved"
	MembershipPending  MembershipStatus = "pending"
	MembershipBanned   MembershipStatus = "banned"
)

// Active reports whether the membership grants participation rights.
func (s MembershipStatus) Active() bool {
	return s == MembershipCreator || s == MembershipApproved
}

// Community is a member-run group that hosts its own posts.
type Community struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CategoryID  string    `json:"category_id,omitempty"`
	CreatorID   string    `json:"creator_id"`
	IsPrivate   bool      `json:"is_private"` // Private communities require join approval
	MemberCount int       `json:"member_count"`
	PostCount   int       `json:"post_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (c *Community) Touch() {
	c.UpdatedAt = time.Now().UTC()
}

// CommunityMember is one user's membership record in one community.
type CommunityMember struct {
	CommunityID string           `json:"community_id"`
	UserID      string           `json:"user_id"`
	Role        CommunityRole    `json:"role"`
	Status      MembershipStatus `json:"status"`
	JoinedAt    time.Time        `json:"joined_at"`
}

// CanModerate reports whether the member may approve joins, ban members,
// and remove posts in the community.
func (m *CommunityMember) CanModerate() bool {
	if !m.Status.Active() {
		return false
	}
	return m.Status == MembershipCreator ||
		m.Role == CommunityRoleModerator || m.Role == CommunityRoleAdmin
}
