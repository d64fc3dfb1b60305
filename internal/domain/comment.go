package domain

import "time"

// VoteType is the direction of a comment vote.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Valid reports whether v is a known vote direction.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// ReactionType is an emoji reaction on a comment.
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionHaha  ReactionType = "haha"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

// ReactionTypes lists every supported reaction in display order.
var ReactionTypes = []ReactionType{
	ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry,
}

// Valid reports whether r is a known reaction.
func (r ReactionType) Valid() bool {
	for _, known := range ReactionTypes {
		if r == known {
			return true
		}
	}
	return false
}

// Comment is a user reply on a post. Replies nest one level deep via
// ParentID; deeper threading flattens to the parent.
type Comment struct {
	ID        string               `json:"id"`
	PostID    string               `json:"post_id"`
	AuthorID  string               `json:"author_id"`
	ParentID  string               `json:"parent_id,omitempty"`
	Content   string               `json:"content"`
	Upvotes   int                  `json:"upvotes"`
	Downvotes int                  `json:"downvotes"`
	Reactions map[ReactionType]int `json:"reactions,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	DeletedAt *time.Time           `json:"-"`
}

// Score is the net vote tally shown next to the comment.
func (c *Comment) Score() int {
	return c.Upvotes - c.Downvotes
}

// Touch updates the UpdatedAt timestamp.
func (c *Comment) Touch() {
	c.UpdatedAt = time.Now().UTC()
}

// CommentVote is one user's current vote on one comment. At most one row
// exists per (comment, user) pair; casting the same direction again
// removes it.
type CommentVote struct {
	CommentID string    `json:"comment_id"`
	UserID    string    `json:"user_id"`
	Vote      VoteType  `json:"vote"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentReaction is one user's current reaction on one comment, same
// one-row-per-pair rule as votes.
type CommentReaction struct {
	CommentID string       `json:"comment_id"`
	UserID    string       `json:"user_id"`
	Reaction  ReactionType `json:"reaction"`
	CreatedAt time.Time    `json:"created_at"`
}

// VoteState is a user's vote on a comment: either no vote (zero value) or
// one direction. Cast applies the toggle rules and returns the next state.
type VoteState struct {
	Vote VoteType // empty when no vote is held
}

// Cast applies a vote action to the current state. Casting the direction
// already held removes the vote; casting the other direction switches it.
func (s VoteState) Cast(v VoteType) VoteState {
	if s.Vote == v {
		return VoteState{}
	}
	return VoteState{Vote: v}
}

// Held reports whether any vote is currently held.
func (s VoteState) Held() bool {
	return s.Vote != ""
}

// ReactionState mirrors VoteState for reactions: one reaction per user per
// comment, toggled off by repeating it.
type ReactionState struct {
	Reaction ReactionType // empty when no reaction is held
}

// Cast applies a reaction action to the current state.
func (s ReactionState) Cast(r ReactionType) ReactionState {
	if s.Reaction == r {
		return ReactionState{}
	}
	return ReactionState{Reaction: r}
}

// Held reports whether any reaction is currently held.
func (s ReactionState) Held() bool {
	return s.Reaction != ""
}
