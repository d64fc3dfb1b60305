package domain

import "time"

// Tag is a global label for categorizing posts. Tags are shared across the
// whole platform; Slug is unique among live tags and is the URL identity.
// Name keeps the creator's capitalization for display.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	PostCount int       `json:"post_count"` // Denormalized count of posts carrying this tag
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now().UTC()
}

// PostTag links a post to a tag. A post carries each tag at most once.
type PostTag struct {
	PostID    string    `json:"post_id"`
	TagID     string    `json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SimilarTag is a scored match from the tag similarity scan. Derived,
// never persisted.
type SimilarTag struct {
	TagID     string `json:"tag_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Score     int    `json:"score"` // 0-100, higher = more similar
	PostCount int    `json:"post_count"`
}
