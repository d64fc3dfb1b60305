package domain

import "time"

// Post is a published article or community thread starter.
// CategoryID and CommunityID are optional; a post can live in either, both,
// or neither (a personal blog entry).
type Post struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Content      string     `json:"content"`
	AuthorID     string     `json:"author_id"`
	CategoryID   string     `json:"category_id,omitempty"`
	CommunityID  string     `json:"community_id,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	Tags         []*Tag     `json:"tags,omitempty"`
	CommentCount int        `json:"comment_count"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Published reports whether the post is visible to readers.
func (p *Post) Published() bool {
	return p.PublishedAt != nil && !p.PublishedAt.After(time.Now())
}

// Touch updates the UpdatedAt timestamp.
func (p *Post) Touch() {
	p.UpdatedAt = time.Now().UTC()
}
