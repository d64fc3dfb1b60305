package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/store"
)

const postColumns = `id, title, slug, content, author_id, category_id, community_id, image_url, comment_count, published_at, created_at, updated_at`

func scanPost(scanner interface{ Scan(dest ...any) error }) (*domain.Post, error) {
	var p domain.Post

	var (
		categoryID  sql.NullString
		communityID sql.NullString
		publishedAt sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&p.ID,
		&p.Title,
		&p.Slug,
		&p.Content,
		&p.AuthorID,
		&categoryID,
		&communityID,
		&p.ImageURL,
		&p.CommentCount,
		&publishedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.CategoryID = categoryID.String
	p.CommunityID = communityID.String
	p.PublishedAt, err = parseNullableTime(publishedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	p.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// CreatePost inserts a new post.
// Returns store.ErrAlreadyExists on duplicate slug.
func (s *Store) CreatePost(ctx context.Context, p *domain.Post) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, title, slug, content, author_id, category_id, community_id, image_url, comment_count, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Title,
		p.Slug,
		p.Content,
		p.AuthorID,
		nullString(p.CategoryID),
		nullString(p.CommunityID),
		p.ImageURL,
		p.CommentCount,
		nullTimeString(p.PublishedAt),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists.WithMessage("post slug already in use")
		}
		return err
	}
	return nil
}

// GetPost retrieves a post by ID, with its tags attached.
func (s *Store) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)

	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Tags, err = s.GetTagsForPost(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPostBySlug retrieves a post by slug, with its tags attached.
func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)

	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Tags, err = s.GetTagsForPost(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePost persists all mutable post fields. Tags are managed separately
// via SetPostTags.
func (s *Store) UpdatePost(ctx context.Context, p *domain.Post) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET title = ?, slug = ?, content = ?, category_id = ?, community_id = ?, image_url = ?, published_at = ?, updated_at = ?
		WHERE id = ?`,
		p.Title,
		p.Slug,
		p.Content,
		nullString(p.CategoryID),
		nullString(p.CommunityID),
		p.ImageURL,
		nullTimeString(p.PublishedAt),
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists.WithMessage("post slug already in use")
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeletePost removes a post. Associations and comments cascade. Affected
// tag counts are resynced in the same transaction.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT tag_id FROM post_tags WHERE post_id = ?`, id)
	if err != nil {
		return err
	}
	var tagIDs []string
	for rows.Next() {
		var tagID string
		if err := rows.Scan(&tagID); err != nil {
			rows.Close()
			return err
		}
		tagIDs = append(tagIDs, tagID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, `
			UPDATE tags
			SET post_count = (SELECT COUNT(*) FROM post_tags WHERE tag_id = ?)
			WHERE id = ?`,
			tagID, tagID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListPosts returns a filtered page of posts ordered newest first.
func (s *Store) ListPosts(ctx context.Context, filter store.PostFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Post], error) {
	params.Validate()

	where := []string{"1=1"}
	var args []any

	if filter.AuthorID != "" {
		where = append(where, "p.author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.CategoryID != "" {
		where = append(where, "p.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.CommunityID != "" {
		where = append(where, "p.community_id = ?")
		args = append(args, filter.CommunityID)
	}
	if filter.TagID != "" {
		where = append(where, "p.id IN (SELECT post_id FROM post_tags WHERE tag_id = ?)")
		args = append(args, filter.TagID)
	}
	if filter.PublishedOnly {
		where = append(where, "p.published_at IS NOT NULL AND p.published_at <= ?")
		args = append(args, formatTime(time.Now().UTC()))
	}
	if filter.Before != nil {
		where = append(where, "p.created_at < ?")
		args = append(args, formatTime(*filter.Before))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts p WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM posts p WHERE %s
		ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`,
		postColumns, whereClause)
	rows, err := s.db.QueryContext(ctx, query, append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range posts {
		p.Tags, err = s.GetTagsForPost(ctx, p.ID)
		if err != nil {
			return nil, err
		}
	}

	return store.NewPaginatedResult(posts, total, params), nil
}

// PostSlugExists reports whether a slug is taken by a post other than excludeID.
func (s *Store) PostSlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetPostTags replaces all tags for a post in a single transaction and
// resyncs the post counts of every affected tag.
func (s *Store) SetPostTags(ctx context.Context, postID string, tagIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Collect the union of old and new tag IDs for the recount.
	affected := map[string]bool{}
	rows, err := tx.QueryContext(ctx,
		`SELECT tag_id FROM post_tags WHERE post_id = ?`, postID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var tagID string
		if err := rows.Scan(&tagID); err != nil {
			rows.Close()
			return err
		}
		affected[tagID] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM post_tags WHERE post_id = ?`, postID); err != nil {
		return fmt.Errorf("delete post_tags: %w", err)
	}

	now := formatTime(time.Now().UTC())
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO post_tags (post_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			postID, tagID, now)
		if err != nil {
			return fmt.Errorf("insert post_tag: %w", err)
		}
		affected[tagID] = true
	}

	for tagID := range affected {
		if _, err := tx.ExecContext(ctx, `
			UPDATE tags
			SET post_count = (SELECT COUNT(*) FROM post_tags WHERE tag_id = ?)
			WHERE id = ?`,
			tagID, tagID); err != nil {
			return fmt.Errorf("recount tag: %w", err)
		}
	}

	return tx.Commit()
}

// GetTagsForPost returns the tags attached to a post ordered by name.
func (s *Store) GetTagsForPost(ctx context.Context, postID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixColumns("t", tagColumns)+`
		FROM tags t
		JOIN post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = ?
		ORDER BY t.name ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []*domain.Tag{}
	}

	return tags, nil
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
