package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, name, slug, post_count, created_by, created_at, updated_at`

func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag

	var (
		createdBy sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&t.ID,
		&t.Name,
		&t.Slug,
		&t.PostCount,
		&createdBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedBy = createdBy.String
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTag inserts a new tag.
// Returns store.ErrAlreadyExists on duplicate slug.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, slug, post_count, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.Name,
		t.Slug,
		t.PostCount,
		nullString(t.CreatedBy),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists.WithMessage("tag slug already in use")
		}
		return err
	}
	return nil
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTagBySlug retrieves a tag by slug.
func (s *Store) GetTagBySlug(ctx context.Context, slug string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE slug = ?`, slug)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTagsByIDs retrieves tags by ID, skipping IDs with no matching tag.
func (s *Store) GetTagsByIDs(ctx context.Context, ids []string) ([]*domain.Tag, error) {
	if len(ids) == 0 {
		return []*domain.Tag{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id IN (`+placeholders+`)`, args...)
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

// ListTags returns a page of tags ordered by post count descending then name.
func (s *Store) ListTags(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Tag], error) {
	params.Validate()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags
		 ORDER BY post_count DESC, name ASC LIMIT ? OFFSET ?`,
		params.Limit, params.Offset)
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

	return store.NewPaginatedResult(tags, total, params), nil
}

// ListAllTags returns every tag ordered by name. Used by the similarity scan.
func (s *Store) ListAllTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY name ASC`)
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

// UpdateTag persists all mutable tag fields.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tags SET name = ?, slug = ?, post_count = ?, updated_at = ? WHERE id = ?`,
		t.Name,
		t.Slug,
		t.PostCount,
		formatTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists.WithMessage("tag slug already in use")
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

// DeleteTag removes a tag and its post associations.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
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
	return nil
}

// TagSlugExists reports whether a slug is taken by a tag other than excludeID.
func (s *Store) TagSlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tags WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MergeTags moves all post associations from the source tags onto the target
// in a single transaction, deletes the sources, and returns the target with
// its recomputed post count. Posts already carrying the target keep a single
// association.
func (s *Store) MergeTags(ctx context.Context, sourceIDs []string, targetID string) (*domain.Tag, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tags WHERE id = ?`, targetID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, store.ErrNotFound.WithMessage("target tag not found")
	}

	for _, sourceID := range sourceIDs {
		// Re-point associations; skip posts that already carry the target.
		_, err := tx.ExecContext(ctx, `
			UPDATE OR IGNORE post_tags SET tag_id = ? WHERE tag_id = ?`,
			targetID, sourceID)
		if err != nil {
			return nil, fmt.Errorf("repoint post_tags: %w", err)
		}

		// Whatever survived the re-point is a duplicate.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM post_tags WHERE tag_id = ?`, sourceID); err != nil {
			return nil, fmt.Errorf("drop duplicate post_tags: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM tags WHERE id = ?`, sourceID); err != nil {
			return nil, fmt.Errorf("delete source tag: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE tags
		SET post_count = (SELECT COUNT(*) FROM post_tags WHERE tag_id = ?)
		WHERE id = ?`,
		targetID, targetID); err != nil {
		return nil, fmt.Errorf("recount target: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, targetID)
	target, err := scanTag(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return target, nil
}

// CountPostsForTag returns the number of posts carrying a tag, counted from
// the association table rather than the denormalized column.
func (s *Store) CountPostsForTag(ctx context.Context, tagID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_tags WHERE tag_id = ?`, tagID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// RecalculateTagPostCount resyncs a tag's denormalized post count with the
// association table.
func (s *Store) RecalculateTagPostCount(ctx context.Context, tagID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tags
		SET post_count = (SELECT COUNT(*) FROM post_tags WHERE tag_id = ?)
		WHERE id = ?`,
		tagID, tagID)
	return err
}
