package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/store"
)

const communityColumns = `id, name, slug, description, category_id, creator_id, is_private, member_count, post_count, created_at, updated_at`

func scanCommunity(scanner interface{ Scan(dest ...any) error }) (*domain.Community, error) {
	var c domain.Community

	var (
		categoryID sql.NullString
		createdAt  string
		updatedAt  string
	)

	err := scanner.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Description,
		&categoryID,
		&c.CreatorID,
		&c.IsPrivate,
		&c.MemberCount,
		&c.PostCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.CategoryID = categoryID.String
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func scanCommunityMember(scanner interface{ Scan(dest ...any) error }) (*domain.CommunityMember, error) {
	var m domain.CommunityMember
	var joinedAt string

	err := scanner.Scan(&m.CommunityID, &m.UserID, &m.Role, &m.Status, &joinedAt)
	if err != nil {
		return nil, err
	}

	m.JoinedAt, err = parseTime(joinedAt)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// CreateCommunity inserts a community and its creator membership in one
// transaction. The member count starts at 1 for the creator.
func (s *Store) CreateCommunity(ctx context.Context, c *domain.Community, creator *domain.CommunityMember) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO communities (id, name, slug, description, category_id, creator_id, is_private, member_count, post_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, 0, ?, ?)`,
		c.ID,
		c.Name,
		c.Slug,
		c.Description,
		nullString(c.CategoryID),
		c.CreatorID,
		c.IsPrivate,
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists.WithMessage("community slug already in use")
		}
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO community_members (community_id, user_id, role, status, joined_at)
		VALUES (?, ?, ?, ?, ?)`,
		creator.CommunityID,
		creator.UserID,
		creator.Role,
		creator.Status,
		formatTime(creator.JoinedAt),
	)
	if err != nil {
		return err
	}

	c.MemberCount = 1
	return tx.Commit()
}

// GetCommunity retrieves a community by ID.
func (s *Store) GetCommunity(ctx context.Context, id string) (*domain.Community, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+communityColumns+` FROM communities WHERE id = ?`, id)

	c, err := scanCommunity(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetCommunityBySlug retrieves a community by slug.
func (s *Store) GetCommunityBySlug(ctx context.Context, slug string) (*domain.Community, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+communityColumns+` FROM communities WHERE slug = ?`, slug)

	c, err := scanCommunity(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCommunity persists all mutable community fields.
func (s *Store) UpdateCommunity(ctx context.Context, c *domain.Community) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE communities
		SET name = ?, slug = ?, description = ?, category_id = ?, is_private = ?, updated_at = ?
		WHERE id = ?`,
		c.Name,
		c.Slug,
		c.Description,
		nullString(c.CategoryID),
		c.IsPrivate,
		formatTime(c.UpdatedAt),
		c.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists.WithMessage("community slug already in use")
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

// DeleteCommunity removes a community. Memberships cascade; posts keep
// their rows with the community reference cleared.
func (s *Store) DeleteCommunity(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM communities WHERE id = ?`, id)
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

// ListCommunities returns a page of communities ordered by member count
// descending then name.
func (s *Store) ListCommunities(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Community], error) {
	params.Validate()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM communities`).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+communityColumns+` FROM communities
		 ORDER BY member_count DESC, name ASC LIMIT ? OFFSET ?`,
		params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var communities []*domain.Community
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, err
		}
		communities = append(communities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return store.NewPaginatedResult(communities, total, params), nil
}

// CommunitySlugExists reports whether a slug is taken by a community other
// than excludeID.
func (s *Store) CommunitySlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM communities WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetCommunityMember retrieves one user's membership record.
// Returns store.ErrNotFound when the user has no record in the community.
func (s *Store) GetCommunityMember(ctx context.Context, communityID, userID string) (*domain.CommunityMember, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT community_id, user_id, role, status, joined_at
		FROM community_members WHERE community_id = ? AND user_id = ?`,
		communityID, userID)

	m, err := scanCommunityMember(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// UpsertCommunityMember inserts or replaces a membership record and resyncs
// the community's member count in the same transaction.
func (s *Store) UpsertCommunityMember(ctx context.Context, m *domain.CommunityMember) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO community_members (community_id, user_id, role, status, joined_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (community_id, user_id)
		DO UPDATE SET role = excluded.role, status = excluded.status`,
		m.CommunityID,
		m.UserID,
		m.Role,
		m.Status,
		formatTime(m.JoinedAt),
	)
	if err != nil {
		return err
	}

	if err := recountMembersTx(ctx, tx, m.CommunityID); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteCommunityMember removes a membership record and resyncs the member
// count.
func (s *Store) DeleteCommunityMember(ctx context.Context, communityID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM community_members WHERE community_id = ? AND user_id = ?`,
		communityID, userID)
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

	if err := recountMembersTx(ctx, tx, communityID); err != nil {
		return err
	}

	return tx.Commit()
}

// ListCommunityMembers returns membership records for a community, creator
// first then by join time. An empty status matches all records.
func (s *Store) ListCommunityMembers(ctx context.Context, communityID string, status domain.MembershipStatus) ([]*domain.CommunityMember, error) {
	query := `SELECT community_id, user_id, role, status, joined_at
		FROM community_members WHERE community_id = ?`
	args := []any{communityID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY status = 'creator' DESC, joined_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.CommunityMember
	for rows.Next() {
		m, err := scanCommunityMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if members == nil {
		members = []*domain.CommunityMember{}
	}

	return members, nil
}

// CountActiveMemberships returns how many communities a user actively
// belongs to. Pending and banned records do not count toward the limit.
func (s *Store) CountActiveMemberships(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM community_members
		WHERE user_id = ? AND status IN ('creator', 'approved')`, userID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// recountMembersTx resyncs a community's member count from active
// membership rows.
func recountMembersTx(ctx context.Context, tx *sql.Tx, communityID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE communities
		SET member_count = (
			SELECT COUNT(*) FROM community_members
			WHERE community_id = ? AND status IN ('creator', 'approved')
		)
		WHERE id = ?`,
		communityID, communityID)
	return err
}
