package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/store"
)

const commentColumns = `id, post_id, author_id, parent_id, content, upvotes, downvotes, created_at, updated_at, deleted_at`

func scanComment(scanner interface{ Scan(dest ...any) error }) (*domain.Comment, error) {
	var c domain.Comment

	var (
		parentID  sql.NullString
		createdAt string
		updatedAt string
		deletedAt sql.NullString
	)

	err := scanner.Scan(
		&c.ID,
		&c.PostID,
		&c.AuthorID,
		&parentID,
		&c.Content,
		&c.Upvotes,
		&c.Downvotes,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	c.ParentID = parentID.String
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	c.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// CreateComment inserts a comment and bumps the post's comment count in the
// same transaction.
func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, author_id, parent_id, content, upvotes, downvotes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.PostID,
		c.AuthorID,
		nullString(c.ParentID),
		c.Content,
		c.Upvotes,
		c.Downvotes,
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE posts SET comment_count = comment_count + 1 WHERE id = ?`, c.PostID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetComment retrieves a comment by ID. Soft-deleted comments are not returned.
func (s *Store) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = ? AND deleted_at IS NULL`, id)

	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateComment persists an edited comment body.
func (s *Store) UpdateComment(ctx context.Context, c *domain.Comment) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE comments SET content = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		c.Content,
		formatTime(c.UpdatedAt),
		c.ID,
	)
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

// DeleteComment soft-deletes a comment and decrements the post's comment
// count. Votes and reactions stay in place until the row is purged.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var postID string
	err = tx.QueryRowContext(ctx,
		`SELECT post_id FROM comments WHERE id = ? AND deleted_at IS NULL`, id).Scan(&postID)
	if err == sql.ErrNoRows {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE comments SET deleted_at = ? WHERE id = ?`,
		formatTime(time.Now().UTC()), id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE posts SET comment_count = MAX(comment_count - 1, 0) WHERE id = ?`, postID); err != nil {
		return err
	}

	return tx.Commit()
}

// ListCommentsForPost returns a page of live comments for a post, oldest first.
func (s *Store) ListCommentsForPost(ctx context.Context, postID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Comment], error) {
	params.Validate()

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = ? AND deleted_at IS NULL`,
		postID).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE post_id = ? AND deleted_at IS NULL
		 ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`,
		postID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return store.NewPaginatedResult(comments, total, params), nil
}

// GetCommentVote retrieves a user's current vote on a comment.
// Returns store.ErrNotFound when no vote is held.
func (s *Store) GetCommentVote(ctx context.Context, commentID, userID string) (*domain.CommentVote, error) {
	var v domain.CommentVote
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT comment_id, user_id, vote, created_at
		FROM comment_votes WHERE comment_id = ? AND user_id = ?`,
		commentID, userID).Scan(&v.CommentID, &v.UserID, &v.Vote, &createdAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	v.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ApplyCommentVote replaces a user's vote row with the given state and
// recomputes the comment's tallies from the vote rows, all in one
// transaction. The tallies are never incremented in place; recounting from
// rows keeps them correct under concurrent toggles.
func (s *Store) ApplyCommentVote(ctx context.Context, commentID, userID string, next domain.VoteState) (*domain.Comment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE id = ? AND deleted_at IS NULL`,
		commentID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, store.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM comment_votes WHERE comment_id = ? AND user_id = ?`,
		commentID, userID); err != nil {
		return nil, err
	}

	if next.Held() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO comment_votes (comment_id, user_id, vote, created_at)
			VALUES (?, ?, ?, ?)`,
			commentID, userID, next.Vote, formatTime(time.Now().UTC())); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE comments SET
			upvotes = (SELECT COUNT(*) FROM comment_votes WHERE comment_id = ? AND vote = 'up'),
			downvotes = (SELECT COUNT(*) FROM comment_votes WHERE comment_id = ? AND vote = 'down')
		WHERE id = ?`,
		commentID, commentID, commentID); err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = ?`, commentID)
	c, err := scanComment(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCommentReaction retrieves a user's current reaction on a comment.
// Returns store.ErrNotFound when no reaction is held.
func (s *Store) GetCommentReaction(ctx context.Context, commentID, userID string) (*domain.CommentReaction, error) {
	var r domain.CommentReaction
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT comment_id, user_id, reaction, created_at
		FROM comment_reactions WHERE comment_id = ? AND user_id = ?`,
		commentID, userID).Scan(&r.CommentID, &r.UserID, &r.Reaction, &createdAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ApplyCommentReaction replaces a user's reaction row with the given state
// and returns the comment with fresh reaction counts attached.
func (s *Store) ApplyCommentReaction(ctx context.Context, commentID, userID string, next domain.ReactionState) (*domain.Comment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE id = ? AND deleted_at IS NULL`,
		commentID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, store.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM comment_reactions WHERE comment_id = ? AND user_id = ?`,
		commentID, userID); err != nil {
		return nil, err
	}

	if next.Held() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO comment_reactions (comment_id, user_id, reaction, created_at)
			VALUES (?, ?, ?, ?)`,
			commentID, userID, next.Reaction, formatTime(time.Now().UTC())); err != nil {
			return nil, err
		}
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = ?`, commentID)
	c, err := scanComment(row)
	if err != nil {
		return nil, err
	}

	c.Reactions, err = reactionCountsTx(ctx, tx, commentID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCommentReactionCounts returns per-reaction counts for a comment.
// Reactions with no rows are absent from the map.
func (s *Store) GetCommentReactionCounts(ctx context.Context, commentID string) (map[domain.ReactionType]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT reaction, COUNT(*) FROM comment_reactions
		WHERE comment_id = ? GROUP BY reaction`, commentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReactionCounts(rows)
}

func reactionCountsTx(ctx context.Context, tx *sql.Tx, commentID string) (map[domain.ReactionType]int, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT reaction, COUNT(*) FROM comment_reactions
		WHERE comment_id = ? GROUP BY reaction`, commentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReactionCounts(rows)
}

func collectReactionCounts(rows *sql.Rows) (map[domain.ReactionType]int, error) {
	counts := map[domain.ReactionType]int{}
	for rows.Next() {
		var reaction domain.ReactionType
		var n int
		if err := rows.Scan(&reaction, &n); err != nil {
			return nil, err
		}
		counts[reaction] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
