package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mysns/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

type commentRow struct {
	model.Comment
	AuthorUsername    string  `db:"author_username"`
	AuthorDisplayName *string `db:"author_display_name"`
	AuthorAvatarURL   *string `db:"author_avatar_url"`
}

func (r commentRow) toComment() model.Comment {
	c := r.Comment
	c.Author = &model.UserSummary{
		ID:          c.UserID,
		Username:    r.AuthorUsername,
		DisplayName: r.AuthorDisplayName,
		AvatarURL:   r.AuthorAvatarURL,
	}
	return c
}

// Create inserts the comment and returns it joined with its author in one round trip.
func (r *commentRepository) Create(ctx context.Context, postID, userID uuid.UUID, content string) (*model.Comment, error) {
	query := `
		WITH c AS (
			INSERT INTO comments (post_id, user_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, post_id, user_id, content, created_at
		)
		SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
		       u.username AS author_username, u.display_name AS author_display_name, u.avatar_url AS author_avatar_url
		FROM c
		JOIN users u ON u.id = c.user_id
	`
	var row commentRow
	if err := r.db.GetContext(ctx, &row, query, postID, userID, content); err != nil {
		if isForeignKeyViolation(err) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	c := row.toComment()
	return &c, nil
}

// Delete removes a comment. Only the owner can delete.
func (r *commentRepository) Delete(ctx context.Context, commentID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1 AND user_id = $2`, commentID, userID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var owner uuid.UUID
	err = r.db.GetContext(ctx, &owner, `SELECT user_id FROM comments WHERE id = $1`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrCommentNotFound
	}
	if err != nil {
		return fmt.Errorf("check comment owner: %w", err)
	}
	return model.ErrNotCommentOwner
}

func (r *commentRepository) Count(ctx context.Context, postID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}

func (r *commentRepository) CountByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(postIDs) == 0 {
		return map[uuid.UUID]int64{}, nil
	}
	query := `
		SELECT post_id AS id, COUNT(*) AS count
		FROM comments
		WHERE post_id = ANY($1::uuid[])
		GROUP BY post_id
	`
	var rows []idCount
	if err := r.db.SelectContext(ctx, &rows, query, uuidArray(postIDs)); err != nil {
		return nil, fmt.Errorf("count comments by posts: %w", err)
	}
	return countMap(postIDs, rows), nil
}

// ListByPost returns every comment on the post, newest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]model.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
		       u.username AS author_username, u.display_name AS author_display_name, u.avatar_url AS author_avatar_url
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at DESC, c.id DESC
	`
	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, postID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	comments := make([]model.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, row.toComment())
	}
	return comments, nil
}
