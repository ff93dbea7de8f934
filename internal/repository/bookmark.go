package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mysns/internal/model"
)

type bookmarkRepository struct {
	db *sqlx.DB
}

func NewBookmarkRepository(db *sqlx.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

func (r *bookmarkRepository) Create(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO saved_posts (user_id, post_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, post_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, userID, postID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, model.ErrPostNotFound
		}
		return false, fmt.Errorf("insert saved post: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *bookmarkRepository) Delete(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM saved_posts WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return false, fmt.Errorf("delete saved post: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *bookmarkRepository) Exists(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM saved_posts WHERE user_id = $1 AND post_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, userID, postID); err != nil {
		return false, fmt.Errorf("check saved post: %w", err)
	}
	return exists, nil
}

func (r *bookmarkRepository) CheckSaved(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	if len(postIDs) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	var saved []uuid.UUID
	query := `SELECT post_id FROM saved_posts WHERE user_id = $1 AND post_id = ANY($2::uuid[])`
	if err := r.db.SelectContext(ctx, &saved, query, userID, uuidArray(postIDs)); err != nil {
		return nil, fmt.Errorf("check saved posts: %w", err)
	}
	return presenceMap(postIDs, saved), nil
}

// ListPosts returns saved posts, most recently saved first.
func (r *bookmarkRepository) ListPosts(ctx context.Context, userID uuid.UUID, limit int) ([]model.Post, error) {
	query := `
		SELECT p.id, p.user_id, p.media_url, p.media_key, p.caption, p.created_at,
		       u.username AS author_username, u.display_name AS author_display_name, u.avatar_url AS author_avatar_url
		FROM saved_posts s
		JOIN posts p ON p.id = s.post_id
		JOIN users u ON u.id = p.user_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
		LIMIT $2
	`
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list saved posts: %w", err)
	}
	return toPosts(rows), nil
}
