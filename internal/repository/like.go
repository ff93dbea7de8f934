package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mysns/internal/model"
)

type likeRepository struct {
	db *sqlx.DB
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Create(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, postID, userID)
	if err != nil {
		// The post was deleted between the existence check and the insert.
		if isForeignKeyViolation(err) {
			return false, model.ErrPostNotFound
		}
		return false, fmt.Errorf("insert like: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *likeRepository) Delete(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *likeRepository) Exists(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, postID, userID); err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}

func (r *likeRepository) Count(ctx context.Context, postID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

func (r *likeRepository) CountByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(postIDs) == 0 {
		return map[uuid.UUID]int64{}, nil
	}
	query := `
		SELECT post_id AS id, COUNT(*) AS count
		FROM likes
		WHERE post_id = ANY($1::uuid[])
		GROUP BY post_id
	`
	var rows []idCount
	if err := r.db.SelectContext(ctx, &rows, query, uuidArray(postIDs)); err != nil {
		return nil, fmt.Errorf("count likes by posts: %w", err)
	}
	return countMap(postIDs, rows), nil
}

func (r *likeRepository) CheckLiked(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	if len(postIDs) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	var liked []uuid.UUID
	query := `SELECT post_id FROM likes WHERE user_id = $1 AND post_id = ANY($2::uuid[])`
	if err := r.db.SelectContext(ctx, &liked, query, userID, uuidArray(postIDs)); err != nil {
		return nil, fmt.Errorf("check liked: %w", err)
	}
	return presenceMap(postIDs, liked), nil
}
