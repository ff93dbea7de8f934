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

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// postRow is a post joined with its author's public fields.
type postRow struct {
	model.Post
	AuthorUsername    string  `db:"author_username"`
	AuthorDisplayName *string `db:"author_display_name"`
	AuthorAvatarURL   *string `db:"author_avatar_url"`
}

func (r postRow) toPost() model.Post {
	p := r.Post
	p.Author = &model.UserSummary{
		ID:          p.UserID,
		Username:    r.AuthorUsername,
		DisplayName: r.AuthorDisplayName,
		AvatarURL:   r.AuthorAvatarURL,
	}
	return p
}

func toPosts(rows []postRow) []model.Post {
	posts := make([]model.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toPost())
	}
	return posts
}

const postSelect = `
	SELECT p.id, p.user_id, p.media_url, p.media_key, p.caption, p.created_at,
	       u.username AS author_username, u.display_name AS author_display_name, u.avatar_url AS author_avatar_url
	FROM posts p
	JOIN users u ON u.id = p.user_id
`

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	query := `
		INSERT INTO posts (user_id, media_url, media_key, caption)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, p.UserID, p.MediaURL, p.MediaKey, p.Caption).Scan(&p.ID, &p.CreatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var row postRow
	if err := r.db.GetContext(ctx, &row, postSelect+` WHERE p.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	p := row.toPost()
	return &p, nil
}

func (r *postRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("failed to check post existence: %w", err)
	}
	return exists, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Post, error) {
	var rows []postRow
	query := postSelect + ` WHERE p.user_id = $1 ORDER BY p.created_at DESC, p.id DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return toPosts(rows), nil
}

func (r *postRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

// Delete removes the post only when userID owns it. Likes, comments and
// bookmarks go with it through ON DELETE CASCADE.
func (r *postRepository) Delete(ctx context.Context, postID, userID uuid.UUID) (*model.Post, error) {
	query := `
		DELETE FROM posts
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, media_url, media_key, caption, created_at
	`
	var p model.Post
	err := r.db.GetContext(ctx, &p, query, postID, userID)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to delete post: %w", err)
	}

	exists, err := r.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrNotPostOwner
	}
	return nil, model.ErrPostNotFound
}
