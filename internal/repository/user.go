package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mysns/internal/model"
)

const userColumns = `id, external_id, username, display_name, avatar_url, avatar_key, bio, created_at, updated_at`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Upsert relies on the unique external_id constraint, so two concurrent first
// requests for the same identity end with one row. Existing handles are never
// overwritten; a null display name or avatar is filled from the token.
func (r *userRepository) Upsert(ctx context.Context, u *model.User) (bool, error) {
	query := `
		INSERT INTO users (external_id, username, display_name, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_id) DO UPDATE
		SET display_name = COALESCE(users.display_name, EXCLUDED.display_name),
		    avatar_url   = COALESCE(users.avatar_url, EXCLUDED.avatar_url),
		    updated_at   = NOW()
		RETURNING ` + userColumns + `, (xmax = 0) AS inserted
	`

	var row struct {
		model.User
		Inserted bool `db:"inserted"`
	}
	err := r.db.GetContext(ctx, &row, query, u.ExternalID, u.Username, u.DisplayName, u.AvatarURL)
	if err != nil {
		if _, constraint := pqErrorCode(err); isUniqueViolation(err) && constraint == "users_username_key" {
			return false, model.ErrUsernameTaken
		}
		return false, fmt.Errorf("failed to upsert user: %w", err)
	}

	*u = row.User
	return row.Inserted, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.User
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &u, nil
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE external_id = $1`

	var u model.User
	if err := r.db.GetContext(ctx, &u, query, externalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by external id: %w", err)
	}
	return &u, nil
}

func (r *userRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.UserSummary, error) {
	out := make(map[uuid.UUID]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT id, username, display_name, avatar_url FROM users WHERE id = ANY($1::uuid[])`
	var users []model.UserSummary
	if err := r.db.SelectContext(ctx, &users, query, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, upd UserUpdate) (*model.User, error) {
	query := `
		UPDATE users
		SET username     = COALESCE($2, username),
		    display_name = COALESCE($3, display_name),
		    bio          = COALESCE($4, bio),
		    avatar_key   = COALESCE($5, avatar_key),
		    avatar_url   = COALESCE($6, avatar_url),
		    updated_at   = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id, upd.Username, upd.DisplayName, upd.Bio, upd.AvatarKey, upd.AvatarURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, model.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &u, nil
}

// Search does a case-insensitive prefix match on handle or display name.
func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	pattern := escapeLike(strings.ToLower(query)) + "%"
	sqlQuery := `
		SELECT id, username, display_name, avatar_url
		FROM users
		WHERE lower(username) LIKE $1 OR lower(display_name) LIKE $1
		ORDER BY (lower(username) = $2) DESC, username
		LIMIT $3
	`
	var users []model.UserSummary
	if err := r.db.SelectContext(ctx, &users, sqlQuery, pattern, strings.ToLower(query), limit); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
