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

const conversationColumns = `id, user_low_id, user_high_id, last_activity, created_at`

type conversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	var c model.Conversation
	err := r.db.GetContext(ctx, &c, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &c, nil
}

func (r *conversationRepository) GetByPair(ctx context.Context, lowID, highID uuid.UUID) (*model.Conversation, error) {
	var c model.Conversation
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE user_low_id = $1 AND user_high_id = $2`
	if err := r.db.GetContext(ctx, &c, query, lowID, highID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation by pair: %w", err)
	}
	return &c, nil
}

// Create inserts the canonical pair. A concurrent creator that got there first
// makes the unique constraint fire, which is reported as ErrConversationExists.
func (r *conversationRepository) Create(ctx context.Context, lowID, highID uuid.UUID) (*model.Conversation, error) {
	query := `
		INSERT INTO conversations (user_low_id, user_high_id)
		VALUES ($1, $2)
		RETURNING ` + conversationColumns

	var c model.Conversation
	if err := r.db.GetContext(ctx, &c, query, lowID, highID); err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, model.ErrConversationExists
		case isForeignKeyViolation(err):
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &c, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE user_low_id = $1 OR user_high_id = $1
		ORDER BY last_activity DESC, id
	`
	var convs []model.Conversation
	if err := r.db.SelectContext(ctx, &convs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}
