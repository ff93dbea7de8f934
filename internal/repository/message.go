package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mysns/internal/model"
)

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

type messageRow struct {
	model.Message
	SenderUsername    string  `db:"sender_username"`
	SenderDisplayName *string `db:"sender_display_name"`
	SenderAvatarURL   *string `db:"sender_avatar_url"`
}

func (r messageRow) toMessage() model.Message {
	m := r.Message
	m.Sender = &model.UserSummary{
		ID:          m.SenderID,
		Username:    r.SenderUsername,
		DisplayName: r.SenderDisplayName,
		AvatarURL:   r.SenderAvatarURL,
	}
	return m
}

const messageSelect = `
	SELECT m.id, m.conversation_id, m.sender_id, m.content, m.is_read, m.seq, m.created_at,
	       u.username AS sender_username, u.display_name AS sender_display_name, u.avatar_url AS sender_avatar_url
	FROM messages m
	JOIN users u ON u.id = m.sender_id
`

func (r *messageRepository) Create(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*model.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id uuid.UUID
	insert := `
		INSERT INTO messages (conversation_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := tx.GetContext(ctx, &id, insert, conversationID, senderID, content); err != nil {
		if isForeignKeyViolation(err) {
			return nil, model.ErrConversationNotFound
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}

	bump := `
		UPDATE conversations
		SET last_activity = GREATEST(last_activity, (SELECT created_at FROM messages WHERE id = $2))
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, bump, conversationID, id); err != nil {
		return nil, fmt.Errorf("bump last activity: %w", err)
	}

	var row messageRow
	if err := tx.GetContext(ctx, &row, messageSelect+` WHERE m.id = $1`, id); err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	m := row.toMessage()
	return &m, nil
}

// ListAndMarkRead flips exactly the inbound unread messages it returns, so a
// message that lands after the read is still counted as unread. The returned
// rows carry the read flag as it was before this call.
func (r *messageRepository) ListAndMarkRead(ctx context.Context, conversationID, viewerID uuid.UUID) ([]model.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var rows []messageRow
	if err := tx.SelectContext(ctx, &rows, messageSelect+` WHERE m.conversation_id = $1 ORDER BY m.seq ASC`, conversationID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	var unread []uuid.UUID
	messages := make([]model.Message, 0, len(rows))
	for _, row := range rows {
		if row.SenderID != viewerID && !row.IsRead {
			unread = append(unread, row.ID)
		}
		messages = append(messages, row.toMessage())
	}

	if len(unread) > 0 {
		update := `UPDATE messages SET is_read = true WHERE id = ANY($1::uuid[]) AND is_read = false`
		if _, err := tx.ExecContext(ctx, update, uuidArray(unread)); err != nil {
			return nil, fmt.Errorf("mark messages read: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return messages, nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = false
	`
	var n int64
	if err := r.db.GetContext(ctx, &n, query, conversationID, viewerID); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (r *messageRepository) UnreadCounts(ctx context.Context, conversationIDs []uuid.UUID, viewerID uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(conversationIDs) == 0 {
		return map[uuid.UUID]int64{}, nil
	}
	query := `
		SELECT conversation_id AS id, COUNT(*) AS count
		FROM messages
		WHERE conversation_id = ANY($1::uuid[]) AND sender_id <> $2 AND is_read = false
		GROUP BY conversation_id
	`
	var rows []idCount
	if err := r.db.SelectContext(ctx, &rows, query, uuidArray(conversationIDs), viewerID); err != nil {
		return nil, fmt.Errorf("count unread by conversations: %w", err)
	}
	return countMap(conversationIDs, rows), nil
}

func (r *messageRepository) LastMessages(ctx context.Context, conversationIDs []uuid.UUID) (map[uuid.UUID]model.Message, error) {
	out := make(map[uuid.UUID]model.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT DISTINCT ON (m.conversation_id)
		       m.id, m.conversation_id, m.sender_id, m.content, m.is_read, m.seq, m.created_at,
		       u.username AS sender_username, u.display_name AS sender_display_name, u.avatar_url AS sender_avatar_url
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.conversation_id = ANY($1::uuid[])
		ORDER BY m.conversation_id, m.seq DESC
	`
	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, query, uuidArray(conversationIDs)); err != nil {
		return nil, fmt.Errorf("last messages: %w", err)
	}
	for _, row := range rows {
		out[row.ConversationID] = row.toMessage()
	}
	return out, nil
}
