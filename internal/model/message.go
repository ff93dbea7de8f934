package model

import (
	"time"

	"github.com/google/uuid"
)

// Message is an entry in a conversation. IsRead only ever moves from false to true.
type Message struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	ConversationID uuid.UUID    `db:"conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID    `db:"sender_id" json:"sender_id"`
	Content        string       `db:"content" json:"content"`
	IsRead         bool         `db:"is_read" json:"is_read"`
	Seq            int64        `db:"seq" json:"-"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	IsFromMe       bool         `db:"-" json:"isFromMe"`
	Sender         *UserSummary `db:"-" json:"sender,omitempty"`
}

// SendMessageRequest addresses either an existing conversation or a recipient,
// never both.
type SendMessageRequest struct {
	ConversationID string `json:"conversation_id" validate:"required_without=RecipientID,excluded_with=RecipientID,omitempty,uuid"`
	RecipientID    string `json:"recipient_id" validate:"required_without=ConversationID,omitempty,uuid"`
	Content        string `json:"content"`
}

type MessageListResponse struct {
	Messages []Message `json:"messages"`
}

const MaxMessageLength = 5000

var ErrMessageTooLong = newError(ErrValidation, CodeContentTooLong, "message content too long")
