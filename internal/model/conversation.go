package model

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Conversation is the single record for an unordered pair of users.
// UserLowID always sorts before UserHighID.
type Conversation struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserLowID    uuid.UUID `db:"user_low_id" json:"user_low_id"`
	UserHighID   uuid.UUID `db:"user_high_id" json:"user_high_id"`
	LastActivity time.Time `db:"last_activity" json:"last_activity"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// HasParticipant reports whether userID is one of the two members.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.UserLowID == userID || c.UserHighID == userID
}

// OtherParticipant returns the member that is not userID.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.UserLowID == userID {
		return c.UserHighID
	}
	return c.UserLowID
}

// CanonicalPair orders two ids the same way Postgres orders uuid values.
func CanonicalPair(a, b uuid.UUID) (low, high uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

type ConversationSummary struct {
	ConversationID uuid.UUID    `json:"conversation_id"`
	OtherUser      *UserSummary `json:"otherUser"`
	LastMessage    *Message     `json:"lastMessage,omitempty"`
	UnreadCount    int64        `json:"unreadCount"`
	LastActivity   time.Time    `json:"last_activity"`
}

type CreateConversationRequest struct {
	OtherUserID string `json:"other_user_id" validate:"required,uuid"`
}

type CreateConversationResponse struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	IsNew          bool      `json:"isNew"`
}

var (
	ErrCannotMessageSelf    = newError(ErrValidation, CodeCannotMessageSelf, "cannot start a conversation with yourself")
	ErrConversationNotFound = newError(ErrNotFound, CodeConversationGone, "conversation not found")
	ErrNotParticipant       = newError(ErrForbidden, CodeNotParticipant, "not a participant of this conversation")

	// ErrConversationExists signals a lost creation race. It is recovered by
	// re-reading the winning row and never reaches a caller.
	ErrConversationExists = newError(ErrConflict, "CONVERSATION_EXISTS", "conversation already exists")
)
