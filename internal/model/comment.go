package model

import (
	"time"

	"github.com/google/uuid"
)

// Comment represents a comment on a post.
type Comment struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	PostID    uuid.UUID    `db:"post_id" json:"post_id"`
	UserID    uuid.UUID    `db:"user_id" json:"user_id"`
	Content   string       `db:"content" json:"content"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	Author    *UserSummary `db:"-" json:"author,omitempty"`
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	PostID  string `json:"post_id" validate:"required,uuid"`
	Content string `json:"content"`
}

type CommentListResponse struct {
	Comments []Comment `json:"comments"`
	Count    int64     `json:"count"`
}

// Length is counted in runes after trimming surrounding whitespace.
const MaxCommentLength = 1000

var (
	ErrCommentNotFound = newError(ErrNotFound, CodeCommentNotFound, "comment not found")
	ErrNotCommentOwner = newError(ErrForbidden, CodeNotCommentOwner, "not the owner of this comment")
	ErrContentRequired = newError(ErrValidation, CodeContentRequired, "content is required")
	ErrContentTooLong  = newError(ErrValidation, CodeContentTooLong, "comment content too long")
)
