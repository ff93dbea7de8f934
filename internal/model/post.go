package model

import (
	"time"

	"github.com/google/uuid"
)

// Post is a published media item. Like and comment counts are never stored;
// they are filled in on read.
type Post struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	MediaURL  string    `db:"media_url" json:"media_url"`
	MediaKey  string    `db:"media_key" json:"-"`
	Caption   *string   `db:"caption" json:"caption"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	LikeCount    int64        `db:"-" json:"like_count"`
	CommentCount int64        `db:"-" json:"comment_count"`
	IsLiked      bool         `db:"-" json:"is_liked"`
	IsSaved      bool         `db:"-" json:"is_saved"`
	Author       *UserSummary `db:"-" json:"author,omitempty"`
}

type CreatePostRequest struct {
	MediaKey string  `json:"media_key" validate:"required,max=512"`
	Caption  *string `json:"caption"`
}

type PostListResponse struct {
	Posts []Post `json:"posts"`
}

const (
	MaxCaptionLength = 2200
	MaxUserPosts     = 60
)

var (
	ErrPostNotFound   = newError(ErrNotFound, CodePostNotFound, "post not found")
	ErrNotPostOwner   = newError(ErrForbidden, CodeNotPostOwner, "not the owner of this post")
	ErrCaptionTooLong = newError(ErrValidation, CodeCaptionTooLong, "caption too long")
	ErrMediaNotFound  = newError(ErrValidation, CodeMediaMissing, "media object does not exist")
)
