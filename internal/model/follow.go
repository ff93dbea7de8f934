package model

import (
	"time"

	"github.com/google/uuid"
)

type Follow struct {
	FollowerID  uuid.UUID `db:"follower_id" json:"follower_id"`
	FollowingID uuid.UUID `db:"following_id" json:"following_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type UserSummary struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	DisplayName *string   `db:"display_name" json:"display_name"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url"`
	IsFollowing bool      `json:"is_following"`
}

type FollowCounts struct {
	Followers int64 `json:"followers_count"`
	Following int64 `json:"following_count"`
}

type FollowRequest struct {
	FollowingID string `json:"following_id" validate:"required,uuid"`
	Action      string `json:"action" validate:"required,oneof=follow unfollow"`
}

type FollowListResponse struct {
	Users []UserSummary `json:"users"`
}

const MaxFollowListSize = 100

var ErrCannotFollowSelf = newError(ErrValidation, CodeCannotFollowSelf, "cannot follow yourself")
