package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the internal record for an external identity.
type User struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ExternalID  string    `db:"external_id" json:"-"`
	Username    string    `db:"username" json:"username"`
	DisplayName *string   `db:"display_name" json:"display_name"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url"`
	AvatarKey   *string   `db:"avatar_key" json:"-"`
	Bio         *string   `db:"bio" json:"bio"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Summary returns the public fields of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// Identity is what the external provider asserts about the caller.
type Identity struct {
	ExternalID string
	Username   string
	Email      string
	Name       string
	AvatarURL  string
}

// Profile is a user with live relationship and post counts.
type Profile struct {
	User
	PostsCount     int64 `json:"posts_count"`
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	IsFollowing    bool  `json:"is_following"`
	IsOwnProfile   bool  `json:"is_own_profile"`
}

// UpdateProfileRequest carries optional profile edits. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=1,max=30"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=50"`
	Bio         *string `json:"bio" validate:"omitempty,max=150"`
	AvatarKey   *string `json:"avatar_key" validate:"omitempty,max=512"`
}

const (
	MaxUsernameLength    = 30
	MaxDisplayNameLength = 50
	MaxSearchResults     = 20
)

var (
	ErrUserNotFound       = newError(ErrNotFound, CodeUserNotFound, "user not found")
	ErrUsernameTaken      = newError(ErrConflict, CodeUsernameTaken, "username already taken")
	ErrInvalidUsername    = newError(ErrValidation, CodeInvalidUsername, "username must be 1-30 characters of a-z, 0-9, '.' or '_'")
	ErrDisplayNameTooLong = newError(ErrValidation, CodeDisplayNameTooLong, "display name too long")
	ErrHandleExhausted    = newError(ErrConflict, CodeHandleExhausted, "could not allocate a unique username")
	ErrMissingIdentity    = newError(ErrUnauthenticated, CodeTokenMissing, "authentication required")
)
