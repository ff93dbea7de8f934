package model

type BookmarkState struct {
	Saved bool `json:"saved"`
}

type BookmarkRequest struct {
	PostID string `json:"post_id" validate:"required,uuid"`
}

const MaxSavedPosts = 100
