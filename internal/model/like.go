package model

// LikeState is the result of a like toggle, with the count read after the write.
type LikeState struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

type LikeRequest struct {
	PostID string `json:"post_id" validate:"required,uuid"`
}
