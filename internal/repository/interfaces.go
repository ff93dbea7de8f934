package repository

import (
	"context"

	"github.com/google/uuid"

	"mysns/internal/model"
)

type UserRepository interface {
	// Upsert inserts the user keyed by external id, or returns the existing row.
	// created reports whether this call inserted it.
	Upsert(ctx context.Context, u *model.User) (created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.UserSummary, error)
	Update(ctx context.Context, id uuid.UUID, upd UserUpdate) (*model.User, error)
	Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
}

// UserUpdate lists the profile columns to overwrite. Nil fields keep their value.
type UserUpdate struct {
	Username    *string
	DisplayName *string
	Bio         *string
	AvatarKey   *string
	AvatarURL   *string
}

type FollowRepository interface {
	Create(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	Delete(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error)
	CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error)
	GetFollowers(ctx context.Context, userID uuid.UUID, limit int) ([]model.UserSummary, error)
	GetFollowing(ctx context.Context, userID uuid.UUID, limit int) ([]model.UserSummary, error)
	CheckFollows(ctx context.Context, followerID uuid.UUID, followingIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Post, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	// Delete removes a post owned by userID and returns the removed row.
	Delete(ctx context.Context, postID, userID uuid.UUID) (*model.Post, error)
}

type LikeRepository interface {
	Create(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Delete(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Exists(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Count(ctx context.Context, postID uuid.UUID) (int64, error)
	CountByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	CheckLiked(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

type CommentRepository interface {
	Create(ctx context.Context, postID, userID uuid.UUID, content string) (*model.Comment, error)
	Delete(ctx context.Context, commentID, userID uuid.UUID) error
	Count(ctx context.Context, postID uuid.UUID) (int64, error)
	CountByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	ListByPost(ctx context.Context, postID uuid.UUID) ([]model.Comment, error)
}

type BookmarkRepository interface {
	Create(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	Delete(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	Exists(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	CheckSaved(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	ListPosts(ctx context.Context, userID uuid.UUID, limit int) ([]model.Post, error)
}

type ConversationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	GetByPair(ctx context.Context, lowID, highID uuid.UUID) (*model.Conversation, error)
	// Create fails with model.ErrConversationExists when the pair already has a row.
	Create(ctx context.Context, lowID, highID uuid.UUID) (*model.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error)
}

type MessageRepository interface {
	// Create appends a message and bumps the conversation's last_activity atomically.
	Create(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*model.Message, error)
	// ListAndMarkRead returns the conversation oldest first and marks the returned
	// inbound unread messages as read in the same transaction.
	ListAndMarkRead(ctx context.Context, conversationID, viewerID uuid.UUID) ([]model.Message, error)
	UnreadCount(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, error)
	UnreadCounts(ctx context.Context, conversationIDs []uuid.UUID, viewerID uuid.UUID) (map[uuid.UUID]int64, error)
	LastMessages(ctx context.Context, conversationIDs []uuid.UUID) (map[uuid.UUID]model.Message, error)
}
