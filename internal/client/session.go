package client

import (
	"context"

	"github.com/google/uuid"

	"mysns/internal/model"
	"mysns/internal/optimistic"
)

// Session pairs a Client with optimistic toggle state for one signed-in user.
type Session struct {
	client *Client
	syncer *optimistic.Syncer
	actor  string
}

func NewSession(c *Client, actorID uuid.UUID) *Session {
	return &Session{
		client: c,
		syncer: optimistic.NewSyncer(),
		actor:  actorID.String(),
	}
}

func (s *Session) key(kind optimistic.Kind, subject uuid.UUID) optimistic.Key {
	return optimistic.Key{Kind: kind, Actor: s.actor, Subject: subject.String()}
}

// SeedPost records the server view of a post card.
func (s *Session) SeedPost(p model.Post) {
	s.syncer.Seed(s.key(optimistic.KindLike, p.ID), optimistic.Snapshot{Active: p.IsLiked, Count: p.LikeCount})
	s.syncer.Seed(s.key(optimistic.KindBookmark, p.ID), optimistic.Snapshot{Active: p.IsSaved})
}

// SeedProfile records the server view of a profile. The follow counter shown
// next to the button is the target's follower count.
func (s *Session) SeedProfile(p model.Profile) {
	s.syncer.Seed(s.key(optimistic.KindFollow, p.ID), optimistic.Snapshot{Active: p.IsFollowing, Count: p.FollowersCount})
}

func (s *Session) ToggleLike(ctx context.Context, postID uuid.UUID) (optimistic.Snapshot, error) {
	return s.syncer.Toggle(ctx, s.key(optimistic.KindLike, postID), func(ctx context.Context, on bool) error {
		var err error
		if on {
			_, err = s.client.Like(ctx, postID)
		} else {
			_, err = s.client.Unlike(ctx, postID)
		}
		return err
	})
}

func (s *Session) ToggleFollow(ctx context.Context, userID uuid.UUID) (optimistic.Snapshot, error) {
	return s.syncer.Toggle(ctx, s.key(optimistic.KindFollow, userID), func(ctx context.Context, on bool) error {
		var err error
		if on {
			_, err = s.client.Follow(ctx, userID)
		} else {
			_, err = s.client.Unfollow(ctx, userID)
		}
		return err
	})
}

func (s *Session) ToggleBookmark(ctx context.Context, postID uuid.UUID) (optimistic.Snapshot, error) {
	return s.syncer.Toggle(ctx, s.key(optimistic.KindBookmark, postID), func(ctx context.Context, on bool) error {
		if on {
			return s.client.Save(ctx, postID)
		}
		return s.client.Unsave(ctx, postID)
	})
}

func (s *Session) LikeState(postID uuid.UUID) (optimistic.Snapshot, optimistic.State) {
	return s.syncer.View(s.key(optimistic.KindLike, postID))
}

func (s *Session) FollowState(userID uuid.UUID) (optimistic.Snapshot, optimistic.State) {
	return s.syncer.View(s.key(optimistic.KindFollow, userID))
}

func (s *Session) BookmarkState(postID uuid.UUID) (optimistic.Snapshot, optimistic.State) {
	return s.syncer.View(s.key(optimistic.KindBookmark, postID))
}
