package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mysns/internal/logger"
	"mysns/internal/metrics"
	"mysns/internal/model"
	"mysns/internal/repository"
	"mysns/internal/tracing"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// Follow creates the edge and reports the resulting state. Repeating it is a
// no-op success; the primary key on (follower, following) keeps one row.
func (s *FollowService) Follow(ctx context.Context, followerID, followingID uuid.UUID) (following bool, err error) {
	ctx, span := tracing.Start(ctx, "FollowService.Follow")
	defer func() { tracing.End(span, err) }()

	if followerID == followingID {
		return false, model.ErrCannotFollowSelf
	}

	exists, err := s.userRepo.Exists(ctx, followingID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, model.ErrUserNotFound
	}

	inserted, err := s.followRepo.Create(ctx, followerID, followingID)
	if err != nil {
		return false, err
	}
	if !inserted {
		metrics.IdempotentNoops.WithLabelValues("follow").Inc()
	}

	logger.Ctx(ctx).Debug().
		Str(logger.FieldUserID, followerID.String()).
		Str("following_id", followingID.String()).
		Bool("inserted", inserted).
		Msg("follow")
	return true, nil
}

// Unfollow removes the edge if present. A missing edge is not an error.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) (following bool, err error) {
	ctx, span := tracing.Start(ctx, "FollowService.Unfollow")
	defer func() { tracing.End(span, err) }()

	if followerID == followingID {
		return false, model.ErrCannotFollowSelf
	}

	deleted, err := s.followRepo.Delete(ctx, followerID, followingID)
	if err != nil {
		return false, err
	}
	if !deleted {
		metrics.IdempotentNoops.WithLabelValues("unfollow").Inc()
	}
	return false, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return s.followRepo.Exists(ctx, a, b)
}

// Counts reads both sides of the graph live.
func (s *FollowService) Counts(ctx context.Context, userID uuid.UUID) (model.FollowCounts, error) {
	var counts model.FollowCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.followRepo.CountFollowers(gctx, userID)
		counts.Followers = n
		return err
	})
	g.Go(func() error {
		n, err := s.followRepo.CountFollowing(gctx, userID)
		counts.Following = n
		return err
	})
	if err := g.Wait(); err != nil {
		return model.FollowCounts{}, err
	}
	return counts, nil
}

func (s *FollowService) GetFollowers(ctx context.Context, userID uuid.UUID, viewerID *uuid.UUID) (*model.FollowListResponse, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.followRepo.GetFollowers(ctx, userID, model.MaxFollowListSize)
	if err != nil {
		return nil, err
	}
	if viewerID != nil {
		users = s.enrichWithFollowStatus(ctx, *viewerID, users)
	}
	return &model.FollowListResponse{Users: nonNil(users)}, nil
}

func (s *FollowService) GetFollowing(ctx context.Context, userID uuid.UUID, viewerID *uuid.UUID) (*model.FollowListResponse, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.followRepo.GetFollowing(ctx, userID, model.MaxFollowListSize)
	if err != nil {
		return nil, err
	}
	if viewerID != nil {
		users = s.enrichWithFollowStatus(ctx, *viewerID, users)
	}
	return &model.FollowListResponse{Users: nonNil(users)}, nil
}

func (s *FollowService) requireUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrUserNotFound
	}
	return nil
}

// enrichWithFollowStatus sets is_following with one batched query. If that
// query fails the list is still returned, with every flag false.
func (s *FollowService) enrichWithFollowStatus(ctx context.Context, viewerID uuid.UUID, users []model.UserSummary) []model.UserSummary {
	if len(users) == 0 {
		return users
	}

	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	followMap, err := s.followRepo.CheckFollows(ctx, viewerID, ids)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("follow status enrichment failed")
		return users
	}
	for i := range users {
		users[i].IsFollowing = followMap[users[i].ID]
	}
	return users
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
