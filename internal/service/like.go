package service

import (
	"context"

	"github.com/google/uuid"

	"mysns/internal/metrics"
	"mysns/internal/model"
	"mysns/internal/repository"
	"mysns/internal/tracing"
)

type LikeService struct {
	likeRepo repository.LikeRepository
	postRepo repository.PostRepository
}

func NewLikeService(likeRepo repository.LikeRepository, postRepo repository.PostRepository) *LikeService {
	return &LikeService{likeRepo: likeRepo, postRepo: postRepo}
}

// ToggleLike sets the like to on with a single insert or delete, so readers
// never see a partial state. Repeated calls with the same on succeed without
// changing anything. The returned count is read after the write.
func (s *LikeService) ToggleLike(ctx context.Context, postID, userID uuid.UUID, on bool) (state *model.LikeState, err error) {
	ctx, span := tracing.Start(ctx, "LikeService.ToggleLike")
	defer func() { tracing.End(span, err) }()

	var changed bool
	if on {
		exists, err := s.postRepo.Exists(ctx, postID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, model.ErrPostNotFound
		}
		changed, err = s.likeRepo.Create(ctx, postID, userID)
		if err != nil {
			return nil, err
		}
	} else {
		changed, err = s.likeRepo.Delete(ctx, postID, userID)
		if err != nil {
			return nil, err
		}
	}

	if !changed {
		op := "unlike"
		if on {
			op = "like"
		}
		metrics.IdempotentNoops.WithLabelValues(op).Inc()
	}

	count, err := s.likeRepo.Count(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &model.LikeState{Liked: on, LikeCount: count}, nil
}

func (s *LikeService) LikeCount(ctx context.Context, postID uuid.UUID) (int64, error) {
	return s.likeRepo.Count(ctx, postID)
}

func (s *LikeService) IsLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return s.likeRepo.Exists(ctx, postID, userID)
}
