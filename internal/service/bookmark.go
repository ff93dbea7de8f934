package service

import (
	"context"

	"github.com/google/uuid"

	"mysns/internal/metrics"
	"mysns/internal/model"
	"mysns/internal/repository"
)

// PostDecorator fills live engagement on posts.
type PostDecorator interface {
	Decorate(ctx context.Context, posts []model.Post, viewerID *uuid.UUID) error
}

// BookmarkService manages saved posts. Saving follows the same idempotent
// toggle rules as likes.
type BookmarkService struct {
	bookmarkRepo repository.BookmarkRepository
	postRepo     repository.PostRepository
	decorator    PostDecorator
}

func NewBookmarkService(bookmarkRepo repository.BookmarkRepository, postRepo repository.PostRepository, decorator PostDecorator) *BookmarkService {
	return &BookmarkService{
		bookmarkRepo: bookmarkRepo,
		postRepo:     postRepo,
		decorator:    decorator,
	}
}

func (s *BookmarkService) Toggle(ctx context.Context, postID, userID uuid.UUID, on bool) (*model.BookmarkState, error) {
	var (
		changed bool
		err     error
	)
	if on {
		exists, err := s.postRepo.Exists(ctx, postID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, model.ErrPostNotFound
		}
		if changed, err = s.bookmarkRepo.Create(ctx, userID, postID); err != nil {
			return nil, err
		}
	} else {
		if changed, err = s.bookmarkRepo.Delete(ctx, userID, postID); err != nil {
			return nil, err
		}
	}

	if !changed {
		op := "unsave"
		if on {
			op = "save"
		}
		metrics.IdempotentNoops.WithLabelValues(op).Inc()
	}
	return &model.BookmarkState{Saved: on}, nil
}

func (s *BookmarkService) List(ctx context.Context, userID uuid.UUID) (*model.PostListResponse, error) {
	posts, err := s.bookmarkRepo.ListPosts(ctx, userID, model.MaxSavedPosts)
	if err != nil {
		return nil, err
	}
	if s.decorator != nil {
		if err := s.decorator.Decorate(ctx, posts, &userID); err != nil {
			return nil, err
		}
	}
	return &model.PostListResponse{Posts: nonNil(posts)}, nil
}
