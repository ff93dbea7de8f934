package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mysns/internal/logger"
	"mysns/internal/model"
	"mysns/internal/queue"
	"mysns/internal/repository"
	"mysns/internal/storage"
)

type PostService struct {
	postRepo     repository.PostRepository
	userRepo     repository.UserRepository
	likeRepo     repository.LikeRepository
	commentRepo  repository.CommentRepository
	bookmarkRepo repository.BookmarkRepository
	media        storage.MediaStore
	publisher    queue.Publisher
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	likeRepo repository.LikeRepository,
	commentRepo repository.CommentRepository,
	bookmarkRepo repository.BookmarkRepository,
	media storage.MediaStore,
	publisher queue.Publisher,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		userRepo:     userRepo,
		likeRepo:     likeRepo,
		commentRepo:  commentRepo,
		bookmarkRepo: bookmarkRepo,
		media:        media,
		publisher:    publisher,
	}
}

// Create publishes a post for media that the client already uploaded.
func (s *PostService) Create(ctx context.Context, userID uuid.UUID, req model.CreatePostRequest) (*model.Post, error) {
	var caption *string
	if req.Caption != nil {
		c := strings.TrimSpace(*req.Caption)
		if utf8.RuneCountInString(c) > model.MaxCaptionLength {
			return nil, model.ErrCaptionTooLong
		}
		if c != "" {
			caption = &c
		}
	}

	key := strings.TrimPrefix(strings.TrimSpace(req.MediaKey), "/")
	ok, err := s.media.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrMediaNotFound
	}

	post := &model.Post{
		UserID:   userID,
		MediaURL: s.media.PublicURL(key),
		MediaKey: key,
		Caption:  caption,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	if author, err := s.userRepo.GetByID(ctx, userID); err == nil {
		summary := author.Summary()
		post.Author = &summary
	}
	return post, nil
}

// GetByID builds a post card: the post plus live engagement for the viewer.
func (s *PostService) GetByID(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.likeRepo.Count(gctx, postID)
		post.LikeCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.commentRepo.Count(gctx, postID)
		post.CommentCount = n
		return err
	})
	if viewerID != nil {
		viewer := *viewerID
		g.Go(func() error {
			liked, err := s.likeRepo.Exists(gctx, postID, viewer)
			post.IsLiked = liked
			return err
		})
		g.Go(func() error {
			saved, err := s.bookmarkRepo.Exists(gctx, viewer, postID)
			post.IsSaved = saved
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) ListByUser(ctx context.Context, userID uuid.UUID, viewerID *uuid.UUID) (*model.PostListResponse, error) {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	posts, err := s.postRepo.ListByUser(ctx, userID, model.MaxUserPosts)
	if err != nil {
		return nil, err
	}
	if err := s.Decorate(ctx, posts, viewerID); err != nil {
		return nil, err
	}
	return &model.PostListResponse{Posts: nonNil(posts)}, nil
}

// Decorate fills live counts and viewer flags on a batch of posts, with one
// query per aggregate rather than one per post.
func (s *PostService) Decorate(ctx context.Context, posts []model.Post, viewerID *uuid.UUID) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var (
		likes, comments map[uuid.UUID]int64
		liked, saved    map[uuid.UUID]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		likes, err = s.likeRepo.CountByPosts(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		comments, err = s.commentRepo.CountByPosts(gctx, ids)
		return err
	})
	if viewerID != nil {
		viewer := *viewerID
		g.Go(func() (err error) {
			liked, err = s.likeRepo.CheckLiked(gctx, viewer, ids)
			return err
		})
		g.Go(func() (err error) {
			saved, err = s.bookmarkRepo.CheckSaved(gctx, viewer, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range posts {
		id := posts[i].ID
		posts[i].LikeCount = likes[id]
		posts[i].CommentCount = comments[id]
		posts[i].IsLiked = liked[id]
		posts[i].IsSaved = saved[id]
	}
	return nil
}

// Delete removes a post owned by userID. Likes, comments and bookmarks cascade
// in the database; the media object is cleaned up asynchronously.
func (s *PostService) Delete(ctx context.Context, postID, userID uuid.UUID) error {
	post, err := s.postRepo.Delete(ctx, postID, userID)
	if err != nil {
		return err
	}

	if s.publisher == nil {
		return nil
	}
	event := queue.NewPostDeletedEvent(post.ID, post.UserID, post.MediaKey)
	if _, err := s.publisher.Publish(ctx, queue.StreamMedia, event); err != nil {
		// The post is gone either way; an orphaned object is the only cost.
		logger.Ctx(ctx).Error().Err(err).
			Str(logger.FieldPostID, postID.String()).
			Str("media_key", post.MediaKey).
			Msg("failed to publish post.deleted")
	}
	return nil
}
