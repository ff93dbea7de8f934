package service

import (
	"context"

	"github.com/google/uuid"

	"mysns/internal/logger"
	"mysns/internal/model"
	"mysns/internal/repository"
	"mysns/internal/tracing"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// AddComment validates the trimmed content before anything is written and
// returns the comment joined with its author.
func (s *CommentService) AddComment(ctx context.Context, postID, userID uuid.UUID, content string) (comment *model.Comment, err error) {
	ctx, span := tracing.Start(ctx, "CommentService.AddComment")
	defer func() { tracing.End(span, err) }()

	content, err = normalizeContent(content, model.MaxCommentLength, model.ErrContentTooLong)
	if err != nil {
		return nil, err
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comment, err = s.commentRepo.Create(ctx, postID, userID, content)
	if err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Debug().
		Str(logger.FieldPostID, postID.String()).
		Str(logger.FieldCommentID, comment.ID.String()).
		Msg("comment added")
	return comment, nil
}

// DeleteComment removes a comment. Only its author may delete it.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, userID uuid.UUID) (err error) {
	ctx, span := tracing.Start(ctx, "CommentService.DeleteComment")
	defer func() { tracing.End(span, err) }()

	return s.commentRepo.Delete(ctx, commentID, userID)
}

func (s *CommentService) CommentCount(ctx context.Context, postID uuid.UUID) (int64, error) {
	return s.commentRepo.Count(ctx, postID)
}

// ListComments returns the post's comments newest first.
func (s *CommentService) ListComments(ctx context.Context, postID uuid.UUID) (*model.CommentListResponse, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &model.CommentListResponse{
		Comments: nonNil(comments),
		Count:    int64(len(comments)),
	}, nil
}
