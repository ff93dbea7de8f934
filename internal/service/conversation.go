package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"mysns/internal/logger"
	"mysns/internal/metrics"
	"mysns/internal/model"
	"mysns/internal/repository"
	"mysns/internal/tracing"
)

type ConversationService struct {
	convRepo    repository.ConversationRepository
	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
}

func NewConversationService(
	convRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	messageRepo repository.MessageRepository,
) *ConversationService {
	return &ConversationService{
		convRepo:    convRepo,
		userRepo:    userRepo,
		messageRepo: messageRepo,
	}
}

// GetOrCreate returns the one conversation for the unordered pair {a, b}.
//
// The pair is stored low id first, and (user_low_id, user_high_id) is unique.
// Two callers racing from both sides both miss the lookup and both insert; the
// loser's insert hits the constraint and it returns the winner's row instead.
func (s *ConversationService) GetOrCreate(ctx context.Context, a, b uuid.UUID) (conv *model.Conversation, isNew bool, err error) {
	ctx, span := tracing.Start(ctx, "ConversationService.GetOrCreate")
	defer func() {
		span.SetAttributes(attribute.Bool("conversation.is_new", isNew))
		tracing.End(span, err)
	}()

	if a == b {
		return nil, false, model.ErrCannotMessageSelf
	}
	low, high := model.CanonicalPair(a, b)

	conv, err = s.convRepo.GetByPair(ctx, low, high)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, model.ErrConversationNotFound) {
		return nil, false, err
	}

	// a is the caller; only the counterpart can be unknown.
	exists, err := s.userRepo.Exists(ctx, b)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, model.ErrUserNotFound
	}

	conv, err = s.convRepo.Create(ctx, low, high)
	switch {
	case err == nil:
		logger.Ctx(ctx).Info().
			Str(logger.FieldConversationID, conv.ID.String()).
			Msg("conversation created")
		return conv, true, nil
	case errors.Is(err, model.ErrConversationExists):
		metrics.ConversationConflicts.Inc()
		span.AddEvent("creation race lost, re-reading winner")
		conv, err = s.convRepo.GetByPair(ctx, low, high)
		if err != nil {
			return nil, false, err
		}
		return conv, false, nil
	default:
		return nil, false, err
	}
}

// ListForUser returns the user's conversations, most recently active first,
// each with the other participant, the latest message and the unread count.
// It never changes read state.
func (s *ConversationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.ConversationSummary, error) {
	convs, err := s.convRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return []model.ConversationSummary{}, nil
	}

	convIDs := make([]uuid.UUID, len(convs))
	otherIDs := make([]uuid.UUID, len(convs))
	for i := range convs {
		convIDs[i] = convs[i].ID
		otherIDs[i] = convs[i].OtherParticipant(userID)
	}

	var (
		users  map[uuid.UUID]model.UserSummary
		last   map[uuid.UUID]model.Message
		unread map[uuid.UUID]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.userRepo.GetSummaries(gctx, otherIDs)
		return err
	})
	g.Go(func() (err error) {
		last, err = s.messageRepo.LastMessages(gctx, convIDs)
		return err
	})
	g.Go(func() (err error) {
		unread, err = s.messageRepo.UnreadCounts(gctx, convIDs, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.ConversationSummary, 0, len(convs))
	for i, c := range convs {
		summary := model.ConversationSummary{
			ConversationID: c.ID,
			UnreadCount:    unread[c.ID],
			LastActivity:   c.LastActivity,
		}
		if u, ok := users[otherIDs[i]]; ok {
			summary.OtherUser = &u
		}
		if m, ok := last[c.ID]; ok {
			m.IsFromMe = m.SenderID == userID
			summary.LastMessage = &m
		}
		out = append(out, summary)
	}
	return out, nil
}
