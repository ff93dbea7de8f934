package service

import (
	"context"

	"github.com/google/uuid"

	"mysns/internal/logger"
	"mysns/internal/metrics"
	"mysns/internal/model"
	"mysns/internal/repository"
	"mysns/internal/tracing"
)

type MessageService struct {
	convRepo      repository.ConversationRepository
	messageRepo   repository.MessageRepository
	conversations *ConversationService
}

func NewMessageService(
	convRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	conversations *ConversationService,
) *MessageService {
	return &MessageService{
		convRepo:      convRepo,
		messageRepo:   messageRepo,
		conversations: conversations,
	}
}

// Send appends a message from a participant and bumps the conversation's
// last activity. Non-participants are rejected before anything is written.
func (s *MessageService) Send(ctx context.Context, conversationID, senderID uuid.UUID, content string) (msg *model.Message, err error) {
	ctx, span := tracing.Start(ctx, "MessageService.Send")
	defer func() { tracing.End(span, err) }()

	content, err = normalizeContent(content, model.MaxMessageLength, model.ErrMessageTooLong)
	if err != nil {
		return nil, err
	}

	if _, err := s.participantConversation(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	msg, err = s.messageRepo.Create(ctx, conversationID, senderID, content)
	if err != nil {
		return nil, err
	}
	msg.IsFromMe = true
	return msg, nil
}

// SendDirect sends to a user, creating the conversation on first contact.
func (s *MessageService) SendDirect(ctx context.Context, senderID, recipientID uuid.UUID, content string) (*model.Message, bool, error) {
	// Validate before a conversation row can be created for an empty message.
	if _, err := normalizeContent(content, model.MaxMessageLength, model.ErrMessageTooLong); err != nil {
		return nil, false, err
	}

	conv, isNew, err := s.conversations.GetOrCreate(ctx, senderID, recipientID)
	if err != nil {
		return nil, false, err
	}
	msg, err := s.Send(ctx, conv.ID, senderID, content)
	if err != nil {
		return nil, false, err
	}
	return msg, isNew, nil
}

// ListAndMarkRead returns the conversation oldest first. Reading is what marks
// the viewer's inbound messages as read; there is no separate call for it.
func (s *MessageService) ListAndMarkRead(ctx context.Context, conversationID, viewerID uuid.UUID) (msgs []model.Message, err error) {
	ctx, span := tracing.Start(ctx, "MessageService.ListAndMarkRead")
	defer func() { tracing.End(span, err) }()

	if _, err := s.participantConversation(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}

	msgs, err = s.messageRepo.ListAndMarkRead(ctx, conversationID, viewerID)
	if err != nil {
		return nil, err
	}

	var marked int
	for i := range msgs {
		msgs[i].IsFromMe = msgs[i].SenderID == viewerID
		if !msgs[i].IsFromMe && !msgs[i].IsRead {
			marked++
		}
	}
	if marked > 0 {
		metrics.MessagesMarkedRead.Add(float64(marked))
		logger.Ctx(ctx).Debug().
			Str(logger.FieldConversationID, conversationID.String()).
			Int("marked", marked).
			Msg("messages marked read")
	}
	return nonNil(msgs), nil
}

// UnreadCount counts inbound unread messages without changing them.
func (s *MessageService) UnreadCount(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, error) {
	if _, err := s.participantConversation(ctx, conversationID, viewerID); err != nil {
		return 0, err
	}
	return s.messageRepo.UnreadCount(ctx, conversationID, viewerID)
}

func (s *MessageService) participantConversation(ctx context.Context, conversationID, userID uuid.UUID) (*model.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, model.ErrNotParticipant
	}
	return conv, nil
}
