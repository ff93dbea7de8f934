package handler

import (
	"net/http"

	"github.com/google/uuid"

	"mysns/internal/httputil"
	"mysns/internal/logger"
	"mysns/internal/model"
	"mysns/internal/service"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// List handles GET /api/messages?conversation_id=
// Reading a conversation marks the caller's inbound messages as read.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	convID, err := uuid.Parse(r.URL.Query().Get("conversation_id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Query parameter 'conversation_id' must be a UUID")
		return
	}

	msgs, err := h.messageService.ListAndMarkRead(r.Context(), convID, userID)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to fetch messages")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, model.MessageListResponse{Messages: msgs})
}

// Send handles POST /api/messages
// With recipient_id instead of conversation_id the conversation is opened first.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDomainError(w, r, err, "")
		return
	}

	var msg *model.Message
	if req.ConversationID != "" {
		convID, err := bodyUUID(req.ConversationID, "conversation_id")
		if err != nil {
			httputil.WriteDomainError(w, r, err, "")
			return
		}
		if msg, err = h.messageService.Send(r.Context(), convID, userID, req.Content); err != nil {
			httputil.WriteDomainError(w, r, err, "Failed to send message")
			return
		}
	} else {
		recipientID, err := bodyUUID(req.RecipientID, "recipient_id")
		if err != nil {
			httputil.WriteDomainError(w, r, err, "")
			return
		}
		var isNew bool
		if msg, isNew, err = h.messageService.SendDirect(r.Context(), userID, recipientID, req.Content); err != nil {
			httputil.WriteDomainError(w, r, err, "Failed to send message")
			return
		}
		if isNew {
			logger.Ctx(r.Context()).Info().
				Str(logger.FieldConversationID, msg.ConversationID.String()).
				Msg("conversation opened by first message")
		}
	}

	httputil.WriteSuccess(w, http.StatusCreated, msg)
}
