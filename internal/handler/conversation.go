package handler

import (
	"net/http"

	"mysns/internal/httputil"
	"mysns/internal/model"
	"mysns/internal/service"
)

type ConversationHandler struct {
	conversationService *service.ConversationService
	messageService      *service.MessageService
}

func NewConversationHandler(conversationService *service.ConversationService, messageService *service.MessageService) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		messageService:      messageService,
	}
}

// Create handles POST /api/conversations
// Returns the existing conversation for the pair when there is one.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateConversationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDomainError(w, r, err, "")
		return
	}
	otherID, err := bodyUUID(req.OtherUserID, "other_user_id")
	if err != nil {
		httputil.WriteDomainError(w, r, err, "")
		return
	}

	conv, isNew, err := h.conversationService.GetOrCreate(r.Context(), userID, otherID)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to open conversation")
		return
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	httputil.WriteSuccess(w, status, model.CreateConversationResponse{
		ConversationID: conv.ID,
		IsNew:          isNew,
	})
}

// List handles GET /api/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	summaries, err := h.conversationService.ListForUser(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to fetch conversations")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, summaries)
}

// UnreadCount handles GET /api/conversations/{id}/unread
func (h *ConversationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	convID, ok := uuidParam(w, r, "id", "conversation ID")
	if !ok {
		return
	}

	n, err := h.messageService.UnreadCount(r.Context(), convID, userID)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to count unread messages")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, map[string]int64{"unreadCount": n})
}
