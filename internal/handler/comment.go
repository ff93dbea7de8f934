package handler

import (
	"net/http"

	"mysns/internal/httputil"
	"mysns/internal/model"
	"mysns/internal/service"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// Create handles POST /api/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDomainError(w, r, err, "")
		return
	}
	postID, err := bodyUUID(req.PostID, "post_id")
	if err != nil {
		httputil.WriteDomainError(w, r, err, "")
		return
	}

	comment, err := h.commentService.AddComment(r.Context(), postID, userID, req.Content)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to create comment")
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, comment)
}

// Delete handles DELETE /api/comments/{id}
// Only the author can delete; a missing comment is a 404, someone else's a 403.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	commentID, ok := uuidParam(w, r, "id", "comment ID")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(r.Context(), commentID, userID); err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to delete comment")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, map[string]string{
		"message": "Comment deleted successfully",
	})
}

// ListByPost handles GET /api/posts/{id}/comments
func (h *CommentHandler) ListByPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := uuidParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	result, err := h.commentService.ListComments(r.Context(), postID)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to fetch comments")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, result)
}
