package handler

import (
	"net/http"

	"mysns/internal/httputil"
	"mysns/internal/model"
	"mysns/internal/service"
)

type BookmarkHandler struct {
	bookmarkService *service.BookmarkService
}

func NewBookmarkHandler(bookmarkService *service.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{
		bookmarkService: bookmarkService,
	}
}

// Save handles POST /api/saved-posts
func (h *BookmarkHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

// Unsave handles DELETE /api/saved-posts
func (h *BookmarkHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

func (h *BookmarkHandler) toggle(w http.ResponseWriter, r *http.Request, on bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.BookmarkRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDomainError(w, r, err, "")
		return
	}
	postID, err := bodyUUID(req.PostID, "post_id")
	if err != nil {
		httputil.WriteDomainError(w, r, err, "")
		return
	}

	state, err := h.bookmarkService.Toggle(r.Context(), postID, userID, on)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to update saved post")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, state)
}

// List handles GET /api/saved-posts
func (h *BookmarkHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.bookmarkService.List(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to fetch saved posts")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, result)
}
