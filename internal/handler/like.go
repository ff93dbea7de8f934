package handler

import (
	"net/http"

	"mysns/internal/httputil"
	"mysns/internal/model"
	"mysns/internal/service"
)

type LikeHandler struct {
	likeService *service.LikeService
}

func NewLikeHandler(likeService *service.LikeService) *LikeHandler {
	return &LikeHandler{
		likeService: likeService,
	}
}

// Like handles POST /api/likes
func (h *LikeHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

// Unlike handles DELETE /api/likes
func (h *LikeHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

func (h *LikeHandler) toggle(w http.ResponseWriter, r *http.Request, on bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.LikeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDomainError(w, r, err, "")
		return
	}
	postID, err := bodyUUID(req.PostID, "post_id")
	if err != nil {
		httputil.WriteDomainError(w, r, err, "")
		return
	}

	state, err := h.likeService.ToggleLike(r.Context(), postID, userID, on)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to update like")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, state)
}
