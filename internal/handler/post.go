package handler

import (
	"net/http"

	"mysns/internal/httputil"
	"mysns/internal/model"
	"mysns/internal/service"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// Create handles POST /api/posts
// The media object must already be uploaded under media_key.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDomainError(w, r, err, "")
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to create post")
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, post)
}

// GetByID handles GET /api/posts/{id}
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID, ok := uuidParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	post, err := h.postService.GetByID(r.Context(), postID, viewerFrom(r))
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to fetch post")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, post)
}

// Delete handles DELETE /api/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	postID, ok := uuidParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), postID, userID); err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to delete post")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, map[string]string{
		"message": "Post deleted successfully",
	})
}

// GetUserPosts handles GET /api/users/{id}/posts
func (h *PostHandler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "id", "user ID")
	if !ok {
		return
	}

	result, err := h.postService.ListByUser(r.Context(), userID, viewerFrom(r))
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to fetch posts")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, result)
}
