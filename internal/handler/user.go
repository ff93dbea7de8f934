package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mysns/internal/httputil"
	"mysns/internal/model"
	"mysns/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetProfile handles GET /api/users/{id}
// The id may be the internal UUID or the identity provider's user id.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "id")
	if ref == "" {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), ref, viewerFrom(r))
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to fetch profile")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, profile)
}

// UpdateMe handles PATCH /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDomainError(w, r, err, "")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to update profile")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, user)
}

// Search handles GET /api/users/search?q=
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httputil.WriteBadRequest(w, "Query parameter 'q' is required")
		return
	}

	users, err := h.userService.Search(r.Context(), query, viewerFrom(r))
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to search users")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, map[string]interface{}{"users": users})
}
