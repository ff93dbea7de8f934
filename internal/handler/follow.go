package handler

import (
	"net/http"

	"mysns/internal/httputil"
	"mysns/internal/model"
	"mysns/internal/service"
)

type FollowHandler struct {
	followService *service.FollowService
}

func NewFollowHandler(followService *service.FollowService) *FollowHandler {
	return &FollowHandler{
		followService: followService,
	}
}

// Toggle handles POST /api/follows with {"following_id", "action"}.
// Both actions are idempotent and report the resulting state.
func (h *FollowHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	followerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.FollowRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDomainError(w, r, err, "")
		return
	}
	followingID, err := bodyUUID(req.FollowingID, "following_id")
	if err != nil {
		httputil.WriteDomainError(w, r, err, "")
		return
	}

	var following bool
	if req.Action == "follow" {
		following, err = h.followService.Follow(r.Context(), followerID, followingID)
	} else {
		following, err = h.followService.Unfollow(r.Context(), followerID, followingID)
	}
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to update follow")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, map[string]bool{"following": following})
}

// GetFollowers handles GET /api/users/{id}/followers
func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "id", "user ID")
	if !ok {
		return
	}

	result, err := h.followService.GetFollowers(r.Context(), userID, viewerFrom(r))
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to fetch followers")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, result)
}

// GetFollowing handles GET /api/users/{id}/following
func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "id", "user ID")
	if !ok {
		return
	}

	result, err := h.followService.GetFollowing(r.Context(), userID, viewerFrom(r))
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to fetch following")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, result)
}
