package handler

import (
	"net/http"

	"mysns/internal/httputil"
	"mysns/internal/model"
	"mysns/internal/service"
	"mysns/internal/transport/http/middleware"
)

type IdentityHandler struct {
	identityService *service.IdentityService
}

func NewIdentityHandler(identityService *service.IdentityService) *IdentityHandler {
	return &IdentityHandler{
		identityService: identityService,
	}
}

// SyncUser handles POST /api/sync-user
// Clients call it after sign-in to make sure the local user row exists.
func (h *IdentityHandler) SyncUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		httputil.WriteDomainError(w, r, model.ErrMissingIdentity, "")
		return
	}

	user, err := h.identityService.Resolve(r.Context(), identity)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to sync user")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, user)
}
