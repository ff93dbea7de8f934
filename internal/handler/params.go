package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mysns/internal/httputil"
	"mysns/internal/transport/http/middleware"
)

// uuidParam parses a chi URL parameter, writing a 400 when it is malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

// requireUser returns the authenticated caller or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

func viewerFrom(r *http.Request) *uuid.UUID {
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		return &id
	}
	return nil
}

// bodyUUID parses an id from a decoded request body.
func bodyUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &httputil.RequestError{Message: "Invalid " + field, Details: err.Error()}
	}
	return id, nil
}
