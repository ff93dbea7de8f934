package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysns/internal/model"
	"mysns/internal/optimistic"
)

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func writeEnvelope(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_DecodesDataAndSendsToken(t *testing.T) {
	postID := uuid.New()
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/likes", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req model.LikeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, postID.String(), req.PostID)

		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    model.LikeState{Liked: true, LikeCount: 3},
		})
	})

	state, err := New(srv.URL+"/", "tok").Like(context.Background(), postID)

	require.NoError(t, err)
	assert.Equal(t, &model.LikeState{Liked: true, LikeCount: 3}, state)
}

func TestClient_ErrorEnvelopeMapsToKind(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   error
	}{
		{"validation", http.StatusBadRequest, model.ErrValidation},
		{"unauthenticated", http.StatusUnauthorized, model.ErrUnauthenticated},
		{"forbidden", http.StatusForbidden, model.ErrForbidden},
		{"not found", http.StatusNotFound, model.ErrNotFound},
		{"conflict", http.StatusConflict, model.ErrConflict},
		{"server error", http.StatusInternalServerError, model.ErrUnavailable},
		{"rate limited", http.StatusTooManyRequests, model.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tt.status, map[string]interface{}{
					"success": false,
					"error":   map[string]string{"code": "SOME_CODE", "message": "nope", "details": "extra"},
				})
			})

			err := New(srv.URL, "").DeleteComment(context.Background(), uuid.New())

			require.ErrorIs(t, err, tt.kind)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, "SOME_CODE", apiErr.Code)
			assert.Equal(t, "nope", apiErr.Message)
			assert.Equal(t, "extra", apiErr.Details)
		})
	}
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := New(srv.URL, "").GetPost(context.Background(), uuid.New())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestClient_NetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, "").Follow(context.Background(), uuid.New())

	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestClient_ListMessagesQuery(t *testing.T) {
	convID := uuid.New()
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/messages", r.URL.Path)
		assert.Equal(t, convID.String(), r.URL.Query().Get("conversation_id"))
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    model.MessageListResponse{Messages: []model.Message{{Content: "hey"}}},
		})
	})

	msgs, err := New(srv.URL, "").ListMessages(context.Background(), convID)

	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hey", msgs[0].Content)
}

func TestSession_RollsBackAndAsksForReauth(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"error":   map[string]string{"code": model.CodeTokenExpired, "message": "expired"},
		})
	})
	actor, target := uuid.New(), uuid.New()
	s := NewSession(New(srv.URL, "stale"), actor)
	s.SeedProfile(model.Profile{User: model.User{ID: target}, FollowersCount: 7})

	_, err := s.ToggleFollow(context.Background(), target)

	assert.ErrorIs(t, err, optimistic.ErrReauthRequired)
	snap, state := s.FollowState(target)
	assert.Equal(t, optimistic.Snapshot{Active: false, Count: 7}, snap)
	assert.Equal(t, optimistic.RolledBack, state)
}

func TestSession_BookmarkSendsDesiredState(t *testing.T) {
	var saves, unsaves atomic.Int32
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			saves.Add(1)
		case http.MethodDelete:
			unsaves.Add(1)
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]bool{"saved": r.Method == http.MethodPost}})
	})
	postID := uuid.New()
	s := NewSession(New(srv.URL, "tok"), uuid.New())
	s.SeedPost(model.Post{ID: postID, IsSaved: true})

	snap, err := s.ToggleBookmark(context.Background(), postID)
	require.NoError(t, err)
	assert.False(t, snap.Active)

	snap, err = s.ToggleBookmark(context.Background(), postID)
	require.NoError(t, err)
	assert.True(t, snap.Active)

	assert.Equal(t, int32(1), saves.Load())
	assert.Equal(t, int32(1), unsaves.Load())
	_, state := s.BookmarkState(postID)
	assert.Equal(t, optimistic.Committed, state)
}
