package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysns/internal/client"
	"mysns/internal/handler"
	"mysns/internal/model"
	"mysns/internal/optimistic"
	"mysns/internal/queue"
	"mysns/internal/repository/repotest"
	"mysns/internal/service"
	"mysns/internal/storage"
	transporthttp "mysns/internal/transport/http"
	authmw "mysns/internal/transport/http/middleware"
)

// ============================================================================
// Test server
// ============================================================================

const testSecret = "test-secret"

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, string, queue.MediaEvent) (string, error) {
	return "0-1", nil
}

type testServer struct {
	*httptest.Server
	store *repotest.Store
}

func newTestServer(t *testing.T, limiter *authmw.RateLimiter) *testServer {
	t.Helper()

	store := repotest.New()
	media := storage.UncheckedStore{BaseURL: "https://media.test"}
	pub := discardPublisher{}

	identitySvc := service.NewIdentityService(store.Users(), nil)
	userSvc := service.NewUserService(store.Users(), store.Follows(), store.Posts(), media, pub, "defaults/avatar.png")
	followSvc := service.NewFollowService(store.Follows(), store.Users())
	likeSvc := service.NewLikeService(store.Likes(), store.Posts())
	commentSvc := service.NewCommentService(store.Comments(), store.Posts())
	postSvc := service.NewPostService(store.Posts(), store.Users(), store.Likes(), store.Comments(), store.Bookmarks(), media, pub)
	bookmarkSvc := service.NewBookmarkService(store.Bookmarks(), store.Posts(), postSvc)
	convSvc := service.NewConversationService(store.Conversations(), store.Users(), store.Messages())
	msgSvc := service.NewMessageService(store.Conversations(), store.Messages(), convSvc)

	router := transporthttp.NewRouter(transporthttp.RouterConfig{
		IdentityHandler:     handler.NewIdentityHandler(identitySvc),
		UserHandler:         handler.NewUserHandler(userSvc),
		FollowHandler:       handler.NewFollowHandler(followSvc),
		LikeHandler:         handler.NewLikeHandler(likeSvc),
		BookmarkHandler:     handler.NewBookmarkHandler(bookmarkSvc),
		PostHandler:         handler.NewPostHandler(postSvc),
		CommentHandler:      handler.NewCommentHandler(commentSvc),
		ConversationHandler: handler.NewConversationHandler(convSvc, msgSvc),
		MessageHandler:      handler.NewMessageHandler(msgSvc),
		Verifier:            authmw.NewTokenVerifier(testSecret, ""),
		Resolver:            identitySvc,
		RateLimiter:         limiter,
		Logger:              zerolog.Nop(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store}
}

func signToken(t *testing.T, sub string, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(ttl).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

// clientFor returns an API client acting as a user created with AddUser.
func (s *testServer) clientFor(t *testing.T, u *model.User) *client.Client {
	return client.New(s.URL, signToken(t, u.ExternalID, time.Hour))
}

// ============================================================================
// Authentication
// ============================================================================

func TestAPI_RequiresToken(t *testing.T) {
	srv := newTestServer(t, nil)
	post := srv.store.AddPost(srv.store.AddUser("author").ID, "posts/a.jpg")

	_, err := client.New(srv.URL, "").Like(context.Background(), post.ID)

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, model.CodeTokenMissing, apiErr.Code)
}

func TestAPI_ExpiredToken(t *testing.T) {
	srv := newTestServer(t, nil)
	alice := srv.store.AddUser("alice")
	post := srv.store.AddPost(alice.ID, "posts/a.jpg")

	c := client.New(srv.URL, signToken(t, alice.ExternalID, -time.Minute))
	_, err := c.Like(context.Background(), post.ID)

	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, model.CodeTokenExpired, apiErr.Code)
}

func TestAPI_SyncUserCreatesOnFirstSight(t *testing.T) {
	srv := newTestServer(t, nil)
	ctx := context.Background()

	_, err := client.New(srv.URL, "").GetProfile(ctx, "user_2abc")
	require.ErrorIs(t, err, model.ErrNotFound)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/sync-user", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user_2abc", time.Hour))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool       `json:"success"`
		Data    model.User `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.NotEqual(t, uuid.Nil, body.Data.ID)

	profile, err := client.New(srv.URL, "").GetProfile(ctx, "user_2abc")
	require.NoError(t, err)
	assert.Equal(t, body.Data.ID, profile.ID)
	assert.False(t, profile.IsOwnProfile)
}

// ============================================================================
// Engagement
// ============================================================================

func TestAPI_OptimisticLikeRoundTrip(t *testing.T) {
	srv := newTestServer(t, nil)
	author := srv.store.AddUser("author")
	alice := srv.store.AddUser("alice")
	post := srv.store.AddPost(author.ID, "posts/a.jpg")
	ctx := context.Background()

	c := srv.clientFor(t, alice)
	session := client.NewSession(c, alice.ID)

	fetched, err := c.GetPost(ctx, post.ID)
	require.NoError(t, err)
	session.SeedPost(*fetched)

	snap, err := session.ToggleLike(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, optimistic.Snapshot{Active: true, Count: 1}, snap)

	fetched, err = c.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, fetched.IsLiked)
	assert.Equal(t, int64(1), fetched.LikeCount)

	// A retried like does not double count.
	state, err := c.Like(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.LikeCount)

	snap, err = session.ToggleLike(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, optimistic.Snapshot{Active: false, Count: 0}, snap)
	_, st := session.LikeState(post.ID)
	assert.Equal(t, optimistic.Committed, st)
}

func TestAPI_OptimisticLikeRollsBackOnMissingPost(t *testing.T) {
	srv := newTestServer(t, nil)
	alice := srv.store.AddUser("alice")
	session := client.NewSession(srv.clientFor(t, alice), alice.ID)
	missing := uuid.New()

	_, err := session.ToggleLike(context.Background(), missing)

	assert.ErrorIs(t, err, model.ErrNotFound)
	snap, st := session.LikeState(missing)
	assert.False(t, snap.Active)
	assert.Equal(t, optimistic.RolledBack, st)
}

func TestAPI_CommentOwnership(t *testing.T) {
	srv := newTestServer(t, nil)
	author := srv.store.AddUser("author")
	alice := srv.store.AddUser("alice")
	bob := srv.store.AddUser("bob")
	post := srv.store.AddPost(author.ID, "posts/a.jpg")
	ctx := context.Background()

	_, err := srv.clientFor(t, alice).AddComment(ctx, post.ID, "   ")
	assert.ErrorIs(t, err, model.ErrValidation)

	comment, err := srv.clientFor(t, alice).AddComment(ctx, post.ID, "  nice shot  ")
	require.NoError(t, err)
	assert.Equal(t, "nice shot", comment.Content)

	err = srv.clientFor(t, bob).DeleteComment(ctx, comment.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	require.NoError(t, srv.clientFor(t, alice).DeleteComment(ctx, comment.ID))

	err = srv.clientFor(t, alice).DeleteComment(ctx, comment.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

// ============================================================================
// Relationships
// ============================================================================

func TestAPI_FollowReflectsInProfile(t *testing.T) {
	srv := newTestServer(t, nil)
	alice := srv.store.AddUser("alice")
	bob := srv.store.AddUser("bob")
	ctx := context.Background()
	c := srv.clientFor(t, alice)

	session := client.NewSession(c, alice.ID)
	profile, err := c.GetProfile(ctx, bob.ID.String())
	require.NoError(t, err)
	session.SeedProfile(*profile)

	snap, err := session.ToggleFollow(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, optimistic.Snapshot{Active: true, Count: 1}, snap)

	profile, err = c.GetProfile(ctx, bob.ID.String())
	require.NoError(t, err)
	assert.True(t, profile.IsFollowing)
	assert.Equal(t, int64(1), profile.FollowersCount)

	_, err = c.Follow(ctx, alice.ID)
	assert.ErrorIs(t, err, model.ErrValidation)
}

// ============================================================================
// Messaging
// ============================================================================

func TestAPI_ConversationAndMessages(t *testing.T) {
	srv := newTestServer(t, nil)
	alice := srv.store.AddUser("alice")
	bob := srv.store.AddUser("bob")
	carol := srv.store.AddUser("carol")
	ctx := context.Background()
	ac, bc := srv.clientFor(t, alice), srv.clientFor(t, bob)

	started, err := ac.StartConversation(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, started.IsNew)

	again, err := bc.StartConversation(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, again.IsNew)
	assert.Equal(t, started.ConversationID, again.ConversationID)

	_, err = ac.SendMessage(ctx, started.ConversationID, "hi bob")
	require.NoError(t, err)

	_, err = srv.clientFor(t, carol).SendMessage(ctx, started.ConversationID, "let me in")
	assert.ErrorIs(t, err, model.ErrForbidden)

	unread, err := bc.UnreadCount(ctx, started.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	msgs, err := bc.ListMessages(ctx, started.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].IsRead, "listing returns the flags as they were before marking")
	assert.False(t, msgs[0].IsFromMe)

	unread, err = bc.UnreadCount(ctx, started.ConversationID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	convs, err := bc.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, alice.ID, convs[0].OtherUser.ID)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, "hi bob", convs[0].LastMessage.Content)
}

// ============================================================================
// Rate limiting
// ============================================================================

func TestAPI_WritesAreRateLimited(t *testing.T) {
	srv := newTestServer(t, authmw.NewRateLimiter(0.001, 1))
	author := srv.store.AddUser("author")
	alice := srv.store.AddUser("alice")
	post := srv.store.AddPost(author.ID, "posts/a.jpg")
	c := srv.clientFor(t, alice)
	ctx := context.Background()

	_, err := c.Like(ctx, post.ID)
	require.NoError(t, err)

	_, err = c.Unlike(ctx, post.ID)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)

	// Reads are not limited.
	_, err = c.GetPost(ctx, post.ID)
	assert.NoError(t, err)
}
