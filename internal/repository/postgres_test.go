package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysns/internal/database"
	"mysns/internal/model"
	"mysns/internal/repository"
)

// setupTestDB connects to TEST_DATABASE_URL and applies the schema.
// Rows are not cleaned up; every test uses fresh random users.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping Postgres tests")
	}

	ctx := context.Background()
	db, err := database.ConnectDSN(ctx, dsn)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	require.NoError(t, database.Migrate(ctx, db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newUser(t *testing.T, users repository.UserRepository) *model.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	u := &model.User{ExternalID: "ext_" + suffix, Username: "u_" + suffix}
	created, err := users.Upsert(context.Background(), u)
	require.NoError(t, err)
	require.True(t, created)
	return u
}

func newPost(t *testing.T, posts repository.PostRepository, userID uuid.UUID) *model.Post {
	t.Helper()
	p := &model.Post{UserID: userID, MediaKey: "posts/" + uuid.NewString(), MediaURL: "https://media.test/x"}
	require.NoError(t, posts.Create(context.Background(), p))
	return p
}

func TestUserRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	u := newUser(t, users)

	again := &model.User{ExternalID: u.ExternalID, Username: "ignored_" + uuid.NewString()[:8]}
	created, err := users.Upsert(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, u.Username, again.Username)

	clash := &model.User{ExternalID: "ext_" + uuid.NewString(), Username: u.Username}
	_, err = users.Upsert(ctx, clash)
	assert.ErrorIs(t, err, model.ErrUsernameTaken)
}

func TestFollowRepository_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)
	ctx := context.Background()
	a, b := newUser(t, users), newUser(t, users)

	created, err := follows.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = follows.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)

	n, err := follows.CountFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	removed, err := follows.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = follows.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestLikeRepository_ConcurrentLikesCountOnce(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	likes := repository.NewLikeRepository(db)
	ctx := context.Background()
	u := newUser(t, users)
	p := newPost(t, repository.NewPostRepository(db), u.ID)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := likes.Create(ctx, p.ID, u.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := likes.Count(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCommentRepository_DeleteOwnership(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	comments := repository.NewCommentRepository(db)
	ctx := context.Background()
	author, other := newUser(t, users), newUser(t, users)
	p := newPost(t, repository.NewPostRepository(db), author.ID)

	c, err := comments.Create(ctx, p.ID, author.ID, "hello")
	require.NoError(t, err)

	assert.ErrorIs(t, comments.Delete(ctx, c.ID, other.ID), model.ErrNotCommentOwner)
	assert.NoError(t, comments.Delete(ctx, c.ID, author.ID))
	assert.ErrorIs(t, comments.Delete(ctx, c.ID, author.ID), model.ErrCommentNotFound)
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	likes := repository.NewLikeRepository(db)
	ctx := context.Background()
	owner, other := newUser(t, users), newUser(t, users)
	p := newPost(t, posts, owner.ID)
	_, err := likes.Create(ctx, p.ID, other.ID)
	require.NoError(t, err)

	_, err = posts.Delete(ctx, p.ID, other.ID)
	assert.ErrorIs(t, err, model.ErrNotPostOwner)

	removed, err := posts.Delete(ctx, p.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, p.MediaKey, removed.MediaKey)

	n, err := likes.Count(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConversationRepository_PairIsUnique(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	convs := repository.NewConversationRepository(db)
	ctx := context.Background()
	low, high := model.CanonicalPair(newUser(t, users).ID, newUser(t, users).ID)

	c, err := convs.Create(ctx, low, high)
	require.NoError(t, err)

	_, err = convs.Create(ctx, low, high)
	assert.ErrorIs(t, err, model.ErrConversationExists)

	got, err := convs.GetByPair(ctx, low, high)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = convs.Create(ctx, low, uuid.New())
	assert.Error(t, err)
}

func TestMessageRepository_ListAndMarkRead(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	convs := repository.NewConversationRepository(db)
	msgs := repository.NewMessageRepository(db)
	ctx := context.Background()
	a, b := newUser(t, users), newUser(t, users)
	low, high := model.CanonicalPair(a.ID, b.ID)
	c, err := convs.Create(ctx, low, high)
	require.NoError(t, err)

	_, err = msgs.Create(ctx, c.ID, a.ID, "one")
	require.NoError(t, err)
	_, err = msgs.Create(ctx, c.ID, b.ID, "two")
	require.NoError(t, err)

	n, err := msgs.UnreadCount(ctx, c.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := msgs.ListAndMarkRead(ctx, c.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].Content)
	assert.False(t, list[0].IsRead)

	n, err = msgs.UnreadCount(ctx, c.ID, b.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// b's own message is still unread for a.
	n, err = msgs.UnreadCount(ctx, c.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	last, err := msgs.LastMessages(ctx, []uuid.UUID{c.ID})
	require.NoError(t, err)
	assert.Equal(t, "two", last[c.ID].Content)
}
