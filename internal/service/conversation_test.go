package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysns/internal/model"
)

func TestConversationService_GetOrCreateIsSymmetric(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.store.AddUser("a")
	b := env.store.AddUser("b")

	first, isNew, err := env.conversations.GetOrCreate(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, isNew)

	second, isNew, err := env.conversations.GetOrCreate(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.ID, second.ID)

	low, high := model.CanonicalPair(a.ID, b.ID)
	assert.Equal(t, low, first.UserLowID)
	assert.Equal(t, high, first.UserHighID)
	assert.Equal(t, 1, env.store.ConversationCount())
}

func TestConversationService_SelfAndUnknown(t *testing.T) {
	env := newTestEnv()
	a := env.store.AddUser("a")

	_, _, err := env.conversations.GetOrCreate(context.Background(), a.ID, a.ID)
	assert.ErrorIs(t, err, model.ErrCannotMessageSelf)

	_, _, err = env.conversations.GetOrCreate(context.Background(), a.ID, uuid.New())
	assert.ErrorIs(t, err, model.ErrUserNotFound)
	assert.Zero(t, env.store.ConversationCount())
}

// TestConversationService_ConcurrentCreateConverges lines up both callers so
// they both miss the lookup and both insert; exactly one row must survive and
// both callers must get it.
func TestConversationService_ConcurrentCreateConverges(t *testing.T) {
	// ARRANGE
	env := newTestEnv()
	a := env.store.AddUser("a")
	b := env.store.AddUser("b")

	var arrived sync.WaitGroup
	arrived.Add(2)
	env.store.BeforeConversationInsert = func() {
		arrived.Done()
		arrived.Wait()
	}

	// ACT
	type result struct {
		conv  *model.Conversation
		isNew bool
		err   error
	}
	results := make([]result, 2)
	var wg sync.WaitGroup
	for i, pair := range [][2]uuid.UUID{{a.ID, b.ID}, {b.ID, a.ID}} {
		wg.Add(1)
		go func(i int, x, y uuid.UUID) {
			defer wg.Done()
			conv, isNew, err := env.conversations.GetOrCreate(context.Background(), x, y)
			results[i] = result{conv, isNew, err}
		}(i, pair[0], pair[1])
	}
	wg.Wait()

	// ASSERT
	require.NoError(t, results[0].err)
	require.NoError(t, results[1].err)
	assert.Equal(t, results[0].conv.ID, results[1].conv.ID)
	assert.NotEqual(t, results[0].isNew, results[1].isNew, "exactly one caller creates")
	assert.Equal(t, 1, env.store.ConversationCount())
}

func TestConversationService_ListForUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.store.AddUser("a")
	b := env.store.AddUser("b")
	c := env.store.AddUser("c")

	_, _, err := env.messages.SendDirect(ctx, b.ID, a.ID, "hi from b")
	require.NoError(t, err)
	_, _, err = env.messages.SendDirect(ctx, c.ID, a.ID, "hi from c")
	require.NoError(t, err)
	_, _, err = env.messages.SendDirect(ctx, c.ID, a.ID, "again")
	require.NoError(t, err)

	list, err := env.conversations.ListForUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "c", list[0].OtherUser.Username, "most recent activity first")
	assert.Equal(t, int64(2), list[0].UnreadCount)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "again", list[0].LastMessage.Content)
	assert.False(t, list[0].LastMessage.IsFromMe)

	assert.Equal(t, "b", list[1].OtherUser.Username)
	assert.Equal(t, int64(1), list[1].UnreadCount)

	// Listing does not mark anything read.
	again, err := env.conversations.ListForUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), again[0].UnreadCount)
}

func TestConversationService_ListEmpty(t *testing.T) {
	env := newTestEnv()
	a := env.store.AddUser("a")

	list, err := env.conversations.ListForUser(context.Background(), a.ID)

	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
