package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysns/internal/model"
)

func TestMessageService_NonParticipantCannotSend(t *testing.T) {
	// ARRANGE
	env := newTestEnv()
	ctx := context.Background()
	a := env.store.AddUser("a")
	b := env.store.AddUser("b")
	outsider := env.store.AddUser("outsider")
	conv, _, err := env.conversations.GetOrCreate(ctx, a.ID, b.ID)
	require.NoError(t, err)

	// ACT
	_, err = env.messages.Send(ctx, conv.ID, outsider.ID, "let me in")

	// ASSERT
	assert.ErrorIs(t, err, model.ErrNotParticipant)
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Zero(t, env.store.MessageCount(conv.ID), "nothing may be written")

	_, err = env.messages.ListAndMarkRead(ctx, conv.ID, outsider.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = env.messages.UnreadCount(ctx, conv.ID, outsider.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestMessageService_UnknownConversation(t *testing.T) {
	env := newTestEnv()
	a := env.store.AddUser("a")

	_, err := env.messages.Send(context.Background(), uuid.New(), a.ID, "hello")

	assert.ErrorIs(t, err, model.ErrConversationNotFound)
}

func TestMessageService_ContentValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.store.AddUser("a")
	b := env.store.AddUser("b")
	conv, _, err := env.conversations.GetOrCreate(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = env.messages.Send(ctx, conv.ID, a.ID, "   ")
	assert.ErrorIs(t, err, model.ErrContentRequired)

	_, err = env.messages.Send(ctx, conv.ID, a.ID, strings.Repeat("m", model.MaxMessageLength+1))
	assert.ErrorIs(t, err, model.ErrMessageTooLong)

	msg, err := env.messages.Send(ctx, conv.ID, a.ID, strings.Repeat("m", model.MaxMessageLength))
	require.NoError(t, err)
	assert.True(t, msg.IsFromMe)
	assert.Equal(t, 1, env.store.MessageCount(conv.ID))
}

func TestMessageService_ReadMarksOnlyInbound(t *testing.T) {
	// ARRANGE
	env := newTestEnv()
	ctx := context.Background()
	a := env.store.AddUser("a")
	b := env.store.AddUser("b")
	conv, _, err := env.conversations.GetOrCreate(ctx, a.ID, b.ID)
	require.NoError(t, err)

	for _, m := range []struct {
		from uuid.UUID
		text string
	}{{a.ID, "one"}, {b.ID, "two"}, {b.ID, "three"}} {
		_, err := env.messages.Send(ctx, conv.ID, m.from, m.text)
		require.NoError(t, err)
	}

	n, err := env.messages.UnreadCount(ctx, conv.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	n, err = env.messages.UnreadCount(ctx, conv.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// ACT
	msgs, err := env.messages.ListAndMarkRead(ctx, conv.ID, a.ID)
	require.NoError(t, err)

	// ASSERT: oldest first, flags as they were before the read
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{msgs[0].Content, msgs[1].Content, msgs[2].Content})
	assert.True(t, msgs[0].IsFromMe)
	assert.False(t, msgs[1].IsFromMe)
	assert.False(t, msgs[1].IsRead)

	n, err = env.messages.UnreadCount(ctx, conv.ID, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// b's inbound message is untouched by a's read.
	n, err = env.messages.UnreadCount(ctx, conv.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Reading again is harmless and reports everything read.
	msgs, err = env.messages.ListAndMarkRead(ctx, conv.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, msgs[1].IsRead)
	assert.True(t, msgs[2].IsRead)
}

func TestMessageService_SendDirectFirstContact(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.store.AddUser("a")
	b := env.store.AddUser("b")

	msg, isNew, err := env.messages.SendDirect(ctx, a.ID, b.ID, "hello")
	require.NoError(t, err)
	assert.True(t, isNew)

	reply, isNew, err := env.messages.SendDirect(ctx, b.ID, a.ID, "hey")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, msg.ConversationID, reply.ConversationID)

	list, err := env.conversations.ListForUser(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].UnreadCount)
	assert.True(t, list[0].LastMessage.IsFromMe)
}

func TestMessageService_SendDirectRejectsEmptyBeforeCreating(t *testing.T) {
	env := newTestEnv()
	a := env.store.AddUser("a")
	b := env.store.AddUser("b")

	_, _, err := env.messages.SendDirect(context.Background(), a.ID, b.ID, "")

	assert.ErrorIs(t, err, model.ErrContentRequired)
	assert.Zero(t, env.store.ConversationCount())
}
