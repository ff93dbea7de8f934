package service

import (
	"context"
	"sync"

	"mysns/internal/queue"
	"mysns/internal/repository/repotest"
	"mysns/internal/storage"
)

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.MediaEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, stream string, event queue.MediaEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "0-1", nil
}

func (p *recordingPublisher) Events() []queue.MediaEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.MediaEvent(nil), p.events...)
}

// fakeMedia accepts only the keys it was given.
type fakeMedia struct {
	keys map[string]bool
}

func newFakeMedia(keys ...string) *fakeMedia {
	m := &fakeMedia{keys: make(map[string]bool)}
	for _, k := range keys {
		m.keys[k] = true
	}
	return m
}

func (m *fakeMedia) Exists(ctx context.Context, key string) (bool, error) { return m.keys[key], nil }
func (m *fakeMedia) Delete(ctx context.Context, key string) error         { delete(m.keys, key); return nil }
func (m *fakeMedia) PublicURL(key string) string                          { return "https://media.test/" + key }

var _ storage.MediaStore = (*fakeMedia)(nil)

type testEnv struct {
	store     *repotest.Store
	media     *fakeMedia
	publisher *recordingPublisher

	identity      *IdentityService
	users         *UserService
	follows       *FollowService
	likes         *LikeService
	comments      *CommentService
	posts         *PostService
	bookmarks     *BookmarkService
	conversations *ConversationService
	messages      *MessageService
}

func newTestEnv(mediaKeys ...string) *testEnv {
	store := repotest.New()
	media := newFakeMedia(mediaKeys...)
	pub := &recordingPublisher{}

	env := &testEnv{store: store, media: media, publisher: pub}
	env.identity = NewIdentityService(store.Users(), nil)
	env.users = NewUserService(store.Users(), store.Follows(), store.Posts(), media, pub, "defaults/avatar.png")
	env.follows = NewFollowService(store.Follows(), store.Users())
	env.likes = NewLikeService(store.Likes(), store.Posts())
	env.comments = NewCommentService(store.Comments(), store.Posts())
	env.posts = NewPostService(store.Posts(), store.Users(), store.Likes(), store.Comments(), store.Bookmarks(), media, pub)
	env.bookmarks = NewBookmarkService(store.Bookmarks(), store.Posts(), env.posts)
	env.conversations = NewConversationService(store.Conversations(), store.Users(), store.Messages())
	env.messages = NewMessageService(store.Conversations(), store.Messages(), env.conversations)
	return env
}
