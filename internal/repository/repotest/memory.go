// Package repotest provides in-memory repositories that enforce the same
// uniqueness, ownership and foreign key rules as the Postgres schema.
// Service, handler and client tests run against it without a database.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mysns/internal/model"
	"mysns/internal/repository"
)

type pair struct{ a, b uuid.UUID }

// Store holds every table. All repositories returned by one Store share it.
type Store struct {
	mu sync.Mutex

	users     map[uuid.UUID]*model.User
	follows   map[pair]time.Time // follower, following
	posts     map[uuid.UUID]*model.Post
	likes     map[pair]time.Time // post, user
	comments  map[uuid.UUID]*model.Comment
	saved     map[pair]time.Time // user, post
	convs     map[uuid.UUID]*model.Conversation
	convPairs map[pair]uuid.UUID
	messages  []model.Message
	seq       int64
	clock     time.Time

	// BeforeConversationInsert runs outside the lock at the start of every
	// conversation Create, letting tests line up concurrent creators.
	BeforeConversationInsert func()
}

func New() *Store {
	return &Store{
		users:     make(map[uuid.UUID]*model.User),
		follows:   make(map[pair]time.Time),
		posts:     make(map[uuid.UUID]*model.Post),
		likes:     make(map[pair]time.Time),
		comments:  make(map[uuid.UUID]*model.Comment),
		saved:     make(map[pair]time.Time),
		convs:     make(map[uuid.UUID]*model.Conversation),
		convPairs: make(map[pair]uuid.UUID),
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// now advances a fake clock so every row gets a distinct, increasing time.
// Caller holds s.mu.
func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

// AddUser inserts a user directly and returns it.
func (s *Store) AddUser(username string) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	u := &model.User{
		ID:         uuid.New(),
		ExternalID: "ext_" + username,
		Username:   username,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.users[u.ID] = u
	cp := *u
	return &cp
}

// AddPost inserts a post directly and returns it.
func (s *Store) AddPost(userID uuid.UUID, mediaKey string) *model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Post{
		ID:        uuid.New(),
		UserID:    userID,
		MediaKey:  mediaKey,
		MediaURL:  "https://media.test/" + mediaKey,
		CreatedAt: s.now(),
	}
	s.posts[p.ID] = p
	cp := *p
	return &cp
}

// MessageCount returns the number of stored messages in a conversation.
func (s *Store) MessageCount(conversationID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			n++
		}
	}
	return n
}

// ConversationCount returns the number of conversation rows.
func (s *Store) ConversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

func (s *Store) summary(id uuid.UUID) *model.UserSummary {
	u, ok := s.users[id]
	if !ok {
		return &model.UserSummary{ID: id}
	}
	sum := u.Summary()
	return &sum
}

func (s *Store) Users() repository.UserRepository                 { return userRepo{s} }
func (s *Store) Follows() repository.FollowRepository             { return followRepo{s} }
func (s *Store) Posts() repository.PostRepository                 { return postRepo{s} }
func (s *Store) Likes() repository.LikeRepository                 { return likeRepo{s} }
func (s *Store) Comments() repository.CommentRepository           { return commentRepo{s} }
func (s *Store) Bookmarks() repository.BookmarkRepository         { return bookmarkRepo{s} }
func (s *Store) Conversations() repository.ConversationRepository { return convRepo{s} }
func (s *Store) Messages() repository.MessageRepository           { return messageRepo{s} }

// users

type userRepo struct{ s *Store }

func (r userRepo) Upsert(ctx context.Context, u *model.User) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.ExternalID == u.ExternalID {
			if existing.DisplayName == nil {
				existing.DisplayName = u.DisplayName
			}
			if existing.AvatarURL == nil {
				existing.AvatarURL = u.AvatarURL
			}
			existing.UpdatedAt = s.now()
			*u = *existing
			return false, nil
		}
	}
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return false, model.ErrUsernameTaken
		}
	}

	now := s.now()
	row := &model.User{
		ID:          uuid.New(),
		ExternalID:  u.ExternalID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.users[row.ID] = row
	*u = *row
	return true, nil
}

func (r userRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ExternalID == externalID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r userRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.users[id]
	return ok, nil
}

func (r userRepo) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.UserSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]model.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out, nil
}

func (r userRepo) Update(ctx context.Context, id uuid.UUID, upd repository.UserUpdate) (*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	if upd.Username != nil {
		for otherID, other := range s.users {
			if otherID != id && other.Username == *upd.Username {
				return nil, model.ErrUsernameTaken
			}
		}
		u.Username = *upd.Username
	}
	if upd.DisplayName != nil {
		u.DisplayName = upd.DisplayName
	}
	if upd.Bio != nil {
		u.Bio = upd.Bio
	}
	if upd.AvatarKey != nil {
		u.AvatarKey = upd.AvatarKey
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = upd.AvatarURL
	}
	u.UpdatedAt = s.now()
	cp := *u
	return &cp, nil
}

func (r userRepo) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q := strings.ToLower(query)
	var out []model.UserSummary
	for _, u := range r.s.users {
		name := ""
		if u.DisplayName != nil {
			name = strings.ToLower(*u.DisplayName)
		}
		if strings.HasPrefix(strings.ToLower(u.Username), q) || strings.HasPrefix(name, q) {
			out = append(out, u.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ei, ej := strings.ToLower(out[i].Username) == q, strings.ToLower(out[j].Username) == q
		if ei != ej {
			return ei
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// follows

type followRepo struct{ s *Store }

func (r followRepo) Create(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[followerID]; !ok {
		return false, model.ErrUserNotFound
	}
	if _, ok := s.users[followingID]; !ok {
		return false, model.ErrUserNotFound
	}
	if followerID == followingID {
		return false, model.ErrCannotFollowSelf
	}
	k := pair{followerID, followingID}
	if _, ok := s.follows[k]; ok {
		return false, nil
	}
	s.follows[k] = s.now()
	return true, nil
}

func (r followRepo) Delete(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := pair{followerID, followingID}
	if _, ok := r.s.follows[k]; !ok {
		return false, nil
	}
	delete(r.s.follows, k)
	return true, nil
}

func (r followRepo) Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.follows[pair{followerID, followingID}]
	return ok, nil
}

func (r followRepo) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k := range r.s.follows {
		if k.b == userID {
			n++
		}
	}
	return n, nil
}

func (r followRepo) CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k := range r.s.follows {
		if k.a == userID {
			n++
		}
	}
	return n, nil
}

func (r followRepo) list(userID uuid.UUID, limit int, followers bool) []model.UserSummary {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	type edge struct {
		other uuid.UUID
		at    time.Time
	}
	var edges []edge
	for k, at := range r.s.follows {
		switch {
		case followers && k.b == userID:
			edges = append(edges, edge{k.a, at})
		case !followers && k.a == userID:
			edges = append(edges, edge{k.b, at})
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].at.After(edges[j].at) })
	if len(edges) > limit {
		edges = edges[:limit]
	}
	out := make([]model.UserSummary, 0, len(edges))
	for _, e := range edges {
		out = append(out, *r.s.summary(e.other))
	}
	return out
}

func (r followRepo) GetFollowers(ctx context.Context, userID uuid.UUID, limit int) ([]model.UserSummary, error) {
	return r.list(userID, limit, true), nil
}

func (r followRepo) GetFollowing(ctx context.Context, userID uuid.UUID, limit int) ([]model.UserSummary, error) {
	return r.list(userID, limit, false), nil
}

func (r followRepo) CheckFollows(ctx context.Context, followerID uuid.UUID, followingIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]bool)
	for _, id := range followingIDs {
		if _, ok := r.s.follows[pair{followerID, id}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

// posts

type postRepo struct{ s *Store }

func (r postRepo) Create(ctx context.Context, p *model.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[p.UserID]; !ok {
		return model.ErrUserNotFound
	}
	p.ID = uuid.New()
	p.CreatedAt = s.now()
	cp := *p
	s.posts[p.ID] = &cp
	return nil
}

func (r postRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	cp := *p
	cp.Author = r.s.summary(p.UserID)
	return &cp, nil
}

func (r postRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.posts[id]
	return ok, nil
}

func (r postRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Post
	for _, p := range r.s.posts {
		if p.UserID == userID {
			cp := *p
			cp.Author = r.s.summary(p.UserID)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r postRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.posts {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

// Delete cascades to likes, comments and saves the way the foreign keys do.
func (r postRepo) Delete(ctx context.Context, postID, userID uuid.UUID) (*model.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	if p.UserID != userID {
		return nil, model.ErrNotPostOwner
	}
	delete(s.posts, postID)
	for k := range s.likes {
		if k.a == postID {
			delete(s.likes, k)
		}
	}
	for k := range s.saved {
		if k.b == postID {
			delete(s.saved, k)
		}
	}
	for id, c := range s.comments {
		if c.PostID == postID {
			delete(s.comments, id)
		}
	}
	return p, nil
}

// likes

type likeRepo struct{ s *Store }

func (r likeRepo) Create(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return false, model.ErrPostNotFound
	}
	k := pair{postID, userID}
	if _, ok := s.likes[k]; ok {
		return false, nil
	}
	s.likes[k] = s.now()
	return true, nil
}

func (r likeRepo) Delete(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := pair{postID, userID}
	if _, ok := r.s.likes[k]; !ok {
		return false, nil
	}
	delete(r.s.likes, k)
	return true, nil
}

func (r likeRepo) Exists(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.likes[pair{postID, userID}]
	return ok, nil
}

func (r likeRepo) Count(ctx context.Context, postID uuid.UUID) (int64, error) {
	counts, _ := r.CountByPosts(ctx, []uuid.UUID{postID})
	return counts[postID], nil
}

func (r likeRepo) CountByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]int64)
	for _, id := range postIDs {
		for k := range r.s.likes {
			if k.a == id {
				out[id]++
			}
		}
	}
	return out, nil
}

func (r likeRepo) CheckLiked(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]bool)
	for _, id := range postIDs {
		if _, ok := r.s.likes[pair{id, userID}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

// comments

type commentRepo struct{ s *Store }

func (r commentRepo) Create(ctx context.Context, postID, userID uuid.UUID, content string) (*model.Comment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return nil, model.ErrPostNotFound
	}
	c := &model.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now(),
	}
	s.comments[c.ID] = c
	cp := *c
	cp.Author = s.summary(userID)
	return &cp, nil
}

func (r commentRepo) Delete(ctx context.Context, commentID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[commentID]
	if !ok {
		return model.ErrCommentNotFound
	}
	if c.UserID != userID {
		return model.ErrNotCommentOwner
	}
	delete(r.s.comments, commentID)
	return nil
}

func (r commentRepo) Count(ctx context.Context, postID uuid.UUID) (int64, error) {
	counts, _ := r.CountByPosts(ctx, []uuid.UUID{postID})
	return counts[postID], nil
}

func (r commentRepo) CountByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]int64)
	for _, id := range postIDs {
		for _, c := range r.s.comments {
			if c.PostID == id {
				out[id]++
			}
		}
	}
	return out, nil
}

func (r commentRepo) ListByPost(ctx context.Context, postID uuid.UUID) ([]model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Comment
	for _, c := range r.s.comments {
		if c.PostID == postID {
			cp := *c
			cp.Author = r.s.summary(c.UserID)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// saved posts

type bookmarkRepo struct{ s *Store }

func (r bookmarkRepo) Create(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return false, model.ErrPostNotFound
	}
	k := pair{userID, postID}
	if _, ok := s.saved[k]; ok {
		return false, nil
	}
	s.saved[k] = s.now()
	return true, nil
}

func (r bookmarkRepo) Delete(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := pair{userID, postID}
	if _, ok := r.s.saved[k]; !ok {
		return false, nil
	}
	delete(r.s.saved, k)
	return true, nil
}

func (r bookmarkRepo) Exists(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.saved[pair{userID, postID}]
	return ok, nil
}

func (r bookmarkRepo) CheckSaved(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]bool)
	for _, id := range postIDs {
		if _, ok := r.s.saved[pair{userID, id}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (r bookmarkRepo) ListPosts(ctx context.Context, userID uuid.UUID, limit int) ([]model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	type entry struct {
		post model.Post
		at   time.Time
	}
	var entries []entry
	for k, at := range r.s.saved {
		if k.a != userID {
			continue
		}
		if p, ok := r.s.posts[k.b]; ok {
			cp := *p
			cp.Author = r.s.summary(p.UserID)
			entries = append(entries, entry{cp, at})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]model.Post, len(entries))
	for i, e := range entries {
		out[i] = e.post
	}
	return out, nil
}

// conversations

type convRepo struct{ s *Store }

func (r convRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.convs[id]
	if !ok {
		return nil, model.ErrConversationNotFound
	}
	cp := *c
	return &cp, nil
}

func (r convRepo) GetByPair(ctx context.Context, lowID, highID uuid.UUID) (*model.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.convPairs[pair{lowID, highID}]
	if !ok {
		return nil, model.ErrConversationNotFound
	}
	cp := *r.s.convs[id]
	return &cp, nil
}

func (r convRepo) Create(ctx context.Context, lowID, highID uuid.UUID) (*model.Conversation, error) {
	if hook := r.s.BeforeConversationInsert; hook != nil {
		hook()
	}

	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, h := model.CanonicalPair(lowID, highID); l != lowID || h != highID || lowID == highID {
		return nil, &model.Error{Kind: model.ErrValidation, Code: model.CodeValidation, Message: "conversation pair is not canonical"}
	}
	if _, ok := s.convPairs[pair{lowID, highID}]; ok {
		return nil, model.ErrConversationExists
	}
	if _, ok := s.users[lowID]; !ok {
		return nil, model.ErrUserNotFound
	}
	if _, ok := s.users[highID]; !ok {
		return nil, model.ErrUserNotFound
	}
	now := s.now()
	c := &model.Conversation{
		ID:           uuid.New(),
		UserLowID:    lowID,
		UserHighID:   highID,
		LastActivity: now,
		CreatedAt:    now,
	}
	s.convs[c.ID] = c
	s.convPairs[pair{lowID, highID}] = c.ID
	cp := *c
	return &cp, nil
}

func (r convRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Conversation
	for _, c := range r.s.convs {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	return out, nil
}

// messages

type messageRepo struct{ s *Store }

func (r messageRepo) Create(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*model.Message, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[conversationID]
	if !ok {
		return nil, model.ErrConversationNotFound
	}
	s.seq++
	m := model.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Seq:            s.seq,
		CreatedAt:      s.now(),
	}
	s.messages = append(s.messages, m)
	if m.CreatedAt.After(c.LastActivity) {
		c.LastActivity = m.CreatedAt
	}
	m.Sender = s.summary(senderID)
	return &m, nil
}

func (r messageRepo) ListAndMarkRead(ctx context.Context, conversationID, viewerID uuid.UUID) ([]model.Message, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Message
	for i := range s.messages {
		m := &s.messages[i]
		if m.ConversationID != conversationID {
			continue
		}
		cp := *m
		cp.Sender = s.summary(m.SenderID)
		out = append(out, cp)
		if m.SenderID != viewerID {
			m.IsRead = true
		}
	}
	return out, nil
}

func (r messageRepo) UnreadCount(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, error) {
	counts, _ := r.UnreadCounts(ctx, []uuid.UUID{conversationID}, viewerID)
	return counts[conversationID], nil
}

func (r messageRepo) UnreadCounts(ctx context.Context, conversationIDs []uuid.UUID, viewerID uuid.UUID) (map[uuid.UUID]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(conversationIDs))
	for _, id := range conversationIDs {
		want[id] = true
	}
	out := make(map[uuid.UUID]int64)
	for _, m := range r.s.messages {
		if want[m.ConversationID] && m.SenderID != viewerID && !m.IsRead {
			out[m.ConversationID]++
		}
	}
	return out, nil
}

func (r messageRepo) LastMessages(ctx context.Context, conversationIDs []uuid.UUID) (map[uuid.UUID]model.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(conversationIDs))
	for _, id := range conversationIDs {
		want[id] = true
	}
	out := make(map[uuid.UUID]model.Message)
	for _, m := range r.s.messages {
		if want[m.ConversationID] {
			cp := m
			cp.Sender = r.s.summary(m.SenderID)
			out[m.ConversationID] = cp
		}
	}
	return out, nil
}
