package worker_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mysns/internal/queue"
	"mysns/internal/worker"
)

// =============================================================================
// Mock Implementations
// =============================================================================

// MockMediaStore records deletions instead of talking to object storage.
type MockMediaStore struct {
	mu        sync.Mutex
	deleted   []string
	deleteErr error
}

func (m *MockMediaStore) Exists(ctx context.Context, key string) (bool, error) {
	return true, nil
}

func (m *MockMediaStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MockMediaStore) PublicURL(key string) string {
	return "https://media.test/" + key
}

func (m *MockMediaStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// MockConsumer serves one batch of new messages and then blocks until cancelled.
type MockConsumer struct {
	mu      sync.Mutex
	pending []queue.Message
	fresh   []queue.Message
	acked   []string
	served  bool
}

func (m *MockConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	return nil
}

func (m *MockConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]queue.Message, error) {
	m.mu.Lock()
	if !m.served {
		m.served = true
		batch := m.fresh
		m.mu.Unlock()
		return batch, nil
	}
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(block):
		return nil, nil
	}
}

func (m *MockConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]queue.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch := m.pending
	m.pending = nil
	return batch, nil
}

func (m *MockConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, messageIDs...)
	return nil
}

func (m *MockConsumer) Pending(ctx context.Context, stream, group string) (int64, error) {
	return 0, nil
}

func (m *MockConsumer) Acked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestRedis(t *testing.T) *redis.Client {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}

	// Use DB 1 for testing to avoid conflicts with dev data
	opts.DB = 1

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}

	client.FlushDB(ctx)

	return client
}

func cleanupTestRedis(client *redis.Client) {
	ctx := context.Background()
	client.FlushDB(ctx)
	client.Close()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// =============================================================================
// Handler Tests
// =============================================================================

func TestHandleEvent_PostDeletedRemovesMedia(t *testing.T) {
	// ARRANGE
	store := &MockMediaStore{}
	handler := worker.NewHandler(store, "defaults/avatar.png")
	event := queue.NewPostDeletedEvent(uuid.New(), uuid.New(), "posts/abc.jpg")

	// ACT
	err := handler.HandleEvent(context.Background(), event)

	// ASSERT
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if got := store.Deleted(); len(got) != 1 || got[0] != "posts/abc.jpg" {
		t.Errorf("Deleted = %v, want [posts/abc.jpg]", got)
	}
}

func TestHandleEvent_DefaultAvatarIsKept(t *testing.T) {
	// ARRANGE
	store := &MockMediaStore{}
	handler := worker.NewHandler(store, "defaults/avatar.png")
	event := queue.NewAvatarReplacedEvent(uuid.New(), "defaults/avatar.png")

	// ACT
	err := handler.HandleEvent(context.Background(), event)

	// ASSERT
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if got := store.Deleted(); len(got) != 0 {
		t.Errorf("default avatar must never be deleted, got %v", got)
	}
}

func TestHandleEvent_UnknownType(t *testing.T) {
	handler := worker.NewHandler(&MockMediaStore{}, "")

	err := handler.HandleEvent(context.Background(), queue.MediaEvent{Type: "post.liked"})

	if !errors.Is(err, worker.ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestHandleEvent_StoreFailure(t *testing.T) {
	store := &MockMediaStore{deleteErr: errors.New("r2 unavailable")}
	handler := worker.NewHandler(store, "")

	err := handler.HandleEvent(context.Background(), queue.NewAvatarReplacedEvent(uuid.New(), "avatars/old.png"))

	if err == nil {
		t.Fatal("expected error when the store fails")
	}
}

// =============================================================================
// Manager Tests
// =============================================================================

// TestManager_AcksHandledAndUnknown checks that handled and unrecognized events
// are acknowledged while transient failures stay pending.
func TestManager_AcksHandledAndUnknown(t *testing.T) {
	// ARRANGE
	consumer := &MockConsumer{
		pending: []queue.Message{
			{ID: "1-0", Event: queue.NewPostDeletedEvent(uuid.New(), uuid.New(), "posts/recovered.jpg")},
		},
		fresh: []queue.Message{
			{ID: "2-0", Event: queue.NewAvatarReplacedEvent(uuid.New(), "avatars/old.png")},
			{ID: "3-0", Event: queue.MediaEvent{Type: "mystery"}},
		},
	}
	store := &MockMediaStore{}
	manager := worker.NewManager(consumer, worker.NewHandler(store, ""), worker.ManagerConfig{
		WorkerCount:  1,
		BlockTimeout: 20 * time.Millisecond,
	})

	// ACT
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, func() bool { return len(consumer.Acked()) == 3 })
	manager.Stop()

	// ASSERT
	deleted := store.Deleted()
	if len(deleted) != 2 || deleted[0] != "posts/recovered.jpg" || deleted[1] != "avatars/old.png" {
		t.Errorf("Deleted = %v", deleted)
	}
}

func TestManager_FailedDeleteStaysPending(t *testing.T) {
	consumer := &MockConsumer{
		fresh: []queue.Message{
			{ID: "1-0", Event: queue.NewAvatarReplacedEvent(uuid.New(), "avatars/old.png")},
		},
	}
	store := &MockMediaStore{deleteErr: errors.New("timeout")}
	manager := worker.NewManager(consumer, worker.NewHandler(store, ""), worker.ManagerConfig{
		WorkerCount:  1,
		BlockTimeout: 20 * time.Millisecond,
	})

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	manager.Stop()

	if acked := consumer.Acked(); len(acked) != 0 {
		t.Errorf("failed event must not be acked, got %v", acked)
	}
}

// =============================================================================
// Stream + Worker Integration Test
// =============================================================================

// TestStreamToWorkerIntegration tests the complete flow:
// Publisher -> Stream -> Consumer -> Handler -> MediaStore
func TestStreamToWorkerIntegration(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	publisher := queue.NewPublisher(client)
	consumer := queue.NewConsumer(client)
	store := &MockMediaStore{}
	handler := worker.NewHandler(store, "")

	if err := consumer.EnsureGroup(ctx, queue.StreamMedia, queue.ConsumerGroupMedia); err != nil {
		t.Fatalf("EnsureGroup failed: %v", err)
	}

	event := queue.NewPostDeletedEvent(uuid.New(), uuid.New(), "posts/stream.jpg")
	if _, err := publisher.Publish(ctx, queue.StreamMedia, event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	messages, err := consumer.Read(ctx, queue.StreamMedia, queue.ConsumerGroupMedia, "test-worker", 10, time.Second)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}

	msg := messages[0]
	if msg.Event.ObjectKey != "posts/stream.jpg" || msg.Event.PostID != event.PostID {
		t.Errorf("event did not round-trip: %+v", msg.Event)
	}
	if err := handler.HandleEvent(ctx, msg.Event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if err := consumer.Ack(ctx, queue.StreamMedia, queue.ConsumerGroupMedia, msg.ID); err != nil {
		t.Fatalf("Ack failed: %v", err)
	}

	pending, _ := consumer.Pending(ctx, queue.StreamMedia, queue.ConsumerGroupMedia)
	if pending != 0 {
		t.Errorf("Expected 0 pending messages, got %d", pending)
	}
	if got := store.Deleted(); len(got) != 1 {
		t.Errorf("Deleted = %v", got)
	}
}
