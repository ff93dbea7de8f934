package worker

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mysns/internal/logger"
	"mysns/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second
)

// Manager orchestrates worker goroutines that consume the media stream.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	workerCount int
	batchSize   int64
	blockTime   time.Duration
	log         zerolog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

// NewManager creates a new worker manager.
func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
		log:         logger.Component("worker"),
	}
}

// Start begins the worker goroutines.
// Call Stop() to gracefully shut down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamMedia, queue.ConsumerGroupMedia); err != nil {
		m.cancel()
		return err
	}

	m.log.Info().
		Int("workers", m.workerCount).
		Str("stream", queue.StreamMedia).
		Str("group", queue.ConsumerGroupMedia).
		Msg("starting workers")

	for i := 0; i < m.workerCount; i++ {
		workerID := i + 1
		m.wg.Add(1)
		go m.runWorker(workerID, consumerNameForWorker(workerID))
	}
	return nil
}

// Stop gracefully shuts down all workers.
// Blocks until all workers have finished.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.log.Info().Msg("all workers stopped")
}

// runWorker is the main loop for a single worker goroutine.
func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()

	log := m.log.With().Int("worker", workerID).Str("consumer", consumerName).Logger()
	ctx := logger.WithLogger(m.ctx, log)

	// Entries delivered to this consumer name before a crash come first.
	m.processPending(ctx, consumerName)

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("shutting down")
			return
		default:
			m.processMessages(ctx, consumerName)
		}
	}
}

// processPending handles messages that were delivered but not acknowledged.
func (m *Manager) processPending(ctx context.Context, consumerName string) {
	log := logger.Ctx(ctx)
	for {
		messages, err := m.consumer.ReadPending(ctx, queue.StreamMedia, queue.ConsumerGroupMedia, consumerName, m.batchSize)
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Msg("read pending failed")
			}
			return
		}
		if len(messages) == 0 {
			return
		}

		log.Info().Int("count", len(messages)).Msg("processing pending messages")
		if acked := m.handleMessages(ctx, messages); acked == 0 {
			// Everything failed again; leave the rest for the next restart.
			return
		}
	}
}

// processMessages reads and handles a batch of messages.
func (m *Manager) processMessages(ctx context.Context, consumerName string) {
	messages, err := m.consumer.Read(ctx, queue.StreamMedia, queue.ConsumerGroupMedia, consumerName, m.batchSize, m.blockTime)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Ctx(ctx).Error().Err(err).Msg("read failed")
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}

	if len(messages) == 0 {
		return
	}
	m.handleMessages(ctx, messages)
}

// handleMessages processes a batch and acknowledges what is done. Entries that
// failed with a transient error stay pending and are retried by processPending.
func (m *Manager) handleMessages(ctx context.Context, messages []queue.Message) int {
	log := logger.Ctx(ctx)
	acked := 0
	for _, msg := range messages {
		err := m.handler.HandleEvent(ctx, msg.Event)
		if err != nil && !errors.Is(err, ErrUnknownEvent) {
			log.Warn().Err(err).Str("msg_id", msg.ID).Msg("leaving message pending")
			continue
		}

		if err := m.consumer.Ack(ctx, queue.StreamMedia, queue.ConsumerGroupMedia, msg.ID); err != nil {
			log.Error().Err(err).Str("msg_id", msg.ID).Msg("ack failed")
			continue
		}
		acked++
	}
	return acked
}

// consumerNameForWorker generates a unique consumer name for each worker.
func consumerNameForWorker(workerID int) string {
	return "worker-" + strconv.Itoa(workerID)
}
