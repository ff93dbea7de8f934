package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mysns/internal/logger"
	"mysns/internal/metrics"
	"mysns/internal/queue"
	"mysns/internal/storage"
)

// ErrUnknownEvent marks an event no handler understands. Such events are
// acknowledged and dropped rather than retried.
var ErrUnknownEvent = errors.New("unknown event type")

// Handler removes stored media that rows no longer reference.
type Handler struct {
	media            storage.MediaStore
	defaultAvatarKey string
}

// NewHandler creates a new event handler. The default avatar is shared by
// many users and is never deleted.
func NewHandler(media storage.MediaStore, defaultAvatarKey string) *Handler {
	return &Handler{
		media:            media,
		defaultAvatarKey: defaultAvatarKey,
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.MediaEvent) error {
	startTime := time.Now()
	log := logger.Ctx(ctx).With().Str("event_type", event.Type).Logger()

	var err error
	switch event.Type {
	case queue.EventPostDeleted, queue.EventAvatarReplaced:
		err = h.deleteObject(ctx, event)
	default:
		metrics.EventsProcessed.WithLabelValues(event.Type, "unknown").Inc()
		log.Warn().Msg("unknown event type")
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event.Type)
	}

	if err != nil {
		metrics.EventsProcessed.WithLabelValues(event.Type, "error").Inc()
		log.Error().Err(err).Dur("duration", time.Since(startTime)).Msg("event failed")
		return err
	}

	metrics.EventsProcessed.WithLabelValues(event.Type, "ok").Inc()
	log.Debug().Dur("duration", time.Since(startTime)).Msg("event handled")
	return nil
}

func (h *Handler) deleteObject(ctx context.Context, event queue.MediaEvent) error {
	if event.ObjectKey == "" || event.ObjectKey == h.defaultAvatarKey {
		return nil
	}
	if err := h.media.Delete(ctx, event.ObjectKey); err != nil {
		return fmt.Errorf("delete %s: %w", event.ObjectKey, err)
	}
	logger.Ctx(ctx).Info().
		Str(logger.FieldUserID, event.UserID.String()).
		Str("object_key", event.ObjectKey).
		Msg("media object deleted")
	return nil
}
