package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types for the media stream
const (
	EventPostDeleted    = "post.deleted"
	EventAvatarReplaced = "avatar.replaced"
)

const (
	StreamMedia = "stream:media"

	ConsumerGroupMedia = "media-cleaners"
)

// MediaEvent asks workers to remove a stored object that no row references anymore.
type MediaEvent struct {
	Type      string    `json:"type"`
	Timestamp int64     `json:"timestamp"`
	UserID    uuid.UUID `json:"user_id"`
	PostID    uuid.UUID `json:"post_id,omitempty"`
	ObjectKey string    `json:"object_key"`
}

func NewPostDeletedEvent(postID, ownerID uuid.UUID, mediaKey string) MediaEvent {
	return MediaEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		UserID:    ownerID,
		PostID:    postID,
		ObjectKey: mediaKey,
	}
}

func NewAvatarReplacedEvent(userID uuid.UUID, oldKey string) MediaEvent {
	return MediaEvent{
		Type:      EventAvatarReplaced,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		ObjectKey: oldKey,
	}
}

// ToMap converts the event to XADD field-value pairs. The payload is stored as
// JSON in a "data" field.
func (e MediaEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseMediaEvent parses an event from Redis stream message values.
func ParseMediaEvent(values map[string]interface{}) (MediaEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return MediaEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event MediaEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return MediaEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
