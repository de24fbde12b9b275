package api

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"taskflow/domain"
)

// newEvent assembles an activity feed event. Payload marshalling failures
// degrade to an event without data rather than blocking the mutation.
func newEvent(evType, entityType, entityID string, data any) domain.Event {
	ev := domain.Event{
		ID:         uuid.NewString(),
		Type:       evType,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  time.Now().UnixNano(),
	}
	if data != nil {
		if b, err := sonic.Marshal(data); err == nil {
			ev.Data = b
		}
	}
	return ev
}

func publish(events EventPublisher, userID string, ev domain.Event) {
	if events == nil {
		return
	}
	events.Publish(userID, ev)
}
