package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leasedesk/leasedesk/internal/model"
)

const EventNotificationCreated = "notification.created"

// NotificationEvents publishes and decodes notification.created events.
type NotificationEvents struct {
	q *Queue
}

func NewNotificationEvents(q *Queue) *NotificationEvents {
	return &NotificationEvents{q: q}
}

func (e *NotificationEvents) PublishNotification(ctx context.Context, ev model.NotificationEvent) error {
	_, err := e.q.PublishJSON(ctx, ev, map[string]string{"type": EventNotificationCreated})
	return err
}

// DecodeNotification returns the event carried by msg, rejecting other event types.
func DecodeNotification(msg *Message) (model.NotificationEvent, error) {
	var ev model.NotificationEvent
	if t := msg.Metadata["type"]; t != EventNotificationCreated {
		return ev, fmt.Errorf("unexpected event type %q", t)
	}
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		return ev, fmt.Errorf("decode notification event: %w", err)
	}
	return ev, nil
}
