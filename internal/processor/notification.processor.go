package processor

import (
	"context"
	"errors"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/internal/queue"
	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/leasedesk/leasedesk/pkg/prom"
)

const (
	resultDelivered = "delivered"
	resultDuplicate = "duplicate"
	resultFailed    = "failed"
	resultDropped   = "dropped"
)

// Sink hands a committed notification to its outbound channel.
type Sink interface {
	Deliver(ctx context.Context, ev model.NotificationEvent) error
}

// LogSink writes one log line per delivery. The in-app feed row is already stored by the api.
type LogSink struct{}

func (LogSink) Deliver(_ context.Context, ev model.NotificationEvent) error {
	kv := []any{
		"notification_id", ev.NotificationID,
		"tenant_id", ev.TenantID,
		"type", ev.Type,
		"title", ev.Title,
	}
	if ev.PaymentID != nil {
		kv = append(kv, "payment_id", *ev.PaymentID)
	}
	logger.Info("notification delivered", kv...)
	return nil
}

// Sinks delivers to every sink in order and stops at the first failure.
type Sinks []Sink

func (s Sinks) Deliver(ctx context.Context, ev model.NotificationEvent) error {
	for _, sink := range s {
		if err := sink.Deliver(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

type NotificationProcessor struct {
	sink        Sink
	idempotency *IdempotencyService
}

func NewNotificationProcessor(sink Sink, idempotency *IdempotencyService) *NotificationProcessor {
	return &NotificationProcessor{
		sink:        sink,
		idempotency: idempotency,
	}
}

func (p *NotificationProcessor) GetType() string {
	return queue.EventNotificationCreated
}

// Process returns nil for anything a retry cannot fix so the entry is acked.
func (p *NotificationProcessor) Process(ctx context.Context, msg *queue.Message) error {
	ev, err := queue.DecodeNotification(msg)
	if err != nil {
		logger.Error("dropping undecodable event", "id", msg.ID, "error", err)
		prom.RecordEventConsumed(msg.Metadata["type"], resultDropped)
		return nil
	}

	claim, err := p.idempotency.Acquire(ctx, ev.NotificationID)
	switch {
	case errors.Is(err, ErrAlreadyDelivered):
		prom.RecordEventConsumed(string(ev.Type), resultDuplicate)
		return nil
	case errors.Is(err, ErrMaxRetriesExceeded):
		logger.Error("giving up on notification", "notification_id", ev.NotificationID, "error", err)
		prom.RecordEventConsumed(string(ev.Type), resultDropped)
		return nil
	case err != nil:
		return err
	}

	if err := p.sink.Deliver(ctx, ev); err != nil {
		_ = p.idempotency.MarkFailed(ctx, claim, err)
		prom.RecordEventConsumed(string(ev.Type), resultFailed)
		return err
	}

	if err := p.idempotency.MarkDelivered(ctx, claim); err != nil {
		logger.Error("delivered but not marked", "notification_id", ev.NotificationID, "error", err)
	}
	prom.RecordEventConsumed(string(ev.Type), resultDelivered)
	return nil
}
