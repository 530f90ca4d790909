package processor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/internal/queue"
	"github.com/leasedesk/leasedesk/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, redis.NewFromClient(client, "test:")
}

type recordingSink struct {
	mu   sync.Mutex
	got  []model.NotificationEvent
	fail error
}

func (s *recordingSink) Deliver(_ context.Context, ev model.NotificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.got = append(s.got, ev)
	return nil
}

func (s *recordingSink) delivered() []model.NotificationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.NotificationEvent(nil), s.got...)
}

func (s *recordingSink) setFail(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func eventMessage(t *testing.T, id string, ev model.NotificationEvent) *queue.Message {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return &queue.Message{
		ID:       id,
		Data:     data,
		Metadata: map[string]string{"type": queue.EventNotificationCreated},
	}
}

func approvedEvent(notificationID int64) model.NotificationEvent {
	pid := int64(40)
	return model.NotificationEvent{
		NotificationID: notificationID,
		TenantID:       11,
		PaymentID:      &pid,
		Type:           model.NotificationPaymentApproved,
		Title:          "Payment Approved",
	}
}

func TestNotificationProcessor_DeliversOnce(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()
	sink := &recordingSink{}
	idem := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	p := NewNotificationProcessor(sink, idem)

	require.NoError(t, p.Process(ctx, eventMessage(t, "1-0", approvedEvent(7))))
	// the same notification redelivered under another stream id
	require.NoError(t, p.Process(ctx, eventMessage(t, "2-0", approvedEvent(7))))

	got := sink.delivered()
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].NotificationID)
	assert.Equal(t, int64(11), got[0].TenantID)

	done, err := idem.IsDelivered(ctx, 7)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestNotificationProcessor_RetryAfterFailure(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()
	sink := &recordingSink{fail: errors.New("smtp down")}
	p := NewNotificationProcessor(sink, NewIdempotencyService(adapter, DefaultIdempotencyConfig()))

	msg := eventMessage(t, "1-0", approvedEvent(8))
	assert.Error(t, p.Process(ctx, msg))

	retries, err := adapter.Get(ctx, "notify:retry:8")
	require.NoError(t, err)
	assert.Equal(t, "1", string(retries))

	// claim was released, so the reclaimed entry goes through
	sink.setFail(nil)
	require.NoError(t, p.Process(ctx, msg))
	assert.Len(t, sink.delivered(), 1)

	n, err := adapter.Exist(ctx, "notify:retry:8")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNotificationProcessor_GivesUp(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()
	cfg := DefaultIdempotencyConfig()
	cfg.MaxRetries = 2
	sink := &recordingSink{fail: errors.New("down")}
	p := NewNotificationProcessor(sink, NewIdempotencyService(adapter, cfg))

	msg := eventMessage(t, "1-0", approvedEvent(9))
	assert.Error(t, p.Process(ctx, msg))
	assert.Error(t, p.Process(ctx, msg))
	// third attempt is acked without delivery
	sink.setFail(nil)
	assert.NoError(t, p.Process(ctx, msg))
	assert.Empty(t, sink.delivered())
}

func TestNotificationProcessor_ClaimHeld(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()
	idem := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	sink := &recordingSink{}
	p := NewNotificationProcessor(sink, idem)

	claim, err := idem.Acquire(ctx, 12)
	require.NoError(t, err)

	err = p.Process(ctx, eventMessage(t, "1-0", approvedEvent(12)))
	assert.ErrorIs(t, err, ErrClaimHeld)
	assert.Empty(t, sink.delivered())

	require.NoError(t, idem.Release(ctx, claim))
	require.NoError(t, p.Process(ctx, eventMessage(t, "1-0", approvedEvent(12))))
	assert.Len(t, sink.delivered(), 1)
}

func TestNotificationProcessor_DropsUndecodable(t *testing.T) {
	_, adapter := setupTestRedis(t)
	sink := &recordingSink{}
	p := NewNotificationProcessor(sink, NewIdempotencyService(adapter, DefaultIdempotencyConfig()))

	msg := &queue.Message{ID: "1-0", Data: []byte(`{}`), Metadata: map[string]string{"type": "payment.created"}}
	assert.NoError(t, p.Process(context.Background(), msg))

	msg = &queue.Message{ID: "2-0", Data: []byte(`not json`), Metadata: map[string]string{"type": queue.EventNotificationCreated}}
	assert.NoError(t, p.Process(context.Background(), msg))
	assert.Empty(t, sink.delivered())
}

func TestProcessorService_ConsumesStream(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()
	const stream = "events:notifications"

	pub, err := queue.NewQueue(ctx, adapter, queue.QueueConfig{Name: stream, ConsumerGroup: "notifier"})
	require.NoError(t, err)
	events := queue.NewNotificationEvents(pub)

	sink := &recordingSink{}
	svc, err := NewProcessorService(adapter, Options{
		Stream:            stream,
		ConsumerGroup:     "notifier",
		Consumers:         2,
		Workers:           2,
		MaxRetries:        3,
		VisibilityTimeout: 200 * time.Millisecond,
		PollInterval:      20 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Error(t, svc.Start(), "start without a processor")

	svc.RegisterProcessor(NewNotificationProcessor(sink, NewIdempotencyService(adapter, DefaultIdempotencyConfig())))
	require.NoError(t, svc.Start())
	defer svc.Stop()

	for id := int64(1); id <= 3; id++ {
		require.NoError(t, events.PublishNotification(ctx, approvedEvent(id)))
	}
	require.NoError(t, events.PublishNotification(ctx, approvedEvent(2)))

	assert.Eventually(t, func() bool {
		processed, _ := svc.Stats()
		return processed == 4
	}, 3*time.Second, 20*time.Millisecond)
	assert.Len(t, sink.delivered(), 3)
}

func TestNewProcessorService_RequiresStream(t *testing.T) {
	_, adapter := setupTestRedis(t)
	_, err := NewProcessorService(adapter, Options{})
	assert.Error(t, err)
}

func TestSinks_StopAtFirstFailure(t *testing.T) {
	first := &recordingSink{}
	broken := &recordingSink{fail: errors.New("webhook down")}
	last := &recordingSink{}

	err := Sinks{first, broken, last}.Deliver(context.Background(), approvedEvent(1))
	assert.EqualError(t, err, "webhook down")
	assert.Len(t, first.delivered(), 1)
	assert.Empty(t, last.delivered())

	require.NoError(t, Sinks{LogSink{}, last}.Deliver(context.Background(), approvedEvent(2)))
	assert.Len(t, last.delivered(), 1)
}
