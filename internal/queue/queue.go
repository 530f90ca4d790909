package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/leasedesk/leasedesk/pkg/redis"
	"github.com/leasedesk/leasedesk/pkg/worker"
)

var (
	ErrAlreadyAcked  = errors.New("message already acknowledged")
	ErrAlreadyNacked = errors.New("message already rejected")
)

type Message struct {
	ID        string
	Data      []byte
	Metadata  map[string]string
	Timestamp time.Time
	Attempts  int
	acked     bool
	nacked    bool
	queue     *Queue
}

// Ack explicitly acknowledges the message (marks as successfully processed)
func (m *Message) Ack(ctx context.Context) error {
	if m.acked {
		return ErrAlreadyAcked
	}
	if m.nacked {
		return ErrAlreadyNacked
	}

	m.acked = true
	return m.queue.ackMessage(ctx, m.ID)
}

// Nack leaves the message pending so it is reclaimed after the visibility timeout.
func (m *Message) Nack() error {
	if m.acked {
		return ErrAlreadyAcked
	}
	if m.nacked {
		return ErrAlreadyNacked
	}

	m.nacked = true
	return nil
}

// MessageHandler processes one message.
// Return values:
//   - nil: success, the message is acked
//   - error: failure, the message stays pending and is retried
type MessageHandler func(ctx context.Context, msg *Message) error

type QueueConfig struct {
	Name              string
	ConsumerGroup     string
	ConsumerName      string
	MaxRetries        int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	BatchSize         int64
	MaxLen            int64
	EnableDLQ         bool
	Workers           int
}

type Queue struct {
	adapter redis.RedisAdapter
	config  QueueConfig
	handler MessageHandler
	workers *worker.WorkerManager
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type QueueStats struct {
	TotalMessages   int64
	PendingMessages int64
	QueuedLocally   int64
}

// NewQueue creates the stream and its consumer group when missing.
func NewQueue(ctx context.Context, adapter redis.RedisAdapter, config QueueConfig) (*Queue, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("queue name is required")
	}
	if config.ConsumerGroup == "" {
		config.ConsumerGroup = "default-group"
	}
	if config.ConsumerName == "" {
		config.ConsumerName = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.VisibilityTimeout == 0 {
		config.VisibilityTimeout = 30 * time.Second
	}
	if config.PollInterval == 0 {
		config.PollInterval = time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.Workers == 0 {
		config.Workers = 1
	}

	err := adapter.XGroupCreateMkStream(ctx, config.Name, config.ConsumerGroup, "0")
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	qctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		adapter: adapter,
		config:  config,
		ctx:     qctx,
		cancel:  cancel,
	}, nil
}

// Publish adds a message to the stream.
func (q *Queue) Publish(ctx context.Context, data []byte, metadata map[string]string) (string, error) {
	values := map[string]interface{}{
		"data":      string(data),
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range metadata {
		values["meta_"+k] = v
	}

	id, err := q.adapter.XAdd(ctx, q.config.Name, values)
	if err != nil {
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	if q.config.MaxLen > 0 {
		if err := q.adapter.XTrimApprox(ctx, q.config.Name, q.config.MaxLen); err != nil {
			logger.Warn("stream trim failed", "stream", q.config.Name, "error", err)
		}
	}
	return id, nil
}

func (q *Queue) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return q.Publish(ctx, jsonData, metadata)
}

// Consume starts polling the stream and hands messages to the worker pool.
func (q *Queue) Consume(handler MessageHandler) error {
	if handler == nil {
		return fmt.Errorf("message handler is required")
	}
	q.handler = handler

	q.workers = worker.NewWorkerManager(int(q.config.BatchSize), q.config.Workers)
	q.workers.SetWorker(func(_ int, job interface{}) {
		q.handleMessage(job.(*Message))
	})

	q.wg.Add(2)
	go func() {
		defer q.wg.Done()
		_ = q.workers.Start()
	}()
	go q.consumeLoop()
	return nil
}

func (q *Queue) consumeLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.processMessages()
			q.claimStuckMessages()
		}
	}
}

func (q *Queue) processMessages() {
	messages, err := q.adapter.XReadGroup(q.ctx,
		q.config.ConsumerGroup,
		q.config.ConsumerName,
		q.config.Name,
		">",
		q.config.BatchSize,
	)
	if err != nil {
		if !errors.Is(err, redis.NilError) && q.ctx.Err() == nil {
			logger.Warn("stream read failed", "stream", q.config.Name, "error", err)
		}
		return
	}

	for _, streamMsg := range messages {
		msg := q.streamMessageToMessage(streamMsg)
		msg.Attempts = 1
		q.dispatch(msg)
	}
}

// claimStuckMessages takes over messages another consumer read but never acked.
func (q *Queue) claimStuckMessages() {
	pending, err := q.adapter.XPendingExt(q.ctx, q.config.Name, q.config.ConsumerGroup, 100)
	if err != nil || len(pending) == 0 {
		return
	}

	attempts := make(map[string]int64, len(pending))
	var idsToReclaim []string
	for _, p := range pending {
		if p.Idle >= q.config.VisibilityTimeout {
			idsToReclaim = append(idsToReclaim, p.ID)
			attempts[p.ID] = p.RetryCount
		}
	}
	if len(idsToReclaim) == 0 {
		return
	}

	messages, err := q.adapter.XClaim(q.ctx,
		q.config.Name,
		q.config.ConsumerGroup,
		q.config.ConsumerName,
		q.config.VisibilityTimeout,
		idsToReclaim...,
	)
	if err != nil {
		return
	}

	for _, streamMsg := range messages {
		msg := q.streamMessageToMessage(streamMsg)
		msg.Attempts = int(attempts[msg.ID]) + 1
		q.dispatch(msg)
	}
}

func (q *Queue) dispatch(msg *Message) {
	msg.queue = q
	if !q.workers.Enqueue(msg) {
		logger.Debug("queue stopping, message left pending", "id", msg.ID)
	}
}

func (q *Queue) handleMessage(msg *Message) {
	if msg.Attempts > q.config.MaxRetries {
		q.moveToDeadLetterQueue(msg)
		_ = q.ackMessage(q.ctx, msg.ID)
		return
	}

	ctx, cancel := context.WithTimeout(q.ctx, q.config.VisibilityTimeout)
	defer cancel()

	if err := q.handler(ctx, msg); err != nil {
		logger.Warn("message handler failed", "stream", q.config.Name, "id", msg.ID, "attempt", msg.Attempts, "error", err)
		return
	}
	if !msg.acked && !msg.nacked {
		if err := q.ackMessage(ctx, msg.ID); err != nil {
			logger.Warn("ack failed", "stream", q.config.Name, "id", msg.ID, "error", err)
		}
	}
}

func (q *Queue) ackMessage(ctx context.Context, messageID string) error {
	return q.adapter.XAck(ctx, q.config.Name, q.config.ConsumerGroup, messageID)
}

func (q *Queue) moveToDeadLetterQueue(msg *Message) {
	if !q.config.EnableDLQ {
		return
	}

	values := map[string]interface{}{
		"data":           string(msg.Data),
		"original_id":    msg.ID,
		"attempts":       msg.Attempts,
		"failed_at":      time.Now().Unix(),
		"original_queue": q.config.Name,
	}
	for k, v := range msg.Metadata {
		values["meta_"+k] = v
	}

	if _, err := q.adapter.XAdd(q.ctx, q.config.Name+":dlq", values); err != nil {
		logger.Error("dead letter publish failed", "id", msg.ID, "error", err)
		return
	}
	logger.Warn("message moved to dead letter queue", "id", msg.ID, "attempts", msg.Attempts)
}

func (q *Queue) streamMessageToMessage(streamMsg redis.StreamMessage) *Message {
	msg := &Message{
		ID:       streamMsg.ID,
		Metadata: make(map[string]string),
	}

	for k, v := range streamMsg.Values {
		s, _ := v.(string)
		switch {
		case k == "data":
			msg.Data = []byte(s)
		case k == "timestamp":
			if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
				msg.Timestamp = ts
			}
		case k == "attempts":
			msg.Attempts, _ = strconv.Atoi(s)
		case strings.HasPrefix(k, "meta_"):
			msg.Metadata[strings.TrimPrefix(k, "meta_")] = s
		}
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return msg
}

func (q *Queue) Stop(timeout time.Duration) error {
	q.cancel()
	if q.workers != nil {
		q.workers.Exit()
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for queue to stop")
	}
}

func (q *Queue) GetStats(ctx context.Context) (*QueueStats, error) {
	total, err := q.adapter.XLen(ctx, q.config.Name)
	if err != nil {
		return nil, err
	}
	stats := &QueueStats{TotalMessages: total}

	if pending, err := q.adapter.XPendingExt(ctx, q.config.Name, q.config.ConsumerGroup, 1000); err == nil {
		stats.PendingMessages = int64(len(pending))
	}
	if q.workers != nil {
		stats.QueuedLocally = q.workers.Pending()
	}
	return stats, nil
}
