// Package processor consumes the notification event stream and hands each event to a Processor.
package processor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/leasedesk/leasedesk/internal/queue"
	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/leasedesk/leasedesk/pkg/redis"
)

const HealthInterval = time.Second * 30
const ShutdownTimeout = time.Second * 30

// highLag is the pending-entry count above which the health check warns.
const highLag = 1000

// Processor handles one decoded stream entry. A nil error acks it.
type Processor interface {
	Process(ctx context.Context, message *queue.Message) error
	GetType() string
}

type Options struct {
	Stream            string
	ConsumerGroup     string
	Consumers         int
	Workers           int
	MaxRetries        int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	EnableDLQ         bool
}

type ProcessorService struct {
	adapter   redis.RedisAdapter
	opts      Options
	queues    []*queue.Queue
	processor Processor
	processed atomic.Int64
	failed    atomic.Int64
	started   time.Time
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewProcessorService(adapter redis.RedisAdapter, opts Options) (*ProcessorService, error) {
	if opts.Stream == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	if opts.Consumers <= 0 {
		opts.Consumers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ProcessorService{
		adapter: adapter,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

func (s *ProcessorService) RegisterProcessor(p Processor) {
	s.processor = p
	logger.Info("registered processor", "type", p.GetType())
}

// Start opens the consumers; each one has its own worker pool inside the queue.
func (s *ProcessorService) Start() error {
	if s.processor == nil {
		return fmt.Errorf("no processor registered")
	}
	s.started = time.Now()
	host := uuid.NewString()[:8]

	for i := 0; i < s.opts.Consumers; i++ {
		q, err := queue.NewQueue(s.ctx, s.adapter, queue.QueueConfig{
			Name:              s.opts.Stream,
			ConsumerGroup:     s.opts.ConsumerGroup,
			ConsumerName:      fmt.Sprintf("notifier-%s-%d", host, i),
			MaxRetries:        s.opts.MaxRetries,
			VisibilityTimeout: s.opts.VisibilityTimeout,
			PollInterval:      s.opts.PollInterval,
			EnableDLQ:         s.opts.EnableDLQ,
			Workers:           s.opts.Workers,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer %d: %w", i, err)
		}
		if err := q.Consume(s.handle); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}
		s.queues = append(s.queues, q)
	}

	s.wg.Add(1)
	go s.healthChecker()

	logger.Info("processor service started", "stream", s.opts.Stream, "consumers", len(s.queues), "workers", s.opts.Workers)
	return nil
}

func (s *ProcessorService) handle(ctx context.Context, msg *queue.Message) error {
	if err := s.processor.Process(ctx, msg); err != nil {
		s.failed.Add(1)
		return err
	}
	s.processed.Add(1)
	return nil
}

// Stats reports counters since Start.
func (s *ProcessorService) Stats() (processed, failed int64) {
	return s.processed.Load(), s.failed.Load()
}

func (s *ProcessorService) healthChecker() {
	defer s.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performHealthCheck()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ProcessorService) performHealthCheck() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	if err := s.adapter.Ping(ctx); err != nil {
		logger.Error("health check failed: redis unreachable", "error", err)
		return
	}
	if len(s.queues) == 0 {
		return
	}
	stats, err := s.queues[0].GetStats(ctx)
	if err != nil {
		logger.Warn("health check: stream stats unavailable", "error", err)
		return
	}
	if stats.PendingMessages > highLag {
		logger.Warn("health check: notification stream lagging", "pending", stats.PendingMessages)
	}
	processed, failed := s.Stats()
	logger.Info("health check ok",
		"stream_length", stats.TotalMessages,
		"pending", stats.PendingMessages,
		"processed", processed,
		"failed", failed,
		"uptime", time.Since(s.started).Round(time.Second))
}

func (s *ProcessorService) Stop() {
	logger.Info("shutting down processor service")
	s.cancel()

	var wg sync.WaitGroup
	for i, q := range s.queues {
		wg.Add(1)
		go func(index int, q *queue.Queue) {
			defer wg.Done()
			if err := q.Stop(ShutdownTimeout); err != nil {
				logger.Error("error stopping consumer", "consumer", index, "error", err)
			}
		}(i, q)
	}
	wg.Wait()
	s.wg.Wait()

	processed, failed := s.Stats()
	logger.Info("processor service stopped", "processed", processed, "failed", failed)
}
