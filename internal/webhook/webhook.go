// Package webhook posts notification events to operator-configured HTTP endpoints.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	ErrNoAvailableEndpoints = errors.New("no available webhook endpoints")
)

const EventHeader = "X-Leasedesk-Event"

type EndpointMetrics struct {
	TotalRequests    atomic.Int64
	SuccessfulReqs   atomic.Int64
	FailedReqs       atomic.Int64
	TotalLatencyMs   atomic.Int64
	ConsecutiveFails atomic.Int32
}

func (m *EndpointMetrics) RecordSuccess(latencyMs int64) {
	m.TotalRequests.Add(1)
	m.SuccessfulReqs.Add(1)
	m.TotalLatencyMs.Add(latencyMs)
	m.ConsecutiveFails.Store(0)
}

func (m *EndpointMetrics) RecordFailure() {
	m.TotalRequests.Add(1)
	m.FailedReqs.Add(1)
	m.ConsecutiveFails.Add(1)
}

func (m *EndpointMetrics) SuccessRate() float64 {
	total := m.TotalRequests.Load()
	if total == 0 {
		return 1.0
	}
	return float64(m.SuccessfulReqs.Load()) / float64(total)
}

func (m *EndpointMetrics) AvgLatencyMs() int64 {
	ok := m.SuccessfulReqs.Load()
	if ok == 0 {
		return 0
	}
	return m.TotalLatencyMs.Load() / ok
}

type Endpoint struct {
	url              string
	metrics          EndpointMetrics
	circuitOpenUntil atomic.Int64
}

func (e *Endpoint) URL() string { return e.url }

// IsAvailable is false while the circuit is open.
func (e *Endpoint) IsAvailable(now time.Time) bool {
	return now.UnixNano() >= e.circuitOpenUntil.Load()
}

// Score ranks available endpoints; higher is better.
func (e *Endpoint) Score() float64 {
	latencyScore := 100.0
	if avg := e.metrics.AvgLatencyMs(); avg > 0 {
		latencyScore = 100.0 * (1.0 - float64(avg)/5000.0)
		if latencyScore < 0 {
			latencyScore = 0
		}
	}
	penalty := 1.0 - float64(e.metrics.ConsecutiveFails.Load())*0.1
	if penalty < 0.1 {
		penalty = 0.1
	}
	return (e.metrics.SuccessRate()*100*0.6 + latencyScore*0.4) * penalty
}

type Config struct {
	URLs                    []string
	Timeout                 time.Duration
	MaxRetries              int
	RetryDelay              time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
	// Dial overrides the client dialer; tests use an in-memory listener.
	Dial func(addr string) (net.Conn, error)
}

// ParseURLs splits a comma separated list, dropping blanks.
func ParseURLs(list string) []string {
	var out []string
	for _, u := range strings.Split(list, ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// Sink delivers notification events by POSTing them as JSON to the best endpoint.
type Sink struct {
	config    Config
	client    *fasthttp.Client
	endpoints []*Endpoint
	now       func() time.Time
	mu        sync.RWMutex
}

func NewSink(config Config) (*Sink, error) {
	if len(config.URLs) == 0 {
		return nil, errors.New("at least one webhook url is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.CircuitBreakerThreshold == 0 {
		config.CircuitBreakerThreshold = 5
	}
	if config.CircuitBreakerTimeout == 0 {
		config.CircuitBreakerTimeout = time.Minute
	}

	s := &Sink{
		config: config,
		client: &fasthttp.Client{
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
			Dial:                config.Dial,
		},
		now: time.Now,
	}
	for _, u := range config.URLs {
		s.endpoints = append(s.endpoints, &Endpoint{url: u})
		logger.Info("webhook endpoint registered", "url", u)
	}
	return s, nil
}

func (s *Sink) selectEndpoint() (*Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *Endpoint
	bestScore := -1.0
	now := s.now()
	for _, e := range s.endpoints {
		if !e.IsAvailable(now) {
			continue
		}
		if score := e.Score(); score > bestScore {
			best, bestScore = e, score
		}
	}
	if best == nil {
		return nil, ErrNoAvailableEndpoints
	}
	return best, nil
}

func (s *Sink) Deliver(ctx context.Context, ev model.NotificationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.config.RetryDelay):
			}
		}

		e, err := s.selectEndpoint()
		if err != nil {
			lastErr = err
			continue
		}

		start := time.Now()
		err = s.post(ctx, e, string(ev.Type), body)
		if err != nil {
			e.metrics.RecordFailure()
			s.checkCircuitBreaker(e)
			logger.Warn("webhook post failed", "url", e.url, "notification_id", ev.NotificationID, "attempt", attempt+1, "error", err)
			lastErr = err
			continue
		}
		e.metrics.RecordSuccess(time.Since(start).Milliseconds())
		logger.Info("webhook delivered", "url", e.url, "notification_id", ev.NotificationID)
		return nil
	}
	return fmt.Errorf("webhook failed after %d attempts: %w", s.config.MaxRetries+1, lastErr)
}

func (s *Sink) post(ctx context.Context, e *Endpoint, eventType string, body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(e.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(EventHeader, eventType)
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(s.config.Timeout)
	}
	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return fmt.Errorf("unexpected status code: %d", code)
	}
	return nil
}

func (s *Sink) checkCircuitBreaker(e *Endpoint) {
	fails := e.metrics.ConsecutiveFails.Load()
	if fails >= int32(s.config.CircuitBreakerThreshold) {
		e.circuitOpenUntil.Store(s.now().Add(s.config.CircuitBreakerTimeout).UnixNano())
		logger.Warn("webhook circuit opened", "url", e.url, "consecutive_fails", fails, "timeout", s.config.CircuitBreakerTimeout)
	}
}

type EndpointStats struct {
	URL              string
	Available        bool
	Score            float64
	TotalRequests    int64
	FailedReqs       int64
	ConsecutiveFails int32
}

func (s *Sink) Stats() []EndpointStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]EndpointStats, 0, len(s.endpoints))
	for _, e := range s.endpoints {
		out = append(out, EndpointStats{
			URL:              e.url,
			Available:        e.IsAvailable(now),
			Score:            e.Score(),
			TotalRequests:    e.metrics.TotalRequests.Load(),
			FailedReqs:       e.metrics.FailedReqs.Load(),
			ConsecutiveFails: e.metrics.ConsecutiveFails.Load(),
		})
	}
	return out
}
