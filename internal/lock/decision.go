// Package lock serializes landlord decisions on the same record across API replicas.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/leasedesk/leasedesk/pkg/redis"
)

var ErrHeld = errors.New("decision already in progress")

const DefaultTTL = 15 * time.Second

// DecisionLock is a best-effort SETNX lock. The database status guard stays authoritative;
// the lock only keeps a second request from doing side-effect work that will be rolled back.
// A nil *DecisionLock is valid and never locks.
type DecisionLock struct {
	redis  redis.RedisAdapter
	ttl    time.Duration
	prefix string
}

func NewDecisionLock(r redis.RedisAdapter, ttl time.Duration) *DecisionLock {
	if r == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DecisionLock{
		redis:  r,
		ttl:    ttl,
		prefix: "lock:decision:",
	}
}

func (l *DecisionLock) key(entity string, id int64) string {
	return fmt.Sprintf("%s%s:%d", l.prefix, entity, id)
}

// Acquire takes the lock for entity/id and returns its release func. Redis failures are
// logged and treated as acquired.
func (l *DecisionLock) Acquire(ctx context.Context, entity string, id int64) (func(), error) {
	if l == nil {
		return func() {}, nil
	}

	key := l.key(entity, id)
	token := []byte(uuid.NewString())
	acquired, err := l.redis.SetNX(ctx, key, token, l.ttl)
	if err != nil {
		logger.Warn("decision lock unavailable, relying on status guard", "key", key, "error", err)
		return func() {}, nil
	}
	if !acquired {
		logger.Info("decision lock held elsewhere", "key", key)
		return nil, ErrHeld
	}

	return func() {
		// a fresh context: the request context may already be cancelled
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if _, err := l.redis.DelIfEqual(rctx, key, token); err != nil {
			logger.Warn("failed to release decision lock", "key", key, "error", err)
		}
	}, nil
}
