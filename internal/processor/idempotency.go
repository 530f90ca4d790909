package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/leasedesk/leasedesk/pkg/redis"
)

var (
	ErrAlreadyDelivered   = errors.New("notification already delivered")
	ErrClaimHeld          = errors.New("notification claimed by another consumer")
	ErrMaxRetriesExceeded = errors.New("maximum delivery attempts exceeded")
)

type IdempotencyConfig struct {
	ClaimTTL     time.Duration
	DeliveredTTL time.Duration
	MaxRetries   int

	ClaimKeyPrefix     string
	RetryKeyPrefix     string
	DeliveredKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		ClaimTTL:           30 * time.Second,
		DeliveredTTL:       7 * 24 * time.Hour,
		MaxRetries:         5,
		ClaimKeyPrefix:     "notify:claim:",
		RetryKeyPrefix:     "notify:retry:",
		DeliveredKeyPrefix: "notify:delivered:",
	}
}

// IdempotencyService makes redelivered stream entries for the same notification a no-op.
// Keys are per notification id, not per stream entry id, so a notification published twice
// is still delivered once.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

// Claim is held while one consumer delivers a notification.
type Claim struct {
	NotificationID int64
	Attempt        int
	token          []byte
	held           bool
	service        *IdempotencyService
}

func (s *IdempotencyService) Acquire(ctx context.Context, notificationID int64) (*Claim, error) {
	id := strconv.FormatInt(notificationID, 10)

	exists, err := s.redis.Exist(ctx, s.config.DeliveredKeyPrefix+id)
	if err != nil {
		// a duplicate delivery beats a lost one
		logger.Warn("delivered marker check failed", "notification_id", notificationID, "error", err)
	} else if exists > 0 {
		return nil, ErrAlreadyDelivered
	}

	retries, err := s.retries(ctx, id)
	if err != nil {
		logger.Warn("retry counter read failed", "notification_id", notificationID, "error", err)
	}
	if retries >= s.config.MaxRetries {
		return nil, fmt.Errorf("%w: notification_id=%d, retries=%d", ErrMaxRetriesExceeded, notificationID, retries)
	}

	token := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
	ok, err := s.redis.SetNX(ctx, s.config.ClaimKeyPrefix+id, token, s.config.ClaimTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimHeld, err)
	}
	if !ok {
		return nil, ErrClaimHeld
	}

	return &Claim{
		NotificationID: notificationID,
		Attempt:        retries + 1,
		token:          token,
		held:           true,
		service:        s,
	}, nil
}

// MarkDelivered records the delivery and drops the claim and retry counter.
func (s *IdempotencyService) MarkDelivered(ctx context.Context, c *Claim) error {
	id := strconv.FormatInt(c.NotificationID, 10)
	if err := s.redis.Set(ctx, s.config.DeliveredKeyPrefix+id, []byte("1"), s.config.DeliveredTTL); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	if err := s.redis.Del(ctx, s.config.RetryKeyPrefix+id); err != nil {
		logger.Warn("retry counter cleanup failed", "notification_id", c.NotificationID, "error", err)
	}
	return s.Release(ctx, c)
}

// MarkFailed bumps the retry counter and frees the claim so the next reclaim can try again.
func (s *IdempotencyService) MarkFailed(ctx context.Context, c *Claim, reason error) error {
	id := strconv.FormatInt(c.NotificationID, 10)
	next := []byte(strconv.Itoa(c.Attempt))
	if err := s.redis.Set(ctx, s.config.RetryKeyPrefix+id, next, s.config.DeliveredTTL); err != nil {
		logger.Error("retry counter update failed", "notification_id", c.NotificationID, "error", err)
	}
	logger.Warn("notification delivery failed",
		"notification_id", c.NotificationID,
		"attempt", c.Attempt,
		"max_retries", s.config.MaxRetries,
		"reason", reason)
	return s.Release(ctx, c)
}

// Release drops the claim if this consumer still owns it.
func (s *IdempotencyService) Release(ctx context.Context, c *Claim) error {
	if c == nil || !c.held {
		return nil
	}
	c.held = false
	id := strconv.FormatInt(c.NotificationID, 10)
	if _, err := s.redis.DelIfEqual(ctx, s.config.ClaimKeyPrefix+id, c.token); err != nil {
		logger.Warn("claim release failed", "notification_id", c.NotificationID, "error", err)
		return err
	}
	return nil
}

func (s *IdempotencyService) IsDelivered(ctx context.Context, notificationID int64) (bool, error) {
	n, err := s.redis.Exist(ctx, s.config.DeliveredKeyPrefix+strconv.FormatInt(notificationID, 10))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *IdempotencyService) retries(ctx context.Context, id string) (int, error) {
	b, err := s.redis.Get(ctx, s.config.RetryKeyPrefix+id)
	if err != nil {
		if errors.Is(err, redis.NilError) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.Atoi(string(b))
}
