package services

import (
	"context"
	"fmt"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService checks the backing stores; a nil dependency is skipped.
type HealthService struct {
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealthService(checks map[string]Pinger) *HealthService {
	return &HealthService{checks: checks, timeout: 2 * time.Second}
}

func (s *HealthService) Get() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	for name, c := range s.checks {
		if c == nil {
			continue
		}
		if err := c.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
