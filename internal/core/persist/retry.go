package persist

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/metrics"
)

// RetryConfig defines retry behavior for store writes.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	BackoffMultiple float64       `yaml:"backoff_multiple"`
}

// DefaultRetryConfig provides sensible defaults for a local disk.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     5,
	InitialDelay:    100 * time.Millisecond,
	MaxDelay:        5 * time.Second,
	BackoffMultiple: 2.0,
}

// WithDefaults fills zero fields from DefaultRetryConfig.
func (c RetryConfig) WithDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultRetryConfig.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultRetryConfig.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultRetryConfig.MaxDelay
	}
	if c.BackoffMultiple < 1 {
		c.BackoffMultiple = DefaultRetryConfig.BackoffMultiple
	}
	return c
}

// ErrorAction determines how to handle a failed save.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFatal
)

// ClassifyError decides whether a failed save is worth another attempt.
func ClassifyError(err error) ErrorAction {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ActionFatal
	case errors.Is(err, storage.ErrStoreCorrupt):
		return ActionFatal
	}
	return ActionRetry
}

// SaveWithRetry writes chain with exponential backoff. The returned error
// wraps storage.ErrStoreWrite unless the context ended first.
func SaveWithRetry(
	ctx context.Context,
	store storage.ChainStore,
	chain []domain.Block,
	config RetryConfig,
) error {
	config = config.WithDefaults()
	var lastErr error
	attempts := 0

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		attempts++
		metrics.StoreWriteAttempts.Inc()
		err := store.Save(ctx, chain)
		if err == nil {
			return nil
		}

		lastErr = err
		if ClassifyError(err) == ActionFatal {
			break
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateBackoff(attempt, config)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", storage.ErrStoreWrite, ctx.Err())
		case <-time.After(delay):
		}
	}

	if errors.Is(lastErr, storage.ErrStoreWrite) {
		return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
	}
	return fmt.Errorf("%w: failed after %d attempts: %w", storage.ErrStoreWrite, attempts, lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
