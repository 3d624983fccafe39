package ledger

import (
	"log/slog"
	"time"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/hasher"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/persist"
)

type config struct {
	hasher *hasher.Hasher
	retry  persist.RetryConfig
	log    *slog.Logger
	now    func() time.Time
}

// Option configures a Ledger.
type Option func(*config)

// WithHasher sets the block hasher. Defaults to SHA-256.
func WithHasher(h *hasher.Hasher) Option {
	return func(c *config) {
		c.hasher = h
	}
}

// WithRetry sets the retry policy for store writes.
func WithRetry(r persist.RetryConfig) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithClock sets the source of block timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}
