// Package persist serializes chain writes through a single goroutine.
//
// The ledger hands the writer an immutable snapshot after every mutation.
// Snapshots that queue up while a write is in flight are coalesced: only
// the newest is written, and every caller waiting on an older snapshot is
// answered with the outcome of that newer write, which contains their
// blocks. A snapshot shorter than what is already durable is never
// written, so a slow write can not clobber a newer chain.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/metrics"
)

// ErrWriterClosed is returned, wrapped in storage.ErrStoreWrite, for
// snapshots submitted after Close that are not already durable.
var ErrWriterClosed = errors.New("writer closed")

// Writer owns every write to a ChainStore.
type Writer struct {
	store storage.ChainStore
	retry RetryConfig
	log   *slog.Logger

	mu           sync.Mutex
	queued       []domain.Block
	hasQueued    bool
	busy         bool
	waiters      []chan error
	flushWaiters []chan error
	persisted    int
	lastErr      error
	closed       bool

	wake   chan struct{}
	stop   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewWriter starts a writer for store.
func NewWriter(store storage.ChainStore, retry RetryConfig, log *slog.Logger) *Writer {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Writer{
		store:  store,
		retry:  retry.WithDefaults(),
		log:    log.With("component", "writer"),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	go w.run()
	return w
}

// Submit queues chain for writing. The caller must not modify chain
// afterwards. The returned channel yields the outcome of the write that
// made chain durable. A chain no longer than the durable one with no
// failed write since is answered at once. Submitting the same chain again
// after a failure retries the write.
func (w *Writer) Submit(chain []domain.Block) <-chan error {
	result := make(chan error, 1)

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.hasQueued && !w.busy && len(chain) <= w.persisted && w.lastErr == nil {
		// Chains only grow, so this snapshot is already on disk.
		result <- nil
		return result
	}
	if w.closed {
		result <- fmt.Errorf("%w: %w", storage.ErrStoreWrite, ErrWriterClosed)
		return result
	}

	if !w.hasQueued || len(chain) >= len(w.queued) {
		w.queued = chain
	}
	w.hasQueued = true
	w.waiters = append(w.waiters, result)

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return result
}

// Flush waits until every submitted snapshot has been handled and returns
// the outcome of the last write.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	if !w.hasQueued && !w.busy {
		err := w.lastErr
		w.mu.Unlock()
		return err
	}
	ch := make(chan error, 1)
	w.flushWaiters = append(w.flushWaiters, ch)
	w.mu.Unlock()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Persisted returns the length of the newest chain known to be durable.
func (w *Writer) Persisted() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.persisted
}

// MarkDurable records that a chain of length n is already in the store,
// typically the chain the ledger was restored from.
func (w *Writer) MarkDurable(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n > w.persisted {
		w.persisted = n
	}
}

// LastError returns the error of the most recent write, nil after a success.
func (w *Writer) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Close drains queued snapshots and stops the writer. If ctx ends first,
// pending retries are abandoned and ctx.Err is returned.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)

	select {
	case <-w.done:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		<-w.done
		return ctx.Err()
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		if !w.hasQueued {
			w.busy = false
			flush := w.flushWaiters
			w.flushWaiters = nil
			lastErr := w.lastErr
			w.mu.Unlock()
			for _, ch := range flush {
				ch <- lastErr
			}
			return
		}
		chain := w.queued
		waiters := w.waiters
		w.queued = nil
		w.waiters = nil
		w.hasQueued = false
		w.busy = true
		skip := len(chain) < w.persisted
		w.mu.Unlock()

		var err error
		if !skip {
			err = w.write(chain)
		}

		w.mu.Lock()
		if !skip {
			if err == nil {
				w.persisted = len(chain)
			}
			w.lastErr = err
		}
		w.mu.Unlock()

		for _, ch := range waiters {
			ch <- err
		}
	}
}

func (w *Writer) write(chain []domain.Block) error {
	start := time.Now()
	err := SaveWithRetry(w.ctx, w.store, chain, w.retry)
	metrics.StoreWriteLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.StoreWrites.WithLabelValues("failure").Inc()
		w.log.Error("Failed to persist chain",
			"height", len(chain),
			"error", err,
		)
		return err
	}

	metrics.StoreWrites.WithLabelValues("success").Inc()
	if n := len(chain); n > 0 {
		metrics.PersistedHeight.Set(float64(chain[n-1].Index))
	}
	w.log.Debug("Chain persisted", "height", len(chain), "took", time.Since(start))
	return nil
}
