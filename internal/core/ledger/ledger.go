package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/hasher"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/persist"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/metrics"
)

// Ledger is an append-only chain of blocks plus the transactions waiting
// for the next block.
type Ledger struct {
	store     storage.ChainStore
	hasher    *hasher.Hasher
	retry     persist.RetryConfig
	log       *slog.Logger
	writerLog *slog.Logger
	now       func() time.Time

	mu      sync.RWMutex
	state   State
	chain   []domain.Block
	pending []domain.Transaction
	writer  *persist.Writer
}

// Status is a point-in-time summary of the ledger.
type Status struct {
	State          State
	Height         uint64
	HeadHash       string
	Pending        int
	PersistedCount int
	LastWriteError error
	Algorithm      hasher.Algorithm
}

// New creates an uninitialized ledger backed by store.
func New(store storage.ChainStore, opts ...Option) *Ledger {
	cfg := config{
		hasher: hasher.Default(),
		retry:  persist.DefaultRetryConfig,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Ledger{
		store:     store,
		hasher:    cfg.hasher,
		retry:     cfg.retry,
		log:       cfg.log.With("component", "ledger"),
		writerLog: cfg.log,
		now:       cfg.now,
	}
}

// Initialize restores the chain from the store. An empty store gets a
// genesis block, which is written before the ledger becomes Ready. A read
// or corrupt store leaves the ledger Uninitialized. Calling Initialize on a
// Ready ledger does nothing.
func (l *Ledger) Initialize(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateReady {
		return nil
	}

	chain, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load chain: %w", err)
	}

	if len(chain) > 0 {
		if err := checkChain(l.hasher, chain); err != nil {
			return fmt.Errorf("%w: %w", storage.ErrStoreCorrupt, err)
		}
		l.log.Info("Chain restored",
			"height", chain[len(chain)-1].Index,
			"head", chain[len(chain)-1].Hash,
		)
	} else {
		genesis := l.seal(1, domain.GenesisPreviousHash, nil)
		chain = []domain.Block{genesis}
		if err := persist.SaveWithRetry(ctx, l.store, chain, l.retry); err != nil {
			return fmt.Errorf("persist genesis: %w", err)
		}
		metrics.BlocksCreated.Inc()
		l.log.Info("Genesis block created", "hash", genesis.Hash)
	}

	l.chain = chain
	l.pending = nil
	l.writer = persist.NewWriter(l.store, l.retry, l.writerLog)
	l.writer.MarkDurable(len(chain))
	l.state = StateReady

	head := chain[len(chain)-1].Index
	metrics.ChainHeight.Set(float64(head))
	metrics.PersistedHeight.Set(float64(head))
	return nil
}

// AddTransaction appends tx to the pending buffer. It panics with an error
// wrapping ErrInvalidTransaction if tx fails validation; transactions built
// with domain.NewTransaction always pass.
func (l *Ledger) AddTransaction(tx domain.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mustBeReady()

	if err := tx.Validate(); err != nil {
		panic(fmt.Errorf("%w: %w", ErrInvalidTransaction, err))
	}
	l.pending = append(l.pending, tx.Clone())
}

// CreateBlock seals the pending transactions into a new block, appends it
// and persists the chain.
//
// If ctx is done before the append, nothing changes and ctx.Err is
// returned. Once appended the block is committed: a persistence failure or
// a cancelled wait returns the block together with the error, and the
// chain in memory keeps it.
func (l *Ledger) CreateBlock(ctx context.Context) (domain.Block, error) {
	block, result, err := l.appendBlock(ctx)
	if err != nil {
		return domain.Block{}, err
	}

	metrics.BlocksCreated.Inc()
	metrics.TransactionsCommitted.Add(float64(len(block.Transactions)))
	metrics.ChainHeight.Set(float64(block.Index))
	l.log.Debug("Block created",
		"index", block.Index,
		"transactions", len(block.Transactions),
		"hash", block.Hash,
	)

	select {
	case err := <-result:
		if err != nil {
			l.log.Warn("Block committed but not persisted",
				"index", block.Index,
				"error", err,
			)
			return block, fmt.Errorf("block %d: %w", block.Index, err)
		}
	case <-ctx.Done():
		return block, ctx.Err()
	}
	return block, nil
}

// appendBlock seals pending into the next block and hands the new chain
// to the writer. The returned block is a copy.
func (l *Ledger) appendBlock(ctx context.Context) (domain.Block, <-chan error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mustBeReady()

	if err := ctx.Err(); err != nil {
		return domain.Block{}, nil, err
	}

	n := len(l.chain)
	previousHash := domain.GenesisPreviousHash
	if n > 0 {
		previousHash = l.chain[n-1].Hash
	}

	txs := make([]domain.Transaction, len(l.pending))
	for i, tx := range l.pending {
		txs[i] = tx.Clone()
	}

	block := l.seal(uint64(n)+1, previousHash, txs)
	l.chain = append(l.chain, block)
	l.pending = nil

	result := l.writer.Submit(l.chain[: n+1 : n+1])
	return block.Clone(), result, nil
}

// GetChain returns a deep copy of the chain.
func (l *Ledger) GetChain() []domain.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.mustBeReady()

	out := make([]domain.Block, len(l.chain))
	for i, b := range l.chain {
		out[i] = b.Clone()
	}
	return out
}

// Head returns a copy of the newest block.
func (l *Ledger) Head() domain.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.mustBeReady()
	return l.chain[len(l.chain)-1].Clone()
}

// Pending returns a copy of the uncommitted transactions.
func (l *Ledger) Pending() []domain.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.mustBeReady()

	out := make([]domain.Transaction, len(l.pending))
	for i, tx := range l.pending {
		out[i] = tx.Clone()
	}
	return out
}

// Verify reports whether every block is correctly indexed, linked and
// hashed.
func (l *Ledger) Verify() bool {
	return l.CheckIntegrity() == nil
}

// CheckIntegrity returns an *InvariantViolation for the first bad block.
func (l *Ledger) CheckIntegrity() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.mustBeReady()

	if err := checkChain(l.hasher, l.chain); err != nil {
		l.log.Error("Chain integrity check failed", "error", err)
		return err
	}
	return nil
}

// Status reports the ledger state. It is safe to call before Initialize.
func (l *Ledger) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Status{
		State:     l.state,
		Pending:   len(l.pending),
		Algorithm: l.hasher.Algorithm(),
	}
	if n := len(l.chain); n > 0 {
		s.Height = l.chain[n-1].Index
		s.HeadHash = l.chain[n-1].Hash
	}
	if l.writer != nil {
		s.PersistedCount = l.writer.Persisted()
		s.LastWriteError = l.writer.LastError()
	}
	return s
}

// Persist writes the current chain unless it is already durable. It is how
// a caller retries after CreateBlock returned storage.ErrStoreWrite.
func (l *Ledger) Persist(ctx context.Context) error {
	l.mu.RLock()
	w := l.writer
	n := len(l.chain)
	snapshot := l.chain[:n:n]
	l.mu.RUnlock()
	if w == nil {
		return nil
	}

	select {
	case err := <-w.Submit(snapshot):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until the whole chain is durable, rewriting it if an earlier
// write failed.
func (l *Ledger) Flush(ctx context.Context) error {
	return l.Persist(ctx)
}

// Close makes the chain durable and stops the writer. If the final write
// fails the error wraps storage.ErrStoreWrite. The ledger stays readable;
// CreateBlock still appends afterwards but returns an error wrapping both
// storage.ErrStoreWrite and persist.ErrWriterClosed.
func (l *Ledger) Close(ctx context.Context) error {
	l.mu.RLock()
	w := l.writer
	l.mu.RUnlock()
	if w == nil {
		return nil
	}

	persistErr := l.Persist(ctx)
	if err := w.Close(ctx); err != nil && persistErr == nil {
		persistErr = err
	}
	if persistErr == nil {
		return nil
	}

	l.log.Error("Chain not durable at close",
		"persisted", w.Persisted(),
		"error", persistErr,
	)
	if errors.Is(persistErr, storage.ErrStoreWrite) {
		return persistErr
	}
	return fmt.Errorf("%w: %w", storage.ErrStoreWrite, persistErr)
}

func (l *Ledger) seal(index uint64, previousHash string, txs []domain.Transaction) domain.Block {
	return domain.Block{
		Index:        index,
		Timestamp:    l.now().UTC().Round(0).Truncate(time.Microsecond),
		Transactions: txs,
		PreviousHash: previousHash,
		Hash:         l.hasher.Fingerprint(index, previousHash, txs),
	}
}

func (l *Ledger) mustBeReady() {
	if l.state != StateReady {
		panic(ErrNotInitialized)
	}
}

// checkChain validates indexes, linkage and hashes from the first block.
func checkChain(h *hasher.Hasher, chain []domain.Block) error {
	if len(chain) == 0 {
		return &InvariantViolation{Reason: "chain is empty"}
	}

	for i, b := range chain {
		want := uint64(i) + 1
		if b.Index != want {
			return &InvariantViolation{
				Index:  b.Index,
				Reason: fmt.Sprintf("block at position %d has index %d, want %d", i, b.Index, want),
			}
		}

		previousHash := domain.GenesisPreviousHash
		if i > 0 {
			previousHash = chain[i-1].Hash
		}
		if b.PreviousHash != previousHash {
			return &InvariantViolation{
				Index:  b.Index,
				Reason: fmt.Sprintf("previous hash %q does not match %q", b.PreviousHash, previousHash),
			}
		}

		if got := h.BlockHash(b); b.Hash != got {
			return &InvariantViolation{
				Index:  b.Index,
				Reason: fmt.Sprintf("stored hash %q does not match computed %q", b.Hash, got),
			}
		}
	}
	return nil
}
