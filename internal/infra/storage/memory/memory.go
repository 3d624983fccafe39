package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
)

// MemoryStorage keeps the chain and bet records in process memory.
type MemoryStorage struct {
	chain []domain.Block
	bets  []*domain.BetRecord
	saves int
	mu    sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// -----------------------------------------------------------------------------
// Chain Store
// -----------------------------------------------------------------------------

type ChainStore struct {
	store *MemoryStorage
}

func NewChainStore(store *MemoryStorage) *ChainStore {
	return &ChainStore{store: store}
}

func (r *ChainStore) Load(ctx context.Context) ([]domain.Block, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return cloneChain(r.store.chain), nil
}

func (r *ChainStore) Save(ctx context.Context, chain []domain.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.chain = cloneChain(chain)
	r.store.saves++
	return nil
}

// Saves returns how many times the chain has been written.
func (r *ChainStore) Saves() int {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.saves
}

func cloneChain(chain []domain.Block) []domain.Block {
	out := make([]domain.Block, len(chain))
	for i, b := range chain {
		out[i] = b.Clone()
	}
	return out
}

// -----------------------------------------------------------------------------
// Transaction Repository
// -----------------------------------------------------------------------------

type TxRepo struct {
	store *MemoryStorage
}

func NewTxRepo(store *MemoryStorage) *TxRepo {
	return &TxRepo{store: store}
}

func (r *TxRepo) Save(ctx context.Context, record *domain.BetRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *record
	c.Transaction = record.Transaction.Clone()
	r.store.bets = append(r.store.bets, &c)
	return nil
}

func (r *TxRepo) List(ctx context.Context, limit int) ([]*domain.BetRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*domain.BetRecord, 0, len(r.store.bets))
	for _, b := range slices.Backward(r.store.bets) {
		if limit > 0 && len(out) == limit {
			break
		}
		c := *b
		c.Transaction = b.Transaction.Clone()
		out = append(out, &c)
	}
	return out, nil
}

func (r *TxRepo) Summary(ctx context.Context) (domain.BetSummary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s := domain.BetSummary{Wagered: decimal.Zero, Won: decimal.Zero}
	for _, b := range r.store.bets {
		s.Count++
		s.Wagered = s.Wagered.Add(b.Transaction.BetAmount)
		s.Won = s.Won.Add(b.Transaction.Winnings)
	}
	return s, nil
}
