package storage

import (
	"context"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
)

// ChainStore persists the whole chain as one unit.
type ChainStore interface {
	// Load returns the stored chain in order, or an empty slice when
	// nothing has been stored yet.
	Load(ctx context.Context) ([]domain.Block, error)

	// Save replaces the stored chain atomically.
	Save(ctx context.Context, chain []domain.Block) error
}

// TransactionSink accepts committed bets.
type TransactionSink interface {
	// Save records a bet after its block has been created.
	Save(ctx context.Context, record *domain.BetRecord) error
}

// TransactionRepository is the reporting store for committed bets.
type TransactionRepository interface {
	TransactionSink

	// List returns up to limit records, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*domain.BetRecord, error)

	// Summary aggregates every stored record.
	Summary(ctx context.Context) (domain.BetSummary, error)
}
