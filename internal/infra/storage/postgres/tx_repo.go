package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
)

// BetRepo implements storage.TransactionRepository using PostgreSQL.
type BetRepo struct {
	db *DB
}

// NewBetRepo creates a new PostgreSQL bet repository.
func NewBetRepo(db *DB) *BetRepo {
	return &BetRepo{db: db}
}

type betRow struct {
	ID         string          `db:"id"`
	BlockIndex uint64          `db:"block_index"`
	BlockHash  string          `db:"block_hash"`
	BetAmount  decimal.Decimal `db:"bet_amount"`
	Result     pq.StringArray  `db:"result"`
	Winnings   decimal.Decimal `db:"winnings"`
	PlacedAt   time.Time       `db:"placed_at"`
}

func (b *betRow) toDomain() *domain.BetRecord {
	result := make([]domain.Symbol, len(b.Result))
	for i, s := range b.Result {
		result[i] = domain.Symbol(s)
	}
	return &domain.BetRecord{
		ID: b.ID,
		Transaction: domain.Transaction{
			BetAmount: b.BetAmount,
			Result:    result,
			Winnings:  b.Winnings,
			Timestamp: b.PlacedAt.UTC(),
		},
		BlockIndex: b.BlockIndex,
		BlockHash:  b.BlockHash,
	}
}

// Save saves a bet record. Saving the same ID twice is a no-op.
func (r *BetRepo) Save(ctx context.Context, record *domain.BetRecord) error {
	query := `
		INSERT INTO bets (id, block_index, block_hash, bet_amount, result, winnings, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	result := make([]string, len(record.Transaction.Result))
	for i, s := range record.Transaction.Result {
		result[i] = string(s)
	}

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.BlockIndex,
		record.BlockHash,
		record.Transaction.BetAmount,
		pq.Array(result),
		record.Transaction.Winnings,
		record.Transaction.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save bet: %w", err)
	}
	return nil
}

// List returns the most recent bets, newest first. A limit of 0 returns all.
func (r *BetRepo) List(ctx context.Context, limit int) ([]*domain.BetRecord, error) {
	query := `
		SELECT id, block_index, block_hash, bet_amount, result, winnings, placed_at
		FROM bets
		ORDER BY placed_at DESC, block_index DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var rows []betRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}

	out := make([]*domain.BetRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// Summary aggregates every recorded bet.
func (r *BetRepo) Summary(ctx context.Context) (domain.BetSummary, error) {
	query := `
		SELECT COUNT(*) AS count,
			COALESCE(SUM(bet_amount), 0) AS wagered,
			COALESCE(SUM(winnings), 0) AS won
		FROM bets
	`

	var row struct {
		Count   int             `db:"count"`
		Wagered decimal.Decimal `db:"wagered"`
		Won     decimal.Decimal `db:"won"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return domain.BetSummary{}, fmt.Errorf("failed to summarize bets: %w", err)
	}
	return domain.BetSummary{Count: row.Count, Wagered: row.Wagered, Won: row.Won}, nil
}
