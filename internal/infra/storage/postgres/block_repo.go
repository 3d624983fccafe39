package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/hasher"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage/codec"
)

// ChainStore implements storage.ChainStore on the ledger_blocks table.
// Blocks are rows; a Save leaves the table holding exactly the given chain.
type ChainStore struct {
	db  *DB
	alg hasher.Algorithm
}

// NewChainStore creates a new PostgreSQL chain store.
func NewChainStore(db *DB, alg hasher.Algorithm) *ChainStore {
	return &ChainStore{db: db, alg: alg}
}

type blockRow struct {
	Index         uint64    `db:"idx"`
	Timestamp     time.Time `db:"block_timestamp"`
	PreviousHash  string    `db:"previous_hash"`
	Hash          string    `db:"hash"`
	HashAlgorithm string    `db:"hash_algorithm"`
	Transactions  []byte    `db:"transactions"`
}

func (b *blockRow) toDomain() (domain.Block, error) {
	var txs []domain.Transaction
	if err := json.Unmarshal(b.Transactions, &txs); err != nil {
		return domain.Block{}, fmt.Errorf("%w: block %d transactions: %w", storage.ErrStoreCorrupt, b.Index, err)
	}
	return domain.Block{
		Index:        b.Index,
		Timestamp:    b.Timestamp.UTC(),
		Transactions: txs,
		PreviousHash: b.PreviousHash,
		Hash:         b.Hash,
	}, nil
}

func (s *ChainStore) toRow(b domain.Block) (blockRow, error) {
	txs := b.Transactions
	if txs == nil {
		txs = []domain.Transaction{}
	}
	data, err := json.Marshal(txs)
	if err != nil {
		return blockRow{}, err
	}
	return blockRow{
		Index:         b.Index,
		Timestamp:     b.Timestamp,
		PreviousHash:  b.PreviousHash,
		Hash:          b.Hash,
		HashAlgorithm: string(s.alg),
		Transactions:  data,
	}, nil
}

// Load reads the chain ordered by index.
func (s *ChainStore) Load(ctx context.Context) ([]domain.Block, error) {
	query := `
		SELECT idx, block_timestamp, previous_hash, hash, hash_algorithm, transactions
		FROM ledger_blocks
		ORDER BY idx
	`

	var rows []blockRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%w: failed to load blocks: %w", storage.ErrStoreRead, err)
	}

	chain := make([]domain.Block, 0, len(rows))
	for i := range rows {
		if rows[i].HashAlgorithm != string(s.alg) {
			return nil, fmt.Errorf("%w: block %d hashed with %q, want %q",
				storage.ErrStoreCorrupt, rows[i].Index, rows[i].HashAlgorithm, s.alg)
		}
		b, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		chain = append(chain, b)
	}

	if err := codec.ValidateShape(chain); err != nil {
		return nil, err
	}
	return chain, nil
}

// Save makes the table hold chain. When the stored rows are a prefix of
// chain only the new blocks are inserted; otherwise the table is replaced.
// Either way it happens in one transaction.
func (s *ChainStore) Save(ctx context.Context, chain []domain.Block) error {
	if err := s.save(ctx, chain); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrStoreWrite, err)
	}
	return nil
}

func (s *ChainStore) save(ctx context.Context, chain []domain.Block) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Serializes concurrent writers; readers are not blocked.
	if _, err := tx.ExecContext(ctx, `LOCK TABLE ledger_blocks IN EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("failed to lock ledger_blocks: %w", err)
	}

	var head struct {
		Index uint64 `db:"idx"`
		Hash  string `db:"hash"`
	}
	from := 0
	err = tx.GetContext(ctx, &head, `SELECT idx, hash FROM ledger_blocks ORDER BY idx DESC LIMIT 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to read head: %w", err)
	case head.Index > 0 && head.Index <= uint64(len(chain)) && chain[head.Index-1].Hash == head.Hash:
		from = int(head.Index)
	default:
		if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_blocks`); err != nil {
			return fmt.Errorf("failed to clear ledger_blocks: %w", err)
		}
	}

	query := `
		INSERT INTO ledger_blocks (idx, block_timestamp, previous_hash, hash, hash_algorithm, transactions)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, block := range chain[from:] {
		row, err := s.toRow(block)
		if err != nil {
			return fmt.Errorf("failed to encode block %d: %w", block.Index, err)
		}
		_, err = stmt.ExecContext(ctx,
			row.Index,
			row.Timestamp,
			row.PreviousHash,
			row.Hash,
			row.HashAlgorithm,
			row.Transactions,
		)
		if err != nil {
			return fmt.Errorf("failed to insert block %d: %w", block.Index, err)
		}
	}

	return tx.Commit()
}

// Height returns the index of the newest stored block, 0 when empty.
func (s *ChainStore) Height(ctx context.Context) (uint64, error) {
	var height uint64
	err := s.db.GetContext(ctx, &height, `SELECT COALESCE(MAX(idx), 0) FROM ledger_blocks`)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get height: %w", storage.ErrStoreRead, err)
	}
	return height, nil
}
