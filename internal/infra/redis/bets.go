package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
)

// BetRepo implements storage.TransactionRepository using Redis. Records
// live under their own key and are indexed by a sorted set scored by bet
// time.
type BetRepo struct {
	client *Client
}

// NewBetRepo creates a new Redis-backed bet repository.
func NewBetRepo(client *Client) *BetRepo {
	return &BetRepo{client: client}
}

// Save stores a bet record.
func (r *BetRepo) Save(ctx context.Context, record *domain.BetRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal bet: %w", err)
	}

	_, err = r.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.client.betKey(record.ID), data, 0)
		pipe.ZAdd(ctx, r.client.betQueueKey(), redis.Z{
			Score:  float64(record.Transaction.Timestamp.UnixMilli()),
			Member: record.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save bet: %w", err)
	}
	return nil
}

// List returns the most recent bets, newest first. A limit of 0 returns all.
func (r *BetRepo) List(ctx context.Context, limit int) ([]*domain.BetRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := r.client.rdb.ZRevRange(ctx, r.client.betQueueKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange failed: %w", err)
	}
	return r.fetch(ctx, ids)
}

// Summary aggregates every recorded bet.
func (r *BetRepo) Summary(ctx context.Context) (domain.BetSummary, error) {
	records, err := r.List(ctx, 0)
	if err != nil {
		return domain.BetSummary{}, err
	}

	s := domain.BetSummary{Wagered: decimal.Zero, Won: decimal.Zero}
	for _, rec := range records {
		s.Count++
		s.Wagered = s.Wagered.Add(rec.Transaction.BetAmount)
		s.Won = s.Won.Add(rec.Transaction.Winnings)
	}
	return s, nil
}

func (r *BetRepo) fetch(ctx context.Context, ids []string) ([]*domain.BetRecord, error) {
	if len(ids) == 0 {
		return []*domain.BetRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.client.betKey(id)
	}
	values, err := r.client.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}

	out := make([]*domain.BetRecord, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Indexed but the record is gone; drop the stale member.
			r.client.rdb.ZRem(ctx, r.client.betQueueKey(), ids[i])
			continue
		}
		var rec domain.BetRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bet %s: %w", ids[i], err)
		}
		out = append(out, &rec)
	}
	return out, nil
}
