package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/hasher"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	url := os.Getenv("LEDGER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping redis test. Set LEDGER_TEST_REDIS_URL to run.")
	}

	// A fresh prefix per test keeps runs independent.
	client, err := NewClient(Config{URL: url, KeyPrefix: fmt.Sprintf("test-%s", uuid.NewString())})
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.rdb.Keys(ctx, client.prefix+":*").Result()
		if len(keys) > 0 {
			client.rdb.Del(ctx, keys...)
		}
		client.Close()
	})
	return client
}

func genesis() domain.Block {
	return domain.Block{
		Index:        1,
		Timestamp:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		PreviousHash: domain.GenesisPreviousHash,
		Hash:         hasher.Default().Fingerprint(1, domain.GenesisPreviousHash, nil),
	}
}

func TestChainStore_RoundTrip(t *testing.T) {
	client := newTestClient(t)
	store := NewChainStore(client, hasher.SHA256)
	ctx := context.Background()

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, empty)

	chain := []domain.Block{genesis()}
	require.NoError(t, store.Save(ctx, chain))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, domain.ChainsEqual(chain, loaded))

	index, hash, err := store.Head(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), index)
	require.Equal(t, chain[0].Hash, hash)
}

func TestChainStore_CorruptValue(t *testing.T) {
	client := newTestClient(t)
	store := NewChainStore(client, hasher.SHA256)
	ctx := context.Background()

	require.NoError(t, client.rdb.Set(ctx, client.chainKey(), "{not json", 0).Err())

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, storage.ErrStoreCorrupt)
}

func TestBetRepo_ListAndSummary(t *testing.T) {
	client := newTestClient(t)
	repo := NewBetRepo(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tx, err := domain.NewTransaction(
			decimal.NewFromInt(int64(i+1)),
			[]domain.Symbol{domain.SymbolTiger, domain.SymbolTiger, domain.SymbolTiger},
			decimal.NewFromInt(int64(10*(i+1))),
			time.Date(2024, 1, 2, 3, 4, i, 0, time.UTC),
		)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, &domain.BetRecord{
			ID:          uuid.NewString(),
			Transaction: tx,
			BlockIndex:  uint64(i + 2),
		}))
	}

	latest, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, uint64(4), latest[0].BlockIndex)
	require.Equal(t, uint64(3), latest[1].BlockIndex)

	summary, err := repo.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Count)
	require.True(t, summary.Wagered.Equal(decimal.NewFromInt(6)))
	require.True(t, summary.Won.Equal(decimal.NewFromInt(60)))
}
