package play

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/ledger"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/persist"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/game"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage/memory"
)

type fixedSource struct{ stop int }

func (s fixedSource) IntN(n int) int { return s.stop % n }

type failingChainStore struct {
	*memory.ChainStore
	failing atomic.Bool
}

func (s *failingChainStore) Save(ctx context.Context, chain []domain.Block) error {
	if s.failing.Load() {
		return errors.New("disk full")
	}
	return s.ChainStore.Save(ctx, chain)
}

type failingSink struct{}

func (failingSink) Save(ctx context.Context, record *domain.BetRecord) error {
	return errors.New("sink offline")
}

var playTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

type fixture struct {
	ledger *ledger.Ledger
	store  *failingChainStore
	bets   *memory.TxRepo
	play   *PlayGame
}

func newFixture(t *testing.T, sink storage.TransactionSink, opts ...Option) *fixture {
	t.Helper()
	mem := memory.NewMemoryStorage()
	store := &failingChainStore{ChainStore: memory.NewChainStore(mem)}
	l := ledger.New(store, ledger.WithRetry(persist.RetryConfig{
		MaxAttempts:     2,
		InitialDelay:    time.Millisecond,
		MaxDelay:        time.Millisecond,
		BackoffMultiple: 2,
	}))
	require.NoError(t, l.Initialize(context.Background()))
	t.Cleanup(func() { l.Close(context.Background()) })

	bets := memory.NewTxRepo(mem)
	if sink == nil {
		sink = bets
	}
	machine := game.NewMachine(game.WithSource(fixedSource{stop: 0}))
	opts = append([]Option{WithClock(func() time.Time { return playTime })}, opts...)

	return &fixture{
		ledger: l,
		store:  store,
		bets:   bets,
		play:   New(l, machine, sink, opts...),
	}
}

func TestExecute_RecordsBetInOwnBlock(t *testing.T) {
	f := newFixture(t, nil)

	record, err := f.play.Execute(context.Background(), decimal.NewFromInt(10))
	require.NoError(t, err)

	_, err = uuid.Parse(record.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(2), record.BlockIndex)
	require.Equal(t, []domain.Symbol{domain.SymbolTiger, domain.SymbolTiger, domain.SymbolTiger}, record.Transaction.Result)
	require.True(t, record.Transaction.Winnings.Equal(decimal.NewFromInt(100)))
	require.True(t, record.Transaction.Timestamp.Equal(playTime))

	chain := f.ledger.GetChain()
	require.Len(t, chain, 2)
	require.Equal(t, chain[1].Hash, record.BlockHash)
	require.Len(t, chain[1].Transactions, 1)
	require.True(t, chain[1].Transactions[0].Equal(record.Transaction))
	require.True(t, f.ledger.Verify())

	saved, err := f.bets.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	require.Equal(t, record.ID, saved[0].ID)
}

func TestExecute_RejectsInvalidBets(t *testing.T) {
	tests := []struct {
		name string
		bet  string
	}{
		{"zero", "0"},
		{"negative", "-5"},
		{"below minimum", "0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, WithMinBet(decimal.NewFromInt(1)))

			_, err := f.play.Execute(context.Background(), decimal.RequireFromString(tt.bet))
			require.ErrorIs(t, err, ErrInvalidBet)
			require.Len(t, f.ledger.GetChain(), 1)
			require.Empty(t, f.ledger.Pending())

			saved, err := f.bets.List(context.Background(), 0)
			require.NoError(t, err)
			require.Empty(t, saved)
		})
	}
}

func TestExecute_SequentialBetsGetSequentialBlocks(t *testing.T) {
	f := newFixture(t, nil)

	for i := 0; i < 5; i++ {
		record, err := f.play.Execute(context.Background(), decimal.NewFromInt(1))
		require.NoError(t, err)
		require.Equal(t, uint64(i+2), record.BlockIndex)
	}

	require.Len(t, f.ledger.GetChain(), 6)
	summary, err := f.bets.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, summary.Count)
	require.True(t, summary.Wagered.Equal(decimal.NewFromInt(5)))
	require.True(t, summary.Won.Equal(decimal.NewFromInt(50)))
}

func TestExecute_ConcurrentBetsEachOwnBlock(t *testing.T) {
	f := newFixture(t, nil)

	const players = 10
	records := make([]*domain.BetRecord, players)
	var wg sync.WaitGroup
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := f.play.Execute(context.Background(), decimal.NewFromInt(int64(i+1)))
			if err != nil {
				t.Error(err)
				return
			}
			records[i] = rec
		}(i)
	}
	wg.Wait()

	chain := f.ledger.GetChain()
	require.Len(t, chain, players+1)
	for _, rec := range records {
		require.NotNil(t, rec)
		block := chain[rec.BlockIndex-1]
		require.Len(t, block.Transactions, 1)
		require.True(t, block.Transactions[0].BetAmount.Equal(rec.Transaction.BetAmount))
	}
}

func TestExecute_PersistFailureStillRecords(t *testing.T) {
	f := newFixture(t, nil)
	f.store.failing.Store(true)

	record, err := f.play.Execute(context.Background(), decimal.NewFromInt(2))
	require.ErrorIs(t, err, storage.ErrStoreWrite)
	require.NotNil(t, record)
	require.Equal(t, uint64(2), record.BlockIndex)
	require.Len(t, f.ledger.GetChain(), 2)

	saved, listErr := f.bets.List(context.Background(), 0)
	require.NoError(t, listErr)
	require.Len(t, saved, 1)
}

func TestExecute_SinkFailure(t *testing.T) {
	f := newFixture(t, failingSink{})

	record, err := f.play.Execute(context.Background(), decimal.NewFromInt(2))
	require.Error(t, err)
	require.ErrorContains(t, err, "sink offline")
	require.NotNil(t, record)
	require.Len(t, f.ledger.GetChain(), 2)
}

func TestExecute_CancelledBeforeCommit(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	record, err := f.play.Execute(ctx, decimal.NewFromInt(2))
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, record)
	require.Len(t, f.ledger.GetChain(), 1)
	require.Empty(t, f.ledger.Pending())

	// The next bet gets a block of its own.
	next, err := f.play.Execute(context.Background(), decimal.NewFromInt(5))
	require.NoError(t, err)
	chain := f.ledger.GetChain()
	require.Len(t, chain, 2)
	require.Len(t, chain[1].Transactions, 1)
	require.True(t, chain[1].Transactions[0].Equal(next.Transaction))
}

func TestExecute_RetriesPersistOnClose(t *testing.T) {
	f := newFixture(t, nil)
	f.store.failing.Store(true)

	_, err := f.play.Execute(context.Background(), decimal.NewFromInt(2))
	require.ErrorIs(t, err, storage.ErrStoreWrite)

	f.store.failing.Store(false)
	require.NoError(t, f.ledger.Close(context.Background()))

	stored, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, domain.ChainsEqual(f.ledger.GetChain(), stored))
}
