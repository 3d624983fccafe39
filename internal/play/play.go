// Package play settles a single bet: spin, record in the ledger, report.
package play

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/game"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/metrics"
)

// ErrInvalidBet is returned for bets that are not positive or below the
// table minimum.
var ErrInvalidBet = errors.New("invalid bet amount")

// Ledger is the part of ledger.Ledger a play needs.
type Ledger interface {
	AddTransaction(tx domain.Transaction)
	CreateBlock(ctx context.Context) (domain.Block, error)
}

// Game produces outcomes. *game.Machine satisfies it.
type Game interface {
	PlaceBet(betAmount decimal.Decimal) (game.Outcome, decimal.Decimal)
}

// PlayGame runs bets against a ledger.
type PlayGame struct {
	ledger Ledger
	game   Game
	sink   storage.TransactionSink
	minBet decimal.Decimal
	now    func() time.Time
	log    *slog.Logger

	// Holds AddTransaction and CreateBlock together so each bet gets its
	// own block.
	mu sync.Mutex
}

// Option configures a PlayGame.
type Option func(*PlayGame)

// WithMinBet sets the smallest accepted bet.
func WithMinBet(min decimal.Decimal) Option {
	return func(p *PlayGame) {
		p.minBet = min
	}
}

// WithClock sets the source of transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *PlayGame) {
		p.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *PlayGame) {
		p.log = log
	}
}

// New creates a PlayGame.
func New(ledger Ledger, g Game, sink storage.TransactionSink, opts ...Option) *PlayGame {
	p := &PlayGame{
		ledger: ledger,
		game:   g,
		sink:   sink,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("component", "play")
	return p
}

// Execute places a bet and commits it in its own block. The record is
// saved to the sink even when the block could not be persisted; that
// error is returned with the record.
func (p *PlayGame) Execute(ctx context.Context, betAmount decimal.Decimal) (*domain.BetRecord, error) {
	if !betAmount.IsPositive() {
		return nil, fmt.Errorf("%w: %s must be positive", ErrInvalidBet, betAmount)
	}
	if betAmount.LessThan(p.minBet) {
		return nil, fmt.Errorf("%w: %s is below the minimum of %s", ErrInvalidBet, betAmount, p.minBet)
	}

	outcome, winnings := p.game.PlaceBet(betAmount)
	tx, err := domain.NewTransaction(betAmount, outcome.Symbols(), winnings, p.now())
	if err != nil {
		return nil, err
	}

	block, blockErr := p.commit(ctx, tx)
	if block.Index == 0 {
		return nil, fmt.Errorf("failed to commit bet: %w", blockErr)
	}

	record := &domain.BetRecord{
		ID:          uuid.NewString(),
		Transaction: tx,
		BlockIndex:  block.Index,
		BlockHash:   block.Hash,
	}

	outcomeLabel := "loss"
	if winnings.IsPositive() {
		outcomeLabel = "win"
	}
	metrics.BetsPlaced.WithLabelValues(outcomeLabel).Inc()
	metrics.AmountWagered.Add(betAmount.InexactFloat64())
	metrics.AmountPaid.Add(winnings.InexactFloat64())

	if err := p.sink.Save(ctx, record); err != nil {
		return record, errors.Join(blockErr, fmt.Errorf("failed to save bet record: %w", err))
	}

	p.log.Debug("Bet settled",
		"id", record.ID,
		"bet", betAmount.String(),
		"result", outcome.String(),
		"winnings", winnings.String(),
		"block", block.Index,
	)
	return record, blockErr
}

// commit adds tx and seals it into a block. A cancelled ctx stops the bet
// only before the transaction is added; from then on the block is always
// created so no bet is left pending for someone else's block.
func (p *PlayGame) commit(ctx context.Context, tx domain.Transaction) (domain.Block, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.Block{}, err
	}
	p.ledger.AddTransaction(tx)
	return p.ledger.CreateBlock(context.WithoutCancel(ctx))
}
