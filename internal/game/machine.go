// Package game is the slot machine that produces bet outcomes.
package game

import (
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
)

// Reels is the number of reels on the machine.
const Reels = 3

// Outcome is the symbol shown on each reel, left to right.
type Outcome [Reels]domain.Symbol

// Symbols returns the outcome as a slice.
func (o Outcome) Symbols() []domain.Symbol {
	return o[:]
}

func (o Outcome) String() string {
	return string(o[0]) + string(o[1]) + string(o[2])
}

// Payouts maps winning outcomes to their bet multiplier. Anything else
// pays nothing.
var Payouts = map[Outcome]int64{
	{domain.SymbolTiger, domain.SymbolTiger, domain.SymbolTiger}:       10,
	{domain.SymbolDiamond, domain.SymbolDiamond, domain.SymbolDiamond}: 5,
	{domain.SymbolBell, domain.SymbolBell, domain.SymbolBell}:          3,
	{domain.SymbolTiger, domain.SymbolTiger, domain.SymbolDiamond}:     2,
}

// Multiplier returns the payout multiplier for o.
func Multiplier(o Outcome) int64 {
	return Payouts[o]
}

// Source picks reel stops. *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Machine spins the reels and settles bets.
type Machine struct {
	mu  sync.Mutex
	src Source
}

// Option configures a Machine.
type Option func(*Machine)

// WithSource replaces the random source, typically with a seeded
// *rand.Rand in tests.
func WithSource(src Source) Option {
	return func(m *Machine) {
		m.src = src
	}
}

// NewMachine creates a machine backed by math/rand/v2 unless a source is
// given.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{src: globalSource{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Spin stops every reel on a random symbol.
func (m *Machine) Spin() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	var o Outcome
	for i := range o {
		o[i] = domain.Symbols[m.src.IntN(len(domain.Symbols))]
	}
	return o
}

// PlaceBet spins and returns the outcome with its winnings.
func (m *Machine) PlaceBet(betAmount decimal.Decimal) (Outcome, decimal.Decimal) {
	o := m.Spin()
	return o, Winnings(o, betAmount)
}

// Winnings is betAmount times the multiplier for o.
func Winnings(o Outcome, betAmount decimal.Decimal) decimal.Decimal {
	mult := Multiplier(o)
	if mult == 0 {
		return decimal.Zero
	}
	return betAmount.Mul(decimal.NewFromInt(mult))
}
