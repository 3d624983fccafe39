package game

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
)

// seqSource replays fixed reel stops.
type seqSource struct {
	stops []int
	next  int
}

func (s *seqSource) IntN(n int) int {
	v := s.stops[s.next%len(s.stops)] % n
	s.next++
	return v
}

var (
	tiger   = domain.SymbolTiger
	diamond = domain.SymbolDiamond
	bell    = domain.SymbolBell
)

func TestWinnings(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		bet     string
		want    string
	}{
		{"three tigers", Outcome{tiger, tiger, tiger}, "10", "100"},
		{"three diamonds", Outcome{diamond, diamond, diamond}, "10", "50"},
		{"three bells", Outcome{bell, bell, bell}, "2.5", "7.5"},
		{"two tigers and a diamond", Outcome{tiger, tiger, diamond}, "4", "8"},
		{"diamond then two tigers", Outcome{diamond, tiger, tiger}, "4", "0"},
		{"mixed", Outcome{tiger, diamond, bell}, "100", "0"},
		{"two bells", Outcome{bell, bell, tiger}, "1", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Winnings(tt.outcome, decimal.RequireFromString(tt.bet))
			require.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestMachine_SpinUsesSource(t *testing.T) {
	m := NewMachine(WithSource(&seqSource{stops: []int{0, 0, 1}}))

	o, winnings := m.PlaceBet(decimal.NewFromInt(3))

	require.Equal(t, Outcome{tiger, tiger, diamond}, o)
	require.True(t, winnings.Equal(decimal.NewFromInt(6)))
	require.Equal(t, "🐅🐅💎", o.String())
	require.Equal(t, []domain.Symbol{tiger, tiger, diamond}, o.Symbols())
}

func TestMachine_SeededIsReproducible(t *testing.T) {
	a := NewMachine(WithSource(rand.New(rand.NewPCG(1, 2))))
	b := NewMachine(WithSource(rand.New(rand.NewPCG(1, 2))))

	for i := 0; i < 100; i++ {
		oa, ob := a.Spin(), b.Spin()
		require.Equal(t, oa, ob)
		for _, s := range oa {
			require.True(t, s.Known())
		}
	}
}

func TestMachine_DefaultSourceCoversAllSymbols(t *testing.T) {
	m := NewMachine()
	seen := map[domain.Symbol]bool{}
	for i := 0; i < 1000 && len(seen) < len(domain.Symbols); i++ {
		for _, s := range m.Spin() {
			seen[s] = true
		}
	}
	require.Len(t, seen, len(domain.Symbols))
}
