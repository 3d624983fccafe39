package hasher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
)

const (
	genesisSHA256  = "3540c86b6690e69c026955ad044a818092fca2ba7e62334d28f0feec92aff223"
	genesisBlake2b = "f91b968ffa399efbc2349705dd1e4cafce486d1838a14dbbe6ab6bf53205972d"
	betBlockSHA256 = "e7b6243ed875a9aa6a7a03f3ab27a68b6eba5a577aeceb4e9b4b3e781a35161e"
)

func sampleTx(t *testing.T, bet string) domain.Transaction {
	t.Helper()
	tx, err := domain.NewTransaction(
		decimal.RequireFromString(bet),
		[]domain.Symbol{domain.SymbolTiger, domain.SymbolDiamond, domain.SymbolBell},
		decimal.Zero,
		time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	)
	require.NoError(t, err)
	return tx
}

func TestCanonical_GenesisLayout(t *testing.T) {
	got := Canonical(1, domain.GenesisPreviousHash, nil)
	require.Equal(t, "fortune-tiger/block/v1\x001:1,1:0,1:0,", string(got))
}

func TestFingerprint_GoldenVectors(t *testing.T) {
	h := Default()
	require.Equal(t, genesisSHA256, h.Fingerprint(1, "0", nil))

	b, err := New(Blake2b256)
	require.NoError(t, err)
	require.Equal(t, genesisBlake2b, b.Fingerprint(1, "0", nil))

	tx := sampleTx(t, "100")
	require.Equal(t, betBlockSHA256, h.Fingerprint(2, genesisSHA256, []domain.Transaction{tx}))
}

func TestFingerprint_Deterministic(t *testing.T) {
	h := Default()
	txs := []domain.Transaction{sampleTx(t, "100"), sampleTx(t, "25.5")}

	first := h.Fingerprint(3, "abc", txs)
	for range 10 {
		require.Equal(t, first, h.Fingerprint(3, "abc", txs))
	}
	require.Len(t, first, 64)
}

func TestFingerprint_DecimalFormattingIsCanonical(t *testing.T) {
	h := Default()
	a := h.Fingerprint(2, "x", []domain.Transaction{sampleTx(t, "100.50")})
	b := h.Fingerprint(2, "x", []domain.Transaction{sampleTx(t, "100.5")})
	require.Equal(t, a, b)
}

func TestFingerprint_TimezoneDoesNotMatter(t *testing.T) {
	h := Default()
	tx := sampleTx(t, "10")
	shifted := tx
	shifted.Timestamp = tx.Timestamp.In(time.FixedZone("BRT", -3*60*60))

	require.Equal(t,
		h.Fingerprint(2, "x", []domain.Transaction{tx}),
		h.Fingerprint(2, "x", []domain.Transaction{shifted}),
	)
}

func TestFingerprint_SensitiveToEveryField(t *testing.T) {
	h := Default()
	base := []domain.Transaction{sampleTx(t, "10"), sampleTx(t, "20")}
	ref := h.Fingerprint(2, "prev", base)

	tests := []struct {
		name  string
		index uint64
		prev  string
		txs   func() []domain.Transaction
	}{
		{"index", 3, "prev", func() []domain.Transaction { return base }},
		{"previous hash", 2, "other", func() []domain.Transaction { return base }},
		{"order", 2, "prev", func() []domain.Transaction {
			return []domain.Transaction{base[1], base[0]}
		}},
		{"bet amount", 2, "prev", func() []domain.Transaction {
			c := []domain.Transaction{base[0].Clone(), base[1].Clone()}
			c[0].BetAmount = decimal.NewFromInt(11)
			return c
		}},
		{"winnings", 2, "prev", func() []domain.Transaction {
			c := []domain.Transaction{base[0].Clone(), base[1].Clone()}
			c[1].Winnings = decimal.NewFromInt(1)
			return c
		}},
		{"symbol", 2, "prev", func() []domain.Transaction {
			c := []domain.Transaction{base[0].Clone(), base[1].Clone()}
			c[0].Result[2] = domain.SymbolTiger
			return c
		}},
		{"timestamp", 2, "prev", func() []domain.Transaction {
			c := []domain.Transaction{base[0].Clone(), base[1].Clone()}
			c[0].Timestamp = c[0].Timestamp.Add(time.Nanosecond)
			return c
		}},
		{"dropped transaction", 2, "prev", func() []domain.Transaction { return base[:1] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotEqual(t, ref, h.Fingerprint(tt.index, tt.prev, tt.txs()))
		})
	}
}

func TestFingerprint_FieldBoundariesAreUnambiguous(t *testing.T) {
	h := Default()
	a := sampleTx(t, "1")
	a.Result = []domain.Symbol{"ab", "c"}
	b := sampleTx(t, "1")
	b.Result = []domain.Symbol{"a", "bc"}

	require.NotEqual(t,
		h.Fingerprint(2, "x", []domain.Transaction{a}),
		h.Fingerprint(2, "x", []domain.Transaction{b}),
	)
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"", SHA256, false},
		{"sha256", SHA256, false},
		{"blake2b-256", Blake2b256, false},
		{"md5", "", true},
	}

	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.in)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrUnknownAlgorithm)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}
