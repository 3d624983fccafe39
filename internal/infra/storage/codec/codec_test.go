package codec

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/hasher"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage"
)

func buildChain(t *testing.T, n int) []domain.Block {
	t.Helper()
	h := hasher.Default()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	chain := make([]domain.Block, 0, n)
	prev := domain.GenesisPreviousHash
	for i := range n {
		txs := []domain.Transaction{}
		if i > 0 {
			tx, err := domain.NewTransaction(
				decimal.NewFromInt(int64(10*i)),
				[]domain.Symbol{domain.SymbolBell, domain.SymbolBell, domain.SymbolBell},
				decimal.NewFromInt(int64(30*i)),
				ts.Add(time.Duration(i)*time.Second),
			)
			if err != nil {
				t.Fatalf("NewTransaction: %v", err)
			}
			txs = append(txs, tx)
		}
		b := domain.Block{
			Index:        uint64(i + 1),
			Timestamp:    ts.Add(time.Duration(i) * time.Second),
			Transactions: txs,
			PreviousHash: prev,
		}
		b.Hash = h.BlockHash(b)
		prev = b.Hash
		chain = append(chain, b)
	}
	return chain
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	chain := buildChain(t, 4)

	data, err := Encode(hasher.SHA256, chain)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(data, hasher.SHA256)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !domain.ChainsEqual(chain, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", chain, got)
	}
}

func TestEncode_HumanReadable(t *testing.T) {
	data, err := Encode(hasher.SHA256, buildChain(t, 2))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	s := string(data)
	for _, want := range []string{`"version": 1`, `"hash_algorithm": "sha256"`, `"previousHash": "0"`, `"betAmount": "10"`, "🔔"} {
		if !strings.Contains(s, want) {
			t.Errorf("artifact missing %s:\n%s", want, s)
		}
	}
}

func TestEncode_NilChainWritesEmptyArray(t *testing.T) {
	data, err := Encode(hasher.SHA256, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(data, hasher.SHA256)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty chain, got %d blocks", len(got))
	}
}

func TestDecode_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"not json", "{{{ definitely not json"},
		{"truncated", `{"version":1,"hash_algorithm":"sha256","blocks":[{"index":1,`},
		{"legacy bare array", `[{"index":1,"previousHash":"0","hash":"abc","transactions":[]}]`},
		{"wrong version", `{"version":7,"hash_algorithm":"sha256","blocks":[]}`},
		{"missing blocks", `{"version":1,"hash_algorithm":"sha256"}`},
		{"algorithm mismatch", `{"version":1,"hash_algorithm":"blake2b-256","blocks":[]}`},
		{"zero index", `{"version":1,"hash_algorithm":"sha256","blocks":[{"index":0,"previousHash":"0","hash":"a"}]}`},
		{"missing hash", `{"version":1,"hash_algorithm":"sha256","blocks":[{"index":1,"previousHash":"0"}]}`},
		{"missing previous hash", `{"version":1,"hash_algorithm":"sha256","blocks":[{"index":1,"hash":"a"}]}`},
		{"negative bet", `{"version":1,"hash_algorithm":"sha256","blocks":[{"index":1,"previousHash":"0","hash":"a",
			"transactions":[{"betAmount":"-5","result":["🐅"],"winnings":"0","timestamp":"2024-01-01T00:00:00Z"}]}]}`},
		{"empty symbol", `{"version":1,"hash_algorithm":"sha256","blocks":[{"index":1,"previousHash":"0","hash":"a",
			"transactions":[{"betAmount":"5","result":[""],"winnings":"0","timestamp":"2024-01-01T00:00:00Z"}]}]}`},
		{"bad decimal", `{"version":1,"hash_algorithm":"sha256","blocks":[{"index":1,"previousHash":"0","hash":"a",
			"transactions":[{"betAmount":"ten","result":[],"winnings":"0","timestamp":"2024-01-01T00:00:00Z"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), hasher.SHA256)
			if !errors.Is(err, storage.ErrStoreCorrupt) {
				t.Fatalf("expected ErrStoreCorrupt, got %v", err)
			}
		})
	}
}

func TestDecode_NullTransactionsBecomeEmpty(t *testing.T) {
	data := `{"version":1,"hash_algorithm":"sha256","blocks":[{"index":1,"previousHash":"0","hash":"a","transactions":null}]}`
	got, err := Decode([]byte(data), hasher.SHA256)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got[0].Transactions == nil {
		t.Fatal("expected non-nil transactions")
	}
}
