package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeAmount is returned when a bet or payout is below zero.
	ErrNegativeAmount = errors.New("amount must not be negative")

	// ErrInvalidSymbol is returned for empty or non UTF-8 result symbols.
	ErrInvalidSymbol = errors.New("invalid result symbol")

	// ErrTimestampRange is returned for timestamps RFC 3339 can not carry.
	ErrTimestampRange = errors.New("timestamp year outside [0,9999]")
)

// Transaction records a single settled bet.
type Transaction struct {
	BetAmount decimal.Decimal `json:"betAmount"`
	Result    []Symbol        `json:"result"`
	Winnings  decimal.Decimal `json:"winnings"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewTransaction builds a validated transaction. The timestamp is stored in
// UTC at microsecond precision without a monotonic reading, so it survives
// both a JSON round trip and a PostgreSQL timestamptz column intact.
func NewTransaction(
	betAmount decimal.Decimal,
	result []Symbol,
	winnings decimal.Decimal,
	timestamp time.Time,
) (Transaction, error) {
	tx := Transaction{
		BetAmount: betAmount,
		Result:    slices.Clone(result),
		Winnings:  winnings,
		Timestamp: timestamp.UTC().Round(0).Truncate(time.Microsecond),
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Validate checks the structural shape of the transaction. A transaction
// that passes can be stored and read back with the same hash.
func (t Transaction) Validate() error {
	if t.BetAmount.IsNegative() {
		return fmt.Errorf("bet %s: %w", t.BetAmount, ErrNegativeAmount)
	}
	if t.Winnings.IsNegative() {
		return fmt.Errorf("winnings %s: %w", t.Winnings, ErrNegativeAmount)
	}
	for i, s := range t.Result {
		if s == "" || !utf8.ValidString(string(s)) {
			return fmt.Errorf("result %d %q: %w", i, s, ErrInvalidSymbol)
		}
	}
	if !ValidTimestamp(t.Timestamp) {
		return fmt.Errorf("timestamp %s: %w", t.Timestamp, ErrTimestampRange)
	}
	return nil
}

// ValidTimestamp reports whether ts can be encoded as RFC 3339.
func ValidTimestamp(ts time.Time) bool {
	for _, y := range []int{ts.Year(), ts.UTC().Year()} {
		if y < 0 || y > 9999 {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no memory with t.
func (t Transaction) Clone() Transaction {
	c := t
	c.Result = slices.Clone(t.Result)
	return c
}

// Equal compares by value: decimals numerically, timestamps by instant.
func (t Transaction) Equal(o Transaction) bool {
	return t.BetAmount.Equal(o.BetAmount) &&
		t.Winnings.Equal(o.Winnings) &&
		t.Timestamp.Equal(o.Timestamp) &&
		slices.Equal(t.Result, o.Result)
}
