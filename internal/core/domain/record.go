package domain

import "github.com/shopspring/decimal"

// BetRecord is the reporting view of a transaction once it has been
// committed into a block.
type BetRecord struct {
	ID          string      `json:"id"`
	Transaction Transaction `json:"transaction"`
	BlockIndex  uint64      `json:"block_index"`
	BlockHash   string      `json:"block_hash"`
}

// BetSummary aggregates recorded bets.
type BetSummary struct {
	Count   int             `json:"count"`
	Wagered decimal.Decimal `json:"wagered"`
	Won     decimal.Decimal `json:"won"`
}

// Net returns what the house kept (negative when players are ahead).
func (s BetSummary) Net() decimal.Decimal {
	return s.Wagered.Sub(s.Won)
}
