package domain

import "time"

// GenesisPreviousHash is the previous hash recorded on the first block.
const GenesisPreviousHash = "0"

// Block is a committed batch of bets. Hash covers Index, PreviousHash and
// Transactions; Timestamp is informational only.
type Block struct {
	Index        uint64        `json:"index"`
	Timestamp    time.Time     `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	PreviousHash string        `json:"previousHash"`
	Hash         string        `json:"hash"`
}

// IsGenesis reports whether b sits at the head of a chain.
func (b Block) IsGenesis() bool {
	return b.Index == 1 && b.PreviousHash == GenesisPreviousHash
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	c := b
	c.Transactions = make([]Transaction, len(b.Transactions))
	for i, tx := range b.Transactions {
		c.Transactions[i] = tx.Clone()
	}
	return c
}

// Equal compares blocks field by field. Nil and empty transaction lists
// are equal.
func (b Block) Equal(o Block) bool {
	if b.Index != o.Index || b.PreviousHash != o.PreviousHash || b.Hash != o.Hash {
		return false
	}
	if !b.Timestamp.Equal(o.Timestamp) {
		return false
	}
	if len(b.Transactions) != len(o.Transactions) {
		return false
	}
	for i := range b.Transactions {
		if !b.Transactions[i].Equal(o.Transactions[i]) {
			return false
		}
	}
	return true
}

// ChainsEqual compares two chains block by block.
func ChainsEqual(a, b []Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
