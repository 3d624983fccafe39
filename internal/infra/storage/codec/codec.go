// Package codec encodes the chain artifact shared by the file and Redis
// stores: an indented JSON envelope carrying a format version, the hash
// algorithm the blocks were fingerprinted with and the ordered blocks.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/hasher"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage"
)

// Version is the artifact format written by Encode.
const Version = 1

// Envelope is the on-disk layout.
type Envelope struct {
	Version       int              `json:"version"`
	HashAlgorithm hasher.Algorithm `json:"hash_algorithm"`
	Blocks        []domain.Block   `json:"blocks"`
}

type envelopeIn struct {
	Version       int              `json:"version"`
	HashAlgorithm hasher.Algorithm `json:"hash_algorithm"`
	Blocks        *[]domain.Block  `json:"blocks"`
}

// Encode renders chain as an artifact.
func Encode(alg hasher.Algorithm, chain []domain.Block) ([]byte, error) {
	blocks := chain
	if blocks == nil {
		blocks = []domain.Block{}
	}
	data, err := json.MarshalIndent(Envelope{
		Version:       Version,
		HashAlgorithm: alg,
		Blocks:        blocks,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode chain: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses an artifact written with alg. Every failure wraps
// storage.ErrStoreCorrupt.
func Decode(data []byte, alg hasher.Algorithm) ([]domain.Block, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty artifact", storage.ErrStoreCorrupt)
	}

	var env envelopeIn
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrStoreCorrupt, err)
	}
	if env.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", storage.ErrStoreCorrupt, env.Version)
	}
	if env.HashAlgorithm != alg {
		return nil, fmt.Errorf(
			"%w: artifact hashed with %q, ledger configured for %q",
			storage.ErrStoreCorrupt, env.HashAlgorithm, alg,
		)
	}
	if env.Blocks == nil {
		return nil, fmt.Errorf("%w: missing blocks", storage.ErrStoreCorrupt)
	}

	blocks := *env.Blocks
	if err := ValidateShape(blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// ValidateShape checks each block in isolation; linkage is the ledger's
// job. Errors wrap storage.ErrStoreCorrupt.
func ValidateShape(blocks []domain.Block) error {
	for i := range blocks {
		if err := validateBlock(&blocks[i]); err != nil {
			return fmt.Errorf("%w: block at position %d: %w", storage.ErrStoreCorrupt, i, err)
		}
	}
	return nil
}

func validateBlock(b *domain.Block) error {
	if b.Index == 0 {
		return errors.New("index must be positive")
	}
	if b.Hash == "" {
		return errors.New("missing hash")
	}
	if b.PreviousHash == "" {
		return errors.New("missing previous hash")
	}
	if b.Transactions == nil {
		b.Transactions = []domain.Transaction{}
	}
	if !domain.ValidTimestamp(b.Timestamp) {
		return fmt.Errorf("timestamp %s: %w", b.Timestamp, domain.ErrTimestampRange)
	}
	for j, tx := range b.Transactions {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", j, err)
		}
	}
	return nil
}
