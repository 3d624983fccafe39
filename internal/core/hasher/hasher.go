// Package hasher computes block fingerprints over a frozen canonical
// encoding. Fingerprints give tamper evidence for the chain; nothing is
// signed, so a writer with file access can still rewrite history.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
)

// Algorithm names a supported digest.
type Algorithm string

const (
	SHA256     Algorithm = "sha256"
	Blake2b256 Algorithm = "blake2b-256"
)

// ErrUnknownAlgorithm is returned for an unsupported algorithm name.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// ParseAlgorithm validates an algorithm name. Empty selects SHA256.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "", SHA256:
		return SHA256, nil
	case Blake2b256:
		return Blake2b256, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Hasher fingerprints blocks with a fixed algorithm.
type Hasher struct {
	alg     Algorithm
	newHash func() hash.Hash
}

// New returns a Hasher for alg.
func New(alg Algorithm) (*Hasher, error) {
	switch alg {
	case SHA256:
		return &Hasher{alg: alg, newHash: sha256.New}, nil
	case Blake2b256:
		return &Hasher{alg: alg, newHash: newBlake2b256}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, alg)
}

// Default returns the SHA-256 hasher.
func Default() *Hasher {
	return &Hasher{alg: SHA256, newHash: sha256.New}
}

// Algorithm returns the digest this hasher produces.
func (h *Hasher) Algorithm() Algorithm {
	return h.alg
}

// Fingerprint returns the hex digest of the canonical encoding of
// (index, previousHash, txs).
func (h *Hasher) Fingerprint(index uint64, previousHash string, txs []domain.Transaction) string {
	d := h.newHash()
	d.Write(Canonical(index, previousHash, txs))
	return hex.EncodeToString(d.Sum(nil))
}

// BlockHash recomputes the fingerprint from a block's stored fields.
func (h *Hasher) BlockHash(b domain.Block) string {
	return h.Fingerprint(b.Index, b.PreviousHash, b.Transactions)
}

func newBlake2b256() hash.Hash {
	// Only fails for keys longer than 64 bytes.
	d, _ := blake2b.New256(nil)
	return d
}
