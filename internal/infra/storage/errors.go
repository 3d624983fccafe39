package storage

import "errors"

var (
	// ErrStoreRead is returned when the artifact exists but cannot be read.
	ErrStoreRead = errors.New("ledger store unreadable")

	// ErrStoreCorrupt is returned when the artifact cannot be decoded into
	// valid blocks.
	ErrStoreCorrupt = errors.New("ledger store corrupt")

	// ErrStoreWrite is returned when the chain could not be persisted.
	ErrStoreWrite = errors.New("ledger store write failed")
)
