// Package ledger keeps the hash-linked chain of bet blocks.
//
// # Lifecycle
//
// A Ledger starts Uninitialized. Initialize restores the chain from the
// store, or writes a genesis block when the store is empty, and moves the
// ledger to Ready. Calling any other method before that panics with
// ErrNotInitialized.
//
//	l := ledger.New(store, ledger.WithLogger(log))
//	if err := l.Initialize(ctx); err != nil {
//	    return err // storage.ErrStoreRead or storage.ErrStoreCorrupt
//	}
//
//	l.AddTransaction(tx)
//	block, err := l.CreateBlock(ctx)
//	if errors.Is(err, storage.ErrStoreWrite) {
//	    // block is committed in memory; the store is behind
//	}
//
// # Chain Rules
//
// Block N has Index N, the first block has PreviousHash "0", every other
// block carries the Hash of the block before it, and every Hash is the
// fingerprint of (Index, PreviousHash, Transactions). Blocks never change
// once appended.
//
// # Persistence
//
// Every block and the genesis block are written as a full chain snapshot.
// Writes go through a persist.Writer, so a slow write never lands after a
// newer one. A failed write leaves the block in memory; the next block,
// Flush or Close rewrites the whole chain.
//
// AddTransaction only accepts transactions that pass
// domain.Transaction.Validate and panics otherwise, so every committed
// block can be reloaded with the same hash.
package ledger
