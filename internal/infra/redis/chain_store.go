package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/hasher"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage/codec"
)

// ChainStore implements storage.ChainStore by keeping the whole artifact
// under one key. The head hash is written alongside in the same MULTI so
// other tools can watch the tip without decoding the chain.
type ChainStore struct {
	client *Client
	alg    hasher.Algorithm
}

// NewChainStore creates a Redis-backed chain store.
func NewChainStore(client *Client, alg hasher.Algorithm) *ChainStore {
	return &ChainStore{client: client, alg: alg}
}

// Load reads the chain. A missing key is an empty chain.
func (s *ChainStore) Load(ctx context.Context) ([]domain.Block, error) {
	data, err := s.client.rdb.Get(ctx, s.client.chainKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.Block{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get chain: %w", storage.ErrStoreRead, err)
	}

	chain, err := codec.Decode(data, s.alg)
	if err != nil {
		return nil, fmt.Errorf("redis key %s: %w", s.client.chainKey(), err)
	}
	return chain, nil
}

// Save replaces the stored chain.
func (s *ChainStore) Save(ctx context.Context, chain []domain.Block) error {
	data, err := codec.Encode(s.alg, chain)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrStoreWrite, err)
	}

	_, err = s.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.client.chainKey(), data, 0)
		if n := len(chain); n > 0 {
			pipe.HSet(ctx, s.client.headKey(),
				"index", chain[n-1].Index,
				"hash", chain[n-1].Hash,
			)
		} else {
			pipe.Del(ctx, s.client.headKey())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: failed to set chain: %w", storage.ErrStoreWrite, err)
	}
	return nil
}

// Head returns the index and hash of the stored tip, zero values when the
// chain is empty.
func (s *ChainStore) Head(ctx context.Context) (uint64, string, error) {
	var head struct {
		Index uint64 `redis:"index"`
		Hash  string `redis:"hash"`
	}
	if err := s.client.rdb.HGetAll(ctx, s.client.headKey()).Scan(&head); err != nil {
		return 0, "", fmt.Errorf("%w: failed to get head: %w", storage.ErrStoreRead, err)
	}
	return head.Index, head.Hash, nil
}
