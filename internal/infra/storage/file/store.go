// Package file stores the chain in a single JSON artifact on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/hasher"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage/codec"
)

const fileMode = 0o644

// Store implements storage.ChainStore on a local file. Saves write a
// temporary file in the same directory and rename it over the artifact, so
// readers only ever see a complete chain.
type Store struct {
	path string
	alg  hasher.Algorithm
	mu   sync.Mutex
}

// NewStore creates a store for the artifact at path.
func NewStore(path string, alg hasher.Algorithm) *Store {
	return &Store{path: path, alg: alg}
}

// Path returns the artifact location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the artifact. A missing file yields an empty chain.
func (s *Store) Load(ctx context.Context) ([]domain.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Block{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrStoreRead, err)
	}

	blocks, err := codec.Decode(data, s.alg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return blocks, nil
}

// Save replaces the artifact with chain.
func (s *Store) Save(ctx context.Context, chain []domain.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := codec.Encode(s.alg, chain)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrStoreWrite, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrStoreWrite, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(fileMode); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpName, path); err != nil {
		return err
	}
	syncDir(dir)
	return nil
}

// syncDir makes the rename durable. Some platforms refuse to fsync a
// directory; that is not treated as a failed write.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}
