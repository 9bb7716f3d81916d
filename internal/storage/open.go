package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Kind names a Store backend.
type Kind string

const (
	KindMemory Kind = "memory"
	KindSQLite Kind = "sqlite"
	KindBolt   Kind = "bolt"
)

var ErrUnknownKind = errors.New("unknown storage kind")

// Opener creates a fresh, empty Store for one decrypt attempt.
type Opener func(ctx context.Context) (Store, error)

// NewOpener returns an Opener for kind. File backends create a private
// directory under scratchDir per Store and remove it on Close; an empty
// scratchDir means os.TempDir().
func NewOpener(kind Kind, scratchDir string) (Opener, error) {
	switch kind {
	case KindMemory, "":
		return func(ctx context.Context) (Store, error) { return NewMemory(), nil }, nil
	case KindSQLite:
		return func(ctx context.Context) (Store, error) {
			return openScratch(scratchDir, "vault.db", func(path string) (Store, error) {
				return OpenSQLite(ctx, path)
			})
		}, nil
	case KindBolt:
		return func(ctx context.Context) (Store, error) {
			return openScratch(scratchDir, "vault.bolt", func(path string) (Store, error) {
				return OpenBolt(path)
			})
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func openScratch(scratchDir, name string, open func(path string) (Store, error)) (Store, error) {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	if err := os.MkdirAll(scratchDir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", scratchDir, err)
	}
	dir, err := os.MkdirTemp(scratchDir, "attempt-*")
	if err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}

	s, err := open(filepath.Join(dir, name))
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return &scratchStore{Store: s, dir: dir}, nil
}

// scratchStore deletes its backing directory on Close.
type scratchStore struct {
	Store
	dir string
}

func (s *scratchStore) Close() error {
	return errors.Join(s.Store.Close(), os.RemoveAll(s.dir))
}
