package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"holiday-viewer/internal/model"
)

// LocalStore keeps snapshots as JSON files below a directory.
type LocalStore struct {
	dir string
	mu  sync.RWMutex
}

// NewLocal creates a LocalStore rooted at dir.
func NewLocal(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes the snapshot to a temporary file and renames it into place,
// so readers never see a partial snapshot.
func (s *LocalStore) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(snap.Query)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot %s: %w", SnapshotKey(snap.Query), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", SnapshotKey(snap.Query), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming snapshot %s: %w", SnapshotKey(snap.Query), err)
	}
	return nil
}

func (s *LocalStore) Load(ctx context.Context, q model.Query) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.path(q))
	s.mu.RUnlock()

	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, SnapshotKey(q))
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot %s: %w", SnapshotKey(q), err)
	}
	return decodeSnapshot(q, data)
}

func (s *LocalStore) path(q model.Query) string {
	return filepath.Join(s.dir, filepath.FromSlash(SnapshotKey(q))+".json")
}
