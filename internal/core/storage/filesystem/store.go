package filesystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fireteam-lab/fireteam/internal/core/storage"
	"github.com/gofrs/flock"
)

const (
	snapshotFile = "events.json"
	lockFile     = ".lock"
)

// ErrLocked is returned when another process holds the guild directory.
var ErrLocked = errors.New("store directory is locked by another process")

// Store keeps a guild's snapshot as a JSON file. The directory is held under
// an exclusive file lock for the lifetime of the Store.
type Store struct {
	dir  string
	lock *flock.Flock
	mu   sync.Mutex
}

var _ storage.Store = (*Store)(nil)

// Open creates dir if needed and takes its lock.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %q: %w", dir, err)
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock store directory %q: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}

	slog.Info("[FileStore] Opened store", "dir", dir)
	return &Store{dir: dir, lock: lock}, nil
}

// Dir is the directory backing the store.
func (s *Store) Dir() string { return s.dir }

func (s *Store) Load(_ context.Context) (storage.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, snapshotFile))
	if errors.Is(err, os.ErrNotExist) {
		return storage.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return storage.Decode(b)
}

// Save writes to a temp file in the same directory and renames it over the
// snapshot, so the previous snapshot survives a failed write.
func (s *Store) Save(_ context.Context, snapshot storage.Snapshot) error {
	b, err := storage.Encode(snapshot)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, snapshotFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, snapshotFile)); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot and releases the directory.
func (s *Store) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock store directory: %w", err)
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove store directory: %w", err)
	}
	slog.Info("[FileStore] Deleted store", "dir", s.dir)
	return nil
}

// Close releases the directory lock.
func (s *Store) Close() error {
	return s.lock.Unlock()
}
