package memory

import (
	"context"
	"sync"

	"github.com/fireteam-lab/fireteam/internal/core/storage"
)

// Store keeps the last saved snapshot in memory. Used for tests and for
// running without durable storage.
type Store struct {
	mu       sync.Mutex
	snapshot storage.Snapshot
	saves    int
	saveErr  error
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{snapshot: storage.Snapshot{}}
}

func (s *Store) Load(_ context.Context) (storage.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone(), nil
}

func (s *Store) Save(_ context.Context, snapshot storage.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snapshot = snapshot.Clone()
	s.saves++
	return nil
}

func (s *Store) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = storage.Snapshot{}
	return nil
}

// Saves counts successful Save calls.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// FailSaves makes subsequent saves return err. Pass nil to recover.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}
