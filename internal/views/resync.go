package views

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Resyncer is anything that can rebuild itself from external state.
type Resyncer interface {
	Resync()
}

// Sweeper periodically forces every registered channel to reconcile, which
// repairs messages edited or deleted outside the service.
type Sweeper struct {
	cron *cron.Cron

	mu      sync.Mutex
	targets map[string]Resyncer
}

// NewSweeper schedules sweeps with a cron spec such as "@every 6h" or "0 */6 * * *".
func NewSweeper(spec string) (*Sweeper, error) {
	s := &Sweeper{
		cron:    cron.New(),
		targets: map[string]Resyncer{},
	}
	if _, err := s.cron.AddFunc(spec, s.Sweep); err != nil {
		return nil, fmt.Errorf("invalid resync schedule %q: %w", spec, err)
	}
	return s, nil
}

// Register adds or replaces a target under key.
func (s *Sweeper) Register(key string, r Resyncer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[key] = r
}

func (s *Sweeper) Unregister(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.targets, key)
}

// Sweep requests a resync from every target.
func (s *Sweeper) Sweep() {
	s.mu.Lock()
	targets := make([]Resyncer, 0, len(s.targets))
	for _, r := range s.targets {
		targets = append(targets, r)
	}
	s.mu.Unlock()

	slog.Info("[Views] Resync sweep", "channels", len(targets))
	for _, r := range targets {
		r.Resync()
	}
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop halts scheduling and waits for a running sweep.
func (s *Sweeper) Stop() { <-s.cron.Stop().Done() }
