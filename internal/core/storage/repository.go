package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fireteam-lab/fireteam/internal/event"
)

// Snapshot is the full event collection of one guild.
type Snapshot map[event.ID]*event.Event

// Store persists whole-collection snapshots. Save must be atomic: a reader
// never observes a partially written snapshot.
type Store interface {
	// Load returns the last saved snapshot, or an empty one if nothing was saved.
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
	// Delete drops everything stored for the guild.
	Delete(ctx context.Context) error
}

// Encode serializes a snapshot as a JSON object keyed by event id.
func Encode(snapshot Snapshot) ([]byte, error) {
	if snapshot == nil {
		snapshot = Snapshot{}
	}
	b, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// Decode parses the output of Encode. Empty input yields an empty snapshot.
func Decode(b []byte) (Snapshot, error) {
	snapshot := Snapshot{}
	if len(b) == 0 {
		return snapshot, nil
	}
	if err := json.Unmarshal(b, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	for id, e := range snapshot {
		if e == nil || e.ID != id {
			return nil, fmt.Errorf("decode snapshot: entry %s does not match its key", id)
		}
	}
	return snapshot, nil
}

// Clone copies the map. Events are shared since they are immutable once stored.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, e := range s {
		out[id] = e
	}
	return out
}
