package reader

import (
	"context"
	"sync"
)

// Snapshot is a point-in-time copy of a Slot.
type Snapshot[T any] struct {
	Data    *T
	Err     error
	Loading bool
}

// Slot holds the latest result of a read. Loads may overlap; whichever
// finishes last decides the stored value. A failed load keeps the previous
// data and records the error.
type Slot[T any] struct {
	mu       sync.Mutex
	data     *T
	err      error
	inflight int
}

// Load runs fetch and stores its outcome. It never returns the fetch error
// directly; callers read it from the snapshot.
func (s *Slot[T]) Load(ctx context.Context, fetch func(context.Context) (*T, error)) Snapshot[T] {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()

	data, err := fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if err != nil {
		s.err = err
	} else {
		s.data, s.err = data, nil
	}
	return s.snapshotLocked()
}

// Get returns the current state.
func (s *Slot[T]) Get() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Slot[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{Data: s.data, Err: s.err, Loading: s.inflight > 0}
}
