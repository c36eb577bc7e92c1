package genstore

import (
	"context"
	"sync"
	"time"
)

type localGenEntry struct {
	Gen       uint64
	UpdatedAt time.Time
}

// LocalGenStore keeps generations in-process (default).
// An optional cleanup loop prunes entries not bumped within retention; a
// pruned key reads as generation 0 again, which only matters for entries
// older than retention, and those have long expired from the provider.
// Pinned keys (the namespace epoch) are never pruned.
type LocalGenStore struct {
	mu     sync.RWMutex
	gens   map[string]localGenEntry
	pinned map[string]struct{}

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ GenStore = (*LocalGenStore)(nil)

func NewLocalGenStore(cleanupInterval, retention time.Duration) *LocalGenStore {
	s := &LocalGenStore{gens: make(map[string]localGenEntry), pinned: make(map[string]struct{})}
	if cleanupInterval > 0 && retention > 0 {
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go s.cleanupLoop(cleanupInterval, retention)
	}
	return s
}

func (s *LocalGenStore) cleanupLoop(every, retention time.Duration) {
	defer s.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Cleanup(retention)
		case <-s.stopCh:
			return
		}
	}
}

func (s *LocalGenStore) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	e := s.gens[k]
	s.mu.RUnlock()
	return e.Gen, nil
}

func (s *LocalGenStore) Bump(_ context.Context, k string) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	e := s.gens[k]
	e.Gen++
	e.UpdatedAt = now
	s.gens[k] = e
	s.mu.Unlock()
	return e.Gen, nil
}

// Pin exempts key from Cleanup. The key does not need to exist yet.
func (s *LocalGenStore) Pin(key string) {
	s.mu.Lock()
	s.pinned[key] = struct{}{}
	s.mu.Unlock()
}

func (s *LocalGenStore) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	for k, e := range s.gens {
		if _, keep := s.pinned[k]; keep {
			continue
		}
		if e.UpdatedAt.Before(cutoff) {
			delete(s.gens, k)
		}
	}
	s.mu.Unlock()
}

func (s *LocalGenStore) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.wg.Wait()
		}
	})
	return nil
}
