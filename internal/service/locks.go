package service

import "sync"

// SongLocks serialises mutating operations per contract ID. Operations on
// different songs never contend; two writers on the same song queue up here
// before their database transaction begins, so lock acquisition order and
// transaction order agree. The ownership and distribution services share one
// instance.
type SongLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSongLocks creates an empty lock registry.
func NewSongLocks() *SongLocks {
	return &SongLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for one contract, creating it on first use.
// Lock entries are never removed; the set of contracts is small and bounded.
func (s *SongLocks) Lock(contractID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[contractID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[contractID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
