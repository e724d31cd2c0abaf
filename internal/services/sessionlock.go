package services

import (
	"sync"

	"github.com/google/uuid"
)

// sessionLocks serializes turns for the same session while leaving other
// sessions free to proceed. Entries are refcounted so idle sessions do not
// accumulate locks.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sessionLockEntry
}

type sessionLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[uuid.UUID]*sessionLockEntry)}
}

func (s *sessionLocks) Lock(sessionID uuid.UUID) {
	s.mu.Lock()
	entry, ok := s.locks[sessionID]
	if !ok {
		entry = &sessionLockEntry{}
		s.locks[sessionID] = entry
	}
	entry.refs++
	s.mu.Unlock()

	entry.mu.Lock()
}

func (s *sessionLocks) Unlock(sessionID uuid.UUID) {
	s.mu.Lock()
	entry := s.locks[sessionID]
	entry.refs--
	if entry.refs == 0 {
		delete(s.locks, sessionID)
	}
	s.mu.Unlock()

	entry.mu.Unlock()
}
