package lockout

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count       int
	windowEnds  time.Time
	lockedUntil time.Time
}

// MemoryStore tracks failures in process memory. Windows and locks expire
// lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// WithClock overrides the clock for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) RecordFailure(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[key]
	if !ok || now.After(entry.windowEnds) {
		entry = &memoryEntry{windowEnds: now.Add(window)}
		s.entries[key] = entry
	}
	entry.count++
	return entry.count, nil
}

func (s *MemoryStore) Lock(_ context.Context, key string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		entry = &memoryEntry{}
		s.entries[key] = entry
	}
	entry.lockedUntil = s.now().Add(duration)
	return nil
}

func (s *MemoryStore) IsLocked(_ context.Context, key string) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return false, 0, nil
	}
	remaining := entry.lockedUntil.Sub(s.now())
	if remaining <= 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
