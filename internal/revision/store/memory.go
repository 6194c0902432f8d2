package store

import (
	"context"
	"sort"
	"sync"

	"expedientes/internal/revision/models"
	"expedientes/pkg/domain"
)

// MemoryStore keeps ledger entries in a mutex-guarded slice per expediente.
// Entries are copied on the way in and out so callers can never mutate a
// stored record.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.ExpedienteID][]*models.HistorialRevision
}

func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[domain.ExpedienteID][]*models.HistorialRevision)}
}

func (s *MemoryStore) Append(_ context.Context, rec *models.HistorialRevision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.entries[rec.ExpedienteID] = append(s.entries[rec.ExpedienteID], &cp)
	return nil
}

func (s *MemoryStore) ListByExpediente(_ context.Context, expedienteID domain.ExpedienteID) ([]*models.HistorialRevision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.entries[expedienteID]
	out := make([]*models.HistorialRevision, 0, len(stored))
	for _, rec := range stored {
		cp := *rec
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FechaRevision.Before(out[j].FechaRevision)
	})
	return out, nil
}

func (s *MemoryStore) CountByExpediente(_ context.Context, expedienteID domain.ExpedienteID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[expedienteID]), nil
}
