package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"expedientes/internal/indicio/models"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

// MemoryStore keeps indicios in a mutex-guarded map.
type MemoryStore struct {
	mu       sync.RWMutex
	indicios map[domain.IndicioID]*models.Indicio
}

func NewMemory() *MemoryStore {
	return &MemoryStore{indicios: make(map[domain.IndicioID]*models.Indicio)}
}

func (s *MemoryStore) Save(_ context.Context, ind *models.Indicio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.indicios {
		if existing.ExpedienteID == ind.ExpedienteID &&
			existing.IsActive &&
			strings.EqualFold(existing.NumeroIndicio, ind.NumeroIndicio) {
			return dErrors.Newf(dErrors.CodeDuplicate,
				"numeroIndicio %q already exists in this expediente", ind.NumeroIndicio)
		}
	}

	cp := *ind
	s.indicios[ind.ID] = &cp
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.IndicioID) (*models.Indicio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ind, ok := s.indicios[id]
	if !ok || !ind.IsActive {
		return nil, dErrors.New(dErrors.CodeNotFound, "indicio not found")
	}
	cp := *ind
	return &cp, nil
}

func (s *MemoryStore) ListByExpediente(_ context.Context, expedienteID domain.ExpedienteID) ([]*models.Indicio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Indicio
	for _, ind := range s.indicios {
		if ind.ExpedienteID == expedienteID && ind.IsActive {
			cp := *ind
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CountActiveByExpediente(_ context.Context, expedienteID domain.ExpedienteID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, ind := range s.indicios {
		if ind.ExpedienteID == expedienteID && ind.IsActive {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Update(_ context.Context, ind *models.Indicio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.indicios[ind.ID]
	if !ok || !existing.IsActive {
		return dErrors.New(dErrors.CodeNotFound, "indicio not found")
	}
	cp := *ind
	s.indicios[ind.ID] = &cp
	return nil
}
