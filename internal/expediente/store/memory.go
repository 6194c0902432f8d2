package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"expedientes/internal/expediente/models"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

// MemoryStore keeps expedientes in a mutex-guarded map. Execute runs its
// callbacks under the write lock against a copy, so concurrent transitions
// on the same expediente serialize and a failed mutation leaves no trace.
type MemoryStore struct {
	mu           sync.RWMutex
	expedientes  map[domain.ExpedienteID]*models.Expediente
	globalNumero bool
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithGlobalNumeroUnico widens numeroExpediente uniqueness to include
// soft-deleted rows. Default is uniqueness among active rows only.
func WithGlobalNumeroUnico() MemoryOption {
	return func(s *MemoryStore) { s.globalNumero = true }
}

func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{expedientes: make(map[domain.ExpedienteID]*models.Expediente)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Save(_ context.Context, exp *models.Expediente) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.expedientes {
		if !strings.EqualFold(existing.NumeroExpediente, exp.NumeroExpediente) {
			continue
		}
		if existing.IsActive || s.globalNumero {
			return dErrors.Newf(dErrors.CodeDuplicate,
				"numeroExpediente %q already exists", exp.NumeroExpediente)
		}
	}

	cp := *exp
	s.expedientes[exp.ID] = &cp
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.ExpedienteID) (*models.Expediente, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.expedientes[id]
	if !ok || !exp.IsActive {
		return nil, dErrors.New(dErrors.CodeNotFound, "expediente not found")
	}
	cp := *exp
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*models.Expediente, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Expediente, 0, len(s.expedientes))
	for _, exp := range s.expedientes {
		if !exp.IsActive {
			continue
		}
		if filter.OwnerID != nil && exp.UsuarioRegistroID != *filter.OwnerID {
			continue
		}
		cp := *exp
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FechaRegistro.After(out[j].FechaRegistro)
	})
	return out, nil
}

func (s *MemoryStore) Execute(ctx context.Context, id domain.ExpedienteID,
	validate func(ctx context.Context, exp *models.Expediente) error,
	mutate func(ctx context.Context, exp *models.Expediente) error,
) (*models.Expediente, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.expedientes[id]
	if !ok || !stored.IsActive {
		return nil, dErrors.New(dErrors.CodeNotFound, "expediente not found")
	}

	// Work on a copy; the map is only updated when both callbacks succeed.
	cp := *stored
	if validate != nil {
		if err := validate(ctx, &cp); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		if err := mutate(ctx, &cp); err != nil {
			return nil, err
		}
	}

	s.expedientes[id] = &cp

	result := cp
	return &result, nil
}
