package store

import (
	"context"
	"sort"
	"sync"

	"expedientes/internal/usuario/models"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

// MemoryStore keeps usuarios in a mutex-guarded map.
type MemoryStore struct {
	mu       sync.RWMutex
	usuarios map[domain.UserID]*models.Usuario
}

func NewMemory() *MemoryStore {
	return &MemoryStore{usuarios: make(map[domain.UserID]*models.Usuario)}
}

func (s *MemoryStore) Save(_ context.Context, u *models.Usuario) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.correoTaken(u.Correo, u.ID) {
		return dErrors.Newf(dErrors.CodeDuplicate, "correo %q already registered", u.Correo)
	}
	cp := *u
	s.usuarios[u.ID] = &cp
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.UserID) (*models.Usuario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usuarios[id]
	if !ok || !u.IsActive {
		return nil, dErrors.New(dErrors.CodeNotFound, "usuario not found")
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) FindByCorreo(_ context.Context, correo string) (*models.Usuario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	correo = models.NormalizeCorreo(correo)
	for _, u := range s.usuarios {
		if u.IsActive && u.Correo == correo {
			cp := *u
			return &cp, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "usuario not found")
}

func (s *MemoryStore) List(_ context.Context) ([]*models.Usuario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Usuario, 0, len(s.usuarios))
	for _, u := range s.usuarios {
		if u.IsActive {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, u *models.Usuario) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.usuarios[u.ID]
	if !ok || !existing.IsActive {
		return dErrors.New(dErrors.CodeNotFound, "usuario not found")
	}
	if s.correoTaken(u.Correo, u.ID) {
		return dErrors.Newf(dErrors.CodeDuplicate, "correo %q already registered", u.Correo)
	}
	cp := *u
	s.usuarios[u.ID] = &cp
	return nil
}

// correoTaken must be called with the lock held.
func (s *MemoryStore) correoTaken(correo string, self domain.UserID) bool {
	for _, u := range s.usuarios {
		if u.ID != self && u.IsActive && u.Correo == correo {
			return true
		}
	}
	return false
}
