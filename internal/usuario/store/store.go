// Package store persists usuarios.
package store

import (
	"context"

	"expedientes/internal/usuario/models"
	"expedientes/pkg/domain"
)

// Store is the persistence contract for usuarios.
type Store interface {
	// Save inserts a new usuario. Returns CodeDuplicate when the correo is
	// already registered to an active usuario.
	Save(ctx context.Context, u *models.Usuario) error

	// FindByID returns the active usuario or CodeNotFound.
	FindByID(ctx context.Context, id domain.UserID) (*models.Usuario, error)

	// FindByCorreo returns the active usuario for a normalized correo or
	// CodeNotFound.
	FindByCorreo(ctx context.Context, correo string) (*models.Usuario, error)

	// List returns every active usuario ordered by nombre.
	List(ctx context.Context) ([]*models.Usuario, error)

	// Update persists a mutated usuario. Returns CodeNotFound when missing
	// or inactive, CodeDuplicate on a correo collision.
	Update(ctx context.Context, u *models.Usuario) error
}
