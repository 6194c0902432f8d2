// Package store persists expedientes. Two implementations ship: an
// in-memory store for tests and single-node development, and a PostgreSQL
// store for production. Both enforce the same contract so services never
// care which one they hold.
package store

import (
	"context"

	"expedientes/internal/expediente/models"
	"expedientes/pkg/domain"
)

// ListFilter narrows List results. A nil OwnerID lists every active
// expediente; a set OwnerID lists only that usuario's.
type ListFilter struct {
	OwnerID *domain.UserID
}

// Store is the persistence contract for expedientes.
//
// Execute is the atomicity primitive for state transitions (guard and write
// indivisible, per the concurrency model): it loads the expediente, holds it
// exclusively, runs validate then mutate, and persists the result only when
// both succeed. The ctx handed to the callbacks carries the store's
// transaction where the backend has one, so reads performed inside the
// callbacks (indicio counts, ledger appends) join the same atomic unit.
type Store interface {
	// Save inserts a new expediente. Returns CodeDuplicate when the
	// numeroExpediente already exists in the configured uniqueness scope.
	Save(ctx context.Context, exp *models.Expediente) error

	// FindByID returns the active expediente or CodeNotFound.
	FindByID(ctx context.Context, id domain.ExpedienteID) (*models.Expediente, error)

	// List returns active expedientes matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*models.Expediente, error)

	// Execute applies validate then mutate atomically against the
	// expediente. Returns CodeNotFound when the expediente is missing or
	// inactive; any callback error aborts without persisting.
	Execute(ctx context.Context, id domain.ExpedienteID,
		validate func(ctx context.Context, exp *models.Expediente) error,
		mutate func(ctx context.Context, exp *models.Expediente) error,
	) (*models.Expediente, error)
}
