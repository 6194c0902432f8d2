// Package store persists indicios. CountActiveByExpediente is the query the
// submit guard depends on; implementations must honor an ambient transaction
// in the context so the count joins the expediente transition's atomic unit.
package store

import (
	"context"

	"expedientes/internal/indicio/models"
	"expedientes/pkg/domain"
)

// Store is the persistence contract for indicios.
type Store interface {
	// Save inserts a new indicio. Returns CodeDuplicate when the
	// numeroIndicio already exists among the parent's active indicios.
	Save(ctx context.Context, ind *models.Indicio) error

	// FindByID returns the active indicio or CodeNotFound.
	FindByID(ctx context.Context, id domain.IndicioID) (*models.Indicio, error)

	// ListByExpediente returns the parent's active indicios, oldest first.
	ListByExpediente(ctx context.Context, expedienteID domain.ExpedienteID) ([]*models.Indicio, error)

	// CountActiveByExpediente returns the number of active indicios.
	CountActiveByExpediente(ctx context.Context, expedienteID domain.ExpedienteID) (int, error)

	// Update persists a mutated indicio. Returns CodeNotFound when the
	// indicio is missing or inactive.
	Update(ctx context.Context, ind *models.Indicio) error
}
