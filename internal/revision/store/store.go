// Package store persists the revision ledger. The ledger is append-only:
// the contract exposes no update or delete. Append must honor an ambient
// transaction so the entry commits atomically with the expediente's state
// change.
package store

import (
	"context"

	"expedientes/internal/revision/models"
	"expedientes/pkg/domain"
)

// Store is the persistence contract for the revision ledger.
type Store interface {
	// Append writes one immutable ledger entry.
	Append(ctx context.Context, rec *models.HistorialRevision) error

	// ListByExpediente returns the expediente's ledger ordered by
	// fechaRevision ascending.
	ListByExpediente(ctx context.Context, expedienteID domain.ExpedienteID) ([]*models.HistorialRevision, error)

	// CountByExpediente returns the number of ledger entries.
	CountByExpediente(ctx context.Context, expedienteID domain.ExpedienteID) (int, error)
}
