package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"expedientes/internal/revision/models"
	"expedientes/pkg/domain"
	txcontext "expedientes/pkg/platform/tx"
)

// PostgresStore persists the revision ledger in PostgreSQL. Appends join
// the ambient transaction when one is present so a decision's ledger entry
// and state change commit or roll back together. The historial table has no
// UPDATE or DELETE path anywhere in this codebase.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, rec *models.HistorialRevision) error {
	query := `
		INSERT INTO historial_revisiones
			(id, expediente_id, usuario_revisor_id, accion, comentarios, fecha_revision)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(rec.ID),
		uuid.UUID(rec.ExpedienteID),
		uuid.UUID(rec.UsuarioRevisorID),
		string(rec.Accion),
		rec.Comentarios,
		rec.FechaRevision,
	)
	if err != nil {
		return fmt.Errorf("append historial entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByExpediente(ctx context.Context, expedienteID domain.ExpedienteID) ([]*models.HistorialRevision, error) {
	query := `
		SELECT h.id, h.expediente_id, h.usuario_revisor_id, h.accion,
		       h.comentarios, h.fecha_revision,
		       COALESCE(u.nombre, ''), COALESCE(u.correo, ''), COALESCE(u.rol, '')
		FROM historial_revisiones h
		LEFT JOIN usuarios u ON u.id = h.usuario_revisor_id
		WHERE h.expediente_id = $1
		ORDER BY h.fecha_revision ASC
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(expedienteID))
	if err != nil {
		return nil, fmt.Errorf("list historial: %w", err)
	}
	defer rows.Close()

	var out []*models.HistorialRevision
	for rows.Next() {
		var (
			rec          models.HistorialRevision
			id           uuid.UUID
			expID        uuid.UUID
			revisorID    uuid.UUID
			accion       string
			comentarios  sql.NullString
		)
		err := rows.Scan(&id, &expID, &revisorID, &accion, &comentarios,
			&rec.FechaRevision, &rec.RevisorNombre, &rec.RevisorCorreo, &rec.RevisorRol)
		if err != nil {
			return nil, fmt.Errorf("scan historial entry: %w", err)
		}
		rec.ID = domain.RevisionID(id)
		rec.ExpedienteID = domain.ExpedienteID(expID)
		rec.UsuarioRevisorID = domain.UserID(revisorID)
		rec.Accion = models.Accion(accion)
		rec.Comentarios = comentarios.String
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountByExpediente(ctx context.Context, expedienteID domain.ExpedienteID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM historial_revisiones WHERE expediente_id = $1`
	if err := s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(expedienteID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count historial: %w", err)
	}
	return count, nil
}
