package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"expedientes/internal/indicio/models"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	txcontext "expedientes/pkg/platform/tx"
)

// PostgresStore persists indicios in PostgreSQL. Every query goes through
// the ambient transaction when one is present, so counts performed inside
// an expediente transition observe the locked state.
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

const indicioColumns = `
	id, expediente_id, numero_indicio, descripcion, color, tamano, peso,
	ubicacion, observaciones, usuario_registro_id, is_active, created_at,
	updated_at`

func (s *PostgresStore) Save(ctx context.Context, ind *models.Indicio) error {
	dupQuery := `
		SELECT EXISTS (
			SELECT 1 FROM indicios
			WHERE expediente_id = $1 AND lower(numero_indicio) = lower($2) AND is_active
		)
	`
	var exists bool
	if err := s.q(ctx).QueryRowContext(ctx, dupQuery, uuid.UUID(ind.ExpedienteID), ind.NumeroIndicio).Scan(&exists); err != nil {
		return fmt.Errorf("check numero indicio uniqueness: %w", err)
	}
	if exists {
		return dErrors.Newf(dErrors.CodeDuplicate,
			"numeroIndicio %q already exists in this expediente", ind.NumeroIndicio)
	}

	query := `
		INSERT INTO indicios (` + indicioColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(ind.ID),
		uuid.UUID(ind.ExpedienteID),
		ind.NumeroIndicio,
		ind.Descripcion,
		ind.Color,
		ind.Tamano,
		ind.Peso,
		ind.Ubicacion,
		ind.Observaciones,
		uuid.UUID(ind.UsuarioRegistroID),
		ind.IsActive,
		ind.CreatedAt,
		ind.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return dErrors.Newf(dErrors.CodeDuplicate,
				"numeroIndicio %q already exists in this expediente", ind.NumeroIndicio)
		}
		return fmt.Errorf("insert indicio: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.IndicioID) (*models.Indicio, error) {
	query := `SELECT ` + indicioColumns + ` FROM indicios WHERE id = $1 AND is_active`
	ind, err := scanIndicio(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "indicio not found")
		}
		return nil, fmt.Errorf("get indicio: %w", err)
	}
	return ind, nil
}

func (s *PostgresStore) ListByExpediente(ctx context.Context, expedienteID domain.ExpedienteID) ([]*models.Indicio, error) {
	query := `
		SELECT ` + indicioColumns + `
		FROM indicios
		WHERE expediente_id = $1 AND is_active
		ORDER BY created_at ASC
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(expedienteID))
	if err != nil {
		return nil, fmt.Errorf("list indicios: %w", err)
	}
	defer rows.Close()

	var out []*models.Indicio
	for rows.Next() {
		ind, err := scanIndicio(rows)
		if err != nil {
			return nil, fmt.Errorf("scan indicio: %w", err)
		}
		out = append(out, ind)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountActiveByExpediente(ctx context.Context, expedienteID domain.ExpedienteID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM indicios WHERE expediente_id = $1 AND is_active`
	if err := s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(expedienteID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count indicios: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Update(ctx context.Context, ind *models.Indicio) error {
	query := `
		UPDATE indicios
		SET descripcion = $2, color = $3, tamano = $4, peso = $5,
		    ubicacion = $6, observaciones = $7, is_active = $8, updated_at = $9
		WHERE id = $1 AND is_active
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(ind.ID),
		ind.Descripcion,
		ind.Color,
		ind.Tamano,
		ind.Peso,
		ind.Ubicacion,
		ind.Observaciones,
		ind.IsActive,
		ind.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update indicio: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update indicio rows affected: %w", err)
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "indicio not found")
	}
	return nil
}

func scanIndicio(row interface{ Scan(dest ...any) error }) (*models.Indicio, error) {
	var (
		ind           models.Indicio
		id            uuid.UUID
		expedienteID  uuid.UUID
		owner         uuid.UUID
		color         sql.NullString
		tamano        sql.NullString
		peso          sql.NullFloat64
		ubicacion     sql.NullString
		observaciones sql.NullString
	)
	err := row.Scan(
		&id, &expedienteID, &ind.NumeroIndicio, &ind.Descripcion, &color,
		&tamano, &peso, &ubicacion, &observaciones, &owner, &ind.IsActive,
		&ind.CreatedAt, &ind.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ind.ID = domain.IndicioID(id)
	ind.ExpedienteID = domain.ExpedienteID(expedienteID)
	ind.UsuarioRegistroID = domain.UserID(owner)
	ind.Color = color.String
	ind.Tamano = tamano.String
	ind.Ubicacion = ubicacion.String
	ind.Observaciones = observaciones.String
	if peso.Valid {
		p := peso.Float64
		ind.Peso = &p
	}
	return &ind, nil
}
