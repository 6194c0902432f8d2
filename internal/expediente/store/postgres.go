package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"expedientes/internal/expediente/models"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	txcontext "expedientes/pkg/platform/tx"
)

// PostgresStore persists expedientes in PostgreSQL. Execute wraps the guard
// and the write in a single transaction with SELECT ... FOR UPDATE, and
// exposes that transaction to the callbacks through the context so indicio
// counts and ledger appends land in the same atomic unit.
type PostgresStore struct {
	db           *sql.DB
	globalNumero bool
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithGlobalNumeroUnicoPostgres widens numeroExpediente uniqueness to
// include soft-deleted rows.
func WithGlobalNumeroUnicoPostgres() PostgresOption {
	return func(s *PostgresStore) { s.globalNumero = true }
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const expedienteColumns = `
	id, numero_expediente, descripcion, estado, usuario_registro_id,
	coordinador_id, comentarios_revision, fecha_registro, fecha_revision,
	is_active, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, exp *models.Expediente) error {
	dupQuery := `
		SELECT EXISTS (
			SELECT 1 FROM expedientes
			WHERE lower(numero_expediente) = lower($1) AND (is_active OR $2)
		)
	`
	var exists bool
	if err := s.db.QueryRowContext(ctx, dupQuery, exp.NumeroExpediente, s.globalNumero).Scan(&exists); err != nil {
		return fmt.Errorf("check numero uniqueness: %w", err)
	}
	if exists {
		return dErrors.Newf(dErrors.CodeDuplicate,
			"numeroExpediente %q already exists", exp.NumeroExpediente)
	}

	query := `
		INSERT INTO expedientes (` + expedienteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(exp.ID),
		exp.NumeroExpediente,
		exp.Descripcion,
		string(exp.Estado),
		uuid.UUID(exp.UsuarioRegistroID),
		nullableUUID((*uuid.UUID)(exp.CoordinadorID)),
		exp.ComentariosRevision,
		exp.FechaRegistro,
		exp.FechaRevision,
		exp.IsActive,
		exp.CreatedAt,
		exp.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		// 23505: the partial unique index raced our existence check.
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return dErrors.Newf(dErrors.CodeDuplicate,
				"numeroExpediente %q already exists", exp.NumeroExpediente)
		}
		return fmt.Errorf("insert expediente: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ExpedienteID) (*models.Expediente, error) {
	query := `SELECT ` + expedienteColumns + ` FROM expedientes WHERE id = $1 AND is_active`
	exp, err := scanExpediente(s.querier(ctx).QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "expediente not found")
		}
		return nil, fmt.Errorf("get expediente: %w", err)
	}
	return exp, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*models.Expediente, error) {
	query := `
		SELECT ` + expedienteColumns + `
		FROM expedientes
		WHERE is_active AND ($1::uuid IS NULL OR usuario_registro_id = $1)
		ORDER BY fecha_registro DESC
	`
	rows, err := s.db.QueryContext(ctx, query, nullableUUID((*uuid.UUID)(filter.OwnerID)))
	if err != nil {
		return nil, fmt.Errorf("list expedientes: %w", err)
	}
	defer rows.Close()

	var out []*models.Expediente
	for rows.Next() {
		exp, err := scanExpediente(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expediente: %w", err)
		}
		out = append(out, exp)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Execute(ctx context.Context, id domain.ExpedienteID,
	validate func(ctx context.Context, exp *models.Expediente) error,
	mutate func(ctx context.Context, exp *models.Expediente) error,
) (*models.Expediente, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + expedienteColumns + ` FROM expedientes WHERE id = $1 AND is_active FOR UPDATE`
	exp, err := scanExpediente(tx.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "expediente not found")
		}
		return nil, fmt.Errorf("lock expediente: %w", err)
	}

	txCtx := txcontext.WithTx(ctx, tx)
	if validate != nil {
		if err := validate(txCtx, exp); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		if err := mutate(txCtx, exp); err != nil {
			return nil, err
		}
	}

	// numero_expediente is fixed at creation; transitions never touch it.
	update := `
		UPDATE expedientes
		SET descripcion = $2, estado = $3, coordinador_id = $4,
		    comentarios_revision = $5, fecha_revision = $6,
		    is_active = $7, updated_at = $8
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, update,
		uuid.UUID(exp.ID),
		exp.Descripcion,
		string(exp.Estado),
		nullableUUID((*uuid.UUID)(exp.CoordinadorID)),
		exp.ComentariosRevision,
		exp.FechaRevision,
		exp.IsActive,
		exp.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update expediente: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return exp, nil
}

// querier prefers an ambient transaction so FindByID calls made inside
// Execute callbacks see the locked row.
func (s *PostgresStore) querier(ctx context.Context) interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
} {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpediente(row rowScanner) (*models.Expediente, error) {
	var (
		exp           models.Expediente
		id            uuid.UUID
		estado        string
		owner         uuid.UUID
		coordinador   uuid.NullUUID
		descripcion   sql.NullString
		comentarios   sql.NullString
		fechaRevision sql.NullTime
	)
	err := row.Scan(
		&id, &exp.NumeroExpediente, &descripcion, &estado, &owner,
		&coordinador, &comentarios, &exp.FechaRegistro, &fechaRevision,
		&exp.IsActive, &exp.CreatedAt, &exp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	exp.ID = domain.ExpedienteID(id)
	exp.Estado = models.Estado(estado)
	exp.UsuarioRegistroID = domain.UserID(owner)
	exp.Descripcion = descripcion.String
	exp.ComentariosRevision = comentarios.String
	if coordinador.Valid {
		cid := domain.UserID(coordinador.UUID)
		exp.CoordinadorID = &cid
	}
	if fechaRevision.Valid {
		t := fechaRevision.Time
		exp.FechaRevision = &t
	}
	return &exp, nil
}

func nullableUUID(u *uuid.UUID) any {
	if u == nil {
		return nil
	}
	return *u
}
