package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"expedientes/internal/usuario/models"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

// PostgresStore persists usuarios in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const usuarioColumns = `id, nombre, correo, password_hash, rol, is_active, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, u *models.Usuario) error {
	query := `
		INSERT INTO usuarios (` + usuarioColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(u.ID), u.Nombre, u.Correo, u.PasswordHash,
		string(u.Rol), u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return dErrors.Newf(dErrors.CodeDuplicate, "correo %q already registered", u.Correo)
		}
		return fmt.Errorf("insert usuario: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.UserID) (*models.Usuario, error) {
	query := `SELECT ` + usuarioColumns + ` FROM usuarios WHERE id = $1 AND is_active`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
}

func (s *PostgresStore) FindByCorreo(ctx context.Context, correo string) (*models.Usuario, error) {
	query := `SELECT ` + usuarioColumns + ` FROM usuarios WHERE correo = $1 AND is_active`
	return s.scanOne(s.db.QueryRowContext(ctx, query, models.NormalizeCorreo(correo)))
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Usuario, error) {
	query := `SELECT ` + usuarioColumns + ` FROM usuarios WHERE is_active ORDER BY nombre ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list usuarios: %w", err)
	}
	defer rows.Close()

	var out []*models.Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, fmt.Errorf("scan usuario: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, u *models.Usuario) error {
	query := `
		UPDATE usuarios
		SET nombre = $2, correo = $3, password_hash = $4, rol = $5,
		    is_active = $6, updated_at = $7
		WHERE id = $1 AND is_active
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(u.ID), u.Nombre, u.Correo, u.PasswordHash,
		string(u.Rol), u.IsActive, u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return dErrors.Newf(dErrors.CodeDuplicate, "correo %q already registered", u.Correo)
		}
		return fmt.Errorf("update usuario: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update usuario rows affected: %w", err)
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "usuario not found")
	}
	return nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (*models.Usuario, error) {
	u, err := scanUsuario(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "usuario not found")
		}
		return nil, fmt.Errorf("get usuario: %w", err)
	}
	return u, nil
}

func scanUsuario(row interface{ Scan(dest ...any) error }) (*models.Usuario, error) {
	var (
		u   models.Usuario
		id  uuid.UUID
		rol string
	)
	err := row.Scan(&id, &u.Nombre, &u.Correo, &u.PasswordHash, &rol,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.ID = domain.UserID(id)
	u.Rol = domain.Rol(rol)
	return &u, nil
}
