// Package models defines the usuario entity and its credential handling.
// Password hashes never leave this package as anything but opaque bytes.
package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

const (
	MinNombreLen   = 2
	MaxNombreLen   = 100
	MaxCorreoLen   = 255
	MinPasswordLen = 6
)

// Usuario is an account that can authenticate and act in the workflow.
type Usuario struct {
	ID           domain.UserID
	Nombre       string
	Correo       string
	PasswordHash []byte
	Rol          domain.Rol
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUsuario builds an active usuario with a freshly hashed password.
func NewUsuario(nombre, correo, password string, rol domain.Rol, bcryptCost int, now time.Time) (*Usuario, error) {
	nombre = strings.TrimSpace(nombre)
	correo = NormalizeCorreo(correo)
	if err := ValidateNombre(nombre); err != nil {
		return nil, err
	}
	if err := ValidateCorreo(correo); err != nil {
		return nil, err
	}
	if !rol.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "rol must be ADMIN, USER or MODERADOR")
	}

	u := &Usuario{
		ID:        domain.NewUserID(),
		Nombre:    nombre,
		Correo:    correo,
		Rol:       rol,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.SetPassword(password, bcryptCost); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword validates and hashes a new password.
func (u *Usuario) SetPassword(password string, cost int) error {
	if len(password) < MinPasswordLen {
		return dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", MinPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword reports whether the supplied password matches the stored
// hash. It never reveals why a mismatch happened.
func (u *Usuario) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}

// Actor converts the usuario to the identity used by policy checks.
func (u *Usuario) Actor() domain.Actor {
	return domain.Actor{ID: u.ID, Rol: u.Rol}
}

// NormalizeCorreo lowercases and trims an email address so lookups are
// case-insensitive.
func NormalizeCorreo(correo string) string {
	return strings.ToLower(strings.TrimSpace(correo))
}

// ValidateNombre enforces the display name length.
func ValidateNombre(nombre string) error {
	if len(nombre) < MinNombreLen || len(nombre) > MaxNombreLen {
		return dErrors.Newf(dErrors.CodeValidation,
			"nombre must be between %d and %d characters", MinNombreLen, MaxNombreLen)
	}
	return nil
}

// ValidateCorreo enforces a minimal well-formedness check; real mailbox
// verification belongs to an out-of-band flow.
func ValidateCorreo(correo string) error {
	if correo == "" {
		return dErrors.New(dErrors.CodeValidation, "correo is required")
	}
	if len(correo) > MaxCorreoLen {
		return dErrors.Newf(dErrors.CodeValidation, "correo exceeds %d characters", MaxCorreoLen)
	}
	at := strings.Index(correo, "@")
	if at <= 0 || at == len(correo)-1 || !strings.Contains(correo[at+1:], ".") {
		return dErrors.New(dErrors.CodeValidation, "correo must be a valid email address")
	}
	return nil
}
