package domain

import dErrors "expedientes/pkg/domain-errors"

// Rol is the role attached to an authenticated actor.
//
// Usage: construct via ParseRol at trust boundaries to enforce the allowlist;
// direct casting bypasses validation.
type Rol string

const (
	RolAdmin     Rol = "ADMIN"
	RolUser      Rol = "USER"
	RolModerador Rol = "MODERADOR"
)

// validRoles is the single source of truth for valid roles.
var validRoles = map[Rol]bool{
	RolAdmin:     true,
	RolUser:      true,
	RolModerador: true,
}

// IsValid reports whether the role is one of the supported values.
func (r Rol) IsValid() bool { return validRoles[r] }

// EsCoordinador reports whether the role may approve or reject expedientes.
// ADMIN and MODERADOR act as coordinators; plain USER never does.
func (r Rol) EsCoordinador() bool { return r == RolAdmin || r == RolModerador }

// ParseRol constructs a Rol from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRol(s string) (Rol, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "rol cannot be empty")
	}
	r := Rol(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "rol must be ADMIN, USER or MODERADOR")
	}
	return r, nil
}

// Actor is the authenticated identity a request acts as. Policy decisions
// take an Actor, never raw JWT claims.
type Actor struct {
	ID  UserID
	Rol Rol
}
