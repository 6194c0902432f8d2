// Package domain holds typed identifiers and shared value types. IDs are
// distinct uuid-backed types so an IndicioID can never be passed where an
// ExpedienteID is expected; Parse* constructors validate external input at
// trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "expedientes/pkg/domain-errors"
)

type (
	// UserID identifies a usuario.
	UserID uuid.UUID
	// ExpedienteID identifies an expediente.
	ExpedienteID uuid.UUID
	// IndicioID identifies an indicio.
	IndicioID uuid.UUID
	// RevisionID identifies a historial de revisión entry.
	RevisionID uuid.UUID
)

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id ExpedienteID) String() string { return uuid.UUID(id).String() }
func (id IndicioID) String() string    { return uuid.UUID(id).String() }
func (id RevisionID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ExpedienteID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id IndicioID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id RevisionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// NewUserID mints a fresh random identifier.
func NewUserID() UserID             { return UserID(uuid.New()) }
func NewExpedienteID() ExpedienteID { return ExpedienteID(uuid.New()) }
func NewIndicioID() IndicioID       { return IndicioID(uuid.New()) }
func NewRevisionID() RevisionID     { return RevisionID(uuid.New()) }

// parseUUID enforces the shared invariant: valid, non-empty, non-nil.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

// ParseExpedienteID constructs an ExpedienteID from external input.
func ParseExpedienteID(s string) (ExpedienteID, error) {
	u, err := parseUUID(s)
	return ExpedienteID(u), err
}

// ParseIndicioID constructs an IndicioID from external input.
func ParseIndicioID(s string) (IndicioID, error) {
	u, err := parseUUID(s)
	return IndicioID(u), err
}

// ParseRevisionID constructs a RevisionID from external input.
func ParseRevisionID(s string) (RevisionID, error) {
	u, err := parseUUID(s)
	return RevisionID(u), err
}
