// Package models defines the append-only revision ledger entry. The ledger
// is an audit trail of coordinator decisions; it is never read back to
// reconstruct current state, which lives on the expediente itself.
package models

import (
	"time"

	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

// Accion is the decision recorded in a ledger entry.
type Accion string

const (
	AccionAprobado  Accion = "APROBADO"
	AccionRechazado Accion = "RECHAZADO"
	// AccionSolicitadoCambios exists in the stored schema for forward
	// compatibility; no current operation emits it.
	AccionSolicitadoCambios Accion = "SOLICITADO_CAMBIOS"
)

var validAcciones = map[Accion]bool{
	AccionAprobado:          true,
	AccionRechazado:         true,
	AccionSolicitadoCambios: true,
}

// IsValid reports whether the value is a known accion.
func (a Accion) IsValid() bool { return validAcciones[a] }

// ParseAccion constructs an Accion from external input.
func ParseAccion(s string) (Accion, error) {
	a := Accion(s)
	if !a.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown accion %q", s)
	}
	return a, nil
}

// HistorialRevision is one immutable ledger entry. Once appended it is
// never mutated or deleted.
type HistorialRevision struct {
	ID               domain.RevisionID
	ExpedienteID     domain.ExpedienteID
	UsuarioRevisorID domain.UserID
	Accion           Accion
	Comentarios      string
	FechaRevision    time.Time

	// Revisor* are read-model enrichments resolved from the usuario store
	// for history display; they are never persisted on the entry.
	RevisorNombre string
	RevisorCorreo string
	RevisorRol    string
}

// NewHistorialRevision builds a ledger entry for a decision taken now.
func NewHistorialRevision(expedienteID domain.ExpedienteID, revisor domain.UserID, accion Accion, comentarios string, now time.Time) *HistorialRevision {
	return &HistorialRevision{
		ID:               domain.NewRevisionID(),
		ExpedienteID:     expedienteID,
		UsuarioRevisorID: revisor,
		Accion:           accion,
		Comentarios:      comentarios,
		FechaRevision:    now,
	}
}
