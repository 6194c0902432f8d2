package models

import (
	"strings"
	"time"

	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

// Field limits mirror the column widths of the backing schema.
const (
	MaxNumeroExpedienteLen = 50
	MaxDescripcionLen      = 500
	MaxComentariosLen      = 1000
)

// Expediente is the top-level workflow entity: a case file owned by the
// actor who registered it, carrying the review outcome of the most recent
// coordinator decision. Historical decisions live in the revision ledger;
// the fields here are the source of truth for "current" status only.
type Expediente struct {
	ID                  domain.ExpedienteID
	NumeroExpediente    string
	Descripcion         string
	Estado              Estado
	UsuarioRegistroID   domain.UserID
	CoordinadorID       *domain.UserID
	ComentariosRevision string
	FechaRegistro       time.Time
	FechaRevision       *time.Time
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// TotalIndicios is a read-model enrichment populated on listings; it is
	// never written back.
	TotalIndicios int
}

// NewExpediente builds a draft expediente for the given owner. The numero is
// trimmed; uniqueness is the store's concern.
func NewExpediente(numero, descripcion string, owner domain.UserID, now time.Time) (*Expediente, error) {
	numero = strings.TrimSpace(numero)
	if err := ValidateNumeroExpediente(numero); err != nil {
		return nil, err
	}
	if err := ValidateDescripcion(descripcion); err != nil {
		return nil, err
	}
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "usuarioRegistroId is required")
	}
	return &Expediente{
		ID:                domain.NewExpedienteID(),
		NumeroExpediente:  numero,
		Descripcion:       descripcion,
		Estado:            EstadoBorrador,
		UsuarioRegistroID: owner,
		FechaRegistro:     now,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// EsPropietario reports whether the actor registered this expediente.
func (e *Expediente) EsPropietario(actor domain.Actor) bool {
	return e.UsuarioRegistroID == actor.ID
}

// AplicarEnvioARevision moves the expediente into review. Guards are the
// caller's responsibility; this only applies the write.
func (e *Expediente) AplicarEnvioARevision(now time.Time) {
	e.Estado = EstadoEnRevision
	e.UpdatedAt = now
}

// AplicarDecision records a coordinator decision: the new estado, who
// decided, when, and the comments. Comments are overwritten, never
// accumulated, so the expediente always reflects the latest decision.
func (e *Expediente) AplicarDecision(estado Estado, coordinador domain.UserID, comentarios string, now time.Time) {
	e.Estado = estado
	e.CoordinadorID = &coordinador
	e.ComentariosRevision = comentarios
	e.FechaRevision = &now
	e.UpdatedAt = now
}

// ValidateNumeroExpediente enforces presence and length.
func ValidateNumeroExpediente(numero string) error {
	if numero == "" {
		return dErrors.New(dErrors.CodeValidation, "numeroExpediente is required")
	}
	if len(numero) > MaxNumeroExpedienteLen {
		return dErrors.Newf(dErrors.CodeValidation, "numeroExpediente exceeds %d characters", MaxNumeroExpedienteLen)
	}
	return nil
}

// ValidateDescripcion enforces the optional description length.
func ValidateDescripcion(descripcion string) error {
	if len(descripcion) > MaxDescripcionLen {
		return dErrors.Newf(dErrors.CodeValidation, "descripcion exceeds %d characters", MaxDescripcionLen)
	}
	return nil
}

// ValidateComentarios enforces the review comment length.
func ValidateComentarios(comentarios string) error {
	if len(comentarios) > MaxComentariosLen {
		return dErrors.Newf(dErrors.CodeValidation, "comentarios exceeds %d characters", MaxComentariosLen)
	}
	return nil
}
