// Package models defines the indicio (evidence item) entity. An indicio
// belongs to exactly one expediente and every mutation is gated by the
// parent's estado; that gate lives in the policy/service layers, the model
// only knows its own field constraints.
package models

import (
	"math"
	"strings"
	"time"

	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

// Field limits mirror the column widths of the backing schema.
const (
	MaxNumeroIndicioLen = 50
	MaxDescripcionLen   = 500
	MaxColorLen         = 50
	MaxTamanoLen        = 100
	MaxUbicacionLen     = 255
	MaxObservacionesLen = 1000
)

// Indicio is an evidence item. NumeroIndicio is unique within the parent
// expediente and immutable after creation.
type Indicio struct {
	ID                domain.IndicioID
	ExpedienteID      domain.ExpedienteID
	NumeroIndicio     string
	Descripcion       string
	Color             string
	Tamano            string
	Peso              *float64
	Ubicacion         string
	Observaciones     string
	UsuarioRegistroID domain.UserID
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Fields carries the mutable attributes for creation and partial update.
// On update a nil pointer means "leave unchanged".
type Fields struct {
	Descripcion   *string
	Color         *string
	Tamano        *string
	Peso          *float64
	Ubicacion     *string
	Observaciones *string
}

// NewIndicio builds an active indicio for the given parent. The caller has
// already verified the parent is editable by this actor.
func NewIndicio(expedienteID domain.ExpedienteID, numero string, fields Fields, registradoPor domain.UserID, now time.Time) (*Indicio, error) {
	numero = strings.TrimSpace(numero)
	if numero == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "numeroIndicio is required")
	}
	if len(numero) > MaxNumeroIndicioLen {
		return nil, dErrors.Newf(dErrors.CodeValidation, "numeroIndicio exceeds %d characters", MaxNumeroIndicioLen)
	}
	if fields.Descripcion == nil || strings.TrimSpace(*fields.Descripcion) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "descripcion is required")
	}

	ind := &Indicio{
		ID:                domain.NewIndicioID(),
		ExpedienteID:      expedienteID,
		NumeroIndicio:     numero,
		UsuarioRegistroID: registradoPor,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := ind.Apply(fields, now); err != nil {
		return nil, err
	}
	return ind, nil
}

// Apply validates and applies a partial field replacement. NumeroIndicio is
// deliberately absent: it never changes after creation.
func (i *Indicio) Apply(fields Fields, now time.Time) error {
	if err := fields.Validate(); err != nil {
		return err
	}
	if fields.Descripcion != nil {
		i.Descripcion = *fields.Descripcion
	}
	if fields.Color != nil {
		i.Color = *fields.Color
	}
	if fields.Tamano != nil {
		i.Tamano = *fields.Tamano
	}
	if fields.Peso != nil {
		i.Peso = fields.Peso
	}
	if fields.Ubicacion != nil {
		i.Ubicacion = *fields.Ubicacion
	}
	if fields.Observaciones != nil {
		i.Observaciones = *fields.Observaciones
	}
	i.UpdatedAt = now
	return nil
}

// Validate checks every supplied field against its constraint. Peso, when
// present, must be a finite positive value.
func (f Fields) Validate() error {
	if f.Descripcion != nil {
		d := strings.TrimSpace(*f.Descripcion)
		if d == "" {
			return dErrors.New(dErrors.CodeValidation, "descripcion cannot be empty")
		}
		if len(d) > MaxDescripcionLen {
			return dErrors.Newf(dErrors.CodeValidation, "descripcion exceeds %d characters", MaxDescripcionLen)
		}
	}
	if f.Color != nil && len(*f.Color) > MaxColorLen {
		return dErrors.Newf(dErrors.CodeValidation, "color exceeds %d characters", MaxColorLen)
	}
	if f.Tamano != nil && len(*f.Tamano) > MaxTamanoLen {
		return dErrors.Newf(dErrors.CodeValidation, "tamano exceeds %d characters", MaxTamanoLen)
	}
	if f.Peso != nil {
		p := *f.Peso
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return dErrors.New(dErrors.CodeValidation, "peso must be a finite value greater than zero")
		}
	}
	if f.Ubicacion != nil && len(*f.Ubicacion) > MaxUbicacionLen {
		return dErrors.Newf(dErrors.CodeValidation, "ubicacion exceeds %d characters", MaxUbicacionLen)
	}
	if f.Observaciones != nil && len(*f.Observaciones) > MaxObservacionesLen {
		return dErrors.Newf(dErrors.CodeValidation, "observaciones exceeds %d characters", MaxObservacionesLen)
	}
	return nil
}
