// Package policy centralizes authorization for the workflow. Every entry
// point asks these predicates instead of re-checking roles inline, so the
// rules cannot drift between handlers.
//
// All checks fail closed: a nil return is the only proof of permission.
// Identity failures (wrong actor or role) come back as CodeForbidden;
// timing failures (right actor, wrong estado) come back as CodeInvalidState
// so callers can tell "never" from "not now".
package policy

import (
	"expedientes/internal/expediente/models"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

var errForbidden = dErrors.New(dErrors.CodeForbidden, "forbidden")

// CanCreateExpediente allows any authenticated actor with a valid role.
func CanCreateExpediente(actor domain.Actor) error {
	if actor.ID.IsNil() || !actor.Rol.IsValid() {
		return errForbidden
	}
	return nil
}

// CanReadExpediente grants coordinators access to everything and owners
// access to their own expedientes.
func CanReadExpediente(actor domain.Actor, exp *models.Expediente) error {
	if actor.Rol.EsCoordinador() {
		return nil
	}
	if exp.EsPropietario(actor) {
		return nil
	}
	return errForbidden
}

// CanEditExpediente allows field edits and indicio CRUD: owner only, and
// only while the expediente is editable. Ownership alone is insufficient
// once the expediente entered review or was approved.
func CanEditExpediente(actor domain.Actor, exp *models.Expediente) error {
	if !exp.EsPropietario(actor) {
		return errForbidden
	}
	if !exp.Estado.EsEditable() {
		return dErrors.Newf(dErrors.CodeInvalidState,
			"expediente in estado %s cannot be edited", exp.Estado)
	}
	return nil
}

// CanSubmitExpediente allows submit/resubmit: owner only, from an editable
// state. The ≥1 active indicio guard is data-dependent and enforced by the
// service inside the same atomic unit as the state write.
func CanSubmitExpediente(actor domain.Actor, exp *models.Expediente) error {
	if !exp.EsPropietario(actor) {
		return errForbidden
	}
	if !exp.Estado.PuedeEnviarARevision() {
		return dErrors.Newf(dErrors.CodeInvalidState,
			"expediente in estado %s cannot be submitted for review", exp.Estado)
	}
	return nil
}

// CanDecideExpediente allows approve/reject: coordinators only, and only
// while the expediente is under review. Note the deliberate gap: a
// coordinator who owns the expediente may still decide on it.
func CanDecideExpediente(actor domain.Actor, exp *models.Expediente) error {
	if !actor.Rol.EsCoordinador() {
		return errForbidden
	}
	if !exp.Estado.PuedeDecidir() {
		return dErrors.Newf(dErrors.CodeInvalidState,
			"expediente in estado %s cannot be reviewed", exp.Estado)
	}
	return nil
}

// CanDeleteExpediente allows soft-delete: owner only, drafts only.
func CanDeleteExpediente(actor domain.Actor, exp *models.Expediente) error {
	if !exp.EsPropietario(actor) {
		return errForbidden
	}
	if !exp.Estado.PuedeEliminar() {
		return dErrors.Newf(dErrors.CodeInvalidState,
			"expediente in estado %s cannot be deleted", exp.Estado)
	}
	return nil
}

// CanReadHistorial mirrors expediente read access.
func CanReadHistorial(actor domain.Actor, exp *models.Expediente) error {
	return CanReadExpediente(actor, exp)
}

// VeTodosLosExpedientes reports whether listings show every expediente
// (coordinators) or only the actor's own (USER).
func VeTodosLosExpedientes(actor domain.Actor) bool {
	return actor.Rol.EsCoordinador()
}

// CanManageUsuarios gates usuario create/update/delete.
func CanManageUsuarios(actor domain.Actor) error {
	if actor.Rol != domain.RolAdmin {
		return errForbidden
	}
	return nil
}

// CanListUsuarios gates usuario listings and lookups.
func CanListUsuarios(actor domain.Actor) error {
	if actor.Rol.EsCoordinador() {
		return nil
	}
	return errForbidden
}

// CanViewReportes gates the reporting endpoints.
func CanViewReportes(actor domain.Actor) error {
	if actor.Rol != domain.RolAdmin {
		return errForbidden
	}
	return nil
}
