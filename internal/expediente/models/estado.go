package models

import dErrors "expedientes/pkg/domain-errors"

// Estado is the workflow state of an expediente. Transitions form a small
// DAG with a loop through rejection:
//
//	BORRADOR ──submit──> EN_REVISION ──approve──> APROBADO (terminal)
//	                        │
//	                      reject
//	                        v
//	                    RECHAZADO ──resubmit──> EN_REVISION
//
// Guard methods on Estado are the only place transition legality is encoded;
// services ask the current state, they never compare string literals.
type Estado string

const (
	EstadoBorrador   Estado = "BORRADOR"
	EstadoEnRevision Estado = "EN_REVISION"
	EstadoAprobado   Estado = "APROBADO"
	EstadoRechazado  Estado = "RECHAZADO"
)

var validEstados = map[Estado]bool{
	EstadoBorrador:   true,
	EstadoEnRevision: true,
	EstadoAprobado:   true,
	EstadoRechazado:  true,
}

// IsValid reports whether the value is one of the four workflow states.
func (e Estado) IsValid() bool { return validEstados[e] }

// EsEditable reports whether owner edits (descripcion, indicio CRUD) are
// allowed. Editing reopens after rejection and closes again on submit.
func (e Estado) EsEditable() bool {
	return e == EstadoBorrador || e == EstadoRechazado
}

// PuedeEnviarARevision reports whether a submit/resubmit may leave this
// state. Same set as EsEditable; named separately because the guards are
// distinct rules that happen to coincide.
func (e Estado) PuedeEnviarARevision() bool {
	return e == EstadoBorrador || e == EstadoRechazado
}

// PuedeDecidir reports whether a coordinator decision (approve/reject) may
// consume this state.
func (e Estado) PuedeDecidir() bool { return e == EstadoEnRevision }

// PuedeEliminar reports whether the owner may soft-delete from this state.
// Only drafts can be discarded; anything that entered review stays on record.
func (e Estado) PuedeEliminar() bool { return e == EstadoBorrador }

// EsTerminal reports whether no further transition leaves this state.
func (e Estado) EsTerminal() bool { return e == EstadoAprobado }

// ParseEstado constructs an Estado from external input.
func ParseEstado(s string) (Estado, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "estado cannot be empty")
	}
	e := Estado(s)
	if !e.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown estado %q", s)
	}
	return e, nil
}
