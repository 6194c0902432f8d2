// Package audit captures structured operational audit events. This stream
// is for monitoring and forensics; the domain's revision ledger remains the
// audit trail of record for coordinator decisions.
package audit

import (
	"time"

	"expedientes/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose, which
// drives retention and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance and long
	// retention: decisions over expedientes, account lifecycle.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events for security monitoring: auth
	// failures, lockouts, denied access.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging;
	// can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It stays
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category     EventCategory
	Timestamp    time.Time
	Action       string
	ActorID      domain.UserID
	ExpedienteID string
	Subject      string
	Decision     string
	Reason       string
	RequestID    string
}

type AuditEvent string

const (
	// Expediente lifecycle
	EventExpedienteCreated   AuditEvent = "expediente_created"
	EventExpedienteUpdated   AuditEvent = "expediente_updated"
	EventExpedienteSubmitted AuditEvent = "expediente_submitted"
	EventExpedienteApproved  AuditEvent = "expediente_approved"
	EventExpedienteRejected  AuditEvent = "expediente_rejected"
	EventExpedienteDeleted   AuditEvent = "expediente_deleted"

	// Indicio lifecycle
	EventIndicioCreated AuditEvent = "indicio_created"
	EventIndicioUpdated AuditEvent = "indicio_updated"
	EventIndicioDeleted AuditEvent = "indicio_deleted"

	// Auth and account events
	EventLoginSucceeded   AuditEvent = "login_succeeded"
	EventLoginFailed      AuditEvent = "login_failed"
	EventLockoutTriggered AuditEvent = "login_lockout_triggered"
	EventUsuarioCreated   AuditEvent = "usuario_created"
	EventUsuarioUpdated   AuditEvent = "usuario_updated"
	EventUsuarioDeleted   AuditEvent = "usuario_deleted"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventExpedienteApproved: CategoryCompliance,
	EventExpedienteRejected: CategoryCompliance,
	EventExpedienteDeleted:  CategoryCompliance,
	EventUsuarioCreated:     CategoryCompliance,
	EventUsuarioDeleted:     CategoryCompliance,

	EventLoginFailed:      CategorySecurity,
	EventLockoutTriggered: CategorySecurity,

	EventExpedienteCreated:   CategoryOperations,
	EventExpedienteUpdated:   CategoryOperations,
	EventExpedienteSubmitted: CategoryOperations,
	EventIndicioCreated:      CategoryOperations,
	EventIndicioUpdated:      CategoryOperations,
	EventIndicioDeleted:      CategoryOperations,
	EventLoginSucceeded:      CategoryOperations,
	EventUsuarioUpdated:      CategoryOperations,
}

// Category returns the event's category, defaulting to operations for
// unknown actions so nothing is dropped on the floor.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}
