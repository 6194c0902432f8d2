// Package service implements the expediente workflow operations. All
// authorization goes through the policy package and every state transition
// runs inside the store's Execute primitive so guard and write cannot be
// separated by a concurrent request.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"expedientes/internal/expediente/models"
	"expedientes/internal/expediente/store"
	"expedientes/internal/platform/metrics"
	"expedientes/internal/policy"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/platform/audit"
	"expedientes/pkg/requestcontext"
)

// IndicioCounter is the slice of the indicio store the workflow needs: the
// submit guard and listing enrichment only ever count.
type IndicioCounter interface {
	CountActiveByExpediente(ctx context.Context, expedienteID domain.ExpedienteID) (int, error)
}

// AuditPublisher emits audit events for workflow operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store     store.Store
	indicios  IndicioCounter
	publisher AuditPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(st store.Store, indicios IndicioCounter, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("expediente store is required")
	}
	if indicios == nil {
		return nil, fmt.Errorf("indicio counter is required")
	}

	svc := &Service{
		store:    st,
		indicios: indicios,
		logger:   slog.Default(),
		tracer:   otel.Tracer("expedientes/internal/expediente/service"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Crear registers a new draft expediente owned by the actor.
func (s *Service) Crear(ctx context.Context, actor domain.Actor, numero, descripcion string) (*models.Expediente, error) {
	ctx, span := s.tracer.Start(ctx, "Expediente.Crear")
	defer span.End()

	if err := policy.CanCreateExpediente(actor); err != nil {
		return nil, err
	}

	exp, err := models.NewExpediente(numero, descripcion, actor.ID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, exp); err != nil {
		if dErrors.HasCode(err, dErrors.CodeDuplicate) {
			return nil, err
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save expediente")
	}
	span.SetAttributes(attribute.String("expediente.id", exp.ID.String()))

	if s.metrics != nil {
		s.metrics.ExpedientesCreated.Inc()
	}
	s.audit(ctx, actor, audit.EventExpedienteCreated, exp, "", "")
	return exp, nil
}

// Obtener returns one expediente, enriched with its indicio count, if the
// actor may see it.
func (s *Service) Obtener(ctx context.Context, actor domain.Actor, id domain.ExpedienteID) (*models.Expediente, error) {
	ctx, span := s.tracer.Start(ctx, "Expediente.Obtener")
	defer span.End()

	exp, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReadExpediente(actor, exp); err != nil {
		return nil, err
	}

	count, err := s.indicios.CountActiveByExpediente(ctx, exp.ID)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count indicios")
	}
	exp.TotalIndicios = count
	return exp, nil
}

// Listar returns expedientes visible to the actor: coordinators see every
// active expediente, a USER sees only their own. Each result carries its
// active indicio count.
func (s *Service) Listar(ctx context.Context, actor domain.Actor) ([]*models.Expediente, error) {
	ctx, span := s.tracer.Start(ctx, "Expediente.Listar")
	defer span.End()

	var filter store.ListFilter
	if !policy.VeTodosLosExpedientes(actor) {
		owner := actor.ID
		filter.OwnerID = &owner
	}

	exps, err := s.store.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expedientes")
	}
	for _, exp := range exps {
		count, err := s.indicios.CountActiveByExpediente(ctx, exp.ID)
		if err != nil {
			span.RecordError(err)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count indicios")
		}
		exp.TotalIndicios = count
	}
	span.SetAttributes(attribute.Int("expedientes.count", len(exps)))
	return exps, nil
}

// audit logs the action and hands it to the publisher when one is wired.
// Audit failures never fail the operation that triggered them.
func (s *Service) audit(ctx context.Context, actor domain.Actor, action audit.AuditEvent, exp *models.Expediente, decision, reason string) {
	s.logger.InfoContext(ctx, "audit",
		"action", action,
		"expediente_id", exp.ID.String(),
		"actor_id", actor.ID.String(),
	)
	if s.publisher == nil {
		return
	}
	event := audit.Event{
		Timestamp:    requestcontext.Now(ctx),
		Action:       string(action),
		ActorID:      actor.ID,
		ExpedienteID: exp.ID.String(),
		Subject:      exp.NumeroExpediente,
		Decision:     decision,
		Reason:       reason,
		RequestID:    requestcontext.RequestID(ctx),
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
