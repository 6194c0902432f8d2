// Package service implements indicio CRUD. Every mutation is gated by the
// parent expediente: owner only, and only while the parent is editable. The
// gate runs inside the parent's Execute primitive so an indicio can never be
// written concurrently with a submit that freezes the parent.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	expmodels "expedientes/internal/expediente/models"
	expstore "expedientes/internal/expediente/store"
	"expedientes/internal/indicio/models"
	"expedientes/internal/indicio/store"
	"expedientes/internal/platform/metrics"
	"expedientes/internal/policy"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/platform/audit"
	"expedientes/pkg/requestcontext"
)

// AuditPublisher emits audit events for indicio operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store       store.Store
	expedientes expstore.Store
	publisher   AuditPublisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
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

func New(st store.Store, expedientes expstore.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("indicio store is required")
	}
	if expedientes == nil {
		return nil, fmt.Errorf("expediente store is required")
	}

	svc := &Service{
		store:       st,
		expedientes: expedientes,
		logger:      slog.Default(),
		tracer:      otel.Tracer("expedientes/internal/indicio/service"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Crear registers a new indicio under an editable expediente.
func (s *Service) Crear(ctx context.Context, actor domain.Actor, expedienteID domain.ExpedienteID, numero string, fields models.Fields) (*models.Indicio, error) {
	ctx, span := s.tracer.Start(ctx, "Indicio.Crear")
	defer span.End()
	span.SetAttributes(attribute.String("expediente.id", expedienteID.String()))

	var created *models.Indicio
	_, err := s.expedientes.Execute(ctx, expedienteID,
		func(_ context.Context, exp *expmodels.Expediente) error {
			return policy.CanEditExpediente(actor, exp)
		},
		func(txCtx context.Context, exp *expmodels.Expediente) error {
			ind, err := models.NewIndicio(exp.ID, numero, fields, actor.ID, requestcontext.Now(ctx))
			if err != nil {
				return err
			}
			if err := s.store.Save(txCtx, ind); err != nil {
				if dErrors.HasCode(err, dErrors.CodeDuplicate) {
					return err
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save indicio")
			}
			created = ind
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IndiciosCreated.Inc()
	}
	s.audit(ctx, actor, audit.EventIndicioCreated, created)
	return created, nil
}

// Obtener returns one indicio if the actor may read its parent.
func (s *Service) Obtener(ctx context.Context, actor domain.Actor, id domain.IndicioID) (*models.Indicio, error) {
	ctx, span := s.tracer.Start(ctx, "Indicio.Obtener")
	defer span.End()

	ind, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.readableParent(ctx, actor, ind.ExpedienteID); err != nil {
		return nil, err
	}
	return ind, nil
}

// ListarPorExpediente returns the parent's active indicios, oldest first.
func (s *Service) ListarPorExpediente(ctx context.Context, actor domain.Actor, expedienteID domain.ExpedienteID) ([]*models.Indicio, error) {
	ctx, span := s.tracer.Start(ctx, "Indicio.ListarPorExpediente")
	defer span.End()
	span.SetAttributes(attribute.String("expediente.id", expedienteID.String()))

	if _, err := s.readableParent(ctx, actor, expedienteID); err != nil {
		return nil, err
	}
	inds, err := s.store.ListByExpediente(ctx, expedienteID)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list indicios")
	}
	return inds, nil
}

// Actualizar applies a partial update. NumeroIndicio never changes.
func (s *Service) Actualizar(ctx context.Context, actor domain.Actor, id domain.IndicioID, fields models.Fields) (*models.Indicio, error) {
	ctx, span := s.tracer.Start(ctx, "Indicio.Actualizar")
	defer span.End()

	ind, err := s.mutate(ctx, actor, id, func(ind *models.Indicio) error {
		return ind.Apply(fields, requestcontext.Now(ctx))
	})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor, audit.EventIndicioUpdated, ind)
	return ind, nil
}

// Eliminar soft-deletes an indicio. The parent must still be editable; a
// frozen expediente keeps its evidence set intact.
func (s *Service) Eliminar(ctx context.Context, actor domain.Actor, id domain.IndicioID) error {
	ctx, span := s.tracer.Start(ctx, "Indicio.Eliminar")
	defer span.End()

	ind, err := s.mutate(ctx, actor, id, func(ind *models.Indicio) error {
		ind.IsActive = false
		ind.UpdatedAt = requestcontext.Now(ctx)
		return nil
	})
	if err != nil {
		return err
	}
	s.audit(ctx, actor, audit.EventIndicioDeleted, ind)
	return nil
}

// mutate runs an indicio write under the parent's lock so the editability
// gate and the write cannot be separated by a concurrent submit.
func (s *Service) mutate(ctx context.Context, actor domain.Actor, id domain.IndicioID, apply func(ind *models.Indicio) error) (*models.Indicio, error) {
	ind, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *models.Indicio
	_, err = s.expedientes.Execute(ctx, ind.ExpedienteID,
		func(_ context.Context, exp *expmodels.Expediente) error {
			return policy.CanEditExpediente(actor, exp)
		},
		func(txCtx context.Context, _ *expmodels.Expediente) error {
			// Re-read under the lock; the first read was only to find the
			// parent.
			current, err := s.store.FindByID(txCtx, id)
			if err != nil {
				return err
			}
			if err := apply(current); err != nil {
				return err
			}
			if err := s.store.Update(txCtx, current); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update indicio")
			}
			updated = current
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) readableParent(ctx context.Context, actor domain.Actor, expedienteID domain.ExpedienteID) (*expmodels.Expediente, error) {
	exp, err := s.expedientes.FindByID(ctx, expedienteID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReadExpediente(actor, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *Service) audit(ctx context.Context, actor domain.Actor, action audit.AuditEvent, ind *models.Indicio) {
	s.logger.InfoContext(ctx, "audit",
		"action", action,
		"indicio_id", ind.ID.String(),
		"expediente_id", ind.ExpedienteID.String(),
		"actor_id", actor.ID.String(),
	)
	if s.publisher == nil {
		return
	}
	event := audit.Event{
		Timestamp:    requestcontext.Now(ctx),
		Action:       string(action),
		ActorID:      actor.ID,
		ExpedienteID: ind.ExpedienteID.String(),
		Subject:      ind.NumeroIndicio,
		RequestID:    requestcontext.RequestID(ctx),
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
