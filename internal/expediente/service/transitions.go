package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"expedientes/internal/expediente/models"
	"expedientes/internal/policy"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/platform/audit"
	"expedientes/pkg/requestcontext"
)

// UpdateFields carries a partial update. Nil means leave unchanged. The
// numeroExpediente is fixed at creation and has no update path.
type UpdateFields struct {
	Descripcion *string
}

// Actualizar edits expediente fields. Owner only, and only while the
// expediente is in an editable estado; the check and the write run under
// the same lock.
func (s *Service) Actualizar(ctx context.Context, actor domain.Actor, id domain.ExpedienteID, fields UpdateFields) (*models.Expediente, error) {
	ctx, span := s.tracer.Start(ctx, "Expediente.Actualizar")
	defer span.End()
	span.SetAttributes(attribute.String("expediente.id", id.String()))

	exp, err := s.store.Execute(ctx, id,
		func(_ context.Context, exp *models.Expediente) error {
			return policy.CanEditExpediente(actor, exp)
		},
		func(_ context.Context, exp *models.Expediente) error {
			if fields.Descripcion != nil {
				if err := models.ValidateDescripcion(*fields.Descripcion); err != nil {
					return err
				}
				exp.Descripcion = *fields.Descripcion
			}
			exp.UpdatedAt = requestcontext.Now(ctx)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, audit.EventExpedienteUpdated, exp, "", "")
	return exp, nil
}

// EnviarARevision submits a draft (or a rejected expediente, after rework)
// for coordinator review. The ≥1 active indicio guard runs inside the same
// atomic unit as the state write: the count a submit observes is the count
// it commits against.
func (s *Service) EnviarARevision(ctx context.Context, actor domain.Actor, id domain.ExpedienteID) (*models.Expediente, error) {
	ctx, span := s.tracer.Start(ctx, "Expediente.EnviarARevision")
	defer span.End()
	span.SetAttributes(attribute.String("expediente.id", id.String()))

	exp, err := s.store.Execute(ctx, id,
		func(txCtx context.Context, exp *models.Expediente) error {
			if err := policy.CanSubmitExpediente(actor, exp); err != nil {
				return err
			}
			count, err := s.indicios.CountActiveByExpediente(txCtx, exp.ID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count indicios")
			}
			if count < 1 {
				return dErrors.New(dErrors.CodeInsufficientIndicios,
					"expediente must have at least one active indicio to enter review")
			}
			return nil
		},
		func(_ context.Context, exp *models.Expediente) error {
			exp.AplicarEnvioARevision(requestcontext.Now(ctx))
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveTransition(string(models.EstadoEnRevision))
	}
	s.audit(ctx, actor, audit.EventExpedienteSubmitted, exp, "", "")
	return exp, nil
}

// Eliminar soft-deletes a draft. The row survives for the uniqueness scope
// and the ledger; it simply stops being visible.
func (s *Service) Eliminar(ctx context.Context, actor domain.Actor, id domain.ExpedienteID) error {
	ctx, span := s.tracer.Start(ctx, "Expediente.Eliminar")
	defer span.End()
	span.SetAttributes(attribute.String("expediente.id", id.String()))

	exp, err := s.store.Execute(ctx, id,
		func(_ context.Context, exp *models.Expediente) error {
			return policy.CanDeleteExpediente(actor, exp)
		},
		func(_ context.Context, exp *models.Expediente) error {
			exp.IsActive = false
			exp.UpdatedAt = requestcontext.Now(ctx)
			return nil
		},
	)
	if err != nil {
		return err
	}

	s.audit(ctx, actor, audit.EventExpedienteDeleted, exp, "", "")
	return nil
}
