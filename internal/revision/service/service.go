// Package service implements coordinator decisions over expedientes under
// review, and reads of the resulting ledger. A decision is one atomic unit:
// the estado write on the expediente and the ledger append commit together
// or not at all.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	expmodels "expedientes/internal/expediente/models"
	expstore "expedientes/internal/expediente/store"
	"expedientes/internal/platform/metrics"
	"expedientes/internal/policy"
	"expedientes/internal/revision/models"
	"expedientes/internal/revision/store"
	usuariostore "expedientes/internal/usuario/store"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/platform/audit"
	"expedientes/pkg/requestcontext"
)

// AuditPublisher emits audit events for decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	expedientes expstore.Store
	ledger      store.Store
	usuarios    usuariostore.Store
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

// WithUsuarioStore enables revisor enrichment on historial reads.
func WithUsuarioStore(usuarios usuariostore.Store) Option {
	return func(s *Service) { s.usuarios = usuarios }
}

func New(expedientes expstore.Store, ledger store.Store, opts ...Option) (*Service, error) {
	if expedientes == nil {
		return nil, fmt.Errorf("expediente store is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("revision store is required")
	}

	svc := &Service{
		expedientes: expedientes,
		ledger:      ledger,
		logger:      slog.Default(),
		tracer:      otel.Tracer("expedientes/internal/revision/service"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Aprobar approves an expediente under review. Comments are optional.
func (s *Service) Aprobar(ctx context.Context, actor domain.Actor, id domain.ExpedienteID, comentarios string) (*expmodels.Expediente, error) {
	return s.decidir(ctx, actor, id, models.AccionAprobado, comentarios)
}

// Rechazar rejects an expediente under review. Comments are mandatory: the
// owner needs to know what to fix, so a reject without them never reaches
// the state machine and never touches the ledger.
func (s *Service) Rechazar(ctx context.Context, actor domain.Actor, id domain.ExpedienteID, comentarios string) (*expmodels.Expediente, error) {
	if strings.TrimSpace(comentarios) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "comentarios are required to reject an expediente")
	}
	return s.decidir(ctx, actor, id, models.AccionRechazado, comentarios)
}

func (s *Service) decidir(ctx context.Context, actor domain.Actor, id domain.ExpedienteID, accion models.Accion, comentarios string) (*expmodels.Expediente, error) {
	ctx, span := s.tracer.Start(ctx, "Revision.Decidir")
	defer span.End()
	span.SetAttributes(
		attribute.String("expediente.id", id.String()),
		attribute.String("revision.accion", string(accion)),
	)

	if err := expmodels.ValidateComentarios(comentarios); err != nil {
		return nil, err
	}

	destino := expmodels.EstadoAprobado
	if accion == models.AccionRechazado {
		destino = expmodels.EstadoRechazado
	}
	now := requestcontext.Now(ctx)

	exp, err := s.expedientes.Execute(ctx, id,
		func(_ context.Context, exp *expmodels.Expediente) error {
			return policy.CanDecideExpediente(actor, exp)
		},
		func(txCtx context.Context, exp *expmodels.Expediente) error {
			exp.AplicarDecision(destino, actor.ID, comentarios, now)
			// The append rides the transition's transaction: a failed
			// append aborts the decision, so there is exactly one ledger
			// entry per committed decision.
			rec := models.NewHistorialRevision(exp.ID, actor.ID, accion, comentarios, now)
			if err := s.ledger.Append(txCtx, rec); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append revision")
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveTransition(string(destino))
		s.metrics.ObserveDecision(string(accion))
	}

	action := audit.EventExpedienteApproved
	if accion == models.AccionRechazado {
		action = audit.EventExpedienteRejected
	}
	s.audit(ctx, actor, action, exp, string(accion), comentarios)
	return exp, nil
}

// Historial returns the expediente's decision ledger, oldest first, with
// revisor details resolved when a usuario store is wired.
func (s *Service) Historial(ctx context.Context, actor domain.Actor, id domain.ExpedienteID) ([]*models.HistorialRevision, error) {
	ctx, span := s.tracer.Start(ctx, "Revision.Historial")
	defer span.End()
	span.SetAttributes(attribute.String("expediente.id", id.String()))

	exp, err := s.expedientes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReadHistorial(actor, exp); err != nil {
		return nil, err
	}

	recs, err := s.ledger.ListByExpediente(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list revisiones")
	}
	s.enrich(ctx, recs)
	return recs, nil
}

// enrich resolves revisor display fields. A revisor deactivated after the
// decision still appears in history; only the display fields go missing.
func (s *Service) enrich(ctx context.Context, recs []*models.HistorialRevision) {
	if s.usuarios == nil {
		return
	}
	cache := make(map[domain.UserID]*struct{ nombre, correo, rol string })
	for _, rec := range recs {
		if rec.RevisorNombre != "" {
			continue
		}
		info, ok := cache[rec.UsuarioRevisorID]
		if !ok {
			u, err := s.usuarios.FindByID(ctx, rec.UsuarioRevisorID)
			if err != nil {
				cache[rec.UsuarioRevisorID] = nil
				continue
			}
			info = &struct{ nombre, correo, rol string }{u.Nombre, u.Correo, string(u.Rol)}
			cache[rec.UsuarioRevisorID] = info
		}
		if info != nil {
			rec.RevisorNombre = info.nombre
			rec.RevisorCorreo = info.correo
			rec.RevisorRol = info.rol
		}
	}
}

func (s *Service) audit(ctx context.Context, actor domain.Actor, action audit.AuditEvent, exp *expmodels.Expediente, decision, reason string) {
	s.logger.InfoContext(ctx, "audit",
		"action", action,
		"expediente_id", exp.ID.String(),
		"actor_id", actor.ID.String(),
		"decision", decision,
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
