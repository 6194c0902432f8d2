// Package service implements usuario administration. Listing is open to
// coordinators; create, update and deactivate are ADMIN only.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"expedientes/internal/platform/metrics"
	"expedientes/internal/policy"
	"expedientes/internal/usuario/models"
	"expedientes/internal/usuario/store"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/platform/audit"
	"expedientes/pkg/requestcontext"
)

// DefaultBcryptCost matches bcrypt.DefaultCost without importing the
// package here.
const DefaultBcryptCost = 10

// AuditPublisher emits audit events for account lifecycle operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store      store.Store
	publisher  AuditPublisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	bcryptCost int
	tracer     trace.Tracer
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

// WithBcryptCost lowers or raises the hashing cost. Tests use the minimum
// cost to stay fast.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("usuario store is required")
	}

	svc := &Service{
		store:      st,
		logger:     slog.Default(),
		bcryptCost: DefaultBcryptCost,
		tracer:     otel.Tracer("expedientes/internal/usuario/service"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Crear registers a new active usuario.
func (s *Service) Crear(ctx context.Context, actor domain.Actor, nombre, correo, password string, rol domain.Rol) (*models.Usuario, error) {
	ctx, span := s.tracer.Start(ctx, "Usuario.Crear")
	defer span.End()

	if err := policy.CanManageUsuarios(actor); err != nil {
		return nil, err
	}

	u, err := models.NewUsuario(nombre, correo, password, rol, s.bcryptCost, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, u); err != nil {
		if dErrors.HasCode(err, dErrors.CodeDuplicate) {
			return nil, err
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save usuario")
	}
	span.SetAttributes(attribute.String("usuario.id", u.ID.String()))

	s.audit(ctx, actor, audit.EventUsuarioCreated, u)
	return u, nil
}

// Obtener returns one active usuario.
func (s *Service) Obtener(ctx context.Context, actor domain.Actor, id domain.UserID) (*models.Usuario, error) {
	ctx, span := s.tracer.Start(ctx, "Usuario.Obtener")
	defer span.End()

	// An actor may always fetch their own record; anything else requires
	// list access.
	if actor.ID != id {
		if err := policy.CanListUsuarios(actor); err != nil {
			return nil, err
		}
	}
	return s.store.FindByID(ctx, id)
}

// Listar returns every active usuario ordered by nombre.
func (s *Service) Listar(ctx context.Context, actor domain.Actor) ([]*models.Usuario, error) {
	ctx, span := s.tracer.Start(ctx, "Usuario.Listar")
	defer span.End()

	if err := policy.CanListUsuarios(actor); err != nil {
		return nil, err
	}
	us, err := s.store.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list usuarios")
	}
	return us, nil
}

// UpdateFields carries a partial usuario update. Nil means leave unchanged.
type UpdateFields struct {
	Nombre   *string
	Correo   *string
	Password *string
	Rol      *domain.Rol
}

// Actualizar applies a partial update to an active usuario.
func (s *Service) Actualizar(ctx context.Context, actor domain.Actor, id domain.UserID, fields UpdateFields) (*models.Usuario, error) {
	ctx, span := s.tracer.Start(ctx, "Usuario.Actualizar")
	defer span.End()
	span.SetAttributes(attribute.String("usuario.id", id.String()))

	if err := policy.CanManageUsuarios(actor); err != nil {
		return nil, err
	}

	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fields.Nombre != nil {
		nombre := strings.TrimSpace(*fields.Nombre)
		if err := models.ValidateNombre(nombre); err != nil {
			return nil, err
		}
		u.Nombre = nombre
	}
	if fields.Correo != nil {
		correo := models.NormalizeCorreo(*fields.Correo)
		if err := models.ValidateCorreo(correo); err != nil {
			return nil, err
		}
		u.Correo = correo
	}
	if fields.Password != nil {
		if err := u.SetPassword(*fields.Password, s.bcryptCost); err != nil {
			return nil, err
		}
	}
	if fields.Rol != nil {
		if !fields.Rol.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "rol must be ADMIN, USER or MODERADOR")
		}
		u.Rol = *fields.Rol
	}
	u.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, u); err != nil {
		if dErrors.HasCode(err, dErrors.CodeDuplicate) || dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update usuario")
	}

	s.audit(ctx, actor, audit.EventUsuarioUpdated, u)
	return u, nil
}

// CambiarPassword rotates an actor's own password after verifying the
// current one. Admins reset other accounts through Actualizar, which skips
// the verification because they never know the old password.
func (s *Service) CambiarPassword(ctx context.Context, actor domain.Actor, id domain.UserID, passwordActual, passwordNueva string) error {
	ctx, span := s.tracer.Start(ctx, "Usuario.CambiarPassword")
	defer span.End()
	span.SetAttributes(attribute.String("usuario.id", id.String()))

	if actor.ID != id {
		return dErrors.New(dErrors.CodeForbidden, "password changes are limited to your own account")
	}

	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.CheckPassword(passwordActual) {
		return dErrors.New(dErrors.CodeValidation, "current password is incorrect")
	}
	if err := u.SetPassword(passwordNueva, s.bcryptCost); err != nil {
		return err
	}
	u.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, u); err != nil {
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to change password")
	}

	s.audit(ctx, actor, audit.EventUsuarioUpdated, u)
	return nil
}

// Eliminar deactivates a usuario. Their expedientes and ledger entries
// survive; they simply can no longer authenticate. Self-deactivation is
// rejected so the last ADMIN cannot lock everyone out by accident.
func (s *Service) Eliminar(ctx context.Context, actor domain.Actor, id domain.UserID) error {
	ctx, span := s.tracer.Start(ctx, "Usuario.Eliminar")
	defer span.End()
	span.SetAttributes(attribute.String("usuario.id", id.String()))

	if err := policy.CanManageUsuarios(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return dErrors.New(dErrors.CodeValidation, "cannot deactivate your own account")
	}

	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	u.IsActive = false
	u.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, u); err != nil {
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate usuario")
	}

	s.audit(ctx, actor, audit.EventUsuarioDeleted, u)
	return nil
}

func (s *Service) audit(ctx context.Context, actor domain.Actor, action audit.AuditEvent, u *models.Usuario) {
	s.logger.InfoContext(ctx, "audit",
		"action", action,
		"usuario_id", u.ID.String(),
		"actor_id", actor.ID.String(),
	)
	if s.publisher == nil {
		return
	}
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    string(action),
		ActorID:   actor.ID,
		Subject:   u.Correo,
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
