// Package service implements registration and login. Credential failures
// are reported with one generic message whether the correo is unknown or
// the password wrong, so the endpoint cannot be used to enumerate accounts.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"expedientes/internal/auth/lockout"
	"expedientes/internal/auth/token"
	"expedientes/internal/platform/metrics"
	"expedientes/internal/usuario/models"
	"expedientes/internal/usuario/store"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/platform/audit"
	"expedientes/pkg/requestcontext"
)

// AuditPublisher emits audit events for login activity.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	usuarios   store.Store
	tokens     *token.Service
	lockouts   *lockout.Service
	publisher  AuditPublisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	bcryptCost int
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

// WithLockout enables failure tracking. Without it, failed logins are
// unlimited; only development setups should run that way.
func WithLockout(l *lockout.Service) Option {
	return func(s *Service) { s.lockouts = l }
}

// WithBcryptCost lowers or raises the hashing cost used by registration.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func New(usuarios store.Store, tokens *token.Service, opts ...Option) (*Service, error) {
	if usuarios == nil {
		return nil, fmt.Errorf("usuario store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}

	svc := &Service{
		usuarios:   usuarios,
		tokens:     tokens,
		logger:     slog.Default(),
		tracer:     otel.Tracer("expedientes/internal/auth/service"),
		bcryptCost: 10,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")

// Registrar creates a self-service account and returns a signed token along
// with the usuario, so registration doubles as the first login. An empty rol
// defaults to USER.
func (s *Service) Registrar(ctx context.Context, nombre, correo, password string, rol domain.Rol) (string, *models.Usuario, error) {
	ctx, span := s.tracer.Start(ctx, "Auth.Registrar")
	defer span.End()

	if rol == "" {
		rol = domain.RolUser
	}
	u, err := models.NewUsuario(nombre, correo, password, rol, s.bcryptCost, requestcontext.Now(ctx))
	if err != nil {
		return "", nil, err
	}
	if err := s.usuarios.Save(ctx, u); err != nil {
		return "", nil, err
	}

	signed, err := s.tokens.Generate(u, requestcontext.Now(ctx))
	if err != nil {
		span.RecordError(err)
		return "", nil, err
	}

	s.audit(ctx, audit.EventUsuarioCreated, u.Actor(), u.Correo, "self-registration")
	return signed, u, nil
}

// Login authenticates a correo and password and returns a signed access
// token plus the usuario.
func (s *Service) Login(ctx context.Context, correo, password string) (string, *models.Usuario, error) {
	ctx, span := s.tracer.Start(ctx, "Auth.Login")
	defer span.End()

	correo = models.NormalizeCorreo(correo)
	if correo == "" || password == "" {
		return "", nil, dErrors.New(dErrors.CodeBadRequest, "correo and password are required")
	}

	if s.lockouts != nil {
		if err := s.lockouts.Check(ctx, correo); err != nil {
			return "", nil, err
		}
	}

	u, err := s.usuarios.FindByCorreo(ctx, correo)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.loginFailed(ctx, correo)
			return "", nil, errInvalidCredentials
		}
		span.RecordError(err)
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up usuario")
	}
	if !u.CheckPassword(password) {
		s.loginFailed(ctx, correo)
		return "", nil, errInvalidCredentials
	}

	if s.lockouts != nil {
		if err := s.lockouts.Clear(ctx, correo); err != nil {
			s.logger.ErrorContext(ctx, "failed to clear lockout", "error", err)
		}
	}

	signed, err := s.tokens.Generate(u, requestcontext.Now(ctx))
	if err != nil {
		span.RecordError(err)
		return "", nil, err
	}

	s.audit(ctx, audit.EventLoginSucceeded, u.Actor(), correo, "")
	return signed, u, nil
}

// Me resolves the authenticated actor back to their usuario record.
func (s *Service) Me(ctx context.Context, actor domain.Actor) (*models.Usuario, error) {
	ctx, span := s.tracer.Start(ctx, "Auth.Me")
	defer span.End()

	u, err := s.usuarios.FindByID(ctx, actor.ID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			// The token outlived the account.
			return nil, dErrors.New(dErrors.CodeUnauthorized, "account no longer active")
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) loginFailed(ctx context.Context, correo string) {
	if s.metrics != nil {
		s.metrics.LoginFailures.Inc()
	}
	s.audit(ctx, audit.EventLoginFailed, domain.Actor{}, correo, "invalid credentials")

	if s.lockouts == nil {
		return
	}
	locked, err := s.lockouts.RecordFailure(ctx, correo)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record login failure", "error", err)
		return
	}
	if locked {
		if s.metrics != nil {
			s.metrics.Lockouts.Inc()
		}
		s.audit(ctx, audit.EventLockoutTriggered, domain.Actor{}, correo, "failure threshold reached")
	}
}

func (s *Service) audit(ctx context.Context, action audit.AuditEvent, actor domain.Actor, correo, reason string) {
	if s.publisher == nil {
		return
	}
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    string(action),
		ActorID:   actor.ID,
		Subject:   correo,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
