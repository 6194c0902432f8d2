// Package lockout tracks consecutive login failures per correo and hard
// locks the account for a cooldown once the threshold is hit. Tracking is
// deliberately separate from the usuario record: a lockout is transient
// operational state, not account state.
package lockout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expedientes/internal/platform/config"
	dErrors "expedientes/pkg/domain-errors"
)

// Store persists failure counts and locks. Implementations must expire the
// failure count after the window and the lock after its duration.
type Store interface {
	// RecordFailure increments the failure count and returns the new count.
	// The first failure starts the window.
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)

	// Lock hard-locks the key for the given duration.
	Lock(ctx context.Context, key string, duration time.Duration) error

	// IsLocked reports whether the key is locked and for how much longer.
	IsLocked(ctx context.Context, key string) (bool, time.Duration, error)

	// Clear removes the failure count and any lock.
	Clear(ctx context.Context, key string) error
}

type Service struct {
	store  Store
	cfg    config.LockoutConfig
	logger *slog.Logger
	onLock func()
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithLockCallback registers a hook invoked whenever a lock triggers, used
// for metrics.
func WithLockCallback(fn func()) Option {
	return func(s *Service) { s.onLock = fn }
}

func New(store Store, cfg config.LockoutConfig, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("lockout store is required")
	}
	if cfg.MaxFailures <= 0 {
		return nil, fmt.Errorf("lockout max failures must be positive, got %d", cfg.MaxFailures)
	}

	svc := &Service{
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check fails with CodeForbidden while the correo is locked.
func (s *Service) Check(ctx context.Context, correo string) error {
	locked, remaining, err := s.store.IsLocked(ctx, correo)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check lockout")
	}
	if locked {
		return dErrors.Newf(dErrors.CodeForbidden,
			"account temporarily locked, retry in %d seconds", int(remaining.Seconds()))
	}
	return nil
}

// RecordFailure counts one failed attempt and reports whether it triggered
// a lock.
func (s *Service) RecordFailure(ctx context.Context, correo string) (bool, error) {
	count, err := s.store.RecordFailure(ctx, correo, s.cfg.Window)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}
	if count < s.cfg.MaxFailures {
		return false, nil
	}

	if err := s.store.Lock(ctx, correo, s.cfg.LockDuration); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock account")
	}
	s.logger.WarnContext(ctx, "login lockout triggered",
		"correo", correo,
		"failures", count,
		"duration", s.cfg.LockDuration,
	)
	if s.onLock != nil {
		s.onLock()
	}
	return true, nil
}

// Clear resets the failure count after a successful login.
func (s *Service) Clear(ctx context.Context, correo string) error {
	if err := s.store.Clear(ctx, correo); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear lockout")
	}
	return nil
}
