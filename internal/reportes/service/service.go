// Package service builds the ADMIN reporting views: workload counts by
// estado and by owner. Reports read through the same stores as the workflow
// instead of separate SQL so memory and postgres deployments agree.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	expmodels "expedientes/internal/expediente/models"
	expstore "expedientes/internal/expediente/store"
	"expedientes/internal/policy"
	usuariomodels "expedientes/internal/usuario/models"
	usuariostore "expedientes/internal/usuario/store"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

// IndicioCounter counts active indicios per expediente.
type IndicioCounter interface {
	CountActiveByExpediente(ctx context.Context, expedienteID domain.ExpedienteID) (int, error)
}

// Resumen is the headline report: totals across the whole system.
type Resumen struct {
	TotalExpedientes int
	PorEstado        map[expmodels.Estado]int
	TotalIndicios    int
}

// DetalladoFilter narrows the detailed report. Nil fields mean no filter;
// Desde and Hasta bound FechaRegistro inclusively.
type DetalladoFilter struct {
	Desde  *time.Time
	Hasta  *time.Time
	Estado *expmodels.Estado
}

// ReporteExpediente is one row of the detailed report: the expediente plus
// display fields for the people involved.
type ReporteExpediente struct {
	Expediente        *expmodels.Expediente
	UsuarioNombre     string
	UsuarioCorreo     string
	CoordinadorNombre string
	CoordinadorCorreo string
}

// CargaUsuario is one row of the per-owner workload report.
type CargaUsuario struct {
	UsuarioID   domain.UserID
	Nombre      string
	Correo      string
	Expedientes int
	PorEstado   map[expmodels.Estado]int
}

type Service struct {
	expedientes expstore.Store
	indicios    IndicioCounter
	usuarios    usuariostore.Store
	logger      *slog.Logger
	tracer      trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(expedientes expstore.Store, indicios IndicioCounter, usuarios usuariostore.Store, opts ...Option) (*Service, error) {
	if expedientes == nil {
		return nil, fmt.Errorf("expediente store is required")
	}
	if indicios == nil {
		return nil, fmt.Errorf("indicio counter is required")
	}
	if usuarios == nil {
		return nil, fmt.Errorf("usuario store is required")
	}

	svc := &Service{
		expedientes: expedientes,
		indicios:    indicios,
		usuarios:    usuarios,
		logger:      slog.Default(),
		tracer:      otel.Tracer("expedientes/internal/reportes/service"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// GenerarResumen returns system-wide totals.
func (s *Service) GenerarResumen(ctx context.Context, actor domain.Actor) (*Resumen, error) {
	ctx, span := s.tracer.Start(ctx, "Reportes.GenerarResumen")
	defer span.End()

	if err := policy.CanViewReportes(actor); err != nil {
		return nil, err
	}

	exps, err := s.expedientes.List(ctx, expstore.ListFilter{})
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expedientes")
	}

	resumen := &Resumen{
		TotalExpedientes: len(exps),
		PorEstado:        make(map[expmodels.Estado]int),
	}
	for _, exp := range exps {
		resumen.PorEstado[exp.Estado]++
		count, err := s.indicios.CountActiveByExpediente(ctx, exp.ID)
		if err != nil {
			span.RecordError(err)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count indicios")
		}
		resumen.TotalIndicios += count
	}
	return resumen, nil
}

// GenerarDetallado returns one enriched row per expediente matching the
// filter, with indicio counts and display fields for the registering
// usuario and the deciding coordinador.
func (s *Service) GenerarDetallado(ctx context.Context, actor domain.Actor, filter DetalladoFilter) ([]*ReporteExpediente, error) {
	ctx, span := s.tracer.Start(ctx, "Reportes.GenerarDetallado")
	defer span.End()

	if err := policy.CanViewReportes(actor); err != nil {
		return nil, err
	}

	exps, err := s.expedientes.List(ctx, expstore.ListFilter{})
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expedientes")
	}

	cache := make(map[domain.UserID]*usuariomodels.Usuario)
	out := make([]*ReporteExpediente, 0, len(exps))
	for _, exp := range exps {
		if filter.Desde != nil && exp.FechaRegistro.Before(*filter.Desde) {
			continue
		}
		if filter.Hasta != nil && exp.FechaRegistro.After(*filter.Hasta) {
			continue
		}
		if filter.Estado != nil && exp.Estado != *filter.Estado {
			continue
		}

		count, err := s.indicios.CountActiveByExpediente(ctx, exp.ID)
		if err != nil {
			span.RecordError(err)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count indicios")
		}
		exp.TotalIndicios = count

		row := &ReporteExpediente{Expediente: exp}
		if u, err := s.lookupUsuario(ctx, cache, exp.UsuarioRegistroID); err != nil {
			return nil, err
		} else if u != nil {
			row.UsuarioNombre, row.UsuarioCorreo = u.Nombre, u.Correo
		}
		if exp.CoordinadorID != nil {
			if u, err := s.lookupUsuario(ctx, cache, *exp.CoordinadorID); err != nil {
				return nil, err
			} else if u != nil {
				row.CoordinadorNombre, row.CoordinadorCorreo = u.Nombre, u.Correo
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// lookupUsuario memoizes reads; a deactivated usuario resolves to nil so the
// row keeps its ID but loses display fields.
func (s *Service) lookupUsuario(ctx context.Context, cache map[domain.UserID]*usuariomodels.Usuario, id domain.UserID) (*usuariomodels.Usuario, error) {
	if u, ok := cache[id]; ok {
		return u, nil
	}
	u, err := s.usuarios.FindByID(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			cache[id] = nil
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up usuario")
	}
	cache[id] = u
	return u, nil
}

// GenerarCargaPorUsuario returns the per-owner workload, one row per active
// usuario, including those with no expedientes.
func (s *Service) GenerarCargaPorUsuario(ctx context.Context, actor domain.Actor) ([]*CargaUsuario, error) {
	ctx, span := s.tracer.Start(ctx, "Reportes.GenerarCargaPorUsuario")
	defer span.End()

	if err := policy.CanViewReportes(actor); err != nil {
		return nil, err
	}

	usuarios, err := s.usuarios.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list usuarios")
	}
	exps, err := s.expedientes.List(ctx, expstore.ListFilter{})
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expedientes")
	}

	byOwner := make(map[domain.UserID]*CargaUsuario, len(usuarios))
	out := make([]*CargaUsuario, 0, len(usuarios))
	for _, u := range usuarios {
		row := &CargaUsuario{
			UsuarioID: u.ID,
			Nombre:    u.Nombre,
			Correo:    u.Correo,
			PorEstado: make(map[expmodels.Estado]int),
		}
		byOwner[u.ID] = row
		out = append(out, row)
	}
	for _, exp := range exps {
		row, ok := byOwner[exp.UsuarioRegistroID]
		if !ok {
			// Owner deactivated; their workload still counts under a
			// placeholder row.
			row = &CargaUsuario{
				UsuarioID: exp.UsuarioRegistroID,
				PorEstado: make(map[expmodels.Estado]int),
			}
			byOwner[exp.UsuarioRegistroID] = row
			out = append(out, row)
		}
		row.Expedientes++
		row.PorEstado[exp.Estado]++
	}
	return out, nil
}
