// Package handler exposes the ADMIN reporting endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	expmodels "expedientes/internal/expediente/models"
	"expedientes/internal/reportes/service"
	"expedientes/internal/transport/http/shared"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/requestcontext"
)

// Service defines the interface for reporting operations.
type Service interface {
	GenerarResumen(ctx context.Context, actor domain.Actor) (*service.Resumen, error)
	GenerarDetallado(ctx context.Context, actor domain.Actor, filter service.DetalladoFilter) ([]*service.ReporteExpediente, error)
	GenerarCargaPorUsuario(ctx context.Context, actor domain.Actor) ([]*service.CargaUsuario, error)
}

type Handler struct {
	logger   *slog.Logger
	reportes Service
}

func New(reportes Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, reportes: reportes}
}

// Register wires the reporting routes into an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/reportes/estadisticas", h.handleResumen)
	r.Get("/reportes/detallado", h.handleDetallado)
	r.Get("/reportes/usuarios", h.handleCargaUsuarios)
}

type resumenResponse struct {
	TotalExpedientes int            `json:"totalExpedientes"`
	PorEstado        map[string]int `json:"porEstado"`
	TotalIndicios    int            `json:"totalIndicios"`
}

type cargaUsuarioResponse struct {
	UsuarioID   string         `json:"usuarioId"`
	Nombre      string         `json:"nombre,omitempty"`
	Correo      string         `json:"correo,omitempty"`
	Expedientes int            `json:"expedientes"`
	PorEstado   map[string]int `json:"porEstado"`
}

func (h *Handler) handleResumen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	resumen, err := h.reportes.GenerarResumen(ctx, actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	resp := resumenResponse{
		TotalExpedientes: resumen.TotalExpedientes,
		PorEstado:        make(map[string]int, len(resumen.PorEstado)),
		TotalIndicios:    resumen.TotalIndicios,
	}
	for estado, n := range resumen.PorEstado {
		resp.PorEstado[string(estado)] = n
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

type detalladoResponse struct {
	ID                  string     `json:"id"`
	NumeroExpediente    string     `json:"numeroExpediente"`
	Descripcion         string     `json:"descripcion,omitempty"`
	Estado              string     `json:"estado"`
	FechaRegistro       time.Time  `json:"fechaRegistro"`
	FechaRevision       *time.Time `json:"fechaRevision,omitempty"`
	ComentariosRevision string     `json:"comentariosRevision,omitempty"`
	TotalIndicios       int        `json:"totalIndicios"`
	UsuarioRegistroID   string     `json:"usuarioRegistroId"`
	UsuarioNombre       string     `json:"usuarioNombre,omitempty"`
	UsuarioCorreo       string     `json:"usuarioCorreo,omitempty"`
	CoordinadorID       *string    `json:"coordinadorId,omitempty"`
	CoordinadorNombre   string     `json:"coordinadorNombre,omitempty"`
	CoordinadorCorreo   string     `json:"coordinadorCorreo,omitempty"`
}

// handleDetallado accepts optional fechaInicio/fechaFin (YYYY-MM-DD,
// inclusive) and estado query parameters.
func (h *Handler) handleDetallado(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var filter service.DetalladoFilter
	if raw := r.URL.Query().Get("fechaInicio"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "fechaInicio must be YYYY-MM-DD"))
			return
		}
		filter.Desde = &t
	}
	if raw := r.URL.Query().Get("fechaFin"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "fechaFin must be YYYY-MM-DD"))
			return
		}
		// Inclusive upper bound: cover the whole day.
		t = t.Add(24*time.Hour - time.Nanosecond)
		filter.Hasta = &t
	}
	if raw := r.URL.Query().Get("estado"); raw != "" {
		estado, err := expmodels.ParseEstado(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		filter.Estado = &estado
	}

	rows, err := h.reportes.GenerarDetallado(ctx, actor, filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]detalladoResponse, 0, len(rows))
	for _, row := range rows {
		exp := row.Expediente
		resp := detalladoResponse{
			ID:                  exp.ID.String(),
			NumeroExpediente:    exp.NumeroExpediente,
			Descripcion:         exp.Descripcion,
			Estado:              string(exp.Estado),
			FechaRegistro:       exp.FechaRegistro,
			FechaRevision:       exp.FechaRevision,
			ComentariosRevision: exp.ComentariosRevision,
			TotalIndicios:       exp.TotalIndicios,
			UsuarioRegistroID:   exp.UsuarioRegistroID.String(),
			UsuarioNombre:       row.UsuarioNombre,
			UsuarioCorreo:       row.UsuarioCorreo,
			CoordinadorNombre:   row.CoordinadorNombre,
			CoordinadorCorreo:   row.CoordinadorCorreo,
		}
		if exp.CoordinadorID != nil {
			id := exp.CoordinadorID.String()
			resp.CoordinadorID = &id
		}
		out = append(out, resp)
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCargaUsuarios(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	rows, err := h.reportes.GenerarCargaPorUsuario(ctx, actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]cargaUsuarioResponse, 0, len(rows))
	for _, row := range rows {
		resp := cargaUsuarioResponse{
			UsuarioID:   row.UsuarioID.String(),
			Nombre:      row.Nombre,
			Correo:      row.Correo,
			Expedientes: row.Expedientes,
			PorEstado:   make(map[string]int, len(row.PorEstado)),
		}
		for estado, n := range row.PorEstado {
			resp.PorEstado[string(estado)] = n
		}
		out = append(out, resp)
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
