// Package handler exposes the expediente workflow over HTTP. Handlers stay
// thin: decode, resolve the actor, delegate, encode.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"expedientes/internal/expediente/models"
	"expedientes/internal/expediente/service"
	"expedientes/internal/transport/http/shared"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/requestcontext"
)

// Service defines the interface for expediente operations.
type Service interface {
	Crear(ctx context.Context, actor domain.Actor, numero, descripcion string) (*models.Expediente, error)
	Obtener(ctx context.Context, actor domain.Actor, id domain.ExpedienteID) (*models.Expediente, error)
	Listar(ctx context.Context, actor domain.Actor) ([]*models.Expediente, error)
	Actualizar(ctx context.Context, actor domain.Actor, id domain.ExpedienteID, fields service.UpdateFields) (*models.Expediente, error)
	EnviarARevision(ctx context.Context, actor domain.Actor, id domain.ExpedienteID) (*models.Expediente, error)
	Eliminar(ctx context.Context, actor domain.Actor, id domain.ExpedienteID) error
}

type Handler struct {
	logger      *slog.Logger
	expedientes Service
}

func New(expedientes Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, expedientes: expedientes}
}

// Register wires the expediente routes into an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/expedientes", h.handleListar)
	r.Post("/expedientes", h.handleCrear)
	r.Get("/expedientes/{expedienteID}", h.handleObtener)
	r.Put("/expedientes/{expedienteID}", h.handleActualizar)
	r.Delete("/expedientes/{expedienteID}", h.handleEliminar)
	r.Post("/expedientes/{expedienteID}/revision", h.handleEnviarARevision)
}

type crearRequest struct {
	NumeroExpediente string `json:"numeroExpediente"`
	Descripcion      string `json:"descripcion"`
}

type actualizarRequest struct {
	Descripcion *string `json:"descripcion"`
}

type expedienteResponse struct {
	ID                  string     `json:"id"`
	NumeroExpediente    string     `json:"numeroExpediente"`
	Descripcion         string     `json:"descripcion,omitempty"`
	Estado              string     `json:"estado"`
	UsuarioRegistroID   string     `json:"usuarioRegistroId"`
	CoordinadorID       *string    `json:"coordinadorId,omitempty"`
	ComentariosRevision string     `json:"comentariosRevision,omitempty"`
	FechaRegistro       time.Time  `json:"fechaRegistro"`
	FechaRevision       *time.Time `json:"fechaRevision,omitempty"`
	TotalIndicios       int        `json:"totalIndicios"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func toResponse(exp *models.Expediente) expedienteResponse {
	resp := expedienteResponse{
		ID:                  exp.ID.String(),
		NumeroExpediente:    exp.NumeroExpediente,
		Descripcion:         exp.Descripcion,
		Estado:              string(exp.Estado),
		UsuarioRegistroID:   exp.UsuarioRegistroID.String(),
		ComentariosRevision: exp.ComentariosRevision,
		FechaRegistro:       exp.FechaRegistro,
		FechaRevision:       exp.FechaRevision,
		TotalIndicios:       exp.TotalIndicios,
		CreatedAt:           exp.CreatedAt,
		UpdatedAt:           exp.UpdatedAt,
	}
	if exp.CoordinadorID != nil {
		s := exp.CoordinadorID.String()
		resp.CoordinadorID = &s
	}
	return resp
}

func (h *Handler) handleCrear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req crearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	exp, err := h.expedientes.Crear(ctx, actor, req.NumeroExpediente, req.Descripcion)
	if err != nil {
		h.logger.WarnContext(ctx, "crear expediente failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toResponse(exp))
}

func (h *Handler) handleListar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	exps, err := h.expedientes.Listar(ctx, actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]expedienteResponse, 0, len(exps))
	for _, exp := range exps {
		out = append(out, toResponse(exp))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleObtener(w http.ResponseWriter, r *http.Request) {
	h.withExpediente(w, r, func(ctx context.Context, actor domain.Actor, id domain.ExpedienteID) {
		exp, err := h.expedientes.Obtener(ctx, actor, id)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, toResponse(exp))
	})
}

func (h *Handler) handleActualizar(w http.ResponseWriter, r *http.Request) {
	var req actualizarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	h.withExpediente(w, r, func(ctx context.Context, actor domain.Actor, id domain.ExpedienteID) {
		exp, err := h.expedientes.Actualizar(ctx, actor, id, service.UpdateFields{
			Descripcion: req.Descripcion,
		})
		if err != nil {
			h.logger.WarnContext(ctx, "actualizar expediente failed", "error", err)
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, toResponse(exp))
	})
}

func (h *Handler) handleEliminar(w http.ResponseWriter, r *http.Request) {
	h.withExpediente(w, r, func(ctx context.Context, actor domain.Actor, id domain.ExpedienteID) {
		if err := h.expedientes.Eliminar(ctx, actor, id); err != nil {
			shared.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (h *Handler) handleEnviarARevision(w http.ResponseWriter, r *http.Request) {
	h.withExpediente(w, r, func(ctx context.Context, actor domain.Actor, id domain.ExpedienteID) {
		exp, err := h.expedientes.EnviarARevision(ctx, actor, id)
		if err != nil {
			h.logger.WarnContext(ctx, "enviar a revision failed", "error", err)
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, toResponse(exp))
	})
}

// withExpediente factors the actor and path-ID plumbing shared by all
// single-expediente routes.
func (h *Handler) withExpediente(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor domain.Actor, id domain.ExpedienteID)) {
	ctx := r.Context()
	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	id, err := domain.ParseExpedienteID(chi.URLParam(r, "expedienteID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	fn(ctx, actor, id)
}
