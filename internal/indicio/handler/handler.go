// Package handler exposes indicio CRUD over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"expedientes/internal/indicio/models"
	"expedientes/internal/transport/http/shared"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/requestcontext"
)

// Service defines the interface for indicio operations.
type Service interface {
	Crear(ctx context.Context, actor domain.Actor, expedienteID domain.ExpedienteID, numero string, fields models.Fields) (*models.Indicio, error)
	Obtener(ctx context.Context, actor domain.Actor, id domain.IndicioID) (*models.Indicio, error)
	ListarPorExpediente(ctx context.Context, actor domain.Actor, expedienteID domain.ExpedienteID) ([]*models.Indicio, error)
	Actualizar(ctx context.Context, actor domain.Actor, id domain.IndicioID, fields models.Fields) (*models.Indicio, error)
	Eliminar(ctx context.Context, actor domain.Actor, id domain.IndicioID) error
}

type Handler struct {
	logger   *slog.Logger
	indicios Service
}

func New(indicios Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, indicios: indicios}
}

// Register wires the indicio routes into an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/indicios", h.handleCrear)
	r.Get("/indicios/{indicioID}", h.handleObtener)
	r.Put("/indicios/{indicioID}", h.handleActualizar)
	r.Delete("/indicios/{indicioID}", h.handleEliminar)
	r.Get("/expedientes/{expedienteID}/indicios", h.handleListarPorExpediente)
}

type crearRequest struct {
	ExpedienteID  string `json:"expedienteId"`
	NumeroIndicio string `json:"numeroIndicio"`
	fieldsRequest
}

type fieldsRequest struct {
	Descripcion   *string  `json:"descripcion"`
	Color         *string  `json:"color"`
	Tamano        *string  `json:"tamano"`
	Peso          *float64 `json:"peso"`
	Ubicacion     *string  `json:"ubicacion"`
	Observaciones *string  `json:"observaciones"`
}

func (f fieldsRequest) fields() models.Fields {
	return models.Fields{
		Descripcion:   f.Descripcion,
		Color:         f.Color,
		Tamano:        f.Tamano,
		Peso:          f.Peso,
		Ubicacion:     f.Ubicacion,
		Observaciones: f.Observaciones,
	}
}

type indicioResponse struct {
	ID                string    `json:"id"`
	ExpedienteID      string    `json:"expedienteId"`
	NumeroIndicio     string    `json:"numeroIndicio"`
	Descripcion       string    `json:"descripcion"`
	Color             string    `json:"color,omitempty"`
	Tamano            string    `json:"tamano,omitempty"`
	Peso              *float64  `json:"peso,omitempty"`
	Ubicacion         string    `json:"ubicacion,omitempty"`
	Observaciones     string    `json:"observaciones,omitempty"`
	UsuarioRegistroID string    `json:"usuarioRegistroId"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func toResponse(ind *models.Indicio) indicioResponse {
	return indicioResponse{
		ID:                ind.ID.String(),
		ExpedienteID:      ind.ExpedienteID.String(),
		NumeroIndicio:     ind.NumeroIndicio,
		Descripcion:       ind.Descripcion,
		Color:             ind.Color,
		Tamano:            ind.Tamano,
		Peso:              ind.Peso,
		Ubicacion:         ind.Ubicacion,
		Observaciones:     ind.Observaciones,
		UsuarioRegistroID: ind.UsuarioRegistroID.String(),
		CreatedAt:         ind.CreatedAt,
		UpdatedAt:         ind.UpdatedAt,
	}
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
	expedienteID, err := domain.ParseExpedienteID(req.ExpedienteID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	ind, err := h.indicios.Crear(ctx, actor, expedienteID, req.NumeroIndicio, req.fields())
	if err != nil {
		h.logger.WarnContext(ctx, "crear indicio failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toResponse(ind))
}

func (h *Handler) handleObtener(w http.ResponseWriter, r *http.Request) {
	h.withIndicio(w, r, func(ctx context.Context, actor domain.Actor, id domain.IndicioID) {
		ind, err := h.indicios.Obtener(ctx, actor, id)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, toResponse(ind))
	})
}

func (h *Handler) handleActualizar(w http.ResponseWriter, r *http.Request) {
	var req fieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	h.withIndicio(w, r, func(ctx context.Context, actor domain.Actor, id domain.IndicioID) {
		ind, err := h.indicios.Actualizar(ctx, actor, id, req.fields())
		if err != nil {
			h.logger.WarnContext(ctx, "actualizar indicio failed", "error", err)
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, toResponse(ind))
	})
}

func (h *Handler) handleEliminar(w http.ResponseWriter, r *http.Request) {
	h.withIndicio(w, r, func(ctx context.Context, actor domain.Actor, id domain.IndicioID) {
		if err := h.indicios.Eliminar(ctx, actor, id); err != nil {
			shared.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (h *Handler) handleListarPorExpediente(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	expedienteID, err := domain.ParseExpedienteID(chi.URLParam(r, "expedienteID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	inds, err := h.indicios.ListarPorExpediente(ctx, actor, expedienteID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]indicioResponse, 0, len(inds))
	for _, ind := range inds {
		out = append(out, toResponse(ind))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) withIndicio(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor domain.Actor, id domain.IndicioID)) {
	ctx := r.Context()
	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	id, err := domain.ParseIndicioID(chi.URLParam(r, "indicioID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	fn(ctx, actor, id)
}
