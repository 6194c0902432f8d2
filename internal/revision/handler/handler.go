// Package handler exposes coordinator decisions and the revision ledger
// over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	expmodels "expedientes/internal/expediente/models"
	"expedientes/internal/revision/models"
	"expedientes/internal/transport/http/shared"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/requestcontext"
)

// Service defines the interface for revision operations.
type Service interface {
	Aprobar(ctx context.Context, actor domain.Actor, id domain.ExpedienteID, comentarios string) (*expmodels.Expediente, error)
	Rechazar(ctx context.Context, actor domain.Actor, id domain.ExpedienteID, comentarios string) (*expmodels.Expediente, error)
	Historial(ctx context.Context, actor domain.Actor, id domain.ExpedienteID) ([]*models.HistorialRevision, error)
}

type Handler struct {
	logger     *slog.Logger
	revisiones Service
}

func New(revisiones Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, revisiones: revisiones}
}

// Register wires the revision routes into an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Put("/revisiones/{expedienteID}/aprobar", h.handleAprobar)
	r.Put("/revisiones/{expedienteID}/rechazar", h.handleRechazar)
	r.Get("/revisiones/{expedienteID}/historial", h.handleHistorial)
}

type decisionRequest struct {
	Comentarios string `json:"comentarios"`
}

type decisionResponse struct {
	ID                  string     `json:"id"`
	Estado              string     `json:"estado"`
	CoordinadorID       *string    `json:"coordinadorId,omitempty"`
	ComentariosRevision string     `json:"comentariosRevision,omitempty"`
	FechaRevision       *time.Time `json:"fechaRevision,omitempty"`
}

type revisorResponse struct {
	Nombre string `json:"nombre,omitempty"`
	Correo string `json:"correo,omitempty"`
	Rol    string `json:"rol,omitempty"`
}

type historialResponse struct {
	ID               string           `json:"id"`
	ExpedienteID     string           `json:"expedienteId"`
	UsuarioRevisorID string           `json:"usuarioRevisorId"`
	Accion           string           `json:"accion"`
	Comentarios      string           `json:"comentarios,omitempty"`
	FechaRevision    time.Time        `json:"fechaRevision"`
	Revisor          *revisorResponse `json:"revisor,omitempty"`
}

func toDecisionResponse(exp *expmodels.Expediente) decisionResponse {
	resp := decisionResponse{
		ID:                  exp.ID.String(),
		Estado:              string(exp.Estado),
		ComentariosRevision: exp.ComentariosRevision,
		FechaRevision:       exp.FechaRevision,
	}
	if exp.CoordinadorID != nil {
		s := exp.CoordinadorID.String()
		resp.CoordinadorID = &s
	}
	return resp
}

func toHistorialResponse(rec *models.HistorialRevision) historialResponse {
	resp := historialResponse{
		ID:               rec.ID.String(),
		ExpedienteID:     rec.ExpedienteID.String(),
		UsuarioRevisorID: rec.UsuarioRevisorID.String(),
		Accion:           string(rec.Accion),
		Comentarios:      rec.Comentarios,
		FechaRevision:    rec.FechaRevision,
	}
	if rec.RevisorNombre != "" || rec.RevisorCorreo != "" {
		resp.Revisor = &revisorResponse{
			Nombre: rec.RevisorNombre,
			Correo: rec.RevisorCorreo,
			Rol:    rec.RevisorRol,
		}
	}
	return resp
}

func (h *Handler) handleAprobar(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, h.revisiones.Aprobar)
}

func (h *Handler) handleRechazar(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, h.revisiones.Rechazar)
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request,
	decide func(ctx context.Context, actor domain.Actor, id domain.ExpedienteID, comentarios string) (*expmodels.Expediente, error),
) {
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

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	exp, err := decide(ctx, actor, id, req.Comentarios)
	if err != nil {
		h.logger.WarnContext(ctx, "decision failed",
			"expediente_id", id.String(),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDecisionResponse(exp))
}

func (h *Handler) handleHistorial(w http.ResponseWriter, r *http.Request) {
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

	recs, err := h.revisiones.Historial(ctx, actor, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]historialResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toHistorialResponse(rec))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
