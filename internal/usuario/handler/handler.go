// Package handler exposes usuario administration over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"expedientes/internal/transport/http/shared"
	"expedientes/internal/usuario/models"
	"expedientes/internal/usuario/service"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/requestcontext"
)

// Service defines the interface for usuario operations.
type Service interface {
	Crear(ctx context.Context, actor domain.Actor, nombre, correo, password string, rol domain.Rol) (*models.Usuario, error)
	Obtener(ctx context.Context, actor domain.Actor, id domain.UserID) (*models.Usuario, error)
	Listar(ctx context.Context, actor domain.Actor) ([]*models.Usuario, error)
	Actualizar(ctx context.Context, actor domain.Actor, id domain.UserID, fields service.UpdateFields) (*models.Usuario, error)
	CambiarPassword(ctx context.Context, actor domain.Actor, id domain.UserID, passwordActual, passwordNueva string) error
	Eliminar(ctx context.Context, actor domain.Actor, id domain.UserID) error
}

type Handler struct {
	logger   *slog.Logger
	usuarios Service
}

func New(usuarios Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, usuarios: usuarios}
}

// Register wires the usuario routes into an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/usuarios", h.handleListar)
	r.Post("/usuarios", h.handleCrear)
	r.Get("/usuarios/{usuarioID}", h.handleObtener)
	r.Put("/usuarios/{usuarioID}", h.handleActualizar)
	r.Put("/usuarios/{usuarioID}/cambiar-password", h.handleCambiarPassword)
	r.Delete("/usuarios/{usuarioID}", h.handleEliminar)
}

type crearRequest struct {
	Nombre   string `json:"nombre"`
	Correo   string `json:"correo"`
	Password string `json:"password"`
	Rol      string `json:"rol"`
}

type actualizarRequest struct {
	Nombre   *string `json:"nombre"`
	Correo   *string `json:"correo"`
	Password *string `json:"password"`
	Rol      *string `json:"rol"`
}

type cambiarPasswordRequest struct {
	PasswordActual string `json:"passwordActual"`
	PasswordNuevo  string `json:"passwordNuevo"`
}

type usuarioResponse struct {
	ID        string    `json:"id"`
	Nombre    string    `json:"nombre"`
	Correo    string    `json:"correo"`
	Rol       string    `json:"rol"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// toResponse converts a usuario for the wire. The password hash never
// leaves the server.
func toResponse(u *models.Usuario) usuarioResponse {
	return usuarioResponse{
		ID:        u.ID.String(),
		Nombre:    u.Nombre,
		Correo:    u.Correo,
		Rol:       string(u.Rol),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
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
	rol, err := domain.ParseRol(req.Rol)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	u, err := h.usuarios.Crear(ctx, actor, req.Nombre, req.Correo, req.Password, rol)
	if err != nil {
		h.logger.WarnContext(ctx, "crear usuario failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toResponse(u))
}

func (h *Handler) handleListar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	us, err := h.usuarios.Listar(ctx, actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]usuarioResponse, 0, len(us))
	for _, u := range us {
		out = append(out, toResponse(u))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleObtener(w http.ResponseWriter, r *http.Request) {
	h.withUsuario(w, r, func(ctx context.Context, actor domain.Actor, id domain.UserID) {
		u, err := h.usuarios.Obtener(ctx, actor, id)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, toResponse(u))
	})
}

func (h *Handler) handleActualizar(w http.ResponseWriter, r *http.Request) {
	var req actualizarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	h.withUsuario(w, r, func(ctx context.Context, actor domain.Actor, id domain.UserID) {
		fields := service.UpdateFields{
			Nombre:   req.Nombre,
			Correo:   req.Correo,
			Password: req.Password,
		}
		if req.Rol != nil {
			rol, err := domain.ParseRol(*req.Rol)
			if err != nil {
				shared.WriteError(w, err)
				return
			}
			fields.Rol = &rol
		}

		u, err := h.usuarios.Actualizar(ctx, actor, id, fields)
		if err != nil {
			h.logger.WarnContext(ctx, "actualizar usuario failed", "error", err)
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, toResponse(u))
	})
}

func (h *Handler) handleCambiarPassword(w http.ResponseWriter, r *http.Request) {
	var req cambiarPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	h.withUsuario(w, r, func(ctx context.Context, actor domain.Actor, id domain.UserID) {
		if err := h.usuarios.CambiarPassword(ctx, actor, id, req.PasswordActual, req.PasswordNuevo); err != nil {
			h.logger.WarnContext(ctx, "cambiar password failed", "error", err)
			shared.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (h *Handler) handleEliminar(w http.ResponseWriter, r *http.Request) {
	h.withUsuario(w, r, func(ctx context.Context, actor domain.Actor, id domain.UserID) {
		if err := h.usuarios.Eliminar(ctx, actor, id); err != nil {
			shared.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (h *Handler) withUsuario(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor domain.Actor, id domain.UserID)) {
	ctx := r.Context()
	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	id, err := domain.ParseUserID(chi.URLParam(r, "usuarioID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	fn(ctx, actor, id)
}
