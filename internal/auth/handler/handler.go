// Package handler exposes registration, login and the authenticated
// identity endpoint. Registration and login are the only routes in the API
// served without a bearer token.
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
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/requestcontext"
)

// Service defines the interface for auth operations.
type Service interface {
	Registrar(ctx context.Context, nombre, correo, password string, rol domain.Rol) (string, *models.Usuario, error)
	Login(ctx context.Context, correo, password string) (string, *models.Usuario, error)
	Me(ctx context.Context, actor domain.Actor) (*models.Usuario, error)
}

type Handler struct {
	logger *slog.Logger
	auth   Service
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, auth: auth}
}

// RegisterPublic wires the unauthenticated routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.handleRegistrar)
	r.Post("/auth/login", h.handleLogin)
}

// Register wires the authenticated routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

type loginRequest struct {
	Correo   string `json:"correo"`
	Password string `json:"password"`
}

type registrarRequest struct {
	Nombre   string `json:"nombre"`
	Correo   string `json:"correo"`
	Password string `json:"password"`
	Rol      string `json:"rol"`
}

type usuarioResponse struct {
	ID        string    `json:"id"`
	Nombre    string    `json:"nombre"`
	Correo    string    `json:"correo"`
	Rol       string    `json:"rol"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Usuario usuarioResponse `json:"usuario"`
}

func toUsuarioResponse(u *models.Usuario) usuarioResponse {
	return usuarioResponse{
		ID:        u.ID.String(),
		Nombre:    u.Nombre,
		Correo:    u.Correo,
		Rol:       string(u.Rol),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (h *Handler) handleRegistrar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registrarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	token, u, err := h.auth.Registrar(ctx, req.Nombre, req.Correo, req.Password, domain.Rol(req.Rol))
	if err != nil {
		h.logger.WarnContext(ctx, "registration failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, loginResponse{
		Token:   token,
		Usuario: toUsuarioResponse(u),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	token, u, err := h.auth.Login(ctx, req.Correo, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, loginResponse{
		Token:   token,
		Usuario: toUsuarioResponse(u),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	u, err := h.auth.Me(ctx, actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toUsuarioResponse(u))
}
