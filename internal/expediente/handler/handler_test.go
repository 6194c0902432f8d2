package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"expedientes/internal/expediente/handler/mocks"
	"expedientes/internal/expediente/models"
	"expedientes/internal/expediente/service"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/expediente-mocks.go -package=mocks Service
type ExpedienteHandlerSuite struct {
	suite.Suite
	router  chi.Router
	service *mocks.MockService
	actor   domain.Actor
}

func TestExpedienteHandlerSuite(t *testing.T) {
	suite.Run(t, new(ExpedienteHandlerSuite))
}

func (s *ExpedienteHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.service = mocks.NewMockService(ctrl)
	s.actor = domain.Actor{ID: domain.NewUserID(), Rol: domain.RolUser}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, logger).Register(s.router)
}

// do routes the request through the real router with the actor injected,
// mirroring what the auth middleware does in production.
func (s *ExpedienteHandlerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := testutil.WithActor(httptest.NewRequest(method, target, reader), s.actor)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ExpedienteHandlerSuite) sample() *models.Expediente {
	now := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	return &models.Expediente{
		ID:                domain.NewExpedienteID(),
		NumeroExpediente:  "EXP-2026-001",
		Descripcion:       "robo agravado",
		Estado:            models.EstadoBorrador,
		UsuarioRegistroID: s.actor.ID,
		FechaRegistro:     now,
		TotalIndicios:     2,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (s *ExpedienteHandlerSuite) TestCrear() {
	s.Run("created expediente comes back as 201", func() {
		exp := s.sample()
		s.service.EXPECT().
			Crear(gomock.Any(), s.actor, "EXP-2026-001", "robo agravado").
			Return(exp, nil)

		w := s.do(http.MethodPost, "/expedientes", crearRequest{
			NumeroExpediente: "EXP-2026-001",
			Descripcion:      "robo agravado",
		})

		s.Equal(http.StatusCreated, w.Code, w.Body.String())
		var resp map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(exp.ID.String(), resp["id"])
		s.Equal("BORRADOR", resp["estado"])
		s.Equal(float64(2), resp["totalIndicios"])
	})

	s.Run("malformed body is a 400", func() {
		req := testutil.WithActor(
			httptest.NewRequest(http.MethodPost, "/expedientes", bytes.NewReader([]byte("{not json"))), s.actor)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("duplicate numero maps to 409", func() {
		s.service.EXPECT().
			Crear(gomock.Any(), s.actor, gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeDuplicate, "numero de expediente already in use"))

		w := s.do(http.MethodPost, "/expedientes", crearRequest{NumeroExpediente: "EXP-2026-001"})
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("request without an actor is a 401", func() {
		req := httptest.NewRequest(http.MethodPost, "/expedientes", bytes.NewReader([]byte(`{}`)))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}

func (s *ExpedienteHandlerSuite) TestObtener() {
	exp := s.sample()

	s.Run("found expediente is returned", func() {
		s.service.EXPECT().
			Obtener(gomock.Any(), s.actor, exp.ID).
			Return(exp, nil)

		w := s.do(http.MethodGet, "/expedientes/"+exp.ID.String(), nil)
		s.Equal(http.StatusOK, w.Code, w.Body.String())

		var resp map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("EXP-2026-001", resp["numeroExpediente"])
		s.NotContains(resp, "coordinadorId", "unset optional fields are omitted")
	})

	s.Run("malformed id never reaches the service", func() {
		w := s.do(http.MethodGet, "/expedientes/not-a-uuid", nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("missing expediente maps to 404", func() {
		s.service.EXPECT().
			Obtener(gomock.Any(), s.actor, exp.ID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "expediente not found"))

		w := s.do(http.MethodGet, "/expedientes/"+exp.ID.String(), nil)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("forbidden access maps to 403", func() {
		s.service.EXPECT().
			Obtener(gomock.Any(), s.actor, exp.ID).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "not allowed"))

		w := s.do(http.MethodGet, "/expedientes/"+exp.ID.String(), nil)
		s.Equal(http.StatusForbidden, w.Code)
	})
}

func (s *ExpedienteHandlerSuite) TestListar() {
	s.service.EXPECT().
		Listar(gomock.Any(), s.actor).
		Return([]*models.Expediente{s.sample(), s.sample()}, nil)

	w := s.do(http.MethodGet, "/expedientes", nil)
	s.Equal(http.StatusOK, w.Code)

	var resp []map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp, 2)
}

func (s *ExpedienteHandlerSuite) TestActualizar() {
	exp := s.sample()

	s.Run("only the provided fields are forwarded", func() {
		descripcion := "robo agravado, segunda version"
		s.service.EXPECT().
			Actualizar(gomock.Any(), s.actor, exp.ID, service.UpdateFields{Descripcion: &descripcion}).
			Return(exp, nil)

		w := s.do(http.MethodPut, "/expedientes/"+exp.ID.String(), actualizarRequest{
			Descripcion: &descripcion,
		})
		s.Equal(http.StatusOK, w.Code, w.Body.String())
	})

	s.Run("a numeroExpediente in the payload is ignored", func() {
		descripcion := "tercera version"
		s.service.EXPECT().
			Actualizar(gomock.Any(), s.actor, exp.ID, service.UpdateFields{Descripcion: &descripcion}).
			Return(exp, nil)

		w := s.do(http.MethodPut, "/expedientes/"+exp.ID.String(), map[string]any{
			"numeroExpediente": "EXP-CHANGED",
			"descripcion":      descripcion,
		})
		s.Equal(http.StatusOK, w.Code, w.Body.String())

		var resp map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("EXP-2026-001", resp["numeroExpediente"])
	})

	s.Run("frozen expediente maps to 409", func() {
		descripcion := "edicion tardia"
		s.service.EXPECT().
			Actualizar(gomock.Any(), s.actor, exp.ID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidState, "expediente is not editable in estado EN_REVISION"))

		w := s.do(http.MethodPut, "/expedientes/"+exp.ID.String(), actualizarRequest{
			Descripcion: &descripcion,
		})
		s.Equal(http.StatusConflict, w.Code)
	})
}

func (s *ExpedienteHandlerSuite) TestEnviarARevision() {
	exp := s.sample()
	exp.Estado = models.EstadoEnRevision

	s.Run("submission returns the frozen expediente", func() {
		s.service.EXPECT().
			EnviarARevision(gomock.Any(), s.actor, exp.ID).
			Return(exp, nil)

		w := s.do(http.MethodPost, "/expedientes/"+exp.ID.String()+"/revision", nil)
		s.Equal(http.StatusOK, w.Code)

		var resp map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("EN_REVISION", resp["estado"])
	})

	s.Run("empty expediente maps to 409", func() {
		s.service.EXPECT().
			EnviarARevision(gomock.Any(), s.actor, exp.ID).
			Return(nil, dErrors.New(dErrors.CodeInsufficientIndicios, "expediente needs at least one indicio"))

		w := s.do(http.MethodPost, "/expedientes/"+exp.ID.String()+"/revision", nil)
		s.Equal(http.StatusConflict, w.Code)
	})
}

func (s *ExpedienteHandlerSuite) TestEliminar() {
	exp := s.sample()

	s.Run("deleted expediente answers 204 with no body", func() {
		s.service.EXPECT().
			Eliminar(gomock.Any(), s.actor, exp.ID).
			Return(nil)

		w := s.do(http.MethodDelete, "/expedientes/"+exp.ID.String(), nil)
		s.Equal(http.StatusNoContent, w.Code)
		s.Empty(w.Body.String())
	})

	s.Run("non-draft expediente maps to 409", func() {
		s.service.EXPECT().
			Eliminar(gomock.Any(), s.actor, exp.ID).
			Return(dErrors.New(dErrors.CodeInvalidState, "only drafts can be deleted"))

		w := s.do(http.MethodDelete, "/expedientes/"+exp.ID.String(), nil)
		s.Equal(http.StatusConflict, w.Code)
	})
}
