package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	expmodels "expedientes/internal/expediente/models"
	expstore "expedientes/internal/expediente/store"
	"expedientes/internal/indicio/models"
	"expedientes/internal/indicio/store"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/requestcontext"
)

type IndicioServiceSuite struct {
	suite.Suite
	expedientes *expstore.MemoryStore
	indicios    *store.MemoryStore
	service     *Service
	ctx         context.Context
	now         time.Time
	owner       domain.Actor
	parent      *expmodels.Expediente
}

func TestIndicioServiceSuite(t *testing.T) {
	suite.Run(t, new(IndicioServiceSuite))
}

func (s *IndicioServiceSuite) SetupTest() {
	s.expedientes = expstore.NewMemory()
	s.indicios = store.NewMemory()
	s.now = time.Date(2026, 4, 3, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.owner = domain.Actor{ID: domain.NewUserID(), Rol: domain.RolUser}

	var err error
	s.service, err = New(s.indicios, s.expedientes)
	s.Require().NoError(err)

	s.parent, err = expmodels.NewExpediente("EXP-PARENT", "", s.owner.ID, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.expedientes.Save(s.ctx, s.parent))
}

func strPtr(v string) *string { return &v }
func f64Ptr(v float64) *float64 { return &v }

func (s *IndicioServiceSuite) crear(numero string) *models.Indicio {
	ind, err := s.service.Crear(s.ctx, s.owner, s.parent.ID, numero, models.Fields{
		Descripcion: strPtr("cuchillo de cocina"),
		Peso:        f64Ptr(0.3),
	})
	s.Require().NoError(err)
	return ind
}

func (s *IndicioServiceSuite) freezeParent() {
	_, err := s.expedientes.Execute(s.ctx, s.parent.ID, nil,
		func(_ context.Context, e *expmodels.Expediente) error {
			e.AplicarEnvioARevision(s.now)
			return nil
		})
	s.Require().NoError(err)
}

func (s *IndicioServiceSuite) TestCrear() {
	s.Run("creates an active indicio under an editable parent", func() {
		ind := s.crear("IND-001")
		s.Equal(s.parent.ID, ind.ExpedienteID)
		s.Equal(s.owner.ID, ind.UsuarioRegistroID)
		s.True(ind.IsActive)
		s.Require().NotNil(ind.Peso)
		s.InDelta(0.3, *ind.Peso, 1e-9)
	})

	s.Run("duplicate numero within the parent is rejected", func() {
		s.crear("IND-DUP")
		_, err := s.service.Crear(s.ctx, s.owner, s.parent.ID, "ind-dup", models.Fields{
			Descripcion: strPtr("otro objeto"),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicate))
	})

	s.Run("descripcion is mandatory", func() {
		_, err := s.service.Crear(s.ctx, s.owner, s.parent.ID, "IND-NODESC", models.Fields{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("peso must be positive and finite", func() {
		for _, peso := range []float64{0, -1.5} {
			_, err := s.service.Crear(s.ctx, s.owner, s.parent.ID, "IND-PESO", models.Fields{
				Descripcion: strPtr("objeto"),
				Peso:        f64Ptr(peso),
			})
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "peso %v", peso)
		}
	})

	s.Run("frozen parent rejects new indicios", func() {
		s.freezeParent()
		_, err := s.service.Crear(s.ctx, s.owner, s.parent.ID, "IND-LATE", models.Fields{
			Descripcion: strPtr("tardio"),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("non-owner cannot add evidence", func() {
		stranger := domain.Actor{ID: domain.NewUserID(), Rol: domain.RolAdmin}
		_, err := s.service.Crear(s.ctx, stranger, s.parent.ID, "IND-STRANGER", models.Fields{
			Descripcion: strPtr("ajeno"),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *IndicioServiceSuite) TestObtenerYListar() {
	first := s.crear("IND-A")
	s.crear("IND-B")

	s.Run("owner reads one indicio", func() {
		got, err := s.service.Obtener(s.ctx, s.owner, first.ID)
		s.Require().NoError(err)
		s.Equal(first.NumeroIndicio, got.NumeroIndicio)
	})

	s.Run("coordinator reads through the parent", func() {
		admin := domain.Actor{ID: domain.NewUserID(), Rol: domain.RolAdmin}
		got, err := s.service.ListarPorExpediente(s.ctx, admin, s.parent.ID)
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("stranger is forbidden", func() {
		stranger := domain.Actor{ID: domain.NewUserID(), Rol: domain.RolUser}
		_, err := s.service.Obtener(s.ctx, stranger, first.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		_, err = s.service.ListarPorExpediente(s.ctx, stranger, s.parent.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *IndicioServiceSuite) TestActualizar() {
	ind := s.crear("IND-EDIT")

	s.Run("partial update leaves other fields alone", func() {
		got, err := s.service.Actualizar(s.ctx, s.owner, ind.ID, models.Fields{
			Color: strPtr("negro"),
		})
		s.Require().NoError(err)
		s.Equal("negro", got.Color)
		s.Equal("cuchillo de cocina", got.Descripcion)
	})

	s.Run("frozen parent rejects updates", func() {
		s.freezeParent()
		_, err := s.service.Actualizar(s.ctx, s.owner, ind.ID, models.Fields{
			Color: strPtr("rojo"),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		got, err := s.indicios.FindByID(s.ctx, ind.ID)
		s.Require().NoError(err)
		s.Equal("negro", got.Color, "rejected update writes nothing")
	})
}

func (s *IndicioServiceSuite) TestEliminar() {
	s.Run("soft delete frees the numero and lowers the count", func() {
		ind := s.crear("IND-DEL")
		s.Require().NoError(s.service.Eliminar(s.ctx, s.owner, ind.ID))

		_, err := s.service.Obtener(s.ctx, s.owner, ind.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		count, err := s.indicios.CountActiveByExpediente(s.ctx, s.parent.ID)
		s.Require().NoError(err)
		s.Equal(0, count)

		// The numero can be reused after the soft delete.
		s.crear("IND-DEL")
	})

	s.Run("frozen parent keeps its evidence set", func() {
		ind := s.crear("IND-KEEP")
		s.freezeParent()

		err := s.service.Eliminar(s.ctx, s.owner, ind.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}
