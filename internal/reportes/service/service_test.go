package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	expmodels "expedientes/internal/expediente/models"
	expstore "expedientes/internal/expediente/store"
	indmodels "expedientes/internal/indicio/models"
	indstore "expedientes/internal/indicio/store"
	usuariomodels "expedientes/internal/usuario/models"
	usuariostore "expedientes/internal/usuario/store"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

type ReportesServiceSuite struct {
	suite.Suite
	expedientes *expstore.MemoryStore
	indicios    *indstore.MemoryStore
	usuarios    *usuariostore.MemoryStore
	service     *Service
	ctx         context.Context
	admin       domain.Actor
	now         time.Time
}

func TestReportesServiceSuite(t *testing.T) {
	suite.Run(t, new(ReportesServiceSuite))
}

func (s *ReportesServiceSuite) SetupTest() {
	s.expedientes = expstore.NewMemory()
	s.indicios = indstore.NewMemory()
	s.usuarios = usuariostore.NewMemory()
	s.ctx = context.Background()
	s.admin = domain.Actor{ID: domain.NewUserID(), Rol: domain.RolAdmin}
	s.now = time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)

	var err error
	s.service, err = New(s.expedientes, s.indicios, s.usuarios)
	s.Require().NoError(err)
}

func (s *ReportesServiceSuite) usuario(nombre, correo string) *usuariomodels.Usuario {
	u, err := usuariomodels.NewUsuario(nombre, correo, "secreto123", domain.RolUser, 4, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.usuarios.Save(s.ctx, u))
	return u
}

func (s *ReportesServiceSuite) expediente(numero string, owner domain.UserID, estado expmodels.Estado) *expmodels.Expediente {
	exp, err := expmodels.NewExpediente(numero, "caso de prueba", owner, s.now)
	s.Require().NoError(err)
	exp.Estado = estado
	s.Require().NoError(s.expedientes.Save(s.ctx, exp))
	return exp
}

func (s *ReportesServiceSuite) indicio(parent domain.ExpedienteID, numero string) {
	descripcion := "evidencia"
	ind, err := indmodels.NewIndicio(parent, numero, indmodels.Fields{Descripcion: &descripcion},
		domain.NewUserID(), s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.indicios.Save(s.ctx, ind))
}

func (s *ReportesServiceSuite) TestGenerarResumen() {
	ana := s.usuario("Ana", "ana@x.gob")
	luis := s.usuario("Luis", "luis@x.gob")

	a := s.expediente("EXP-001", ana.ID, expmodels.EstadoBorrador)
	b := s.expediente("EXP-002", ana.ID, expmodels.EstadoEnRevision)
	s.expediente("EXP-003", luis.ID, expmodels.EstadoAprobado)
	s.indicio(a.ID, "IND-001")
	s.indicio(b.ID, "IND-002")
	s.indicio(b.ID, "IND-003")

	resumen, err := s.service.GenerarResumen(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Equal(3, resumen.TotalExpedientes)
	s.Equal(3, resumen.TotalIndicios)
	s.Equal(1, resumen.PorEstado[expmodels.EstadoBorrador])
	s.Equal(1, resumen.PorEstado[expmodels.EstadoEnRevision])
	s.Equal(1, resumen.PorEstado[expmodels.EstadoAprobado])
}

func (s *ReportesServiceSuite) TestGenerarResumenEmpty() {
	resumen, err := s.service.GenerarResumen(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Zero(resumen.TotalExpedientes)
	s.Zero(resumen.TotalIndicios)
	s.Empty(resumen.PorEstado)
}

func (s *ReportesServiceSuite) TestGenerarDetallado() {
	ana := s.usuario("Ana", "ana@x.gob")
	coordinadora := s.usuario("Marta", "marta@x.gob")

	a := s.expediente("EXP-001", ana.ID, expmodels.EstadoBorrador)
	b, err := expmodels.NewExpediente("EXP-002", "caso de prueba", ana.ID, s.now)
	s.Require().NoError(err)
	b.Estado = expmodels.EstadoAprobado
	b.CoordinadorID = &coordinadora.ID
	s.Require().NoError(s.expedientes.Save(s.ctx, b))
	s.indicio(a.ID, "IND-001")

	s.Run("rows carry counts and display fields", func() {
		rows, err := s.service.GenerarDetallado(s.ctx, s.admin, DetalladoFilter{})
		s.Require().NoError(err)
		s.Require().Len(rows, 2)

		byNumero := make(map[string]*ReporteExpediente, len(rows))
		for _, row := range rows {
			byNumero[row.Expediente.NumeroExpediente] = row
		}
		s.Equal(1, byNumero["EXP-001"].Expediente.TotalIndicios)
		s.Equal("Ana", byNumero["EXP-001"].UsuarioNombre)
		s.Equal("Marta", byNumero["EXP-002"].CoordinadorNombre)
		s.Empty(byNumero["EXP-001"].CoordinadorNombre, "undecided expediente has no coordinador")
	})

	s.Run("estado filter", func() {
		estado := expmodels.EstadoAprobado
		rows, err := s.service.GenerarDetallado(s.ctx, s.admin, DetalladoFilter{Estado: &estado})
		s.Require().NoError(err)
		s.Require().Len(rows, 1)
		s.Equal("EXP-002", rows[0].Expediente.NumeroExpediente)
	})

	s.Run("date window excludes everything outside it", func() {
		desde := s.now.Add(24 * time.Hour)
		rows, err := s.service.GenerarDetallado(s.ctx, s.admin, DetalladoFilter{Desde: &desde})
		s.Require().NoError(err)
		s.Empty(rows)

		hasta := s.now.Add(24 * time.Hour)
		rows, err = s.service.GenerarDetallado(s.ctx, s.admin, DetalladoFilter{Desde: &s.now, Hasta: &hasta})
		s.Require().NoError(err)
		s.Len(rows, 2, "inclusive lower bound keeps rows registered at the boundary")
	})
}

func (s *ReportesServiceSuite) TestGenerarCargaPorUsuario() {
	ana := s.usuario("Ana", "ana@x.gob")
	luis := s.usuario("Luis", "luis@x.gob")

	s.expediente("EXP-001", ana.ID, expmodels.EstadoBorrador)
	s.expediente("EXP-002", ana.ID, expmodels.EstadoAprobado)

	rows, err := s.service.GenerarCargaPorUsuario(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)

	byID := make(map[domain.UserID]*CargaUsuario, len(rows))
	for _, row := range rows {
		byID[row.UsuarioID] = row
	}

	s.Equal(2, byID[ana.ID].Expedientes)
	s.Equal(1, byID[ana.ID].PorEstado[expmodels.EstadoBorrador])
	s.Equal(1, byID[ana.ID].PorEstado[expmodels.EstadoAprobado])

	s.Zero(byID[luis.ID].Expedientes, "idle usuarios still get a row")
	s.Equal("Luis", byID[luis.ID].Nombre)
}

func (s *ReportesServiceSuite) TestDeactivatedOwnerKeepsWorkload() {
	ghost := domain.NewUserID()
	s.expediente("EXP-001", ghost, expmodels.EstadoEnRevision)

	rows, err := s.service.GenerarCargaPorUsuario(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)

	s.Equal(ghost, rows[0].UsuarioID)
	s.Equal(1, rows[0].Expedientes)
	s.Empty(rows[0].Nombre, "no display fields for a deactivated owner")
}

func (s *ReportesServiceSuite) TestAccessControl() {
	for _, rol := range []domain.Rol{domain.RolUser, domain.RolModerador} {
		actor := domain.Actor{ID: domain.NewUserID(), Rol: rol}

		_, err := s.service.GenerarResumen(s.ctx, actor)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "rol %s", rol)

		_, err = s.service.GenerarDetallado(s.ctx, actor, DetalladoFilter{})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "rol %s", rol)

		_, err = s.service.GenerarCargaPorUsuario(s.ctx, actor)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "rol %s", rol)
	}
}
