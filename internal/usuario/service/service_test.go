package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"expedientes/internal/usuario/models"
	"expedientes/internal/usuario/store"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/requestcontext"
)

// Tests hash with the minimum bcrypt cost to stay fast.
const testBcryptCost = 4

type UsuarioServiceSuite struct {
	suite.Suite
	store   *store.MemoryStore
	service *Service
	ctx     context.Context
	admin   domain.Actor
}

func TestUsuarioServiceSuite(t *testing.T) {
	suite.Run(t, new(UsuarioServiceSuite))
}

func (s *UsuarioServiceSuite) SetupTest() {
	s.store = store.NewMemory()
	s.ctx = requestcontext.WithTime(context.Background(),
		time.Date(2026, 4, 4, 9, 0, 0, 0, time.UTC))
	s.admin = domain.Actor{ID: domain.NewUserID(), Rol: domain.RolAdmin}

	var err error
	s.service, err = New(s.store, WithBcryptCost(testBcryptCost))
	s.Require().NoError(err)
}

func (s *UsuarioServiceSuite) crear(nombre, correo string, rol domain.Rol) *models.Usuario {
	u, err := s.service.Crear(s.ctx, s.admin, nombre, correo, "secreto123", rol)
	s.Require().NoError(err)
	return u
}

func (s *UsuarioServiceSuite) TestCrear() {
	s.Run("ADMIN creates an active usuario with a hashed password", func() {
		u := s.crear("Ana Perez", "Ana.Perez@Fiscalia.gob", domain.RolUser)
		s.Equal("ana.perez@fiscalia.gob", u.Correo, "correo is normalized")
		s.True(u.IsActive)
		s.True(u.CheckPassword("secreto123"))
		s.False(u.CheckPassword("otra-clave"))
	})

	s.Run("non-admin is forbidden", func() {
		moderador := domain.Actor{ID: domain.NewUserID(), Rol: domain.RolModerador}
		_, err := s.service.Crear(s.ctx, moderador, "Luis", "luis@x.gob", "secreto123", domain.RolUser)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("duplicate correo is rejected", func() {
		s.crear("Uno", "dup@fiscalia.gob", domain.RolUser)
		_, err := s.service.Crear(s.ctx, s.admin, "Dos", "DUP@fiscalia.gob", "secreto123", domain.RolUser)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicate))
	})

	s.Run("short password is rejected", func() {
		_, err := s.service.Crear(s.ctx, s.admin, "Ana", "corta@x.gob", "abc", domain.RolUser)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("invalid correo is rejected", func() {
		for _, correo := range []string{"", "sin-arroba", "@empieza.mal", "sin@punto"} {
			_, err := s.service.Crear(s.ctx, s.admin, "Ana", correo, "secreto123", domain.RolUser)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "correo %q", correo)
		}
	})
}

func (s *UsuarioServiceSuite) TestObtener() {
	u := s.crear("Ana", "ana@x.gob", domain.RolUser)

	s.Run("an actor always reads their own record", func() {
		self := domain.Actor{ID: u.ID, Rol: u.Rol}
		got, err := s.service.Obtener(s.ctx, self, u.ID)
		s.Require().NoError(err)
		s.Equal(u.Correo, got.Correo)
	})

	s.Run("reading others requires coordinator access", func() {
		stranger := domain.Actor{ID: domain.NewUserID(), Rol: domain.RolUser}
		_, err := s.service.Obtener(s.ctx, stranger, u.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		moderador := domain.Actor{ID: domain.NewUserID(), Rol: domain.RolModerador}
		_, err = s.service.Obtener(s.ctx, moderador, u.ID)
		s.NoError(err)
	})
}

func (s *UsuarioServiceSuite) TestActualizar() {
	u := s.crear("Ana", "ana@x.gob", domain.RolUser)

	s.Run("partial update", func() {
		nombre := "  Ana Maria  "
		rol := domain.RolModerador
		got, err := s.service.Actualizar(s.ctx, s.admin, u.ID, UpdateFields{
			Nombre: &nombre,
			Rol:    &rol,
		})
		s.Require().NoError(err)
		s.Equal("Ana Maria", got.Nombre)
		s.Equal(domain.RolModerador, got.Rol)
		s.Equal("ana@x.gob", got.Correo, "untouched field survives")
	})

	s.Run("password change rehashes", func() {
		password := "nueva-clave"
		got, err := s.service.Actualizar(s.ctx, s.admin, u.ID, UpdateFields{Password: &password})
		s.Require().NoError(err)
		s.True(got.CheckPassword("nueva-clave"))
		s.False(got.CheckPassword("secreto123"))
	})

	s.Run("invalid rol is rejected", func() {
		rol := domain.Rol("INVITADO")
		_, err := s.service.Actualizar(s.ctx, s.admin, u.ID, UpdateFields{Rol: &rol})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *UsuarioServiceSuite) TestCambiarPassword() {
	u := s.crear("Ana", "ana@x.gob", domain.RolUser)
	self := domain.Actor{ID: u.ID, Rol: u.Rol}

	s.Run("rotation requires the current password", func() {
		err := s.service.CambiarPassword(s.ctx, self, u.ID, "equivocada", "clave-nueva")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		got, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.True(got.CheckPassword("secreto123"), "failed attempt leaves the password alone")
	})

	s.Run("successful rotation", func() {
		s.Require().NoError(s.service.CambiarPassword(s.ctx, self, u.ID, "secreto123", "clave-nueva"))

		got, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.True(got.CheckPassword("clave-nueva"))
		s.False(got.CheckPassword("secreto123"))
	})

	s.Run("other accounts are off limits, even for ADMIN", func() {
		err := s.service.CambiarPassword(s.ctx, s.admin, u.ID, "clave-nueva", "otra")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *UsuarioServiceSuite) TestEliminar() {
	s.Run("deactivated usuario disappears from reads", func() {
		u := s.crear("Baja", "baja@x.gob", domain.RolUser)
		s.Require().NoError(s.service.Eliminar(s.ctx, s.admin, u.ID))

		_, err := s.store.FindByID(s.ctx, u.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		// The correo frees up for a fresh account.
		s.crear("Nueva", "baja@x.gob", domain.RolUser)
	})

	s.Run("self-deactivation is rejected", func() {
		u := s.crear("Otro Admin", "admin2@x.gob", domain.RolAdmin)
		self := domain.Actor{ID: u.ID, Rol: u.Rol}
		err := s.service.Eliminar(s.ctx, self, u.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *UsuarioServiceSuite) TestListar() {
	s.crear("Carlos", "carlos@x.gob", domain.RolUser)
	s.crear("Ana", "ana2@x.gob", domain.RolUser)

	got, err := s.service.Listar(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Ana", got[0].Nombre, "ordered by nombre")

	stranger := domain.Actor{ID: domain.NewUserID(), Rol: domain.RolUser}
	_, err = s.service.Listar(s.ctx, stranger)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
