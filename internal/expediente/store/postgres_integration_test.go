//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"expedientes/internal/expediente/models"
	usuariomodels "expedientes/internal/usuario/models"
	usuariostore "expedientes/internal/usuario/store"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
	"expedientes/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
	owner domain.UserID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T(), "../../../migrations")
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.pg.TruncateTables(s.ctx))
	s.store = NewPostgres(s.pg.DB)

	u, err := usuariomodels.NewUsuario("Ana Perez", "ana@fiscalia.gob", "secreto123",
		domain.RolUser, 4, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(usuariostore.NewPostgres(s.pg.DB).Save(s.ctx, u))
	s.owner = u.ID
}

func (s *PostgresStoreSuite) newExpediente(numero string) *models.Expediente {
	exp, err := models.NewExpediente(numero, "caso de prueba", s.owner, time.Now().UTC())
	s.Require().NoError(err)
	return exp
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	exp := s.newExpediente("EXP-2026-001")
	s.Require().NoError(s.store.Save(s.ctx, exp))

	found, err := s.store.FindByID(s.ctx, exp.ID)
	s.Require().NoError(err)
	s.Equal(exp.NumeroExpediente, found.NumeroExpediente)
	s.Equal(models.EstadoBorrador, found.Estado)
	s.Equal(s.owner, found.UsuarioRegistroID)
}

func (s *PostgresStoreSuite) TestNumeroUniqueness() {
	s.Run("case-insensitive duplicate rejected by the partial index", func() {
		s.Require().NoError(s.store.Save(s.ctx, s.newExpediente("EXP-A")))
		err := s.store.Save(s.ctx, s.newExpediente("exp-a"))
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicate))
	})

	s.Run("numero frees up after soft delete", func() {
		exp := s.newExpediente("EXP-B")
		s.Require().NoError(s.store.Save(s.ctx, exp))

		_, err := s.store.Execute(s.ctx, exp.ID, nil,
			func(_ context.Context, e *models.Expediente) error {
				e.IsActive = false
				return nil
			})
		s.Require().NoError(err)

		s.NoError(s.store.Save(s.ctx, s.newExpediente("EXP-B")))
	})
}

func (s *PostgresStoreSuite) TestListFiltersByOwner() {
	other, err := usuariomodels.NewUsuario("Luis", "luis@fiscalia.gob", "secreto123",
		domain.RolUser, 4, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(usuariostore.NewPostgres(s.pg.DB).Save(s.ctx, other))

	s.Require().NoError(s.store.Save(s.ctx, s.newExpediente("EXP-MINE")))
	theirs, err := models.NewExpediente("EXP-THEIRS", "", other.ID, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(s.ctx, theirs))

	all, err := s.store.List(s.ctx, ListFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	owned, err := s.store.List(s.ctx, ListFilter{OwnerID: &s.owner})
	s.Require().NoError(err)
	s.Require().Len(owned, 1)
	s.Equal("EXP-MINE", owned[0].NumeroExpediente)
}

// TestExecuteSerializesConcurrentDecisions drives two competing decisions
// through SELECT FOR UPDATE; the row lock forces the second transaction to
// see the already-decided state and fail its guard.
func (s *PostgresStoreSuite) TestExecuteSerializesConcurrentDecisions() {
	exp := s.newExpediente("EXP-RACE")
	exp.AplicarEnvioARevision(time.Now().UTC())
	s.Require().NoError(s.store.Save(s.ctx, exp))

	coordinador := s.owner
	decide := func(estado models.Estado) error {
		_, err := s.store.Execute(s.ctx, exp.ID,
			func(_ context.Context, e *models.Expediente) error {
				if !e.Estado.PuedeDecidir() {
					return dErrors.New(dErrors.CodeInvalidState, "already decided")
				}
				return nil
			},
			func(_ context.Context, e *models.Expediente) error {
				e.AplicarDecision(estado, coordinador, "decision de prueba", time.Now().UTC())
				return nil
			})
		return err
	}

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, estado := range []models.Estado{models.EstadoAprobado, models.EstadoRechazado} {
		wg.Add(1)
		go func(estado models.Estado) {
			defer wg.Done()
			results <- decide(estado)
		}(estado)
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case dErrors.HasCode(err, dErrors.CodeInvalidState):
			losses++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, wins, "exactly one decision lands")
	s.Equal(1, losses)

	found, err := s.store.FindByID(s.ctx, exp.ID)
	s.Require().NoError(err)
	s.True(found.Estado == models.EstadoAprobado || found.Estado == models.EstadoRechazado)
}
