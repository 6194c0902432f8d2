package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

func TestNewExpediente(t *testing.T) {
	owner := domain.NewUserID()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("builds an active draft", func(t *testing.T) {
		exp, err := NewExpediente("  EXP-2026-001  ", "robo agravado", owner, now)
		require.NoError(t, err)

		assert.Equal(t, "EXP-2026-001", exp.NumeroExpediente, "numero is trimmed")
		assert.Equal(t, EstadoBorrador, exp.Estado)
		assert.Equal(t, owner, exp.UsuarioRegistroID)
		assert.True(t, exp.IsActive)
		assert.Equal(t, now, exp.FechaRegistro)
		assert.Nil(t, exp.CoordinadorID)
		assert.Nil(t, exp.FechaRevision)
	})

	t.Run("rejects missing numero", func(t *testing.T) {
		_, err := NewExpediente("   ", "desc", owner, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects oversized fields", func(t *testing.T) {
		_, err := NewExpediente(strings.Repeat("x", MaxNumeroExpedienteLen+1), "", owner, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = NewExpediente("EXP-1", strings.Repeat("x", MaxDescripcionLen+1), owner, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects missing owner", func(t *testing.T) {
		_, err := NewExpediente("EXP-1", "", domain.UserID{}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestAplicarDecision(t *testing.T) {
	owner := domain.NewUserID()
	coordinador := domain.NewUserID()
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	decided := created.Add(2 * time.Hour)

	exp, err := NewExpediente("EXP-1", "", owner, created)
	require.NoError(t, err)
	exp.AplicarEnvioARevision(created.Add(time.Hour))
	require.Equal(t, EstadoEnRevision, exp.Estado)

	exp.AplicarDecision(EstadoRechazado, coordinador, "faltan indicios", decided)
	assert.Equal(t, EstadoRechazado, exp.Estado)
	require.NotNil(t, exp.CoordinadorID)
	assert.Equal(t, coordinador, *exp.CoordinadorID)
	assert.Equal(t, "faltan indicios", exp.ComentariosRevision)
	require.NotNil(t, exp.FechaRevision)
	assert.Equal(t, decided, *exp.FechaRevision)

	// A later decision replaces the previous outcome wholesale.
	second := domain.NewUserID()
	exp.AplicarDecision(EstadoAprobado, second, "", decided.Add(time.Hour))
	assert.Equal(t, EstadoAprobado, exp.Estado)
	assert.Equal(t, second, *exp.CoordinadorID)
	assert.Empty(t, exp.ComentariosRevision, "comentarios are overwritten, not accumulated")
}
