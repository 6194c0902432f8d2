package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expedientes/internal/usuario/models"
	"expedientes/pkg/domain"
	dErrors "expedientes/pkg/domain-errors"
)

func testUsuario(t *testing.T) *models.Usuario {
	t.Helper()
	u, err := models.NewUsuario("Ana Perez", "ana@fiscalia.gob", "secreto123",
		domain.RolModerador, 4, time.Now())
	require.NoError(t, err)
	return u
}

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-signing-key", "expedientes", time.Hour)
	u := testUsuario(t)
	now := time.Now()

	signed, err := svc.Generate(u, now)
	require.NoError(t, err)

	claims, err := svc.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, u.Correo, claims.Correo)
	assert.Equal(t, string(domain.RolModerador), claims.Rol)
	assert.Equal(t, "expedientes", claims.Issuer)

	actor, err := svc.ValidateActor(signed)
	require.NoError(t, err)
	assert.Equal(t, u.ID, actor.ID)
	assert.Equal(t, domain.RolModerador, actor.Rol)
}

func TestValidateRejections(t *testing.T) {
	svc := NewService("test-signing-key", "expedientes", time.Hour)
	u := testUsuario(t)

	t.Run("expired token", func(t *testing.T) {
		signed, err := svc.Generate(u, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)

		_, err = svc.Validate(signed)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewService("another-key", "expedientes", time.Hour)
		signed, err := other.Generate(u, time.Now())
		require.NoError(t, err)

		_, err = svc.Validate(signed)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := svc.Validate("not.a.token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestClaimsActorValidation(t *testing.T) {
	t.Run("bad user id", func(t *testing.T) {
		c := &Claims{UserID: "not-a-uuid", Rol: "USER"}
		_, err := c.Actor()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("bad rol", func(t *testing.T) {
		c := &Claims{UserID: domain.NewUserID().String(), Rol: "SUPREMO"}
		_, err := c.Actor()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
