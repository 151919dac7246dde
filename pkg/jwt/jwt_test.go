package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "clave-de-prueba"

func TestParse_RoundTrip(t *testing.T) {
	tok, err := Generate(secret, "u1", "c1", RoleBodeguero, "auth", 5)
	require.NoError(t, err)

	claims, err := Parse(secret, "auth", tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "c1", claims.CompanyID)
	assert.True(t, claims.HasRole(RoleAdmin, RoleBodeguero))
	assert.False(t, claims.HasRole(RoleAdmin))
}

func TestParse_Rechazos(t *testing.T) {
	tok, err := Generate(secret, "u1", "c1", RoleAdmin, "auth", 5)
	require.NoError(t, err)

	_, err = Parse("otra-clave", "auth", tok)
	assert.Error(t, err, "firma incorrecta")

	_, err = Parse(secret, "otro-emisor", tok)
	assert.Error(t, err, "emisor incorrecto")

	expired, err := Generate(secret, "u1", "c1", RoleAdmin, "auth", -1)
	require.NoError(t, err)
	_, err = Parse(secret, "auth", expired)
	assert.Error(t, err, "expirado")

	noCompany, err := Generate(secret, "u1", "", RoleAdmin, "auth", 5)
	require.NoError(t, err)
	_, err = Parse(secret, "auth", noCompany)
	assert.ErrorIs(t, err, ErrMissingClaims)
}
