package services

import (
	"testing"

	"carecall-http-service/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTGenerateAndExtract(t *testing.T) {
	service := NewJWTService(&config.Config{JWTSecretKey: "test-secret"})

	token, err := service.GenerateToken(42, "mweber", "dispatcher")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.DispatcherID)
	assert.Equal(t, "mweber", claims.Username)
	assert.Equal(t, "dispatcher", claims.Role)
	assert.Equal(t, "carecall-http-service", claims.Issuer)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(&config.Config{JWTSecretKey: "secret-a"})
	verifier := NewJWTService(&config.Config{JWTSecretKey: "secret-b"})

	token, err := issuer.GenerateToken(1, "mweber", "dispatcher")
	require.NoError(t, err)

	_, err = verifier.ExtractClaims(token)
	assert.Error(t, err)
}

func TestJWTRejectsGarbage(t *testing.T) {
	service := NewJWTService(&config.Config{JWTSecretKey: "test-secret"})
	_, err := service.ValidateToken("kein.echtes.token")
	assert.Error(t, err)
}
