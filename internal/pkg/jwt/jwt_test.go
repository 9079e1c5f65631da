package jwt

import (
	"context"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken_RoundTripsClaims(t *testing.T) {
	svc, err := NewJWTService("test-secret-key-for-jwt", "1h")
	require.NoError(t, err)

	token, exp, err := svc.GenerateAccessToken(Claims{UserID: "u-1", CompanyID: "c-1", Role: RoleSupervisor})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, exp, int64(0))

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)

	ctx := jwtauth.NewContext(context.Background(), decoded, nil)
	claims, err := ClaimsFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c-1", claims.CompanyID)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, RoleSupervisor, claims.Role)
}

func TestNewJWTService_InvalidExpiration(t *testing.T) {
	_, err := NewJWTService("secret", "soon")
	assert.Error(t, err)
}

func TestClaims_HasRole(t *testing.T) {
	assert.True(t, Claims{Role: RoleAdmin}.HasRole(RoleSupervisor))
	assert.True(t, Claims{Role: RoleSupervisor}.HasRole(RoleSupervisor))
	assert.False(t, Claims{Role: RoleTechnician}.HasRole(RoleSupervisor))
	assert.False(t, Claims{Role: "unknown"}.HasRole(RoleTechnician))
}

func TestClaimsFromContext_NoToken(t *testing.T) {
	_, err := ClaimsFromContext(context.Background())
	assert.ErrorIs(t, err, ErrMissingClaims)
}
