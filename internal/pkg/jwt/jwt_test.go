package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")

	token, exp, err := svc.GenerateAccessToken("user-1", "hr@example.com", RoleHRAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Positive(t, exp)

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	role, ok := decoded.Get("role")
	require.True(t, ok)
	assert.Equal(t, "hr_admin", role)
}

func TestGenerateAccessToken_BadDuration(t *testing.T) {
	svc := NewJWTService("test-secret", "soon")
	_, _, err := svc.GenerateAccessToken("user-1", "hr@example.com", RoleHRUser)
	assert.Error(t, err)
}

func TestRole(t *testing.T) {
	assert.True(t, RoleHRAdmin.IsAdmin())
	assert.False(t, RoleHRManager.IsAdmin())
	assert.True(t, RoleHRUser.Valid())
	assert.False(t, Role("employee").Valid())
}
