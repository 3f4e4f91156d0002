package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	staffID := uuid.New()

	token, err := svc.Generate(staffID, "Dr. Patel", "dentist")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, staffID, claims.StaffID)
	assert.Equal(t, "Dr. Patel", claims.StaffName)
	assert.Equal(t, "dentist", claims.Role)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a", time.Hour).Generate(uuid.New(), "Dr. Patel", "dentist")
	require.NoError(t, err)

	_, err = NewTokenService("secret-b", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewTokenService("secret", time.Hour).Verify("not.a.token")
	assert.Error(t, err)
}
