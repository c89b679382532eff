package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Secret123!")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123!", hash)

	assert.True(t, VerifyPassword(hash, "Secret123!"))
	assert.False(t, VerifyPassword(hash, "secret123!"))

	other, err := HashPassword("Secret123!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		want     error
	}{
		{"Test123!@#", nil},
		{"SecureP@ss1", nil},
		{"Pass1!", ErrPasswordTooShort},
		{"test123!@#", ErrPasswordNoUpper},
		{"TEST123!@#", ErrPasswordNoLower},
		{"TestPass!@#", ErrPasswordNoNumber},
		{"TestPass123", ErrPasswordNoSpecialChar},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePasswordStrength(tt.password))
		})
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("refresh-token")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashToken("refresh-token"))
	assert.NotEqual(t, a, HashToken("refresh-token-2"))
}
