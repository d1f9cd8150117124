package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	assert.Len(t, strings.Split(hash, "$"), 6)

	// Same password must produce a different hash because of the random salt
	second, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, hash, second)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("swordfish")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
		wantErr  bool
	}{
		{"correct password", "swordfish", hash, true, false},
		{"wrong password", "not-swordfish", hash, false, false},
		{"malformed hash", "swordfish", "$argon2id$v=19$m=65536", false, true},
		{"wrong algorithm prefix", "swordfish", "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA", false, true},
		{"bad base64 salt", "swordfish", "$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyPassword(tt.password, tt.hash)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestGenerateSecureToken(t *testing.T) {
	token, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	other, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
