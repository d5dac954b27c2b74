package token

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecretShape(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	assert.Len(t, secret, SecretBytes*2)
	_, err = hex.DecodeString(secret)
	assert.NoError(t, err, "secret must be valid hex")
}

func TestGenerateSecretUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		secret, err := GenerateSecret()
		require.NoError(t, err)
		_, dup := seen[secret]
		require.False(t, dup, "secrets must not repeat")
		seen[secret] = struct{}{}
	}
}

func TestHashSecretDeterministic(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	first := HashSecret(secret)
	second := HashSecret(secret)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.NotEqual(t, secret, first, "digest must not echo the secret")

	other, err := GenerateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, first, HashSecret(other))
}
