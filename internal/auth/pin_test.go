package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPIN(t *testing.T) {
	hash, err := HashPIN("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", hash)

	assert.True(t, CheckPIN("1234", hash))
	assert.False(t, CheckPIN("4321", hash))
	assert.False(t, CheckPIN("", hash))
}

func TestHashPINRejectsInvalidInput(t *testing.T) {
	for _, pin := range []string{"", "12", "12345", "abcd", "12a4", "١٢٣٤"} {
		_, err := HashPIN(pin)
		assert.Error(t, err, "pin %q", pin)
	}
}
