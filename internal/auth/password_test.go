package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_HashNeverEqualsPlaintext(t *testing.T) {
	h := NewHasher()
	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
}

func TestHasher_SaltingProducesDifferentHashes(t *testing.T) {
	h := NewHasher()
	h1, err := h.Hash("secret1")
	require.NoError(t, err)
	h2, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, h.Verify("secret1", h1))
	assert.True(t, h.Verify("secret1", h2))
}

func TestHasher_VerifyRejectsWrongPassword(t *testing.T) {
	h := NewHasher()
	hash, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.False(t, h.Verify("wrong", hash))
	assert.False(t, h.Verify("", hash))
}
