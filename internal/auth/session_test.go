package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_IssueAndResolve(t *testing.T) {
	s := NewSessions("test-secret")
	token, err := s.Issue("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, ok := s.Resolve(token)
	require.True(t, ok)
	assert.Equal(t, "user-123", userID)
}

func TestSessions_ResolveRejectsWrongSecret(t *testing.T) {
	token, err := NewSessions("secret-a").Issue("user-123")
	require.NoError(t, err)

	_, ok := NewSessions("secret-b").Resolve(token)
	assert.False(t, ok)
}

func TestSessions_ResolveRejectsExpired(t *testing.T) {
	s := NewSessions("test-secret")
	s.ttl = -time.Minute
	token, err := s.Issue("user-123")
	require.NoError(t, err)

	_, ok := NewSessions("test-secret").Resolve(token)
	assert.False(t, ok)
}

func TestSessions_ResolveRejectsGarbage(t *testing.T) {
	s := NewSessions("test-secret")
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, ok := s.Resolve(token)
		assert.False(t, ok, "token %q should not resolve", token)
	}
}
