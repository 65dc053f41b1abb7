package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishnaqnq/todo/internal/auth"
)

func newProtectedRouter(sessions *auth.Sessions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", Auth(sessions), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": Identity(c)})
	})
	return r
}

func TestAuth_RejectsMissingHeader(t *testing.T) {
	r := newProtectedRouter(auth.NewSessions("s"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_RejectsMalformedAndForgedTokens(t *testing.T) {
	r := newProtectedRouter(auth.NewSessions("s"))

	forged, err := auth.NewSessions("other-secret").Issue("user-1")
	require.NoError(t, err)

	for _, header := range []string{"Bearer garbage", "Token abc", "Bearer " + forged} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestAuth_PassesValidSession(t *testing.T) {
	sessions := auth.NewSessions("s")
	r := newProtectedRouter(sessions)

	token, err := sessions.Issue("user-1")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}
