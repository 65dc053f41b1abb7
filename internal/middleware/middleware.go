package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/krishnaqnq/todo/internal/auth"
	"github.com/krishnaqnq/todo/pkg/logger"
)

// UserKey is the gin context key under which the authenticated user id is
// stored by Auth.
const UserKey = "user"

// Auth is the authorization gate's entry point: it resolves the caller's
// identity from the bearer token and rejects the request with 401 before any
// store is touched when there is none.
func Auth(sessions *auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if header == "" || !strings.HasPrefix(header, prefix) {
			logger.Debug(ctx, "Missing or invalid Authorization header")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		token := strings.TrimSpace(header[len(prefix):])
		userID, ok := sessions.Resolve(token)
		if !ok {
			logger.Debug(ctx, "Session resolution failed")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		c.Set(UserKey, userID)
		c.Next()
	}
}

// Identity returns the authenticated user id set by Auth, or "" when absent.
func Identity(c *gin.Context) string {
	v, _ := c.Get(UserKey)
	id, _ := v.(string)
	return id
}
