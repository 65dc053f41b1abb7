package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/krishnaqnq/todo/internal/database"
)

// HealthController serves liveness and readiness probes.
type HealthController struct {
	pool *database.Pool
}

func NewHealthController(pool *database.Pool) *HealthController {
	return &HealthController{pool: pool}
}

// Health returns 200 if the process is alive. Used by load balancers.
func (hc *HealthController) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns 200 if the database is reachable.
func (hc *HealthController) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	db, err := hc.pool.Get(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
		return
	}
	if err := db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database ping failed"})
		return
	}
	c.String(http.StatusOK, "OK")
}
