package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/krishnaqnq/todo/internal/auth"
	"github.com/krishnaqnq/todo/internal/controller"
	"github.com/krishnaqnq/todo/internal/middleware"
)

// Deps are the constructed controllers and the session issuer the router
// assembles into the HTTP surface.
type Deps struct {
	Sessions *auth.Sessions
	Auth     *controller.AuthController
	Todos    *controller.TodoController
	Health   *controller.HealthController
}

func Router(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// Health for load balancers and K8s probes
	router.GET("/health", d.Health.Health)
	router.GET("/ready", d.Health.Ready)

	// Public: credential exchange, no session required
	api := router.Group("/api")
	api.POST("/auth/register", d.Auth.Register)
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/forgot-password", d.Auth.ForgotPassword)
	api.POST("/auth/reset-password", d.Auth.ResetPassword)

	// Protected: session required
	authed := api.Group("")
	authed.Use(middleware.Auth(d.Sessions))
	{
		authed.POST("/auth/change-password", d.Auth.ChangePassword)
		authed.GET("/todos", d.Todos.List)
		authed.POST("/todos", d.Todos.Create)
		authed.GET("/todos/:id", d.Todos.Get)
		authed.PUT("/todos/:id", d.Todos.Update)
		authed.DELETE("/todos/:id", d.Todos.Delete)
	}

	return router
}
