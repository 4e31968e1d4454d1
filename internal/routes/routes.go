package routes

import (
	"github.com/gin-gonic/gin"

	"hooshmetr/internal/handlers"
	"hooshmetr/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	gate *middleware.AuthGate,
	limiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
) *gin.Engine {
	api := r.Group("/api", limiter.Limit())

	// ---- public
	auth := api.Group("/auth")
	{
		auth.POST("/send-code", authHandler.SendCode)
		auth.POST("/verify", authHandler.VerifyCode)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
	}

	// ---- authenticated
	users := api.Group("/users", gate.RequireAuth())
	{
		users.GET("/me", userHandler.Me)
		users.PUT("/me", userHandler.UpdateMe)

		admin := users.Group("", middleware.RequireAdmin())
		{
			admin.GET("", userHandler.List)
			admin.PUT("/:id/active", userHandler.SetActive)
		}
	}

	return r
}
