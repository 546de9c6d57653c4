package router

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/handler"
	"servicemarket/internal/adapter/api/middleware"
	"servicemarket/internal/infrastructure/ratelimit"
)

// SetupAuthRouter initializes auth routes
func SetupAuthRouter(e *echo.Echo, authHandler *handler.AuthHandler, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	auth := e.Group("/v1/auth")
	authLimit := middleware.RateLimit(limiter, ratelimit.ActionAuth)

	// Public routes
	auth.POST("/register", authHandler.Register, authLimit)
	auth.POST("/login", authHandler.Login, authLimit)
	auth.POST("/refresh", authHandler.RefreshToken, authLimit)

	// Protected routes
	auth.PUT("/password", authHandler.ChangePassword, authMiddleware.Authenticate, authLimit)
}
