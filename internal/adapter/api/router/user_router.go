package router

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/handler"
	"servicemarket/internal/adapter/api/middleware"
	"servicemarket/internal/infrastructure/ratelimit"
)

func SetupUserRouter(
	e *echo.Echo,
	userHandler *handler.UserHandler,
	followHandler *handler.FollowHandler,
	listingHandler *handler.ListingHandler,
	authMiddleware *middleware.AuthMiddleware,
	limiter *ratelimit.RateLimiter,
) {
	users := e.Group("/v1/users")
	users.Use(authMiddleware.Authenticate)

	// Static /me routes are matched before /:id by echo's router.
	users.GET("/me", userHandler.GetProfile)
	users.PATCH("/me", userHandler.UpdateProfile)
	users.DELETE("/me", userHandler.DeleteAccount)
	users.POST("/me/avatar", userHandler.UploadAvatar, middleware.RateLimit(limiter, ratelimit.ActionUpload))
	users.POST("/me/devices", userHandler.RegisterDevice)
	users.DELETE("/me/devices/:token", userHandler.UnregisterDevice)

	users.GET("/:id", userHandler.GetUserByID)
	users.GET("/:id/services", listingHandler.ListByProvider)

	users.POST("/:id/follow", followHandler.Follow)
	users.DELETE("/:id/follow", followHandler.Unfollow)
	users.GET("/:id/follow", followHandler.IsFollowing)
	users.GET("/:id/followers", followHandler.Followers)
	users.GET("/:id/following", followHandler.Following)
}
