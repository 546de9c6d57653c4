package router

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/handler"
	"servicemarket/internal/adapter/api/middleware"
	"servicemarket/internal/infrastructure/ratelimit"
)

func SetupListingRouter(e *echo.Echo, listingHandler *handler.ListingHandler, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	services := e.Group("/v1/services")
	services.Use(authMiddleware.Authenticate)

	services.GET("", listingHandler.SearchListings)
	services.GET("/:id", listingHandler.GetListing)
	services.POST("", listingHandler.CreateListing, middleware.RateLimit(limiter, ratelimit.ActionUpload))
	services.PUT("/:id", listingHandler.UpdateListing)
	services.DELETE("/:id", listingHandler.DeleteListing)
}
