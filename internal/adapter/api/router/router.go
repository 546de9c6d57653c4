package router

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/handler"
	"servicemarket/internal/adapter/api/middleware"
	"servicemarket/internal/infrastructure/ratelimit"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Listing   *handler.ListingHandler
	Follow    *handler.FollowHandler
	Chat      *handler.ChatHandler
	WebSocket *handler.WebSocketHandler
	Health    *handler.HealthHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	SetupAuthRouter(e, h.Auth, authMiddleware, limiter)
	SetupUserRouter(e, h.User, h.Follow, h.Listing, authMiddleware, limiter)
	SetupListingRouter(e, h.Listing, authMiddleware, limiter)
	SetupChatRouter(e, h.Chat, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket, authMiddleware)
	SetupHealthRouter(e, h.Health)
}
