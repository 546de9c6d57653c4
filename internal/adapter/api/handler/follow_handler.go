package handler

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/middleware"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/response"
)

type FollowHandler struct {
	followUseCase *usecase.FollowUseCase
}

func NewFollowHandler(followUseCase *usecase.FollowUseCase) *FollowHandler {
	return &FollowHandler{
		followUseCase: followUseCase,
	}
}

type followResponse struct {
	Following bool `json:"following"`
	Changed   bool `json:"changed"`
}

func (h *FollowHandler) Follow(c echo.Context) error {
	changed, err := h.followUseCase.Follow(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, followResponse{Following: true, Changed: changed})
}

func (h *FollowHandler) Unfollow(c echo.Context) error {
	changed, err := h.followUseCase.Unfollow(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, followResponse{Following: false, Changed: changed})
}

func (h *FollowHandler) IsFollowing(c echo.Context) error {
	following, err := h.followUseCase.IsFollowing(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, followResponse{Following: following})
}

func (h *FollowHandler) Followers(c echo.Context) error {
	follows, err := h.followUseCase.Followers(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, follows)
}

func (h *FollowHandler) Following(c echo.Context) error {
	follows, err := h.followUseCase.Following(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, follows)
}
