package handler

import (
	"io"

	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/middleware"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
	"servicemarket/pkg/response"
)

const maxPatchBytes = 16 << 10

type UserHandler struct {
	userUseCase    *usecase.UserUseCase
	maxUploadBytes int64
}

func NewUserHandler(userUseCase *usecase.UserUseCase, maxUploadBytes int64) *UserHandler {
	return &UserHandler{
		userUseCase:    userUseCase,
		maxUploadBytes: maxUploadBytes,
	}
}

type deviceRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.userUseCase.GetUserProfile(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) GetUserByID(c echo.Context) error {
	user, err := h.userUseCase.GetUserProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

// UpdateProfile applies the request body as a JSON merge patch.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPatchBytes))
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read request body", err))
	}

	user, err := h.userUseCase.PatchProfile(c.Request().Context(), middleware.UserID(c), body)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) UploadAvatar(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("No file uploaded", err))
	}
	logger.Debug("Received avatar: %s, size: %d bytes, type: %s", file.Filename, file.Size, file.Header.Get("Content-Type"))

	if err := checkImage(file, h.maxUploadBytes); err != nil {
		return response.Error(c, err)
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to read uploaded file", err))
	}
	defer src.Close()

	user, err := h.userUseCase.UploadAvatar(c.Request().Context(), middleware.UserID(c), src, file.Header.Get("Content-Type"), file.Filename)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) RegisterDevice(c echo.Context) error {
	var req deviceRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.userUseCase.RegisterDevice(c.Request().Context(), middleware.UserID(c), req.Token); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}

// UnregisterDevice takes the token from the path.
func (h *UserHandler) UnregisterDevice(c echo.Context) error {
	if err := h.userUseCase.UnregisterDevice(c.Request().Context(), middleware.UserID(c), c.Param("token")); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}

func (h *UserHandler) DeleteAccount(c echo.Context) error {
	if err := h.userUseCase.DeleteAccount(c.Request().Context(), middleware.UserID(c)); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}
