package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/middleware"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
	now         func() time.Time
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
		now:         time.Now,
	}
}

type contactProviderRequest struct {
	ServiceID string `json:"service_id" validate:"required"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type chatListResponse struct {
	Chats       []usecase.ChatResponse `json:"chats"`
	UnreadTotal int                    `json:"unread_total"`
}

// ContactProvider answers 201 for a new chat and 200 when an existing one
// is reused.
func (h *ChatHandler) ContactProvider(c echo.Context) error {
	var req contactProviderRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, created, err := h.chatUseCase.ContactProvider(c.Request().Context(), middleware.UserID(c), req.ServiceID)
	if err != nil {
		return response.Error(c, err)
	}
	if created {
		return response.Created(c, chat)
	}
	return response.Success(c, chat)
}

func (h *ChatHandler) GetUserChats(c echo.Context) error {
	chats, unread, err := h.chatUseCase.ListChats(c.Request().Context(), middleware.UserID(c), c.QueryParam("q"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, chatListResponse{Chats: chats, UnreadTotal: unread})
}

func (h *ChatHandler) GetChatByID(c echo.Context) error {
	chat, err := h.chatUseCase.GetChat(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, chat)
}

func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	views, err := h.chatUseCase.GetMessages(c.Request().Context(), middleware.UserID(c), c.Param("id"), h.now())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, views)
}

// SendMessage answers 204 when the text is blank and nothing was sent.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), middleware.UserID(c), c.Param("id"), req.Text)
	if err != nil {
		return response.Error(c, err)
	}
	if message == nil {
		return response.NoContent(c)
	}
	return response.Created(c, message)
}

func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	if err := h.chatUseCase.MarkRead(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}
