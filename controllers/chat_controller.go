package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/middleware"
	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/services"
)

type ChatController struct {
	chat   *services.ChatService
	config *services.ConfigStore
}

func NewChatController(chat *services.ChatService, config *services.ConfigStore) *ChatController {
	return &ChatController{chat: chat, config: config}
}

// RequireAI hides the chat routes while the assistant is switched off
func (cc *ChatController) RequireAI(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !cc.config.Current().Features.EnableAI {
			return respondError(c, fmt.Errorf("assistant: %w", services.ErrFeatureDisabled))
		}
		return next(c)
	}
}

func (cc *ChatController) Transcript(c echo.Context) error {
	return ok(c, "Chat transcript", cc.chat.Transcript(c.Request().Context(), middleware.DeviceFrom(c)))
}

// Send answers with the whole transcript, including an error-marked reply
// when the assistant could not be reached.
func (cc *ChatController) Send(c echo.Context) error {
	var req models.SendChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	msgs, err := cc.chat.Send(c.Request().Context(), middleware.DeviceFrom(c), req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Message sent", msgs)
}

func (cc *ChatController) Clear(c echo.Context) error {
	msgs, err := cc.chat.Clear(c.Request().Context(), middleware.DeviceFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Chat cleared", msgs)
}

func (cc *ChatController) Export(c echo.Context) error {
	text := cc.chat.Export(c.Request().Context(), middleware.DeviceFrom(c))
	name := fmt.Sprintf("abs-chat-history-%s.txt", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (cc *ChatController) Suggestions(c echo.Context) error {
	return ok(c, "Suggested questions", services.SuggestedQuestions)
}
