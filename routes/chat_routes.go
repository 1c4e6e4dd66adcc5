package routes

import (
	"github.com/labstack/echo/v4"
)

// RegisterChatRoutes sets up the assistant; transcripts are keyed by device, not account
func RegisterChatRoutes(e *echo.Echo, d Dependencies) {
	chat := e.Group("/api/chat")
	chat.Use(d.Device)
	chat.Use(d.Chat.RequireAI)

	chat.GET("", d.Chat.Transcript)
	chat.DELETE("", d.Chat.Clear)
	chat.POST("/messages", d.Chat.Send)
	chat.GET("/export", d.Chat.Export)
	chat.GET("/suggestions", d.Chat.Suggestions)
}
