package routes

import (
	"github.com/labstack/echo/v4"
)

func RegisterSessionRoutes(e *echo.Echo, d Dependencies) {
	session := e.Group("/api/session")
	session.Use(d.Auth)
	session.GET("", d.Session.Me)
	session.POST("/logout", d.Session.Logout)
	session.POST("/ws-ticket", d.Session.LiveTicket)
}
