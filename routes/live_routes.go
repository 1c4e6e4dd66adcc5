package routes

import (
	"github.com/labstack/echo/v4"
)

// RegisterLiveRoutes sets up the websocket endpoint of the live views
func RegisterLiveRoutes(e *echo.Echo, d Dependencies) {
	e.GET("/api/live/:view", d.Live.Live, d.LiveAuth)
}
