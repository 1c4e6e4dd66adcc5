package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/controllers"
	"github.com/abs-valuers/abs_backend/models"
)

// Dependencies carries what the route groups are built from
type Dependencies struct {
	// Auth verifies Firebase ID tokens; LiveAuth verifies websocket tickets
	Auth     echo.MiddlewareFunc
	LiveAuth echo.MiddlewareFunc
	Device   echo.MiddlewareFunc

	Site      *controllers.SiteController
	Session   *controllers.SessionController
	Chat      *controllers.ChatController
	Tools     *controllers.ToolsController
	Dashboard *controllers.DashboardController
	Admin     *controllers.AdminController
	Live      *controllers.LiveController
}

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, d Dependencies) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.Response{Status: http.StatusOK, Message: "ABS portal API"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.Response{Status: http.StatusOK, Message: "ok"})
	})

	RegisterSiteRoutes(e, d)
	RegisterSessionRoutes(e, d)
	RegisterChatRoutes(e, d)
	RegisterToolRoutes(e, d)
	RegisterDashboardRoutes(e, d)
	RegisterAdminRoutes(e, d)
	RegisterLiveRoutes(e, d)
}
