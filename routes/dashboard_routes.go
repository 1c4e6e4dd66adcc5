package routes

import (
	"github.com/labstack/echo/v4"
)

// RegisterDashboardRoutes sets up the routes of any signed-in user; the
// capability check inside each view decides what the role may see.
func RegisterDashboardRoutes(e *echo.Echo, d Dependencies) {
	api := e.Group("/api")
	api.Use(d.Auth)

	api.GET("/apps", d.Dashboard.AppDirectory)

	market := api.Group("/market")
	market.GET("/records", d.Dashboard.MarketRecords)
	market.POST("/records", d.Dashboard.CreateMarketRecord)
	market.GET("/markers", d.Dashboard.Markers)
	market.GET("/geocode", d.Dashboard.Geocode)

	api.POST("/worklogs", d.Dashboard.CreateWorkLog)
}
