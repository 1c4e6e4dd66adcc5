package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/middleware"
	"github.com/abs-valuers/abs_backend/security"
)

// RegisterAdminRoutes sets up all admin-panel routes
func RegisterAdminRoutes(e *echo.Echo, d Dependencies) {
	admin := e.Group("/api/admin")
	admin.Use(d.Auth)

	// List views answer with the restricted fallback themselves
	admin.GET("/apps", d.Admin.Apps)
	admin.GET("/worklogs", d.Admin.WorkLogs)
	admin.GET("/market", d.Admin.MarketFeed)
	admin.GET("/users", d.Admin.Users)
	admin.GET("/capabilities", d.Admin.Capabilities)

	admin.POST("/apps", d.Admin.CreateApp)
	admin.DELETE("/apps/:id", d.Admin.DeleteApp)
	admin.DELETE("/worklogs/:id", d.Admin.DeleteWorkLog)
	admin.DELETE("/market/:id", d.Admin.DeleteMarketRecord)
	admin.PUT("/users/:email/role", d.Admin.UpdateRole)
	admin.DELETE("/users/:email", d.Admin.DeletePermission)

	site := admin.Group("/site")
	site.Use(middleware.RequireCapability(security.EditSiteConfig))
	site.PATCH("/:section", d.Site.UpdateSection)
	site.POST("/reset", d.Site.Reset)
	site.POST("/hero-image", d.Site.UploadHeroImage)
}
