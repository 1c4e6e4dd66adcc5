package routes

import (
	"github.com/labstack/echo/v4"
)

// RegisterSiteRoutes sets up the public marketing surface
func RegisterSiteRoutes(e *echo.Echo, d Dependencies) {
	e.GET("/theme.css", d.Site.ThemeCSS)

	site := e.Group("/api/site")
	site.GET("/config", d.Site.GetConfig)
	site.GET("/contact/qr.png", d.Site.ContactQR)

	e.POST("/api/quotes", d.Site.SubmitQuote)
}
