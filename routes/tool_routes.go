package routes

import (
	"github.com/labstack/echo/v4"
)

func RegisterToolRoutes(e *echo.Echo, d Dependencies) {
	tools := e.Group("/api/tools")

	tools.GET("/area/units", d.Tools.AreaUnits)
	tools.POST("/area/convert", d.Tools.ConvertArea)
	tools.POST("/emi", d.Tools.EMI)

	notes := tools.Group("/notes")
	notes.Use(d.Device)
	notes.GET("", d.Tools.Notes)
	notes.POST("", d.Tools.AddNote)
	notes.DELETE("", d.Tools.ClearNotes)
}
