package controllers

import (
	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/middleware"
	"github.com/abs-valuers/abs_backend/services"
	"github.com/abs-valuers/abs_backend/websocket"
)

type LiveController struct {
	hub     *websocket.Hub
	views   *services.ViewService
	records *services.RecordService
}

func NewLiveController(hub *websocket.Hub, views *services.ViewService, records *services.RecordService) *LiveController {
	return &LiveController{hub: hub, views: views, records: records}
}

// Live streams a gated view over a websocket
func (lc *LiveController) Live(c echo.Context) error {
	spec, err := services.LookupView(c.Param("view"))
	if err != nil {
		return respondError(c, err)
	}
	return websocket.HandleLive(c, lc.hub, lc.views, lc.records, spec, middleware.AppContextFrom(c).Session)
}
