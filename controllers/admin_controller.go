package controllers

import (
	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/middleware"
	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/security"
	"github.com/abs-valuers/abs_backend/services"
)

// AdminController serves the admin panel lists and their actions
type AdminController struct {
	views   *services.ViewService
	records *services.RecordService
}

func NewAdminController(views *services.ViewService, records *services.RecordService) *AdminController {
	return &AdminController{views: views, records: records}
}

func (ac *AdminController) Apps(c echo.Context) error {
	return viewHandler(ac.views, services.ViewAdminApps)(c)
}

func (ac *AdminController) WorkLogs(c echo.Context) error {
	return viewHandler(ac.views, services.ViewWorkLedger)(c)
}

func (ac *AdminController) MarketFeed(c echo.Context) error {
	return viewHandler(ac.views, services.ViewMarketFeed)(c)
}

func (ac *AdminController) Users(c echo.Context) error {
	return viewHandler(ac.views, services.ViewUsers)(c)
}

func (ac *AdminController) CreateApp(c echo.Context) error {
	var req models.CreateAppRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	app, err := ac.records.CreateApp(c.Request().Context(), middleware.AppContextFrom(c).Session, req)
	if err != nil {
		return respondError(c, err)
	}
	return created(c, "App added", app)
}

func (ac *AdminController) DeleteApp(c echo.Context) error {
	if err := ac.records.DeleteApp(c.Request().Context(), middleware.AppContextFrom(c).Session, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return ok(c, "App removed", nil)
}

func (ac *AdminController) DeleteWorkLog(c echo.Context) error {
	if err := ac.records.DeleteWorkLog(c.Request().Context(), middleware.AppContextFrom(c).Session, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return ok(c, "Work log removed", nil)
}

func (ac *AdminController) DeleteMarketRecord(c echo.Context) error {
	if err := ac.records.DeleteMarketRecord(c.Request().Context(), middleware.AppContextFrom(c).Session, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return ok(c, "Survey record removed", nil)
}

func (ac *AdminController) UpdateRole(c echo.Context) error {
	var req models.UpdateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := ac.records.UpdateRole(c.Request().Context(), middleware.AppContextFrom(c).Session, c.Param("email"), req.Role); err != nil {
		return respondError(c, err)
	}
	return ok(c, "Role updated", map[string]interface{}{"email": models.NormalizeEmail(c.Param("email")), "role": req.Role})
}

func (ac *AdminController) DeletePermission(c echo.Context) error {
	if err := ac.records.DeletePermission(c.Request().Context(), middleware.AppContextFrom(c).Session, c.Param("email")); err != nil {
		return respondError(c, err)
	}
	return ok(c, "Access revoked", nil)
}

// Capabilities lists what every role may do
func (ac *AdminController) Capabilities(c echo.Context) error {
	return ok(c, "Capability matrix", security.Matrix())
}
