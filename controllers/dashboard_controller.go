package controllers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/middleware"
	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/services"
)

// DashboardController serves the signed-in user's dashboard and survey terminal
type DashboardController struct {
	views    *services.ViewService
	records  *services.RecordService
	geocoder *services.Geocoder
}

func NewDashboardController(views *services.ViewService, records *services.RecordService, geocoder *services.Geocoder) *DashboardController {
	return &DashboardController{views: views, records: records, geocoder: geocoder}
}

func (dc *DashboardController) AppDirectory(c echo.Context) error {
	return viewHandler(dc.views, services.ViewAppDirectory)(c)
}

func (dc *DashboardController) MarketRecords(c echo.Context) error {
	return viewHandler(dc.views, services.ViewMarketMap)(c)
}

func (dc *DashboardController) Markers(c echo.Context) error {
	frame, found, err := snapshot(c, dc.views, services.ViewMarketMap)
	if !found {
		return err
	}
	records, _ := frame.Records.([]models.PropertyRecord)
	return ok(c, "Markers", services.Markers(records))
}

func (dc *DashboardController) CreateMarketRecord(c echo.Context) error {
	var req models.CreatePropertyRecordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	rec, err := dc.records.CreateMarketRecord(c.Request().Context(), middleware.AppContextFrom(c).Session, req)
	if err != nil {
		return respondError(c, err)
	}
	return created(c, "Survey data logged", rec)
}

// Geocode prefills the area and city of a picked map location
func (dc *DashboardController) Geocode(c echo.Context) error {
	lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if errLat != nil || errLng != nil || math.IsNaN(lat) || math.IsNaN(lng) ||
		lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fail(c, http.StatusBadRequest, "lat and lng must be valid coordinates")
	}
	place, err := dc.geocoder.Reverse(c.Request().Context(), lat, lng)
	if err != nil {
		c.Logger().Warnf("reverse geocode %f,%f: %v", lat, lng, err)
		return fail(c, http.StatusBadGateway, "Location lookup failed. Enter the area manually.")
	}
	return ok(c, "Location resolved", place)
}

func (dc *DashboardController) CreateWorkLog(c echo.Context) error {
	var req models.CreateWorkLogRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	entry, err := dc.records.CreateWorkLog(c.Request().Context(), middleware.AppContextFrom(c).Session, req)
	if err != nil {
		return respondError(c, err)
	}
	return created(c, "Work activity recorded", entry)
}
