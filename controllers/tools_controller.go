package controllers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/calculators"
	"github.com/abs-valuers/abs_backend/middleware"
	"github.com/abs-valuers/abs_backend/repositories"
)

type ToolsController struct {
	store repositories.DeviceStore
}

func NewToolsController(store repositories.DeviceStore) *ToolsController {
	return &ToolsController{store: store}
}

type ConvertAreaRequest struct {
	Value float64 `json:"value" validate:"gte=0"`
	From  string  `json:"from" validate:"required"`
	To    string  `json:"to" validate:"required"`
}

type ConvertAreaResponse struct {
	Value  float64 `json:"value"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Result float64 `json:"result"`
}

type AddNoteRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

func (tc *ToolsController) AreaUnits(c echo.Context) error {
	return ok(c, "Area units", calculators.Units)
}

func (tc *ToolsController) ConvertArea(c echo.Context) error {
	var req ConvertAreaRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := calculators.ConvertArea(req.Value, req.From, req.To)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Converted", ConvertAreaResponse{Value: req.Value, From: req.From, To: req.To, Result: result})
}

func (tc *ToolsController) EMI(c echo.Context) error {
	var loan calculators.Loan
	if err := bindAndValidate(c, &loan); err != nil {
		return err
	}
	res, err := calculators.EMI(loan)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "EMI calculated", res)
}

// Notes is the device-local survey scratch pad, newest first
func (tc *ToolsController) Notes(c echo.Context) error {
	notes, err := tc.store.Notes(c.Request().Context(), middleware.DeviceFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Notes", notes)
}

func (tc *ToolsController) AddNote(c echo.Context) error {
	var req AddNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return fail(c, http.StatusBadRequest, "Note is empty")
	}
	device := middleware.DeviceFrom(c)
	if err := tc.store.PushNote(c.Request().Context(), device, text); err != nil {
		return respondError(c, err)
	}
	return tc.Notes(c)
}

func (tc *ToolsController) ClearNotes(c echo.Context) error {
	if err := tc.store.ClearNotes(c.Request().Context(), middleware.DeviceFrom(c)); err != nil {
		return respondError(c, err)
	}
	return ok(c, "Notes cleared", []string{})
}
