package controllers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/calculators"
	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/repositories"
	"github.com/abs-valuers/abs_backend/security"
	"github.com/abs-valuers/abs_backend/services"
)

const writeFailedMessage = "The change was not saved. Please retry or check your permissions."

func ok(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, models.Response{Status: http.StatusOK, Message: message, Data: data})
}

func created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, models.Response{Status: http.StatusCreated, Message: message, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, models.Response{Status: status, Message: message})
}

// restricted renders the fixed fallback of a gated view.
func restricted(c echo.Context, spec services.ViewSpec) error {
	rv := spec.Restricted()
	return c.JSON(http.StatusForbidden, models.Response{
		Status:  http.StatusForbidden,
		Message: rv.Message,
		Data:    rv,
	})
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	return nil
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, security.ErrProtectedRecord):
		return fail(c, http.StatusForbidden, err.Error())
	case repositories.IsPermissionDenied(err):
		return fail(c, http.StatusForbidden, writeFailedMessage)
	case errors.Is(err, repositories.ErrNotFound):
		return fail(c, http.StatusNotFound, "Record not found")
	case errors.Is(err, services.ErrChatBusy), errors.Is(err, services.ErrViewRestricted):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrFeatureDisabled), errors.Is(err, services.ErrUnknownView):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.As(err, &verrs),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrUnknownSection),
		errors.Is(err, services.ErrInvalidSection),
		errors.Is(err, services.ErrInvalidPhone),
		errors.Is(err, calculators.ErrUnknownUnit),
		errors.Is(err, calculators.ErrInvalidLoan):
		return fail(c, http.StatusBadRequest, err.Error())
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return fail(c, http.StatusInternalServerError, writeFailedMessage)
}
