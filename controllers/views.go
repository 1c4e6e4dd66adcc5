package controllers

import (
	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/middleware"
	"github.com/abs-valuers/abs_backend/services"
)

// snapshot serves the current records of a gated view, or its restricted fallback.
func snapshot(c echo.Context, views *services.ViewService, name services.ViewName) (services.Frame, bool, error) {
	spec, err := services.LookupView(string(name))
	if err != nil {
		return services.Frame{}, false, respondError(c, err)
	}
	frame, err := views.Snapshot(c.Request().Context(), spec, middleware.AppContextFrom(c).Session)
	if err != nil {
		return services.Frame{}, false, respondError(c, err)
	}
	if frame.Type == services.FrameRestricted {
		return services.Frame{}, false, restricted(c, spec)
	}
	return frame, true, nil
}

func viewHandler(views *services.ViewService, name services.ViewName) echo.HandlerFunc {
	return func(c echo.Context) error {
		frame, found, err := snapshot(c, views, name)
		if !found {
			return err
		}
		return ok(c, string(name), frame)
	}
}
