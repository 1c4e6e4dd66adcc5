// middleware/device.go
package middleware

import (
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	DeviceHeader = "X-Device-ID"
	DeviceCookie = "abs_device"
	deviceKey    = "device"
)

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{8,64}$`)

// DeviceID identifies the browser for device-local state, issuing a cookie
// on first contact.
func DeviceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(DeviceHeader)
			if id == "" {
				if cookie, err := c.Cookie(DeviceCookie); err == nil {
					id = cookie.Value
				}
			}
			if !deviceIDPattern.MatchString(id) {
				id = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     DeviceCookie,
					Value:    id,
					Path:     "/",
					Expires:  time.Now().AddDate(1, 0, 0),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set(deviceKey, id)
			return next(c)
		}
	}
}

func DeviceFrom(c echo.Context) string {
	id, _ := c.Get(deviceKey).(string)
	return id
}
