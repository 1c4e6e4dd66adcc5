// middleware/security_headers.go
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

type SecurityConfig struct {
	// Origins the browser app may call besides itself (auth provider, geocoder)
	ConnectDomains []string
	// Origins images may load from (map tiles, hero images)
	ImageDomains []string
}

func SecurityHeadersWithConfig(config SecurityConfig) echo.MiddlewareFunc {
	csp := buildCSP(config)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			h.Set("Content-Security-Policy", csp)
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			// The survey map centers on the device position
			h.Set("Permissions-Policy", "geolocation=(self), microphone=(), camera=()")

			h.Del("Server")
			h.Del("X-Powered-By")

			return next(c)
		}
	}
}

func buildCSP(config SecurityConfig) string {
	img := "img-src 'self' data:"
	if len(config.ImageDomains) > 0 {
		img += " " + strings.Join(config.ImageDomains, " ")
	}
	csp := []string{
		"default-src 'self'",
		img,
		"style-src 'self' 'unsafe-inline'",
		"script-src 'self'",
	}
	if len(config.ConnectDomains) > 0 {
		csp = append(csp, "connect-src 'self' "+strings.Join(config.ConnectDomains, " "))
	}
	return strings.Join(csp, "; ")
}
