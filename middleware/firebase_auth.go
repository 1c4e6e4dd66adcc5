// middleware/firebase_auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/security"
	"github.com/abs-valuers/abs_backend/services"
)

const appContextKey = "appctx"

// TokenVerifier is satisfied by the Firebase auth client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
}

// IdentityFromToken reads the caller's identity from verified token claims.
func IdentityFromToken(tok *auth.Token) models.Identity {
	id := models.Identity{UID: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := tok.Claims["name"].(string); ok {
		id.DisplayName = name
	}
	return id
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// FirebaseAuth verifies the ID token, resolves the caller's role and stores
// an AppContext on the request. With checkRevoked, tokens issued before a
// sign-out are rejected; the check needs service-account credentials.
func FirebaseAuth(verifier TokenVerifier, checkRevoked bool, sessions *services.SessionService, cfg *services.ConfigStore) echo.MiddlewareFunc {
	verify := verifier.VerifyIDToken
	if checkRevoked {
		verify = verifier.VerifyIDTokenAndCheckRevoked
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Missing authorization token",
				})
			}
			tok, err := verify(c.Request().Context(), raw)
			if err != nil {
				if auth.IsIDTokenRevoked(err) {
					return c.JSON(http.StatusUnauthorized, models.Response{
						Status:  http.StatusUnauthorized,
						Message: "Session signed out, please sign in again",
					})
				}
				c.Logger().Warnf("rejected id token: %v", err)
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Invalid or expired token",
				})
			}
			sess := sessions.Resolve(c.Request().Context(), IdentityFromToken(tok))
			SetAppContext(c, &models.AppContext{Session: sess, Config: cfg.Current()})
			return next(c)
		}
	}
}

func SetAppContext(c echo.Context, app *models.AppContext) {
	c.Set(appContextKey, app)
}

// AppContextFrom returns the request's AppContext, or nil before authentication.
func AppContextFrom(c echo.Context) *models.AppContext {
	app, _ := c.Get(appContextKey).(*models.AppContext)
	return app
}

// RequireCapability rejects callers whose role lacks the capability.
func RequireCapability(capability security.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			app := AppContextFrom(c)
			if !app.SignedIn() {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication required",
				})
			}
			decision := security.Check(app.Role(), capability)
			if !decision.Allowed {
				c.Logger().Infof("capability %s denied to %s (%s)", capability, app.Session.Identity.Email, app.Role())
				return c.JSON(http.StatusForbidden, models.Response{
					Status:  http.StatusForbidden,
					Message: decision.Reason,
				})
			}
			return next(c)
		}
	}
}
