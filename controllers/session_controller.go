package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/middleware"
	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/services"
)

type SessionController struct {
	sessions *services.SessionService
	tickets  *middleware.TicketIssuer
}

func NewSessionController(sessions *services.SessionService, tickets *middleware.TicketIssuer) *SessionController {
	return &SessionController{sessions: sessions, tickets: tickets}
}

type sessionView struct {
	Identity models.Identity `json:"identity"`
	Role     *models.Role    `json:"role"`
	IsStaff  bool            `json:"isStaff"`
	IsAdmin  bool            `json:"isAdmin"`
}

func (sc *SessionController) Me(c echo.Context) error {
	app := middleware.AppContextFrom(c)
	role := app.Role()
	return ok(c, "Session", sessionView{
		Identity: app.Session.Identity,
		Role:     &role,
		IsStaff:  role.IsStaff(),
		IsAdmin:  role.IsAdmin(),
	})
}

// Logout revokes the provider session and closes the caller's live views
func (sc *SessionController) Logout(c echo.Context) error {
	app := middleware.AppContextFrom(c)
	if err := sc.sessions.SignOut(c.Request().Context(), app.Session); err != nil {
		c.Logger().Warnf("token revocation for %s failed: %v", app.Session.Identity.UID, err)
	}
	return ok(c, "Signed out", sessionView{})
}

// LiveTicket issues the short-lived credential for the websocket handshake
func (sc *SessionController) LiveTicket(c echo.Context) error {
	app := middleware.AppContextFrom(c)
	ticket, exp, err := sc.tickets.Issue(app.Session.Identity)
	if err != nil {
		c.Logger().Errorf("issue live ticket: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to issue live ticket")
	}
	return ok(c, "Live ticket issued", map[string]interface{}{
		"ticket":    ticket,
		"expiresAt": exp.UTC().Format(time.RFC3339),
	})
}
