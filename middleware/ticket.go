// middleware/ticket.go
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/services"
)

const ticketAudience = "abs-live"

// TicketClaims authorize one websocket handshake. Browsers cannot set an
// Authorization header on the upgrade request, so the ticket rides in the query.
type TicketClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.StandardClaims
}

type TicketIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTicketIssuer(secret string, ttl time.Duration) *TicketIssuer {
	return &TicketIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TicketIssuer) Issue(id models.Identity) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := TicketClaims{
		Email: id.Email,
		Name:  id.DisplayName,
		StandardClaims: jwt.StandardClaims{
			Subject:   id.UID,
			Audience:  ticketAudience,
			IssuedAt:  now.Unix(),
			ExpiresAt: exp.Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	return signed, exp, err
}

func (t *TicketIssuer) Parse(raw string) (models.Identity, error) {
	claims := &TicketClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return models.Identity{}, err
	}
	if !token.Valid || !claims.VerifyAudience(ticketAudience, true) {
		return models.Identity{}, errors.New("invalid ticket")
	}
	if claims.ExpiresAt < t.now().Unix() {
		return models.Identity{}, errors.New("ticket expired")
	}
	return models.Identity{UID: claims.Subject, Email: claims.Email, DisplayName: claims.Name}, nil
}

// TicketAuth authenticates websocket upgrades by the ?ticket= parameter.
func TicketAuth(issuer *TicketIssuer, sessions *services.SessionService, cfg *services.ConfigStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := issuer.Parse(c.QueryParam("ticket"))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Invalid or expired live ticket",
				})
			}
			sess := sessions.Resolve(c.Request().Context(), id)
			SetAppContext(c, &models.AppContext{Session: sess, Config: cfg.Current()})
			return next(c)
		}
	}
}
