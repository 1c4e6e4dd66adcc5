package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/services"
)

const commandTimeout = 15 * time.Second

// Command is a client request on a live view
type Command struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	ID        string          `json:"id,omitempty"`
	Role      models.Role     `json:"role,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// newUpgrader checks origins against the allow list; an empty list allows all.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowed) == 0 || origin == "" || allowed[origin]
		},
	}
}

// HandleLive upgrades the request and streams the view until the client leaves
func HandleLive(c echo.Context, hub *Hub, views *services.ViewService,
	records *services.RecordService, spec services.ViewSpec, sess *models.Session) error {
	conn, err := hub.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	logger := c.Logger()

	view := views.Open(context.Background(), spec, *sess, records)
	client := &Client{
		UID:   sess.Identity.UID,
		Email: models.NormalizeEmail(sess.Identity.Email),
		Conn:  conn,
		View:  view,
	}
	hub.register <- client

	client.WriteJSON(Notification{
		Type:    MessageTypeConnected,
		Message: "Live view " + string(spec.Name) + " opened",
	})

	go func() {
		for frame := range view.Frames() {
			if err := client.WriteJSON(frame); err != nil {
				client.Close()
			}
		}
	}()

	go func() {
		defer func() {
			hub.unregister <- client
			view.Close()
		}()

		for {
			var cmd Command
			if err := conn.ReadJSON(&cmd); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debugf("live view %s for %s closed: %v", spec.Name, client.Email, err)
				}
				return
			}
			client.WriteJSON(dispatch(view, cmd))
		}
	}()

	return nil
}

func dispatch(view *services.LiveView, cmd Command) Notification {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var (
		data interface{}
		err  error
	)
	switch cmd.Type {
	case "retry":
		view.Retry()
	case "create":
		data, err = view.Create(ctx, cmd.Data)
	case "delete":
		err = view.Delete(ctx, cmd.ID)
	case "role":
		err = view.UpdateRole(ctx, cmd.ID, cmd.Role)
	case "ping":
	default:
		err = errors.New("unknown command " + cmd.Type)
	}
	if err != nil {
		return Notification{Type: MessageTypeError, Message: err.Error(), RequestID: cmd.RequestID}
	}
	return Notification{Type: MessageTypeAck, Message: cmd.Type, RequestID: cmd.RequestID, Data: data}
}
