package websocket

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/repositories"
	"github.com/abs-valuers/abs_backend/services"
)

// chanStream reports a change per value on changes until closed.
type chanStream struct {
	changes chan struct{}
	closed  chan struct{}
}

func newChanStream() *chanStream {
	return &chanStream{changes: make(chan struct{}, 4), closed: make(chan struct{})}
}

func (s *chanStream) Next(ctx context.Context) bool {
	select {
	case <-s.changes:
		return true
	case <-ctx.Done():
		return false
	case <-s.closed:
		return false
	}
}

func (s *chanStream) Err() error { return nil }

func (s *chanStream) Close(context.Context) error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return nil
}

type liveApps struct {
	stream *chanStream
	apps   []models.ExternalApp
}

func (a *liveApps) List(context.Context) ([]models.ExternalApp, int, error) {
	return a.apps, 0, nil
}
func (a *liveApps) Create(context.Context, *models.ExternalApp) error { return nil }
func (a *liveApps) Delete(context.Context, string) error              { return nil }
func (a *liveApps) Watch(context.Context) (repositories.ChangeStream, error) {
	return a.stream, nil
}

var errUnused = errors.New("unused in this test")

type unusedMarket struct{}

func (unusedMarket) List(context.Context, string, int64) ([]models.PropertyRecord, int, error) {
	return nil, 0, errUnused
}
func (unusedMarket) Create(context.Context, *models.PropertyRecord) error { return errUnused }
func (unusedMarket) Delete(context.Context, string) error                 { return errUnused }
func (unusedMarket) Watch(context.Context) (repositories.ChangeStream, error) {
	return nil, errUnused
}

type unusedWorkLogs struct{}

func (unusedWorkLogs) List(context.Context, int64) ([]models.WorkLogEntry, int, error) {
	return nil, 0, errUnused
}
func (unusedWorkLogs) Create(context.Context, *models.WorkLogEntry) error { return errUnused }
func (unusedWorkLogs) Delete(context.Context, string) error               { return errUnused }
func (unusedWorkLogs) Watch(context.Context) (repositories.ChangeStream, error) {
	return nil, errUnused
}

type unusedPerms struct{}

func (unusedPerms) Get(context.Context, string) (*models.UserPermission, error) {
	return nil, errUnused
}
func (unusedPerms) EnsureClient(context.Context, models.Identity, time.Time) (bool, error) {
	return false, errUnused
}
func (unusedPerms) TouchLastLogin(context.Context, string, time.Time) error { return errUnused }
func (unusedPerms) List(context.Context) ([]models.UserPermission, int, error) {
	return nil, 0, errUnused
}
func (unusedPerms) UpdateRole(context.Context, string, models.Role) error { return errUnused }
func (unusedPerms) Delete(context.Context, string) error                 { return errUnused }
func (unusedPerms) Watch(context.Context) (repositories.ChangeStream, error) {
	return nil, errUnused
}

func startLiveServer(t *testing.T, apps *liveApps, sess *models.Session) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil)
	go hub.Run()

	views := services.NewViewService(apps, unusedMarket{}, unusedWorkLogs{}, unusedPerms{})
	e := echo.New()
	e.GET("/api/live/:view", func(c echo.Context) error {
		spec, err := services.LookupView(c.Param("view"))
		if err != nil {
			return err
		}
		return HandleLive(c, hub, views, nil, spec, sess)
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readType(t *testing.T, conn *gws.Conn, want string) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["type"] == want {
			return msg
		}
	}
}

func TestLiveView_StreamsSnapshots(t *testing.T) {
	apps := &liveApps{stream: newChanStream(), apps: []models.ExternalApp{
		{ID: primitive.NewObjectID(), Name: "Bank portal", URL: "https://bank.example.com"},
	}}
	sess := &models.Session{Identity: models.Identity{UID: "u1", Email: "client@abs.in"}, Role: models.RoleClient}
	hub, base := startLiveServer(t, apps, sess)

	conn, _, err := gws.DefaultDialer.Dial(base+"/api/live/app-directory", nil)
	require.NoError(t, err)
	defer conn.Close()

	readType(t, conn, MessageTypeConnected)
	first := readType(t, conn, string(services.FrameSnapshot))
	assert.EqualValues(t, 1, first["count"])

	assert.Eventually(t, func() bool { return hub.Count("u1") == 1 }, time.Second, 10*time.Millisecond)

	apps.apps = nil
	apps.stream.changes <- struct{}{}
	second := readType(t, conn, string(services.FrameSnapshot))
	assert.EqualValues(t, 0, second["count"])

	require.NoError(t, conn.WriteJSON(Command{Type: "ping", RequestID: "r1"}))
	ack := readType(t, conn, MessageTypeAck)
	assert.Equal(t, "r1", ack["requestId"])

	hub.TeardownUser("u1")
	readType(t, conn, MessageTypeSignedOut)
	assert.Eventually(t, func() bool { return hub.Count("u1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestLiveView_RestrictedForRole(t *testing.T) {
	apps := &liveApps{stream: newChanStream()}
	sess := &models.Session{Identity: models.Identity{UID: "u2", Email: "staff@abs.in"}, Role: models.RoleEmployee}
	_, base := startLiveServer(t, apps, sess)

	conn, _, err := gws.DefaultDialer.Dial(base+"/api/live/admin-apps", nil)
	require.NoError(t, err)
	defer conn.Close()

	frame := readType(t, conn, string(services.FrameRestricted))
	restricted, ok := frame["restricted"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "App Directory", restricted["target"])

	require.NoError(t, conn.WriteJSON(Command{Type: "delete", ID: "x", RequestID: "r2"}))
	nack := readType(t, conn, MessageTypeError)
	assert.Equal(t, "r2", nack["requestId"])
}
