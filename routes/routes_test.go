package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/abs-valuers/abs_backend/controllers"
	"github.com/abs-valuers/abs_backend/middleware"
	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/repositories"
	"github.com/abs-valuers/abs_backend/services"
	"github.com/abs-valuers/abs_backend/websocket"
)

type testValidator struct{ v *validator.Validate }

func (tv testValidator) Validate(i interface{}) error { return tv.v.Struct(i) }

var errNoWatch = errors.New("watch not supported")

type appStore struct {
	mu   sync.Mutex
	apps []models.ExternalApp
}

func (s *appStore) List(context.Context) ([]models.ExternalApp, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ExternalApp(nil), s.apps...), 0, nil
}

func (s *appStore) Create(_ context.Context, app *models.ExternalApp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app.ID = primitive.NewObjectID()
	s.apps = append(s.apps, *app)
	return nil
}

func (s *appStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.apps {
		if a.ID.Hex() == id {
			s.apps = append(s.apps[:i], s.apps[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *appStore) Watch(context.Context) (repositories.ChangeStream, error) { return nil, errNoWatch }

type marketStore struct{}

func (marketStore) List(context.Context, string, int64) ([]models.PropertyRecord, int, error) {
	return nil, 0, nil
}
func (marketStore) Create(context.Context, *models.PropertyRecord) error { return nil }
func (marketStore) Delete(context.Context, string) error                 { return nil }
func (marketStore) Watch(context.Context) (repositories.ChangeStream, error) {
	return nil, errNoWatch
}

type workLogStore struct{}

func (workLogStore) List(context.Context, int64) ([]models.WorkLogEntry, int, error) {
	return nil, 0, nil
}
func (workLogStore) Create(context.Context, *models.WorkLogEntry) error { return nil }
func (workLogStore) Delete(context.Context, string) error               { return nil }
func (workLogStore) Watch(context.Context) (repositories.ChangeStream, error) {
	return nil, errNoWatch
}

type permStore struct{}

func (permStore) Get(context.Context, string) (*models.UserPermission, error) {
	return nil, repositories.ErrNotFound
}
func (permStore) EnsureClient(context.Context, models.Identity, time.Time) (bool, error) {
	return true, nil
}
func (permStore) TouchLastLogin(context.Context, string, time.Time) error { return nil }
func (permStore) List(context.Context) ([]models.UserPermission, int, error) {
	return nil, 0, nil
}
func (permStore) UpdateRole(context.Context, string, models.Role) error { return nil }
func (permStore) Delete(context.Context, string) error                 { return nil }
func (permStore) Watch(context.Context) (repositories.ChangeStream, error) {
	return nil, errNoWatch
}

type noopRevoker struct{}

func (noopRevoker) RevokeRefreshTokens(context.Context, string) error { return nil }

// echoGenerator repeats the question. With block set it signals started and
// waits for block to close before answering.
type echoGenerator struct {
	started chan struct{}
	block   chan struct{}
}

func (g echoGenerator) Generate(_ context.Context, req services.GenerateRequest) (*services.GenerateResult, error) {
	if g.block != nil {
		g.started <- struct{}{}
		<-g.block
	}
	last := req.History[len(req.History)-1]
	return &services.GenerateResult{Text: "You asked: " + last.Text}, nil
}

// roleAuth stands in for Firebase verification: the X-Test-Role header names the caller's role.
func roleAuth(cfg *services.ConfigStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := c.Request().Header.Get("X-Test-Role")
			if role == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{Status: http.StatusUnauthorized})
			}
			middleware.SetAppContext(c, &models.AppContext{
				Session: &models.Session{
					Identity: models.Identity{UID: "uid-" + role, Email: role + "@abs.in"},
					Role:     models.Role(role),
				},
				Config: cfg.Current(),
			})
			return next(c)
		}
	}
}

type testServer struct {
	e      *echo.Echo
	config *services.ConfigStore
	apps   *appStore
}

func newTestServer(t *testing.T, gen services.Generator) *testServer {
	t.Helper()
	logger := log.New("test")
	logger.SetOutput(io.Discard)

	e := echo.New()
	e.Logger = logger
	e.Validator = testValidator{v: validator.New()}

	devices := repositories.NewMemoryDeviceStore()
	cfg := services.NewConfigStore(nil, devices, logger)
	apps := &appStore{}
	hub := websocket.NewHub(nil)

	sessions := services.NewSessionService(permStore{}, noopRevoker{}, hub, logger)
	views := services.NewViewService(apps, marketStore{}, workLogStore{}, permStore{})
	records := services.NewRecordService(apps, marketStore{}, workLogStore{}, permStore{}, hub, logger)
	chat := services.NewChatService(gen, devices, logger, time.Second)
	quotes := services.NewQuoteService(nil, nil, "", cfg, logger)
	tickets := middleware.NewTicketIssuer("secret", time.Minute)

	SetupRoutes(e, Dependencies{
		Auth:      roleAuth(cfg),
		LiveAuth:  middleware.TicketAuth(tickets, sessions, cfg),
		Device:    middleware.DeviceID(),
		Site:      controllers.NewSiteController(cfg, quotes, t.TempDir(), "/uploads"),
		Session:   controllers.NewSessionController(sessions, tickets),
		Chat:      controllers.NewChatController(chat, cfg),
		Tools:     controllers.NewToolsController(devices),
		Dashboard: controllers.NewDashboardController(views, records, nil),
		Admin:     controllers.NewAdminController(views, records),
		Live:      controllers.NewLiveController(hub, views, records),
	})
	return &testServer{e: e, config: cfg, apps: apps}
}

func (s *testServer) do(method, path, role, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) models.Response {
	t.Helper()
	var resp models.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, echoGenerator{})
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", "").Code)
}

func TestGatedViews(t *testing.T) {
	s := newTestServer(t, echoGenerator{})

	tests := []struct {
		name   string
		path   string
		role   string
		status int
	}{
		{"ledger needs sign-in", "/api/admin/worklogs", "", http.StatusUnauthorized},
		{"ledger refused to employee", "/api/admin/worklogs", "employee", http.StatusForbidden},
		{"ledger open to admin", "/api/admin/worklogs", "admin", http.StatusOK},
		{"market feed refused to client", "/api/admin/market", "client", http.StatusForbidden},
		{"market feed refused to employee", "/api/admin/market", "employee", http.StatusForbidden},
		{"market feed open to admin", "/api/admin/market", "admin", http.StatusOK},
		{"own survey records open to client", "/api/market/records", "client", http.StatusOK},
		{"app directory open to client", "/api/apps", "client", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, tt.path, tt.role, "")
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusForbidden {
				resp := decode(t, rec)
				assert.NotEmpty(t, resp.Message)
				assert.Contains(t, rec.Body.String(), `"target"`)
			}
		})
	}
}

func TestAdminApps_CreateAndDelete(t *testing.T) {
	s := newTestServer(t, echoGenerator{})

	rec := s.do(http.MethodPost, "/api/admin/apps", "employee", `{"name":"Bank portal","url":"https://bank.example.com"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, s.apps.apps)

	rec = s.do(http.MethodPost, "/api/admin/apps", "admin", `{"name":"Bank portal","url":"https://bank.example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, s.apps.apps, 1)
	assert.Equal(t, models.DefaultAppCategory, s.apps.apps[0].Category)

	rec = s.do(http.MethodPost, "/api/admin/apps", "admin", `{"name":"Broken","url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := s.apps.apps[0].ID.Hex()
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/admin/apps/"+id, "admin", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/admin/apps/"+id, "admin", "").Code)
}

func TestSiteConfig_PatchRequiresAdmin(t *testing.T) {
	s := newTestServer(t, echoGenerator{})

	rec := s.do(http.MethodPatch, "/api/admin/site/hero", "employee", `{"badge":"Now in Dehradun"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPatch, "/api/admin/site/hero", "admin", `{"badge":"Now in Dehradun"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Now in Dehradun", s.config.Current().Hero.Badge)

	rec = s.do(http.MethodPatch, "/api/admin/site/nosuch", "admin", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPatch, "/api/admin/site/theme", "admin", `{"primaryColor":"blue"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/site/config", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Now in Dehradun")
}

func TestThemeCSS(t *testing.T) {
	s := newTestServer(t, echoGenerator{})

	rec := s.do(http.MethodGet, "/theme.css", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "--color-primary:#2563eb")
}

func TestChat(t *testing.T) {
	s := newTestServer(t, echoGenerator{})
	device := []string{middleware.DeviceHeader, "device-abcdef12"}

	rec := s.do(http.MethodGet, "/api/chat", "", "", device...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), services.WelcomeMessageID)

	rec = s.do(http.MethodPost, "/api/chat/messages", "", `{"text":"What is IBBI?"}`, device...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You asked: What is IBBI?")

	rec = s.do(http.MethodPost, "/api/chat/messages", "", `{"text":"   "}`, device...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/chat/export", "", "", device...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")
	assert.Contains(t, rec.Body.String(), "[User]: What is IBBI?")
}

func TestChat_BusyWhileReplyPending(t *testing.T) {
	gen := echoGenerator{started: make(chan struct{}, 1), block: make(chan struct{})}
	s := newTestServer(t, gen)
	device := []string{middleware.DeviceHeader, "device-busy0001"}

	done := make(chan int, 1)
	go func() {
		done <- s.do(http.MethodPost, "/api/chat/messages", "", `{"text":"first"}`, device...).Code
	}()
	<-gen.started

	rec := s.do(http.MethodPost, "/api/chat/messages", "", `{"text":"second"}`, device...)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(gen.block)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestChat_DisabledFeatureHidesRoutes(t *testing.T) {
	s := newTestServer(t, echoGenerator{})
	_, err := s.config.UpdateConfig(context.Background(), "features", json.RawMessage(`{"enableAI":false}`))
	require.NoError(t, err)

	rec := s.do(http.MethodGet, "/api/chat", "", "", middleware.DeviceHeader, "device-abcdef12")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTools(t *testing.T) {
	s := newTestServer(t, echoGenerator{})

	rec := s.do(http.MethodPost, "/api/tools/emi", "", `{"principal":5000000,"annualRate":8.5,"years":20}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"monthly":"43391"`)

	rec = s.do(http.MethodPost, "/api/tools/emi", "", `{"principal":0,"annualRate":8.5,"years":20}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/tools/area/convert", "", `{"value":1,"from":"Acre","to":"Square Feet"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result":43560`)

	rec = s.do(http.MethodPost, "/api/tools/area/convert", "", `{"value":1,"from":"Acre","to":"Furlong"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	device := []string{middleware.DeviceHeader, "device-notes001"}
	rec = s.do(http.MethodPost, "/api/tools/notes", "", `{"text":"north boundary wall cracked"}`, device...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "north boundary wall cracked")

	rec = s.do(http.MethodDelete, "/api/tools/notes", "", "", device...)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/api/tools/notes", "", "", device...)
	assert.NotContains(t, rec.Body.String(), "north boundary")
}

func TestGeocode_RejectsInvalidCoordinates(t *testing.T) {
	s := newTestServer(t, echoGenerator{})

	for _, q := range []string{"lat=NaN&lng=NaN", "lat=29.2&lng=NaN", "lat=91&lng=78", "lat=x&lng=78", "lat=Inf&lng=78"} {
		rec := s.do(http.MethodGet, "/api/market/geocode?"+q, "client", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestContactQR(t *testing.T) {
	s := newTestServer(t, echoGenerator{})

	rec := s.do(http.MethodGet, "/api/site/contact/qr.png", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
}

func heroUpload(t *testing.T, s *testServer, role, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/site/hero-image", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set("X-Test-Role", role)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestUploadHeroImage(t *testing.T) {
	s := newTestServer(t, echoGenerator{})

	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	rec := heroUpload(t, s, "employee", "front.png", buf.Bytes())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = heroUpload(t, s, "admin", "front.svg", buf.Bytes())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = heroUpload(t, s, "admin", "front.png", []byte("not an image"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	before := s.config.Current().Hero.Badge
	rec = heroUpload(t, s, "admin", "front.png", buf.Bytes())
	require.Equal(t, http.StatusOK, rec.Code)

	hero := s.config.Current().Hero
	assert.True(t, strings.HasPrefix(hero.BackgroundImage, "/uploads/hero/hero_"), hero.BackgroundImage)
	assert.True(t, strings.HasSuffix(hero.BackgroundImage, ".jpg"))
	assert.Equal(t, before, hero.Badge)
	assert.Contains(t, rec.Body.String(), hero.BackgroundImage)
}
