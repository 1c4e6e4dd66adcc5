package main

import (
	"context"
	"errors"
	"log"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	gommonlog "github.com/labstack/gommon/log"
	"gopkg.in/gomail.v2"

	"github.com/abs-valuers/abs_backend/config"
	"github.com/abs-valuers/abs_backend/controllers"
	"github.com/abs-valuers/abs_backend/middleware"
	"github.com/abs-valuers/abs_backend/repositories"
	"github.com/abs-valuers/abs_backend/routes"
	"github.com/abs-valuers/abs_backend/services"
	"github.com/abs-valuers/abs_backend/utils"
	"github.com/abs-valuers/abs_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	_ = mime.AddExtensionType(".svg", "image/svg+xml")

	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	if settings.IsDevelopment() {
		e.Logger.SetLevel(gommonlog.DEBUG)
	} else {
		e.Logger.SetLevel(gommonlog.INFO)
	}
	logger := e.Logger

	authClient := config.InitFirebase(settings.Firebase)

	client, db := config.ConnectDB(settings.MongoURI, settings.DBName)

	var deviceStore repositories.DeviceStore
	if rdb := config.ConnectRedis(settings.Redis); rdb != nil {
		deviceStore = repositories.NewDeviceStore(rdb)
	} else {
		deviceStore = repositories.NewMemoryDeviceStore()
	}

	// Repositories
	permRepo := repositories.NewPermissionRepository(db, logger)
	appRepo := repositories.NewAppRepository(db, logger)
	marketRepo := repositories.NewMarketRepository(db, logger)
	workLogRepo := repositories.NewWorkLogRepository(db, logger)
	siteRepo := repositories.NewSiteRepository(db)

	configStore := services.NewConfigStore(siteRepo, deviceStore, logger)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	configStore.Load(loadCtx)
	cancelLoad()

	wsHub := websocket.NewHub(settings.CORSOrigins)
	go wsHub.Run()

	// Services
	sessions := services.NewSessionService(permRepo, authClient, wsHub, logger)
	views := services.NewViewService(appRepo, marketRepo, workLogRepo, permRepo)
	records := services.NewRecordService(appRepo, marketRepo, workLogRepo, permRepo, wsHub, logger)
	gemini := services.NewGeminiClient(settings.Gemini.BaseURL, settings.Gemini.Model, settings.Gemini.APIKey, settings.Gemini.Timeout)
	chat := services.NewChatService(gemini, deviceStore, logger, settings.Gemini.Timeout)
	geocoder := services.NewGeocoder(settings.Geocoder.BaseURL, settings.Geocoder.UserAgent, settings.Geocoder.Timeout, deviceStore, logger)

	var mailer services.MailSender
	if settings.SMTP.Host != "" {
		mailer = gomail.NewDialer(settings.SMTP.Host, settings.SMTP.Port, settings.SMTP.User, settings.SMTP.Password)
	} else {
		logger.Warn("SMTP_HOST not set, quote requests will not be mailed")
	}
	quotes := services.NewQuoteService(siteRepo, mailer, settings.SMTP.From, configStore, logger)

	tickets := middleware.NewTicketIssuer(settings.TicketSecret, time.Minute)

	if err := utils.InitializeStorage(settings.UploadsDir); err != nil {
		log.Fatalf("uploads directory: %v", err)
	}

	// Middleware
	rateLimiter := middleware.NewRateLimiter()
	e.Use(httpsRedirect())
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.NewCORSConfig(settings.CORSOrigins)))
	e.Use(echoMiddleware.Secure())
	e.Use(echoMiddleware.BodyLimit("12M"))
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		ConnectDomains: []string{
			"https://*.googleapis.com",
			"https://*.firebaseapp.com",
			settings.Geocoder.BaseURL,
		},
		ImageDomains: []string{
			"https://*.tile.openstreetmap.org",
			"https://*.basemaps.cartocdn.com",
		},
	}))

	e.Static("/uploads", settings.UploadsDir)

	routes.SetupRoutes(e, routes.Dependencies{
		Auth:      middleware.FirebaseAuth(authClient, settings.Firebase.HasCredentials(), sessions, configStore),
		LiveAuth:  middleware.TicketAuth(tickets, sessions, configStore),
		Device:    middleware.DeviceID(),
		Site:      controllers.NewSiteController(configStore, quotes, settings.UploadsDir, "/uploads"),
		Session:   controllers.NewSessionController(sessions, tickets),
		Chat:      controllers.NewChatController(chat, configStore),
		Tools:     controllers.NewToolsController(deviceStore),
		Dashboard: controllers.NewDashboardController(views, records, geocoder),
		Admin:     controllers.NewAdminController(views, records),
		Live:      controllers.NewLiveController(wsHub, views, records),
	})

	go func() {
		if err := e.Start(":" + settings.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Error(err)
	}
	if err := client.Disconnect(ctx); err != nil {
		e.Logger.Error(err)
	}
	config.CloseRedis()
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(http.StatusMovedPermanently, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
