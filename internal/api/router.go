package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/etherealapi/identity-platform/internal/api/handler"
	"github.com/etherealapi/identity-platform/internal/api/middleware"
	"github.com/etherealapi/identity-platform/internal/core/ports"
	"github.com/etherealapi/identity-platform/internal/core/service"
	mongostore "github.com/etherealapi/identity-platform/internal/infrastructure/db/mongo"
	redisstore "github.com/etherealapi/identity-platform/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(
	db *mongo.Database,
	rdb *redis.Client,
	encrypter ports.Encrypter,
	audit ports.AuditSink,
	sessionTTL time.Duration,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Dependencies ---
	users := mongostore.NewUserRepository(db)
	apps := mongostore.NewApplicationRepository(db)
	projections := mongostore.NewProjectionRepository(db)
	secrets := mongostore.NewSecretRepository(db)
	sessions := redisstore.NewSessionStore(rdb)
	devices := redisstore.NewDeviceStore(rdb)

	processor := service.NewSecretProcessor()
	sessionService := service.NewSessionService(sessions, processor, encrypter, sessionTTL, log)
	appSecrets := service.NewAppSecretService(secrets, processor, encrypter, log)
	projectionService := service.NewProjectionService(projections, apps, log)
	accountService := service.NewAccountService(
		users, apps, projections, secrets, devices,
		sessionService, projectionService, processor, audit, log,
	)
	appService := service.NewAppService(apps, projections, appSecrets, audit, log)

	userHandler := handler.NewUserHandler(accountService, sessionService)
	appHandler := handler.NewAppHandler(appService)
	healthHandler := handler.NewHealthHandler(db, rdb)

	sessionAuth := middleware.Session(sessionService)
	keyAuth := middleware.AccessKeys()

	// --- User routes ---
	e.POST("/users", userHandler.CreateUser)
	e.POST("/users/sign-in", userHandler.SignIn)
	e.POST("/users/sign-out", userHandler.SignOut, sessionAuth)
	e.GET("/users/session", userHandler.SessionStatus)

	me := e.Group("/users/me", sessionAuth)
	me.GET("", userHandler.GetUser)
	me.DELETE("", userHandler.DeactivateUser)
	me.PATCH("/email", userHandler.UpdateEmail)
	me.PATCH("/username", userHandler.UpdateUsername)
	me.PATCH("/name", userHandler.UpdateName)
	me.PATCH("/password", userHandler.ChangePassword)
	me.GET("/apps", userHandler.FollowedApps)
	me.GET("/related-apps", userHandler.AppsForUser)
	me.POST("/apps/:appName", userHandler.FollowApp)
	me.GET("/apps/:appName", userHandler.GetAppUser)
	me.DELETE("/apps/:appName", userHandler.UnfollowApp)
	me.GET("/apps/:appName/url", userHandler.GetAppURL)

	// --- Application routes ---
	e.POST("/apps", appHandler.RegisterApp)
	e.POST("/apps/reset-keys", appHandler.ResetAccessKeys)
	e.GET("/apps", appHandler.ListApps)

	appMe := e.Group("/apps/me", keyAuth)
	appMe.GET("", appHandler.GetAppAccount)
	appMe.DELETE("", appHandler.DeactivateApp)
	appMe.PATCH("/name", appHandler.UpdateAppName)
	appMe.PATCH("/url", appHandler.UpdateAppURL)
	appMe.PATCH("/email", appHandler.UpdateAppEmail)
	appMe.GET("/users", appHandler.GetAppUsers)

	// Registered after /apps/me so the literal segment wins over :appName.
	e.GET("/apps/:appName", appHandler.GetApp)

	// --- Observability (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	return e
}
