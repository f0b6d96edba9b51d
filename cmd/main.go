package main

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ogboNoble001/brightnal-backend/internal/auth"
	"github.com/ogboNoble001/brightnal-backend/internal/catalog"
	"github.com/ogboNoble001/brightnal-backend/internal/handler"
	mid "github.com/ogboNoble001/brightnal-backend/internal/middleware"
	"github.com/ogboNoble001/brightnal-backend/internal/repository"
	"github.com/ogboNoble001/brightnal-backend/internal/storage"
	"github.com/ogboNoble001/brightnal-backend/pkg/config"
	"github.com/ogboNoble001/brightnal-backend/pkg/database"
	"github.com/ogboNoble001/brightnal-backend/pkg/jwtutil"
	"github.com/ogboNoble001/brightnal-backend/pkg/logger"
	"github.com/ogboNoble001/brightnal-backend/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration (reads .env when present)
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting catalog service", appConfig.LogConfig()...)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Probe external dependencies. A failed probe leaves the service
	// running in degraded mode: the affected operations answer 503
	// instead of the process refusing to start.
	status := catalog.DependencyStatus{}

	if err := database.InitDB(appConfig, log); err != nil {
		log.Error("Database unavailable, serving degraded", zap.Error(err))
	} else {
		status.Database = true
		log.Info("Database connection established")
	}

	objects, err := storage.NewMinioStore(&appConfig.Storage, log)
	if err != nil {
		log.Error("Object storage client init failed, serving degraded", zap.Error(err))
	} else if err := objects.Probe(context.Background(),
		appConfig.Storage.ProbeAttempts, appConfig.Storage.ProbeInterval); err != nil {
		log.Error("Object storage unavailable, serving degraded", zap.Error(err))
	} else {
		status.ObjectStore = true
		log.Info("Object storage connection established")
	}

	// Wire the service
	jwt := jwtutil.NewJWTUtil(&appConfig.JWT)
	products := repository.NewProductRepository(database.GetDB())
	users := repository.NewUserRepository(database.GetDB())
	svc := catalog.NewService(products, objects, status, catalog.Config{
		AuthRequired: appConfig.Features.AuthRequired,
		MultiImage:   appConfig.Features.MultiImage,
		UploadFolder: appConfig.Storage.UploadFolder,
	}, log)

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: appConfig.Features.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit(appConfig.Features.BodyLimit))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
		rate.Limit(appConfig.Features.RateLimit))))

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	healthHandler := handler.NewHealthHandler(status)
	e.GET("/health", healthHandler.Check)

	// Auth routes
	authMW := mid.NewAuthMiddleware(jwt)
	authHandler := handler.NewAuthHandler(users,
		auth.NewGoogleVerifier(appConfig.Auth.GoogleClientID), jwt, status)
	e.POST("/api/auth/google", authHandler.GoogleLogin)
	e.GET("/api/auth/me", authHandler.Me, authMW)

	// Product API routes. Reads are public; mutations require a valid
	// token when the deployment has auth enabled.
	productHandler := handler.NewProductHandler(svc)
	api := e.Group("/api/products")
	api.GET("", productHandler.List)
	api.GET("/:id", productHandler.Get)

	var mutating []echo.MiddlewareFunc
	if appConfig.Features.AuthRequired {
		mutating = append(mutating, authMW)
	}
	api.POST("", productHandler.Create, mutating...)
	api.PUT("/:id", productHandler.Update, mutating...)
	api.DELETE("/:id", productHandler.Delete, mutating...)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
