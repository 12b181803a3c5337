package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ihcportal/booking-backend/internal/config"
	"github.com/ihcportal/booking-backend/internal/database"
	"github.com/ihcportal/booking-backend/internal/handlers"
	"github.com/ihcportal/booking-backend/internal/notify"
	"github.com/ihcportal/booking-backend/internal/services"
	"github.com/ihcportal/booking-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		gin.SetMode(gin.DebugMode)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	logger.Info("Starting IHC booking backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Initialize database connection
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	logger.Info("Connecting to database...")
	stores, err := database.Open(startupCtx, cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	logger.WithField("backend", stores.Backend).Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := stores.Migrate(startupCtx); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database schema is up to date")
	}

	// Notifications
	outbox, err := notify.NewOutbox(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize notifications: %v", err)
	}
	templates := notify.NewTemplates(cfg.Server.PublicBaseURL, cfg.Staff.Email)

	// Rate limiting is optional; without Redis every request is allowed
	var limiter *services.RateLimitService
	if cfg.RateLimit.RedisURL != "" {
		redisClient, err := services.NewRedisClient(startupCtx, cfg.RateLimit.RedisURL)
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		limiter = services.NewRateLimitService(redisClient, cfg.RateLimit, logger)
		logger.Info("Rate limiting enabled")
	} else {
		limiter = services.NewRateLimitService(nil, cfg.RateLimit, logger)
		logger.Warn("REDIS_URL not set, rate limiting disabled")
	}

	// Initialize services
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	auditService := services.NewAuditService(stores.Audit, cfg.Security.EnableAuditLog, logger)
	authService := services.NewAuthService(
		stores.Users,
		jwtService,
		outbox,
		templates,
		auditService,
		limiter,
		cfg.Security.BcryptCost,
		logger,
	)
	bookingService := services.NewBookingService(
		stores.Bookings,
		stores.Users,
		outbox,
		templates,
		auditService,
		logger,
	)
	logger.Info("Services initialized")

	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:       authService,
		Bookings:   bookingService,
		Store:      stores,
		Backend:    stores.Backend,
		Version:    version,
		JWT:        jwtService,
		StaffKey:   cfg.Staff.APIKey,
		CORS:       cfg.CORS,
		RequestLog: cfg.Security.EnableRequestLog,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	if err := outbox.Close(ctx); err != nil {
		logger.Errorf("Failed to drain notifications: %v", err)
	}
	if err := stores.Close(ctx); err != nil {
		logger.Errorf("Failed to close database: %v", err)
	}

	logger.Info("Server exited")
}
