package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/wanderly/travel-agency-backend/internal/config"
	"github.com/wanderly/travel-agency-backend/internal/database"
	"github.com/wanderly/travel-agency-backend/internal/handlers"
	"github.com/wanderly/travel-agency-backend/internal/middleware"
	"github.com/wanderly/travel-agency-backend/internal/services"
	"github.com/wanderly/travel-agency-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting travel agency booking ledger")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	clock := services.SystemClock{Location: cfg.Location()}

	// Repositories
	bookingRepo := database.NewBookingRepository()
	paymentRepo := database.NewPaymentRepository()
	commissionRepo := database.NewCommissionRepository()
	tourDetailRepo := database.NewTourDetailRepository()
	auditRepo := database.NewPaymentAuditRepository(logger)

	// Services
	referenceService := services.NewReferenceService(bookingRepo)
	commissionService := services.NewCommissionService(db, commissionRepo, clock, logger)
	bookingService := services.NewBookingService(
		db,
		bookingRepo,
		paymentRepo,
		tourDetailRepo,
		auditRepo,
		referenceService,
		commissionService,
		services.BookingConfig{
			DefaultCurrency:      cfg.Booking.DefaultCurrency,
			ReferenceMaxAttempts: cfg.Booking.ReferenceMaxAttempts,
		},
		clock,
		logger,
	)
	paymentService := services.NewPaymentService(db, bookingRepo, paymentRepo, auditRepo, clock, logger)
	expiryService := services.NewPaymentExpiryService(paymentService, cfg.Payment.PendingExpiry, clock, logger)

	cronService := services.NewCronService(expiryService, cfg.Payment.ExpirySchedule, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	if cfg.Payment.WebhookSecret == "" {
		logger.Warn("PAYMENT_WEBHOOK_SECRET is empty - all gateway callbacks will be rejected")
	}

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenExpiry)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(corsConfig(cfg.CORS)))

	handlers.Router{
		Bookings:    handlers.NewBookingHandler(bookingService, logger),
		Payments:    handlers.NewPaymentHandler(paymentService, logger),
		Webhooks:    handlers.NewWebhookHandler(paymentService, cfg.Payment.WebhookSecret, logger),
		Commissions: handlers.NewCommissionHandler(commissionService, logger),
		Health:      handlers.NewHealthHandler(db, cronService),
	}.Register(router, middleware.AuthMiddleware(jwtService, logger))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  cfg.AllowedMethods,
		AllowHeaders:  cfg.AllowedHeaders,
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.AllowedOrigins
	c.AllowCredentials = true
	return c
}
