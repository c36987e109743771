package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	bookingapp "github.com/tripdesk/backend/internal/application/booking"
	financeapp "github.com/tripdesk/backend/internal/application/finance"
	"github.com/tripdesk/backend/internal/infrastructure/auth"
	"github.com/tripdesk/backend/internal/infrastructure/cache"
	"github.com/tripdesk/backend/internal/infrastructure/config"
	"github.com/tripdesk/backend/internal/infrastructure/logger"
	"github.com/tripdesk/backend/internal/infrastructure/persistence"
	"github.com/tripdesk/backend/internal/interfaces/http/handler"
	"github.com/tripdesk/backend/internal/interfaces/http/middleware"
	"github.com/tripdesk/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting TripDesk Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Redis-backed metrics cache. The dashboard works without it, so a
	// missing Redis only degrades metric load times.
	var financeOpts []financeapp.FinanceServiceOption
	metricsCache, err := cache.NewRedisMetricsCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Cache.MetricsTTL)
	if err != nil {
		log.Warn("Redis unavailable, metrics caching disabled", zap.Error(err))
	} else {
		defer func() {
			_ = metricsCache.Close()
		}()
		financeOpts = append(financeOpts, financeapp.WithMetricsCache(metricsCache))
		log.Info("Redis connected successfully")
	}

	// Repositories
	reservationRepo := persistence.NewGormReservationRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)

	// Application services
	financeService := financeapp.NewFinanceService(reservationRepo, paymentRepo, financeOpts...)
	bookingService := bookingapp.NewBookingService(reservationRepo, paymentRepo)

	// JWT
	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP engine and middleware
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Routes
	r := router.NewRouter(engine)
	r.Register(handler.NewHealthHandler(db, version))
	r.Register(handler.NewFinanceHandler(financeService))
	r.Register(handler.NewReservationHandler(bookingService))
	r.Setup()

	// HTTP server
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
