package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientapp "github.com/cabinet/backend/internal/application/client"
	fiscalapp "github.com/cabinet/backend/internal/application/fiscal"
	identityapp "github.com/cabinet/backend/internal/application/identity"
	"github.com/cabinet/backend/internal/infrastructure/auth"
	"github.com/cabinet/backend/internal/infrastructure/cache"
	"github.com/cabinet/backend/internal/infrastructure/config"
	"github.com/cabinet/backend/internal/infrastructure/logger"
	"github.com/cabinet/backend/internal/infrastructure/persistence"
	"github.com/cabinet/backend/internal/infrastructure/telemetry"
	"github.com/cabinet/backend/internal/interfaces/http/handler"
	"github.com/cabinet/backend/internal/interfaces/http/middleware"
	"github.com/cabinet/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting cabinet backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database
	gormLogLevel := gormlogger.Silent
	if cfg.App.Env == "development" {
		gormLogLevel = gormlogger.Warn
	}
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := db.EnableTracing(); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected")

	// Redis client, shared by the invalidation broadcaster and subscriber
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// Invalidation degrades to TTL expiry without Redis; the instance
		// still serves.
		log.Warn("Redis unreachable, cross-instance cache invalidation disabled", zap.Error(err))
	}

	// Repositories
	clientRepo := persistence.NewGormClientRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// View caches and cross-instance invalidation
	cacheManager := cache.NewManager(log)
	invalidator := cache.NewRedisInvalidator(redisClient,
		cache.WithInvalidatorSource(cfg.App.Name),
		cache.WithInvalidatorLogger(log),
	)
	subscribeCtx, stopSubscribe := context.WithCancel(context.Background())
	defer stopSubscribe()
	go func() {
		if err := invalidator.Subscribe(subscribeCtx, cacheManager); err != nil && subscribeCtx.Err() == nil {
			log.Error("Cache invalidation subscription ended", zap.Error(err))
		}
	}()
	defer func() {
		if err := invalidator.Close(); err != nil {
			log.Error("Error closing invalidator", zap.Error(err))
		}
	}()

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, identityapp.DefaultAuthServiceConfig(), log)
	clientService := clientapp.NewService(clientRepo)
	viewService := fiscalapp.NewViewService(clientRepo, cacheManager,
		fiscalapp.WithViewTTL(cfg.Fiscal.CacheTTL),
		fiscalapp.WithAttestationWindow(cfg.Fiscal.AttestationWindow),
		fiscalapp.WithViewLogger(log),
	)
	complianceService := fiscalapp.NewComplianceService(clientRepo,
		fiscalapp.WithComplianceWindows(cfg.Fiscal.AttestationWindow, cfg.Fiscal.TaxWindow),
		fiscalapp.WithComplianceLogger(log),
	)
	gateway := fiscalapp.NewGateway(clientRepo, cacheManager,
		fiscalapp.WithBroadcaster(invalidator),
		fiscalapp.WithMaxRetries(cfg.Fiscal.MaxRetries),
		fiscalapp.WithBackoffStep(cfg.Fiscal.RetryBackoff),
		fiscalapp.WithBulkDelay(cfg.Fiscal.BulkDelay),
		fiscalapp.WithGatewayLogger(log),
	)

	// HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	clientHandler := handler.NewClientHandler(clientService)
	fiscalHandler := handler.NewFiscalHandler(gateway, viewService, complianceService, clientService)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Env)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/health", healthHandler(db, redisClient))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtService, middleware.JWTAuthConfig{
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
	}))
	r.Register(authHandler).
		Register(clientHandler).
		Register(fiscalHandler).
		Register(systemHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports database and Redis reachability. Redis being down
// degrades the response but stays 200: the instance still serves reads.
func healthHandler(db *persistence.Database, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)

		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}

		redisStatus := "ok"
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
			"redis":    redisStatus,
		})
	}
}
